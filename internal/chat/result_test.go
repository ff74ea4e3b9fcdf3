package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRowsToMaps(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		rows    [][]any
		want    []map[string]any
	}{
		{
			name:    "aligned",
			columns: []string{"a", "b"},
			rows:    [][]any{{1, "x"}, {2, "y"}},
			want:    []map[string]any{{"a": 1, "b": "x"}, {"a": 2, "b": "y"}},
		},
		{
			name:    "short row leaves columns absent",
			columns: []string{"a", "b", "c"},
			rows:    [][]any{{1}},
			want:    []map[string]any{{"a": 1}},
		},
		{
			name:    "extra values dropped",
			columns: []string{"a"},
			rows:    [][]any{{1, 2, 3}},
			want:    []map[string]any{{"a": 1}},
		},
		{
			name:    "null value kept",
			columns: []string{"a"},
			rows:    [][]any{{nil}},
			want:    []map[string]any{{"a": nil}},
		},
		{
			name:    "no rows",
			columns: []string{"a"},
			rows:    nil,
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RowsToMaps(tt.columns, tt.rows))
		})
	}
}

func TestShortRowHasNoKeyForMissingColumn(t *testing.T) {
	rows := RowsToMaps([]string{"a", "b"}, [][]any{{1}})

	_, ok := rows[0]["b"]
	assert.False(t, ok)
}

func TestNormalizeRequest(t *testing.T) {
	generated := ChatRequest{Message: "hi"}.Normalize()
	assert.NotEmpty(t, generated.SessionID)
	assert.Equal(t, DefaultOutputFormat, generated.OutputFormat)

	other := ChatRequest{Message: "hi"}.Normalize()
	assert.NotEqual(t, generated.SessionID, other.SessionID)

	supplied := ChatRequest{Message: "hi", SessionID: "abc", OutputFormat: "markdown"}.Normalize()
	assert.Equal(t, "abc", supplied.SessionID)
	assert.Equal(t, "markdown", supplied.OutputFormat)
}

func TestQueryDoneRowCount(t *testing.T) {
	assert.Equal(t, 3, QueryDonePayload{Rows: []byte(`3`)}.RowCount())
	assert.Equal(t, 2, QueryDonePayload{Rows: []byte(`[[1],[2]]`)}.RowCount())
	assert.Equal(t, 0, QueryDonePayload{}.RowCount())
	assert.Equal(t, 0, QueryDonePayload{Rows: []byte(`"many"`)}.RowCount())
}

func TestResultSQL(t *testing.T) {
	r := &ChatStreamResult{ExecutedQueries: []ExecutedQuery{
		{GeneratedSQL: "SELECT 1"},
		{},
		{GeneratedSQL: "SELECT 2"},
	}}
	assert.Equal(t, []string{"SELECT 1", "SELECT 2"}, r.SQL())
}

func TestStageAndClassificationStrings(t *testing.T) {
	assert.Equal(t, "synthesizing", StageSynthesizing.String())
	assert.Equal(t, "data_analysis", DataAnalysis.String())
	assert.Equal(t, "unclassified", Unclassified.String())
}

package chat

// classify derives the classification from how many queries were started.
func classify(queriesTotal int) Classification {
	if queriesTotal > 0 {
		return DataAnalysis
	}
	return Conversational
}

// RowsToMaps converts a row matrix aligned to columns into column-keyed rows.
// A row shorter than columns leaves the missing columns absent; values past
// the last column are dropped.
func RowsToMaps(columns []string, rows [][]any) []map[string]any {
	if rows == nil {
		return nil
	}
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		m := make(map[string]any, len(columns))
		for i, v := range row {
			if i >= len(columns) {
				break
			}
			m[columns[i]] = v
		}
		out = append(out, m)
	}
	return out
}

// buildResult assembles the final result from the terminal payload.
func buildResult(p DonePayload, queriesTotal int, sessionID string) *ChatStreamResult {
	queries := make([]ExecutedQuery, 0, len(p.ExecutedQueries))
	for _, q := range p.ExecutedQueries {
		queries = append(queries, ExecutedQuery{
			Question:     q.Question,
			GeneratedSQL: q.SQL,
			Columns:      q.Columns,
			Rows:         RowsToMaps(q.Columns, q.Rows),
			RowCount:     q.Count,
			Error:        q.Error,
		})
	}
	return &ChatStreamResult{
		Answer:          p.Answer,
		Classification:  classify(queriesTotal),
		DataQuestions:   p.DataQuestions,
		ExecutedQueries: queries,
		SessionID:       sessionID,
	}
}

package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"

	"lakechat/cli/internal/chat"
)

// MaxTableRows is how many rows of each query are printed.
const MaxTableRows = 20

// Result prints the answer and, when showQueries is set, each executed query
// with its rows.
func Result(w io.Writer, res *chat.ChatStreamResult, showQueries bool) {
	pterm.Fprintln(w, strings.TrimSpace(res.Answer))
	pterm.Fprintln(w)

	if showQueries && len(res.ExecutedQueries) > 0 {
		heading := pterm.NewStyle(pterm.FgLightCyan, pterm.Bold)
		for i, q := range res.ExecutedQueries {
			pterm.Fprintln(w, heading.Sprintf("Query %d: %s", i+1, q.Question))
			if q.GeneratedSQL != "" {
				pterm.Fprintln(w, pterm.Gray(q.GeneratedSQL))
			}
			if q.Error != "" {
				pterm.Fprintln(w, pterm.Red("✗ "+q.Error))
				pterm.Fprintln(w)
				continue
			}
			if table := Table(q); table != "" {
				pterm.Fprint(w, table)
			}
			if q.RowCount > MaxTableRows {
				pterm.Fprintln(w, pterm.Gray(fmt.Sprintf("… %d more rows", q.RowCount-MaxTableRows)))
			}
			pterm.Fprintln(w)
		}
	}

	if res.SessionID != "" {
		pterm.Fprintln(w, pterm.Gray("session: "+res.SessionID))
	}
}

// Table renders up to MaxTableRows rows of q as a table, or "" when q has no
// columns.
func Table(q chat.ExecutedQuery) string {
	if len(q.Columns) == 0 {
		return ""
	}
	data := pterm.TableData{q.Columns}
	for i, row := range q.Rows {
		if i == MaxTableRows {
			break
		}
		cells := make([]string, len(q.Columns))
		for j, col := range q.Columns {
			if v, ok := row[col]; ok {
				cells[j] = formatCell(v)
			}
		}
		data = append(data, cells)
	}
	out, err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Srender()
	if err != nil {
		return ""
	}
	return out + "\n"
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case float64:
		if x == float64(int64(x)) {
			return fmt.Sprintf("%d", int64(x))
		}
		return fmt.Sprintf("%g", x)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

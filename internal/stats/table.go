package stats

// DurationLabel heads the first column of every summary table.
const DurationLabel = "days"

// TableRow holds the counts of one window, aligned with Table.Header[1:].
type TableRow struct {
	Days   int   `json:"days"`
	Counts []int `json:"counts"`
}

// Table is one summary field reshaped from by-duration to by-value.
type Table struct {
	Header []string   `json:"header"`
	Rows   []TableRow `json:"rows"`
}

// BuildTables reflows history into one table per header field. Rows follow
// history order and missing values are zero.
func BuildTables(header Header, history History) map[string]Table {
	tables := make(map[string]Table, len(header))
	for field, values := range header {
		table := Table{Header: make([]string, 0, len(values)+1)}
		table.Header = append(table.Header, DurationLabel)
		table.Header = append(table.Header, values...)

		for _, w := range history {
			counts := w.Summary[field]
			row := TableRow{Days: w.Days, Counts: make([]int, len(values))}
			for i, v := range values {
				row.Counts[i] = counts[v]
			}
			table.Rows = append(table.Rows, row)
		}
		tables[field] = table
	}
	return tables
}

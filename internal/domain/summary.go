package domain

import "fmt"

// SummaryDimension is the attribute products are grouped by in a summary.
type SummaryDimension string

const (
	SummaryByStatus   SummaryDimension = "status"
	SummaryByCategory SummaryDimension = "category"
)

// ParseSummaryDimension returns the dimension named by s.
func ParseSummaryDimension(s string) (SummaryDimension, error) {
	switch d := SummaryDimension(s); d {
	case SummaryByStatus, SummaryByCategory:
		return d, nil
	}
	return "", fmt.Errorf("invalid summary dimension %q", s)
}

// SummaryRow is the number of products sharing one label.
type SummaryRow struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// Summary is a product count breakdown, ready for a pie chart.
type Summary struct {
	Dimension SummaryDimension `json:"dimension"`
	Rows      []SummaryRow     `json:"rows"`
}

// Table returns the summary as a header row plus [label, count] rows.
func (s Summary) Table() ([]string, [][]any) {
	rows := make([][]any, 0, len(s.Rows))
	for _, r := range s.Rows {
		rows = append(rows, []any{r.Label, r.Count})
	}
	return []string{string(s.Dimension), "products"}, rows
}

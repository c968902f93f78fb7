// Package chart renders product summaries as pie charts.
package chart

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	apperrors "github.com/utafrali/catalogadmin/pkg/errors"
)

// Slice is one labelled value of a pie.
type Slice struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// PieChartData is a validated two-column table: labels and their values.
type PieChartData struct {
	LabelField string  `json:"label_field"`
	ValueField string  `json:"value_field"`
	Slices     []Slice `json:"slices"`
}

// Config controls how a pie is drawn.
type Config struct {
	Title    string
	Subtitle string
	Width    string
	Height   string
	// PieHole is the inner radius as a fraction of the outer one. Zero draws
	// a full pie.
	PieHole float64
}

// DefaultConfig returns a 900x500 full pie.
func DefaultConfig(title string) Config {
	return Config{Title: title, Width: "900px", Height: "500px"}
}

// FromTable converts a header row plus [label, value] rows. Values must be
// non-negative finite numbers.
func FromTable(fieldNames []string, rows [][]any) (PieChartData, error) {
	if len(fieldNames) != 2 {
		return PieChartData{}, apperrors.InvalidInput(fmt.Sprintf("pie table needs 2 columns, got %d", len(fieldNames)))
	}
	data := PieChartData{
		LabelField: fieldNames[0],
		ValueField: fieldNames[1],
		Slices:     make([]Slice, 0, len(rows)),
	}
	for i, row := range rows {
		if len(row) != 2 {
			return PieChartData{}, apperrors.InvalidInput(fmt.Sprintf("row %d: want 2 cells, got %d", i, len(row)))
		}
		label, ok := row[0].(string)
		if !ok {
			return PieChartData{}, apperrors.InvalidInput(fmt.Sprintf("row %d: label must be a string, got %T", i, row[0]))
		}
		v, err := toFloat(row[1])
		if err != nil {
			return PieChartData{}, apperrors.InvalidInput(fmt.Sprintf("row %d: %v", i, err))
		}
		data.Slices = append(data.Slices, Slice{Label: label, Value: v})
	}
	return data, nil
}

func toFloat(v any) (float64, error) {
	var f float64
	switch n := v.(type) {
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case float32:
		f = float64(n)
	case float64:
		f = n
	case json.Number:
		parsed, err := strconv.ParseFloat(string(n), 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not a number", n)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("value must be numeric, got %T", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, fmt.Errorf("value %v must be a non-negative finite number", f)
	}
	return f, nil
}

// RenderPie writes a standalone HTML page with the pie to w.
func RenderPie(w io.Writer, data PieChartData, cfg Config) error {
	if cfg.PieHole < 0 || cfg.PieHole >= 1 {
		return apperrors.InvalidInput(fmt.Sprintf("pie hole must be in [0, 1), got %v", cfg.PieHole))
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: cfg.Title,
			Width:     cfg.Width,
			Height:    cfg.Height,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    cfg.Title,
			Subtitle: cfg.Subtitle,
		}),
	)

	items := make([]opts.PieData, 0, len(data.Slices))
	for _, s := range data.Slices {
		items = append(items, opts.PieData{Name: s.Label, Value: s.Value})
	}

	radius := any("75%")
	if cfg.PieHole > 0 {
		radius = []string{fmt.Sprintf("%.0f%%", cfg.PieHole*75), "75%"}
	}
	pie.AddSeries(data.ValueField, items).
		SetSeriesOptions(
			charts.WithPieChartOpts(opts.PieChart{Radius: radius}),
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true)}),
		)

	if err := pie.Render(w); err != nil {
		return fmt.Errorf("render pie chart: %w", err)
	}
	return nil
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLang(t *testing.T) {
	tests := []struct {
		in      string
		want    Lang
		wantErr bool
	}{
		{"", DefaultLang, false},
		{"de", "de", false},
		{" FR ", "fr", false},
		{"eng", "", true},
		{"e1", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLang(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseViewMode(t *testing.T) {
	m, err := ParseViewMode("list")
	require.NoError(t, err)
	assert.Equal(t, ViewModeList, m)

	_, err = ParseViewMode("table")
	assert.Error(t, err)

	assert.True(t, ViewModeGrid.Valid())
	assert.False(t, ViewMode("").Valid())
}

func TestIsValidStatus(t *testing.T) {
	assert.True(t, IsValidStatus(ProductStatusPublished))
	assert.False(t, IsValidStatus("deleted"))
}

func TestSummaryTable(t *testing.T) {
	s := Summary{
		Dimension: SummaryByStatus,
		Rows:      []SummaryRow{{Label: "draft", Count: 2}, {Label: "published", Count: 5}},
	}
	header, rows := s.Table()

	assert.Equal(t, []string{"status", "products"}, header)
	assert.Equal(t, [][]any{{"draft", int64(2)}, {"published", int64(5)}}, rows)

	_, err := ParseSummaryDimension("brand")
	assert.Error(t, err)
}

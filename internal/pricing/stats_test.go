package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func priced(prices ...string) []Package {
	out := make([]Package, len(prices))
	for i, p := range prices {
		out[i] = Package{Name: "p", IsActive: true, Price: decimal.RequireFromString(p)}
	}
	return out
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name   string
		prices []string
		want   *PriceSummary
	}{
		{
			name:   "no packages",
			prices: nil,
			want:   nil,
		},
		{
			name:   "only quotes",
			prices: []string{"0", "0"},
			want:   nil,
		},
		{
			name:   "single",
			prices: []string{"500"},
			want:   &PriceSummary{Count: 1, Min: decimal.RequireFromString("500"), Max: decimal.RequireFromString("500"), Median: decimal.RequireFromString("500"), Mean: decimal.RequireFromString("500")},
		},
		{
			name:   "odd count skips zero",
			prices: []string{"999", "0", "199", "499"},
			want:   &PriceSummary{Count: 3, Min: decimal.RequireFromString("199"), Max: decimal.RequireFromString("999"), Median: decimal.RequireFromString("499"), Mean: decimal.RequireFromString("565.67")},
		},
		{
			name:   "even count takes lower middle",
			prices: []string{"19.99", "49.99", "29.99", "99.99"},
			want:   &PriceSummary{Count: 4, Min: decimal.RequireFromString("19.99"), Max: decimal.RequireFromString("99.99"), Median: decimal.RequireFromString("29.99"), Mean: decimal.RequireFromString("49.99")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(priced(tt.prices...))
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want.Count, got.Count)
			assert.True(t, tt.want.Min.Equal(got.Min), "min %s", got.Min)
			assert.True(t, tt.want.Max.Equal(got.Max), "max %s", got.Max)
			assert.True(t, tt.want.Median.Equal(got.Median), "median %s", got.Median)
			assert.True(t, tt.want.Mean.Equal(got.Mean), "mean %s", got.Mean)
		})
	}
}

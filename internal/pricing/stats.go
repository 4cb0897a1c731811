package pricing

import (
	"sort"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PriceSummary describes the priced packages of one group. Zero prices mean
// "ask for a quote" and are left out.
type PriceSummary struct {
	Count  int             `json:"count"`
	Min    decimal.Decimal `json:"min"`
	Max    decimal.Decimal `json:"max"`
	Median decimal.Decimal `json:"median"`
	Mean   decimal.Decimal `json:"mean"`
}

// Summarize returns nil when no package carries a positive price
func Summarize(packages []Package) *PriceSummary {
	prices := make([]decimal.Decimal, 0, len(packages))
	for _, p := range packages {
		if p.Price.IsPositive() {
			prices = append(prices, p.Price)
		}
	}
	if len(prices) == 0 {
		return nil
	}

	values := make([]float64, len(prices))
	for i, d := range prices {
		values[i] = d.InexactFloat64()
	}

	minIdx, maxIdx := floats.MinIdx(values), floats.MaxIdx(values)

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	median := stat.Quantile(0.5, stat.Empirical, sorted, nil)

	return &PriceSummary{
		Count:  len(prices),
		Min:    prices[minIdx],
		Max:    prices[maxIdx],
		Median: canonical(decimal.NewFromFloat(median)),
		Mean:   canonical(decimal.NewFromFloat(stat.Mean(values, nil)).Round(2)),
	}
}

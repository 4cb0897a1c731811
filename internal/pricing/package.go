package pricing

import (
	"github.com/GriffinCanCode/AgencySite/backend/internal/catalog"
	"github.com/shopspring/decimal"
)

// DefaultPricePeriod is used when a source gives no billing period
const DefaultPricePeriod = "/month"

// UnnamedPackage is the name given to packages with neither name nor title
const UnnamedPackage = "Unnamed Package"

// Package is one priced offering in canonical form. The JSON field names
// are the ones sources use, so a marshalled Package normalizes to itself.
type Package struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	PricePeriod string          `json:"price_period"`
	Features    []string        `json:"features"`
	Description string          `json:"description"`
	IsPopular   bool            `json:"is_popular"`
	IsActive    bool            `json:"is_active"`
	ButtonLink  *string         `json:"button_link"`

	ServiceID       string               `json:"service_id"`
	ServiceName     string               `json:"service_name"`
	ServiceCategory catalog.CategoryMeta `json:"service_category"`
}

// Displayable reports whether the package survives the aggregation filter
func (p Package) Displayable() bool {
	return hasText(p.Name) && p.IsActive
}

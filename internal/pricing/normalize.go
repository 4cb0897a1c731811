package pricing

import (
	"github.com/GriffinCanCode/AgencySite/backend/internal/catalog"
	"github.com/GriffinCanCode/AgencySite/backend/internal/pricing/envelope"
	"github.com/GriffinCanCode/AgencySite/backend/internal/shared/id"
	"github.com/shopspring/decimal"
)

// Normalizer maps raw package objects of any shape onto Package
type Normalizer struct {
	defaultPeriod string
	newID         func() string
}

// NewNormalizer creates a normalizer. An empty period falls back to
// DefaultPricePeriod; a nil id source uses a fresh ULID generator.
func NewNormalizer(defaultPeriod string, newID func() string) *Normalizer {
	if defaultPeriod == "" {
		defaultPeriod = DefaultPricePeriod
	}
	if newID == nil {
		gen := id.NewGenerator()
		newID = func() string { return gen.PackageID().String() }
	}
	return &Normalizer{defaultPeriod: defaultPeriod, newID: newID}
}

var defaultNormalizer = NewNormalizer(DefaultPricePeriod, nil)

// Normalize converts one raw item using the default normalizer
func Normalize(raw any, svc catalog.Service) Package {
	return defaultNormalizer.Normalize(raw, svc)
}

// Normalize converts one raw item into a Package owned by svc. It never
// fails: missing or oddly typed fields take their defaults.
func (n *Normalizer) Normalize(raw any, svc catalog.Service) Package {
	p := Package{
		Name:            UnnamedPackage,
		Price:           decimal.Zero,
		PricePeriod:     n.defaultPeriod,
		Features:        []string{},
		IsActive:        true,
		ServiceID:       svc.ID,
		ServiceName:     svc.DisplayName,
		ServiceCategory: svc.Category,
	}

	if s, ok := firstText(raw, "id"); ok {
		p.ID = s
	} else {
		p.ID = n.newID()
	}

	if s, ok := firstText(raw, "name", "title"); ok {
		p.Name = s
	}

	// The first truthy field wins even when it does not parse; "0" or
	// "call us" mean a quote, not "try starting_price".
	if v, ok := firstTruthy(raw, "price", "starting_price"); ok {
		if d, ok := amount(v); ok {
			p.Price = d
		}
	}

	if s, ok := firstText(raw, "price_period", "duration"); ok {
		p.PricePeriod = s
	}

	for _, key := range []string{"features", "benefits"} {
		if v, ok := envelope.Field(raw, key); ok {
			if items, ok := v.([]any); ok {
				p.Features = stringList(items)
				break
			}
		}
	}

	if s, ok := firstText(raw, "description", "subtitle"); ok {
		p.Description = s
	}

	_, p.IsPopular = firstTruthy(raw, "is_popular", "popular", "recommended")

	if v, ok := envelope.Field(raw, "is_active"); ok {
		if b, isBool := v.(bool); isBool && !b {
			p.IsActive = false
		}
	}

	if s, ok := firstText(raw, "button_link", "demo_order_link"); ok {
		p.ButtonLink = &s
	}

	return p
}

// NormalizeAll converts every located item, keeping source order
func (n *Normalizer) NormalizeAll(items []any, svc catalog.Service) []Package {
	out := make([]Package, 0, len(items))
	for _, raw := range items {
		out = append(out, n.Normalize(raw, svc))
	}
	return out
}

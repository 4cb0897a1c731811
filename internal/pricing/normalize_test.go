package pricing

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/GriffinCanCode/AgencySite/backend/internal/catalog"
	"github.com/GriffinCanCode/AgencySite/backend/internal/pricing/envelope"
	"github.com/GriffinCanCode/AgencySite/backend/internal/shared/id"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var seo = catalog.Service{
	ID:          "seo",
	DisplayName: "SEO",
	Category:    catalog.CategoryMeta{Icon: "search", Color: "#10b981"},
	HasPackages: true,
}

func fixedID(v string) func() string {
	return func() string { return v }
}

func decode(t *testing.T, src string) any {
	t.Helper()
	v, err := envelope.Decode([]byte(src))
	require.NoError(t, err)
	return v
}

func TestNormalizeDefaults(t *testing.T) {
	n := NewNormalizer("", fixedID("pkg_generated"))

	p := n.Normalize(map[string]any{}, seo)

	assert.Equal(t, "pkg_generated", p.ID)
	assert.Equal(t, UnnamedPackage, p.Name)
	assert.True(t, p.Price.IsZero())
	assert.Equal(t, DefaultPricePeriod, p.PricePeriod)
	assert.Equal(t, []string{}, p.Features)
	assert.Empty(t, p.Description)
	assert.False(t, p.IsPopular)
	assert.True(t, p.IsActive)
	assert.Nil(t, p.ButtonLink)
	assert.Equal(t, "seo", p.ServiceID)
	assert.Equal(t, "SEO", p.ServiceName)
	assert.Equal(t, seo.Category, p.ServiceCategory)
}

func TestNormalizeNeverPanics(t *testing.T) {
	n := NewNormalizer("/month", fixedID("x"))
	for _, raw := range []any{nil, "string", 42, []any{1, 2}, true} {
		assert.NotPanics(t, func() {
			p := n.Normalize(raw, seo)
			assert.Equal(t, UnnamedPackage, p.Name)
		})
	}
}

func TestNormalizeFieldResolution(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		check func(t *testing.T, p Package)
	}{
		{
			name: "id from source",
			raw:  `{"id": 17}`,
			check: func(t *testing.T, p Package) {
				assert.Equal(t, "17", p.ID)
			},
		},
		{
			name: "empty id is generated",
			raw:  `{"id": ""}`,
			check: func(t *testing.T, p Package) {
				assert.Equal(t, "gen", p.ID)
			},
		},
		{
			name: "name before title",
			raw:  `{"name": "Basic", "title": "Ignored"}`,
			check: func(t *testing.T, p Package) {
				assert.Equal(t, "Basic", p.Name)
			},
		},
		{
			name: "title when name empty",
			raw:  `{"name": "", "title": "Pro"}`,
			check: func(t *testing.T, p Package) {
				assert.Equal(t, "Pro", p.Name)
			},
		},
		{
			name: "price before starting_price",
			raw:  `{"price": 500, "starting_price": 999}`,
			check: func(t *testing.T, p Package) {
				assert.True(t, decimal.NewFromInt(500).Equal(p.Price))
			},
		},
		{
			name: "zero price falls through to starting_price",
			raw:  `{"price": 0, "starting_price": 999}`,
			check: func(t *testing.T, p Package) {
				assert.True(t, decimal.NewFromInt(999).Equal(p.Price))
			},
		},
		{
			name: "truthy zero string does not fall through",
			raw:  `{"price": "0", "starting_price": 50}`,
			check: func(t *testing.T, p Package) {
				assert.True(t, p.Price.IsZero(), "got %s", p.Price)
			},
		},
		{
			name: "truthy unparseable price does not fall through",
			raw:  `{"price": "call us", "starting_price": 50}`,
			check: func(t *testing.T, p Package) {
				assert.True(t, p.Price.IsZero(), "got %s", p.Price)
			},
		},
		{
			name: "price string with currency",
			raw:  `{"price": "$1,200.50"}`,
			check: func(t *testing.T, p Package) {
				assert.Equal(t, "1200.5", p.Price.String())
			},
		},
		{
			name: "unparseable price is zero",
			raw:  `{"price": "call us"}`,
			check: func(t *testing.T, p Package) {
				assert.True(t, p.Price.IsZero())
			},
		},
		{
			name: "duration as period",
			raw:  `{"duration": "/project"}`,
			check: func(t *testing.T, p Package) {
				assert.Equal(t, "/project", p.PricePeriod)
			},
		},
		{
			name: "features must be an array",
			raw:  `{"features": "Fast", "benefits": ["X", "Y"]}`,
			check: func(t *testing.T, p Package) {
				assert.Equal(t, []string{"X", "Y"}, p.Features)
			},
		},
		{
			name: "features from objects and numbers",
			raw:  `{"features": [{"text": "SSL"}, {"title": "CDN"}, 24, {"icon": "x"}]}`,
			check: func(t *testing.T, p Package) {
				assert.Equal(t, []string{"SSL", "CDN", "24"}, p.Features)
			},
		},
		{
			name: "subtitle as description",
			raw:  `{"subtitle": "For startups"}`,
			check: func(t *testing.T, p Package) {
				assert.Equal(t, "For startups", p.Description)
			},
		},
		{
			name: "popular aliases",
			raw:  `{"is_popular": false, "popular": 0, "recommended": true}`,
			check: func(t *testing.T, p Package) {
				assert.True(t, p.IsPopular)
			},
		},
		{
			name: "only literal false deactivates",
			raw:  `{"is_active": 0}`,
			check: func(t *testing.T, p Package) {
				assert.True(t, p.IsActive)
			},
		},
		{
			name: "inactive",
			raw:  `{"is_active": false}`,
			check: func(t *testing.T, p Package) {
				assert.False(t, p.IsActive)
			},
		},
		{
			name: "demo_order_link as button link",
			raw:  `{"button_link": null, "demo_order_link": "https://example.com/order"}`,
			check: func(t *testing.T, p Package) {
				require.NotNil(t, p.ButtonLink)
				assert.Equal(t, "https://example.com/order", *p.ButtonLink)
			},
		},
	}

	n := NewNormalizer("/month", fixedID("gen"))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, n.Normalize(decode(t, tt.raw), seo))
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	n := NewNormalizer("/month", fixedID("unused"))
	link := "https://example.com/buy"

	inputs := []any{
		decode(t, `{"id": "p1", "title": "Pro", "starting_price": "999.50", "benefits": ["X", "Y"], "recommended": 1}`),
		decode(t, `{"id": "p2", "name": "Free", "price": 0, "is_active": false}`),
		map[string]any{"id": "p3", "name": "Link", "price": 19.99, "button_link": link, "subtitle": "s"},
	}

	for _, raw := range inputs {
		first := n.Normalize(raw, seo)

		data, err := json.Marshal(first)
		require.NoError(t, err)
		second := n.Normalize(decode(t, string(data)), seo)

		assert.Equal(t, first, second, "round trip of %s", data)
	}
}

func TestNormalizeGeneratesUniqueIDs(t *testing.T) {
	items := make([]any, 50)
	for i := range items {
		items[i] = map[string]any{"name": "n"}
	}

	seen := make(map[string]bool)
	for _, p := range NewNormalizer("", nil).NormalizeAll(items, seo) {
		assert.True(t, id.Is(p.ID, id.KindPackage), p.ID)
		assert.False(t, seen[p.ID], "duplicate id %s", p.ID)
		seen[p.ID] = true
	}
}

func TestNormalizeAllKeepsOrder(t *testing.T) {
	items := decode(t, `[{"name": "c"}, {"name": "a"}, {"name": "b"}]`).([]any)

	var got []string
	for _, p := range NewNormalizer("", nil).NormalizeAll(items, seo) {
		got = append(got, p.Name)
	}
	assert.Equal(t, "c,a,b", strings.Join(got, ","))
}

func TestNestedHeroScenario(t *testing.T) {
	env := decode(t, `{"status": 200, "data": {"hero": {"packages": [
		{"title": "Pro", "starting_price": 999, "benefits": ["X", "Y"]}
	]}}}`)

	items := envelope.LocatePackageArray(env)
	require.Len(t, items, 1)

	p := Normalize(items[0], seo)
	assert.Equal(t, "Pro", p.Name)
	assert.Equal(t, "999", p.Price.String())
	assert.Equal(t, []string{"X", "Y"}, p.Features)
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GriffinCanCode/AgencySite/backend/internal/catalog"
	"github.com/GriffinCanCode/AgencySite/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgencySite/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgencySite/backend/internal/pricing"
	"github.com/GriffinCanCode/AgencySite/backend/internal/pricing/envelope"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payload(src string) catalog.FetchFunc {
	return func(context.Context) (any, error) {
		return envelope.Decode([]byte(src))
	}
}

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := catalog.MustNew(
		catalog.Service{ID: "web", DisplayName: "Web Development", HasPackages: true, Fetch: payload(`{"packages": [
			{"id": "w1", "name": "Starter", "price": 1500, "description": "<b>Fast</b> &amp; cheap", "button_link": "javascript:alert(1)"},
			{"id": "w2", "name": "Scale", "price": 4000, "features": ["<i>CDN</i>", "<script>x</script>"], "button_link": "https://agency.example/buy"}
		]}`)},
		catalog.Service{ID: "seo", DisplayName: "SEO", HasPackages: true, Fetch: func(context.Context) (any, error) {
			return nil, errors.New("upstream down")
		}},
		catalog.Service{ID: "custom", DisplayName: "Custom Software", RedirectTarget: "/contact"},
	)

	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	svc := pricing.NewService(reg, nil, nil, nil).WithMetrics(metrics)
	handlers := NewHandlers(svc, metrics, nil).WithBreakers(func() map[string]resilience.State {
		return map[string]resilience.State{"seo": resilience.StateOpen}
	})

	router := gin.New()
	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/services", handlers.ListServices)
	router.GET("/pricing", handlers.Pricing)
	return router
}

func get(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealth(t *testing.T) {
	router := setupTestRouter(t)

	w := get(t, router, "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status   string            `json:"status"`
		Registry map[string]int    `json:"registry"`
		Circuits map[string]string `json:"circuits"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, 3, body.Registry["total_services"])
	assert.Equal(t, 1, body.Registry["redirect_only"])
	assert.Equal(t, "open", body.Circuits["seo"])

	assert.Equal(t, http.StatusOK, get(t, router, "/").Code)
}

func TestListServices(t *testing.T) {
	w := get(t, setupTestRouter(t), "/services")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Services []catalog.Service `json:"services"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Services, 3)
	assert.Equal(t, "web", body.Services[0].ID)
	assert.Equal(t, "seo", body.Services[1].ID)
	assert.Equal(t, "/contact", body.Services[2].RedirectTarget)
	assert.NotContains(t, w.Body.String(), "Fetch")
}

func TestPricing(t *testing.T) {
	w := get(t, setupTestRouter(t), "/pricing")
	require.Equal(t, http.StatusOK, w.Code)

	var result pricing.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))

	assert.Equal(t, 2, result.TotalCount)
	require.Len(t, result.Groups, 3)
	assert.Equal(t, "web", result.Groups[0].Service.ID)
	assert.Equal(t, 0, result.Groups[1].Count)
	assert.Equal(t, "/contact", result.Groups[2].RedirectTarget)

	starter, scale := result.Groups[0].Packages[0], result.Groups[0].Packages[1]
	assert.Equal(t, "Fast & cheap", starter.Description)
	assert.Nil(t, starter.ButtonLink)
	assert.Equal(t, []string{"CDN"}, scale.Features)
	require.NotNil(t, scale.ButtonLink)
	assert.Equal(t, "https://agency.example/buy", *scale.ButtonLink)
	assert.Equal(t, "1500", result.Groups[0].Prices.Min.String())
}

func TestPricingETag(t *testing.T) {
	router := setupTestRouter(t)

	first := get(t, router, "/pricing?category=web")
	require.Equal(t, http.StatusOK, first.Code)
	etag := first.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/pricing?category=web", nil)
	req.Header.Set("If-None-Match", etag)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Equal(t, etag, w.Header().Get("ETag"))
}

func TestPricingCategory(t *testing.T) {
	router := setupTestRouter(t)

	tests := []struct {
		query      string
		wantStatus int
		wantCount  int
	}{
		{query: "web", wantStatus: http.StatusOK, wantCount: 2},
		{query: "seo", wantStatus: http.StatusOK, wantCount: 0},
		{query: "all", wantStatus: http.StatusOK, wantCount: 2},
		{query: "custom", wantStatus: http.StatusOK, wantCount: 0},
		{query: "nope", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := get(t, router, "/pricing?category="+tt.query)
			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}

			var body CategoryResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.query, body.Category)
			assert.Equal(t, tt.wantCount, body.Count)
			assert.Len(t, body.Packages, tt.wantCount)
			assert.Equal(t, 2, body.TotalCount)
			assert.Equal(t, 2, body.Counts["all"])
		})
	}
}

func TestSanitizer(t *testing.T) {
	s := NewSanitizer()

	assert.Equal(t, "Hello", s.Text(`<a href="x" onclick="y">Hello</a>`))
	assert.Equal(t, "R&D", s.Text("R&D"))
	assert.Equal(t, "", s.Text("<script>alert(1)</script>"))
	assert.Equal(t, "", s.Text("&lt;script&gt;alert(1)&lt;/script&gt;"))
	assert.Equal(t, "", s.Text("&lt;img src=x onerror=alert(1)&gt;"))
	assert.Equal(t, "", s.Text("&amp;lt;img src=x onerror=alert(1)&amp;gt;"))
	assert.Equal(t, "Fast & cheap", s.Text("<b>Fast</b> &amp; cheap"))
	assert.Equal(t, "a < b", s.Text("a &lt; b"))

	link := func(v string) *string { return &v }
	assert.Nil(t, s.Link(nil))
	assert.Nil(t, s.Link(link("javascript:alert(1)")))
	assert.Nil(t, s.Link(link("//evil.example")))
	assert.Equal(t, "/contact", *s.Link(link(" /contact ")))
	assert.Equal(t, "https://agency.example/a?b=1", *s.Link(link("https://agency.example/a?b=1")))
}

func TestSanitizerDropsMarkupOnlyNames(t *testing.T) {
	reg := catalog.MustNew(
		catalog.Service{ID: "web", DisplayName: "Web Development", HasPackages: true, Fetch: payload(`[]`)},
	)
	raw := []pricing.Package{
		{Name: "<b></b>", IsActive: true, ServiceID: "web", Price: decimal.NewFromInt(100)},
		{Name: "&lt;script&gt;x&lt;/script&gt;", IsActive: true, ServiceID: "web", Price: decimal.NewFromInt(200)},
		{Name: "Starter", IsActive: true, ServiceID: "web", Price: decimal.NewFromInt(1500)},
	}
	result, err := pricing.Aggregate([]pricing.SourceResult{{ServiceID: "web", Packages: raw}}, reg)
	require.NoError(t, err)
	require.Equal(t, 3, result.TotalCount)

	clean := NewSanitizer().Result(result)

	assert.Equal(t, 1, clean.TotalCount)
	require.Len(t, clean.Groups, 1)
	web := clean.Groups[0]
	assert.Equal(t, 1, web.Count)
	require.Len(t, web.Packages, 1)
	assert.Equal(t, "Starter", web.Packages[0].Name)
	require.NotNil(t, web.Prices)
	assert.Equal(t, "1500", web.Prices.Min.String())
	assert.Equal(t, 1, clean.Counts()["all"])

	// The input is left untouched
	assert.Equal(t, 3, result.TotalCount)
}

func TestPricingHidesMarkupOnlyPackages(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := catalog.MustNew(
		catalog.Service{ID: "web", DisplayName: "Web Development", HasPackages: true, Fetch: payload(`{"packages": [
			{"name": "<b></b>", "price": 10},
			{"name": "&lt;img src=x onerror=alert(1)&gt;", "price": 20},
			{"name": "Starter", "price": 1500}
		]}`)},
	)
	handlers := NewHandlers(pricing.NewService(reg, nil, nil, nil), nil, nil)
	router := gin.New()
	router.GET("/pricing", handlers.Pricing)

	w := get(t, router, "/pricing?category=web")
	require.Equal(t, http.StatusOK, w.Code)

	var body CategoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, 1, body.TotalCount)
	assert.Equal(t, 1, body.Counts["web"])
	require.Len(t, body.Packages, 1)
	assert.Equal(t, "Starter", body.Packages[0].Name)
	assert.NotContains(t, w.Body.String(), "onerror")
}

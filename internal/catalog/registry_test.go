package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/GriffinCanCode/AgencySite/backend/internal/shared/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nopFetch(context.Context) (any, error) { return nil, nil }

func TestNewPreservesOrder(t *testing.T) {
	r, err := New(
		Service{ID: "b", DisplayName: "B", HasPackages: true, Fetch: nopFetch},
		Service{ID: "a", DisplayName: "A", HasPackages: true, Fetch: nopFetch},
		Service{ID: "c", RedirectTarget: "/contact"},
	)
	require.NoError(t, err)

	var ids []string
	for _, svc := range r.Services() {
		ids = append(ids, svc.ID)
	}
	assert.Equal(t, []string{"b", "a", "c"}, ids)
	assert.Equal(t, 1, r.Position("a"))
	assert.Equal(t, -1, r.Position("missing"))

	c, ok := r.Get("c")
	require.True(t, ok)
	assert.Equal(t, "c", c.DisplayName, "display name defaults to the id")
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name     string
		services []Service
		wantErr  error
	}{
		{
			name:     "empty id",
			services: []Service{{DisplayName: "x"}},
			wantErr:  ErrEmptyID,
		},
		{
			name: "duplicate id",
			services: []Service{
				{ID: "seo", HasPackages: true, Fetch: nopFetch},
				{ID: "seo", HasPackages: true, Fetch: nopFetch},
			},
			wantErr: ErrDuplicateService,
		},
		{
			name:     "unsafe id",
			services: []Service{{ID: "web dev", RedirectTarget: "/contact"}},
			wantErr:  utils.ErrInvalidID,
		},
		{
			name:     "packages without fetcher",
			services: []Service{{ID: "seo", HasPackages: true}},
			wantErr:  ErrMissingFetcher,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.services...)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestServicesReturnsCopy(t *testing.T) {
	r := MustNew(Service{ID: "a", HasPackages: true, Fetch: nopFetch})

	services := r.Services()
	services[0].ID = "mutated"

	_, ok := r.Get("a")
	assert.True(t, ok)
}

func TestStats(t *testing.T) {
	r := MustNew(
		Service{ID: "a", HasPackages: true, Fetch: nopFetch},
		Service{ID: "b", RedirectTarget: "/contact"},
	)

	stats := r.Stats()
	assert.Equal(t, 2, stats["total_services"])
	assert.Equal(t, 1, stats["with_packages"])
	assert.Equal(t, 1, stats["redirect_only"])
}

func TestDefaultCatalog(t *testing.T) {
	f := Default()
	require.Len(t, f.Services, 12)

	r, err := Bind(f, func(Entry) FetchFunc { return nopFetch })
	require.NoError(t, err)

	custom, ok := r.Get("custom-software")
	require.True(t, ok)
	assert.False(t, custom.HasPackages)
	assert.Equal(t, "/contact", custom.RedirectTarget)
	assert.Nil(t, custom.Fetch)

	web, ok := r.Get("web-development")
	require.True(t, ok)
	assert.NotNil(t, web.Fetch)
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		data   string
	}{
		{
			name:   "yaml",
			format: FormatYAML,
			data: `services:
  - id: seo
    name: SEO
    endpoint: /seo/page/
    has_packages: true
`,
		},
		{
			name:   "toml",
			format: FormatTOML,
			data: `[[services]]
id = "seo"
name = "SEO"
endpoint = "/seo/page/"
has_packages = true
`,
		},
		{
			name:   "json",
			format: FormatJSON,
			data:   `{"services":[{"id":"seo","name":"SEO","endpoint":"/seo/page/","has_packages":true}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.data), tt.format)
			require.NoError(t, err)
			require.Len(t, f.Services, 1)
			assert.Equal(t, Entry{ID: "seo", Name: "SEO", Endpoint: "/seo/page/", HasPackages: true}, f.Services[0])
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yml")
	require.NoError(t, os.WriteFile(path, []byte("services:\n  - id: seo\n    redirect: /contact\n"), 0o644))

	f, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, f.Services, 1)
	assert.Equal(t, "/contact", f.Services[0].Redirect)

	_, err = LoadFile(filepath.Join(dir, "catalog.ini"))
	assert.Error(t, err)

	f, err = LoadFile("")
	require.NoError(t, err)
	assert.Len(t, f.Services, 12)
}

func TestBindWithoutFactory(t *testing.T) {
	f := &File{Services: []Entry{{ID: "seo", HasPackages: true}}}

	_, err := Bind(f, nil)
	assert.ErrorIs(t, err, ErrMissingFetcher)
}

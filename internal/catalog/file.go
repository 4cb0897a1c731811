package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

//go:embed default.yaml
var defaultCatalog []byte

// Format is a catalog file encoding
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// Entry is one service as written in a catalog file
type Entry struct {
	ID          string       `json:"id" yaml:"id" toml:"id"`
	Name        string       `json:"name" yaml:"name" toml:"name"`
	Endpoint    string       `json:"endpoint" yaml:"endpoint" toml:"endpoint"`
	HasPackages bool         `json:"has_packages" yaml:"has_packages" toml:"has_packages"`
	Redirect    string       `json:"redirect" yaml:"redirect" toml:"redirect"`
	Category    CategoryMeta `json:"category" yaml:"category" toml:"category"`
}

// File is the on-disk catalog document
type File struct {
	Services []Entry `json:"services" yaml:"services" toml:"services"`
}

// FetcherFactory binds a catalog entry to a fetch capability
type FetcherFactory func(e Entry) FetchFunc

// FormatFromPath picks the decoder from a file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported catalog format: %q", filepath.Ext(path))
	}
}

// Parse decodes a catalog document
func Parse(data []byte, format Format) (*File, error) {
	var f File
	var err error

	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &f)
	case FormatTOML:
		err = toml.Unmarshal(data, &f)
	case FormatJSON:
		err = sonic.Unmarshal(data, &f)
	default:
		return nil, fmt.Errorf("unsupported catalog format: %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s catalog: %w", format, err)
	}

	return &f, nil
}

// LoadFile reads and decodes a catalog file. An empty path yields the
// built-in catalog.
func LoadFile(path string) (*File, error) {
	if path == "" {
		return Default(), nil
	}

	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	return Parse(data, format)
}

// Default returns the built-in catalog of agency services
func Default() *File {
	f, err := Parse(defaultCatalog, FormatYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return f
}

// Bind turns catalog entries into a registry, attaching a fetch capability to
// every entry that has packages.
func Bind(f *File, factory FetcherFactory) (*Registry, error) {
	services := make([]Service, 0, len(f.Services))
	for _, e := range f.Services {
		svc := Service{
			ID:             e.ID,
			DisplayName:    e.Name,
			Category:       e.Category,
			HasPackages:    e.HasPackages,
			RedirectTarget: e.Redirect,
		}
		if e.HasPackages && factory != nil {
			svc.Fetch = factory(e)
		}
		services = append(services, svc)
	}
	return New(services...)
}

package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/GriffinCanCode/AgencySite/backend/internal/shared/utils"
)

var (
	ErrEmptyID          = errors.New("service ID cannot be empty")
	ErrDuplicateService = errors.New("duplicate service ID")
	ErrMissingFetcher   = errors.New("service with packages has no fetch capability")
	ErrUnknownService   = errors.New("service not in registry")
)

// FetchFunc retrieves the raw page payload of one service. The returned value
// is whatever JSON the remote answered with; its shape is not assumed.
type FetchFunc func(ctx context.Context) (any, error)

// CategoryMeta carries presentation hints for a service category
type CategoryMeta struct {
	Icon        string `json:"icon,omitempty" yaml:"icon" toml:"icon"`
	Color       string `json:"color,omitempty" yaml:"color" toml:"color"`
	Tagline     string `json:"tagline,omitempty" yaml:"tagline" toml:"tagline"`
	Description string `json:"description,omitempty" yaml:"description" toml:"description"`
}

// Service describes one remote content source and the category it renders as
type Service struct {
	ID             string       `json:"id"`
	DisplayName    string       `json:"display_name"`
	Category       CategoryMeta `json:"category"`
	HasPackages    bool         `json:"has_packages"`
	RedirectTarget string       `json:"redirect_target,omitempty"`
	Fetch          FetchFunc    `json:"-"`
}

// Registry is an ordered, immutable set of services. Order is the display
// order of categories and is preserved by every consumer.
type Registry struct {
	services []Service
	index    map[string]int
}

// New validates the descriptors and builds a registry in the given order
func New(services ...Service) (*Registry, error) {
	r := &Registry{
		services: make([]Service, 0, len(services)),
		index:    make(map[string]int, len(services)),
	}

	for _, svc := range services {
		if svc.ID == "" {
			return nil, ErrEmptyID
		}
		if err := utils.ValidateID(svc.ID); err != nil {
			return nil, err
		}
		if _, exists := r.index[svc.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateService, svc.ID)
		}
		if svc.HasPackages && svc.Fetch == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingFetcher, svc.ID)
		}
		if svc.DisplayName == "" {
			svc.DisplayName = svc.ID
		}
		r.index[svc.ID] = len(r.services)
		r.services = append(r.services, svc)
	}

	return r, nil
}

// MustNew is New for static registries built in code; it panics on invalid input
func MustNew(services ...Service) *Registry {
	r, err := New(services...)
	if err != nil {
		panic(err)
	}
	return r
}

// Services returns the descriptors in registry order
func (r *Registry) Services() []Service {
	out := make([]Service, len(r.services))
	copy(out, r.services)
	return out
}

// Get retrieves a service by ID
func (r *Registry) Get(serviceID string) (Service, bool) {
	i, ok := r.index[serviceID]
	if !ok {
		return Service{}, false
	}
	return r.services[i], true
}

// Position returns the registry index of a service, or -1
func (r *Registry) Position(serviceID string) int {
	if i, ok := r.index[serviceID]; ok {
		return i
	}
	return -1
}

// Len returns the number of registered services
func (r *Registry) Len() int {
	return len(r.services)
}

// Stats returns registry statistics
func (r *Registry) Stats() map[string]interface{} {
	var withPackages, redirects int
	for _, svc := range r.services {
		if svc.HasPackages {
			withPackages++
		} else if svc.RedirectTarget != "" {
			redirects++
		}
	}

	return map[string]interface{}{
		"total_services": len(r.services),
		"with_packages":  withPackages,
		"redirect_only":  redirects,
	}
}

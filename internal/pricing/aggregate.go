package pricing

import (
	"errors"
	"fmt"

	"github.com/GriffinCanCode/AgencySite/backend/internal/catalog"
)

// ErrUnknownService is returned when a result or package names a service
// outside the registry of the run. It indicates a wiring bug, not bad data.
var ErrUnknownService = errors.New("pricing: service not in registry")

// AllCategories is the selector sentinel for every group
const AllCategories = "all"

// Group is one service category with its displayable packages
type Group struct {
	Service        catalog.Service `json:"service"`
	Packages       []Package       `json:"packages"`
	Count          int             `json:"count"`
	RedirectTarget string          `json:"redirect_target,omitempty"`
	Prices         *PriceSummary   `json:"prices,omitempty"`
}

// Warning flags a source whose payload could not be interpreted
type Warning struct {
	ServiceID string `json:"service_id"`
	Message   string `json:"message"`
}

// Result is the grouped view of one aggregation run, in registry order
type Result struct {
	Groups     []Group   `json:"groups"`
	TotalCount int       `json:"total_count"`
	Warnings   []Warning `json:"warnings,omitempty"`
}

// Aggregator merges per-source results into a Result
type Aggregator struct {
	// DropEmpty omits groups of package-bearing services that ended up with
	// no displayable packages. Redirect-only services are always kept.
	DropEmpty bool
}

// NewAggregator creates an aggregator
func NewAggregator(dropEmpty bool) *Aggregator {
	return &Aggregator{DropEmpty: dropEmpty}
}

// Aggregate groups results with the default aggregator
func Aggregate(perService []SourceResult, reg *catalog.Registry) (*Result, error) {
	var a Aggregator
	return a.Aggregate(perService, reg)
}

// Aggregate filters and groups packages by service. Group order is registry
// order; package order within a service is the order the source gave.
func (a *Aggregator) Aggregate(perService []SourceResult, reg *catalog.Registry) (*Result, error) {
	byService := make(map[string][]Package, reg.Len())
	unrecognized := make(map[string]bool)

	for _, res := range perService {
		if _, ok := reg.Get(res.ServiceID); !ok {
			return nil, fmt.Errorf("%w: result for %q", ErrUnknownService, res.ServiceID)
		}
		if res.Unrecognized {
			unrecognized[res.ServiceID] = true
		}
		for _, p := range res.Packages {
			if _, ok := reg.Get(p.ServiceID); !ok {
				return nil, fmt.Errorf("%w: package %q claims %q", ErrUnknownService, p.ID, p.ServiceID)
			}
			if !p.Displayable() {
				continue
			}
			byService[p.ServiceID] = append(byService[p.ServiceID], p)
		}
	}

	result := &Result{Groups: []Group{}}
	for _, svc := range reg.Services() {
		if unrecognized[svc.ID] {
			result.Warnings = append(result.Warnings, Warning{
				ServiceID: svc.ID,
				Message:   "payload shape not recognized; no packages shown",
			})
		}

		packages := byService[svc.ID]
		if packages == nil {
			packages = []Package{}
		}
		if a.DropEmpty && svc.HasPackages && len(packages) == 0 {
			continue
		}

		result.Groups = append(result.Groups, Group{
			Service:        svc,
			Packages:       packages,
			Count:          len(packages),
			RedirectTarget: svc.RedirectTarget,
			Prices:         Summarize(packages),
		})
		result.TotalCount += len(packages)
	}

	return result, nil
}

// Group returns the group of one service
func (r *Result) Group(serviceID string) (Group, bool) {
	for _, g := range r.Groups {
		if g.Service.ID == serviceID {
			return g, true
		}
	}
	return Group{}, false
}

// Counts returns the package count per service, plus AllCategories
func (r *Result) Counts() map[string]int {
	counts := make(map[string]int, len(r.Groups)+1)
	for _, g := range r.Groups {
		counts[g.Service.ID] = g.Count
	}
	counts[AllCategories] = r.TotalCount
	return counts
}

// SelectCategory returns the packages of one category, or every package in
// group order for AllCategories. Unknown categories select nothing.
func SelectCategory(r *Result, categoryID string) []Package {
	if r == nil {
		return []Package{}
	}

	if categoryID == AllCategories {
		out := make([]Package, 0, r.TotalCount)
		for _, g := range r.Groups {
			out = append(out, g.Packages...)
		}
		return out
	}

	g, ok := r.Group(categoryID)
	if !ok {
		return []Package{}
	}
	out := make([]Package, len(g.Packages))
	copy(out, g.Packages)
	return out
}

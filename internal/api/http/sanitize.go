package http

import (
	"html"
	"net/url"
	"strings"

	"github.com/GriffinCanCode/AgencySite/backend/internal/pricing"
	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer strips markup from text that came from content sources before it
// reaches a browser
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer creates a sanitizer that removes every tag
func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// maxUnescapeRounds bounds how many layers of entity encoding Text peels
const maxUnescapeRounds = 4

// Text strips tags and decodes entities, leaving plain text. Decoding can
// expose markup that was entity-escaped, so the result is sanitized again
// until it no longer changes. Input still changing after maxUnescapeRounds
// is returned entity-escaped.
func (s *Sanitizer) Text(in string) string {
	cur := in
	for i := 0; i < maxUnescapeRounds; i++ {
		next := html.UnescapeString(s.policy.Sanitize(cur))
		if next == cur {
			return strings.TrimSpace(next)
		}
		cur = next
	}
	return strings.TrimSpace(s.policy.Sanitize(cur))
}

// Link keeps http(s) URLs and site-relative paths; anything else is dropped
func (s *Sanitizer) Link(in *string) *string {
	if in == nil {
		return nil
	}
	raw := strings.TrimSpace(*in)
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return &raw
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil
	}
	out := u.String()
	return &out
}

// Package returns a sanitized copy of p
func (s *Sanitizer) Package(p pricing.Package) pricing.Package {
	p.Name = s.Text(p.Name)
	p.Description = s.Text(p.Description)
	p.PricePeriod = s.Text(p.PricePeriod)
	features := make([]string, 0, len(p.Features))
	for _, f := range p.Features {
		if clean := s.Text(f); clean != "" {
			features = append(features, clean)
		}
	}
	p.Features = features
	p.ButtonLink = s.Link(p.ButtonLink)
	return p
}

// Result returns a sanitized deep copy of r. Packages whose name is empty
// once markup is gone are dropped, and counts and price summaries are
// recomputed to match.
func (s *Sanitizer) Result(r *pricing.Result) *pricing.Result {
	out := &pricing.Result{
		Groups:   make([]pricing.Group, len(r.Groups)),
		Warnings: r.Warnings,
	}
	for i, g := range r.Groups {
		packages := make([]pricing.Package, 0, len(g.Packages))
		for _, p := range g.Packages {
			if clean := s.Package(p); clean.Displayable() {
				packages = append(packages, clean)
			}
		}
		g.Packages = packages
		g.Count = len(packages)
		g.Prices = pricing.Summarize(packages)
		out.Groups[i] = g
		out.TotalCount += g.Count
	}
	return out
}

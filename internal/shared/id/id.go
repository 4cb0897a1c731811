// Package id generates the identifiers the pricing service hands out.
//
// Every identifier is "<kind>_<ulid>":
//   - pkg_*: synthetic ids for packages whose source carried none
//   - run_*: one aggregation run
//   - trc_*, spn_*: trace and span ids
//
// A Generator draws from monotonic entropy, so ids from one generator sort
// in creation order and never repeat within a millisecond.
package id

import (
	"crypto/rand"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Kind is the prefix naming what an identifier refers to
type Kind string

const (
	KindPackage Kind = "pkg"
	KindRun     Kind = "run"
	KindTrace   Kind = "trc"
	KindSpan    Kind = "spn"
)

// ErrMalformed is returned by Parse for strings that are not "<kind>_<ulid>"
var ErrMalformed = errors.New("malformed identifier")

// PackageID identifies a normalized pricing package
type PackageID string

// RunID identifies one aggregation run
type RunID string

func (id PackageID) String() string { return string(id) }
func (id RunID) String() string     { return string(id) }

// Generator issues prefixed ULIDs. It is safe for concurrent use.
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
}

// NewGenerator creates a generator backed by crypto/rand
func NewGenerator() *Generator {
	return NewGeneratorWithEntropy(rand.Reader)
}

// NewGeneratorWithEntropy creates a generator over a custom entropy source
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: ulid.Monotonic(entropy, 0),
		now:     time.Now,
	}
}

// ULID returns the next raw ULID
func (g *Generator) ULID() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()

	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy)
}

// New returns the next identifier of the given kind
func (g *Generator) New(kind Kind) string {
	return string(kind) + "_" + g.ULID().String()
}

// PackageID returns the next synthetic package id
func (g *Generator) PackageID() PackageID {
	return PackageID(g.New(KindPackage))
}

var (
	shared     *Generator
	sharedOnce sync.Once
)

// Default returns the process-wide generator
func Default() *Generator {
	sharedOnce.Do(func() { shared = NewGenerator() })
	return shared
}

// NewRunID returns an aggregation run id from the default generator
func NewRunID() RunID {
	return RunID(Default().New(KindRun))
}

// NewTraceID returns a trace id from the default generator
func NewTraceID() string {
	return Default().New(KindTrace)
}

// NewSpanID returns a span id from the default generator
func NewSpanID() string {
	return Default().New(KindSpan)
}

// Parse splits an identifier into its kind and ULID
func Parse(s string) (Kind, ulid.ULID, error) {
	prefix, rest, ok := strings.Cut(s, "_")
	if !ok || prefix == "" {
		return "", ulid.ULID{}, ErrMalformed
	}
	u, err := ulid.ParseStrict(rest)
	if err != nil {
		return "", ulid.ULID{}, errors.Join(ErrMalformed, err)
	}
	return Kind(prefix), u, nil
}

// Is reports whether s is a well-formed identifier of kind
func Is(s string, kind Kind) bool {
	k, _, err := Parse(s)
	return err == nil && k == kind
}

// Time returns the creation time encoded in an identifier
func Time(s string) (time.Time, error) {
	_, u, err := Parse(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()), nil
}

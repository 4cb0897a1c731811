package resilience

import "sync"

// Set lazily creates one breaker per key, so a failing content source trips
// only its own circuit.
type Set struct {
	settings Settings
	prefix   string

	mu       sync.Mutex
	breakers map[string]*Breaker
}

// NewSet creates a breaker set; every breaker shares settings and is named
// prefix + ":" + key
func NewSet(prefix string, settings Settings) *Set {
	return &Set{
		settings: settings,
		prefix:   prefix,
		breakers: make(map[string]*Breaker),
	}
}

// Get returns the breaker for key, creating it on first use
func (s *Set) Get(key string) *Breaker {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.breakers[key]; ok {
		return b
	}
	b := New(s.prefix+":"+key, s.settings)
	s.breakers[key] = b
	return b
}

// States reports the state of every breaker created so far
func (s *Set) States() map[string]State {
	s.mu.Lock()
	breakers := make(map[string]*Breaker, len(s.breakers))
	for k, b := range s.breakers {
		breakers[k] = b
	}
	s.mu.Unlock()

	out := make(map[string]State, len(breakers))
	for k, b := range breakers {
		out[k] = b.State()
	}
	return out
}

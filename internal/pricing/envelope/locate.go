package envelope

// Shape names the matcher that located a package array
type Shape string

const (
	ShapeNone            Shape = "none"
	ShapePackages        Shape = "packages"
	ShapeHeroPackages    Shape = "hero.packages"
	ShapePricingPackages Shape = "pricing.packages"
	ShapeArray           Shape = "array"
	ShapeScan            Shape = "scan"
)

// Match is the outcome of Locate
type Match struct {
	Items []any
	Shape Shape
	// Key is the object key that held the array when Shape is ShapeScan
	Key string
	// Unwrapped is true when the payload was found inside a "data" wrapper
	Unwrapped bool
}

// Found reports whether any matcher fired
func (m Match) Found() bool {
	return m.Shape != ShapeNone
}

// matcher is one step in the fixed-priority chain
type matcher struct {
	shape Shape
	find  func(v any) (items []any, key string, ok bool)
}

// matchers run in order, first success wins
var matchers = []matcher{
	{shape: ShapePackages, find: func(v any) ([]any, string, bool) {
		return arrayAt(v, "packages")
	}},
	{shape: ShapeHeroPackages, find: func(v any) ([]any, string, bool) {
		return arrayAt(v, "hero", "packages")
	}},
	{shape: ShapePricingPackages, find: func(v any) ([]any, string, bool) {
		return arrayAt(v, "pricing", "packages")
	}},
	{shape: ShapeArray, find: func(v any) ([]any, string, bool) {
		arr, ok := v.([]any)
		return arr, "", ok
	}},
	{shape: ShapeScan, find: scanForPackages},
}

// pageKeys mark an object under "data" as a wrapped page payload
var pageKeys = []string{"packages", "hero", "features"}

// LocatePackageArray finds the array of package-like objects inside an
// arbitrary envelope. Unrecognized shapes yield an empty slice.
func LocatePackageArray(envelope any) []any {
	return Locate(envelope).Items
}

// Locate is LocatePackageArray with diagnostics about which shape matched
func Locate(envelope any) Match {
	if envelope == nil {
		return Match{Items: []any{}, Shape: ShapeNone}
	}

	value, unwrapped := unwrapData(envelope)

	for _, m := range matchers {
		if items, key, ok := m.find(value); ok {
			return Match{Items: items, Shape: m.shape, Key: key, Unwrapped: unwrapped}
		}
	}

	return Match{Items: []any{}, Shape: ShapeNone, Unwrapped: unwrapped}
}

// unwrapData descends one level into envelope.data when it holds a page
// payload. A top-level packages array takes precedence over the wrapper.
func unwrapData(envelope any) (any, bool) {
	if _, _, ok := arrayAt(envelope, "packages"); ok {
		return envelope, false
	}

	inner, ok := Field(envelope, "data")
	if !ok || !IsObject(inner) {
		return envelope, false
	}

	for _, key := range pageKeys {
		if _, has := Field(inner, key); has {
			return inner, true
		}
	}
	return envelope, false
}

// arrayAt follows a key path and returns the array found at its end
func arrayAt(v any, path ...string) ([]any, string, bool) {
	cur := v
	for _, key := range path {
		next, ok := Field(cur, key)
		if !ok || next == nil {
			return nil, "", false
		}
		cur = next
	}
	arr, ok := cur.([]any)
	return arr, "", ok
}

// scanForPackages returns the first array-valued key whose first element is
// a structured value. Keys are visited in source order.
func scanForPackages(v any) ([]any, string, bool) {
	if !IsObject(v) {
		return nil, "", false
	}

	for _, key := range Keys(v) {
		val, _ := Field(v, key)
		arr, ok := val.([]any)
		if !ok || len(arr) == 0 {
			continue
		}
		if isStructured(arr[0]) {
			return arr, key, true
		}
	}
	return nil, "", false
}

func isStructured(v any) bool {
	if IsObject(v) {
		return true
	}
	_, ok := v.([]any)
	return ok
}

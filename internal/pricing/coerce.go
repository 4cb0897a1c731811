package pricing

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/GriffinCanCode/AgencySite/backend/internal/pricing/envelope"
	"github.com/shopspring/decimal"
)

// truthy follows JSON-source conventions: null, false, 0, NaN and "" are
// falsy, everything else (including empty arrays and objects) is truthy.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case json.Number:
		f, err := t.Float64()
		return err != nil || (f != 0 && !math.IsNaN(f))
	case float64:
		return t != 0 && !math.IsNaN(t)
	case float32:
		return t != 0 && !math.IsNaN(float64(t))
	case int:
		return t != 0
	case int64:
		return t != 0
	case int32:
		return t != 0
	case *envelope.Object:
		return t != nil
	default:
		return true
	}
}

// firstTruthy returns the first truthy value among the given keys
func firstTruthy(raw any, keys ...string) (any, bool) {
	for _, key := range keys {
		if v, ok := envelope.Field(raw, key); ok && truthy(v) {
			return v, true
		}
	}
	return nil, false
}

// text converts a scalar to a string; structured values have no text form
func text(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case int32:
		return strconv.FormatInt(int64(t), 10), true
	default:
		return "", false
	}
}

// firstText returns the first truthy scalar among the keys as a string
func firstText(raw any, keys ...string) (string, bool) {
	for _, key := range keys {
		v, ok := envelope.Field(raw, key)
		if !ok || !truthy(v) {
			continue
		}
		if s, ok := text(v); ok {
			return s, true
		}
	}
	return "", false
}

// amount coerces a numeric-looking value to a decimal
func amount(v any) (decimal.Decimal, bool) {
	var d decimal.Decimal
	var err error

	switch t := v.(type) {
	case json.Number:
		d, err = decimal.NewFromString(t.String())
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return decimal.Zero, false
		}
		d = decimal.NewFromFloat(t)
	case float32:
		if math.IsNaN(float64(t)) || math.IsInf(float64(t), 0) {
			return decimal.Zero, false
		}
		d = decimal.NewFromFloat32(t)
	case int:
		d = decimal.NewFromInt(int64(t))
	case int64:
		d = decimal.NewFromInt(t)
	case int32:
		d = decimal.NewFromInt(int64(t))
	case string:
		d, err = decimal.NewFromString(cleanAmount(t))
	default:
		return decimal.Zero, false
	}
	if err != nil {
		return decimal.Zero, false
	}
	return canonical(d), true
}

// cleanAmount strips currency decoration such as "$1,200" or "1 200 €"
func cleanAmount(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return -1
		}
	}, s)
}

// canonical gives equal amounts an identical representation
func canonical(d decimal.Decimal) decimal.Decimal {
	return decimal.RequireFromString(d.String())
}

// stringList converts a feature array to strings, reading the label of
// object entries and skipping entries with no text.
func stringList(items []any) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := text(item); ok {
			out = append(out, s)
			continue
		}
		if label, ok := firstText(item, "text", "title", "name"); ok {
			out = append(out, label)
		}
	}
	return out
}

func hasText(s string) bool {
	return strings.TrimSpace(s) != ""
}

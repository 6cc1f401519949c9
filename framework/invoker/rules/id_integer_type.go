package rules

import (
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/km-arc/go-invoker/framework/invoker/param"
)

// IdIntegerType binds the "id" route placeholder to a parameter named id as
// an integer instead of the raw string.
//
// The coercion is a truncating cast, not validation: "5abc" becomes 5 and a
// non-numeric string becomes 0.
type IdIntegerType struct{}

func (IdIntegerType) Resolve(unresolved []param.Parameter, pool Pool, resolved Arguments) (Arguments, error) {
	raw, ok := pool["id"]
	if !ok || raw == nil {
		return resolved, nil
	}
	id := ToInt(raw)

	for _, p := range unresolved {
		if p.Name == "id" {
			resolved[p.Position] = id
		}
	}
	return resolved, nil
}

// ToInt casts v to int the way a loose scalar cast does: strings are read up
// to the first non-digit after an optional sign, floats are truncated, bools
// are 0 or 1, out-of-range values saturate and anything else is 0.
func ToInt(v any) int {
	switch x := v.(type) {
	case string:
		return leadingInt(x)
	case []byte:
		return leadingInt(string(x))
	case uint:
		return clampUint(uint64(x))
	case uint64:
		return clampUint(x)
	case uintptr:
		return clampUint(uint64(x))
	case float32:
		return clampFloat(float64(x))
	case float64:
		return clampFloat(x)
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0
	}
	return n
}

// cast.ToIntE wraps on overflow
func clampUint(u uint64) int {
	if u > math.MaxInt {
		return math.MaxInt
	}
	return int(u)
}

func clampFloat(f float64) int {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt:
		return math.MaxInt
	case f <= math.MinInt:
		return math.MinInt
	}
	return int(f)
}

func leadingInt(s string) int {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	// ParseInt saturates on overflow and reports ErrRange, which is what we want
	n, _ := strconv.ParseInt(s[:end], 10, 0)
	return int(n)
}

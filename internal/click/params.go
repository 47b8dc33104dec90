package click

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

var leadingInt = regexp.MustCompile(`^[+-]?\d+`)

// Params is an inbound payload as decoded from a form or JSON body. Values
// keep their wire types; accessors coerce them.
type Params map[string]any

// Has reports whether key is present with a non-nil value.
func (p Params) Has(key string) bool {
	v, ok := p[key]
	return ok && v != nil
}

// Filled is Has plus a non-empty string rendering.
func (p Params) Filled(key string) bool {
	return p.Has(key) && cast.ToString(p[key]) != ""
}

func (p Params) String(key string) string {
	if !p.Has(key) {
		return ""
	}
	return cast.ToString(p[key])
}

func (p Params) Int(key string) int {
	return int(p.Int64(key))
}

// Int64 reads a base-10 integer. Decimals are truncated, a numeric prefix
// is honoured ("12abc" is 12) and anything else reads as 0. Leading zeros
// never switch the base.
func (p Params) Int64(key string) int64 {
	s := strings.TrimSpace(p.String(key))
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return d.IntPart()
	}
	if prefix := leadingInt.FindString(s); prefix != "" {
		n, _ := strconv.ParseInt(prefix, 10, 64)
		return n
	}
	return 0
}

package descriptor

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	sf "github.com/reoring/schemaforge"
	"github.com/reoring/schemaforge/internal/engine"
)

// NonFinite is a decimal value of +Inf, -Inf or NaN, produced only when
// allow_inf_nan is set. It serializes as "Infinity", "-Infinity" or "NaN".
type NonFinite float64

func (n NonFinite) String() string {
	f := float64(n)
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	default:
		return "-Infinity"
	}
}

func (n NonFinite) MarshalJSON() ([]byte, error) { return []byte(`"` + n.String() + `"`), nil }

// number is a decimal that may also be infinite or NaN.
type number struct {
	d   decimal.Decimal
	inf int // +1, -1 or 0
	nan bool
}

func (n number) special() bool { return n.nan || n.inf != 0 }

func (n number) nonFinite() NonFinite {
	switch {
	case n.nan:
		return NonFinite(math.NaN())
	case n.inf > 0:
		return NonFinite(math.Inf(1))
	default:
		return NonFinite(math.Inf(-1))
	}
}

// cmp compares against a finite bound. Callers handle NaN.
func (n number) cmp(o decimal.Decimal) int {
	if n.inf != 0 {
		return n.inf
	}
	return cmpDecimal(n.d, o)
}

// cmpDecimal orders a and b. Operands whose leading digits are more than one
// power of ten apart are ordered by sign and exponent alone, so Cmp never
// rescales across a huge exponent gap.
func cmpDecimal(a, b decimal.Decimal) int {
	sa, sb := a.Sign(), b.Sign()
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	case sa == 0:
		return 0
	}
	ea, eb := engine.Adjusted(a), engine.Adjusted(b)
	switch {
	case ea > eb+1:
		return sa
	case eb > ea+1:
		return -sa
	}
	return a.Cmp(b)
}

// isIntegral reports whether d has no fractional part.
func isIntegral(d decimal.Decimal) bool {
	e := d.Exponent()
	c := d.Coefficient()
	if e >= 0 || c.Sign() == 0 {
		return true
	}
	// |c| < 10^-e leaves a nonzero fraction.
	if int64(-e) >= int64(engine.Digits(c)) {
		return false
	}
	return new(big.Int).Rem(c, pow10(int64(-e))).Sign() == 0
}

// multipleOf reports whether m divides n exactly. The gap between the
// exponents is bounded before shopspring rescales either operand.
func multipleOf(n, m decimal.Decimal) bool {
	c := n.Coefficient()
	if c.Sign() == 0 {
		return true
	}
	e, f := int64(n.Exponent()), int64(m.Exponent())
	if e < f {
		// m's coefficient times 10^(f-e) would exceed |c|.
		if f-e >= int64(engine.Digits(c)) {
			return false
		}
		return n.Mod(m).IsZero()
	}
	// k | c*10^t does not change once t covers the powers of 2 and 5 in k.
	if limit := int64(m.Coefficient().BitLen()); e-f > limit {
		n = decimal.NewFromBigInt(c, int32(f+limit))
	}
	return n.Mod(m).IsZero()
}

func pow10(n int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(n), nil)
}

// numberKey renders d as coefficient and exponent with trailing zeros
// stripped, so equal values share a key without rescaling.
func numberKey(d decimal.Decimal) string {
	c := new(big.Int).Set(d.Coefficient())
	if c.Sign() == 0 {
		return "0"
	}
	e := int64(d.Exponent())
	ten := big.NewInt(10)
	q, r := new(big.Int), new(big.Int)
	for {
		q.QuoRem(c, ten, r)
		if r.Sign() != 0 {
			break
		}
		c, q = q, c
		e++
	}
	return c.String() + "e" + strconv.FormatInt(e, 10)
}

// toNumber reads a numeric input: JSON numbers, numeric strings, Go numbers
// and decimals. Booleans are never numbers.
func toNumber(v any) (number, bool) {
	switch t := v.(type) {
	case json.Number:
		return numberFromString(string(t))
	case string:
		return numberFromString(t)
	case decimal.Decimal:
		return number{d: t}, true
	case NonFinite:
		return floatNumber(float64(t))
	case int:
		return number{d: decimal.NewFromInt(int64(t))}, true
	case int8:
		return number{d: decimal.NewFromInt(int64(t))}, true
	case int16:
		return number{d: decimal.NewFromInt(int64(t))}, true
	case int32:
		return number{d: decimal.NewFromInt(int64(t))}, true
	case int64:
		return number{d: decimal.NewFromInt(t)}, true
	case uint:
		return number{d: decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(t)), 0)}, true
	case uint8:
		return number{d: decimal.NewFromInt(int64(t))}, true
	case uint16:
		return number{d: decimal.NewFromInt(int64(t))}, true
	case uint32:
		return number{d: decimal.NewFromInt(int64(t))}, true
	case uint64:
		return number{d: decimal.NewFromBigInt(new(big.Int).SetUint64(t), 0)}, true
	case float32:
		return floatNumber(float64(t))
	case float64:
		return floatNumber(t)
	}
	return number{}, false
}

func floatNumber(f float64) (number, bool) {
	switch {
	case math.IsNaN(f):
		return number{nan: true}, true
	case math.IsInf(f, 1):
		return number{inf: 1}, true
	case math.IsInf(f, -1):
		return number{inf: -1}, true
	}
	return number{d: decimal.NewFromFloat(f)}, true
}

func numberFromString(s string) (number, bool) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(strings.TrimPrefix(s, "+")) {
	case "inf", "infinity":
		return number{inf: 1}, true
	case "-inf", "-infinity":
		return number{inf: -1}, true
	case "nan":
		return number{nan: true}, true
	}
	if s == "" {
		return number{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return number{}, false
	}
	return number{d: d}, true
}

func jsonNumber(d decimal.Decimal) json.Number { return json.Number(d.String()) }

// digitCount returns the total digits and the digits after the point of v
// once trailing zeros are stripped.
func digitCount(v decimal.Decimal) (digits, decimals int) {
	coef := new(big.Int).Abs(v.Coefficient())
	exp := int(v.Exponent())
	ten := big.NewInt(10)
	mod := new(big.Int)
	for coef.Sign() != 0 {
		q, r := new(big.Int).QuoRem(coef, ten, mod)
		if r.Sign() != 0 {
			break
		}
		coef = q
		exp++
	}
	if coef.Sign() == 0 {
		return 1, 0
	}
	n := len(coef.String())
	if exp >= 0 {
		return n + exp, 0
	}
	decimals = -exp
	if decimals > n {
		return decimals, decimals
	}
	return n, decimals
}

// literalEqual compares a declared literal with an input value. Kinds are
// preserved: a boolean never equals a number, numbers compare numerically.
func literalEqual(lit, v any) bool {
	switch l := lit.(type) {
	case string:
		s, ok := v.(string)
		return ok && s == l
	case bool:
		b, ok := v.(bool)
		return ok && b == l
	}
	if _, isStr := v.(string); isStr {
		return false
	}
	if _, isBool := v.(bool); isBool {
		return false
	}
	ln, ok := toNumber(lit)
	if !ok || ln.special() {
		return false
	}
	vn, ok := toNumber(v)
	if !ok || vn.special() {
		return false
	}
	return cmpDecimal(ln.d, vn.d) == 0
}

func literalList(lits []any) string {
	parts := make([]string, len(lits))
	for i, l := range lits {
		if s, ok := l.(string); ok {
			parts[i] = fmt.Sprintf("%q", s)
			continue
		}
		parts[i] = fmt.Sprint(l)
	}
	return strings.Join(parts, ", ")
}

// canonicalKey identifies a normalized value for set de-duplication. Equal
// numbers of different kinds (1 and 1.0) share a key.
func canonicalKey(v any) string {
	switch t := v.(type) {
	case nil:
		return "n"
	case bool:
		return fmt.Sprintf("b:%t", t)
	case string:
		return "s:" + t
	case NonFinite:
		return "f:" + t.String()
	}
	if n, ok := toNumber(v); ok && !n.special() && engine.InRange(n.d) {
		return "d:" + numberKey(n.d)
	}
	b, err := sf.MarshalValue(jsonValue(v))
	if err != nil {
		return fmt.Sprintf("x:%#v", v)
	}
	return "j:" + string(b)
}

// jsonValue rewrites decimals as bare JSON numbers, for places where the
// value is shown to the model (JSON Schema defaults, examples, enums).
func jsonValue(v any) any {
	switch t := v.(type) {
	case decimal.Decimal:
		return jsonNumber(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = jsonValue(e)
		}
		return out
	case *sf.Object:
		out := sf.NewObject(t.Len())
		for _, k := range t.Keys() {
			e, _ := t.Get(k)
			out.Set(k, jsonValue(e))
		}
		return out
	}
	return v
}

// CloneValue deep-copies lists and objects inside a value tree.
func CloneValue(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = CloneValue(e)
		}
		return out
	case *sf.Object:
		out := sf.NewObject(t.Len())
		for _, k := range t.Keys() {
			e, _ := t.Get(k)
			out.Set(k, CloneValue(e))
		}
		return out
	}
	return v
}

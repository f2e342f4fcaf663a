package descriptor

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	sf "github.com/reoring/schemaforge"
	"github.com/reoring/schemaforge/internal/engine"
)

// Parse validates v against the descriptor and returns the normalized
// instance. v is a value tree as produced by sf.DecodeJSON (nil, bool,
// string, json.Number, []any, *sf.Object); plain Go numbers and
// map[string]any are accepted as well. Failures are returned as sf.Issues.
//
// Output kinds: string, int64, decimal.Decimal (or NonFinite), bool, []any
// for lists and sets, *sf.Object for models and maps.
func (d *Descriptor) Parse(ctx context.Context, v any) (any, error) {
	out, iss := d.parse(ctx, v, sf.Root())
	if len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

// ParseJSON decodes data and validates it.
func (d *Descriptor) ParseJSON(ctx context.Context, data []byte, opts ...sf.DecodeOpt) (any, error) {
	v, err := sf.DecodeJSON(data, opts...)
	if err != nil {
		return nil, err
	}
	return d.Parse(ctx, v)
}

func (d *Descriptor) parse(ctx context.Context, v any, p sf.PathRef) (any, sf.Issues) {
	if d == nil {
		return v, nil
	}
	if v == nil && (d.Nullable || d.Kind == Any) {
		return nil, nil
	}
	switch d.Kind {
	case Any:
		return v, nil
	case String:
		return d.parseString(v, p)
	case Integer:
		return d.parseInteger(v, p)
	case Decimal:
		return d.parseDecimal(v, p)
	case Boolean:
		b, ok := v.(bool)
		if !ok {
			return nil, one(p.Issue(sf.CodeInvalidType, "expected", "boolean"))
		}
		return b, nil
	case Literal:
		return d.parseLiteral(v, p)
	case List, Set:
		return d.parseList(ctx, v, p)
	case Map:
		return d.parseMap(ctx, v, p)
	case Model:
		return d.parseModel(ctx, v, p)
	case Union:
		return d.parseUnion(ctx, v, p)
	case External:
		out, err := d.Ext.Validate(ctx, v)
		if err != nil {
			if iss, ok := sf.AsIssues(err); ok {
				return nil, sf.Rebase(p.Pointer(), iss)
			}
			return nil, one(sf.Issue{Path: p.Pointer(), Code: sf.CodeInvalidFormat, Message: err.Error(), Cause: err})
		}
		return out, nil
	default:
		panic("descriptor: unknown kind " + d.Kind.String())
	}
}

func one(it sf.Issue) sf.Issues { return sf.AppendIssues(nil, it) }

func (d *Descriptor) parseString(v any, p sf.PathRef) (any, sf.Issues) {
	s, ok := v.(string)
	if !ok {
		return nil, one(p.Issue(sf.CodeInvalidType, "expected", "string"))
	}
	iss := d.checkLength(len([]rune(s)), p)
	if re := d.Constraints.Pattern; re != nil && !re.MatchString(s) {
		iss = sf.AppendIssues(iss, p.Issue(sf.CodePattern, "pattern", re.String()))
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return s, nil
}

func (d *Descriptor) checkLength(n int, p sf.PathRef) sf.Issues {
	var iss sf.Issues
	c := d.Constraints
	if c.MinLength != nil && n < *c.MinLength {
		iss = sf.AppendIssues(iss, p.Issue(sf.CodeTooShort, "min", *c.MinLength, "got", n))
	}
	if c.MaxLength != nil && n > *c.MaxLength {
		iss = sf.AppendIssues(iss, p.Issue(sf.CodeTooLong, "max", *c.MaxLength, "got", n))
	}
	return iss
}

func (d *Descriptor) parseInteger(v any, p sf.PathRef) (any, sf.Issues) {
	n, ok := toNumber(v)
	if !ok || n.special() || !isIntegral(n.d) {
		return nil, one(p.Issue(sf.CodeInvalidType, "expected", "integer"))
	}
	var out int64
	if n.d.Sign() != 0 {
		// Anything with a leading digit past 10^18 cannot fit; rejecting it
		// here keeps BigInt from rescaling a huge exponent.
		if engine.Adjusted(n.d) > 18 {
			return nil, one(p.Issue(sf.CodeOverflow))
		}
		bi := n.d.BigInt()
		if !bi.IsInt64() {
			return nil, one(p.Issue(sf.CodeOverflow))
		}
		out = bi.Int64()
	}
	if iss := d.checkBounds(n, p); len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

func (d *Descriptor) parseDecimal(v any, p sf.PathRef) (any, sf.Issues) {
	n, ok := toNumber(v)
	if !ok {
		return nil, one(p.Issue(sf.CodeInvalidType, "expected", "decimal"))
	}
	if n.special() {
		if d.Constraints.AllowInfNaN == nil || !*d.Constraints.AllowInfNaN {
			return nil, one(p.Issue(sf.CodeNotFinite))
		}
		if iss := d.checkBounds(n, p); len(iss) > 0 {
			return nil, iss
		}
		return n.nonFinite(), nil
	}
	if !engine.InRange(n.d) {
		return nil, one(p.Issue(sf.CodeOverflow, "max_exponent", engine.MaxExponent))
	}
	iss := d.checkBounds(n, p)
	iss = append(iss, d.checkDigits(n.d, p)...)
	if len(iss) > 0 {
		return nil, iss
	}
	return n.d, nil
}

func (d *Descriptor) checkBounds(n number, p sf.PathRef) sf.Issues {
	var iss sf.Issues
	c := d.Constraints
	// NaN satisfies no bound.
	if c.Gt != nil && (n.nan || n.cmp(*c.Gt) <= 0) {
		iss = sf.AppendIssues(iss, p.Issue(sf.CodeTooSmall, "op", ">", "limit", c.Gt.String()))
	}
	if c.Ge != nil && (n.nan || n.cmp(*c.Ge) < 0) {
		iss = sf.AppendIssues(iss, p.Issue(sf.CodeTooSmall, "op", ">=", "limit", c.Ge.String()))
	}
	if c.Lt != nil && (n.nan || n.cmp(*c.Lt) >= 0) {
		iss = sf.AppendIssues(iss, p.Issue(sf.CodeTooBig, "op", "<", "limit", c.Lt.String()))
	}
	if c.Le != nil && (n.nan || n.cmp(*c.Le) > 0) {
		iss = sf.AppendIssues(iss, p.Issue(sf.CodeTooBig, "op", "<=", "limit", c.Le.String()))
	}
	if m := c.MultipleOf; m != nil && !m.IsZero() {
		if n.special() || !multipleOf(n.d, *m) {
			iss = sf.AppendIssues(iss, p.Issue(sf.CodeNotMultipleOf, "multiple_of", m.String()))
		}
	}
	return iss
}

// checkDigits counts digits the way Python's Decimal does after
// normalization: trailing zeros do not count.
func (d *Descriptor) checkDigits(v decimal.Decimal, p sf.PathRef) sf.Issues {
	c := d.Constraints
	if c.MaxDigits == nil && c.DecimalPlaces == nil {
		return nil
	}
	digits, decimals := digitCount(v)
	var iss sf.Issues
	if c.MaxDigits != nil && digits > *c.MaxDigits {
		iss = sf.AppendIssues(iss, p.Issue(sf.CodeTooManyDigits, "max_digits", *c.MaxDigits))
	}
	if c.DecimalPlaces != nil && decimals > *c.DecimalPlaces {
		iss = sf.AppendIssues(iss, p.Issue(sf.CodeTooManyPlaces, "decimal_places", *c.DecimalPlaces))
	}
	if c.MaxDigits != nil && c.DecimalPlaces != nil && len(iss) == 0 {
		if whole := digits - decimals; whole > *c.MaxDigits-*c.DecimalPlaces {
			iss = sf.AppendIssues(iss, p.Issue(sf.CodeTooManyDigits, "max_digits", *c.MaxDigits, "whole_digits", *c.MaxDigits-*c.DecimalPlaces))
		}
	}
	return iss
}

func (d *Descriptor) parseLiteral(v any, p sf.PathRef) (any, sf.Issues) {
	for _, lit := range d.Literals {
		if literalEqual(lit, v) {
			return lit, nil
		}
	}
	return nil, one(p.Issue(sf.CodeInvalidLiteral, "expected", literalList(d.Literals)))
}

func (d *Descriptor) parseList(ctx context.Context, v any, p sf.PathRef) (any, sf.Issues) {
	in, ok := v.([]any)
	if !ok {
		return nil, one(p.Issue(sf.CodeInvalidType, "expected", d.Kind.String()))
	}
	var iss sf.Issues
	out := make([]any, 0, len(in))
	var seen map[string]struct{}
	if d.Kind == Set {
		seen = make(map[string]struct{}, len(in))
	}
	for i, e := range in {
		ev, eiss := d.Elem.parse(ctx, e, p.Index(i))
		if len(eiss) > 0 {
			iss = sf.AppendIssues(iss, eiss...)
			continue
		}
		if seen != nil {
			k := canonicalKey(ev)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
		}
		out = append(out, ev)
	}
	if len(iss) > 0 {
		return nil, iss
	}
	if iss := d.checkLength(len(out), p); len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

// entries yields the keys of an object-like input in a stable order plus a
// lookup that reports presence.
func entries(v any) ([]string, func(string) (any, bool), bool) {
	switch t := v.(type) {
	case *sf.Object:
		if t == nil {
			return nil, nil, false
		}
		return t.Keys(), t.Get, true
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return keys, func(k string) (any, bool) { e, ok := t[k]; return e, ok }, true
	}
	return nil, nil, false
}

func (d *Descriptor) parseMap(ctx context.Context, v any, p sf.PathRef) (any, sf.Issues) {
	keys, get, ok := entries(v)
	if !ok {
		return nil, one(p.Issue(sf.CodeInvalidType, "expected", "object"))
	}
	var iss sf.Issues
	out := sf.NewObject(len(keys))
	for _, k := range keys {
		kp := p.Field(k)
		kv, kiss := d.parseKey(ctx, k, kp)
		if len(kiss) > 0 {
			iss = sf.AppendIssues(iss, kiss...)
			continue
		}
		raw, _ := get(k)
		vv, viss := d.Value.parse(ctx, raw, kp)
		if len(viss) > 0 {
			iss = sf.AppendIssues(iss, viss...)
			continue
		}
		out.Set(keyString(kv), vv)
	}
	if len(iss) > 0 {
		return nil, iss
	}
	if iss := d.checkLength(out.Len(), p); len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

// parseKey validates an object key. Keys arrive as strings, so the string is
// tried first and then its number and boolean readings.
func (d *Descriptor) parseKey(ctx context.Context, k string, p sf.PathRef) (any, sf.Issues) {
	if d.Key == nil {
		return k, nil
	}
	var first sf.Issues
	for _, cand := range keyCandidates(k) {
		out, iss := d.Key.parse(ctx, cand, p)
		if len(iss) == 0 {
			return out, nil
		}
		if first == nil {
			first = iss
		}
	}
	return nil, first
}

func keyCandidates(k string) []any {
	cands := []any{k}
	if n, ok := numberFromString(k); ok && !n.special() {
		cands = append(cands, jsonNumber(n.d))
	}
	if b, err := strconv.ParseBool(k); err == nil {
		cands = append(cands, b)
	}
	return cands
}

func keyString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case decimal.Decimal:
		return t.String()
	case NonFinite:
		return t.String()
	}
	return canonicalKey(v)
}

func (d *Descriptor) parseModel(ctx context.Context, v any, p sf.PathRef) (any, sf.Issues) {
	_, get, ok := entries(v)
	if !ok {
		return nil, one(p.Issue(sf.CodeInvalidType, "expected", "object"))
	}
	var iss sf.Issues
	out := sf.NewObject(len(d.Fields))
	for _, f := range d.Fields {
		fp := p.Field(f.Name)
		raw, present := get(f.Name)
		if !present {
			switch {
			case f.Type.HasDefault:
				out.Set(f.Name, CloneValue(f.Type.Default))
			case f.Type.Nullable:
				out.Set(f.Name, nil)
			default:
				iss = sf.AppendIssues(iss, fp.Issue(sf.CodeRequired))
			}
			continue
		}
		fv, fiss := f.Type.parse(ctx, raw, fp)
		if len(fiss) > 0 {
			iss = sf.AppendIssues(iss, fiss...)
			continue
		}
		out.Set(f.Name, fv)
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

// parseUnion tries members whose kind matches the input exactly before
// falling back to the remaining members in order, so 5 lands on an integer
// member even when a decimal member is listed first.
func (d *Descriptor) parseUnion(ctx context.Context, v any, p sf.PathRef) (any, sf.Issues) {
	failures := make([]sf.Issues, len(d.Members))
	tried := make([]bool, len(d.Members))
	for pass := 0; pass < 2; pass++ {
		for i, m := range d.Members {
			if tried[i] || (pass == 0 && !exactKind(m, v)) {
				continue
			}
			tried[i] = true
			out, iss := m.parse(ctx, v, p)
			if len(iss) == 0 {
				return out, nil
			}
			failures[i] = iss
		}
	}
	var hints []string
	params := make([]any, 0, len(d.Members))
	for i, m := range d.Members {
		params = append(params, map[string]any{"type": m.TypeName(), "issues": failures[i]})
		if len(failures[i]) > 0 {
			hints = append(hints, m.TypeName()+": "+failures[i][0].Message)
		}
	}
	it := p.Issue(sf.CodeInvalidUnion)
	it.Params = map[string]any{"members": params}
	it.Hint = strings.Join(hints, "; ")
	return nil, one(it)
}

// exactKind reports whether v is in m's native input kind.
func exactKind(m *Descriptor, v any) bool {
	switch t := v.(type) {
	case nil:
		return m.Nullable || m.Kind == Any
	case string:
		return m.Kind == String || (m.Kind == Literal && hasLiteralKind(m.Literals, t))
	case bool:
		return m.Kind == Boolean || (m.Kind == Literal && hasLiteralKind(m.Literals, t))
	case []any:
		return m.Kind == List || m.Kind == Set
	case *sf.Object, map[string]any:
		return m.Kind == Map || m.Kind == Model
	}
	n, ok := toNumber(v)
	if !ok {
		return false
	}
	switch m.Kind {
	case Integer:
		return !n.special() && isIntegral(n.d)
	case Decimal:
		return n.special() || !isIntegral(n.d)
	case Literal:
		return hasLiteralKind(m.Literals, v)
	}
	return false
}

func hasLiteralKind(lits []any, v any) bool {
	for _, l := range lits {
		if literalEqual(l, v) {
			return true
		}
	}
	return false
}

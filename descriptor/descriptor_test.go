package descriptor_test

import (
	"context"
	"encoding/json"
	"math"
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	sf "github.com/reoring/schemaforge"
	"github.com/reoring/schemaforge/descriptor"
)

func intp(n int) *int { return &n }

func decp(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func firstIssue(t *testing.T, err error) sf.Issue {
	t.Helper()
	iss, ok := sf.AsIssues(err)
	if !ok || len(iss) == 0 {
		t.Fatalf("expected issues, got %v", err)
	}
	return iss[0]
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := sf.MarshalValue(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func TestString_LengthCountsRunes(t *testing.T) {
	d := &descriptor.Descriptor{Kind: descriptor.String, Constraints: descriptor.Constraints{MaxLength: intp(2)}}
	ctx := context.Background()
	if _, err := d.Parse(ctx, "日本"); err != nil {
		t.Fatalf("two runes should pass: %v", err)
	}
	if it := firstIssue(t, func() error { _, err := d.Parse(ctx, "日本語"); return err }()); it.Code != sf.CodeTooLong {
		t.Fatalf("expected too_long, got %s", it.Code)
	}
	if it := firstIssue(t, func() error { _, err := d.Parse(ctx, json.Number("1")); return err }()); it.Code != sf.CodeInvalidType {
		t.Fatalf("expected invalid_type, got %s", it.Code)
	}
}

func TestString_PatternSearches(t *testing.T) {
	d := &descriptor.Descriptor{Kind: descriptor.String, Constraints: descriptor.Constraints{Pattern: regexp.MustCompile(`\d+`)}}
	if _, err := d.Parse(context.Background(), "abc123"); err != nil {
		t.Fatalf("pattern should match anywhere: %v", err)
	}
	if _, err := d.Parse(context.Background(), "abc"); err == nil {
		t.Fatalf("expected pattern failure")
	}
}

func TestInteger(t *testing.T) {
	d := &descriptor.Descriptor{Kind: descriptor.Integer, Constraints: descriptor.Constraints{Ge: decp("0"), MultipleOf: decp("5")}}
	ctx := context.Background()
	for _, in := range []any{json.Number("10"), json.Number("10.0"), 10, "10"} {
		v, err := d.Parse(ctx, in)
		if err != nil || v != int64(10) {
			t.Fatalf("input %#v: got v=%#v err=%v", in, v, err)
		}
	}
	cases := []struct {
		in   any
		code string
	}{
		{json.Number("10.5"), sf.CodeInvalidType},
		{true, sf.CodeInvalidType},
		{json.Number("-5"), sf.CodeTooSmall},
		{json.Number("7"), sf.CodeNotMultipleOf},
		{json.Number("99999999999999999999"), sf.CodeOverflow},
	}
	for _, tc := range cases {
		_, err := d.Parse(ctx, tc.in)
		if it := firstIssue(t, err); it.Code != tc.code {
			t.Fatalf("input %#v: got %s, want %s", tc.in, it.Code, tc.code)
		}
	}
}

func TestInteger_ExtremeExponents(t *testing.T) {
	d := &descriptor.Descriptor{Kind: descriptor.Integer, Constraints: descriptor.Constraints{Ge: decp("1"), MultipleOf: decp("2")}}
	ctx := context.Background()
	cases := []struct {
		in   json.Number
		code string
	}{
		{"1e999999999", sf.CodeOverflow},
		{"-1e999999999", sf.CodeOverflow},
		{"1e19", sf.CodeOverflow},
		{"1e-999999999", sf.CodeInvalidType},
		{"0e-999999999", sf.CodeTooSmall},
		{"0e999999999", sf.CodeTooSmall},
	}
	for _, tc := range cases {
		_, err := d.Parse(ctx, tc.in)
		if it := firstIssue(t, err); it.Code != tc.code {
			t.Fatalf("input %s: got %s, want %s", tc.in, it.Code, tc.code)
		}
	}
	for in, want := range map[json.Number]int64{"1e18": 1e18, "400e-2": 4, "9.2e18": 9200000000000000000} {
		v, err := d.Parse(ctx, in)
		if err != nil || v != want {
			t.Fatalf("input %s: got v=%#v err=%v", in, v, err)
		}
	}
}

func TestDecimal_ExtremeExponents(t *testing.T) {
	d := &descriptor.Descriptor{Kind: descriptor.Decimal, Constraints: descriptor.Constraints{Gt: decp("-1"), Le: decp("1")}}
	ctx := context.Background()
	cases := []struct {
		in   json.Number
		code string
	}{
		{"1e999999999", sf.CodeOverflow},
		{"1e-999999999", sf.CodeOverflow},
		{"1e6000", sf.CodeTooBig},
		{"-1e6000", sf.CodeTooSmall},
	}
	for _, tc := range cases {
		_, err := d.Parse(ctx, tc.in)
		if it := firstIssue(t, err); it.Code != tc.code {
			t.Fatalf("input %s: got %s, want %s", tc.in, it.Code, tc.code)
		}
	}
	if _, err := d.Parse(ctx, json.Number("1e-6000")); err != nil {
		t.Fatalf("tiny value is within bounds: %v", err)
	}

	step := &descriptor.Descriptor{Kind: descriptor.Decimal, Constraints: descriptor.Constraints{MultipleOf: decp("0.25")}}
	if _, err := step.Parse(ctx, json.Number("3e6000")); err != nil {
		t.Fatalf("large multiple: %v", err)
	}
	if it := firstIssue(t, func() error { _, err := step.Parse(ctx, json.Number("1e-6000")); return err }()); it.Code != sf.CodeNotMultipleOf {
		t.Fatalf("expected not_multiple_of, got %s", it.Code)
	}
}

func TestDecimal_PrecisionAndDigits(t *testing.T) {
	d := &descriptor.Descriptor{Kind: descriptor.Decimal, Constraints: descriptor.Constraints{MaxDigits: intp(5), DecimalPlaces: intp(2)}}
	ctx := context.Background()

	v, err := d.Parse(ctx, json.Number("123.40"))
	if err != nil {
		t.Fatalf("trailing zeros must not count: %v", err)
	}
	if dv := v.(decimal.Decimal); !dv.Equal(decimal.RequireFromString("123.4")) {
		t.Fatalf("unexpected value %s", dv)
	}
	if mustJSON(t, v) != `"123.4"` {
		t.Fatalf("decimals serialize as strings, got %s", mustJSON(t, v))
	}

	if it := firstIssue(t, func() error { _, err := d.Parse(ctx, "1.234"); return err }()); it.Code != sf.CodeTooManyPlaces {
		t.Fatalf("expected too_many_decimal_places, got %s", it.Code)
	}
	if it := firstIssue(t, func() error { _, err := d.Parse(ctx, json.Number("123456")); return err }()); it.Code != sf.CodeTooManyDigits {
		t.Fatalf("expected too_many_digits, got %s", it.Code)
	}
	// whole digits: max_digits - decimal_places = 3
	if it := firstIssue(t, func() error { _, err := d.Parse(ctx, json.Number("1234")); return err }()); it.Code != sf.CodeTooManyDigits {
		t.Fatalf("expected whole digit failure, got %s", it.Code)
	}

	// arbitrary precision survives
	big := &descriptor.Descriptor{Kind: descriptor.Decimal}
	v, err = big.Parse(ctx, json.Number("0.1000000000000000000000000001"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if v.(decimal.Decimal).String() != "0.1000000000000000000000000001" {
		t.Fatalf("precision lost: %s", v)
	}
}

func TestDecimal_InfNaN(t *testing.T) {
	ctx := context.Background()
	strict := &descriptor.Descriptor{Kind: descriptor.Decimal}
	if it := firstIssue(t, func() error { _, err := strict.Parse(ctx, "inf"); return err }()); it.Code != sf.CodeNotFinite {
		t.Fatalf("expected not_finite, got %s", it.Code)
	}
	allow := true
	lax := &descriptor.Descriptor{Kind: descriptor.Decimal, Constraints: descriptor.Constraints{AllowInfNaN: &allow}}
	v, err := lax.Parse(ctx, "-Infinity")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	nf, ok := v.(descriptor.NonFinite)
	if !ok || !math.IsInf(float64(nf), -1) {
		t.Fatalf("expected -Inf, got %#v", v)
	}
	if mustJSON(t, v) != `"-Infinity"` {
		t.Fatalf("unexpected json %s", mustJSON(t, v))
	}
}

func TestLiteral_KeepsKinds(t *testing.T) {
	d := &descriptor.Descriptor{Kind: descriptor.Literal, Literals: []any{"a", int64(1), true}}
	ctx := context.Background()
	for _, in := range []any{"a", json.Number("1"), json.Number("1.0"), true} {
		if _, err := d.Parse(ctx, in); err != nil {
			t.Fatalf("%#v should be accepted: %v", in, err)
		}
	}
	for _, in := range []any{"b", "1", json.Number("2"), false} {
		if _, err := d.Parse(ctx, in); err == nil {
			t.Fatalf("%#v should be rejected", in)
		}
	}
	onlyOne := &descriptor.Descriptor{Kind: descriptor.Literal, Literals: []any{int64(1)}}
	if _, err := onlyOne.Parse(ctx, true); err == nil {
		t.Fatalf("true must not equal 1")
	}
}

func TestSet_Dedups(t *testing.T) {
	d := &descriptor.Descriptor{Kind: descriptor.Set, Elem: &descriptor.Descriptor{Kind: descriptor.Decimal}, Constraints: descriptor.Constraints{MaxLength: intp(2)}}
	v, err := d.Parse(context.Background(), []any{json.Number("1"), json.Number("1.0"), json.Number("2")})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := mustJSON(t, v); got != `["1","2"]` {
		t.Fatalf("unexpected set %s", got)
	}
}

func TestMap_KeyCoercion(t *testing.T) {
	d := &descriptor.Descriptor{
		Kind:  descriptor.Map,
		Key:   &descriptor.Descriptor{Kind: descriptor.Integer},
		Value: &descriptor.Descriptor{Kind: descriptor.Boolean},
	}
	in := sf.NewObject(2)
	in.Set("2", true)
	in.Set("1", false)
	v, err := d.Parse(context.Background(), in)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := mustJSON(t, v); got != `{"2":true,"1":false}` {
		t.Fatalf("unexpected map %s", got)
	}

	bad := sf.NewObject(1)
	bad.Set("x", true)
	_, err = d.Parse(context.Background(), bad)
	if it := firstIssue(t, err); it.Path != "/x" || it.Code != sf.CodeInvalidType {
		t.Fatalf("unexpected issue %+v", it)
	}
}

func person() *descriptor.Descriptor {
	desc := "age in years"
	return &descriptor.Descriptor{
		Kind: descriptor.Model,
		Name: "Person",
		Fields: []descriptor.Field{
			{Name: "name", Type: &descriptor.Descriptor{Kind: descriptor.String}},
			{Name: "email", Type: &descriptor.Descriptor{Kind: descriptor.String}},
			{Name: "age", Type: &descriptor.Descriptor{Kind: descriptor.Integer, Nullable: true, Description: &desc}},
			{Name: "role", Type: &descriptor.Descriptor{Kind: descriptor.String, HasDefault: true, Default: "member"}},
		},
	}
}

func TestModel_RequiredDefaultsAndOrder(t *testing.T) {
	d := person()
	ctx := context.Background()

	_, err := d.Parse(ctx, sf.NewObject(0))
	iss, _ := sf.AsIssues(err)
	var got []string
	for _, it := range iss {
		got = append(got, it.Code+" "+it.Path)
	}
	if diff := cmp.Diff([]string{"required /name", "required /email"}, got); diff != "" {
		t.Fatalf("issues mismatch (-want +got):\n%s", diff)
	}

	in := sf.NewObject(3)
	in.Set("extra", json.Number("1"))
	in.Set("email", "a@example.com")
	in.Set("name", "Ann")
	v, err := d.Parse(ctx, in)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := mustJSON(t, v); got != `{"name":"Ann","email":"a@example.com","age":null,"role":"member"}` {
		t.Fatalf("unexpected instance %s", got)
	}

	in.Set("age", nil)
	if _, err := d.Parse(ctx, in); err != nil {
		t.Fatalf("explicit null for nullable: %v", err)
	}
	in.Set("name", nil)
	if it := firstIssue(t, func() error { _, err := d.Parse(ctx, in); return err }()); it.Path != "/name" || it.Code != sf.CodeInvalidType {
		t.Fatalf("null for required field: %+v", it)
	}
}

func TestUnion_ExactKindFirst(t *testing.T) {
	d := &descriptor.Descriptor{Kind: descriptor.Union, Members: []*descriptor.Descriptor{
		{Kind: descriptor.Decimal},
		{Kind: descriptor.Integer},
		{Kind: descriptor.String},
	}}
	ctx := context.Background()
	v, err := d.Parse(ctx, json.Number("5"))
	if err != nil || v != int64(5) {
		t.Fatalf("expected integer member, got %#v err=%v", v, err)
	}
	v, err = d.Parse(ctx, "5")
	if err != nil || v != "5" {
		t.Fatalf("expected string member, got %#v err=%v", v, err)
	}
	_, err = d.Parse(ctx, true)
	it := firstIssue(t, err)
	if it.Code != sf.CodeInvalidUnion || it.Hint == "" {
		t.Fatalf("expected invalid_union with hint, got %+v", it)
	}
}

func TestJSONSchema_Model(t *testing.T) {
	s := person().JSONSchema()
	if s.Title != "Person" || s.Type != "object" {
		t.Fatalf("unexpected root %+v", s)
	}
	if diff := cmp.Diff([]string{"name", "email"}, s.Required); diff != "" {
		t.Fatalf("required mismatch (-want +got):\n%s", diff)
	}
	age, ok := s.Properties.Get("age")
	if !ok || len(age.AnyOf) != 2 || age.AnyOf[1].Type != "null" || age.Description != "age in years" {
		t.Fatalf("unexpected age schema %+v", age)
	}
	role, _ := s.Properties.Get("role")
	if role.Default != "member" {
		t.Fatalf("default not projected: %+v", role)
	}
}

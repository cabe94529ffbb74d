package xdm_test

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

type foldCollator struct{}

func (foldCollator) Compare(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func TestValueCompare(t *testing.T) {
	tests := []struct {
		name string
		op   xdm.CompareOp
		a, b xdm.AtomicValue
		coll xdm.Collator
		want bool
	}{
		{name: "integer eq decimal", op: xdm.OpEq, a: xdm.NewInteger(2), b: decimal(t, "2.0"), want: true},
		{name: "integer lt double", op: xdm.OpLt, a: xdm.NewInteger(1), b: xdm.NewDouble(1.5), want: true},
		{name: "NaN ne NaN", op: xdm.OpNe, a: xdm.NewDouble(math.NaN()), b: xdm.NewDouble(math.NaN()), want: true},
		{name: "NaN eq NaN", op: xdm.OpEq, a: xdm.NewDouble(math.NaN()), b: xdm.NewDouble(math.NaN()), want: false},
		{name: "strings codepoint", op: xdm.OpLt, a: xdm.NewString("B"), b: xdm.NewString("a"), want: true},
		{name: "strings folded", op: xdm.OpEq, a: xdm.NewString("ABC"), b: xdm.NewString("abc"), coll: foldCollator{}, want: true},
		{name: "untyped as string", op: xdm.OpEq, a: xdm.NewUntyped("10"), b: xdm.NewString("10"), want: true},
		{name: "anyURI and string", op: xdm.OpEq, a: xdm.NewAnyURI("urn:x"), b: xdm.NewString("urn:x"), want: true},
		{name: "booleans", op: xdm.OpLt, a: xdm.NewBoolean(false), b: xdm.NewBoolean(true), want: true},
		{name: "qnames ignore prefix", op: xdm.OpEq, a: xdm.NewQNameValue(xdm.QName{NS: "u", Local: "a", Prefix: "p"}), b: xdm.NewQNameValue(xdm.NewQName("u", "a")), want: true},
		{
			name: "dateTime across zones",
			op:   xdm.OpEq,
			a:    mustTemporal(t, "2024-01-01T12:00:00Z", xdm.TypeDateTime),
			b:    mustTemporal(t, "2024-01-01T13:00:00+01:00", xdm.TypeDateTime),
			want: true,
		},
		{
			name: "durations equal across types",
			op:   xdm.OpEq,
			a:    mustDuration(t, "P1Y", xdm.TypeYearMonthDuration),
			b:    mustDuration(t, "P12M", xdm.TypeDuration),
			want: true,
		},
		{
			name: "dayTime ordering",
			op:   xdm.OpGt,
			a:    mustDuration(t, "P1D", xdm.TypeDayTimeDuration),
			b:    mustDuration(t, "PT23H", xdm.TypeDayTimeDuration),
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := xdm.ValueCompare(tt.op, tt.a, tt.b, tt.coll, time.UTC)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("%v %s %v: expected %v, got %v", tt.a, tt.op, tt.b, tt.want, got)
			}
		})
	}
}

func TestValueCompareErrors(t *testing.T) {
	tests := []struct {
		name string
		op   xdm.CompareOp
		a, b xdm.AtomicValue
	}{
		{name: "string and integer", op: xdm.OpEq, a: xdm.NewString("1"), b: xdm.NewInteger(1)},
		{name: "qname ordering", op: xdm.OpLt, a: xdm.NewQNameValue(xdm.NewQName("", "a")), b: xdm.NewQNameValue(xdm.NewQName("", "b"))},
		{name: "gYear ordering", op: xdm.OpLt, a: mustTemporal(t, "2001", xdm.TypeGYear), b: mustTemporal(t, "2002", xdm.TypeGYear)},
		{name: "duration ordering", op: xdm.OpLt, a: mustDuration(t, "P1D", xdm.TypeDuration), b: mustDuration(t, "P2D", xdm.TypeDuration)},
		{name: "date and dateTime", op: xdm.OpEq, a: mustTemporal(t, "2001-01-01", xdm.TypeDate), b: mustTemporal(t, "2001-01-01T00:00:00", xdm.TypeDateTime)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := xdm.ValueCompare(tt.op, tt.a, tt.b, nil, time.UTC)
			if types.CodeOf(err) != types.ErrType {
				t.Fatalf("expected XPTY0004, got %v", err)
			}
		})
	}
}

func TestGeneralComparePair(t *testing.T) {
	tests := []struct {
		name    string
		op      xdm.CompareOp
		a, b    xdm.AtomicValue
		want    bool
		wantErr types.ErrorCode
	}{
		{name: "untyped against integer is numeric", op: xdm.OpEq, a: xdm.NewUntyped("10.0"), b: xdm.NewInteger(10), want: true},
		{name: "untyped against string", op: xdm.OpEq, a: xdm.NewUntyped("10.0"), b: xdm.NewString("10"), want: false},
		{name: "untyped against untyped", op: xdm.OpLt, a: xdm.NewUntyped("10"), b: xdm.NewUntyped("9"), want: true},
		{name: "untyped against date", op: xdm.OpEq, a: xdm.NewUntyped("2024-01-01"), b: mustTemporal(t, "2024-01-01", xdm.TypeDate), want: true},
		{name: "untyped not numeric", op: xdm.OpEq, a: xdm.NewUntyped("abc"), b: xdm.NewInteger(1), wantErr: types.ErrCast},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := xdm.GeneralComparePair(tt.op, tt.a, tt.b, nil, time.UTC)
			if tt.wantErr != "" {
				if types.CodeOf(err) != tt.wantErr {
					t.Fatalf("expected %s, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestAtomicEqual(t *testing.T) {
	if !xdm.AtomicEqual(xdm.NewDouble(math.NaN()), xdm.NewDouble(math.NaN()), nil, time.UTC) {
		t.Fatal("expected NaN to equal NaN")
	}
	if xdm.AtomicEqual(xdm.NewString("1"), xdm.NewInteger(1), nil, time.UTC) {
		t.Fatal("expected incomparable values to be unequal")
	}
	if !xdm.AtomicEqual(xdm.NewInteger(1), xdm.NewDouble(1), nil, time.UTC) {
		t.Fatal("expected 1 and 1.0e0 to be equal")
	}
}

func TestLookupCompareOp(t *testing.T) {
	for _, s := range []string{"eq", "=", "ne", "!=", "lt", "<", "le", "<=", "gt", ">", "ge", ">="} {
		if _, ok := xdm.LookupCompareOp(s); !ok {
			t.Errorf("expected %q to be a comparison operator", s)
		}
	}
	if _, ok := xdm.LookupCompareOp("is"); ok {
		t.Error("expected is to be rejected")
	}
}

package xdm_test

import (
	"math"
	"testing"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

func TestCast(t *testing.T) {
	tests := []struct {
		name     string
		in       xdm.AtomicValue
		target   xdm.AtomicType
		want     string
		wantType xdm.AtomicType
		wantErr  types.ErrorCode
	}{
		{name: "string to integer", in: xdm.NewString(" 12 "), target: xdm.TypeInteger, want: "12", wantType: xdm.TypeInteger},
		{name: "signed integer", in: xdm.NewString("+7"), target: xdm.TypeInteger, want: "7", wantType: xdm.TypeInteger},
		{name: "bad integer", in: xdm.NewString("abc"), target: xdm.TypeInteger, wantErr: types.ErrCast},
		{name: "double truncates", in: xdm.NewDouble(3.7), target: xdm.TypeInteger, want: "3", wantType: xdm.TypeInteger},
		{name: "negative double truncates", in: xdm.NewDouble(-3.7), target: xdm.TypeInteger, want: "-3", wantType: xdm.TypeInteger},
		{name: "NaN to integer", in: xdm.NewDouble(math.NaN()), target: xdm.TypeInteger, wantErr: types.ErrInvalidLexical},
		{name: "INF to decimal", in: xdm.NewDouble(math.Inf(1)), target: xdm.TypeDecimal, wantErr: types.ErrInvalidLexical},
		{name: "byte range", in: xdm.NewInteger(300), target: xdm.TypeByte, wantErr: types.ErrCast},
		{name: "byte ok", in: xdm.NewInteger(-128), target: xdm.TypeByte, want: "-128", wantType: xdm.TypeByte},
		{name: "positiveInteger rejects zero", in: xdm.NewString("0"), target: xdm.TypePositiveInteger, wantErr: types.ErrCast},
		{name: "boolean from 1", in: xdm.NewString("1"), target: xdm.TypeBoolean, want: "true", wantType: xdm.TypeBoolean},
		{name: "boolean from word", in: xdm.NewUntyped("false"), target: xdm.TypeBoolean, want: "false", wantType: xdm.TypeBoolean},
		{name: "bad boolean", in: xdm.NewString("yes"), target: xdm.TypeBoolean, wantErr: types.ErrCast},
		{name: "boolean to string", in: xdm.NewBoolean(true), target: xdm.TypeString, want: "true", wantType: xdm.TypeString},
		{name: "boolean to double", in: xdm.NewBoolean(true), target: xdm.TypeDouble, want: "1", wantType: xdm.TypeDouble},
		{name: "zero to boolean", in: xdm.NewInteger(0), target: xdm.TypeBoolean, want: "false", wantType: xdm.TypeBoolean},
		{name: "NaN to boolean", in: xdm.NewDouble(math.NaN()), target: xdm.TypeBoolean, want: "false", wantType: xdm.TypeBoolean},
		{name: "large double to string", in: xdm.NewDouble(1e10), target: xdm.TypeString, want: "1.0E10", wantType: xdm.TypeString},
		{name: "small double to string", in: xdm.NewDouble(0.5), target: xdm.TypeString, want: "0.5", wantType: xdm.TypeString},
		{name: "decimal lexical", in: xdm.NewString("1.50"), target: xdm.TypeDecimal, want: "1.5", wantType: xdm.TypeDecimal},
		{name: "decimal rejects exponent", in: xdm.NewString("1e2"), target: xdm.TypeDecimal, wantErr: types.ErrCast},
		{name: "double exponent", in: xdm.NewString("1.5e2"), target: xdm.TypeDouble, want: "150", wantType: xdm.TypeDouble},
		{name: "double INF", in: xdm.NewString("-INF"), target: xdm.TypeDouble, want: "-INF", wantType: xdm.TypeDouble},
		{name: "double rejects +INF", in: xdm.NewString("+INF"), target: xdm.TypeDouble, wantErr: types.ErrCast},
		{name: "decimal to integer", in: xdm.NewDecimalFromInt(42), target: xdm.TypeInteger, want: "42", wantType: xdm.TypeInteger},
		{name: "token collapses", in: xdm.NewString("  a   b "), target: xdm.TypeToken, want: "a b", wantType: xdm.TypeToken},
		{name: "NCName rejects colon", in: xdm.NewString("a:b"), target: xdm.TypeNCName, wantErr: types.ErrCast},
		{name: "Name accepts colon", in: xdm.NewString("a:b"), target: xdm.TypeName, want: "a:b", wantType: xdm.TypeName},
		{name: "language", in: xdm.NewString("en-US"), target: xdm.TypeLanguage, want: "en-US", wantType: xdm.TypeLanguage},
		{name: "bad language", in: xdm.NewString("toolongtag-x"), target: xdm.TypeLanguage, wantErr: types.ErrCast},
		{name: "date from dateTime", in: mustTemporal(t, "2024-02-29T13:45:00Z", xdm.TypeDateTime), target: xdm.TypeDate, want: "2024-02-29Z", wantType: xdm.TypeDate},
		{name: "gYear from date", in: mustTemporal(t, "2024-02-29", xdm.TypeDate), target: xdm.TypeGYear, want: "2024", wantType: xdm.TypeGYear},
		{name: "time from date fails", in: mustTemporal(t, "2024-02-29", xdm.TypeDate), target: xdm.TypeTime, wantErr: types.ErrType},
		{name: "duration to dayTime", in: mustDuration(t, "P1Y2M3DT4H", xdm.TypeDuration), target: xdm.TypeDayTimeDuration, want: "P3DT4H", wantType: xdm.TypeDayTimeDuration},
		{name: "duration to yearMonth", in: mustDuration(t, "P1Y2M3DT4H", xdm.TypeDuration), target: xdm.TypeYearMonthDuration, want: "P1Y2M", wantType: xdm.TypeYearMonthDuration},
		{name: "hex to base64", in: xdm.BinaryValue{Data: []byte("hi"), Lexical: "6869", T: xdm.TypeHexBinary}, target: xdm.TypeBase64Binary, want: "aGk=", wantType: xdm.TypeBase64Binary},
		{name: "integer to date", in: xdm.NewInteger(1), target: xdm.TypeDate, wantErr: types.ErrType},
		{name: "to anyAtomicType", in: xdm.NewInteger(1), target: xdm.TypeAnyAtomic, wantErr: types.ErrNotationCast},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := xdm.Cast(tt.in, tt.target)
			if tt.wantErr != "" {
				if code := types.CodeOf(err); code != tt.wantErr {
					t.Fatalf("expected error %s, got %v (value %v)", tt.wantErr, err, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tt.want || got.Type() != tt.wantType {
				t.Fatalf("expected %s %q, got %s %q", tt.wantType, tt.want, got.Type(), got.String())
			}
		})
	}
}

func TestCastQName(t *testing.T) {
	resolve := func(prefix string) (string, bool) {
		switch prefix {
		case "p":
			return "urn:p", true
		case "":
			return "", true
		}
		return "", false
	}
	got, err := xdm.CastQName(xdm.NewString("p:item"), resolve)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	q := got.(xdm.QNameValue).Name
	if q.NS != "urn:p" || q.Local != "item" || q.Prefix != "p" {
		t.Fatalf("unexpected QName %+v", q)
	}
	if _, err := xdm.CastQName(xdm.NewString("q:item"), resolve); types.CodeOf(err) != types.ErrNoNamespacePfx {
		t.Fatalf("expected FONS0004, got %v", err)
	}
	if _, err := xdm.CastQName(xdm.NewString("1bad"), resolve); types.CodeOf(err) != types.ErrCast {
		t.Fatalf("expected FORG0001, got %v", err)
	}
	if _, err := xdm.CastQName(xdm.NewInteger(1), resolve); types.CodeOf(err) != types.ErrType {
		t.Fatalf("expected XPTY0004, got %v", err)
	}
}

func TestCastable(t *testing.T) {
	if !xdm.Castable(xdm.NewString("2024-01-01"), xdm.TypeDate) {
		t.Fatal("expected date to be castable")
	}
	if xdm.Castable(xdm.NewString("2024-13-01"), xdm.TypeDate) {
		t.Fatal("expected month 13 to be rejected")
	}
}

func mustTemporal(t *testing.T, s string, typ xdm.AtomicType) xdm.TemporalValue {
	t.Helper()
	v, err := xdm.ParseTemporal(s, typ)
	if err != nil {
		t.Fatalf("ParseTemporal(%q): %v", s, err)
	}
	return v
}

func mustDuration(t *testing.T, s string, typ xdm.AtomicType) xdm.DurationValue {
	t.Helper()
	v, err := xdm.ParseDuration(s, typ)
	if err != nil {
		t.Fatalf("ParseDuration(%q): %v", s, err)
	}
	return v
}

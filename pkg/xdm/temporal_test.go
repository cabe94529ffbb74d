package xdm_test

import (
	"testing"
	"time"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

func TestParseTemporalRoundTrip(t *testing.T) {
	tests := []struct {
		in   string
		typ  xdm.AtomicType
		want string
	}{
		{in: "2024-02-29T13:45:10.5+02:00", typ: xdm.TypeDateTime, want: "2024-02-29T13:45:10.5+02:00"},
		{in: "2024-02-29T24:00:00", typ: xdm.TypeDateTime, want: "2024-03-01T00:00:00"},
		{in: "-0044-03-15", typ: xdm.TypeDate, want: "-0044-03-15"},
		{in: "12:00:00Z", typ: xdm.TypeTime, want: "12:00:00Z"},
		{in: "2024-05", typ: xdm.TypeGYearMonth, want: "2024-05"},
		{in: "2024", typ: xdm.TypeGYear, want: "2024"},
		{in: "--02-29", typ: xdm.TypeGMonthDay, want: "--02-29"},
		{in: "---31", typ: xdm.TypeGDay, want: "---31"},
		{in: "--12-05:00", typ: xdm.TypeGMonth, want: "--12-05:00"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := xdm.ParseTemporal(tt.in, tt.typ)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v.String() != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, v.String())
			}
		})
	}
}

func TestParseTemporalInvalid(t *testing.T) {
	tests := []struct {
		in  string
		typ xdm.AtomicType
	}{
		{in: "2023-02-29", typ: xdm.TypeDate},
		{in: "0000-01-01", typ: xdm.TypeDate},
		{in: "2024-01-01T25:00:00", typ: xdm.TypeDateTime},
		{in: "2024-01-01T24:00:01", typ: xdm.TypeDateTime},
		{in: "2024-01-01+15:00", typ: xdm.TypeDate},
		{in: "24-01-01", typ: xdm.TypeDate},
		{in: "2024-01-01", typ: xdm.TypeDateTime},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if _, err := xdm.ParseTemporal(tt.in, tt.typ); err == nil {
				t.Fatalf("expected %q to be rejected as %s", tt.in, tt.typ)
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		typ     xdm.AtomicType
		want    string
		wantErr bool
	}{
		{in: "P1Y2M3DT4H5M6S", typ: xdm.TypeDuration, want: "P1Y2M3DT4H5M6S"},
		{in: "-PT90M", typ: xdm.TypeDayTimeDuration, want: "-PT1H30M"},
		{in: "PT1.9S", typ: xdm.TypeDayTimeDuration, want: "PT1S"},
		{in: "P0Y", typ: xdm.TypeYearMonthDuration, want: "P0M"},
		{in: "PT0S", typ: xdm.TypeDuration, want: "PT0S"},
		{in: "P1D", typ: xdm.TypeYearMonthDuration, wantErr: true},
		{in: "P1Y", typ: xdm.TypeDayTimeDuration, wantErr: true},
		{in: "P", typ: xdm.TypeDuration, wantErr: true},
		{in: "PT", typ: xdm.TypeDuration, wantErr: true},
		{in: "P1M1Y", typ: xdm.TypeDuration, wantErr: true},
		{in: "P1.5Y", typ: xdm.TypeDuration, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := xdm.ParseDuration(tt.in, tt.typ)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", v)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v.String() != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, v.String())
			}
		})
	}
}

func TestTemporalWithTimezone(t *testing.T) {
	v := mustTemporal(t, "2024-01-01T12:00:00Z", xdm.TypeDateTime)
	off := -300
	if got := v.WithTimezone(&off).String(); got != "2024-01-01T07:00:00-05:00" {
		t.Fatalf("expected 2024-01-01T07:00:00-05:00, got %s", got)
	}
	if got := v.WithTimezone(nil).String(); got != "2024-01-01T12:00:00" {
		t.Fatalf("expected timezone removed, got %s", got)
	}

	local := mustTemporal(t, "2024-01-01T12:00:00", xdm.TypeDateTime)
	want := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	if got := local.Instant(time.FixedZone("", 2*3600)); !got.Equal(want) {
		t.Fatalf("expected instant %v, got %v", want, got)
	}
}

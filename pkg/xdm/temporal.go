package xdm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
)

// Reference date used to place xs:time values on the timeline.
const (
	refYear  = 1972
	refMonth = time.December
	refDay   = 31
)

type dateTimeParts struct {
	year, month, day     int
	hour, minute, second int
	nanos                int
	tzMinutes            int
	hasTZ                bool
}

// ParseTemporal parses the lexical form of a date/time type t. Leading and
// trailing whitespace is ignored.
func ParseTemporal(lexical string, t AtomicType) (TemporalValue, error) {
	s := strings.TrimSpace(lexical)
	p := dateTimeParts{year: refYear, month: 1, day: 1}
	main, tz := splitTimezone(s)
	var ok bool
	switch t {
	case TypeDateTime:
		datePart, timePart, found := strings.Cut(main, "T")
		if !found {
			break
		}
		if p.year, p.month, p.day, ok = parseDateParts(datePart); !ok {
			break
		}
		p.hour, p.minute, p.second, p.nanos, ok = parseTimeParts(timePart)
	case TypeDate:
		p.year, p.month, p.day, ok = parseDateParts(main)
	case TypeTime:
		p.year, p.month, p.day = refYear, int(refMonth), refDay
		p.hour, p.minute, p.second, p.nanos, ok = parseTimeParts(main)
	case TypeGYearMonth:
		var rest string
		if p.year, rest, ok = parseYear(main); ok && len(rest) == 3 && rest[0] == '-' {
			p.month, ok = parseFixedDigits(rest[1:])
		} else {
			ok = false
		}
	case TypeGYear:
		var rest string
		p.year, rest, ok = parseYear(main)
		ok = ok && rest == ""
	case TypeGMonthDay:
		if len(main) == 7 && strings.HasPrefix(main, "--") && main[4] == '-' {
			var okd bool
			p.month, ok = parseFixedDigits(main[2:4])
			p.day, okd = parseFixedDigits(main[5:7])
			ok = ok && okd
		}
	case TypeGDay:
		if len(main) == 5 && strings.HasPrefix(main, "---") {
			p.day, ok = parseFixedDigits(main[3:])
		}
	case TypeGMonth:
		if len(main) == 4 && strings.HasPrefix(main, "--") {
			p.month, ok = parseFixedDigits(main[2:])
		}
	default:
		return TemporalValue{}, types.Errorf(types.ErrType, "%s is not a date/time type", t)
	}
	if !ok {
		return TemporalValue{}, invalidLexical(s, t)
	}
	if tz != "" {
		mins, err := parseTimezone(tz)
		if err != nil {
			return TemporalValue{}, invalidLexical(s, t)
		}
		p.tzMinutes, p.hasTZ = mins, true
	}
	return p.build(s, t)
}

func (p dateTimeParts) build(lexical string, t AtomicType) (TemporalValue, error) {
	if p.month < 1 || p.month > 12 || p.day < 1 || p.day > daysIn(p.year, p.month) {
		return TemporalValue{}, invalidLexical(lexical, t)
	}
	if p.year == 0 {
		return TemporalValue{}, invalidLexical(lexical, t)
	}
	endOfDay := false
	if p.hour == 24 {
		if p.minute != 0 || p.second != 0 || p.nanos != 0 {
			return TemporalValue{}, invalidLexical(lexical, t)
		}
		p.hour, endOfDay = 0, true
	} else if p.hour > 23 || p.minute > 59 || p.second > 59 {
		return TemporalValue{}, invalidLexical(lexical, t)
	}
	loc := time.UTC
	if p.hasTZ {
		loc = fixedZone(p.tzMinutes)
	}
	tm := time.Date(p.year, time.Month(p.month), p.day, p.hour, p.minute, p.second, p.nanos, loc)
	if endOfDay && t == TypeDateTime {
		tm = tm.AddDate(0, 0, 1)
	}
	return TemporalValue{Time: tm, HasTZ: p.hasTZ, T: t}, nil
}

// splitTimezone separates a trailing Z or ±hh:mm from the value.
func splitTimezone(s string) (main, tz string) {
	if strings.HasSuffix(s, "Z") {
		return s[:len(s)-1], "Z"
	}
	if len(s) >= 6 {
		sign := s[len(s)-6]
		if (sign == '+' || sign == '-') && s[len(s)-3] == ':' &&
			isDigits(s[len(s)-5:len(s)-3]) && isDigits(s[len(s)-2:]) {
			return s[:len(s)-6], s[len(s)-6:]
		}
	}
	return s, ""
}

func parseTimezone(tz string) (int, error) {
	if tz == "Z" {
		return 0, nil
	}
	h, ok1 := parseFixedDigits(tz[1:3])
	m, ok2 := parseFixedDigits(tz[4:6])
	if !ok1 || !ok2 || m > 59 || h > 14 || (h == 14 && m != 0) {
		return 0, fmt.Errorf("invalid timezone %q", tz)
	}
	mins := h*60 + m
	if tz[0] == '-' {
		mins = -mins
	}
	return mins, nil
}

// parseYear reads an optionally negative year of at least four digits, with
// no leading zero beyond four digits.
func parseYear(s string) (int, string, bool) {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i < 4 || (i > 4 && s[0] == '0') {
		return 0, "", false
	}
	y, err := strconv.Atoi(s[:i])
	if err != nil {
		return 0, "", false
	}
	if neg {
		y = -y
	}
	return y, s[i:], true
}

func parseDateParts(s string) (year, month, day int, ok bool) {
	year, rest, ok := parseYear(s)
	if !ok || len(rest) != 6 || rest[0] != '-' || rest[3] != '-' {
		return 0, 0, 0, false
	}
	month, ok1 := parseFixedDigits(rest[1:3])
	day, ok2 := parseFixedDigits(rest[4:6])
	return year, month, day, ok1 && ok2
}

func parseTimeParts(s string) (hour, minute, second, nanos int, ok bool) {
	if len(s) < 8 || s[2] != ':' || s[5] != ':' {
		return 0, 0, 0, 0, false
	}
	var ok1, ok2, ok3 bool
	hour, ok1 = parseFixedDigits(s[0:2])
	minute, ok2 = parseFixedDigits(s[3:5])
	second, ok3 = parseFixedDigits(s[6:8])
	if !ok1 || !ok2 || !ok3 {
		return 0, 0, 0, 0, false
	}
	frac := s[8:]
	if frac != "" {
		if frac[0] != '.' || len(frac) < 2 || !isDigits(frac[1:]) {
			return 0, 0, 0, 0, false
		}
		digits := frac[1:]
		if len(digits) > 9 {
			digits = digits[:9]
		}
		n, _ := strconv.Atoi(digits)
		for i := len(digits); i < 9; i++ {
			n *= 10
		}
		nanos = n
	}
	return hour, minute, second, nanos, true
}

func parseFixedDigits(s string) (int, bool) {
	if len(s) != 2 || !isDigits(s) {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func daysIn(year, month int) int {
	switch month {
	case 2:
		if isLeap(year) {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	}
	return 31
}

func isLeap(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}

func fixedZone(minutes int) *time.Location {
	if minutes == 0 {
		return time.FixedZone("Z", 0)
	}
	return time.FixedZone("", minutes*60)
}

func invalidLexical(s string, t AtomicType) error {
	return types.Errorf(types.ErrCast, "invalid lexical value %q for %s", s, t)
}

// Formatting

func formatYear(y int) string {
	if y < 0 {
		return fmt.Sprintf("-%04d", -y)
	}
	return fmt.Sprintf("%04d", y)
}

func formatTZ(t TemporalValue) string {
	off, ok := t.Offset()
	if !ok {
		return ""
	}
	if off == 0 {
		return "Z"
	}
	sign := '+'
	if off < 0 {
		sign, off = '-', -off
	}
	return fmt.Sprintf("%c%02d:%02d", sign, off/60, off%60)
}

func formatClock(tm time.Time) string {
	s := fmt.Sprintf("%02d:%02d:%02d", tm.Hour(), tm.Minute(), tm.Second())
	if ns := tm.Nanosecond(); ns != 0 {
		frac := strings.TrimRight(fmt.Sprintf("%09d", ns), "0")
		s += "." + frac
	}
	return s
}

func formatTemporal(t TemporalValue) string {
	tm := t.Time
	var s string
	switch t.T {
	case TypeDateTime:
		s = fmt.Sprintf("%s-%02d-%02dT%s", formatYear(tm.Year()), tm.Month(), tm.Day(), formatClock(tm))
	case TypeDate:
		s = fmt.Sprintf("%s-%02d-%02d", formatYear(tm.Year()), tm.Month(), tm.Day())
	case TypeTime:
		s = formatClock(tm)
	case TypeGYearMonth:
		s = fmt.Sprintf("%s-%02d", formatYear(tm.Year()), tm.Month())
	case TypeGYear:
		s = formatYear(tm.Year())
	case TypeGMonthDay:
		s = fmt.Sprintf("--%02d-%02d", tm.Month(), tm.Day())
	case TypeGDay:
		s = fmt.Sprintf("---%02d", tm.Day())
	case TypeGMonth:
		s = fmt.Sprintf("--%02d", tm.Month())
	}
	return s + formatTZ(t)
}

// Instant returns the point on the timeline the value denotes, using
// implicit for values without a timezone.
func (t TemporalValue) Instant(implicit *time.Location) time.Time {
	if t.HasTZ {
		return t.Time.UTC()
	}
	if implicit == nil {
		implicit = time.UTC
	}
	tm := t.Time
	return time.Date(tm.Year(), tm.Month(), tm.Day(), tm.Hour(), tm.Minute(), tm.Second(), tm.Nanosecond(), implicit).UTC()
}

// WithTimezone returns the value adjusted to the given offset in minutes, as
// fn:adjust-dateTime-to-timezone does. A nil offset removes the timezone.
func (t TemporalValue) WithTimezone(offset *int) TemporalValue {
	tm := t.Time
	if offset == nil {
		t.Time = time.Date(tm.Year(), tm.Month(), tm.Day(), tm.Hour(), tm.Minute(), tm.Second(), tm.Nanosecond(), time.UTC)
		t.HasTZ = false
		return t
	}
	loc := fixedZone(*offset)
	if !t.HasTZ {
		t.Time = time.Date(tm.Year(), tm.Month(), tm.Day(), tm.Hour(), tm.Minute(), tm.Second(), tm.Nanosecond(), loc)
	} else {
		t.Time = tm.In(loc)
	}
	t.HasTZ = true
	if t.T == TypeDate {
		d := t.Time
		t.Time = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	}
	if t.T == TypeTime {
		d := t.Time
		t.Time = time.Date(refYear, refMonth, refDay, d.Hour(), d.Minute(), d.Second(), d.Nanosecond(), loc)
	}
	return t
}

// Durations

// ParseDuration parses the lexical form of xs:duration,
// xs:yearMonthDuration or xs:dayTimeDuration. Fractional seconds are
// accepted and truncated.
func ParseDuration(lexical string, t AtomicType) (DurationValue, error) {
	s := strings.TrimSpace(lexical)
	bad := func() (DurationValue, error) { return DurationValue{}, invalidLexical(s, t) }
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	if !strings.HasPrefix(s, "P") || len(s) < 2 {
		return bad()
	}
	s = s[1:]
	datePart, timePart, hasT := strings.Cut(s, "T")
	if hasT && timePart == "" {
		return bad()
	}
	var months, seconds int64
	seen := false
	order := "YMD"
	for datePart != "" {
		n, unit, rest, frac, ok := nextDurationField(datePart)
		if !ok || frac {
			return bad()
		}
		idx := strings.IndexByte(order, unit)
		if idx < 0 {
			return bad()
		}
		order = order[idx+1:]
		switch unit {
		case 'Y':
			months += n * 12
		case 'M':
			months += n
		case 'D':
			seconds += n * 86400
		}
		datePart, seen = rest, true
	}
	order = "HMS"
	for timePart != "" {
		n, unit, rest, frac, ok := nextDurationField(timePart)
		if !ok || (frac && unit != 'S') {
			return bad()
		}
		idx := strings.IndexByte(order, unit)
		if idx < 0 {
			return bad()
		}
		order = order[idx+1:]
		switch unit {
		case 'H':
			seconds += n * 3600
		case 'M':
			seconds += n * 60
		case 'S':
			seconds += n
		}
		timePart, seen = rest, true
	}
	if !seen {
		return bad()
	}
	switch t {
	case TypeYearMonthDuration:
		if hasT || seconds != 0 || strings.ContainsRune(s, 'D') {
			return bad()
		}
	case TypeDayTimeDuration:
		if strings.ContainsAny(strings.SplitN(s, "T", 2)[0], "YM") {
			return bad()
		}
	}
	if neg {
		months, seconds = -months, -seconds
	}
	return DurationValue{Months: months, Seconds: seconds, T: t}, nil
}

// nextDurationField reads one "<digits>[.<digits>]<unit>" field. The
// fraction is validated and dropped.
func nextDurationField(s string) (n int64, unit byte, rest string, frac bool, ok bool) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(s) {
		return 0, 0, "", false, false
	}
	n, err := strconv.ParseInt(s[:i], 10, 64)
	if err != nil || n > math.MaxInt64/86400 {
		return 0, 0, "", false, false
	}
	if s[i] == '.' {
		j := i + 1
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
		}
		if j == i+1 || j >= len(s) {
			return 0, 0, "", false, false
		}
		frac, i = true, j
	}
	return n, s[i], s[i+1:], frac, true
}

func formatDuration(d DurationValue) string {
	months, secs := d.Months, d.Seconds
	neg := months < 0 || secs < 0
	if months < 0 {
		months = -months
	}
	if secs < 0 {
		secs = -secs
	}
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteByte('P')
	if d.T == TypeYearMonthDuration {
		if months == 0 {
			return "P0M"
		}
	}
	if y := months / 12; y != 0 {
		fmt.Fprintf(&b, "%dY", y)
	}
	if m := months % 12; m != 0 {
		fmt.Fprintf(&b, "%dM", m)
	}
	if d.T == TypeYearMonthDuration {
		return b.String()
	}
	if days := secs / 86400; days != 0 {
		fmt.Fprintf(&b, "%dD", days)
	}
	rem := secs % 86400
	if rem != 0 {
		b.WriteByte('T')
		if h := rem / 3600; h != 0 {
			fmt.Fprintf(&b, "%dH", h)
		}
		if m := rem % 3600 / 60; m != 0 {
			fmt.Fprintf(&b, "%dM", m)
		}
		if s := rem % 60; s != 0 {
			fmt.Fprintf(&b, "%dS", s)
		}
	}
	if months == 0 && secs == 0 {
		return "PT0S"
	}
	return b.String()
}

// addMonths adds n months to tm, clamping the day to the end of the target
// month (2001-01-31 + P1M is 2001-02-28).
func addMonths(tm time.Time, n int64) time.Time {
	total := int64(tm.Year())*12 + int64(tm.Month()-1) + n
	y := int(total / 12)
	m := int(total % 12)
	if m < 0 {
		m += 12
		y--
	}
	day := tm.Day()
	if dim := daysIn(y, m+1); day > dim {
		day = dim
	}
	return time.Date(y, time.Month(m+1), day, tm.Hour(), tm.Minute(), tm.Second(), tm.Nanosecond(), tm.Location())
}

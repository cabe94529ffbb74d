package xdm

import (
	"encoding/base64"
	"encoding/hex"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// AtomicValue is an XDM atomic value. The set of implementations is closed:
// BooleanValue, StringValue, IntegerValue, DecimalValue, DoubleValue,
// FloatValue, QNameValue, BinaryValue, TemporalValue and DurationValue.
type AtomicValue interface {
	// Type returns the dynamic type of the value.
	Type() AtomicType
	// String returns the canonical lexical form (the result of fn:string).
	String() string

	atomic()
}

// BooleanValue is an xs:boolean.
type BooleanValue bool

func (BooleanValue) Type() AtomicType { return TypeBoolean }
func (b BooleanValue) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (BooleanValue) atomic() {}

// StringValue is any value of the string family, xs:anyURI or
// xs:untypedAtomic.
type StringValue struct {
	V string
	T AtomicType
}

func (s StringValue) Type() AtomicType { return s.T }
func (s StringValue) String() string { return s.V }
func (StringValue) atomic() {}

// IntegerValue is an xs:integer or one of its bounded subtypes.
type IntegerValue struct {
	V int64
	T AtomicType
}

func (i IntegerValue) Type() AtomicType { return i.T }
func (i IntegerValue) String() string { return strconv.FormatInt(i.V, 10) }
func (IntegerValue) atomic() {}

// DecimalValue is an xs:decimal. The wrapped decimal is never mutated.
type DecimalValue struct {
	V *apd.Decimal
}

func (DecimalValue) Type() AtomicType { return TypeDecimal }
func (d DecimalValue) String() string { return formatDecimal(d.V) }
func (DecimalValue) atomic() {}

// DoubleValue is an xs:double.
type DoubleValue float64

func (DoubleValue) Type() AtomicType { return TypeDouble }
func (d DoubleValue) String() string { return formatFloat(float64(d), 64) }
func (DoubleValue) atomic() {}

// FloatValue is an xs:float.
type FloatValue float32

func (FloatValue) Type() AtomicType { return TypeFloat }
func (f FloatValue) String() string { return formatFloat(float64(f), 32) }
func (FloatValue) atomic() {}

// QNameValue is an xs:QName or xs:NOTATION.
type QNameValue struct {
	Name QName
	T    AtomicType
}

func (q QNameValue) Type() AtomicType { return q.T }
func (q QNameValue) String() string { return q.Name.Lexical() }
func (QNameValue) atomic() {}

// BinaryValue is an xs:base64Binary or xs:hexBinary. The lexical form is
// kept as written; Data holds the decoded octets.
type BinaryValue struct {
	Data    []byte
	Lexical string
	T       AtomicType
}

func (b BinaryValue) Type() AtomicType { return b.T }
func (b BinaryValue) String() string {
	if b.Lexical != "" || len(b.Data) == 0 {
		return b.Lexical
	}
	if b.T == TypeHexBinary {
		return strings.ToUpper(hex.EncodeToString(b.Data))
	}
	return base64.StdEncoding.EncodeToString(b.Data)
}
func (BinaryValue) atomic() {}

// TemporalValue is one of xs:dateTime, xs:date, xs:time and the five
// Gregorian fragment types. Time holds the wall-clock value; when HasTZ is
// set its location is a fixed offset, otherwise it is UTC and carries no
// timezone meaning. Fields not covered by the type hold reference values
// (1972-12-31 for times, month and day 1 for years).
type TemporalValue struct {
	Time  time.Time
	HasTZ bool
	T     AtomicType
}

func (t TemporalValue) Type() AtomicType { return t.T }
func (t TemporalValue) String() string { return formatTemporal(t) }
func (TemporalValue) atomic() {}

// Offset returns the timezone offset in minutes, if the value has one.
func (t TemporalValue) Offset() (int, bool) {
	if !t.HasTZ {
		return 0, false
	}
	_, off := t.Time.Zone()
	return off / 60, true
}

// DurationValue is an xs:duration, xs:yearMonthDuration or
// xs:dayTimeDuration. Months and Seconds always have the same sign;
// fractional seconds are truncated on construction.
type DurationValue struct {
	Months  int64
	Seconds int64
	T       AtomicType
}

func (d DurationValue) Type() AtomicType { return d.T }
func (d DurationValue) String() string { return formatDuration(d) }
func (DurationValue) atomic() {}

// Constructors

// NewString returns an xs:string.
func NewString(s string) StringValue { return StringValue{V: s, T: TypeString} }

// NewUntyped returns an xs:untypedAtomic.
func NewUntyped(s string) StringValue { return StringValue{V: s, T: TypeUntypedAtomic} }

// NewAnyURI returns an xs:anyURI.
func NewAnyURI(s string) StringValue { return StringValue{V: s, T: TypeAnyURI} }

// NewInteger returns an xs:integer.
func NewInteger(i int64) IntegerValue { return IntegerValue{V: i, T: TypeInteger} }

// NewBoolean returns an xs:boolean.
func NewBoolean(b bool) BooleanValue { return BooleanValue(b) }

// NewDouble returns an xs:double.
func NewDouble(f float64) DoubleValue { return DoubleValue(f) }

// NewDecimal wraps d as an xs:decimal.
func NewDecimal(d *apd.Decimal) DecimalValue { return DecimalValue{V: d} }

// NewDecimalFromInt returns an xs:decimal holding i.
func NewDecimalFromInt(i int64) DecimalValue { return DecimalValue{V: apd.New(i, 0)} }

// NewQNameValue returns an xs:QName.
func NewQNameValue(q QName) QNameValue { return QNameValue{Name: q, T: TypeQName} }

// NewDayTimeDuration returns an xs:dayTimeDuration of the given seconds.
func NewDayTimeDuration(seconds int64) DurationValue {
	return DurationValue{Seconds: seconds, T: TypeDayTimeDuration}
}

// NewYearMonthDuration returns an xs:yearMonthDuration of the given months.
func NewYearMonthDuration(months int64) DurationValue {
	return DurationValue{Months: months, T: TypeYearMonthDuration}
}

// Formatting

func formatDecimal(d *apd.Decimal) string {
	if d == nil {
		return "0"
	}
	var r apd.Decimal
	r.Reduce(d)
	if r.IsZero() {
		return "0"
	}
	return r.Text('f')
}

// formatFloat renders a double or float in the XPath canonical form: plain
// decimal notation for magnitudes in [1e-6, 1e6), scientific otherwise.
func formatFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	case f == 0:
		if math.Signbit(f) {
			return "-0"
		}
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e-6 && abs < 1e6 {
		return strconv.FormatFloat(f, 'f', -1, bits)
	}
	s := strconv.FormatFloat(f, 'E', -1, bits)
	mant, exp, _ := strings.Cut(s, "E")
	if !strings.Contains(mant, ".") {
		mant += ".0"
	}
	e, _ := strconv.Atoi(exp)
	return mant + "E" + strconv.Itoa(e)
}

package xdm

import (
	"encoding/base64"
	"encoding/hex"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/cockroachdb/apd/v3"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
)

// Cast converts v to the target type following the XPath casting table.
// Lexical failures are FORG0001, casts the table forbids are XPTY0004.
// Casting to xs:QName from a string needs namespace bindings; use CastQName.
func Cast(v AtomicValue, target AtomicType) (AtomicValue, error) {
	src := v.Type()
	if src == target {
		return v, nil
	}
	if target == TypeAnyAtomic || target == TypeNOTATION {
		return nil, types.Errorf(types.ErrNotationCast, "cannot cast to %s", target)
	}
	switch {
	case src == TypeUntypedAtomic || src.DerivesFrom(TypeString):
		return CastFromString(v.String(), target)
	case target == TypeString || target == TypeUntypedAtomic:
		return StringValue{V: v.String(), T: target}, nil
	case target.DerivesFrom(TypeString):
		return CastFromString(v.String(), target)
	}

	switch x := v.(type) {
	case BooleanValue:
		switch {
		case target == TypeDouble:
			return DoubleValue(boolToFloat(bool(x))), nil
		case target == TypeFloat:
			return FloatValue(boolToFloat(bool(x))), nil
		case target == TypeDecimal:
			return NewDecimalFromInt(int64(boolToFloat(bool(x)))), nil
		case target.IsInteger():
			return checkIntegerRange(int64(boolToFloat(bool(x))), target)
		}
	case IntegerValue, DecimalValue, FloatValue, DoubleValue:
		return castNumeric(v, target)
	case TemporalValue:
		return castTemporal(x, target)
	case DurationValue:
		switch target {
		case TypeDuration:
			return DurationValue{Months: x.Months, Seconds: x.Seconds, T: TypeDuration}, nil
		case TypeYearMonthDuration:
			return NewYearMonthDuration(x.Months), nil
		case TypeDayTimeDuration:
			return NewDayTimeDuration(x.Seconds), nil
		}
	case BinaryValue:
		switch target {
		case TypeBase64Binary:
			return BinaryValue{Data: x.Data, Lexical: base64.StdEncoding.EncodeToString(x.Data), T: target}, nil
		case TypeHexBinary:
			return BinaryValue{Data: x.Data, Lexical: strings.ToUpper(hex.EncodeToString(x.Data)), T: target}, nil
		}
	}
	return nil, types.Errorf(types.ErrType, "cannot cast %s to %s", src, target)
}

// CastQName casts a QName or a lexical QName string to xs:QName. resolve maps
// a prefix (empty for none) to its namespace URI.
func CastQName(v AtomicValue, resolve func(prefix string) (string, bool)) (AtomicValue, error) {
	if q, ok := v.(QNameValue); ok {
		return QNameValue{Name: q.Name, T: TypeQName}, nil
	}
	if !v.Type().IsStringLike() || v.Type() == TypeAnyURI {
		return nil, types.Errorf(types.ErrType, "cannot cast %s to xs:QName", v.Type())
	}
	q, err := ParseQName(v.String(), resolve)
	if err != nil {
		return nil, err
	}
	return NewQNameValue(q), nil
}

// ParseQName parses a lexical prefix:local name and resolves its prefix.
func ParseQName(lexical string, resolve func(prefix string) (string, bool)) (QName, error) {
	s := collapseWhitespace(lexical)
	prefix, local, found := strings.Cut(s, ":")
	if !found {
		prefix, local = "", s
	}
	if (found && !IsNCName(prefix)) || !IsNCName(local) {
		return QName{}, types.Errorf(types.ErrCast, "invalid QName %q", lexical)
	}
	var ns string
	if resolve != nil {
		uri, ok := resolve(prefix)
		if !ok && prefix != "" {
			return QName{}, types.Errorf(types.ErrNoNamespacePfx, "no namespace bound to prefix %q", prefix)
		}
		ns = uri
	} else if prefix != "" {
		return QName{}, types.Errorf(types.ErrNoNamespacePfx, "no namespace bound to prefix %q", prefix)
	}
	return QName{NS: ns, Local: local, Prefix: prefix}, nil
}

// Castable reports whether Cast would succeed.
func Castable(v AtomicValue, target AtomicType) bool {
	_, err := Cast(v, target)
	return err == nil
}

// CastFromString parses lexical as a value of the target type, applying the
// target's whitespace handling first.
func CastFromString(lexical string, target AtomicType) (AtomicValue, error) {
	switch {
	case target == TypeString || target == TypeUntypedAtomic:
		return StringValue{V: lexical, T: target}, nil
	case target == TypeAnyURI:
		return NewAnyURI(collapseWhitespace(lexical)), nil
	case target.DerivesFrom(TypeString):
		return castStringSubtype(lexical, target)
	}
	s := collapseWhitespace(lexical)
	switch {
	case target == TypeBoolean:
		switch s {
		case "true", "1":
			return NewBoolean(true), nil
		case "false", "0":
			return NewBoolean(false), nil
		}
	case target == TypeDecimal:
		if isDecimalLexical(s) {
			d, _, err := apd.NewFromString(strings.TrimPrefix(s, "+"))
			if err == nil {
				return NewDecimal(d), nil
			}
		}
	case target.IsInteger():
		if isIntegerLexical(s) {
			i, err := strconv.ParseInt(strings.TrimPrefix(s, "+"), 10, 64)
			if err != nil {
				return nil, types.Errorf(types.ErrIntegerTooLarge, "integer %q out of range", s)
			}
			return checkIntegerRange(i, target)
		}
	case target == TypeDouble:
		if f, ok := parseFloatLexical(s, 64); ok {
			return DoubleValue(f), nil
		}
	case target == TypeFloat:
		if f, ok := parseFloatLexical(s, 32); ok {
			return FloatValue(float32(f)), nil
		}
	case target.IsTemporal():
		return ParseTemporal(s, target)
	case target.IsDuration():
		return ParseDuration(s, target)
	case target == TypeBase64Binary:
		compact := strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, s)
		if data, err := base64.StdEncoding.DecodeString(compact); err == nil {
			return BinaryValue{Data: data, Lexical: s, T: target}, nil
		}
	case target == TypeHexBinary:
		if data, err := hex.DecodeString(s); err == nil {
			return BinaryValue{Data: data, Lexical: s, T: target}, nil
		}
	case target == TypeQName || target == TypeNOTATION:
		return nil, types.Errorf(types.ErrType, "casting a string to %s requires namespace bindings", target)
	}
	return nil, invalidLexical(lexical, target)
}

func castStringSubtype(lexical string, target AtomicType) (AtomicValue, error) {
	var s string
	if target == TypeNormalizedString {
		s = replaceWhitespace(lexical)
	} else {
		s = collapseWhitespace(lexical)
	}
	var ok bool
	switch target {
	case TypeNormalizedString, TypeToken:
		ok = true
	case TypeLanguage:
		ok = isLanguage(s)
	case TypeNMTOKEN:
		ok = s != "" && strings.IndexFunc(s, func(r rune) bool { return !isNameChar(r) }) < 0
	case TypeName:
		ok = isName(s)
	default: // NCName, ID, IDREF, ENTITY
		ok = IsNCName(s)
	}
	if !ok {
		return nil, invalidLexical(lexical, target)
	}
	return StringValue{V: s, T: target}, nil
}

func castNumeric(v AtomicValue, target AtomicType) (AtomicValue, error) {
	switch {
	case target == TypeBoolean:
		if x, ok := v.(DecimalValue); ok {
			return NewBoolean(!x.V.IsZero()), nil
		}
		f := ToFloat64(v)
		return NewBoolean(f != 0 && !math.IsNaN(f)), nil
	case target == TypeDouble:
		return DoubleValue(ToFloat64(v)), nil
	case target == TypeFloat:
		return FloatValue(float32(ToFloat64(v))), nil
	case target == TypeDecimal:
		switch x := v.(type) {
		case IntegerValue:
			return NewDecimalFromInt(x.V), nil
		case DecimalValue:
			return x, nil
		}
		f := ToFloat64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, types.Errorf(types.ErrInvalidLexical, "cannot cast %s to xs:decimal", v)
		}
		d, err := new(apd.Decimal).SetFloat64(f)
		if err != nil {
			return nil, types.Errorf(types.ErrInvalidLexical, "cannot cast %s to xs:decimal", v).WithCause(err)
		}
		return NewDecimal(d), nil
	case target.IsInteger():
		switch x := v.(type) {
		case IntegerValue:
			return checkIntegerRange(x.V, target)
		case DecimalValue:
			c := *DecimalContext
			c.Rounding = apd.RoundDown
			var t apd.Decimal
			if _, err := c.RoundToIntegralValue(&t, x.V); err != nil {
				return nil, types.Errorf(types.ErrIntegerTooLarge, "decimal %s out of integer range", x).WithCause(err)
			}
			i, err := t.Int64()
			if err != nil {
				return nil, types.Errorf(types.ErrIntegerTooLarge, "decimal %s out of integer range", x).WithCause(err)
			}
			return checkIntegerRange(i, target)
		}
		f := ToFloat64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, types.Errorf(types.ErrInvalidLexical, "cannot cast %s to %s", v, target)
		}
		f = math.Trunc(f)
		if f >= math.MaxInt64 || f < math.MinInt64 {
			return nil, types.Errorf(types.ErrIntegerTooLarge, "%s out of integer range", v)
		}
		return checkIntegerRange(int64(f), target)
	}
	return nil, types.Errorf(types.ErrType, "cannot cast %s to %s", v.Type(), target)
}

func checkIntegerRange(i int64, target AtomicType) (AtomicValue, error) {
	if b, ok := integerBounds[target]; ok && (i < b[0] || i > b[1]) {
		return nil, types.Errorf(types.ErrCast, "value %d out of range for %s", i, target)
	}
	return IntegerValue{V: i, T: target}, nil
}

func castTemporal(t TemporalValue, target AtomicType) (AtomicValue, error) {
	allowed := false
	switch t.T {
	case TypeDateTime:
		allowed = target.IsTemporal()
	case TypeDate:
		allowed = target == TypeDateTime || (target >= TypeGYearMonth && target <= TypeGMonth)
	}
	if !allowed {
		return nil, types.Errorf(types.ErrType, "cannot cast %s to %s", t.T, target)
	}
	return TemporalValue{Time: normalizeFields(t.Time, target), HasTZ: t.HasTZ, T: target}, nil
}

// normalizeFields resets the components a type does not carry to their
// reference values.
func normalizeFields(tm time.Time, t AtomicType) time.Time {
	y, m, d := tm.Year(), tm.Month(), tm.Day()
	h, mi, s, ns := tm.Hour(), tm.Minute(), tm.Second(), tm.Nanosecond()
	switch t {
	case TypeDate:
		h, mi, s, ns = 0, 0, 0, 0
	case TypeTime:
		y, m, d = refYear, refMonth, refDay
	case TypeGYearMonth:
		d, h, mi, s, ns = 1, 0, 0, 0, 0
	case TypeGYear:
		m, d, h, mi, s, ns = 1, 1, 0, 0, 0, 0
	case TypeGMonthDay:
		y, h, mi, s, ns = refYear, 0, 0, 0, 0
	case TypeGDay:
		y, m, h, mi, s, ns = refYear, 1, 0, 0, 0, 0
	case TypeGMonth:
		y, d, h, mi, s, ns = refYear, 1, 0, 0, 0, 0
	}
	return time.Date(y, m, d, h, mi, s, ns, tm.Location())
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Lexical helpers

func isIntegerLexical(s string) bool {
	if s != "" && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}
	return isDigits(s)
}

func isDecimalLexical(s string) bool {
	if s != "" && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}
	whole, frac, hasDot := strings.Cut(s, ".")
	if !hasDot {
		return isDigits(whole)
	}
	if whole == "" && frac == "" {
		return false
	}
	return (whole == "" || isDigits(whole)) && (frac == "" || isDigits(frac))
}

func parseFloatLexical(s string, bits int) (float64, bool) {
	switch s {
	case "INF":
		return math.Inf(1), true
	case "-INF":
		return math.Inf(-1), true
	case "NaN":
		return math.NaN(), true
	}
	mant, exp, hasExp := strings.Cut(strings.ToLower(s), "e")
	if !isDecimalLexical(mant) || (hasExp && !isIntegerLexical(exp)) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, bits)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return f, true
		}
		return 0, false
	}
	return f, true
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.FieldsFunc(s, isXMLSpace), " ")
}

// CollapseWhitespace applies the XML Schema collapse whitespace facet.
func CollapseWhitespace(s string) string { return collapseWhitespace(s) }

func replaceWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if isXMLSpace(r) {
			return ' '
		}
		return r
	}, s)
}

func isXMLSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func isNameStartChar(r rune) bool {
	return r == ':' || r == '_' || unicode.IsLetter(r)
}

func isNameChar(r rune) bool {
	return isNameStartChar(r) || r == '-' || r == '.' || r == 0xB7 ||
		unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r)
}

func isName(s string) bool {
	for i, r := range s {
		if i == 0 && !isNameStartChar(r) {
			return false
		}
		if !isNameChar(r) {
			return false
		}
	}
	return s != ""
}

// IsNCName reports whether s is a valid non-colonized name.
func IsNCName(s string) bool {
	return isName(s) && !strings.ContainsRune(s, ':')
}

func isLanguage(s string) bool {
	parts := strings.Split(s, "-")
	for i, p := range parts {
		if len(p) < 1 || len(p) > 8 {
			return false
		}
		for _, r := range p {
			isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
			if !isAlpha && (i == 0 || r < '0' || r > '9') {
				return false
			}
		}
	}
	return true
}

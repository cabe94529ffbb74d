package xdm

// AtomicType identifies a built-in XML Schema atomic type.
type AtomicType uint8

const (
	TypeAnyAtomic AtomicType = iota
	TypeUntypedAtomic
	TypeString
	TypeNormalizedString
	TypeToken
	TypeLanguage
	TypeNMTOKEN
	TypeName
	TypeNCName
	TypeID
	TypeIDREF
	TypeENTITY
	TypeAnyURI
	TypeQName
	TypeNOTATION
	TypeBoolean
	TypeDecimal
	TypeInteger
	TypeNonPositiveInteger
	TypeNegativeInteger
	TypeLong
	TypeInt
	TypeShort
	TypeByte
	TypeNonNegativeInteger
	TypeUnsignedLong
	TypeUnsignedInt
	TypeUnsignedShort
	TypeUnsignedByte
	TypePositiveInteger
	TypeDouble
	TypeFloat
	TypeDuration
	TypeYearMonthDuration
	TypeDayTimeDuration
	TypeDateTime
	TypeDate
	TypeTime
	TypeGYearMonth
	TypeGYear
	TypeGMonthDay
	TypeGDay
	TypeGMonth
	TypeBase64Binary
	TypeHexBinary

	numAtomicTypes
)

type atomicTypeInfo struct {
	local  string
	parent AtomicType
}

var atomicTypes = [numAtomicTypes]atomicTypeInfo{
	TypeAnyAtomic:          {"anyAtomicType", TypeAnyAtomic},
	TypeUntypedAtomic:      {"untypedAtomic", TypeAnyAtomic},
	TypeString:             {"string", TypeAnyAtomic},
	TypeNormalizedString:   {"normalizedString", TypeString},
	TypeToken:              {"token", TypeNormalizedString},
	TypeLanguage:           {"language", TypeToken},
	TypeNMTOKEN:            {"NMTOKEN", TypeToken},
	TypeName:               {"Name", TypeToken},
	TypeNCName:             {"NCName", TypeName},
	TypeID:                 {"ID", TypeNCName},
	TypeIDREF:              {"IDREF", TypeNCName},
	TypeENTITY:             {"ENTITY", TypeNCName},
	TypeAnyURI:             {"anyURI", TypeAnyAtomic},
	TypeQName:              {"QName", TypeAnyAtomic},
	TypeNOTATION:           {"NOTATION", TypeAnyAtomic},
	TypeBoolean:            {"boolean", TypeAnyAtomic},
	TypeDecimal:            {"decimal", TypeAnyAtomic},
	TypeInteger:            {"integer", TypeDecimal},
	TypeNonPositiveInteger: {"nonPositiveInteger", TypeInteger},
	TypeNegativeInteger:    {"negativeInteger", TypeNonPositiveInteger},
	TypeLong:               {"long", TypeInteger},
	TypeInt:                {"int", TypeLong},
	TypeShort:              {"short", TypeInt},
	TypeByte:               {"byte", TypeShort},
	TypeNonNegativeInteger: {"nonNegativeInteger", TypeInteger},
	TypeUnsignedLong:       {"unsignedLong", TypeNonNegativeInteger},
	TypeUnsignedInt:        {"unsignedInt", TypeUnsignedLong},
	TypeUnsignedShort:      {"unsignedShort", TypeUnsignedInt},
	TypeUnsignedByte:       {"unsignedByte", TypeUnsignedShort},
	TypePositiveInteger:    {"positiveInteger", TypeNonNegativeInteger},
	TypeDouble:             {"double", TypeAnyAtomic},
	TypeFloat:              {"float", TypeAnyAtomic},
	TypeDuration:           {"duration", TypeAnyAtomic},
	TypeYearMonthDuration:  {"yearMonthDuration", TypeDuration},
	TypeDayTimeDuration:    {"dayTimeDuration", TypeDuration},
	TypeDateTime:           {"dateTime", TypeAnyAtomic},
	TypeDate:               {"date", TypeAnyAtomic},
	TypeTime:               {"time", TypeAnyAtomic},
	TypeGYearMonth:         {"gYearMonth", TypeAnyAtomic},
	TypeGYear:              {"gYear", TypeAnyAtomic},
	TypeGMonthDay:          {"gMonthDay", TypeAnyAtomic},
	TypeGDay:               {"gDay", TypeAnyAtomic},
	TypeGMonth:             {"gMonth", TypeAnyAtomic},
	TypeBase64Binary:       {"base64Binary", TypeAnyAtomic},
	TypeHexBinary:          {"hexBinary", TypeAnyAtomic},
}

var atomicTypesByName = func() map[string]AtomicType {
	m := make(map[string]AtomicType, numAtomicTypes)
	for i, info := range atomicTypes {
		m[info.local] = AtomicType(i)
	}
	return m
}()

// LookupAtomicType returns the built-in type with the given local name in the
// XML Schema namespace.
func LookupAtomicType(local string) (AtomicType, bool) {
	t, ok := atomicTypesByName[local]
	return t, ok
}

// LocalName returns the type's local name, e.g. "integer".
func (t AtomicType) LocalName() string {
	if t < numAtomicTypes {
		return atomicTypes[t].local
	}
	return "unknown"
}

// String returns the prefixed type name, e.g. "xs:integer".
func (t AtomicType) String() string {
	return "xs:" + t.LocalName()
}

// QName returns the expanded type name.
func (t AtomicType) QName() QName {
	return QName{NS: NSXS, Local: t.LocalName(), Prefix: "xs"}
}

// Parent returns the base type; anyAtomicType is its own parent.
func (t AtomicType) Parent() AtomicType {
	if t < numAtomicTypes {
		return atomicTypes[t].parent
	}
	return TypeAnyAtomic
}

// DerivesFrom reports whether t is base or derived from base by restriction.
func (t AtomicType) DerivesFrom(base AtomicType) bool {
	for {
		if t == base {
			return true
		}
		if t == TypeAnyAtomic {
			return false
		}
		t = t.Parent()
	}
}

// Primitive returns the primitive type t is derived from. Integer subtypes
// report xs:integer rather than xs:decimal, and the two duration subtypes
// report themselves, since both behave as separate families in operators.
func (t AtomicType) Primitive() AtomicType {
	switch {
	case t.DerivesFrom(TypeInteger):
		return TypeInteger
	case t == TypeYearMonthDuration || t == TypeDayTimeDuration:
		return t
	case t.DerivesFrom(TypeString):
		return TypeString
	}
	for t.Parent() != TypeAnyAtomic {
		t = t.Parent()
	}
	return t
}

// IsNumeric reports whether t is decimal, float, double or derived from them.
func (t AtomicType) IsNumeric() bool {
	return t == TypeDouble || t == TypeFloat || t.DerivesFrom(TypeDecimal)
}

// IsInteger reports whether t is xs:integer or one of its subtypes.
func (t AtomicType) IsInteger() bool {
	return t.DerivesFrom(TypeInteger)
}

// IsStringLike reports whether values of t compare as strings: the string
// family, anyURI and untypedAtomic.
func (t AtomicType) IsStringLike() bool {
	return t == TypeUntypedAtomic || t == TypeAnyURI || t.DerivesFrom(TypeString)
}

// IsTemporal reports whether t is a date/time type.
func (t AtomicType) IsTemporal() bool {
	return t >= TypeDateTime && t <= TypeGMonth
}

// IsDuration reports whether t is a duration type.
func (t AtomicType) IsDuration() bool {
	return t == TypeDuration || t == TypeYearMonthDuration || t == TypeDayTimeDuration
}

// integerBounds are the value ranges of the integer subtypes. Values are held
// as int64, so unsignedLong and the unbounded types are capped there.
var integerBounds = map[AtomicType][2]int64{
	TypeNonPositiveInteger: {minInt64, 0},
	TypeNegativeInteger:    {minInt64, -1},
	TypeLong:               {minInt64, maxInt64},
	TypeInt:                {-1 << 31, 1<<31 - 1},
	TypeShort:              {-1 << 15, 1<<15 - 1},
	TypeByte:               {-1 << 7, 1<<7 - 1},
	TypeNonNegativeInteger: {0, maxInt64},
	TypeUnsignedLong:       {0, maxInt64},
	TypeUnsignedInt:        {0, 1<<32 - 1},
	TypeUnsignedShort:      {0, 1<<16 - 1},
	TypeUnsignedByte:       {0, 1<<8 - 1},
	TypePositiveInteger:    {1, maxInt64},
}

const (
	maxInt64 = 1<<63 - 1
	minInt64 = -1 << 63
)

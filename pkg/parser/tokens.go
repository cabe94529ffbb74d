package parser

// TokenType represents the type of a lexical token.
type TokenType uint8

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError

	// Literals
	TokenString   // "hello" or 'hello'
	TokenInteger  // 123
	TokenDecimal  // 1.5, .5, 1.
	TokenDouble   // 1e3, 1.5E-2
	TokenName     // name, prefix:name
	TokenWildcard // prefix:*, *:name
	TokenVariable // $name

	// Grouping symbols
	TokenBracketOpen  // [
	TokenBracketClose // ]
	TokenParenOpen    // (
	TokenParenClose   // )

	// Basic symbols
	TokenDot        // .
	TokenDotDot     // ..
	TokenComma      // ,
	TokenAt         // @
	TokenColonColon // ::
	TokenQuestion   // ?

	// Path operators
	TokenSlash      // /
	TokenSlashSlash // //

	// Arithmetic operators
	TokenPlus  // +
	TokenMinus // -
	TokenStar  // *

	// Other operators
	TokenPipe // |

	// Comparison operators
	TokenEqual        // =
	TokenNotEqual     // !=
	TokenLess         // <
	TokenLessEqual    // <=
	TokenGreater      // >
	TokenGreaterEqual // >=
	TokenPrecedes     // <<
	TokenFollows      // >>
)

// String returns a string representation of the token type.
func (tt TokenType) String() string {
	switch tt {
	case TokenEOF:
		return "(eof)"
	case TokenError:
		return "(error)"
	case TokenString:
		return "(string)"
	case TokenInteger:
		return "(integer)"
	case TokenDecimal:
		return "(decimal)"
	case TokenDouble:
		return "(double)"
	case TokenName:
		return "(name)"
	case TokenWildcard:
		return "(wildcard)"
	case TokenVariable:
		return "(variable)"
	case TokenBracketOpen:
		return "["
	case TokenBracketClose:
		return "]"
	case TokenParenOpen:
		return "("
	case TokenParenClose:
		return ")"
	case TokenDot:
		return "."
	case TokenDotDot:
		return ".."
	case TokenComma:
		return ","
	case TokenAt:
		return "@"
	case TokenColonColon:
		return "::"
	case TokenQuestion:
		return "?"
	case TokenSlash:
		return "/"
	case TokenSlashSlash:
		return "//"
	case TokenPlus:
		return "+"
	case TokenMinus:
		return "-"
	case TokenStar:
		return "*"
	case TokenPipe:
		return "|"
	case TokenEqual:
		return "="
	case TokenNotEqual:
		return "!="
	case TokenLess:
		return "<"
	case TokenLessEqual:
		return "<="
	case TokenGreater:
		return ">"
	case TokenGreaterEqual:
		return ">="
	case TokenPrecedes:
		return "<<"
	case TokenFollows:
		return ">>"
	default:
		return "(unknown)"
	}
}

// Token represents a lexical token in an XPath expression.
type Token struct {
	Type     TokenType // Type of the token
	Value    string    // Literal value of the token; unescaped for strings
	Position int       // Starting byte offset in the input string
}

// is reports whether the token is a name with the given lexical value.
func (t Token) is(name string) bool {
	return t.Type == TokenName && t.Value == name
}

// symbols1 maps single-character symbols to token types.
var symbols1 = [...]TokenType{
	'[': TokenBracketOpen,
	']': TokenBracketClose,
	'(': TokenParenOpen,
	')': TokenParenClose,
	'.': TokenDot,
	',': TokenComma,
	'@': TokenAt,
	'?': TokenQuestion,
	'/': TokenSlash,
	'+': TokenPlus,
	'-': TokenMinus,
	'*': TokenStar,
	'|': TokenPipe,
	'=': TokenEqual,
	'<': TokenLess,
	'>': TokenGreater,
}

// runeTokenType pairs a rune with its corresponding token type.
type runeTokenType struct {
	r  rune
	tt TokenType
}

// symbols2 maps two-character symbol sequences to token types.
// The key is the first character of the sequence.
var symbols2 = [...][]runeTokenType{
	'!': {{'=', TokenNotEqual}},
	'<': {{'=', TokenLessEqual}, {'<', TokenPrecedes}},
	'>': {{'=', TokenGreaterEqual}, {'>', TokenFollows}},
	'.': {{'.', TokenDotDot}},
	'/': {{'/', TokenSlashSlash}},
	':': {{':', TokenColonColon}},
}

const (
	symbol1Count = rune(len(symbols1))
	symbol2Count = rune(len(symbols2))
)

// lookupSymbol1 returns the token type for a single-character symbol.
// Returns 0 if the rune is not a valid symbol.
func lookupSymbol1(r rune) TokenType {
	if r < 0 || r >= symbol1Count {
		return 0
	}
	return symbols1[r]
}

// lookupSymbol2 returns possible two-character symbol completions.
// Returns nil if the rune cannot start a two-character symbol.
func lookupSymbol2(r rune) []runeTokenType {
	if r < 0 || r >= symbol2Count {
		return nil
	}
	return symbols2[r]
}

// kindTestNames are the names that open a kind test when followed by "(".
var kindTestNames = map[string]bool{
	"node":                   true,
	"text":                   true,
	"comment":                true,
	"processing-instruction": true,
	"document-node":          true,
	"element":                true,
	"attribute":              true,
	"schema-element":         true,
	"schema-attribute":       true,
}

// reservedFunctionNames can never name a function call.
var reservedFunctionNames = map[string]bool{
	"attribute":              true,
	"comment":                true,
	"document-node":          true,
	"element":                true,
	"empty-sequence":         true,
	"if":                     true,
	"item":                   true,
	"node":                   true,
	"processing-instruction": true,
	"schema-attribute":       true,
	"schema-element":         true,
	"text":                   true,
	"typeswitch":             true,
}

package parser

import (
	"fmt"
	"strings"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
)

// Parser implements a recursive descent parser for XPath 2.0 expressions.
// Binary operators are handled with Pratt's "Top Down Operator Precedence"
// algorithm; paths, steps and the keyword-led expressions (for, some,
// every, if) are parsed by plain recursive descent.
type Parser struct {
	lexer   *Lexer
	current Token
	prev    Token
	next    *Token // one token of lookahead, filled by peek
	errors  []error
	opts    CompileOptions
	depth   int
}

// NewParser creates a new parser for the given input string.
func NewParser(input string, opts ...CompileOption) *Parser {
	options := CompileOptions{
		MaxDepth: 100,
	}
	for _, opt := range opts {
		opt(&options)
	}

	p := &Parser{
		lexer: NewLexer(input),
		opts:  options,
	}

	// Read the first token
	p.advance()

	return p
}

// Parse parses the entire expression and returns the root AST node.
func (p *Parser) Parse() (*types.Expression, error) {
	if p.current.Type == TokenError {
		return nil, p.lexer.Error()
	}

	if p.current.Type == TokenEOF {
		return nil, p.error("empty expression")
	}

	node, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if p.current.Type != TokenEOF {
		return nil, p.error(fmt.Sprintf("unexpected token %q", p.current.Value))
	}

	return types.NewExpression(node, p.lexer.input), nil
}

// Binding powers of the infix operators. Higher values bind more tightly.
const (
	precOr             = 10
	precAnd            = 20
	precComparison     = 30
	precRange          = 40
	precAdditive       = 50
	precMultiplicative = 60
	precUnion          = 70
	precIntersect      = 80
	precInstanceOf     = 90
	precTreat          = 100
	precCastable       = 110
	precCast           = 120
	precUnary          = 130
)

// Operator precedence table for symbol operators.
var precedence = map[TokenType]int{
	TokenEqual:        precComparison,
	TokenNotEqual:     precComparison,
	TokenLess:         precComparison,
	TokenLessEqual:    precComparison,
	TokenGreater:      precComparison,
	TokenGreaterEqual: precComparison,
	TokenPrecedes:     precComparison,
	TokenFollows:      precComparison,
	TokenPlus:         precAdditive,
	TokenMinus:        precAdditive,
	TokenStar:         precMultiplicative,
	TokenPipe:         precUnion,
}

// Operator precedence table for keyword operators. A name is only an
// operator when it follows a complete operand.
var keywordPrecedence = map[string]int{
	"or":        precOr,
	"and":       precAnd,
	"eq":        precComparison,
	"ne":        precComparison,
	"lt":        precComparison,
	"le":        precComparison,
	"gt":        precComparison,
	"ge":        precComparison,
	"is":        precComparison,
	"to":        precRange,
	"div":       precMultiplicative,
	"idiv":      precMultiplicative,
	"mod":       precMultiplicative,
	"union":     precUnion,
	"intersect": precIntersect,
	"except":    precIntersect,
	"instance":  precInstanceOf,
	"treat":     precTreat,
	"castable":  precCastable,
	"cast":      precCast,
}

// getPrecedence returns the binding power of a token in operator position.
func (p *Parser) getPrecedence(t Token) int {
	if t.Type == TokenName {
		return keywordPrecedence[t.Value]
	}
	return precedence[t.Type]
}

// advance moves to the next token.
func (p *Parser) advance() {
	p.prev = p.current
	if p.next != nil {
		p.current = *p.next
		p.next = nil
		return
	}
	p.current = p.lexer.Next()
}

// peek returns the token after the current one without consuming it.
func (p *Parser) peek() Token {
	if p.next == nil {
		t := p.lexer.Next()
		p.next = &t
	}
	return *p.next
}

// expect checks if the current token matches the expected type and advances.
func (p *Parser) expect(tt TokenType) error {
	if p.current.Type != tt {
		return p.error(fmt.Sprintf("expected %s but got %s", tt, p.describe()))
	}
	p.advance()
	return nil
}

// expectKeyword checks that the current token is the given keyword and advances.
func (p *Parser) expectKeyword(keyword string) error {
	if !p.current.is(keyword) {
		return p.error(fmt.Sprintf("expected %q but got %s", keyword, p.describe()))
	}
	p.advance()
	return nil
}

// describe renders the current token for error messages.
func (p *Parser) describe() string {
	switch p.current.Type {
	case TokenEOF:
		return "end of expression"
	case TokenName, TokenWildcard, TokenVariable, TokenInteger, TokenDecimal, TokenDouble:
		return fmt.Sprintf("%q", p.current.Value)
	}
	return p.current.Type.String()
}

// error creates a parser error. A pending lexer error takes precedence,
// since it explains why the current token is unusable.
func (p *Parser) error(message string) error {
	if p.current.Type == TokenError && p.lexer.Error() != nil {
		return p.lexer.Error()
	}
	err := types.NewError(types.ErrSyntax, message, p.current.Position).WithToken(p.current.Value)
	p.errors = append(p.errors, err)
	return err
}

// parseExpr parses a comma-separated list of ExprSingle.
func (p *Parser) parseExpr() (*types.ASTNode, error) {
	pos := p.current.Position
	first, err := p.parseExprSingle()
	if err != nil {
		return nil, err
	}
	if p.current.Type != TokenComma {
		return first, nil
	}

	seq := types.NewASTNode(types.NodeSequence, pos)
	seq.Arguments = []*types.ASTNode{first}
	for p.current.Type == TokenComma {
		p.advance()
		item, err := p.parseExprSingle()
		if err != nil {
			return nil, err
		}
		seq.Arguments = append(seq.Arguments, item)
	}
	return seq, nil
}

// parseExprSingle parses one of the keyword-led expressions or an OrExpr.
func (p *Parser) parseExprSingle() (*types.ASTNode, error) {
	if p.current.Type == TokenName {
		next := p.peek().Type
		switch p.current.Value {
		case "for":
			if next == TokenVariable {
				return p.parseFor()
			}
		case "some", "every":
			if next == TokenVariable {
				return p.parseQuantified()
			}
		case "if":
			if next == TokenParenOpen {
				return p.parseIf()
			}
		case "let":
			if next == TokenVariable {
				return nil, p.error("let expressions are not part of XPath 2.0")
			}
		}
	}
	return p.parseExpression(0)
}

// parseExpression parses an expression with operator precedence.
// rbp is the right binding power (minimum precedence).
func (p *Parser) parseExpression(rbp int) (*types.ASTNode, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.opts.MaxDepth > 0 && p.depth > p.opts.MaxDepth {
		return nil, p.error(fmt.Sprintf("expression nesting exceeds %d levels", p.opts.MaxDepth))
	}

	// Parse prefix expression (nud - null denotation)
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}

	// Parse infix expressions while precedence allows (led - left denotation)
	for rbp < p.getPrecedence(p.current) {
		left, err = p.parseInfix(left)
		if err != nil {
			return nil, err
		}
	}

	return left, nil
}

// parsePrefix parses a prefix expression: a signed operand or a path.
func (p *Parser) parsePrefix() (*types.ASTNode, error) {
	switch p.current.Type {
	case TokenMinus, TokenPlus:
		node := types.NewASTNode(types.NodeUnary, p.current.Position)
		node.StrValue = p.current.Value
		p.advance()
		operand, err := p.parseExpression(precUnary)
		if err != nil {
			return nil, err
		}
		node.LHS = operand
		return node, nil
	default:
		return p.parsePathExpr()
	}
}

// parseInfix parses an infix or postfix operator applied to left.
func (p *Parser) parseInfix(left *types.ASTNode) (*types.ASTNode, error) {
	token := p.current
	prec := p.getPrecedence(token)

	var (
		node *types.ASTNode
		err  error
	)
	switch {
	case token.Type == TokenPipe, token.is("union"):
		node, err = p.parseBinary(left, types.NodeSetOp, "union", prec)
	case token.is("intersect"), token.is("except"):
		node, err = p.parseBinary(left, types.NodeSetOp, token.Value, prec)
	case token.is("to"):
		node, err = p.parseBinary(left, types.NodeRange, "to", prec)
	case prec == precComparison:
		node, err = p.parseComparison(left)
	case token.is("instance"), token.is("treat"):
		node, err = p.parseSequenceTypeOp(left)
	case token.is("castable"), token.is("cast"):
		node, err = p.parseSingleTypeOp(left)
	default:
		node, err = p.parseBinary(left, types.NodeBinary, token.Value, prec)
	}
	if err != nil {
		return nil, err
	}

	switch node.Type {
	case types.NodeComparison, types.NodeRange,
		types.NodeInstanceOf, types.NodeTreatAs, types.NodeCastableAs, types.NodeCastAs:
		// These operators do not chain: "1 = 2 = 3" and
		// "$x cast as xs:int cast as xs:string" are syntax errors.
		if p.getPrecedence(p.current) >= prec {
			return nil, p.error(fmt.Sprintf("%q cannot follow a %s expression", p.current.Value, node.Type))
		}
	}
	return node, nil
}

// parseBinary parses the right operand of a left-associative binary operator.
func (p *Parser) parseBinary(left *types.ASTNode, nodeType types.NodeType, op string, prec int) (*types.ASTNode, error) {
	node := types.NewASTNode(nodeType, p.current.Position)
	node.StrValue = op
	p.advance()

	right, err := p.parseExpression(prec)
	if err != nil {
		return nil, err
	}

	node.LHS = left
	node.RHS = right
	return node, nil
}

// parseComparison parses a general, value or node comparison.
func (p *Parser) parseComparison(left *types.ASTNode) (*types.ASTNode, error) {
	node, err := p.parseBinary(left, types.NodeComparison, p.current.Value, precComparison)
	if err != nil {
		return nil, err
	}
	switch node.StrValue {
	case "=", "!=", "<", "<=", ">", ">=":
		node.CompKind = types.CompGeneral
	case "is", "<<", ">>":
		node.CompKind = types.CompNode
	default:
		node.CompKind = types.CompValue
	}
	return node, nil
}

// parseSequenceTypeOp parses "instance of SequenceType" and "treat as SequenceType".
func (p *Parser) parseSequenceTypeOp(left *types.ASTNode) (*types.ASTNode, error) {
	nodeType, second := types.NodeInstanceOf, "of"
	if p.current.Value == "treat" {
		nodeType, second = types.NodeTreatAs, "as"
	}
	node := types.NewASTNode(nodeType, p.current.Position)
	p.advance()
	if err := p.expectKeyword(second); err != nil {
		return nil, err
	}

	st, err := p.parseSequenceType()
	if err != nil {
		return nil, err
	}
	node.LHS = left
	node.SeqType = st
	return node, nil
}

// parseSingleTypeOp parses "cast as SingleType" and "castable as SingleType".
func (p *Parser) parseSingleTypeOp(left *types.ASTNode) (*types.ASTNode, error) {
	nodeType := types.NodeCastAs
	if p.current.Value == "castable" {
		nodeType = types.NodeCastableAs
	}
	node := types.NewASTNode(nodeType, p.current.Position)
	p.advance()
	if err := p.expectKeyword("as"); err != nil {
		return nil, err
	}

	if p.current.Type != TokenName {
		return nil, p.error("expected an atomic type name but got " + p.describe())
	}
	st := &types.SingleTypeLit{Atomic: splitQName(p.current.Value)}
	p.advance()
	if p.current.Type == TokenQuestion {
		st.Optional = true
		p.advance()
	}

	node.LHS = left
	node.SingleType = st
	return node, nil
}

// parseFor parses "for $x in E (, $y in E)* return E".
func (p *Parser) parseFor() (*types.ASTNode, error) {
	node := types.NewASTNode(types.NodeFor, p.current.Position)
	p.advance() // Skip 'for'

	bindings, err := p.parseBindings()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("return"); err != nil {
		return nil, err
	}
	ret, err := p.parseExprSingle()
	if err != nil {
		return nil, err
	}

	node.Bindings = bindings
	node.RHS = ret
	return node, nil
}

// parseQuantified parses "some|every $x in E (, $y in E)* satisfies E".
func (p *Parser) parseQuantified() (*types.ASTNode, error) {
	node := types.NewASTNode(types.NodeQuantified, p.current.Position)
	node.Quantifier = p.current.Value
	p.advance()

	bindings, err := p.parseBindings()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("satisfies"); err != nil {
		return nil, err
	}
	test, err := p.parseExprSingle()
	if err != nil {
		return nil, err
	}

	node.Bindings = bindings
	node.RHS = test
	return node, nil
}

// parseBindings parses the "$x in E" clauses shared by for and quantified
// expressions.
func (p *Parser) parseBindings() ([]types.Binding, error) {
	var bindings []types.Binding
	for {
		if p.current.Type != TokenVariable {
			return nil, p.error("expected a variable binding but got " + p.describe())
		}
		name := splitQName(p.current.Value)
		p.advance()
		if err := p.expectKeyword("in"); err != nil {
			return nil, err
		}
		in, err := p.parseExprSingle()
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, types.Binding{Var: name, In: in})

		if p.current.Type != TokenComma {
			return bindings, nil
		}
		p.advance()
	}
}

// parseIf parses "if (E) then E else E". The else branch is mandatory.
func (p *Parser) parseIf() (*types.ASTNode, error) {
	node := types.NewASTNode(types.NodeIf, p.current.Position)
	p.advance() // Skip 'if'

	if err := p.expect(TokenParenOpen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenParenClose); err != nil {
		return nil, err
	}

	if err := p.expectKeyword("then"); err != nil {
		return nil, err
	}
	then, err := p.parseExprSingle()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("else"); err != nil {
		return nil, err
	}
	els, err := p.parseExprSingle()
	if err != nil {
		return nil, err
	}

	node.LHS = cond
	node.RHS = then
	node.Else = els
	return node, nil
}

// parsePathExpr parses a path expression:
//
//	PathExpr ::= ("/" RelativePathExpr?) | ("//" RelativePathExpr) | RelativePathExpr
//
// A relative path consisting of a single filter expression is returned
// unwrapped.
func (p *Parser) parsePathExpr() (*types.ASTNode, error) {
	pos := p.current.Position
	path := types.NewASTNode(types.NodePath, pos)

	switch p.current.Type {
	case TokenSlash:
		p.advance()
		path.Start = types.PathRoot
		if !p.startsStep() {
			return path, nil
		}
	case TokenSlashSlash:
		p.advance()
		path.Start = types.PathRootDescendant
		path.Steps = append(path.Steps, descendantOrSelfStep(pos))
	}

	steps, err := p.parseRelativePath()
	if err != nil {
		return nil, err
	}
	if path.Start == types.PathRelative && len(steps) == 1 && steps[0].Type != types.NodeStep {
		return steps[0], nil
	}
	path.Steps = append(path.Steps, steps...)
	return path, nil
}

// parseRelativePath parses StepExpr (("/" | "//") StepExpr)*.
func (p *Parser) parseRelativePath() ([]*types.ASTNode, error) {
	step, err := p.parseStepExpr()
	if err != nil {
		return nil, err
	}
	steps := []*types.ASTNode{step}

	for p.current.Type == TokenSlash || p.current.Type == TokenSlashSlash {
		if p.current.Type == TokenSlashSlash {
			steps = append(steps, descendantOrSelfStep(p.current.Position))
		}
		p.advance()
		step, err := p.parseStepExpr()
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// startsStep reports whether the current token can begin a relative path,
// which decides whether a leading "/" stands alone.
func (p *Parser) startsStep() bool {
	switch p.current.Type {
	case TokenName, TokenWildcard, TokenStar, TokenAt, TokenDot, TokenDotDot,
		TokenParenOpen, TokenVariable, TokenString, TokenInteger, TokenDecimal, TokenDouble:
		return true
	}
	return false
}

// parseStepExpr parses an axis step or a filter expression.
func (p *Parser) parseStepExpr() (*types.ASTNode, error) {
	pos := p.current.Position

	switch p.current.Type {
	case TokenAt:
		p.advance()
		return p.parseAxisStep(pos, types.AxisAttribute)
	case TokenDotDot:
		p.advance()
		step := types.NewASTNode(types.NodeStep, pos)
		step.Axis = types.AxisParent
		step.Test = &types.NodeTestLit{Kind: types.TestAnyKind}
		return p.parsePredicates(step)
	case TokenStar, TokenWildcard:
		return p.parseAxisStep(pos, types.AxisChild)
	case TokenName:
		next := p.peek().Type
		switch {
		case next == TokenColonColon:
			axis, ok := types.LookupAxis(p.current.Value)
			if !ok {
				return nil, p.error(fmt.Sprintf("unknown axis %q", p.current.Value))
			}
			p.advance() // Skip axis name
			p.advance() // Skip '::'
			return p.parseAxisStep(pos, axis)
		case next == TokenParenOpen && kindTestNames[p.current.Value]:
			axis := types.AxisChild
			if p.current.Value == "attribute" || p.current.Value == "schema-attribute" {
				axis = types.AxisAttribute
			}
			return p.parseAxisStep(pos, axis)
		case next != TokenParenOpen:
			return p.parseAxisStep(pos, types.AxisChild)
		}
	}

	return p.parseFilterExpr()
}

// parseAxisStep parses the node test and predicates of a step on axis.
func (p *Parser) parseAxisStep(pos int, axis types.Axis) (*types.ASTNode, error) {
	test, err := p.parseNodeTest()
	if err != nil {
		return nil, err
	}
	step := types.NewASTNode(types.NodeStep, pos)
	step.Axis = axis
	step.Test = test
	return p.parsePredicates(step)
}

// parseNodeTest parses a name test or a kind test.
func (p *Parser) parseNodeTest() (*types.NodeTestLit, error) {
	switch p.current.Type {
	case TokenStar:
		p.advance()
		return &types.NodeTestLit{Kind: types.TestAnyName}, nil
	case TokenWildcard:
		value := p.current.Value
		p.advance()
		if local, ok := strings.CutPrefix(value, "*:"); ok {
			return &types.NodeTestLit{Kind: types.TestLocalWildcard, Name: types.QNameLit{Local: local}}, nil
		}
		prefix := strings.TrimSuffix(value, ":*")
		return &types.NodeTestLit{Kind: types.TestNSWildcard, Name: types.QNameLit{Prefix: prefix}}, nil
	case TokenName:
		if kindTestNames[p.current.Value] && p.peek().Type == TokenParenOpen {
			return p.parseKindTest()
		}
		test := &types.NodeTestLit{Kind: types.TestName, Name: splitQName(p.current.Value), HasName: true}
		p.advance()
		return test, nil
	}
	return nil, p.error("expected a node test but got " + p.describe())
}

// parseKindTest parses node(), text(), comment(), processing-instruction(),
// document-node(), element(), attribute(), schema-element() and
// schema-attribute(). The current token is the test name.
func (p *Parser) parseKindTest() (*types.NodeTestLit, error) {
	name := p.current.Value
	p.advance()
	if err := p.expect(TokenParenOpen); err != nil {
		return nil, err
	}

	test := &types.NodeTestLit{}
	switch name {
	case "node":
		test.Kind = types.TestAnyKind
	case "text":
		test.Kind = types.TestText
	case "comment":
		test.Kind = types.TestComment
	case "processing-instruction":
		test.Kind = types.TestPI
		switch p.current.Type {
		case TokenName:
			if strings.Contains(p.current.Value, ":") {
				return nil, p.error("processing-instruction target must be an NCName")
			}
			test.Target = p.current.Value
			p.advance()
		case TokenString:
			test.Target = strings.Join(strings.Fields(p.current.Value), " ")
			p.advance()
		}
	case "document-node":
		test.Kind = types.TestDocument
		if p.current.is("element") || p.current.is("schema-element") {
			inner, err := p.parseKindTest()
			if err != nil {
				return nil, err
			}
			test.Inner = inner
		}
	case "element", "attribute":
		test.Kind = types.TestElement
		if name == "attribute" {
			test.Kind = types.TestAttribute
		}
		if err := p.parseKindTestName(test); err != nil {
			return nil, err
		}
	case "schema-element", "schema-attribute":
		test.Kind = types.TestSchemaElement
		if name == "schema-attribute" {
			test.Kind = types.TestSchemaAttribute
		}
		if p.current.Type != TokenName {
			return nil, p.error(name + "() requires a name")
		}
		test.Name = splitQName(p.current.Value)
		test.HasName = true
		p.advance()
	}

	if err := p.expect(TokenParenClose); err != nil {
		return nil, err
	}
	return test, nil
}

// parseKindTestName parses the optional "(name|*) (, TypeName ?)?" part of
// element() and attribute().
func (p *Parser) parseKindTestName(test *types.NodeTestLit) error {
	switch p.current.Type {
	case TokenStar:
		test.Wildcard = true
	case TokenName:
		test.Name = splitQName(p.current.Value)
		test.HasName = true
	default:
		return nil
	}
	p.advance()

	if p.current.Type != TokenComma {
		return nil
	}
	p.advance()
	if p.current.Type != TokenName {
		return p.error("expected a type name but got " + p.describe())
	}
	typeName := splitQName(p.current.Value)
	test.TypeName = &typeName
	p.advance()
	if test.Kind == types.TestElement && p.current.Type == TokenQuestion {
		test.Nillable = true
		p.advance()
	}
	return nil
}

// parseSequenceType parses empty-sequence() or ItemType OccurrenceIndicator?.
func (p *Parser) parseSequenceType() (*types.SequenceTypeLit, error) {
	if p.current.is("empty-sequence") && p.peek().Type == TokenParenOpen {
		p.advance()
		p.advance()
		if err := p.expect(TokenParenClose); err != nil {
			return nil, err
		}
		return &types.SequenceTypeLit{Empty: true}, nil
	}

	item, err := p.parseItemType()
	if err != nil {
		return nil, err
	}
	st := &types.SequenceTypeLit{Item: item}

	switch p.current.Type {
	case TokenQuestion:
		st.Occurrence = types.OccurZeroOrOne
	case TokenStar:
		st.Occurrence = types.OccurZeroOrMore
	case TokenPlus:
		st.Occurrence = types.OccurOneOrMore
	default:
		return st, nil
	}
	p.advance()
	return st, nil
}

// parseItemType parses item(), a kind test or an atomic type name.
func (p *Parser) parseItemType() (types.ItemTypeLit, error) {
	if p.current.Type != TokenName {
		return types.ItemTypeLit{}, p.error("expected an item type but got " + p.describe())
	}

	if p.peek().Type == TokenParenOpen {
		switch {
		case p.current.Value == "item":
			p.advance()
			p.advance()
			if err := p.expect(TokenParenClose); err != nil {
				return types.ItemTypeLit{}, err
			}
			return types.ItemTypeLit{Kind: types.ItemAny}, nil
		case kindTestNames[p.current.Value]:
			test, err := p.parseKindTest()
			if err != nil {
				return types.ItemTypeLit{}, err
			}
			return types.ItemTypeLit{Kind: types.ItemKind, Test: test}, nil
		}
		return types.ItemTypeLit{}, p.error(fmt.Sprintf("unknown item type %s()", p.current.Value))
	}

	item := types.ItemTypeLit{Kind: types.ItemAtomic, Atomic: splitQName(p.current.Value)}
	p.advance()
	return item, nil
}

// parseFilterExpr parses a primary expression followed by predicates.
func (p *Parser) parseFilterExpr() (*types.ASTNode, error) {
	pos := p.current.Position
	primary, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.current.Type != TokenBracketOpen {
		return primary, nil
	}

	node := types.NewASTNode(types.NodeFilter, pos)
	node.LHS = primary
	return p.parsePredicates(node)
}

// parsePredicates parses zero or more [Expr] predicates onto node.
func (p *Parser) parsePredicates(node *types.ASTNode) (*types.ASTNode, error) {
	for p.current.Type == TokenBracketOpen {
		p.advance()
		pred, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenBracketClose); err != nil {
			return nil, err
		}
		node.Predicates = append(node.Predicates, pred)
	}
	return node, nil
}

// parsePrimary parses literals, variables, parenthesized expressions, the
// context item and function calls.
func (p *Parser) parsePrimary() (*types.ASTNode, error) {
	token := p.current

	switch token.Type {
	case TokenString:
		return p.parseLiteral(types.NodeString)
	case TokenInteger:
		return p.parseLiteral(types.NodeInteger)
	case TokenDecimal:
		return p.parseLiteral(types.NodeDecimal)
	case TokenDouble:
		return p.parseLiteral(types.NodeDouble)
	case TokenVariable:
		node := types.NewASTNode(types.NodeVariable, token.Position)
		node.Name = splitQName(token.Value)
		p.advance()
		return node, nil
	case TokenDot:
		node := types.NewASTNode(types.NodeContextItem, token.Position)
		p.advance()
		return node, nil
	case TokenParenOpen:
		return p.parseGrouping()
	case TokenName:
		if p.peek().Type == TokenParenOpen {
			return p.parseFunctionCall()
		}
	case TokenEOF:
		return nil, p.error("unexpected end of expression")
	}
	return nil, p.error("unexpected token " + p.describe())
}

// parseLiteral parses a string or numeric literal, keeping its lexical form.
func (p *Parser) parseLiteral(nodeType types.NodeType) (*types.ASTNode, error) {
	node := types.NewASTNode(nodeType, p.current.Position)
	node.StrValue = p.current.Value
	p.advance()
	return node, nil
}

// parseGrouping parses "()" or "(Expr)".
func (p *Parser) parseGrouping() (*types.ASTNode, error) {
	pos := p.current.Position
	p.advance() // Skip '('

	if p.current.Type == TokenParenClose {
		p.advance()
		return types.NewASTNode(types.NodeSequence, pos), nil
	}

	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenParenClose); err != nil {
		return nil, err
	}
	return expr, nil
}

// parseFunctionCall parses name(args). Unprefixed names that introduce
// other syntax (if, item, node, ...) cannot be called.
func (p *Parser) parseFunctionCall() (*types.ASTNode, error) {
	if reservedFunctionNames[p.current.Value] {
		return nil, p.error(fmt.Sprintf("%q is a reserved name and cannot be used as a function", p.current.Value))
	}
	node := types.NewASTNode(types.NodeFunction, p.current.Position)
	node.Name = splitQName(p.current.Value)
	p.advance() // Skip name
	p.advance() // Skip '('

	if p.current.Type == TokenParenClose {
		p.advance()
		return node, nil
	}
	for {
		arg, err := p.parseExprSingle()
		if err != nil {
			return nil, err
		}
		node.Arguments = append(node.Arguments, arg)
		if p.current.Type != TokenComma {
			break
		}
		p.advance()
	}
	if err := p.expect(TokenParenClose); err != nil {
		return nil, err
	}
	return node, nil
}

// descendantOrSelfStep is the step "//" abbreviates.
func descendantOrSelfStep(pos int) *types.ASTNode {
	step := types.NewASTNode(types.NodeStep, pos)
	step.Axis = types.AxisDescendantOrSelf
	step.Test = &types.NodeTestLit{Kind: types.TestAnyKind}
	return step
}

// splitQName splits a lexical QName into prefix and local part.
func splitQName(s string) types.QNameLit {
	if prefix, local, ok := strings.Cut(s, ":"); ok {
		return types.QNameLit{Prefix: prefix, Local: local}
	}
	return types.QNameLit{Local: s}
}

package parser

// Package parser implements the XPath 2.0 parser.
//
// The parser is hand-written: a Rob Pike style lexer feeds a recursive
// descent parser that uses Pratt's algorithm for binary operators. Every
// syntax error is reported as err:XPST0003 with the byte offset of the
// offending token.
//
// # Architecture
//
// The parser consists of two components:
//   - Lexer: tokenizes the input expression, skipping (: nested :) comments
//   - Parser: builds an Abstract Syntax Tree (AST) from tokens
//
// Abbreviated syntax is expanded while parsing: "@x" becomes
// attribute::x, ".." becomes parent::node() and every "//" inserts an
// explicit descendant-or-self::node() step.
//
// # Example
//
//	expr, err := parser.Parse("//item[@id = 'a']/name")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ast := expr.AST()

import (
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
)

// Parse parses an XPath expression and returns the parsed Expression.
//
// If parsing fails, the returned error is a *types.Error with code
// XPST0003 and the position of the offending token.
func Parse(query string, opts ...CompileOption) (*types.Expression, error) {
	p := NewParser(query, opts...)
	return p.Parse()
}

// CompileOption configures parsing behavior.
type CompileOption func(*CompileOptions)

// CompileOptions holds parser configuration.
type CompileOptions struct {
	// MaxDepth limits expression nesting to prevent stack overflow.
	MaxDepth int
}

// WithMaxDepth sets the maximum parsing depth.
func WithMaxDepth(depth int) CompileOption {
	return func(opts *CompileOptions) {
		opts.MaxDepth = depth
	}
}

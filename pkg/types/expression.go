// Package types defines the syntax-level types shared by the parser and the
// compiler.
//
// This package contains type definitions for:
//   - Expression: a parsed XPath expression and its source text
//   - ASTNode: Abstract Syntax Tree nodes
//   - Axis and node tests
//   - Error types: structured errors carrying XPath error codes
package types

// Expression represents a parsed XPath expression.
//
// An Expression is immutable after parsing and can be compiled any number of
// times against different static contexts.
type Expression struct {
	ast    *ASTNode
	source string
}

// NewExpression creates a new Expression from an AST.
func NewExpression(ast *ASTNode, source string) *Expression {
	return &Expression{
		ast:    ast,
		source: source,
	}
}

// AST returns the Abstract Syntax Tree of the expression.
func (e *Expression) AST() *ASTNode {
	return e.ast
}

// Source returns the original source code of the expression.
func (e *Expression) Source() string {
	return e.source
}

// String returns a string representation of the expression.
func (e *Expression) String() string {
	return e.source
}

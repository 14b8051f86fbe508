package parser

import (
	"fmt"
	"strings"

	"github.com/razeghi71/dpipe/ast"
	"github.com/razeghi71/dpipe/lexer"
)

// parseOne lexes input, runs fn and requires fn to consume every token.
func parseOne[T any](input string, fn func(p *Parser) (T, error)) (T, error) {
	var zero T
	p, err := newParser(input)
	if err != nil {
		return zero, malformed(input, err)
	}
	v, err := fn(p)
	if err == nil {
		err = p.expectEOF()
	}
	if err != nil {
		return zero, malformed(input, err)
	}
	return v, nil
}

// ParseRename parses "old = new".
func ParseRename(input string) (ast.RenamePair, error) {
	return parseOne(input, (*Parser).parseRenamePair)
}

// ParseAggregation parses "target = fn()" or "target = fn(source)". The
// function name is not checked against any registry here.
func ParseAggregation(input string) (ast.Aggregation, error) {
	return parseOne(input, (*Parser).parseAggregation)
}

// ParseSortKey parses "column", "column asc" or "column desc".
func ParseSortKey(input string) (ast.SortKey, error) {
	return parseOne(input, func(p *Parser) (ast.SortKey, error) {
		key, err := p.parseSortKey()
		if err != nil {
			return key, err
		}
		if tok := p.peek(); tok.Type.IsName() {
			return key, fmt.Errorf("sort direction must be asc or desc, got %q", tok.Val)
		}
		return key, nil
	})
}

// ParseAssignment parses "column = <expr>".
func ParseAssignment(input string) (ast.Assignment, error) {
	return parseOne(input, (*Parser).parseAssignment)
}

// ParseExpr parses a standalone row expression such as "hp > 100 and am == 1".
func ParseExpr(input string) (ast.Expr, error) {
	return parseOne(input, (*Parser).parseExpr)
}

func (p *Parser) parseRenamePair() (ast.RenamePair, error) {
	old, err := p.expectName("old column name")
	if err != nil {
		return ast.RenamePair{}, err
	}
	if _, err := p.expect(lexer.TokenEquals); err != nil {
		return ast.RenamePair{}, fmt.Errorf("expected '=' after %q: %w", old, err)
	}
	newName, err := p.expectName("new column name")
	if err != nil {
		return ast.RenamePair{}, err
	}
	return ast.RenamePair{Old: old, New: newName}, nil
}

func (p *Parser) parseAggregation() (ast.Aggregation, error) {
	target, err := p.expectName("target column")
	if err != nil {
		return ast.Aggregation{}, err
	}
	if _, err := p.expect(lexer.TokenEquals); err != nil {
		return ast.Aggregation{}, fmt.Errorf("expected '=' after %q: %w", target, err)
	}
	fn, err := p.expect(lexer.TokenIdent)
	if err != nil {
		return ast.Aggregation{}, fmt.Errorf("expected aggregate function name: %w", err)
	}
	if _, err := p.expect(lexer.TokenLParen); err != nil {
		return ast.Aggregation{}, fmt.Errorf("expected '(' after %s: %w", fn.Val, err)
	}
	agg := ast.Aggregation{Target: target, Func: strings.ToLower(fn.Val), Source: target}
	if p.peek().Type.IsName() {
		agg.Source = p.name()
	}
	if _, err := p.expect(lexer.TokenRParen); err != nil {
		return ast.Aggregation{}, fmt.Errorf("in %s(): %w", fn.Val, err)
	}
	return agg, nil
}

func (p *Parser) parseSortKey() (ast.SortKey, error) {
	col, err := p.expectName("sort column")
	if err != nil {
		return ast.SortKey{}, err
	}
	key := ast.SortKey{Column: col}
	if tok := p.peek(); tok.Type == lexer.TokenIdent {
		switch strings.ToLower(tok.Val) {
		case "asc":
			p.advance()
		case "desc":
			p.advance()
			key.Desc = true
		}
	}
	return key, nil
}

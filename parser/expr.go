package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/razeghi71/dpipe/ast"
	"github.com/razeghi71/dpipe/lexer"
)

// Precedence levels
const (
	precOr    = 1
	precAnd   = 2
	precComp  = 3
	precAdd   = 4
	precMul   = 5
	precUnary = 6
)

var binaryOps = map[lexer.TokenType]struct {
	op   string
	prec int
}{
	lexer.TokenOr:      {"or", precOr},
	lexer.TokenAnd:     {"and", precAnd},
	lexer.TokenEq:      {"==", precComp},
	lexer.TokenNeq:     {"!=", precComp},
	lexer.TokenLt:      {"<", precComp},
	lexer.TokenGt:      {">", precComp},
	lexer.TokenLte:     {"<=", precComp},
	lexer.TokenGte:     {">=", precComp},
	lexer.TokenPlus:    {"+", precAdd},
	lexer.TokenMinus:   {"-", precAdd},
	lexer.TokenStar:    {"*", precMul},
	lexer.TokenSlash:   {"/", precMul},
	lexer.TokenPercent: {"%", precMul},
}

func (p *Parser) parseExpr() (ast.Expr, error) {
	return p.parseExprPrec(precOr)
}

func (p *Parser) parseExprPrec(minPrec int) (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		if p.peek().Type == lexer.TokenIs && precComp >= minPrec {
			left, err = p.parseIsNull(left)
			if err != nil {
				return nil, err
			}
			continue
		}

		bin, ok := binaryOps[p.peek().Type]
		if !ok || bin.prec < minPrec {
			break
		}
		p.advance()

		right, err := p.parseExprPrec(bin.prec + 1) // left-associative
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: bin.op, Left: left, Right: right}
	}

	return left, nil
}

// parseIsNull handles the postfix "is [not] null".
func (p *Parser) parseIsNull(operand ast.Expr) (ast.Expr, error) {
	p.advance() // consume "is"
	negated := false
	if p.peek().Type == lexer.TokenNot {
		p.advance()
		negated = true
	}
	if _, err := p.expect(lexer.TokenNull); err != nil {
		if negated {
			return nil, fmt.Errorf("expected 'null' after 'is not'")
		}
		return nil, fmt.Errorf("expected 'null' after 'is'")
	}
	return &ast.IsNullExpr{Operand: operand, Negated: negated}, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	switch p.peek().Type {
	case lexer.TokenNot:
		p.advance()
		operand, err := p.parseExprPrec(precComp)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: "not", Operand: operand}, nil
	case lexer.TokenMinus:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: "-", Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.peek()

	switch tok.Type {
	case lexer.TokenInt:
		p.advance()
		v, err := strconv.ParseInt(tok.Val, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q: %w", tok.Val, err)
		}
		return &ast.LiteralExpr{Kind: "int", Int: v}, nil

	case lexer.TokenFloat:
		p.advance()
		v, err := strconv.ParseFloat(tok.Val, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float %q: %w", tok.Val, err)
		}
		return &ast.LiteralExpr{Kind: "float", Float: v}, nil

	case lexer.TokenString:
		p.advance()
		return &ast.LiteralExpr{Kind: "string", Str: tok.Val}, nil

	case lexer.TokenTrue, lexer.TokenFalse:
		p.advance()
		return &ast.LiteralExpr{Kind: "bool", Bool: tok.Type == lexer.TokenTrue}, nil

	case lexer.TokenNull:
		p.advance()
		return &ast.LiteralExpr{Kind: "null"}, nil

	case lexer.TokenBacktickIdent:
		p.advance()
		return &ast.ColumnExpr{Name: tok.Val}, nil

	case lexer.TokenIdent:
		if p.peekAt(1).Type == lexer.TokenLParen {
			p.advance()
			return p.parseFuncCall(tok.Val)
		}
		return &ast.ColumnExpr{Name: p.name()}, nil

	case lexer.TokenLParen:
		p.advance() // consume (
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenRParen); err != nil {
			return nil, err
		}
		return expr, nil

	default:
		return nil, fmt.Errorf("unexpected token %s (%q) at position %d in expression", tok.Type, tok.Val, tok.Pos)
	}
}

func (p *Parser) parseFuncCall(name string) (ast.Expr, error) {
	p.advance() // consume (
	name = strings.ToLower(name)

	var args []ast.Expr
	if p.peek().Type != lexer.TokenRParen {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, fmt.Errorf("in function %s: %w", name, err)
			}
			args = append(args, arg)
			if p.peek().Type != lexer.TokenComma {
				break
			}
			p.advance() // consume comma
		}
	}

	if _, err := p.expect(lexer.TokenRParen); err != nil {
		return nil, fmt.Errorf("in function %s: %w", name, err)
	}

	return &ast.FuncCallExpr{Name: name, Args: args}, nil
}

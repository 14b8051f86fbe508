package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/razeghi71/dpipe/ast"
	"github.com/razeghi71/dpipe/lexer"
)

// ErrMalformedExpression is wrapped by every parse failure.
var ErrMalformedExpression = errors.New("malformed expression")

// Parser converts a token stream into an AST.
type Parser struct {
	tokens []lexer.Token
	pos    int
}

func newParser(input string) (*Parser, error) {
	tokens, err := lexer.Lex(input)
	if err != nil {
		return nil, fmt.Errorf("lex error: %w", err)
	}
	return &Parser{tokens: tokens}, nil
}

func malformed(input string, err error) error {
	return fmt.Errorf("%w %q: %v", ErrMalformedExpression, input, err)
}

// Parse parses a full pipeline string into a Query AST.
func Parse(input string) (*ast.Query, error) {
	p, err := newParser(input)
	if err != nil {
		return nil, malformed(input, err)
	}
	q, err := p.parseQuery()
	if err != nil {
		return nil, malformed(input, err)
	}
	return q, nil
}

func (p *Parser) peek() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Type: lexer.TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekAt(offset int) lexer.Token {
	if p.pos+offset >= len(p.tokens) {
		return lexer.Token{Type: lexer.TokenEOF}
	}
	return p.tokens[p.pos+offset]
}

func (p *Parser) advance() lexer.Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(tt lexer.TokenType) (lexer.Token, error) {
	tok := p.advance()
	if tok.Type != tt {
		return tok, fmt.Errorf("expected %s, got %s (%q) at position %d", tt, tok.Type, tok.Val, tok.Pos)
	}
	return tok, nil
}

func (p *Parser) expectName(what string) (string, error) {
	tok := p.peek()
	if !tok.Type.IsName() {
		p.advance()
		return "", fmt.Errorf("expected %s, got %s (%q) at position %d", what, tok.Type, tok.Val, tok.Pos)
	}
	return p.name(), nil
}

// name consumes a column name. Plain identifiers joined by dots, as in
// Sepal.Length, form a single name.
func (p *Parser) name() string {
	tok := p.advance()
	if tok.Type != lexer.TokenIdent {
		return tok.Val
	}
	var b strings.Builder
	b.WriteString(tok.Val)
	for p.peek().Type == lexer.TokenDot && p.peekAt(1).Type == lexer.TokenIdent {
		p.advance()
		b.WriteByte('.')
		b.WriteString(p.advance().Val)
	}
	return b.String()
}

func (p *Parser) expectEOF() error {
	if tok := p.peek(); tok.Type != lexer.TokenEOF {
		return fmt.Errorf("unexpected token %s (%q) at position %d", tok.Type, tok.Val, tok.Pos)
	}
	return nil
}

// skipComma consumes an optional separating comma.
func (p *Parser) skipComma() {
	if p.peek().Type == lexer.TokenComma {
		p.advance()
	}
}

func (p *Parser) parseQuery() (*ast.Query, error) {
	source, err := p.parseSource()
	if err != nil {
		return nil, err
	}

	var ops []ast.Op
	for p.peek().Type == lexer.TokenPipe {
		p.advance() // consume |
		op, err := p.parseOp()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}

	if err := p.expectEOF(); err != nil {
		return nil, err
	}
	return &ast.Query{Source: source, Ops: ops}, nil
}

func (p *Parser) parseSource() (ast.Source, error) {
	// A path like "data/cars.csv" tokenizes as IDENT SLASH IDENT DOT IDENT;
	// a quoted string is taken as is.
	tok := p.advance()
	if tok.Type == lexer.TokenString {
		return ast.Source{Filename: tok.Val}, nil
	}
	if !tok.Type.IsName() && tok.Type != lexer.TokenDot {
		return ast.Source{}, fmt.Errorf("expected filename, got %s (%q) at position %d", tok.Type, tok.Val, tok.Pos)
	}

	filename := tok.Val
	for p.peek().Type == lexer.TokenDot || p.peek().Type == lexer.TokenSlash {
		sep := p.advance()
		next := p.peek()
		switch next.Type {
		case lexer.TokenIdent, lexer.TokenInt:
			p.advance()
			filename += sep.Val + next.Val
		case lexer.TokenDot, lexer.TokenSlash:
			filename += sep.Val
		default:
			return ast.Source{}, fmt.Errorf("expected path component after %q, got %s at position %d", sep.Val, next.Type, next.Pos)
		}
	}

	return ast.Source{Filename: filename}, nil
}

func (p *Parser) parseOp() (ast.Op, error) {
	tok := p.peek()
	if tok.Type != lexer.TokenIdent {
		return nil, fmt.Errorf("expected verb, got %s (%q) at position %d", tok.Type, tok.Val, tok.Pos)
	}
	p.advance() // consume verb

	var (
		op  ast.Op
		err error
	)
	switch tok.Val {
	case "rename":
		op, err = p.parseRename()
	case "mutate":
		op, err = p.parseMutate()
	case "filter":
		op, err = p.parseFilter()
	case "select":
		op, err = p.parseSelect()
	case "group_by":
		op, err = p.parseGroupBy()
	case "ungroup":
		op = &ast.UngroupOp{}
	case "summarize", "summarise":
		op, err = p.parseSummarize()
	case "arrange":
		op, err = p.parseArrange()
	case "distinct":
		op = p.parseDistinct()
	case "left_join":
		op, err = p.parseJoin(ast.LeftJoin)
	case "inner_join":
		op, err = p.parseJoin(ast.InnerJoin)
	case "anti_join":
		op, err = p.parseJoin(ast.AntiJoin)
	case "head":
		op, err = p.parseHead()
	case "tail":
		op, err = p.parseTail()
	default:
		return nil, fmt.Errorf("unknown verb %q at position %d", tok.Val, tok.Pos)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", tok.Val, err)
	}
	return op, nil
}

func (p *Parser) parseRename() (ast.Op, error) {
	var pairs []ast.RenamePair
	for p.peek().Type.IsName() {
		pair, err := p.parseRenamePair()
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair)
		p.skipComma()
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("expected at least one old = new pair")
	}
	return &ast.RenameOp{Pairs: pairs}, nil
}

func (p *Parser) parseMutate() (ast.Op, error) {
	assignments, err := p.parseAssignments()
	if err != nil {
		return nil, err
	}
	return &ast.MutateOp{Assignments: assignments}, nil
}

func (p *Parser) parseFilter() (ast.Op, error) {
	if _, err := p.expect(lexer.TokenLBrace); err != nil {
		return nil, err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenRBrace); err != nil {
		return nil, err
	}
	return &ast.FilterOp{Expr: expr}, nil
}

func (p *Parser) parseSelect() (ast.Op, error) {
	cols := p.parseColumnList()
	if len(cols) == 0 {
		return nil, fmt.Errorf("expected at least one column")
	}
	return &ast.SelectOp{Columns: cols}, nil
}

func (p *Parser) parseGroupBy() (ast.Op, error) {
	cols := p.parseColumnList()
	if len(cols) == 0 {
		return nil, fmt.Errorf("expected at least one column")
	}
	return &ast.GroupByOp{Columns: cols}, nil
}

func (p *Parser) parseSummarize() (ast.Op, error) {
	var aggs []ast.Aggregation
	for p.peek().Type.IsName() {
		agg, err := p.parseAggregation()
		if err != nil {
			return nil, err
		}
		aggs = append(aggs, agg)
		p.skipComma()
	}
	if len(aggs) == 0 {
		return nil, fmt.Errorf("expected at least one target = fn() aggregation")
	}
	return &ast.SummarizeOp{Aggregations: aggs}, nil
}

func (p *Parser) parseArrange() (ast.Op, error) {
	var keys []ast.SortKey
	for p.peek().Type.IsName() {
		key, err := p.parseSortKey()
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
		p.skipComma()
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("expected at least one sort key")
	}
	return &ast.ArrangeOp{Keys: keys}, nil
}

// parseDistinct reads "distinct [cols...] [keep_all]".
func (p *Parser) parseDistinct() ast.Op {
	op := &ast.DistinctOp{Columns: p.parseColumnList()}
	if n := len(op.Columns); n > 0 && op.Columns[n-1] == "keep_all" {
		op.Columns = op.Columns[:n-1]
		op.KeepAll = true
	}
	return op
}

func (p *Parser) parseJoin(kind ast.JoinKind) (ast.Op, error) {
	right, err := p.parseSource()
	if err != nil {
		return nil, err
	}
	op := &ast.JoinOp{Kind: kind, Right: right}
	if tok := p.peek(); tok.Type == lexer.TokenIdent && tok.Val == "by" {
		p.advance()
		op.By = p.parseColumnList()
		if len(op.By) == 0 {
			return nil, fmt.Errorf("expected at least one column after 'by'")
		}
	}
	return op, nil
}

func (p *Parser) parseHead() (ast.Op, error) {
	n, err := p.parseInt()
	if err != nil {
		return nil, err
	}
	return &ast.HeadOp{N: n}, nil
}

func (p *Parser) parseTail() (ast.Op, error) {
	n, err := p.parseInt()
	if err != nil {
		return nil, err
	}
	return &ast.TailOp{N: n}, nil
}

// --- Helpers ---

func (p *Parser) parseInt() (int, error) {
	tok := p.advance()
	if tok.Type != lexer.TokenInt {
		return 0, fmt.Errorf("expected integer, got %s (%q) at position %d", tok.Type, tok.Val, tok.Pos)
	}
	n, err := strconv.Atoi(tok.Val)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q: %w", tok.Val, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("expected a non-negative count, got %d", n)
	}
	return n, nil
}

// parseColumnList reads names, optionally comma separated, until it hits
// something that isn't a column name.
func (p *Parser) parseColumnList() []string {
	var cols []string
	for p.peek().Type.IsName() {
		cols = append(cols, p.name())
		p.skipComma()
	}
	return cols
}

// parseAssignments parses comma-separated "col = expr" assignments.
func (p *Parser) parseAssignments() ([]ast.Assignment, error) {
	var assignments []ast.Assignment

	for {
		a, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)

		if p.peek().Type != lexer.TokenComma {
			break
		}
		p.advance() // consume comma
	}

	return assignments, nil
}

func (p *Parser) parseAssignment() (ast.Assignment, error) {
	col, err := p.expectName("column name in assignment")
	if err != nil {
		return ast.Assignment{}, err
	}
	if _, err := p.expect(lexer.TokenEquals); err != nil {
		return ast.Assignment{}, fmt.Errorf("expected '=' after column %q: %w", col, err)
	}
	expr, err := p.parseExpr()
	if err != nil {
		return ast.Assignment{}, fmt.Errorf("in assignment for %q: %w", col, err)
	}
	return ast.Assignment{Column: col, Expr: expr}, nil
}

package lexer

import (
	"fmt"
	"unicode"
)

// TokenType represents the type of a lexical token.
type TokenType int

const (
	// Structural
	TokenPipe   TokenType = iota // |
	TokenLBrace                  // {
	TokenRBrace                  // }
	TokenLParen                  // (
	TokenRParen                  // )
	TokenComma                   // ,
	TokenEquals                  // = (assignment)
	TokenDot                     // .

	// Operators
	TokenPlus    // +
	TokenMinus   // -
	TokenStar    // *
	TokenSlash   // /
	TokenPercent // %
	TokenEq      // ==
	TokenNeq     // !=
	TokenLt      // <
	TokenGt      // >
	TokenLte     // <=
	TokenGte     // >=

	// Keywords / logical
	TokenAnd   // and
	TokenOr    // or
	TokenNot   // not
	TokenIs    // is
	TokenTrue  // true
	TokenFalse // false
	TokenNull  // null

	// Literals
	TokenInt    // integer literal
	TokenFloat  // float literal
	TokenString // "string literal" or 'string literal'

	// Identifiers
	TokenIdent         // plain identifier (column name, verb name)
	TokenBacktickIdent // `identifier with spaces`

	// End
	TokenEOF
)

var tokenNames = map[TokenType]string{
	TokenPipe: "|", TokenLBrace: "{", TokenRBrace: "}", TokenLParen: "(", TokenRParen: ")",
	TokenComma: ",", TokenEquals: "=", TokenDot: ".",
	TokenPlus: "+", TokenMinus: "-", TokenStar: "*", TokenSlash: "/", TokenPercent: "%",
	TokenEq: "==", TokenNeq: "!=", TokenLt: "<", TokenGt: ">", TokenLte: "<=", TokenGte: ">=",
	TokenAnd: "and", TokenOr: "or", TokenNot: "not", TokenIs: "is",
	TokenTrue: "true", TokenFalse: "false", TokenNull: "null",
	TokenInt: "INT", TokenFloat: "FLOAT", TokenString: "STRING",
	TokenIdent: "IDENT", TokenBacktickIdent: "BACKTICK_IDENT", TokenEOF: "EOF",
}

func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Token(%d)", int(t))
}

// IsName reports whether the token can name a column.
func (t TokenType) IsName() bool {
	return t == TokenIdent || t == TokenBacktickIdent
}

// Token represents a single lexical token.
type Token struct {
	Type TokenType
	Val  string
	Pos  int // rune offset in original input
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d", t.Type, t.Val, t.Pos)
}

var keywords = map[string]TokenType{
	"and":   TokenAnd,
	"or":    TokenOr,
	"not":   TokenNot,
	"is":    TokenIs,
	"true":  TokenTrue,
	"false": TokenFalse,
	"null":  TokenNull,
	"True":  TokenTrue,
	"False": TokenFalse,
	"None":  TokenNull,
}

// single-rune tokens that never start a longer token.
var simple = map[rune]TokenType{
	'|': TokenPipe,
	'{': TokenLBrace,
	'}': TokenRBrace,
	'(': TokenLParen,
	')': TokenRParen,
	',': TokenComma,
	'.': TokenDot,
	'+': TokenPlus,
	'*': TokenStar,
	'%': TokenPercent,
}

// two-rune tokens keyed by their first rune; the second rune is always '='.
var withEquals = map[rune][2]TokenType{
	'=': {TokenEquals, TokenEq},
	'<': {TokenLt, TokenLte},
	'>': {TokenGt, TokenGte},
}

type scanner struct {
	runes  []rune
	pos    int
	tokens []Token
}

func (s *scanner) peekAt(off int) (rune, bool) {
	if s.pos+off < len(s.runes) {
		return s.runes[s.pos+off], true
	}
	return 0, false
}

func (s *scanner) emit(tt TokenType, val string, pos int) {
	s.tokens = append(s.tokens, Token{tt, val, pos})
}

// Lex tokenizes the input string into a slice of Tokens.
func Lex(input string) ([]Token, error) {
	s := &scanner{runes: []rune(input)}

	for s.pos < len(s.runes) {
		ch := s.runes[s.pos]
		pos := s.pos

		if unicode.IsSpace(ch) {
			s.pos++
			continue
		}

		if tt, ok := simple[ch]; ok {
			s.emit(tt, string(ch), pos)
			s.pos++
			continue
		}

		if pair, ok := withEquals[ch]; ok {
			if next, ok := s.peekAt(1); ok && next == '=' {
				s.emit(pair[1], string(ch)+"=", pos)
				s.pos += 2
			} else {
				s.emit(pair[0], string(ch), pos)
				s.pos++
			}
			continue
		}

		switch {
		case ch == '!':
			if next, ok := s.peekAt(1); ok && next == '=' {
				s.emit(TokenNeq, "!=", pos)
				s.pos += 2
				continue
			}
			return nil, fmt.Errorf("unexpected character '!' at position %d (did you mean '!='?)", pos)

		case ch == '-':
			// negative literal only where an operand is expected
			if next, ok := s.peekAt(1); ok && unicode.IsDigit(next) && s.negativeContext() {
				s.lexNumber()
				continue
			}
			s.emit(TokenMinus, "-", pos)
			s.pos++

		case ch == '/':
			if next, ok := s.peekAt(1); ok && next == '/' {
				for s.pos < len(s.runes) && s.runes[s.pos] != '\n' {
					s.pos++
				}
				continue
			}
			s.emit(TokenSlash, "/", pos)
			s.pos++

		case ch == '"' || ch == '\'':
			if err := s.lexString(ch); err != nil {
				return nil, err
			}

		case ch == '`':
			if err := s.lexBacktick(); err != nil {
				return nil, err
			}

		case unicode.IsDigit(ch):
			s.lexNumber()

		case isIdentStart(ch):
			s.lexIdent()

		default:
			return nil, fmt.Errorf("unexpected character %q at position %d", ch, pos)
		}
	}

	s.emit(TokenEOF, "", len(s.runes))
	return s.tokens, nil
}

func (s *scanner) negativeContext() bool {
	if len(s.tokens) == 0 {
		return true
	}
	switch s.tokens[len(s.tokens)-1].Type {
	case TokenLParen, TokenComma, TokenEquals, TokenPipe, TokenLBrace,
		TokenPlus, TokenMinus, TokenStar, TokenSlash, TokenPercent,
		TokenEq, TokenNeq, TokenLt, TokenGt, TokenLte, TokenGte,
		TokenAnd, TokenOr, TokenNot:
		return true
	}
	return false
}

func (s *scanner) lexString(quote rune) error {
	start := s.pos
	s.pos++
	var sb []rune
	for s.pos < len(s.runes) {
		ch := s.runes[s.pos]
		if ch == '\\' && s.pos+1 < len(s.runes) {
			switch esc := s.runes[s.pos+1]; esc {
			case '"', '\'', '\\':
				sb = append(sb, esc)
			case 'n':
				sb = append(sb, '\n')
			case 't':
				sb = append(sb, '\t')
			default:
				sb = append(sb, '\\', esc)
			}
			s.pos += 2
			continue
		}
		if ch == quote {
			s.pos++
			s.emit(TokenString, string(sb), start)
			return nil
		}
		sb = append(sb, ch)
		s.pos++
	}
	return fmt.Errorf("unterminated string starting at position %d", start)
}

func (s *scanner) lexBacktick() error {
	start := s.pos
	s.pos++
	for i := s.pos; i < len(s.runes); i++ {
		if s.runes[i] == '`' {
			s.emit(TokenBacktickIdent, string(s.runes[s.pos:i]), start)
			s.pos = i + 1
			return nil
		}
	}
	return fmt.Errorf("unterminated backtick identifier starting at position %d", start)
}

func (s *scanner) lexNumber() {
	start := s.pos
	isFloat := false

	if s.runes[s.pos] == '-' {
		s.pos++
	}
	s.skipDigits()

	// "1.5" is a float, "data1.csv" style path parts are not
	if next, ok := s.peekAt(1); ok && s.runes[s.pos] == '.' && unicode.IsDigit(next) {
		isFloat = true
		s.pos++
		s.skipDigits()
	}

	val := string(s.runes[start:s.pos])
	if isFloat {
		s.emit(TokenFloat, val, start)
		return
	}
	s.emit(TokenInt, val, start)
}

func (s *scanner) skipDigits() {
	for s.pos < len(s.runes) && unicode.IsDigit(s.runes[s.pos]) {
		s.pos++
	}
}

func (s *scanner) lexIdent() {
	start := s.pos
	for s.pos < len(s.runes) && isIdentPart(s.runes[s.pos]) {
		s.pos++
	}
	val := string(s.runes[start:s.pos])

	if tt, ok := keywords[val]; ok {
		s.emit(tt, val, start)
		return
	}
	s.emit(TokenIdent, val, start)
}

func isIdentStart(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '_'
}

func isIdentPart(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}

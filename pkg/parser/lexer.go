package parser

import (
	"fmt"
	"strings"

	"github.com/l3aro/microc-analysis/pkg/syntax"
)

type tokenType int

const (
	tEOF tokenType = iota
	tIdent
	tNumber
	tSymbol
)

type token struct {
	typ  tokenType
	text string
	pos  syntax.Pos
}

func (t token) String() string {
	switch t.typ {
	case tEOF:
		return "end of input"
	case tNumber, tIdent:
		return t.text
	default:
		return fmt.Sprintf("%q", t.text)
	}
}

// symbols are matched longest first.
var symbols = []string{
	":=", "<=", ">=", "==", "!=",
	";", ",", "{", "}", "[", "]", "(", ")", ".",
	"+", "-", "*", "/", "%", "<", ">", "&", "|",
}

func lex(src string) ([]token, error) {
	var toks []token
	line, col := 1, 1
	advance := func(n int) {
		for _, r := range src[:n] {
			if r == '\n' {
				line++
				col = 1
			} else {
				col++
			}
		}
		src = src[n:]
	}

	for len(src) > 0 {
		c := src[0]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			advance(1)
			continue
		case strings.HasPrefix(src, "//"):
			end := strings.IndexByte(src, '\n')
			if end < 0 {
				end = len(src)
			}
			advance(end)
			continue
		}

		pos := syntax.Pos{Line: line, Col: col}
		switch {
		case isDigit(c):
			n := 1
			for n < len(src) && isDigit(src[n]) {
				n++
			}
			toks = append(toks, token{typ: tNumber, text: src[:n], pos: pos})
			advance(n)
		case isLetter(c):
			n := 1
			for n < len(src) && (isLetter(src[n]) || isDigit(src[n])) {
				n++
			}
			toks = append(toks, token{typ: tIdent, text: src[:n], pos: pos})
			advance(n)
		default:
			matched := ""
			for _, s := range symbols {
				if strings.HasPrefix(src, s) {
					matched = s
					break
				}
			}
			if matched == "" {
				return nil, &SyntaxError{Pos: pos, Msg: fmt.Sprintf("unexpected character %q", c)}
			}
			toks = append(toks, token{typ: tSymbol, text: matched, pos: pos})
			advance(len(matched))
		}
	}
	toks = append(toks, token{typ: tEOF, pos: syntax.Pos{Line: line, Col: col}})
	return toks, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isLetter(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

package pbrt

import (
	"fmt"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokString
	tokNumber
	tokLBracket
	tokRBracket
)

type token struct {
	kind tokenKind
	text string
	num  float64
	line int
}

// SyntaxError reports malformed input with its location.
type SyntaxError struct {
	File string
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

// tokenize splits PBRT source into tokens.
func tokenize(file string, src []byte) ([]token, error) {
	var toks []token
	line := 1
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '\n':
			line++
			i++
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == '#':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case c == '[':
			toks = append(toks, token{kind: tokLBracket, text: "[", line: line})
			i++
		case c == ']':
			toks = append(toks, token{kind: tokRBracket, text: "]", line: line})
			i++
		case c == '"':
			start := line
			var sb strings.Builder
			i++
			for {
				if i >= len(src) {
					return nil, &SyntaxError{File: file, Line: start, Msg: "unterminated string"}
				}
				ch := src[i]
				if ch == '"' {
					i++
					break
				}
				if ch == '\n' {
					return nil, &SyntaxError{File: file, Line: line, Msg: "newline in string"}
				}
				if ch == '\\' && i+1 < len(src) {
					i++
					switch src[i] {
					case 'n':
						ch = '\n'
					case 't':
						ch = '\t'
					default:
						ch = src[i]
					}
				}
				sb.WriteByte(ch)
				i++
			}
			toks = append(toks, token{kind: tokString, text: sb.String(), line: start})
		default:
			j := i
			for j < len(src) && !isDelimiter(src[j]) {
				j++
			}
			word := string(src[i:j])
			i = j
			if isNumberStart(word[0]) {
				f, err := strconv.ParseFloat(word, 64)
				if err != nil {
					return nil, &SyntaxError{File: file, Line: line, Msg: fmt.Sprintf("invalid number %q", word)}
				}
				toks = append(toks, token{kind: tokNumber, text: word, num: f, line: line})
				continue
			}
			toks = append(toks, token{kind: tokIdent, text: word, line: line})
		}
	}
	return toks, nil
}

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '"', '[', ']', '#':
		return true
	}
	return false
}

func isNumberStart(c byte) bool {
	return (c >= '0' && c <= '9') || c == '-' || c == '+' || c == '.'
}

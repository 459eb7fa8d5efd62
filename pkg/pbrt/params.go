package pbrt

import (
	"fmt"
	"strings"
)

// param is one typed parameter such as "point3 P" [ ... ].
type param struct {
	typ     string
	name    string
	numbers []float64
	strings []string
}

// directive is one statement with its positional arguments and parameter
// list.
type directive struct {
	name    string
	line    int
	numbers []float64
	strings []string
	params  []param
}

func (d *directive) param(names ...string) *param {
	for i := range d.params {
		for _, n := range names {
			if d.params[i].name == n {
				return &d.params[i]
			}
		}
	}
	return nil
}

func (d *directive) firstString() (string, bool) {
	if len(d.strings) == 0 {
		return "", false
	}
	return d.strings[0], true
}

func isValueToken(t token) bool {
	switch t.kind {
	case tokString, tokNumber, tokLBracket:
		return true
	case tokIdent:
		return t.text == "true" || t.text == "false"
	}
	return false
}

var paramTypes = map[string]bool{
	"integer": true, "float": true, "bool": true, "string": true, "texture": true,
	"point": true, "point2": true, "point3": true,
	"vector": true, "vector2": true, "vector3": true,
	"normal": true, "normal3": true,
	"rgb": true, "color": true, "spectrum": true, "blackbody": true,
}

// splitDeclaration parses a "type name" parameter declaration. Quoted
// names such as "Wood Floor" are not declarations.
func splitDeclaration(s string) (typ, name string, ok bool) {
	f := strings.Fields(s)
	if len(f) != 2 || !paramTypes[f[0]] {
		return "", "", false
	}
	return f[0], f[1], true
}

// readDirective consumes the directive at toks[i] and its arguments, and
// returns the index of the next directive.
func readDirective(file string, toks []token, i int) (directive, int, error) {
	d := directive{name: toks[i].text, line: toks[i].line}
	i++
	inParams := false
	for i < len(toks) && isValueToken(toks[i]) {
		t := toks[i]
		if t.kind == tokString && i+1 < len(toks) && isValueToken(toks[i+1]) {
			if typ, name, ok := splitDeclaration(t.text); ok {
				inParams = true
				p := param{typ: typ, name: name}
				next, err := readValues(file, toks, i+1, &p.numbers, &p.strings)
				if err != nil {
					return d, i, err
				}
				d.params = append(d.params, p)
				i = next
				continue
			}
		}
		if inParams {
			return d, i, &SyntaxError{File: file, Line: t.line, Msg: fmt.Sprintf("%s: unexpected %q in parameter list", d.name, t.text)}
		}
		next, err := readValues(file, toks, i, &d.numbers, &d.strings)
		if err != nil {
			return d, i, err
		}
		i = next
	}
	return d, i, nil
}

// readValues reads a single value or a bracketed list starting at toks[i].
func readValues(file string, toks []token, i int, nums *[]float64, strs *[]string) (int, error) {
	add := func(t token) error {
		switch t.kind {
		case tokNumber:
			*nums = append(*nums, t.num)
		case tokString:
			*strs = append(*strs, t.text)
		case tokIdent:
			if t.text != "true" && t.text != "false" {
				return &SyntaxError{File: file, Line: t.line, Msg: fmt.Sprintf("unexpected %q in value list", t.text)}
			}
			*strs = append(*strs, t.text)
		default:
			return &SyntaxError{File: file, Line: t.line, Msg: fmt.Sprintf("unexpected %q", t.text)}
		}
		return nil
	}
	if toks[i].kind != tokLBracket {
		return i + 1, add(toks[i])
	}
	open := toks[i].line
	for i++; i < len(toks); i++ {
		if toks[i].kind == tokRBracket {
			return i + 1, nil
		}
		if err := add(toks[i]); err != nil {
			return i, err
		}
	}
	return i, &SyntaxError{File: file, Line: open, Msg: "unterminated '['"}
}

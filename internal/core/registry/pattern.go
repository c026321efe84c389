package registry

import (
	"errors"
	"strings"
)

var ErrInvalidPattern = errors.New("invalid URL pattern")

type tokenKind int

const (
	tokenLiteral tokenKind = iota
	tokenWildcard
	tokenParam
)

type token struct {
	kind tokenKind
	text string // literal text or parameter name
}

// Pattern is a compiled URL pattern. "*" matches any run of characters
// (slashes included), ":name" matches one or more characters up to the next
// "/", and everything else is matched literally.
type Pattern struct {
	source string
	tokens []token
}

// IsPattern reports whether s needs compiling, i.e. contains "*" or ":".
func IsPattern(s string) bool {
	return strings.ContainsAny(s, "*:")
}

// Compile parses a pattern string.
func Compile(source string) (*Pattern, error) {
	if source == "" {
		return nil, ErrInvalidPattern
	}

	var (
		tokens  []token
		literal strings.Builder
	)
	flush := func() {
		if literal.Len() > 0 {
			tokens = append(tokens, token{kind: tokenLiteral, text: literal.String()})
			literal.Reset()
		}
	}

	for i := 0; i < len(source); i++ {
		switch c := source[i]; {
		case c == '*':
			flush()
			tokens = append(tokens, token{kind: tokenWildcard})
		case c == ':' && i+1 < len(source) && isWordChar(source[i+1]):
			flush()
			j := i + 1
			for j < len(source) && isWordChar(source[j]) {
				j++
			}
			tokens = append(tokens, token{kind: tokenParam, text: source[i+1 : j]})
			i = j - 1
		default:
			literal.WriteByte(c)
		}
	}
	flush()

	return &Pattern{source: source, tokens: tokens}, nil
}

// Match reports whether the whole of path matches, returning the captured
// named parameters.
func (p *Pattern) Match(path string) (map[string]string, bool) {
	params := make(map[string]string)
	if !p.match(0, path, params) {
		return nil, false
	}
	return params, true
}

func (p *Pattern) match(i int, s string, params map[string]string) bool {
	if i == len(p.tokens) {
		return s == ""
	}

	tok := p.tokens[i]
	switch tok.kind {
	case tokenLiteral:
		if !strings.HasPrefix(s, tok.text) {
			return false
		}
		return p.match(i+1, s[len(tok.text):], params)
	case tokenWildcard:
		for n := 0; n <= len(s); n++ {
			if p.match(i+1, s[n:], params) {
				return true
			}
		}
		return false
	case tokenParam:
		end := strings.IndexByte(s, '/')
		if end < 0 {
			end = len(s)
		}
		for n := end; n >= 1; n-- {
			params[tok.text] = s[:n]
			if p.match(i+1, s[n:], params) {
				return true
			}
		}
		delete(params, tok.text)
		return false
	}
	return false
}

func isWordChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

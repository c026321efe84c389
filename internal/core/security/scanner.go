// Package security finds credentials and personal data in response text.
package security

import (
	"fmt"
	"regexp"
)

// Rule is one detection pattern and the text that replaces its matches.
type Rule struct {
	Name        string
	Pattern     *regexp.Regexp
	Replacement string
}

// Scanner applies its rules in order. More specific rules come first so a
// key that contains digits is not partly eaten by the phone rule.
type Scanner struct {
	rules []Rule
}

var builtinRules = []struct {
	name, pattern, replacement string
}{
	{"Private Key", `-----BEGIN [A-Z ]+ PRIVATE KEY-----[\s\S]*?-----END [A-Z ]+ PRIVATE KEY-----`, "[PRIVATE_KEY_REDACTED]"},
	{"AWS Access Key", `\bAKIA[0-9A-Z]{16}\b`, "[AWS_AK_REDACTED]"},
	{"OpenAI API Key", `\bsk-(?:proj-)?[a-zA-Z0-9]{20,}\b`, "[OPENAI_KEY_REDACTED]"},
	{"GitHub Token", `\b(?:ghp|gho|ghu|ghs|ghr)_[a-zA-Z0-9]{36}\b`, "[GITHUB_TOKEN_REDACTED]"},
	{"Google API Key", `\bAIza[0-9A-Za-z\-_]{35}\b`, "[GOOGLE_KEY_REDACTED]"},
	{"Bearer Token", `\bBearer\s+[A-Za-z0-9\-._~+/]{16,}=*`, "Bearer [TOKEN_REDACTED]"},
	{"Email", `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`, "[EMAIL_REDACTED]"},
	{"Mobile Phone", `(?:\+\d{1,3}[\s-]?)?\b1[3-9]\d{9}\b|\+\d{1,3}[\s-]?\(?\d{2,4}\)?[\s-]?\d{3,4}[\s-]?\d{4}\b`, "[PHONE_REDACTED]"},
}

// NewScanner returns a Scanner loaded with the built-in rules.
func NewScanner() *Scanner {
	s := &Scanner{rules: make([]Rule, 0, len(builtinRules))}
	for _, r := range builtinRules {
		s.rules = append(s.rules, Rule{
			Name:        r.name,
			Pattern:     regexp.MustCompile(r.pattern),
			Replacement: r.replacement,
		})
	}
	return s
}

// Sanitize replaces every match of every rule.
func (s *Scanner) Sanitize(input string) string {
	result := input
	for _, rule := range s.rules {
		result = rule.Pattern.ReplaceAllString(result, rule.Replacement)
	}
	return result
}

// Detect returns the names of the rules that match input.
func (s *Scanner) Detect(input string) []string {
	var names []string
	for _, rule := range s.rules {
		if rule.Pattern.MatchString(input) {
			names = append(names, rule.Name)
		}
	}
	return names
}

// AddRule appends a custom rule after the built-ins.
func (s *Scanner) AddRule(name, pattern, replacement string) error {
	compiled, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern for rule %s: %w", name, err)
	}
	s.rules = append(s.rules, Rule{
		Name:        name,
		Pattern:     compiled,
		Replacement: replacement,
	})
	return nil
}

// Rules returns a copy of the current rules.
func (s *Scanner) Rules() []Rule {
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

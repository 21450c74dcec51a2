package intent

import (
	"path"
	"strings"
	"unicode"
)

// Tokenize lowercases text and splits it on whitespace and punctuation.
// Dots, underscores, dashes and slashes survive inside a word so file names
// such as "notes.txt" stay a single token.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || isWordJoiner(r))
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "._-/")
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func isWordJoiner(r rune) bool {
	return r == '.' || r == '_' || r == '-' || r == '/'
}

// form is one surface form of a keyword: a token run, or a single-token glob.
type form struct {
	tokens []string
	glob   string
}

func compileForm(raw string) (form, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if strings.ContainsAny(raw, "*?[") {
		if _, err := path.Match(raw, ""); err != nil {
			return form{}, err
		}
		return form{glob: raw}, nil
	}
	return form{tokens: Tokenize(raw)}, nil
}

func (f form) empty() bool {
	return f.glob == "" && len(f.tokens) == 0
}

// find returns the first token index where f occurs and the run length.
func (f form) find(tokens []string) (int, int) {
	if f.glob != "" {
		for i, tok := range tokens {
			if ok, _ := path.Match(f.glob, tok); ok {
				return i, 1
			}
		}
		return -1, 0
	}
	n := len(f.tokens)
	for i := 0; i+n <= len(tokens); i++ {
		match := true
		for j := 0; j < n; j++ {
			if tokens[i+j] != f.tokens[j] {
				match = false
				break
			}
		}
		if match {
			return i, n
		}
	}
	return -1, 0
}

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "my": true, "me": true, "please": true,
	"to": true, "and": true, "for": true, "with": true, "up": true, "now": true,
	"new": true, "some": true, "this": true, "that": true, "it": true,
}

// IsStopword reports whether tok carries no target information.
func IsStopword(tok string) bool {
	return stopwords[tok]
}

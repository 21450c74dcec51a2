package intent

import (
	"errors"
	"math"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/doeshing/smartos-go/internal/domain"
)

// NextWord returns the first non-stopword token at or after start.
func NextWord(tokens []string, start int) string {
	if start < 0 {
		start = 0
	}
	for _, tok := range tokens[min(start, len(tokens)):] {
		if !IsStopword(tok) {
			return tok
		}
	}
	return ""
}

// Lexicon maps a canonical name to the phrases that refer to it.
type Lexicon map[string][]string

// Phrases returns every canonical name and alias in a stable order.
func (l Lexicon) Phrases() []string {
	var out []string
	for _, name := range l.names() {
		out = append(out, name)
		out = append(out, l[name]...)
	}
	return out
}

func (l Lexicon) names() []string {
	names := make([]string, 0, len(l))
	for name := range l {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupTarget resolves the earliest lexicon phrase in the command to its
// canonical name. Longer phrases win at the same position, then names
// sort alphabetically. It falls back to fallback when nothing matches.
func LookupTarget(lex Lexicon, fallback TargetExtractor) TargetExtractor {
	type entry struct {
		name string
		form form
	}
	var entries []entry
	for _, name := range lex.names() {
		for _, phrase := range append([]string{name}, lex[name]...) {
			f, err := compileForm(phrase)
			if err != nil || f.empty() {
				continue
			}
			entries = append(entries, entry{name: name, form: f})
		}
	}
	return func(tokens []string, hitEnd int) string {
		bestPos, bestLen, bestName := -1, 0, ""
		for _, e := range entries {
			pos, n := e.form.find(tokens)
			if pos < 0 {
				continue
			}
			if bestPos < 0 || pos < bestPos || (pos == bestPos && n > bestLen) {
				bestPos, bestLen, bestName = pos, n, e.name
			}
		}
		if bestPos >= 0 {
			return bestName
		}
		if fallback != nil {
			return fallback(tokens, hitEnd)
		}
		return ""
	}
}

var durationUnits = map[string]int{
	"s": 1, "sec": 1, "secs": 1, "second": 1, "seconds": 1,
	"m": 60, "min": 60, "mins": 60, "minute": 60, "minutes": 60,
	"h": 3600, "hr": 3600, "hrs": 3600, "hour": 3600, "hours": 3600,
}

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"fifteen": 15, "twenty": 20, "thirty": 30,
}

// ParseDelay reads "in 5 minutes" style delays and returns seconds.
// Delays too large for an int saturate at math.MaxInt.
func ParseDelay(tokens []string) (int, bool) {
	for i := 0; i+2 < len(tokens); i++ {
		if tokens[i] != "in" && tokens[i] != "after" {
			continue
		}
		n, ok := parseCount(tokens[i+1])
		if !ok {
			continue
		}
		if unit, ok := durationUnits[tokens[i+2]]; ok {
			if n > math.MaxInt/unit {
				return math.MaxInt, true
			}
			return n * unit, true
		}
	}
	return 0, false
}

func parseCount(tok string) (int, bool) {
	n, err := strconv.Atoi(tok)
	switch {
	case err == nil:
		return n, n >= 0
	case errors.Is(err, strconv.ErrRange):
		return math.MaxInt, !strings.HasPrefix(tok, "-")
	}
	n, ok := numberWords[tok]
	return n, ok
}

// LooksLikeFilename reports whether tok has a name and an extension.
func LooksLikeFilename(tok string) bool {
	ext := path.Ext(tok)
	return len(ext) > 1 && len(ext) < len(tok) && !strings.ContainsAny(ext[1:], "/.")
}

var nameMarkers = map[string]bool{"named": true, "called": true, "file": true, "folder": true, "directory": true}

// ParseFilename finds the first token that looks like a file name, or the
// word after "named"/"called"/"file"/"folder".
func ParseFilename(tokens []string) string {
	for _, tok := range tokens {
		if LooksLikeFilename(tok) {
			return tok
		}
	}
	for i := 0; i+1 < len(tokens); i++ {
		if next := tokens[i+1]; nameMarkers[tokens[i]] && !nameMarkers[next] && !IsStopword(next) {
			return next
		}
	}
	return ""
}

// ParseDestination returns the file name after the last "to" or "into".
func ParseDestination(tokens []string) string {
	for i := len(tokens) - 2; i >= 0; i-- {
		if tokens[i] == "to" || tokens[i] == "into" {
			if LooksLikeFilename(tokens[i+1]) || strings.Contains(tokens[i+1], "/") {
				return tokens[i+1]
			}
		}
	}
	return ""
}

// ParseTopic returns the raw text after the first standalone "about",
// "on" or "regarding", trimmed of trailing punctuation.
func ParseTopic(text string) string {
	words := strings.Fields(text)
	for i, w := range words {
		switch strings.ToLower(strings.Trim(w, ",.;:!?")) {
		case "about", "regarding", "on":
			topic := strings.Join(words[i+1:], " ")
			return strings.TrimRight(strings.TrimSpace(topic), ".!?,;:")
		}
	}
	return ""
}

// CommonParameters extracts delay, filename, destination and topic.
func CommonParameters(text string, tokens []string) map[string]string {
	params := map[string]string{}
	if secs, ok := ParseDelay(tokens); ok {
		params[domain.ParamDelaySeconds] = strconv.Itoa(secs)
	}
	if name := ParseFilename(tokens); name != "" {
		params[domain.ParamFilename] = name
	}
	if dest := ParseDestination(tokens); dest != "" && dest != params[domain.ParamFilename] {
		params[domain.ParamDestination] = dest
	}
	if topic := ParseTopic(text); topic != "" {
		params[domain.ParamTopic] = topic
	}
	return params
}

package parser

import (
	"strings"
)

var quoteReplacer = strings.NewReplacer("’", "'", "‘", "'", "“", `"`, "”", `"`)

// Politeness that never changes meaning. Longer phrases come first so
// "could you please" is removed in one pass.
var politePrefixes = []string{
	"could you please ", "can you please ", "would you please ", "will you please ",
	"could you ", "can you ", "would you ", "will you ",
	"i would like to ", "i'd like to ", "i want to ", "i need to ", "i wanna ",
	"please ", "kindly ", "help me ", "let's ", "lets ", "go ahead and ",
}

var politeSuffixes = []string{" for me please", " please", " for me", " thanks", " thank you"}

// Normalize lowercases, collapses whitespace, strips trailing sentence
// punctuation and politeness. Characters inside the request are kept so the
// injection boundary sees them.
func Normalize(text string) string {
	s := strings.ToLower(quoteReplacer.Replace(text))
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimRight(s, ".?! ")
	s = strings.TrimSuffix(s, ",")

	for changed := true; changed; {
		changed = false
		for _, prefix := range politePrefixes {
			if strings.HasPrefix(s, prefix) && len(s) > len(prefix) {
				s = strings.TrimPrefix(s, prefix)
				changed = true
			}
		}
		for _, suffix := range politeSuffixes {
			if strings.HasSuffix(s, suffix) && len(s) > len(suffix) && !strings.HasSuffix(s, " just"+suffix) {
				s = strings.TrimRight(strings.TrimSuffix(s, suffix), ", ")
				changed = true
			}
		}
	}
	return s
}

// cleanTarget trims filler words around an extracted target.
func cleanTarget(target string) string {
	t := strings.TrimSpace(target)
	for _, article := range []string{"the ", "a ", "an ", "some ", "my "} {
		if strings.HasPrefix(t, article) && len(t) > len(article) {
			t = strings.TrimPrefix(t, article)
			break
		}
	}
	for _, noun := range []string{" package", " app", " application", " program", " service"} {
		if strings.HasSuffix(t, noun) && len(t) > len(noun) {
			t = strings.TrimSuffix(t, noun)
			break
		}
	}
	return strings.TrimSpace(t)
}

func tokens(s string) []string {
	return strings.Fields(s)
}

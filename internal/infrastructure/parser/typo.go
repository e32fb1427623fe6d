package parser

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/doeshing/nixsay/internal/domain"
)

// corrector fixes misspelled command words. Known package and service names
// are never touched, so "git" stays "git" even though "get" is one edit away.
type corrector struct {
	words       []string
	vocab       map[string]bool
	known       func(string) bool
	maxDistance int
}

func newCorrector(vocab map[string]bool, known func(string) bool, maxDistance int) *corrector {
	words := make([]string, 0, len(vocab))
	for w := range vocab {
		if utf8.RuneCountInString(w) >= 3 && !strings.Contains(w, " ") {
			words = append(words, w)
		}
	}
	sort.Strings(words)
	if maxDistance <= 0 {
		maxDistance = domain.DefaultMaxEditDistance
	}
	return &corrector{words: words, vocab: vocab, known: known, maxDistance: maxDistance}
}

// correct returns the corrected text and the edits applied. A token is only
// replaced when a single vocabulary word is strictly closest within bounds.
func (c *corrector) correct(text string) (string, []domain.Correction) {
	toks := tokens(text)
	var corrections []domain.Correction
	for i, tok := range toks {
		if c.vocab[tok] || !isPlainWord(tok) || utf8.RuneCountInString(tok) < 3 {
			continue
		}
		if c.known != nil && c.known(tok) {
			continue
		}
		limit := c.maxDistance
		if utf8.RuneCountInString(tok) <= 4 && limit > 1 {
			limit = 1
		}
		best, bestWord, tie := limit+1, "", false
		for _, w := range c.words {
			d := levenshtein.ComputeDistance(tok, w)
			switch {
			case d < best:
				best, bestWord, tie = d, w, false
			case d == best:
				tie = true
			}
		}
		if bestWord == "" || tie || best > limit {
			continue
		}
		corrections = append(corrections, domain.Correction{From: tok, To: bestWord, Distance: best})
		toks[i] = bestWord
	}
	return strings.Join(toks, " "), corrections
}

func isPlainWord(tok string) bool {
	for _, r := range tok {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return tok != ""
}

func totalDistance(corrections []domain.Correction) int {
	total := 0
	for _, c := range corrections {
		total += c.Distance
	}
	return total
}

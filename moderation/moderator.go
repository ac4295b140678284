// Package moderation censors chat text against a dictionary of forbidden words.
package moderation

import (
	"log/slog"
	"strings"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"
)

// Moderator masks forbidden words whatever their case, punctuation or leet spelling.
// It is safe for concurrent use once built.
type Moderator struct {
	matcher     *goahocorasick.Machine
	replacement rune
	log         *slog.Logger
}

// folded is a text reduced to its significant runes.
// origin[i] is the index in the original runes of folded.runes[i].
type folded struct {
	runes  []rune
	origin []int
}

// NewModerator builds the automaton from the folded dictionary.
// Entries made only of noise characters are ignored; an empty dictionary censors nothing.
func NewModerator(words []string, replacement rune, log *slog.Logger) (*Moderator, error) {
	patterns := lo.FilterMap(words, func(word string, _ int) ([]rune, bool) {
		f := fold([]rune(word))
		return f.runes, len(f.runes) > 0
	})

	moderator := &Moderator{replacement: replacement, log: log}
	if len(patterns) > 0 {
		machine := new(goahocorasick.Machine)
		if err := machine.Build(patterns); err != nil {
			return nil, err
		}
		moderator.matcher = machine
	}
	log.Debug("Moderator ready", "patterns", len(patterns), "ignored", len(words)-len(patterns))
	return moderator, nil
}

// ParseWords splits the comma separated CENSORED_WORDS value.
func ParseWords(list string) []string {
	return lo.Compact(lo.Map(strings.Split(list, ","), func(w string, _ int) string {
		return strings.TrimSpace(w)
	}))
}

// Censor returns text with every match replaced rune by rune, so the length and the
// spacing of the message are kept. The matched dictionary words come second, in order.
func (m *Moderator) Censor(text string) (string, []string) {
	if m.matcher == nil || text == "" {
		return text, nil
	}
	original := []rune(text)
	f := fold(original)
	if len(f.runes) == 0 {
		return text, nil
	}

	terms := m.matcher.MultiPatternSearch(f.runes, false)
	if len(terms) == 0 {
		return text, nil
	}

	var matched []string
	for _, term := range terms {
		end := term.Pos + len(term.Word)
		if term.Pos < 0 || end > len(f.origin) {
			continue
		}
		for i := f.origin[term.Pos]; i <= f.origin[end-1]; i++ {
			original[i] = m.replacement
		}
		matched = append(matched, string(term.Word))
	}
	return string(original), matched
}

// fold lowercases, undoes leet spelling and drops punctuation, spaces and symbols.
func fold(input []rune) folded {
	f := folded{
		runes:  make([]rune, 0, len(input)),
		origin: make([]int, 0, len(input)),
	}
	for i, r := range input {
		r = unleet(r)
		if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
			continue
		}
		f.runes = append(f.runes, unicode.ToLower(r))
		f.origin = append(f.origin, i)
	}
	return f
}

func unleet(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	case '7':
		return 't'
	default:
		return r
	}
}

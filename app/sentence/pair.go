package sentence

import (
	"errors"
	"fmt"
	"strings"

	"WordLeap/app/oracle"
)

// ErrNoPair is the single signal every oracle or validation failure collapses
// to at the controller boundary.
var ErrNoPair = errors.New("no word pair produced")

type UsedWords map[string]struct{}

func NewUsedWords(words []string) UsedWords {
	used := make(UsedWords, len(words))
	for _, w := range words {
		used[NormalizeWord(w)] = struct{}{}
	}
	return used
}

func (u UsedWords) Contains(word string) bool {
	_, ok := u[NormalizeWord(word)]
	return ok
}

// NormalizeWord strips the trailing period and case-folds.
func NormalizeWord(word string) string {
	return strings.ToLower(strings.TrimSuffix(strings.TrimSpace(word), "."))
}

// RepairPair validates a raw oracle pair against the words already in the
// sentence. When exactly one candidate collides it is replaced with its
// sibling's original value, so both fields can legitimately end up identical.
// Callers must tolerate that.
func RepairPair(raw oracle.WordPair, used UsedWords) (oracle.WordPair, error) {
	if strings.TrimSpace(raw.Safe) == "" || strings.TrimSpace(raw.Leap) == "" {
		return oracle.WordPair{}, fmt.Errorf("%w: missing candidate field", ErrNoPair)
	}

	safeUsed := used.Contains(raw.Safe)
	leapUsed := used.Contains(raw.Leap)
	switch {
	case safeUsed && leapUsed:
		return oracle.WordPair{}, fmt.Errorf("%w: both candidates already used", ErrNoPair)
	case safeUsed:
		raw.Safe = raw.Leap
	case leapUsed:
		raw.Leap = raw.Safe
	}
	return raw, nil
}

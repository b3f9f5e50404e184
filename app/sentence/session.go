package sentence

import (
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"

	"WordLeap/app/oracle"
)

// Target lengths are drawn uniformly from [MinTargetLength, MaxTargetLength]
// once per sentence.
const (
	MinTargetLength = 8
	MaxTargetLength = 12
)

type Phase int

const (
	PhaseKeyEntry Phase = iota
	PhaseWaiting
	PhaseChoosing
	PhaseDissolving
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseKeyEntry:
		return "key-entry"
	case PhaseWaiting:
		return "waiting"
	case PhaseChoosing:
		return "choosing"
	case PhaseDissolving:
		return "dissolving"
	case PhaseComplete:
		return "complete"
	default:
		return "unknown"
	}
}

type Side int

const (
	SideSafe Side = iota
	SideLeap
)

func (s Side) String() string {
	if s == SideLeap {
		return "leap"
	}
	return "safe"
}

// Step records one resolved choice, kept for the presentation trace.
type Step struct {
	Pair   oracle.WordPair
	Chosen Side
}

// Session holds all per-sentence state. The controller owns it exclusively
// for the lifetime of one sentence; its UUID is the key used to discard
// stale async results after a reset.
type Session struct {
	ID           uuid.UUID
	TargetLength int
	Words        []string
	Pair         *oracle.WordPair
	Steps        []Step
}

func NewSession(targetLength int) *Session {
	return &Session{
		ID:           uuid.New(),
		TargetLength: targetLength,
		Words:        make([]string, 0, targetLength),
	}
}

func DrawTargetLength() int {
	return MinTargetLength + rand.IntN(MaxTargetLength-MinTargetLength+1)
}

func (s *Session) Used() UsedWords {
	return NewUsedWords(s.Words)
}

func (s *Session) Remaining() int {
	return s.TargetLength - len(s.Words)
}

func (s *Session) Text() string {
	return strings.Join(s.Words, " ")
}

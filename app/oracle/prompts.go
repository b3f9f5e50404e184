package oracle

import (
	"fmt"
	"strings"
)

const SystemFraming = `You suggest the next word of a poem being written one word at a time.
At every step you offer exactly two candidates and a reader picks one, so the two
words must feel genuinely different: one comfortable, one that takes a risk.

HARD OUTPUT FORMAT:
- Respond with ONLY a JSON object with exactly two keys: "safe" and "leap".
- No prose, no markdown, no explanations before or after the object.`

const commonRules = `Rules:
- lowercase only
- single words only
- no punctuation inside a word`

// OpeningPrompt requests the two candidate first words of a new sentence.
func OpeningPrompt() string {
	return `The sentence is empty. Propose two possible opening words for a poetic sentence.
"safe": a familiar, grounding opener.
"leap": an unsettling, evocative opener.
` + commonRules + `
- no periods`
}

// MiddlePrompt requests two grammatical continuations mid-sentence.
func MiddlePrompt(words []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The sentence so far is: %q.\n", strings.Join(words, " "))
	b.WriteString(`Propose two grammatical continuations, one word each.
"safe": the word a reader expects next.
"leap": a vivid, unexpected word that still fits grammatically.
`)
	b.WriteString(commonRules)
	b.WriteString("\n- no periods")
	writeUsedWords(&b, words)
	return b.String()
}

// ClosingPrompt requests continuations that begin steering toward an ending.
func ClosingPrompt(words []string, remaining int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The sentence so far is: %q.\n", strings.Join(words, " "))
	fmt.Fprintf(&b, "Only %d words remain before the sentence must end.\n", remaining)
	b.WriteString(`Propose two continuations, one word each, that begin steering the sentence toward closure.
"safe": the natural step toward an ending.
"leap": a surprising step that still lets the sentence land.
`)
	b.WriteString(commonRules)
	b.WriteString("\n- no periods yet")
	writeUsedWords(&b, words)
	return b.String()
}

// FinalPrompt requests the sentence's last word; both candidates carry the period.
func FinalPrompt(words []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The sentence so far is: %q.\n", strings.Join(words, " "))
	b.WriteString(`This is the FINAL word. The sentence ends here.
"safe": a word that closes the sentence naturally.
"leap": a word that reframes the whole sentence.
`)
	b.WriteString(commonRules)
	b.WriteString("\n- each word MUST end with a period")
	writeUsedWords(&b, words)
	return b.String()
}

// BuildPrompt selects the prompt tier from the remaining word budget.
func BuildPrompt(words []string, targetLength int) string {
	remaining := targetLength - len(words)
	switch {
	case len(words) == 0:
		return OpeningPrompt()
	case remaining <= 1:
		return FinalPrompt(words)
	case remaining <= 3:
		return ClosingPrompt(words, remaining)
	default:
		return MiddlePrompt(words)
	}
}

func writeUsedWords(b *strings.Builder, words []string) {
	if len(words) == 0 {
		return
	}
	cleaned := make([]string, 0, len(words))
	for _, w := range words {
		cleaned = append(cleaned, strings.ToLower(strings.TrimSuffix(w, ".")))
	}
	fmt.Fprintf(b, "\n- do NOT reuse any of these words: %s", strings.Join(cleaned, ", "))
}

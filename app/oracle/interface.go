package oracle

import "context"

type Interface interface {
	FetchPair(ctx context.Context, words []string, targetLength int) (WordPair, error)
	Fetch(ctx context.Context, prompt string) (WordPair, error)
	SetCredential(key string)
	ClearCredential()
}

package storage

import "context"

// Interface persists the single oracle credential across sessions. Nothing
// sentence-related is ever stored.
type Interface interface {
	SaveCredential(ctx context.Context, value string) error
	GetCredential(ctx context.Context) (string, error)
	DeleteCredential(ctx context.Context) error
}

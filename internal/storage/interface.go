package storage

import "context"

// StorageInterface defines the contract for blob-style storage of runs and reports.
// Names are slash-separated keys such as "runs/2024-05-01/nike.json".
type StorageInterface interface {
	Store(ctx context.Context, name string, data []byte) error
	Retrieve(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, name string) error
}

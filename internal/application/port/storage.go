package port

import "context"

// FileStorage stores receipt blobs under relative paths
type FileStorage interface {
	Save(ctx context.Context, path string, content []byte) error
	Read(ctx context.Context, path string) ([]byte, error)
	Exists(ctx context.Context, path string) bool
	Delete(ctx context.Context, path string) error
	GetFullPath(relativePath string) string
}

// ReceiptStorage is a FileStorage that also lays out and publishes receipts
type ReceiptStorage interface {
	FileStorage
	ReceiptPath(owner, fileName string) string
	PublicURL(relPath string) string
}

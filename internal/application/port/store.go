package port

import (
	"context"

	"github.com/garyjia/billed/internal/domain/entity"
)

// UpdateRequest carries a serialized bill and the id of the record to update
type UpdateRequest struct {
	Data     []byte
	Selector string
}

// BillStore is the remote record store holding bills.
// Callers only distinguish success from failure; no status-specific fields are read.
type BillStore interface {
	// List returns an unordered snapshot of the bills visible to the current employee
	List(ctx context.Context) ([]entity.Bill, error)

	// Create uploads a receipt and creates the bill record it belongs to
	Create(ctx context.Context, upload entity.ReceiptUpload) (*entity.CreatedFile, error)

	// Update replaces the bill selected by req.Selector with the serialized bill in req.Data
	Update(ctx context.Context, req UpdateRequest) (*entity.Bill, error)
}

// Package repository implements the embedded bill store over sqlite.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/garyjia/billed/internal/application/port"
	"github.com/garyjia/billed/internal/domain/entity"
	"github.com/garyjia/billed/internal/infrastructure/persistence/sqlite"
)

var (
	// ErrBillNotFound is returned when an update selects no bill
	ErrBillNotFound = errors.New("bill not found")
	// ErrInvalidSelector is returned when the update key is not a bill id
	ErrInvalidSelector = errors.New("invalid bill selector")
	// ErrNoOwner is returned when listing without a session email
	ErrNoOwner = errors.New("no session email to list bills for")
)

// BillRepository implements port.BillStore on a local sqlite database,
// keeping receipt images in a ReceiptStorage. Listing is limited to the
// bills of the session user.
type BillRepository struct {
	db      *sqlite.DB
	files   port.ReceiptStorage
	session port.SessionProvider
	logger  *zap.Logger
}

// NewBillRepository creates a new bill repository
func NewBillRepository(db *sqlite.DB, files port.ReceiptStorage, session port.SessionProvider, logger *zap.Logger) *BillRepository {
	return &BillRepository{
		db:      db,
		files:   files,
		session: session,
		logger:  logger,
	}
}

const billColumns = `id, email, type, name, date, amount, vat, pct, commentary, file_url, file_name, status`

// List returns the session user's bills in insertion order
func (r *BillRepository) List(ctx context.Context) ([]entity.Bill, error) {
	user, err := r.session.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve bill owner: %w", err)
	}
	if user == nil || user.Email == "" {
		return nil, ErrNoOwner
	}

	rows, err := r.db.Executor(ctx).QueryContext(ctx,
		`SELECT `+billColumns+` FROM bills WHERE email = ? ORDER BY id`, user.Email)
	if err != nil {
		r.logger.Error("Failed to list bills", zap.Error(err))
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	defer rows.Close()

	bills := make([]entity.Bill, 0)
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, bill)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bills: %w", err)
	}
	return bills, nil
}

// Create stores the receipt and inserts a pending bill referencing it.
// The returned key is the new bill id.
func (r *BillRepository) Create(ctx context.Context, upload entity.ReceiptUpload) (*entity.CreatedFile, error) {
	relPath := r.files.ReceiptPath(upload.Email, upload.FileName)
	if err := r.files.Save(ctx, relPath, upload.Content); err != nil {
		return nil, fmt.Errorf("failed to store receipt: %w", err)
	}
	fileURL := r.files.PublicURL(relPath)

	var id int64
	err := r.db.WithTransaction(ctx, func(ctx context.Context) error {
		result, err := r.db.Executor(ctx).ExecContext(ctx, `
			INSERT INTO bills (email, file_url, file_name, file_path, status)
			VALUES (?, ?, ?, ?, ?)
		`, upload.Email, fileURL, upload.FileName, relPath, entity.StatusPending)
		if err != nil {
			return fmt.Errorf("failed to insert bill: %w", err)
		}
		id, err = result.LastInsertId()
		return err
	})
	if err != nil {
		if delErr := r.files.Delete(ctx, relPath); delErr != nil {
			r.logger.Error("Failed to remove orphan receipt", zap.String("path", relPath), zap.Error(delErr))
		}
		r.logger.Error("Failed to create bill", zap.String("email", upload.Email), zap.Error(err))
		return nil, err
	}

	r.logger.Info("Bill created",
		zap.Int64("id", id),
		zap.String("file_name", upload.FileName),
		zap.Int64("size", upload.Size()))

	return &entity.CreatedFile{FileURL: fileURL, Key: strconv.FormatInt(id, 10)}, nil
}

// Update applies a serialized bill to the row whose id is req.Selector
func (r *BillRepository) Update(ctx context.Context, req port.UpdateRequest) (*entity.Bill, error) {
	id, err := strconv.ParseInt(req.Selector, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSelector, req.Selector)
	}

	var bill entity.Bill
	if err := json.Unmarshal(req.Data, &bill); err != nil {
		return nil, fmt.Errorf("failed to decode bill: %w", err)
	}
	if bill.Status == "" {
		bill.Status = entity.StatusPending
	}

	var updated entity.Bill
	err = r.db.WithTransaction(ctx, func(ctx context.Context) error {
		exec := r.db.Executor(ctx)
		result, err := exec.ExecContext(ctx, `
			UPDATE bills SET
				email = ?, type = ?, name = ?, date = ?, amount = ?, vat = ?, pct = ?,
				commentary = ?, file_url = ?, file_name = ?, status = ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`, bill.Email, bill.Type, bill.Name, bill.Date, bill.Amount, bill.VAT.String(), bill.Pct,
			bill.Commentary, bill.FileURL, bill.FileName, bill.Status, id)
		if err != nil {
			return fmt.Errorf("failed to update bill: %w", err)
		}
		if n, err := result.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("%w: %d", ErrBillNotFound, id)
		}

		row := exec.QueryRowContext(ctx, `SELECT `+billColumns+` FROM bills WHERE id = ?`, id)
		updated, err = scanBill(row)
		return err
	})
	if err != nil {
		r.logger.Error("Failed to update bill", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}

	r.logger.Info("Bill updated", zap.Int64("id", id), zap.String("status", updated.Status))
	return &updated, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanBill(s scanner) (entity.Bill, error) {
	var (
		bill entity.Bill
		id   int64
		vat  string
	)
	err := s.Scan(&id, &bill.Email, &bill.Type, &bill.Name, &bill.Date, &bill.Amount, &vat,
		&bill.Pct, &bill.Commentary, &bill.FileURL, &bill.FileName, &bill.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Bill{}, ErrBillNotFound
	}
	if err != nil {
		return entity.Bill{}, fmt.Errorf("failed to scan bill: %w", err)
	}
	bill.ID = strconv.FormatInt(id, 10)
	bill.VAT = entity.FlexString(vat)
	return bill, nil
}

var _ port.BillStore = (*BillRepository)(nil)

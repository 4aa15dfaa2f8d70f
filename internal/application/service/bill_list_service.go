package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/garyjia/billed/internal/application/format"
	"github.com/garyjia/billed/internal/application/port"
	"github.com/garyjia/billed/internal/domain/entity"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// BillFormatter formats bill fields for display. Date fails on unparseable input,
// Status never fails.
type BillFormatter interface {
	Date(raw string) (string, error)
	Status(raw string) string
}

// ErrBillNotFound is returned when no bill carries the requested id
var ErrBillNotFound = errors.New("bill not found")

// BillListService reads the employee's bills for the list view
type BillListService interface {
	// FetchBills returns the bills sorted by date, most recent first, with display
	// formatting applied. It returns nil, nil when no store is configured.
	FetchBills(ctx context.Context) ([]entity.DisplayBill, error)

	// HasStore reports whether a data source is configured
	HasStore() bool

	// ProofURL returns the receipt URL of a bill for the proof viewer
	ProofURL(ctx context.Context, id string) (string, error)
}

type billListServiceImpl struct {
	store     port.BillStore
	formatter BillFormatter
	logger    Logger
}

// NewBillListService creates a new BillListService. store may be nil.
func NewBillListService(store port.BillStore, formatter BillFormatter, logger Logger) BillListService {
	return &billListServiceImpl{
		store:     store,
		formatter: formatter,
		logger:    logger,
	}
}

func (s *billListServiceImpl) HasStore() bool {
	return s.store != nil
}

func (s *billListServiceImpl) FetchBills(ctx context.Context) ([]entity.DisplayBill, error) {
	if s.store == nil {
		return nil, nil
	}

	snapshot, err := s.store.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list bills", "error", err)
		return nil, fmt.Errorf("list bills: %w", err)
	}

	// Sort on the raw dates: formatted dates no longer compare as dates.
	sorted := make([]entity.Bill, len(snapshot))
	copy(sorted, snapshot)
	SortByDateDesc(sorted)

	bills := make([]entity.DisplayBill, 0, len(sorted))
	for _, bill := range sorted {
		bills = append(bills, s.toDisplay(bill))
	}

	s.logger.Info("Bills fetched", "count", len(bills))
	return bills, nil
}

// toDisplay formats one bill. A bad date keeps its raw value; the status is formatted either way.
func (s *billListServiceImpl) toDisplay(bill entity.Bill) entity.DisplayBill {
	display := entity.DisplayBill(bill)
	display.Status = s.formatter.Status(bill.Status)

	date, err := s.formatter.Date(bill.Date)
	if err != nil {
		s.logger.Error("Failed to format bill date, keeping raw value",
			"error", err,
			"bill_id", bill.ID,
			"date", bill.Date)
		return display
	}
	display.Date = date
	return display
}

func (s *billListServiceImpl) ProofURL(ctx context.Context, id string) (string, error) {
	if s.store == nil {
		return "", ErrStoreNotConfigured
	}

	snapshot, err := s.store.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list bills", "error", err, "bill_id", id)
		return "", fmt.Errorf("list bills: %w", err)
	}

	for _, bill := range snapshot {
		if bill.ID == id {
			return bill.FileURL, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrBillNotFound, id)
}

// SortByDateDesc sorts bills most recent first, keeping the order of equal dates.
// Bills whose date does not parse go last.
func SortByDateDesc(bills []entity.Bill) {
	keys := make([]time.Time, len(bills))
	valid := make([]bool, len(bills))
	for i, bill := range bills {
		t, err := format.ParseDate(bill.Date)
		keys[i], valid[i] = t, err == nil
	}

	idx := make([]int, len(bills))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		i, j := idx[a], idx[b]
		if valid[i] != valid[j] {
			return valid[i]
		}
		return keys[i].After(keys[j])
	})

	ordered := make([]entity.Bill, len(bills))
	for pos, i := range idx {
		ordered[pos] = bills[i]
	}
	copy(bills, ordered)
}

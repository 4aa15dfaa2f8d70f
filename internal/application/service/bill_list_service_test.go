package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/billed/internal/application/format"
	"github.com/garyjia/billed/internal/domain/entity"
)

func fixtureBills() []entity.Bill {
	return []entity.Bill{
		{ID: "47qAXb6fIm2zOKkLzMro", Email: "a@a", Name: "encore", Date: "2004-04-04", Amount: 400, VAT: "80", Pct: 20, Status: "pending", FileURL: "https://test.storage.tld/v0/b/billable-677b6.a…f-1.jpg"},
		{ID: "BeKy5Mo4jkmdfPGYpTxZ", Email: "a@a", Name: "test1", Date: "2001-01-01", Amount: 100, VAT: "", Pct: 20, Status: "refused"},
		{ID: "UIUZtnPQvnbFnB0ozvJh", Email: "a@a", Name: "test3", Date: "2003-03-03", Amount: 300, VAT: "60", Pct: 20, Status: "accepted"},
		{ID: "qcCK3SzECmaZAGRrHjaC", Email: "a@a", Name: "test2", Date: "2002-02-02", Amount: 200, VAT: "40", Pct: 20, Status: "refused"},
	}
}

func TestBillListService_FetchBills_SortedMostRecentFirst(t *testing.T) {
	store := &mockStore{listFunc: func(ctx context.Context) ([]entity.Bill, error) {
		return fixtureBills(), nil
	}}
	svc := NewBillListService(store, format.New("fr"), &mockLogger{})

	bills, err := svc.FetchBills(context.Background())

	require.NoError(t, err)
	require.Len(t, bills, 4)
	assert.Equal(t, []string{"4 Avr. 04", "3 Mar. 03", "2 Fév. 02", "1 Jan. 01"},
		[]string{bills[0].Date, bills[1].Date, bills[2].Date, bills[3].Date})
	assert.Equal(t, "En attente", bills[0].Status)
	assert.Equal(t, "Accepté", bills[1].Status)
	assert.Equal(t, "Refusé", bills[3].Status)
	assert.Equal(t, 400, bills[0].Amount)
	assert.Equal(t, entity.FlexString("80"), bills[0].VAT)
}

func TestBillListService_FetchBills_ScenarioOrder(t *testing.T) {
	store := &mockStore{listFunc: func(ctx context.Context) ([]entity.Bill, error) {
		return []entity.Bill{{Date: "2001-01-01"}, {Date: "2004-04-04"}, {Date: "2002-02-02"}}, nil
	}}
	svc := NewBillListService(store, rawDates{}, &mockLogger{})

	bills, err := svc.FetchBills(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"2004-04-04", "2002-02-02", "2001-01-01"},
		[]string{bills[0].Date, bills[1].Date, bills[2].Date})
}

func TestBillListService_FetchBills_BadDateKeepsRecord(t *testing.T) {
	snapshot := fixtureBills()
	snapshot[2].Date = "not-a-date"
	store := &mockStore{listFunc: func(ctx context.Context) ([]entity.Bill, error) {
		return snapshot, nil
	}}
	logger := &mockLogger{}
	svc := NewBillListService(store, format.New("fr"), logger)

	bills, err := svc.FetchBills(context.Background())

	require.NoError(t, err)
	require.Len(t, bills, len(snapshot))
	last := bills[len(bills)-1]
	assert.Equal(t, "UIUZtnPQvnbFnB0ozvJh", last.ID)
	assert.Equal(t, "not-a-date", last.Date)
	assert.Equal(t, "Accepté", last.Status)
	assert.Equal(t, 1, logger.errorCount())
}

func TestBillListService_FetchBills_DoesNotMutateSnapshot(t *testing.T) {
	snapshot := fixtureBills()
	store := &mockStore{listFunc: func(ctx context.Context) ([]entity.Bill, error) {
		return snapshot, nil
	}}
	svc := NewBillListService(store, format.New("fr"), &mockLogger{})

	_, err := svc.FetchBills(context.Background())

	require.NoError(t, err)
	assert.Equal(t, fixtureBills(), snapshot)
}

func TestBillListService_FetchBills_StoreRejects(t *testing.T) {
	cause := errors.New("Erreur 404")
	store := &mockStore{listFunc: func(ctx context.Context) ([]entity.Bill, error) {
		return nil, cause
	}}
	svc := NewBillListService(store, format.New("fr"), &mockLogger{})

	bills, err := svc.FetchBills(context.Background())

	assert.ErrorIs(t, err, cause)
	assert.Nil(t, bills)
}

func TestBillListService_FetchBills_NoStore(t *testing.T) {
	svc := NewBillListService(nil, format.New("fr"), &mockLogger{})

	bills, err := svc.FetchBills(context.Background())

	assert.NoError(t, err)
	assert.Nil(t, bills)
	assert.False(t, svc.HasStore())
}

func TestBillListService_FetchBills_EmptyStore(t *testing.T) {
	store := &mockStore{listFunc: func(ctx context.Context) ([]entity.Bill, error) {
		return []entity.Bill{}, nil
	}}
	svc := NewBillListService(store, format.New("fr"), &mockLogger{})

	bills, err := svc.FetchBills(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, bills)
	assert.Empty(t, bills)
}

func TestBillListService_ProofURL(t *testing.T) {
	store := &mockStore{listFunc: func(ctx context.Context) ([]entity.Bill, error) {
		return fixtureBills(), nil
	}}
	svc := NewBillListService(store, format.New("fr"), &mockLogger{})

	url, err := svc.ProofURL(context.Background(), "47qAXb6fIm2zOKkLzMro")
	require.NoError(t, err)
	assert.Equal(t, fixtureBills()[0].FileURL, url)

	_, err = svc.ProofURL(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrBillNotFound)
}

func TestSortByDateDesc_StableAndInvalidLast(t *testing.T) {
	bills := []entity.Bill{
		{ID: "bad", Date: "??"},
		{ID: "a", Date: "2020-05-01"},
		{ID: "b", Date: "2021-05-01"},
		{ID: "c", Date: "2020-05-01"},
	}

	SortByDateDesc(bills)

	assert.Equal(t, []string{"b", "a", "c", "bad"}, []string{bills[0].ID, bills[1].ID, bills[2].ID, bills[3].ID})
}

// rawDates leaves values untouched so ordering can be read back directly
type rawDates struct{}

func (rawDates) Date(raw string) (string, error) { return raw, nil }
func (rawDates) Status(raw string) string        { return raw }

package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"yield-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEntry(ownerID uuid.UUID) *domain.LedgerEntry {
	merchantID := uuid.New()
	return &domain.LedgerEntry{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Kind:        domain.LedgerKindPurchase,
		Amount:      42.50,
		Currency:    "USD",
		MerchantID:  &merchantID,
		Description: "Purchase at Blue Bottle Coffee",
		Status:      domain.LedgerStatusCompleted,
		Metadata:    map[string]any{"authorization_id": "AUTH-1", "card_last4": "1111"},
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

func ledgerRow(t *testing.T, e *domain.LedgerEntry) *pgxmock.Rows {
	t.Helper()
	var metadata []byte
	if e.Metadata != nil {
		var err error
		metadata, err = json.Marshal(e.Metadata)
		require.NoError(t, err)
	}
	return pgxmock.NewRows([]string{
		"id", "owner_id", "kind", "amount", "currency",
		"merchant_id", "description", "status", "metadata", "created_at",
	}).AddRow(
		e.ID, e.OwnerID, e.Kind, e.Amount, e.Currency,
		e.MerchantID, e.Description, e.Status, metadata, e.CreatedAt,
	)
}

func TestLedgerRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerRepo(mock)
	e := newTestEntry(uuid.New())
	metadata, err := json.Marshal(e.Metadata)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO ledger_entries").
		WithArgs(e.ID, e.OwnerID, e.Kind, e.Amount, e.Currency,
			e.MerchantID, e.Description, e.Status, metadata, e.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, e)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepo_GetByID_DecodesMetadata(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerRepo(mock)
	e := newTestEntry(uuid.New())

	mock.ExpectQuery("SELECT .+ FROM ledger_entries WHERE id").
		WithArgs(e.ID).
		WillReturnRows(ledgerRow(t, e))

	result, err := repo.GetByID(context.Background(), e.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "AUTH-1", result.Metadata["authorization_id"])
	assert.Equal(t, e.Amount, result.Amount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepo_ListByOwner(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerRepo(mock)
	ownerID := uuid.New()
	e1 := newTestEntry(ownerID)
	e2 := newTestEntry(ownerID)
	e2.Kind = domain.LedgerKindTopup
	e2.Metadata = nil
	e2.MerchantID = nil

	rows := ledgerRow(t, e1)
	rows.AddRow(
		e2.ID, e2.OwnerID, e2.Kind, e2.Amount, e2.Currency,
		e2.MerchantID, e2.Description, e2.Status, []byte(nil), e2.CreatedAt,
	)

	mock.ExpectQuery("SELECT .+ FROM ledger_entries WHERE owner_id").
		WithArgs(ownerID, 50).
		WillReturnRows(rows)

	entries, err := repo.ListByOwner(context.Background(), ownerID, 50)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.LedgerKindPurchase, entries[0].Kind)
	assert.Nil(t, entries[1].Metadata)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepo_MarkRefunded(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerRepo(mock)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE ledger_entries SET status").
		WithArgs(domain.LedgerStatusRefunded, id, domain.LedgerStatusCompleted).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.MarkRefunded(context.Background(), tx, id)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepo_SumRefundedForPurchase(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerRepo(mock)
	originalID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM ledger_entries`).
		WithArgs(domain.LedgerKindRefund, originalID.String()).
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(60.0))
	mock.ExpectCommit()

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	sum, err := repo.SumRefundedForPurchase(context.Background(), tx, originalID)
	require.NoError(t, err)
	assert.Equal(t, 60.0, sum)
	require.NoError(t, tx.Commit(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

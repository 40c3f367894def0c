package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/vachaar/vachaar-api/internal/lifecycle"
	"github.com/vachaar/vachaar-api/internal/models"
)

func newStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return NewStore(mock), mock
}

func itemRows(item models.Item) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "seller_id", "buyer_id", "category_id", "title", "price",
		"description", "state", "is_banned", "created_at", "updated_at",
	}).AddRow(
		item.ID, item.SellerID, item.BuyerID, item.CategoryID, item.Title, item.Price,
		item.Description, item.State, item.IsBanned, item.CreatedAt, item.UpdatedAt,
	)
}

func TestStore_GetItem_OK(t *testing.T) {
	store, mock := newStore(t)
	defer mock.Close()

	now := time.Now()
	item := models.Item{
		ID:        uuid.New(),
		SellerID:  uuid.New(),
		Title:     "велосипед",
		Price:     5000,
		State:     models.ItemStateActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	mock.ExpectQuery(`SELECT .* FROM items WHERE id = \$1`).
		WithArgs(item.ID).
		WillReturnRows(itemRows(item))

	got, err := store.GetItem(context.Background(), item.ID)
	require.NoError(t, err)
	require.Equal(t, item.ID, got.ID)
	require.Equal(t, models.ItemStateActive, got.State)
	require.Nil(t, got.BuyerID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetItem_NotFound(t *testing.T) {
	store, mock := newStore(t)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectQuery(`SELECT .* FROM items WHERE id = \$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := store.GetItem(context.Background(), id)
	require.ErrorIs(t, err, lifecycle.ErrItemNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithTx_Commit(t *testing.T) {
	store, mock := newStore(t)
	defer mock.Close()

	itemID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE items SET state = \$2, buyer_id = \$3, updated_at = NOW\(\) WHERE id = \$1`).
		WithArgs(itemID, models.ItemStateActive, (*uuid.UUID)(nil)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := store.WithTx(context.Background(), func(ctx context.Context) error {
		return store.SetItemState(ctx, itemID, models.ItemStateActive, nil)
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithTx_RollbackOnError(t *testing.T) {
	store, mock := newStore(t)
	defer mock.Close()

	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := store.WithTx(context.Background(), func(ctx context.Context) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SetItemState_NotFound(t *testing.T) {
	store, mock := newStore(t)
	defer mock.Close()

	itemID := uuid.New()
	buyerID := uuid.New()

	mock.ExpectExec(`UPDATE items SET state = \$2, buyer_id = \$3, updated_at = NOW\(\) WHERE id = \$1`).
		WithArgs(itemID, models.ItemStateReserved, &buyerID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := store.SetItemState(context.Background(), itemID, models.ItemStateReserved, &buyerID)
	require.ErrorIs(t, err, lifecycle.ErrItemNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UpsertPurchaseRequest(t *testing.T) {
	store, mock := newStore(t)
	defer mock.Close()

	itemID := uuid.New()
	buyerID := uuid.New()
	now := time.Now()

	rows := pgxmock.NewRows([]string{
		"id", "item_id", "buyer_id", "comment", "state", "created_at", "updated_at",
	}).AddRow(uuid.New(), itemID, buyerID, "интересует", models.PurchaseRequestStatePending, now, now)

	mock.ExpectQuery(`(?s)INSERT INTO purchase_requests.*ON CONFLICT \(item_id, buyer_id\)`).
		WithArgs(pgxmock.AnyArg(), itemID, buyerID, "интересует").
		WillReturnRows(rows)

	request, err := store.UpsertPurchaseRequest(context.Background(), itemID, buyerID, "интересует")
	require.NoError(t, err)
	require.Equal(t, models.PurchaseRequestStatePending, request.State)
	require.Equal(t, buyerID, request.BuyerID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UpsertReportCount_InvalidReason(t *testing.T) {
	store, mock := newStore(t)
	defer mock.Close()

	target := models.ReportTarget{Type: models.ReportTargetItem, ID: uuid.New()}

	_, err := store.UpsertReportCount(context.Background(), target, "nonsense")
	require.ErrorIs(t, err, lifecycle.ErrInvalidReason)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UpsertReportCount_IncrementsColumn(t *testing.T) {
	store, mock := newStore(t)
	defer mock.Close()

	target := models.ReportTarget{Type: models.ReportTargetItem, ID: uuid.New()}
	now := time.Now()

	rows := pgxmock.NewRows([]string{
		"id", "target_type", "target_id", "spam", "amoral", "fraud", "illegal",
		"price_issue", "contact_issue", "category_issue", "responsiveness_issue",
		"other", "status", "admin_note", "created_at", "updated_at",
	}).AddRow(uuid.New(), target.Type, target.ID, 0, 0, 1, 0, 0, 0, 0, 0, 0,
		models.ReportStatusReviewing, "", now, now)

	mock.ExpectQuery(`(?s)INSERT INTO reports.*DO UPDATE SET fraud = reports\.fraud \+ 1`).
		WithArgs(pgxmock.AnyArg(), target.Type, target.ID).
		WillReturnRows(rows)

	report, err := store.UpsertReportCount(context.Background(), target, models.ReasonFraud)
	require.NoError(t, err)
	require.Equal(t, 1, report.Fraud)
	require.Equal(t, target, report.Target)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ItemIDsWithOpenReports_Empty(t *testing.T) {
	store, mock := newStore(t)
	defer mock.Close()

	sellerID := uuid.New()
	mock.ExpectQuery(`(?s)SELECT i\.id.*FROM items i.*JOIN reports r`).
		WithArgs(sellerID).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	ids, err := store.ItemIDsWithOpenReports(context.Background(), sellerID)
	require.NoError(t, err)
	// Пустой результат должен быть пустым массивом, а не nil: nil кодируется
	// pgx как SQL NULL и NOT (id = ANY(NULL)) не совпадает ни с одной строкой
	require.NotNil(t, ids)
	require.Empty(t, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UnbanItemsBySellerExcept_NilKeep(t *testing.T) {
	store, mock := newStore(t)
	defer mock.Close()

	sellerID := uuid.New()

	// Nil превращается в пустой массив, иначе UPDATE не затронет ни одной строки
	mock.ExpectExec(`(?s)UPDATE items SET is_banned = false.*NOT \(id = ANY\(\$2\)\)`).
		WithArgs(sellerID, []uuid.UUID{}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	err := store.UnbanItemsBySellerExcept(context.Background(), sellerID, nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SetReportStatus(t *testing.T) {
	store, mock := newStore(t)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectExec(`UPDATE reports SET status = \$2, admin_note = \$3, updated_at = NOW\(\) WHERE id = \$1`).
		WithArgs(id, models.ReportStatusAccepted, models.ReasonFraud).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := store.SetReportStatus(context.Background(), id, models.ReportStatusAccepted, models.ReasonFraud)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

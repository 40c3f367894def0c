package purchase

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/vachaar/vachaar-api/internal/config"
	"github.com/vachaar/vachaar-api/internal/db"
	"github.com/vachaar/vachaar-api/internal/lifecycle"
	"github.com/vachaar/vachaar-api/internal/storage/postgres"
	"github.com/vachaar/vachaar-api/internal/utils"
)

func newTestApp(t *testing.T) (*fiber.App, pgxmock.PgxPoolIface, *utils.JWTService) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	db.Pool = mock
	t.Cleanup(func() {
		db.Pool = nil
		mock.Close()
	})

	cfg := &config.Config{JWTSecret: "test-secret"}
	jwtService := utils.NewJWTService(cfg.JWTSecret)
	engine := lifecycle.NewEngine(postgres.NewStore(mock), nil)

	app := fiber.New()
	NewPurchaseService(cfg, jwtService, engine).SetupRoutes(app)

	return app, mock, jwtService
}

func authHeader(t *testing.T, jwtService *utils.JWTService, userID uuid.UUID) string {
	t.Helper()
	token, err := jwtService.GenerateToken(userID)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestGetMyRequest_NotFound(t *testing.T) {
	app, mock, jwtService := newTestApp(t)

	buyerID := uuid.New()
	itemID := uuid.New()

	mock.ExpectQuery(`(?s)SELECT .* FROM purchase_requests`).
		WithArgs(itemID, buyerID).
		WillReturnError(pgx.ErrNoRows)

	req := httptest.NewRequest("GET", "/api/items/"+itemID.String()+"/my-request", nil)
	req.Header.Set("Authorization", authHeader(t, jwtService, buyerID))

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMyRequest_DBErrorIsNot404(t *testing.T) {
	app, mock, jwtService := newTestApp(t)

	buyerID := uuid.New()
	itemID := uuid.New()

	// Сбой соединения не должен маскироваться под "заявка не найдена"
	mock.ExpectQuery(`(?s)SELECT .* FROM purchase_requests`).
		WithArgs(itemID, buyerID).
		WillReturnError(errors.New("connection refused"))

	req := httptest.NewRequest("GET", "/api/items/"+itemID.String()+"/my-request", nil)
	req.Header.Set("Authorization", authHeader(t, jwtService, buyerID))

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetItemRequests_DBErrorIsNot404(t *testing.T) {
	app, mock, jwtService := newTestApp(t)

	sellerID := uuid.New()
	itemID := uuid.New()

	mock.ExpectQuery(`SELECT seller_id FROM items WHERE id = \$1`).
		WithArgs(itemID).
		WillReturnError(errors.New("connection refused"))

	req := httptest.NewRequest("GET", "/api/items/"+itemID.String()+"/requests", nil)
	req.Header.Set("Authorization", authHeader(t, jwtService, sellerID))

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetItemRequests_ItemNotFound(t *testing.T) {
	app, mock, jwtService := newTestApp(t)

	sellerID := uuid.New()
	itemID := uuid.New()

	mock.ExpectQuery(`SELECT seller_id FROM items WHERE id = \$1`).
		WithArgs(itemID).
		WillReturnError(pgx.ErrNoRows)

	req := httptest.NewRequest("GET", "/api/items/"+itemID.String()+"/requests", nil)
	req.Header.Set("Authorization", authHeader(t, jwtService, sellerID))

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.NoError(t, mock.ExpectationsWereMet())
}

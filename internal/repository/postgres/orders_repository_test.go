package postgres_test

import (
	"context"
	"testing"

	"techshop/domain"
	"techshop/internal/repository/postgres"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(pgdriver.New(pgdriver.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return db, mock
}

func sampleOrder() *domain.Order {
	return &domain.Order{
		AccountID:        7,
		Total:            22_030_000,
		ShippingFee:      30_000,
		Status:           domain.OrderStatusPending,
		RecipientName:    "Alice",
		RecipientAddress: "1 Main St",
		RecipientPhone:   "0900000000",
		Items: []domain.OrderItem{
			{ProductID: 10, Quantity: 2, UnitPrice: 11_000_000},
		},
	}
}

func TestCreateOrderDecrementsStockAndClearsCart(t *testing.T) {
	db, mock := newMockDB(t)
	repo := postgres.NewOrdersRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "orders"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO "order_items"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	// Decrement is guarded by stock >= quantity inside the statement itself.
	mock.ExpectExec(`UPDATE "products" SET .*stock.* WHERE id = \$\d+ AND stock >= \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "cart_items" WHERE cart_id = \$1`).
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.CreateOrder(context.Background(), sampleOrder(), 3, nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderRollsBackWhenStockGuardFails(t *testing.T) {
	db, mock := newMockDB(t)
	repo := postgres.NewOrdersRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "orders"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO "order_items"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	// A racing order took the last unit: zero rows match the guard.
	mock.ExpectExec(`UPDATE "products" SET .*stock.* WHERE id = \$\d+ AND stock >= \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.CreateOrder(context.Background(), sampleOrder(), 3, nil)
	require.Error(t, err)
	assert.Equal(t, domain.KindInsufficientStock, domain.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderWritesPaymentInSameTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	repo := postgres.NewOrdersRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "orders"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.ExpectQuery(`INSERT INTO "order_items"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec(`UPDATE "products" SET .*stock.* WHERE id = \$\d+ AND stock >= \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "cart_items"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "payments"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	payment := &domain.Payment{
		Method: domain.MethodBankTransfer,
		Amount: 22_030_000,
		Status: domain.PaymentStatusPending,
	}

	err := repo.CreateOrder(context.Background(), sampleOrder(), 3, payment)
	require.NoError(t, err)
	assert.Equal(t, uint(9), payment.OrderID)
	require.NotNil(t, payment.TransactionRef)
	assert.Regexp(t, `^GD\d{14}9$`, *payment.TransactionRef)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelOrderRestoresStock(t *testing.T) {
	db, mock := newMockDB(t)
	repo := postgres.NewOrdersRepository(db)

	order := domain.Order{
		ID:     5,
		Status: domain.OrderStatusPending,
		Items: []domain.OrderItem{
			{OrderID: 5, ProductID: 10, Quantity: 2},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "products" SET .*stock.*\+.*`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "order_items" WHERE order_id = \$1`).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "payments" WHERE order_id = \$1`).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "orders" WHERE "orders"\."id" = \$1`).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.CancelOrder(context.Background(), order)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	db, mock := newMockDB(t)
	repo := postgres.NewOrdersRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "orders" SET .*status.*`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.UpdateStatus(context.Background(), 404, domain.OrderStatusShipped)
	require.Error(t, err)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

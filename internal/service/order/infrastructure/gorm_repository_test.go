package infrastructure

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"teahouse/internal/service/order/domain"
)

var placedAt = time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}),
		&gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	return db, mock
}

func cancelledOrder(t *testing.T) *domain.Order {
	t.Helper()
	o, err := domain.NewOrder("o-1", "TEA-1", "cust-1",
		[]domain.OrderItem{{ProductID: "tgy-100", UnitPrice: 320, Quantity: 1}}, placedAt)
	require.NoError(t, err)
	require.NoError(t, o.Cancel("changed my mind", placedAt.Add(time.Minute)))
	return o
}

// 10 个 SET 参数 (statusColumns) 之后是 id 和期望的旧状态
func statusArgs(id string, from domain.Status) []driver.Value {
	args := make([]driver.Value, 0, 12)
	for range 10 {
		args = append(args, sqlmock.AnyArg())
	}
	return append(args, id, string(from))
}

const updateStatusSQL = "UPDATE `orders` SET .*`status`=\\?.* WHERE \\(?id = \\? AND status = \\?\\)?"

func TestUpdateStatusIsConditional(t *testing.T) {
	t.Run("expected status matches", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(updateStatusSQL).
			WithArgs(statusArgs("o-1", domain.StatusPending)...).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := NewGormOrderRepository(db).UpdateStatus(context.Background(), cancelledOrder(t), domain.StatusPending)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("status moved underneath", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(updateStatusSQL).
			WithArgs(statusArgs("o-1", domain.StatusPending)...).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		err := NewGormOrderRepository(db).UpdateStatus(context.Background(), cancelledOrder(t), domain.StatusPending)
		assert.ErrorIs(t, err, domain.ErrStatusConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdatePaymentStatusConflict(t *testing.T) {
	db, mock := newMockDB(t)
	o := cancelledOrder(t)
	o.Status = domain.StatusPending
	o.MarkPaymentFailed(placedAt.Add(time.Minute))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `orders` SET `payment_status`=\\?,`updated_at`=\\? WHERE \\(?id = \\? AND status = \\?\\)?").
		WithArgs("failed", sqlmock.AnyArg(), "o-1", "pending").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := NewGormOrderRepository(db).UpdatePaymentStatus(context.Background(), o)
	assert.ErrorIs(t, err, domain.ErrStatusConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM `orders` WHERE id = \\?").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewGormOrderRepository(db).FindByID(context.Background(), "o-404")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

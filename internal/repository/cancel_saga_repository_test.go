package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Grupo-MACC/Order/internal/domain"
)

const sagaID = "9d3f2a10-0000-0000-0000-000000000001"

func TestBeginCancellation(t *testing.T) {
	gdb, mock := setupMockDB(t)
	repo := NewCancelSagaRepository(gdb)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `fabrication_order` WHERE id = \\?").
		WithArgs(int64(7), 1).
		WillReturnRows(orderRow(7, domain.FabricationInProgress))
	mock.ExpectExec("INSERT INTO `cancel_saga`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `fabrication_order` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	order, err := repo.BeginCancellation(context.Background(), sagaID, 7)
	require.NoError(t, err)
	assert.Equal(t, domain.FabricationCanceling, order.FabricationStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBeginCancellation_NotAllowed(t *testing.T) {
	gdb, mock := setupMockDB(t)
	repo := NewCancelSagaRepository(gdb)

	// Производство уже завершено — допуск отклоняется до каких-либо записей.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `fabrication_order` WHERE id = \\?").
		WithArgs(int64(7), 1).
		WillReturnRows(orderRow(7, domain.FabricationCompleted))
	mock.ExpectRollback()

	_, err := repo.BeginCancellation(context.Background(), sagaID, 7)
	require.ErrorIs(t, err, domain.ErrCancelNotAllowed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBeginCancellation_RaceWithWarehouse(t *testing.T) {
	gdb, mock := setupMockDB(t)
	repo := NewCancelSagaRepository(gdb)

	// Между чтением и записью Warehouse успел завершить производство:
	// условный UPDATE не затронул строк, транзакция откатывается.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `fabrication_order` WHERE id = \\?").
		WithArgs(int64(7), 1).
		WillReturnRows(orderRow(7, domain.FabricationInProgress))
	mock.ExpectExec("INSERT INTO `cancel_saga`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `fabrication_order` SET").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.BeginCancellation(context.Background(), sagaID, 7)
	require.ErrorIs(t, err, domain.ErrCancelNotAllowed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBeginCancellation_OrderNotFound(t *testing.T) {
	gdb, mock := setupMockDB(t)
	repo := NewCancelSagaRepository(gdb)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `fabrication_order` WHERE id = \\?").
		WithArgs(int64(404), 1).
		WillReturnRows(sqlmock.NewRows(orderColumns))
	mock.ExpectRollback()

	_, err := repo.BeginCancellation(context.Background(), sagaID, 404)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestUpdateCancelSaga(t *testing.T) {
	gdb, mock := setupMockDB(t)
	repo := NewCancelSagaRepository(gdb)

	mock.ExpectExec("UPDATE `cancel_saga` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateCancelSaga(context.Background(), sagaID, domain.CancelStateRefunding, ""))

	mock.ExpectExec("UPDATE `cancel_saga` SET").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.UpdateCancelSaga(context.Background(), "missing", domain.CancelStateCanceled, "")
	require.ErrorIs(t, err, domain.ErrCancelSagaNotFound)
}

func TestGetBySagaID(t *testing.T) {
	gdb, mock := setupMockDB(t)
	repo := NewCancelSagaRepository(gdb)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"saga_id", "order_id", "state", "error", "created_at", "updated_at"}).
		AddRow(sagaID, int64(7), string(domain.CancelStateRefunding), "", now, now)

	mock.ExpectQuery("SELECT \\* FROM `cancel_saga` WHERE saga_id = \\?").
		WithArgs(sagaID, 1).
		WillReturnRows(rows)

	rec, err := repo.GetBySagaID(context.Background(), sagaID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), rec.OrderID)
	assert.Equal(t, domain.CancelStateRefunding, rec.State)
	assert.False(t, rec.State.IsTerminal())
}

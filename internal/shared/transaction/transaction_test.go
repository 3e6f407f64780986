package transaction

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return gormDB, mock
}

func TestDoCommitsAndRunsHooks(t *testing.T) {
	db, mock := setupMockDB(t)
	mgr := NewManager(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE seats").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	var order []string
	err := mgr.Do(context.Background(), func(ctx context.Context) error {
		assert.True(t, InTx(ctx))
		AfterCommit(ctx, func() { order = append(order, "hook") })
		order = append(order, "work")
		return DB(ctx, db).Exec("UPDATE seats SET status = 'AVAILABLE'").Error
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"work", "hook"}, order)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoRollsBackAndDropsHooks(t *testing.T) {
	db, mock := setupMockDB(t)
	mgr := NewManager(db)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	ran := false
	err := mgr.Do(context.Background(), func(ctx context.Context) error {
		AfterCommit(ctx, func() { ran = true })
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, ran)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNestedDoJoinsOuterTransaction(t *testing.T) {
	db, mock := setupMockDB(t)
	mgr := NewManager(db)

	mock.ExpectBegin()
	mock.ExpectCommit()

	hooks := 0
	err := mgr.Do(context.Background(), func(ctx context.Context) error {
		outer := DB(ctx, db)
		return mgr.Do(ctx, func(ctx context.Context) error {
			assert.Same(t, outer, DB(ctx, db))
			AfterCommit(ctx, func() { hooks++ })
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 1, hooks)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAfterCommitOutsideTransactionRunsNow(t *testing.T) {
	ran := false
	AfterCommit(context.Background(), func() { ran = true })
	assert.True(t, ran)
	assert.False(t, InTx(context.Background()))
}

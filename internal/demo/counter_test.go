// internal/demo/counter_test.go
//
// Run: go test ./internal/demo -v

package demo

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*Counter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewCounter(sqlx.NewDb(db, "sqlmock")), mock
}

func TestCurrent(t *testing.T) {
	c, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT demo_heart_count FROM demo_config WHERE id = 'main'`)).
		WillReturnRows(sqlmock.NewRows([]string{"demo_heart_count"}).AddRow(74030))

	n, err := c.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(74030), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrement(t *testing.T) {
	c, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE demo_config`)).
		WillReturnRows(sqlmock.NewRows([]string{"demo_heart_count"}).AddRow(74031))

	n, err := c.Increment(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(74031), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReset(t *testing.T) {
	c, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE demo_config`)).
		WithArgs(int64(ResetCount), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := c.Reset(context.Background())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/and161185/recipen/internal/errs"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

func TestErrorClassifiers(t *testing.T) {
	require.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	require.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	require.True(t, isForeignKeyViolation(&pgconn.PgError{Code: "23503"}))
	require.False(t, isForeignKeyViolation(errors.New("x")))

	require.ErrorIs(t, notFound(pgx.ErrNoRows), errs.ErrNotFound)
	boom := errors.New("boom")
	require.ErrorIs(t, notFound(boom), boom)
	require.NoError(t, notFound(nil))
}

func TestUUIDHelpers(t *testing.T) {
	a := uuid.Must(uuid.NewV4())
	b := uuid.Must(uuid.NewV4())

	ss := uuidStrings([]uuid.UUID{a, b})
	require.Equal(t, []string{a.String(), b.String()}, ss)

	ids, err := parseUUIDs(ss)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{a, b}, ids)

	_, err = parseUUIDs([]string{"bad"})
	require.Error(t, err)
}

func TestDB_PingAndClose(t *testing.T) {
	db, mock := newDB(t)
	mock.ExpectPing()
	require.NoError(t, db.Ping(context.Background()))
	mock.ExpectClose()
	db.Close()
	require.NoError(t, mock.ExpectationsWereMet())
}

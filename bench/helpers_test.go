package bench

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"parsebench/pool"
)

// newUsersDB creates a sqlite file holding todo_users with the given rows.
func newUsersDB(t *testing.T, rows map[int64]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.db")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE todo_users (user_id INTEGER PRIMARY KEY, username TEXT NOT NULL)`)
	require.NoError(t, err)
	for id, name := range rows {
		_, err = db.Exec(`INSERT INTO todo_users (user_id, username) VALUES (?, ?)`, id, name)
		require.NoError(t, err)
	}
	return path
}

func sequentialUsers(n int) map[int64]string {
	rows := make(map[int64]string, n)
	for i := 1; i <= n; i++ {
		rows[int64(i)] = fmt.Sprintf("user_%d", i)
	}
	return rows
}

func openUsersPool(t *testing.T, path string, size int) *pool.Pool {
	t.Helper()
	p, err := pool.Open(context.Background(), pool.Config{
		Driver:      "sqlite3",
		URL:         path,
		InitialSize: size,
		MinSize:     size,
		MaxSize:     size,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

// mockSession returns a sqlx connection backed by sqlmock. Expectations are
// verified when the test ends.
func mockSession(t *testing.T) (*sqlx.Conn, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	conn, err := sqlx.NewDb(db, "sqlmock").Connx(context.Background())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		_ = db.Close()
		require.NoError(t, mock.ExpectationsWereMet())
	})
	return conn, mock
}

// countingSession counts prepared statements and one-shot queries sent
// through the session.
type countingSession struct {
	Session
	prepares int
	queries  int
}

func (c *countingSession) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	c.prepares++
	return c.Session.PrepareContext(ctx, query)
}

func (c *countingSession) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	c.queries++
	return c.Session.QueryContext(ctx, query, args...)
}

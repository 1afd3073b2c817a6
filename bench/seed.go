package bench

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// DefaultSeedBatch is the number of rows inserted per transaction.
const DefaultSeedBatch = 500

// Seeder is what SeedUsers needs from a connection.
type Seeder interface {
	sqlx.QueryerContext
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	Rebind(query string) string
}

// SeedUsers appends rows to an existing table, continuing after the current
// maximum id. Names are "user_<id>". It never creates or alters tables.
func SeedUsers(ctx context.Context, conn Seeder, t Table, rows, batchSize int, logger *zap.Logger) (int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := t.Validate(); err != nil {
		return 0, err
	}
	if batchSize <= 0 {
		batchSize = DefaultSeedBatch
	}

	r, err := DiscoverRange(ctx, conn, t)
	if err != nil {
		return 0, fmt.Errorf("seed check: %w", err)
	}
	next := int64(1)
	if r.Valid {
		next = r.Max + 1
	}

	logger.Info("seeding rows", zap.Int("rows", rows), zap.Int64("first_id", next))

	insert := conn.Rebind(fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES (?, ?)", t.Name, t.IDColumn, t.NameColumn))
	inserted := 0
	for inserted < rows {
		n := batchSize
		if rows-inserted < n {
			n = rows - inserted
		}
		if err := insertBatch(ctx, conn, insert, next+int64(inserted), n); err != nil {
			return inserted, fmt.Errorf("seed batch at %d: %w", inserted, err)
		}
		inserted += n
	}
	logger.Info("seeding done", zap.Int("rows", inserted))
	return inserted, nil
}

func insertBatch(ctx context.Context, conn Seeder, insert string, first int64, n int) (err error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, tx.Rollback())
		}
	}()

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for id := first; id < first+int64(n); id++ {
		if _, err := stmt.ExecContext(ctx, id, fmt.Sprintf("user_%d", id)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

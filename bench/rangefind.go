package bench

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// DiscoverRange asks for MIN and MAX of the id column in a single round trip.
// An empty table comes back with Valid set to false rather than a 0/0 range.
func DiscoverRange(ctx context.Context, q sqlx.QueryerContext, t Table) (IdentifierRange, error) {
	var minID, maxID sql.NullInt64
	if err := q.QueryRowxContext(ctx, t.rangeQuery()).Scan(&minID, &maxID); err != nil {
		return IdentifierRange{}, &QueryError{Op: "discover range", Iteration: -1, Err: err}
	}
	if !minID.Valid || !maxID.Valid {
		return IdentifierRange{}, nil
	}
	return IdentifierRange{Min: minID.Int64, Max: maxID.Int64, Valid: true}, nil
}

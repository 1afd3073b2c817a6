package pool

import (
	"context"
	"errors"
	"fmt"
)

// ErrClientInfoUnsupported is returned when the driver has no way to tag a session.
var ErrClientInfoUnsupported = errors.New("client info not supported by driver")

// ClientInfo is application metadata attached to a database session so it can
// be correlated in session views such as v$session or pg_stat_activity.
type ClientInfo struct {
	Module   string
	Action   string
	ClientID string
}

// SetClientInfo tags the session behind c.
func (c *Conn) SetClientInfo(ctx context.Context, info ClientInfo) error {
	fn := c.pool.dialect.clientInfo
	if fn == nil {
		return fmt.Errorf("%w: %s", ErrClientInfoUnsupported, c.pool.dialect.driverName)
	}
	if err := fn(ctx, c, info); err != nil {
		return fmt.Errorf("set client info: %w", err)
	}
	return nil
}

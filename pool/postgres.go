package pool

import (
	"context"
	"database/sql"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

const postgresDefaultPort = 5432

var postgresDialect = dialect{
	driverName:   "pgx",
	credentials:  true,
	externalIdle: true,
	open:         openPostgres,
	clientInfo:   postgresClientInfo,
}

func postgresDSN(cfg Config) (string, error) {
	if strings.HasPrefix(cfg.URL, "postgres://") || strings.HasPrefix(cfg.URL, "postgresql://") {
		return cfg.URL, nil
	}
	host, port, database, err := splitAddress(cfg.URL, postgresDefaultPort)
	if err != nil {
		return "", err
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.Username, cfg.Password),
		Host:     host + ":" + strconv.Itoa(port),
		Path:     "/" + database,
		RawQuery: "sslmode=disable",
	}
	return u.String(), nil
}

// openPostgres sizes a pgxpool from cfg and exposes it through database/sql.
// Idle sessions stay in the pgxpool; the returned closer shuts it down.
func openPostgres(ctx context.Context, cfg Config) (*sql.DB, func() error, error) {
	dsn, err := postgresDSN(cfg)
	if err != nil {
		return nil, nil, err
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, nil, err
	}
	config.MaxConns = int32(cfg.MaxSize)
	config.MinConns = int32(cfg.MinSize)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pgPool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, nil, err
	}

	if err := pgPool.Ping(ctx); err != nil {
		pgPool.Close()
		return nil, nil, err
	}

	closer := func() error {
		pgPool.Close()
		return nil
	}
	return stdlib.OpenDBFromPool(pgPool), closer, nil
}

// application_name is limited to NAMEDATALEN-1 bytes.
const maxApplicationName = 63

func postgresClientInfo(ctx context.Context, c *Conn, info ClientInfo) error {
	name := strings.Join(nonEmpty(info.Module, info.Action, info.ClientID), "/")
	name = truncateUTF8(name, maxApplicationName)
	_, err := c.ExecContext(ctx, "SELECT set_config('application_name', $1, false)", name)
	return err
}

// truncateUTF8 shortens s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func nonEmpty(values ...string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

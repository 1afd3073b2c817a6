package pool

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
)

type openFunc func(ctx context.Context, cfg Config) (*sql.DB, func() error, error)

type clientInfoFunc func(ctx context.Context, c *Conn, info ClientInfo) error

type dialect struct {
	// driverName is the database/sql driver name and the sqlx bindvar key.
	driverName  string
	credentials bool
	// externalIdle is set when idle sessions are kept by the driver's own pool.
	externalIdle bool
	open         openFunc
	clientInfo   clientInfoFunc
}

var dialects = map[string]dialect{
	"oracle":   oracleDialect,
	"postgres": postgresDialect,
	"mysql":    mysqlDialect,
	"sqlite3":  sqliteDialect,
}

var dialectAliases = map[string]string{
	"ora":        "oracle",
	"pgx":        "postgres",
	"postgresql": "postgres",
	"sqlite":     "sqlite3",
}

func lookupDialect(name string) (dialect, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := dialectAliases[key]; ok {
		key = alias
	}
	d, ok := dialects[key]
	if !ok {
		return dialect{}, fmt.Errorf("%w: unknown driver %q (supported: %s)",
			ErrConfiguration, name, strings.Join(Drivers(), ", "))
	}
	return d, nil
}

// Drivers lists the supported driver names.
func Drivers() []string {
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// splitAddress splits "host:port/service" into its parts, falling back to
// defaultPort when the port is omitted.
func splitAddress(addr string, defaultPort int) (host string, port int, path string, err error) {
	hostport, path, _ := strings.Cut(addr, "/")
	if hostport == "" {
		return "", 0, "", fmt.Errorf("%w: missing host in %q", ErrConfiguration, addr)
	}
	if !strings.Contains(hostport, ":") {
		return hostport, defaultPort, path, nil
	}
	h, p, err := net.SplitHostPort(hostport)
	if err != nil {
		return "", 0, "", fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	port, err = strconv.Atoi(p)
	if err != nil {
		return "", 0, "", fmt.Errorf("%w: invalid port %q", ErrConfiguration, p)
	}
	return h, port, path, nil
}

package pool

import (
	"context"
	"database/sql"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

const mysqlDefaultPort = 3306

var mysqlDialect = dialect{
	driverName:  "mysql",
	credentials: true,
	open:        openMySQL,
}

// mysqlDSN builds a go-sql-driver DSN. Parameter interpolation is left off so
// placeholders are bound by a server-side prepared statement.
func mysqlDSN(cfg Config) (string, error) {
	if strings.Contains(cfg.URL, "@") {
		return cfg.URL, nil
	}
	host, port, database, err := splitAddress(cfg.URL, mysqlDefaultPort)
	if err != nil {
		return "", err
	}

	mc := mysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	mc.DBName = database
	mc.ParseTime = true
	mc.InterpolateParams = false
	mc.AllowCleartextPasswords = true
	mc.Timeout = 30 * time.Second
	return mc.FormatDSN(), nil
}

func openMySQL(ctx context.Context, cfg Config) (*sql.DB, func() error, error) {
	dsn, err := mysqlDSN(cfg)
	if err != nil {
		return nil, nil, err
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, nil, err
	}
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil, nil
}

package pool

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	go_ora "github.com/sijms/go-ora/v2"
)

const oracleDefaultPort = 1521

func init() {
	// go-ora registers itself as "oracle"; :argN placeholders are bound by position.
	sqlx.BindDriver("oracle", sqlx.NAMED)
}

var oracleDialect = dialect{
	driverName:  "oracle",
	credentials: true,
	open:        openOracle,
	clientInfo:  oracleClientInfo,
}

// oracleDSN accepts an oracle:// URL as is, or a thin-style address
// ("jdbc:oracle:thin:@host:port/service" or "host:port/service").
func oracleDSN(cfg Config) (string, error) {
	if strings.HasPrefix(cfg.URL, "oracle://") {
		return cfg.URL, nil
	}
	addr := strings.TrimPrefix(cfg.URL, "jdbc:oracle:thin:")
	addr = strings.TrimPrefix(addr, "@")
	addr = strings.TrimPrefix(addr, "//")

	host, port, service, err := splitAddress(addr, oracleDefaultPort)
	if err != nil {
		return "", err
	}
	return go_ora.BuildUrl(host, port, service, cfg.Username, cfg.Password, nil), nil
}

func openOracle(ctx context.Context, cfg Config) (*sql.DB, func() error, error) {
	dsn, err := oracleDSN(cfg)
	if err != nil {
		return nil, nil, err
	}
	db, err := sql.Open("oracle", dsn)
	if err != nil {
		return nil, nil, err
	}
	return db, nil, nil
}

const oracleClientInfoSQL = `BEGIN
  DBMS_APPLICATION_INFO.SET_MODULE(:1, :2);
  DBMS_SESSION.SET_IDENTIFIER(:3);
END;`

func oracleClientInfo(ctx context.Context, c *Conn, info ClientInfo) error {
	_, err := c.ExecContext(ctx, oracleClientInfoSQL, info.Module, info.Action, info.ClientID)
	return err
}

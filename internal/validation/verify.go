package validation

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"github.com/cloudya/vaultops/internal/logging"
)

// pingTimeout bounds the liveness check so a firewalled database does not
// stall a rotation run.
const pingTimeout = 10 * time.Second

// driverForScheme maps connection string schemes onto registered SQL drivers.
var driverForScheme = map[string]string{
	"postgres":   "postgres",
	"postgresql": "postgres",
	"mysql":      "mysql",
	"mariadb":    "mysql",
}

// openFunc is swappable in tests so a mock connection can stand in for a
// real database.
type openFunc func(driver, dsn string) (*sql.DB, error)

// Verifier checks that rotated database credentials actually work before the
// rotation is reported as successful.
type Verifier struct {
	logger *logging.Logger
	open   openFunc
}

// NewVerifier builds a connection verifier.
func NewVerifier(logger *logging.Logger) *Verifier {
	return &Verifier{logger: logger, open: sql.Open}
}

// VerifyConnectionString opens the database behind a connection string and
// pings it. Schemes without a registered driver are skipped with a warning
// rather than failed, since a rotation may legitimately target stores this
// tool cannot dial.
func (v *Verifier) VerifyConnectionString(ctx context.Context, connStr string) error {
	scheme, ok := splitScheme(connStr)
	if !ok {
		return fmt.Errorf("not a connection string")
	}

	driver, ok := driverForScheme[scheme]
	if !ok {
		v.logger.Warn("No driver for scheme '%s', skipping connection check", scheme)
		return nil
	}

	dsn := connStr
	if driver == "mysql" {
		dsn = mysqlDSN(connStr)
	}

	db, err := v.open(driver, dsn)
	if err != nil {
		return fmt.Errorf("failed to open %s connection: %w", driver, err)
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("connection check failed: %w", err)
	}
	v.logger.Debug("Connection check passed (%s)", driver)
	return nil
}

func splitScheme(connStr string) (string, bool) {
	idx := strings.Index(connStr, "://")
	if idx <= 0 {
		return "", false
	}
	return strings.ToLower(connStr[:idx]), true
}

// mysqlDSN rewrites a URL-style connection string into the
// user:pass@tcp(host:port)/db form the mysql driver expects.
func mysqlDSN(connStr string) string {
	idx := strings.Index(connStr, "://")
	rest := connStr[idx+3:]

	at := strings.LastIndex(rest, "@")
	if at < 0 {
		return rest
	}
	creds := rest[:at]
	hostAndPath := rest[at+1:]

	host := hostAndPath
	path := ""
	if slash := strings.Index(hostAndPath, "/"); slash >= 0 {
		host = hostAndPath[:slash]
		path = hostAndPath[slash:]
	}
	return fmt.Sprintf("%s@tcp(%s)%s", creds, host, path)
}

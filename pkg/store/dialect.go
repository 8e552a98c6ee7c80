package store

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/yurifrl/sheetload/pkg/config"
)

// dialect captures what differs between the supported databases.
type dialect struct {
	driver      string
	defaultPort int
	dsn         func(cfg config.Store, port int) string
	placeholder func(n int) string
	quote       func(ident string) string
	columnTypes [3]string
}

var dialects = map[string]dialect{
	"mysql": {
		driver:      "mysql",
		defaultPort: 3306,
		dsn:         mysqlDSN,
		placeholder: func(int) string { return "?" },
		quote:       func(ident string) string { return "`" + ident + "`" },
		columnTypes: [3]string{"TIMESTAMP NULL", "TEXT", "DECIMAL(14,4)"},
	},
	"postgres": {
		driver:      "pgx",
		defaultPort: 5432,
		dsn:         postgresDSN,
		placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
		quote:       doubleQuote,
		columnTypes: [3]string{"TIMESTAMP", "TEXT", "NUMERIC(14,4)"},
	},
	"sqlite": {
		driver:      "sqlite3",
		dsn:         sqliteDSN,
		placeholder: func(int) string { return "?" },
		quote:       doubleQuote,
		columnTypes: [3]string{"TIMESTAMP", "TEXT", "DECIMAL(14,4)"},
	},
}

// Columns are the target columns in insert order.
var Columns = [3]string{"event_date", "description", "volume"}

func dialectFor(name string) (dialect, error) {
	d, ok := dialects[strings.ToLower(name)]
	if !ok {
		return dialect{}, fmt.Errorf("unsupported driver %q", name)
	}
	return d, nil
}

func mysqlDSN(cfg config.Store, port int) string {
	c := mysql.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(port))
	c.DBName = cfg.Database
	c.ParseTime = true
	c.Loc = time.UTC
	return c.FormatDSN()
}

func postgresDSN(cfg config.Store, port int) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
		Path:   "/" + cfg.Database,
	}
	return u.String()
}

// sqliteDSN treats the database name as a file path.
func sqliteDSN(cfg config.Store, _ int) string {
	if cfg.Database == "" {
		return ":memory:"
	}
	return cfg.Database
}

func doubleQuote(ident string) string {
	return `"` + ident + `"`
}

func (d dialect) createTable(table string) string {
	cols := make([]string, len(Columns))
	for i, c := range Columns {
		cols[i] = d.quote(c) + " " + d.columnTypes[i]
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", d.quote(table), strings.Join(cols, ", "))
}

// insert builds a multi-row INSERT for rows tuples.
func (d dialect) insert(table string, rows int) string {
	cols := make([]string, len(Columns))
	for i, c := range Columns {
		cols[i] = d.quote(c)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", d.quote(table), strings.Join(cols, ", "))
	n := 0
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for c := range Columns {
			if c > 0 {
				b.WriteString(", ")
			}
			n++
			b.WriteString(d.placeholder(n))
		}
		b.WriteByte(')')
	}
	return b.String()
}

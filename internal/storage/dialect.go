package storage

import (
	"fmt"
	"strconv"
	"strings"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Drivers lists the supported driver values.
var Drivers = []string{DriverSQLite, DriverPostgres}

// dialect captures what differs between the supported databases.
type dialect struct {
	name       string
	driverName string // database/sql driver registration name
	numbered   bool   // uses $1, $2, ... instead of ?
	createDDL  string
}

var dialects = map[string]dialect{
	DriverSQLite: {
		name:       DriverSQLite,
		driverName: "sqlite",
		createDDL: `CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL
		)`,
	},
	DriverPostgres: {
		name:       DriverPostgres,
		driverName: "postgres",
		numbered:   true,
		createDDL: `CREATE TABLE users (
			id BIGSERIAL PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL
		)`,
	},
}

func dialectFor(driver string) (dialect, error) {
	d, ok := dialects[strings.ToLower(driver)]
	if !ok {
		return dialect{}, fmt.Errorf("unsupported database driver %q (supported: %s)", driver, strings.Join(Drivers, ", "))
	}
	return d, nil
}

// rebind rewrites ? placeholders into the dialect's native form.
// Queries in this package never contain a literal '?'.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}

	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

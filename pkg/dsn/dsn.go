// Package dsn builds SQLAlchemy-style connection URIs from deployment
// parameters. Construction is pure string formatting: nothing here opens,
// validates, or otherwise touches a database.
package dsn

import "strings"

// Params carries the connection parameters exactly as supplied by the
// deployment environment. Every field is an opaque string; Build applies no
// defaults and no validation.
type Params struct {
	Engine   string // DB_TYPE, e.g. "postgres", "mssql", "sqlite"
	Driver   string // DB_DRIVER, e.g. "psycopg2", "pymssql", "pysqlite"
	Username string
	Password string
	Host     string
	Port     string
	Database string // database name, or filesystem path for sqlite
}

// SQLiteEngine is the engine tag that selects the file-based URI shape. The
// match is exact and case-sensitive: "SQLite" or "sqlite3" take the
// credentialed branch like any other engine.
const SQLiteEngine = "sqlite"

// Build returns the connection URI for p.
//
// For Engine == "sqlite" the URI has no credentials or host segment and the
// database is an absolute filesystem path:
//
//	sqlite+pysqlite:////data/app.db
//
// For every other engine:
//
//	<engine>+<driver>://<user>:<pass>@<host>:<port>/<database>
func Build(p Params) string {
	if p.Engine == SQLiteEngine {
		// Four slashes total: scheme separator plus absolute path. A
		// leading slash on the database path is folded in rather than
		// doubled.
		return p.Engine + "+" + p.Driver + ":////" + strings.TrimPrefix(p.Database, "/")
	}
	return p.Engine + "+" + p.Driver + "://" +
		p.Username + ":" + p.Password + "@" +
		p.Host + ":" + p.Port + "/" + p.Database
}

// Redact returns uri with the password segment replaced by "****", suitable
// for logging. URIs without a userinfo segment are returned unchanged.
func Redact(uri string) string {
	schemeEnd := strings.Index(uri, "://")
	if schemeEnd < 0 {
		return uri
	}
	rest := uri[schemeEnd+3:]
	at := strings.LastIndex(rest, "@")
	if at < 0 {
		return uri
	}
	userinfo := rest[:at]
	colon := strings.Index(userinfo, ":")
	if colon < 0 {
		return uri
	}
	return uri[:schemeEnd+3] + userinfo[:colon] + ":****" + rest[at:]
}

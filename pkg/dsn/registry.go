package dsn

// Engine describes a well-known database engine family. The registry is
// informational only: it backs the `engines` and `check` commands and is
// never consulted by Build, which trusts whatever tags the environment
// supplies.
type Engine struct {
	Tag         string   // canonical DB_TYPE value
	Drivers     []string // DB_DRIVER values commonly paired with the engine
	DefaultPort string   // conventional server port, empty for file-based engines
	Notes       string
}

var registry = []Engine{
	{
		Tag:         "postgres",
		Drivers:     []string{"psycopg2", "pg8000"},
		DefaultPort: "5432",
		Notes:       "also accepts the postgresql tag",
	},
	{
		Tag:         "postgresql",
		Drivers:     []string{"psycopg2", "pg8000"},
		DefaultPort: "5432",
	},
	{
		Tag:         "mysql",
		Drivers:     []string{"pymysql", "mysqldb"},
		DefaultPort: "3306",
	},
	{
		Tag:         "mssql",
		Drivers:     []string{"pymssql", "pyodbc"},
		DefaultPort: "1433",
	},
	{
		Tag:         "oracle",
		Drivers:     []string{"cx_oracle"},
		DefaultPort: "1521",
	},
	{
		Tag:     "sqlite",
		Drivers: []string{"pysqlite"},
		Notes:   "DATABASE is a filesystem path; no credentials or host",
	},
}

// Engines returns the registry of well-known engine families.
func Engines() []Engine {
	out := make([]Engine, len(registry))
	copy(out, registry)
	return out
}

// Lookup returns the registry entry for tag. The match is exact, mirroring
// the branch condition in Build.
func Lookup(tag string) (Engine, bool) {
	for _, e := range registry {
		if e.Tag == tag {
			return e, true
		}
	}
	return Engine{}, false
}

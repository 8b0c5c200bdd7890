package sqlite

import "time"

// Config содержит параметры встроенной базы SQLite
type Config struct {
	Path         string        `envconfig:"SQLITE_PATH" default:"data/bulkmail.db"`
	BusyTimeout  time.Duration `envconfig:"SQLITE_BUSY_TIMEOUT" default:"5s"`
	MaxOpenConns int           `envconfig:"SQLITE_MAX_OPEN_CONNS" default:"4"`
	QueryTimeout time.Duration `envconfig:"SQLITE_QUERY_TIMEOUT" default:"10s"`
}

// DSN returns the modernc.org/sqlite data source name with WAL, busy timeout and foreign keys.
func (c Config) DSN() string {
	return c.Path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(" + itoa(c.BusyTimeout.Milliseconds()) + ")" +
		"&_pragma=foreign_keys(ON)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_txlock=immediate"
}

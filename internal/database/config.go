package database

import (
	"database/sql"
	"fmt"
	"strings"
)

// ParseIsolation maps the DB_LEDGER_ISOLATION setting to a sql isolation level.
// Row locks taken by the ledger make read_committed sufficient; serializable
// trades throughput for retries on conflict.
func ParseIsolation(name string) (sql.IsolationLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default":
		return sql.LevelDefault, nil
	case "read_committed":
		return sql.LevelReadCommitted, nil
	case "repeatable_read":
		return sql.LevelRepeatableRead, nil
	case "serializable":
		return sql.LevelSerializable, nil
	default:
		return sql.LevelDefault, fmt.Errorf("unknown isolation level %q", name)
	}
}

package testhelpers

import (
	"context"
	"database/sql"
	"fmt"
)

// CountQuotes возвращает число сохранённых котировок сессии
func CountQuotes(db *sql.DB, sessionID string) (int, error) {
	var n int
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM trip_quotes WHERE session_id = $1", sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count quotes for session %s: %w", sessionID, err)
	}
	return n, nil
}

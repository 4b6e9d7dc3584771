// Package journal persists an append-only audit trail of order events to a
// SQLite database.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"zorrobridge/internal/domain"
)

// Event kinds recorded by the bridge.
const (
	EventSubmitted = "submitted"
	EventPolled    = "polled"
	EventCanceled  = "cancel_requested"
	EventReplaced  = "replaced"
	EventClosed    = "closed"
)

// Event is one row of the order audit trail.
type Event struct {
	SessionID     string
	At            time.Time
	TradeID       int
	BrokerOrderID string
	ClientOrderID string
	Symbol        string
	Side          domain.OrderSide
	Qty           int64
	FilledQty     int64
	AvgPrice      float64
	Status        domain.OrderStatus
	Kind          string
}

const schema = `
CREATE TABLE IF NOT EXISTS order_events (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id      TEXT NOT NULL,
	ts              INTEGER NOT NULL,
	trade_id        INTEGER NOT NULL,
	broker_order_id TEXT,
	client_order_id TEXT,
	symbol          TEXT,
	side            TEXT,
	qty             INTEGER,
	filled_qty      INTEGER,
	avg_price       REAL,
	status          TEXT,
	event           TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_order_events_trade ON order_events(trade_id);
`

// Journal is an append-only SQLite order-event log. Rows are never updated
// or deleted.
type Journal struct {
	db *sql.DB
}

// Open opens (or creates) the journal database at dbPath.
func Open(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record appends one event. A zero At is stamped with the current time.
func (j *Journal) Record(ctx context.Context, e Event) error {
	at := e.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO order_events
		(session_id, ts, trade_id, broker_order_id, client_order_id,
		 symbol, side, qty, filled_qty, avg_price, status, event)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID, at.UnixMilli(), e.TradeID, e.BrokerOrderID, e.ClientOrderID,
		e.Symbol, string(e.Side), e.Qty, e.FilledQty, e.AvgPrice, string(e.Status), e.Kind,
	)
	return err
}

// Events returns all events recorded for a trade id, oldest first.
func (j *Journal) Events(ctx context.Context, tradeID int) ([]Event, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT session_id, ts, trade_id, broker_order_id, client_order_id,
		       symbol, side, qty, filled_qty, avg_price, status, event
		FROM order_events WHERE trade_id = ? ORDER BY id`,
		tradeID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var ts int64
		var side, status string
		if err := rows.Scan(&e.SessionID, &ts, &e.TradeID, &e.BrokerOrderID, &e.ClientOrderID,
			&e.Symbol, &side, &e.Qty, &e.FilledQty, &e.AvgPrice, &status, &e.Kind); err != nil {
			return nil, err
		}
		e.At = time.UnixMilli(ts)
		e.Side = domain.OrderSide(side)
		e.Status = domain.OrderStatus(status)
		events = append(events, e)
	}
	return events, rows.Err()
}

// CountBySession returns the number of events recorded under a session id.
func (j *Journal) CountBySession(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := j.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM order_events WHERE session_id = ?`, sessionID,
	).Scan(&n)
	return n, err
}

package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Dispatch records one fired action and the outcome of executing it.
type Dispatch struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Gesture   string    `json:"gesture"`
	Action    string    `json:"action"`
	Amount    int       `json:"amount,omitempty"`
	Path      string    `json:"path,omitempty"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DispatchRepository provides access to dispatch records.
type DispatchRepository struct {
	db *sql.DB
}

// Dispatches returns the dispatch repository for this store.
func (s *Store) Dispatches() *DispatchRepository {
	return &DispatchRepository{db: s.db}
}

// Create inserts a dispatch. Missing ID and CreatedAt are filled in.
func (r *DispatchRepository) Create(d *Dispatch) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO dispatches (id, session_id, gesture, action, amount, path, success, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.SessionID, d.Gesture, d.Action, d.Amount, d.Path, d.Success, d.Error, d.CreatedAt,
	)
	return err
}

// ListBySession returns the dispatches of a session in firing order.
func (r *DispatchRepository) ListBySession(sessionID string) ([]*Dispatch, error) {
	return r.query(
		`SELECT id, session_id, gesture, action, amount, path, success, error, created_at
		 FROM dispatches WHERE session_id = ? ORDER BY created_at ASC`,
		sessionID,
	)
}

// Recent returns the latest dispatches across all sessions, newest first.
func (r *DispatchRepository) Recent(limit int) ([]*Dispatch, error) {
	return r.query(
		`SELECT id, session_id, gesture, action, amount, path, success, error, created_at
		 FROM dispatches ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
}

func (r *DispatchRepository) query(q string, args ...any) ([]*Dispatch, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dispatches []*Dispatch
	for rows.Next() {
		d := &Dispatch{}
		var success int
		if err := rows.Scan(&d.ID, &d.SessionID, &d.Gesture, &d.Action, &d.Amount, &d.Path, &success, &d.Error, &d.CreatedAt); err != nil {
			return nil, err
		}
		d.Success = success != 0
		dispatches = append(dispatches, d)
	}
	return dispatches, rows.Err()
}

package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// Event types recorded by the API layer.
const (
	TypeApplicationSubmitted = "application.submitted"
	TypeApplicationDecided   = "application.decided"
	TypeGradesSaved          = "grades.saved"
	TypeContestPublished     = "contest.published"
)

type Event struct {
	Offset    int64
	Type      string
	Key       string // natural key: applicationID or contestID
	Actor     string // user id of whoever triggered it
	DataJSON  string
	CreatedAt int64
}

type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func (r *EventRepo) Append(ctx context.Context, e Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, actor, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		e.Type, e.Key, e.Actor, e.DataJSON, time.Now().Unix())
	return err
}

// Record marshals payload and appends; audit failures are returned so the
// caller can log them, but handlers treat them as non-fatal.
func (r *EventRepo) Record(ctx context.Context, typ, key, actor string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return r.Append(ctx, Event{Type: typ, Key: key, Actor: actor, DataJSON: string(data)})
}

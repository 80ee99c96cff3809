package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/hrbot/core/dialogue"
	"github.com/m3rciful/hrbot/core/logger"
)

// TrackerStore keeps conversations in PostgreSQL. Slots live in
// conversation_slots; the event log in conversation_events keeps the newest
// historyLimit rows per sender and older rows are pruned on write.
type TrackerStore struct {
	db           *sqlx.DB
	historyLimit int
}

var _ dialogue.TrackerStore = (*TrackerStore)(nil)

// NewTrackerStore wraps an open connection.
func NewTrackerStore(db *sqlx.DB, historyLimit int) *TrackerStore {
	if historyLimit <= 0 {
		historyLimit = 100
	}
	return &TrackerStore{db: db, historyLimit: historyLimit}
}

type slotRow struct {
	Name  string `db:"name"`
	Value []byte `db:"value"`
}

type eventRow struct {
	Seq     int64  `db:"seq"`
	Payload []byte `db:"payload"`
}

const (
	selectSlotsSQL = `SELECT name, value FROM conversation_slots WHERE sender_id = $1`
	// newest rows first so LIMIT keeps the tail of the log
	selectEventsSQL = `SELECT seq, payload FROM conversation_events
		WHERE sender_id = $1 ORDER BY seq DESC LIMIT $2`
	insertEventSQL = `INSERT INTO conversation_events (event_id, sender_id, kind, payload) VALUES ($1, $2, $3, $4)`
	upsertSlotSQL  = `INSERT INTO conversation_slots (sender_id, name, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (sender_id, name) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	// removes everything older than the newest $2 rows
	pruneEventsSQL = `DELETE FROM conversation_events
		WHERE sender_id = $1 AND seq <= (
			SELECT seq FROM conversation_events
			WHERE sender_id = $1 ORDER BY seq DESC OFFSET $2 LIMIT 1)`
	deleteSlotSQL   = `DELETE FROM conversation_slots WHERE sender_id = $1 AND name = $2`
	deleteSlotsSQL  = `DELETE FROM conversation_slots WHERE sender_id = $1`
	deleteEventsSQL = `DELETE FROM conversation_events WHERE sender_id = $1`
)

// Load rebuilds the tracker from the newest events and the current slot rows.
// Both reads share one snapshot.
func (s *TrackerStore) Load(ctx context.Context, senderID string) (*dialogue.Tracker, error) {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var events []eventRow
	if err := tx.SelectContext(ctx, &events, selectEventsSQL, senderID, s.historyLimit); err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	var slots []slotRow
	if err := tx.SelectContext(ctx, &slots, selectSlotsSQL, senderID); err != nil {
		return nil, fmt.Errorf("load slots: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	t := dialogue.NewTracker(senderID)
	slices.Reverse(events)
	for _, row := range events {
		ev, err := decodeEvent(row.Payload)
		if err != nil {
			logger.Warn(ctx, logger.CompDB, "tracker.decode",
				slog.Int64("seq", row.Seq),
				slog.String("err", err.Error()),
			)
			continue
		}
		t.Apply(ev)
	}
	if err := restoreSlots(t, slots); err != nil {
		return nil, err
	}
	return t, nil
}

// Append writes events and slot changes in one transaction.
func (s *TrackerStore) Append(ctx context.Context, senderID string, events ...dialogue.Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("encode event: %w", err)
		}
		if _, err := tx.ExecContext(ctx, insertEventSQL, uuid.NewString(), senderID, ev.Event, payload); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
		if ev.Event != dialogue.EventSlot {
			continue
		}
		if ev.Value == nil {
			if _, err := tx.ExecContext(ctx, deleteSlotSQL, senderID, ev.Name); err != nil {
				return fmt.Errorf("delete slot %s: %w", ev.Name, err)
			}
			continue
		}
		value, err := json.Marshal(ev.Value)
		if err != nil {
			return fmt.Errorf("encode slot %s: %w", ev.Name, err)
		}
		if _, err := tx.ExecContext(ctx, upsertSlotSQL, senderID, ev.Name, value); err != nil {
			return fmt.Errorf("upsert slot %s: %w", ev.Name, err)
		}
	}
	res, err := tx.ExecContext(ctx, pruneEventsSQL, senderID, s.historyLimit)
	if err != nil {
		return fmt.Errorf("prune events: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 && logger.ShouldSampleDebug() {
		logger.Debug(ctx, logger.CompDB, "tracker.pruned", slog.Int64("rows", n))
	}
	return nil
}

// Reset removes every slot and event for senderID.
func (s *TrackerStore) Reset(ctx context.Context, senderID string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, deleteEventsSQL, senderID); err != nil {
		return fmt.Errorf("delete events: %w", err)
	}
	if _, err := tx.ExecContext(ctx, deleteSlotsSQL, senderID); err != nil {
		return fmt.Errorf("delete slots: %w", err)
	}
	return tx.Commit()
}

func decodeEvent(payload []byte) (dialogue.Event, error) {
	var ev dialogue.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return dialogue.Event{}, err
	}
	if ev.Event == "" {
		return dialogue.Event{}, fmt.Errorf("event kind missing")
	}
	return ev, nil
}

// restoreSlots replaces replayed slot values with the authoritative rows,
// which survive history trimming.
func restoreSlots(t *dialogue.Tracker, rows []slotRow) error {
	clear(t.Slots)
	for _, row := range rows {
		var v any
		if err := json.Unmarshal(row.Value, &v); err != nil {
			return fmt.Errorf("decode slot %s: %w", row.Name, err)
		}
		t.Slots[row.Name] = v
	}
	return nil
}

package history

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Outcome names stored in the outcome column
const (
	OutcomePlayed   = "played"
	OutcomeArgument = "argument"
	OutcomeNotFound = "not_found"
	OutcomeDecode   = "decode"
	OutcomeDevice   = "device"
	OutcomePlayback = "playback"
)

// Play is one recorded invocation
type Play struct {
	ID        int64
	StartedAt time.Time
	SessionID string
	Path      string
	Strategy  string
	MixFormat string
	Frames    int64
	Duration  time.Duration // program length
	Elapsed   time.Duration // wall time of the whole invocation
	Outcome   string
	ExitCode  int
}

// Recorder writes and reads play history
type Recorder struct {
	db *sql.DB
}

// NewRecorder creates a recorder on an open history database
func NewRecorder(db *sql.DB) *Recorder {
	return &Recorder{db: db}
}

// Record stores play and returns its row id
func (r *Recorder) Record(play Play) (int64, error) {
	if r.db == nil {
		return 0, errors.New("database connection is nil")
	}

	result, err := r.db.Exec(`
		INSERT INTO plays (started_at, session_id, path, strategy, mix_format, frames, duration_ms, elapsed_ms, outcome, exit_code)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		play.StartedAt.UnixMilli(),
		play.SessionID,
		play.Path,
		play.Strategy,
		play.MixFormat,
		play.Frames,
		play.Duration.Milliseconds(),
		play.Elapsed.Milliseconds(),
		play.Outcome,
		play.ExitCode,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert play: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read play id: %w", err)
	}

	slog.Debug("play recorded",
		"id", id,
		"session_id", play.SessionID,
		"outcome", play.Outcome,
		"exit_code", play.ExitCode)

	return id, nil
}

// Recent returns plays matching filter, newest first
func (r *Recorder) Recent(filter QueryFilter) ([]Play, error) {
	if r.db == nil {
		return nil, errors.New("database connection is nil")
	}

	query := `
		SELECT id, started_at, session_id, path, COALESCE(strategy, ''), COALESCE(mix_format, ''),
			frames, duration_ms, elapsed_ms, outcome, exit_code
		FROM plays`

	whereClause, args, err := filter.BuildWhereClause(time.Now())
	if err != nil {
		return nil, err
	}
	if whereClause != "" {
		query += " WHERE " + whereClause
	}
	query += " ORDER BY started_at DESC, id DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	query += fmt.Sprintf(" LIMIT %d", limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query plays: %w", err)
	}
	defer rows.Close()

	var plays []Play
	for rows.Next() {
		var play Play
		var startedMs, durationMs, elapsedMs int64
		err := rows.Scan(&play.ID, &startedMs, &play.SessionID, &play.Path, &play.Strategy, &play.MixFormat,
			&play.Frames, &durationMs, &elapsedMs, &play.Outcome, &play.ExitCode)
		if err != nil {
			return nil, fmt.Errorf("failed to scan play row: %w", err)
		}
		play.StartedAt = time.UnixMilli(startedMs)
		play.Duration = time.Duration(durationMs) * time.Millisecond
		play.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		plays = append(plays, play)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating play rows: %w", err)
	}

	slog.Debug("queried plays", "count", len(plays), "limit", limit)
	return plays, nil
}

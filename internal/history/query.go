package history

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tj/go-naturaldate"
)

// DefaultLimit is the row count returned when a filter sets none
const DefaultLimit = 20

// QueryFilter narrows a history listing
type QueryFilter struct {
	Since   string // preset (today, yesterday, week, month, all) or natural language date
	Outcome string
	Path    string
	Limit   int
}

// SinceTime resolves Since against now. The zero time means no lower bound.
func (q *QueryFilter) SinceTime(now time.Time) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(q.Since)) {
	case "", "all", "all-time":
		return time.Time{}, nil
	case "today":
		return beginningOfDay(now), nil
	case "yesterday":
		return beginningOfDay(now.AddDate(0, 0, -1)), nil
	case "week", "this-week":
		return beginningOfWeek(now), nil
	case "month", "this-month":
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), nil
	}

	result, err := naturaldate.Parse(q.Since, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse natural date '%s': %w", q.Since, err)
	}

	slog.Debug("parsed natural language date", "input", q.Since, "result", result)
	return result, nil
}

// BuildWhereClause constructs the SQL WHERE clause and its arguments
func (q *QueryFilter) BuildWhereClause(now time.Time) (string, []any, error) {
	var clauses []string
	var args []any

	since, err := q.SinceTime(now)
	if err != nil {
		return "", nil, err
	}
	if !since.IsZero() {
		clauses = append(clauses, "started_at >= ?")
		args = append(args, since.UnixMilli())
	}

	if q.Outcome != "" {
		clauses = append(clauses, "outcome = ?")
		args = append(args, q.Outcome)
	}

	if q.Path != "" {
		clauses = append(clauses, "path = ?")
		args = append(args, q.Path)
	}

	return strings.Join(clauses, " AND "), args, nil
}

// beginningOfDay returns time at start of day (00:00:00)
func beginningOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// beginningOfWeek returns time at start of week (Monday 00:00:00)
func beginningOfWeek(t time.Time) time.Time {
	weekday := t.Weekday()
	if weekday == time.Sunday {
		weekday = 7
	}
	return beginningOfDay(t.AddDate(0, 0, -int(weekday-1)))
}

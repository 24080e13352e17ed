package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rcliao/ideas-catalog/internal/model"
)

// EventParams holds parameters for querying ledger events.
type EventParams struct {
	RunID     string
	Kind      string
	Query     string // substring of title, identifier or file
	SkipsOnly bool
	Limit     int // 0 means 500, negative means no limit
}

// Events returns matching events in recording order. Without a run id,
// events from all runs are searched, newest run first.
func (s *SQLiteStore) Events(ctx context.Context, p EventParams) ([]model.Event, error) {
	limit := p.Limit
	if limit == 0 {
		limit = 500
	} else if limit < 0 {
		limit = -1
	}

	where := []string{"1 = 1"}
	args := []interface{}{}

	if p.RunID != "" {
		where = append(where, "e.run_id = ?")
		args = append(args, p.RunID)
	}
	if p.Kind != "" {
		where = append(where, "e.kind = ?")
		args = append(args, p.Kind)
	}
	if p.SkipsOnly {
		where = append(where, "e.kind <> ?")
		args = append(args, model.EventUpdated)
	}
	if p.Query != "" {
		q := "%" + p.Query + "%"
		where = append(where, "(e.title LIKE ? OR e.identifier LIKE ? OR e.file LIKE ?)")
		args = append(args, q, q, q)
	}

	query := fmt.Sprintf(`
		SELECT e.run_id, e.seq, e.kind, e.title, e.identifier, e.file, e.score, e.line, e.detail, e.fields
		FROM events e
		INNER JOIN runs r ON r.id = e.run_id
		WHERE %s
		ORDER BY r.started_at DESC, r.id DESC, e.seq ASC
		LIMIT ?`, strings.Join(where, " AND "))
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func scanEvent(row scanner) (model.Event, error) {
	var e model.Event
	var title, identifier, file, detail, fields sql.NullString
	var score, line sql.NullInt64

	err := row.Scan(&e.RunID, &e.Seq, &e.Kind, &title, &identifier, &file, &score, &line, &detail, &fields)
	if err != nil {
		return e, err
	}
	e.Title = title.String
	e.Identifier = identifier.String
	e.File = file.String
	e.Detail = detail.String
	e.Score = int(score.Int64)
	e.Line = int(line.Int64)
	if fields.Valid && fields.String != "" {
		e.Fields = strings.Split(fields.String, ",")
	}
	return e, nil
}

package store

import (
	"context"
	"os"
)

// Stats holds ledger statistics.
type Stats struct {
	DBPath      string         `json:"db_path"`
	DBSizeBytes int64          `json:"db_size_bytes"`
	TotalRuns   int            `json:"total_runs"`
	OpenRuns    int            `json:"open_runs"`
	TotalEvents int            `json:"total_events"`
	Commands    []CommandStats `json:"commands"`
	Kinds       []KindStats    `json:"kinds"`
}

// CommandStats holds per-command run counts.
type CommandStats struct {
	Command string `json:"command"`
	Runs    int    `json:"runs"`
	Updated int    `json:"updated"`
	Skipped int    `json:"skipped"`
}

// KindStats holds per-kind event counts.
type KindStats struct {
	Kind  string `json:"kind"`
	Count int    `json:"count"`
}

// Stats returns ledger statistics.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath}

	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&st.TotalRuns)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE finished_at IS NULL`).Scan(&st.OpenRuns)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&st.TotalEvents)

	rows, err := s.db.QueryContext(ctx, `
		SELECT command, COUNT(*) AS cnt, COALESCE(SUM(updated), 0), COALESCE(SUM(skipped), 0)
		FROM runs GROUP BY command ORDER BY cnt DESC, command`)
	if err != nil {
		return st, err
	}
	for rows.Next() {
		var c CommandStats
		rows.Scan(&c.Command, &c.Runs, &c.Updated, &c.Skipped)
		st.Commands = append(st.Commands, c)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `
		SELECT kind, COUNT(*) AS cnt FROM events GROUP BY kind ORDER BY cnt DESC, kind`)
	if err != nil {
		return st, err
	}
	defer rows.Close()
	for rows.Next() {
		var k KindStats
		rows.Scan(&k.Kind, &k.Count)
		st.Kinds = append(st.Kinds, k)
	}

	return st, nil
}

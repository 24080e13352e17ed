package store

import (
	"context"

	"github.com/rcliao/ideas-catalog/internal/model"
)

// RunExport is a run with its full event list.
type RunExport struct {
	Run    model.Run     `json:"run"`
	Events []model.Event `json:"events"`
}

// Export returns a run and every event recorded for it. An empty id selects
// the latest run.
func (s *SQLiteStore) Export(ctx context.Context, runID string) (*RunExport, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	events, err := s.Events(ctx, EventParams{RunID: run.ID, Limit: -1})
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []model.Event{}
	}
	return &RunExport{Run: *run, Events: events}, nil
}

// Skips returns only the skip events of a run.
func (e *RunExport) Skips() []model.Event {
	var out []model.Event
	for _, ev := range e.Events {
		if ev.IsSkip() {
			out = append(out, ev)
		}
	}
	return out
}

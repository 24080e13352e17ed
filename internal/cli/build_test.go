package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rcliao/ideas-catalog/internal/model"
)

func TestAppendOutcomesFoldsByTitle(t *testing.T) {
	got := appendOutcomes(
		[]model.Outcome{{Title: "A", File: "a.pdf", Changed: []string{"date"}}},
		[]model.Outcome{{Title: "A", Changed: []string{"locked"}}, {Title: "B", Changed: []string{"priority"}}},
	)
	assert.Equal(t, []model.Outcome{
		{Title: "A", File: "a.pdf", Changed: []string{"date", "locked"}},
		{Title: "B", Changed: []string{"priority"}},
	}, got)
}

func TestDuration(t *testing.T) {
	assert.Equal(t, "open", duration(model.Run{}))
}

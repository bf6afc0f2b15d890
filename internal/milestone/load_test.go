package milestone

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"milestones/internal/model"
)

func TestIsDone(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{"done", true},
		{"DONE", true},
		{"Erledigt", true},
		{"true", true},
		{"Yes", true},
		{"x", true},
		{"X", true},
		{"1", true},
		{"", false},
		{"open", false},
		{" Done", false},
		{"X ", false},
		{"0", false},
		{"no", false},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDone(tt.status))
		})
	}
}

func TestLoadScenarioA(t *testing.T) {
	events, err := Load([]model.Record{
		{Line: 1, Date: "2024-02-23", Description: "Genehmigung der DA", Status: "done"},
		{Line: 2, Date: "2024-05-01", Description: "Kickoff", Status: "open"},
	})
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "Genehmigung der DA", events[0].Label)
	assert.True(t, events[0].Done)
	assert.Equal(t, 2024, events[0].Year())
	assert.Equal(t, "Kickoff", events[1].Label)
	assert.False(t, events[1].Done)
	assert.False(t, events[0].HasLane())
}

func TestLoadSortsStable(t *testing.T) {
	events, err := Load([]model.Record{
		{Line: 1, Date: "2025-01-10", Description: "c"},
		{Line: 2, Date: "2024-03-01", Description: "a1"},
		{Line: 3, Date: "2024-12-31", Description: "b"},
		{Line: 4, Date: "2024-03-01", Description: "a2"},
		{Line: 5, Date: "2024-03-01", Description: "a3"},
	})
	require.NoError(t, err)

	var labels []string
	for _, e := range events {
		labels = append(labels, e.Label)
	}
	assert.Equal(t, []string{"a1", "a2", "a3", "b", "c"}, labels)
	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].Date.Before(events[i-1].Date))
	}
}

func TestLoadTrimsDescriptionOnly(t *testing.T) {
	events, err := Load([]model.Record{
		{Line: 1, Date: "2024-01-01", Description: "  padded label \t", Status: " done"},
		{Line: 2, Date: "2024-01-02", Description: "   ", Status: "x"},
	})
	require.NoError(t, err)

	assert.Equal(t, "padded label", events[0].Label)
	assert.False(t, events[0].Done)
	assert.Equal(t, "", events[1].Label)
	assert.True(t, events[1].Done)
}

func TestLoadRejectsBadDates(t *testing.T) {
	tests := []struct {
		name string
		date string
	}{
		{"invalid month", "2024-13-01"},
		{"invalid day", "2023-02-29"},
		{"short month", "2024-2-01"},
		{"slashes", "2024/02/01"},
		{"time suffix", "2024-02-01T10:00"},
		{"surrounding space", " 2024-02-01"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]model.Record{
				{Line: 1, Date: "2024-01-01", Description: "ok"},
				{Line: 7, Date: tt.date, Description: "bad"},
			})
			require.Error(t, err)

			var pe *model.ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, 7, pe.Line)
			assert.Equal(t, "date", pe.Field)
			assert.Equal(t, tt.date, pe.Value)
		})
	}
}

func TestLoadAcceptsLeapDay(t *testing.T) {
	events, err := Load([]model.Record{{Line: 1, Date: "2024-02-29", Description: "leap"}})
	require.NoError(t, err)
	assert.Equal(t, 29, events[0].Date.Day())
}

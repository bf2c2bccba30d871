package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampLimit(t *testing.T) {
	tests := []struct {
		name     string
		limit    int
		expected int
	}{
		{"zero uses default", 0, DefaultLimit},
		{"negative uses default", -5, DefaultLimit},
		{"one passes through", 1, 1},
		{"within range passes through", 120, 120},
		{"max passes through", MaxLimit, MaxLimit},
		{"above max clamps", 1000, MaxLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClampLimit(tt.limit))
		})
	}
}

func TestTop_TieBrokenByStreakThenName(t *testing.T) {
	entries := []Entry{
		{PlayerID: "p-a", DisplayName: "A", TotalPoints: 50, StreakDays: 3},
		{PlayerID: "p-b", DisplayName: "B", TotalPoints: 50, StreakDays: 5},
		{PlayerID: "p-c", DisplayName: "C", TotalPoints: 10, StreakDays: 9},
	}

	top := Top(entries, 2)

	assert.Len(t, top, 2)
	assert.Equal(t, "B", top[0].DisplayName)
	assert.Equal(t, "A", top[1].DisplayName)
}

func TestSort_DeterministicOrder(t *testing.T) {
	entries := []Entry{
		{PlayerID: "p-1", DisplayName: "zoe", TotalPoints: 40, StreakDays: 2},
		{PlayerID: "p-2", DisplayName: "amy", TotalPoints: 40, StreakDays: 2},
		{PlayerID: "p-3", DisplayName: "bob", TotalPoints: 40, StreakDays: 7},
		{PlayerID: "p-4", DisplayName: "cat", TotalPoints: 90, StreakDays: 0},
		{PlayerID: "p-5", DisplayName: "dan", TotalPoints: 0, StreakDays: 30},
	}

	Sort(entries)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.DisplayName)
	}
	assert.Equal(t, []string{"cat", "bob", "amy", "zoe", "dan"}, names)
}

func TestTop_LimitLargerThanEntries(t *testing.T) {
	entries := []Entry{
		{PlayerID: "p-1", DisplayName: "only", TotalPoints: 5, StreakDays: 1},
	}

	top := Top(entries, 50)

	assert.Len(t, top, 1)
}

func TestTop_EmptyInput(t *testing.T) {
	top := Top(nil, 10)
	assert.Empty(t, top)
}

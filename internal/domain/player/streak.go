package player

import (
	"github.com/quizhub/daily-quiz-hub/pkg/datekey"
)

// NextStreak returns the streak value a completion on dateKey produces:
// the current streak plus one when the last completed day is the calendar
// day immediately before dateKey, otherwise 1. A nil ledger (fresh
// player) always starts at 1.
func NextStreak(l *Ledger, dateKey string) int {
	if l == nil || l.LastCompletedDateKey == "" {
		return 1
	}
	if l.LastCompletedDateKey == datekey.Previous(dateKey) {
		return l.StreakDays + 1
	}
	return 1
}

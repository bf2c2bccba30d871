package player

// The points resolver is the single place that absorbs the dual
// totalPoints/wallet representation. Every other component operates on
// the one canonical numeric value it produces.

// ResolvePoints returns the player's current point total: the canonical
// TotalPoints field when it holds a numeric value (numeric strings
// coerced), otherwise the legacy Wallet coerced, otherwise 0.
func ResolvePoints(l *Ledger) int64 {
	if l == nil {
		return 0
	}
	if n, ok := l.TotalPoints.Coerce(); ok {
		return n
	}
	if n, ok := l.Wallet.Coerce(); ok {
		return n
	}
	return 0
}

// LeaderboardPoints is the resolver result for leaderboard reads.
type LeaderboardPoints struct {
	// TotalPoints is the resolved point total.
	TotalPoints int64

	// BackfilledFromWallet is true when the canonical field was missing
	// or blank and the value came from the legacy wallet, so the caller
	// can self-heal storage.
	BackfilledFromWallet bool
}

// ResolveLeaderboardPoints resolves points exactly like ResolvePoints but
// flags values that came from the legacy fallback.
func ResolveLeaderboardPoints(l *Ledger) LeaderboardPoints {
	if l == nil {
		return LeaderboardPoints{}
	}
	if n, ok := l.TotalPoints.Coerce(); ok {
		return LeaderboardPoints{TotalPoints: n}
	}
	if n, ok := l.Wallet.Coerce(); ok {
		return LeaderboardPoints{TotalPoints: n, BackfilledFromWallet: true}
	}
	return LeaderboardPoints{}
}

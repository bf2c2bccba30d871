package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/quizhub/daily-quiz-hub/internal/domain/completion"
	"github.com/quizhub/daily-quiz-hub/internal/domain/player"
	"github.com/quizhub/daily-quiz-hub/internal/domain/shared"
	"github.com/quizhub/daily-quiz-hub/pkg/logger"
	"github.com/quizhub/daily-quiz-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEDGER REPOSITORY
// Implements player.LedgerRepository. The award path runs DecideCompletion
// inside one serializable transaction over the completions and players
// tables; serialization conflicts and duplicate-key races are retried until
// one caller wins and the rest observe the committed completion.
// ══════════════════════════════════════════════════════════════════════════════

// LedgerRepo is the PostgreSQL ledger store.
type LedgerRepo struct {
	conn     *Connection
	log      *logger.Logger
	retryCfg retry.Config
}

// NewLedgerRepo creates a new LedgerRepo.
func NewLedgerRepo(conn *Connection, log *logger.Logger) *LedgerRepo {
	cfg := retry.DefaultConfig()
	cfg.RetryIf = func(err error) bool {
		return IsSerializationFailure(err) || IsUniqueViolation(err)
	}

	return &LedgerRepo{
		conn:     conn,
		log:      log.With(logger.Component("ledger_repo")),
		retryCfg: cfg,
	}
}

const ledgerColumns = `id, display_name, username, total_points, wallet, streak_days, last_completed_date, created_at, updated_at`

// GetLedger returns a player's ledger, or shared.ErrPlayerNotFound.
func (r *LedgerRepo) GetLedger(ctx context.Context, playerID string) (*player.Ledger, error) {
	row := r.conn.QueryRow(ctx,
		`SELECT `+ledgerColumns+` FROM players WHERE id = $1`, playerID)

	ledger, err := scanLedger(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("postgres: get ledger: %w", err)
	}
	return ledger, nil
}

// RecordCompletion applies a completion atomically across both tables.
func (r *LedgerRepo) RecordCompletion(ctx context.Context, req player.CompletionRequest) (*player.RecordOutcome, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var outcome *player.RecordOutcome

	err := retry.Do(ctx, r.retryCfg, func(ctx context.Context) error {
		return r.conn.WithTx(ctx, SerializableTxOptions(), func(tx pgx.Tx) error {
			existing, err := getCompletionTx(ctx, tx, req.PlayerID, req.DateKey)
			if err != nil {
				return err
			}

			current, err := getLedgerTx(ctx, tx, req.PlayerID)
			if err != nil {
				return err
			}

			decision, err := player.DecideCompletion(existing, current, req, time.Now().UTC())
			if err != nil {
				return retry.Permanent(err)
			}

			if !decision.AlreadyCompleted {
				if err := insertCompletionTx(ctx, tx, decision.Completion); err != nil {
					return err
				}
				if err := upsertLedgerTx(ctx, tx, decision.Ledger); err != nil {
					return err
				}
			}

			outcome = decision.Outcome()
			return nil
		})
	})
	if err != nil {
		if IsSerializationFailure(err) || IsUniqueViolation(err) {
			return nil, shared.WrapError("completion", "Record", shared.ErrConcurrentModification,
				"completion conflict not resolved after retries", err)
		}
		return nil, err
	}

	return outcome, nil
}

// ListLedgers returns every ledger record. The scan is unindexed by design:
// rankings always reflect the full population.
func (r *LedgerRepo) ListLedgers(ctx context.Context) ([]*player.Ledger, error) {
	rows, err := r.conn.Query(ctx, `SELECT `+ledgerColumns+` FROM players`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list ledgers: %w", err)
	}
	defer rows.Close()

	ledgers := make([]*player.Ledger, 0)
	for rows.Next() {
		ledger, err := scanLedger(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan ledger: %w", err)
		}
		ledgers = append(ledgers, ledger)
	}

	return ledgers, rows.Err()
}

// BackfillTotalPoints writes the canonical total for a player whose
// canonical field is missing or non-numeric. The WHERE guard makes the
// write a no-op when another writer already canonicalized the field.
func (r *LedgerRepo) BackfillTotalPoints(ctx context.Context, playerID string, totalPoints int64) error {
	tag, err := r.conn.Exec(ctx, `
		UPDATE players
		   SET total_points = to_jsonb($2::bigint),
		       updated_at = NOW()
		 WHERE id = $1
		   AND (total_points IS NULL OR jsonb_typeof(total_points) <> 'number')`,
		playerID, totalPoints)
	if err != nil {
		return fmt.Errorf("postgres: backfill total points: %w", err)
	}

	if tag.RowsAffected() == 0 {
		r.log.Debug("backfill skipped, canonical total already present",
			logger.PlayerID(playerID))
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// TRANSACTION HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func getCompletionTx(ctx context.Context, tx pgx.Tx, playerID, dateKey string) (*completion.Completion, error) {
	row := tx.QueryRow(ctx, `
		SELECT player_id, date_key, points_awarded, created_at
		  FROM completions
		 WHERE player_id = $1 AND date_key = $2`,
		playerID, dateKey)

	var rec completion.Completion
	err := row.Scan(&rec.PlayerID, &rec.DateKey, &rec.PointsAwarded, &rec.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get completion: %w", err)
	}
	return &rec, nil
}

func getLedgerTx(ctx context.Context, tx pgx.Tx, playerID string) (*player.Ledger, error) {
	row := tx.QueryRow(ctx,
		`SELECT `+ledgerColumns+` FROM players WHERE id = $1`, playerID)

	ledger, err := scanLedger(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ledger: %w", err)
	}
	return ledger, nil
}

func insertCompletionTx(ctx context.Context, tx pgx.Tx, rec *completion.Completion) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO completions (player_id, date_key, points_awarded, created_at)
		VALUES ($1, $2, $3, $4)`,
		rec.PlayerID, rec.DateKey, rec.PointsAwarded, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert completion: %w", err)
	}
	return nil
}

func upsertLedgerTx(ctx context.Context, tx pgx.Tx, l *player.Ledger) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO players (id, display_name, username, total_points, wallet, streak_days, last_completed_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
		    display_name = EXCLUDED.display_name,
		    username = EXCLUDED.username,
		    total_points = EXCLUDED.total_points,
		    wallet = EXCLUDED.wallet,
		    streak_days = EXCLUDED.streak_days,
		    last_completed_date = EXCLUDED.last_completed_date,
		    updated_at = EXCLUDED.updated_at`,
		l.PlayerID,
		nullableText(l.DisplayName),
		nullableText(l.Username),
		jsonbValue(l.TotalPoints),
		jsonbValue(l.Wallet),
		l.StreakDays,
		nullableText(l.LastCompletedDateKey),
		l.CreatedAt,
		l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert ledger: %w", err)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SCAN HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func scanLedger(row pgx.Row) (*player.Ledger, error) {
	var (
		l           player.Ledger
		displayName *string
		username    *string
		totalPoints []byte
		wallet      []byte
		lastDate    *string
	)

	err := row.Scan(
		&l.PlayerID,
		&displayName,
		&username,
		&totalPoints,
		&wallet,
		&l.StreakDays,
		&lastDate,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if displayName != nil {
		l.DisplayName = *displayName
	}
	if username != nil {
		l.Username = *username
	}
	if lastDate != nil {
		l.LastCompletedDateKey = *lastDate
	}
	l.TotalPoints = player.PointRaw(totalPoints)
	l.Wallet = player.PointRaw(wallet)

	return &l, nil
}

// nullableText maps empty strings to SQL NULL.
func nullableText(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// jsonbValue maps an absent point field to SQL NULL.
func jsonbValue(v player.PointValue) interface{} {
	raw := v.Raw()
	if raw == nil {
		return nil
	}
	return []byte(raw)
}

package projection

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// ProjectionOutput mirrors the data needed by projection workers.
// The orchestrator bridges between core.CoreOutput and this.
type ProjectionOutput struct {
	Sequence       int64
	EventType      string
	Asset          *string
	JournalEntries []JournalEntry
	Price          *PriceHistoryEntry
	Liquidation    *LiquidationHistoryEntry
	Timestamp      int64
}

// JournalEntry is a simplified journal for projection consumption.
type JournalEntry struct {
	DebitAccount  string
	CreditAccount string
	AssetID       uint16
	Amount        int64
	JournalType   int32
}

// ProjectionWorker updates projection tables from processed events.
// The projection channel is non-blocking with drop: if projections fall
// behind, they can be rebuilt from the event log.
type ProjectionWorker struct {
	db        *sql.DB
	inputChan <-chan ProjectionOutput
	lastSeq   int64
	logger    zerolog.Logger
}

func NewProjectionWorker(db *sql.DB, inputChan <-chan ProjectionOutput, logger zerolog.Logger) *ProjectionWorker {
	return &ProjectionWorker{
		db:        db,
		inputChan: inputChan,
		logger:    logger,
	}
}

// Run starts the projection worker loop.
func (pw *ProjectionWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case output, ok := <-pw.inputChan:
			if !ok {
				return nil
			}

			if err := pw.processOutput(ctx, output); err != nil {
				pw.logger.Warn().
					Int64("sequence", output.Sequence).
					Err(err).
					Msg("projection update failed")
				// Continue: projections are eventually consistent
				// and can be rebuilt from the event log
			}

			pw.lastSeq = output.Sequence
		}
	}
}

func (pw *ProjectionWorker) processOutput(ctx context.Context, output ProjectionOutput) error {
	tx, err := pw.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Update balance projections from journal entries
	for _, j := range output.JournalEntries {
		if err := pw.updateBalanceProjection(ctx, tx, j, output.Sequence); err != nil {
			return fmt.Errorf("balance projection: %w", err)
		}
	}

	if output.Price != nil {
		if err := pw.insertPriceHistory(ctx, tx, output.Price); err != nil {
			return fmt.Errorf("price history: %w", err)
		}
	}

	if output.Liquidation != nil {
		if err := pw.insertLiquidationHistory(ctx, tx, output.Liquidation); err != nil {
			return fmt.Errorf("liquidation history: %w", err)
		}
	}

	// Update projection watermark
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO projections.watermark (worker_id, last_sequence, updated_at)
		VALUES ('main', $1, NOW())
		ON CONFLICT (worker_id) DO UPDATE SET last_sequence = $1, updated_at = NOW()
	`, output.Sequence); err != nil {
		return fmt.Errorf("watermark update: %w", err)
	}

	return tx.Commit()
}

// updateBalanceProjection applies one journal to projections.balances.
// Sign convention matches the in-memory tracker: debit increases,
// credit decreases, so every asset sums to zero across accounts.
func (pw *ProjectionWorker) updateBalanceProjection(ctx context.Context, tx *sql.Tx, j JournalEntry, seq int64) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO projections.balances (account_path, asset_id, balance, last_sequence)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account_path, asset_id)
		DO UPDATE SET balance = projections.balances.balance + $3, last_sequence = $4
	`, j.DebitAccount, j.AssetID, j.Amount, seq); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO projections.balances (account_path, asset_id, balance, last_sequence)
		VALUES ($1, $2, -$3, $4)
		ON CONFLICT (account_path, asset_id)
		DO UPDATE SET balance = projections.balances.balance - $3, last_sequence = $4
	`, j.CreditAccount, j.AssetID, j.Amount, seq); err != nil {
		return err
	}

	return nil
}

func (pw *ProjectionWorker) insertPriceHistory(ctx context.Context, tx *sql.Tx, p *PriceHistoryEntry) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO projections.price_history (asset, source, price, sampled_at, sequence)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (asset, sequence) DO NOTHING
	`, p.Asset, p.Source, p.Price, p.SampledAt, p.Sequence)
	return err
}

func (pw *ProjectionWorker) insertLiquidationHistory(ctx context.Context, tx *sql.Tx, l *LiquidationHistoryEntry) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO projections.liquidation_history
			(liquidation_id, obligation_id, liquidator_id, seize_asset, repaid, seized, residual_debt, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (liquidation_id) DO NOTHING
	`, l.LiquidationID, l.ObligationID, l.LiquidatorID, l.SeizeAsset,
		l.Repaid, l.Seized, l.ResidualDebt, l.Timestamp)
	return err
}

// RebuildProjections rebuilds the balance projection from the event log.
// Price and liquidation history are append-only and keyed on conflict,
// so they survive a rebuild untouched.
func RebuildProjections(ctx context.Context, db *sql.DB, logger zerolog.Logger) error {
	truncateStatements := []string{
		`TRUNCATE projections.balances`,
		`DELETE FROM projections.watermark WHERE worker_id = 'main'`,
	}

	for _, stmt := range truncateStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("truncate failed: %w", err)
		}
	}

	// Debit side adds
	_, err := db.ExecContext(ctx, `
		INSERT INTO projections.balances (account_path, asset_id, balance, last_sequence)
		SELECT
			debit_account AS account_path,
			asset_id,
			SUM(amount) AS balance,
			MAX(sequence) AS last_sequence
		FROM event_log.journal
		GROUP BY debit_account, asset_id
		ON CONFLICT (account_path, asset_id) DO UPDATE
			SET balance = EXCLUDED.balance, last_sequence = EXCLUDED.last_sequence
	`)
	if err != nil {
		return fmt.Errorf("rebuild debit balances: %w", err)
	}

	// Credit side subtracts
	_, err = db.ExecContext(ctx, `
		INSERT INTO projections.balances (account_path, asset_id, balance, last_sequence)
		SELECT
			credit_account AS account_path,
			asset_id,
			-SUM(amount) AS balance,
			MAX(sequence) AS last_sequence
		FROM event_log.journal
		GROUP BY credit_account, asset_id
		ON CONFLICT (account_path, asset_id) DO UPDATE
			SET balance = projections.balances.balance + EXCLUDED.balance,
			    last_sequence = GREATEST(projections.balances.last_sequence, EXCLUDED.last_sequence)
	`)
	if err != nil {
		return fmt.Errorf("rebuild credit balances: %w", err)
	}

	logger.Info().Msg("projection rebuild complete")
	return nil
}

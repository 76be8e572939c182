package query

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// QueryService provides read-only access to projection tables.
// Queries are served via gRPC and HTTP/JSON (gRPC-Gateway), reading from
// PostgreSQL projection tables. All responses include as_of_sequence for
// freshness semantics.
type QueryService struct {
	db *sql.DB
}

func NewQueryService(db *sql.DB) *QueryService {
	return &QueryService{db: db}
}

// GetObligation returns a user's collateral balances and debt principal.
// Accrued interest lives in the core's scaled-debt model; the projected
// debt account tracks disbursed principal only.
func (qs *QueryService) GetObligation(
	ctx context.Context,
	userID uuid.UUID,
) (*ObligationResponse, error) {
	asOfSeq, err := qs.getWatermark(ctx)
	if err != nil {
		return nil, fmt.Errorf("watermark: %w", err)
	}

	collateralPrefix := fmt.Sprintf("user:%s:collateral:%%", userID)
	rows, err := qs.db.QueryContext(ctx, `
		SELECT account_path, balance FROM projections.balances
		WHERE account_path LIKE $1
	`, collateralPrefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	collaterals := make(map[string]int64)
	for rows.Next() {
		var path string
		var balance int64
		if err := rows.Scan(&path, &balance); err != nil {
			return nil, err
		}
		// account_path is user:<uuid>:collateral:<asset>
		idx := strings.LastIndex(path, ":")
		if idx < 0 {
			continue
		}
		collaterals[path[idx+1:]] = balance
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	debtPath := fmt.Sprintf("user:%s:debt:USDC", userID)
	debt, err := qs.getProjectedBalance(ctx, debtPath)
	if err != nil {
		return nil, err
	}

	return &ObligationResponse{
		UserID:       userID,
		Collaterals:  collaterals,
		Debt:         debt,
		AsOfSequence: asOfSeq,
	}, nil
}

// GetPool returns a pool's projected cash and fee reserves.
func (qs *QueryService) GetPool(
	ctx context.Context,
	asset string,
) (*PoolResponse, error) {
	asOfSeq, err := qs.getWatermark(ctx)
	if err != nil {
		return nil, err
	}

	cash, err := qs.getProjectedBalance(ctx, fmt.Sprintf("system:pool_cash:%s", asset))
	if err != nil {
		return nil, err
	}

	fees, err := qs.getProjectedBalance(ctx, fmt.Sprintf("system:fees:%s", asset))
	if err != nil {
		return nil, err
	}

	return &PoolResponse{
		Asset:        asset,
		Cash:         cash,
		FeeReserves:  fees,
		AsOfSequence: asOfSeq,
	}, nil
}

// GetPriceHistory returns validated oracle prices for an asset,
// newest first, with cursor-based pagination.
func (qs *QueryService) GetPriceHistory(
	ctx context.Context,
	asset string,
	limit int,
	beforeSequence *int64,
) ([]PriceHistoryResponse, error) {
	query := `
		SELECT asset, source, price, sampled_at, sequence
		FROM projections.price_history
		WHERE asset = $1
	`
	args := []interface{}{asset}
	argIdx := 2

	if beforeSequence != nil {
		query += fmt.Sprintf(" AND sequence < $%d", argIdx)
		args = append(args, *beforeSequence)
		argIdx++
	}

	query += " ORDER BY sequence DESC"
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, limit)

	rows, err := qs.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []PriceHistoryResponse
	for rows.Next() {
		var h PriceHistoryResponse
		if err := rows.Scan(&h.Asset, &h.Source, &h.Price, &h.SampledAt, &h.Sequence); err != nil {
			return nil, err
		}
		history = append(history, h)
	}

	return history, rows.Err()
}

// GetLiquidationHistory returns completed liquidations for an obligation,
// newest first.
func (qs *QueryService) GetLiquidationHistory(
	ctx context.Context,
	obligationID uuid.UUID,
	limit int,
) ([]LiquidationHistoryResponse, error) {
	rows, err := qs.db.QueryContext(ctx, `
		SELECT liquidation_id, obligation_id, liquidator_id, seize_asset,
		       repaid, seized, residual_debt, timestamp
		FROM projections.liquidation_history
		WHERE obligation_id = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`, obligationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []LiquidationHistoryResponse
	for rows.Next() {
		var r LiquidationHistoryResponse
		if err := rows.Scan(
			&r.LiquidationID, &r.ObligationID, &r.LiquidatorID, &r.SeizeAsset,
			&r.Repaid, &r.Seized, &r.ResidualDebt, &r.Timestamp,
		); err != nil {
			return nil, err
		}
		results = append(results, r)
	}

	return results, rows.Err()
}

// GetHealth returns obligation health metrics for a user.
// This is a simplified version; production health computation uses the
// in-memory state from the core (via a read-only snapshot) rather than
// projections, to ensure consistency with liquidation decisions.
func (qs *QueryService) GetHealth(
	ctx context.Context,
	userID uuid.UUID,
) (*HealthInfo, error) {
	asOfSeq, err := qs.getWatermark(ctx)
	if err != nil {
		return nil, err
	}

	debtPath := fmt.Sprintf("user:%s:debt:USDC", userID)
	debt, err := qs.getProjectedBalance(ctx, debtPath)
	if err != nil {
		return nil, err
	}

	return &HealthInfo{
		UserID:       userID,
		Debt:         debt,
		AsOfSequence: asOfSeq,
	}, nil
}

// GetJournalHistory returns journal entries for a user with pagination.
func (qs *QueryService) GetJournalHistory(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
	afterSequence *int64,
) ([]JournalHistoryEntry, error) {
	accountPrefix := fmt.Sprintf("user:%s:%%", userID)

	query := `
		SELECT journal_id, batch_id, event_ref, sequence,
		       debit_account, credit_account, asset_id, amount, journal_type, timestamp
		FROM event_log.journal
		WHERE debit_account LIKE $1 OR credit_account LIKE $1
	`
	args := []interface{}{accountPrefix}
	argIdx := 2

	if afterSequence != nil {
		query += fmt.Sprintf(" AND sequence < $%d", argIdx)
		args = append(args, *afterSequence)
		argIdx++
	}

	query += " ORDER BY sequence DESC"
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, limit)

	rows, err := qs.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []JournalHistoryEntry
	for rows.Next() {
		var e JournalHistoryEntry
		if err := rows.Scan(
			&e.JournalID, &e.BatchID, &e.EventRef, &e.Sequence,
			&e.DebitAccount, &e.CreditAccount, &e.AssetID, &e.Amount,
			&e.JournalType, &e.Timestamp,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// --- Admin APIs ---

// VerifyIntegrity checks hash chain and global balance invariants.
func (qs *QueryService) VerifyIntegrity(ctx context.Context) (*IntegrityReport, error) {
	report := &IntegrityReport{}

	// Check hash chain continuity
	rows, err := qs.db.QueryContext(ctx, `
		SELECT e1.sequence, e1.prev_hash, e2.state_hash
		FROM event_log.events e1
		LEFT JOIN event_log.events e2 ON e2.sequence = e1.sequence - 1
		WHERE e1.sequence > 0 AND e1.prev_hash != COALESCE(e2.state_hash, e1.prev_hash)
		LIMIT 10
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var seq int64
		var prevHash, expectedHash []byte
		if err := rows.Scan(&seq, &prevHash, &expectedHash); err != nil {
			return nil, err
		}
		report.HashChainBreaks = append(report.HashChainBreaks, seq)
	}

	// Check global balance (should sum to zero across all accounts per asset)
	balanceRows, err := qs.db.QueryContext(ctx, `
		SELECT asset_id, SUM(balance) as total
		FROM projections.balances
		GROUP BY asset_id
		HAVING SUM(balance) != 0
	`)
	if err != nil {
		return nil, err
	}
	defer balanceRows.Close()

	for balanceRows.Next() {
		var assetID uint16
		var total int64
		if err := balanceRows.Scan(&assetID, &total); err != nil {
			return nil, err
		}
		report.UnbalancedAssets = append(report.UnbalancedAssets, UnbalancedAsset{
			AssetID:   assetID,
			Imbalance: total,
		})
	}

	report.IsHealthy = len(report.HashChainBreaks) == 0 && len(report.UnbalancedAssets) == 0
	return report, nil
}

// --- helpers ---

func (qs *QueryService) getWatermark(ctx context.Context) (int64, error) {
	var seq int64
	err := qs.db.QueryRowContext(ctx, `
		SELECT COALESCE(last_sequence, 0) FROM projections.watermark WHERE worker_id = 'main'
	`).Scan(&seq)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return seq, err
}

func (qs *QueryService) getProjectedBalance(ctx context.Context, accountPath string) (int64, error) {
	var balance int64
	err := qs.db.QueryRowContext(ctx, `
		SELECT COALESCE(balance, 0) FROM projections.balances
		WHERE account_path = $1
	`, accountPath).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return balance, err
}

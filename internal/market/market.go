package market

import (
	"fmt"

	"github.com/Creek-Finance/lendcore/internal/math"
	"github.com/Creek-Finance/lendcore/internal/observability"
	"github.com/Creek-Finance/lendcore/internal/oracle"
	"github.com/Creek-Finance/lendcore/internal/state"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// CurrentVersion is the protocol version callers must target.
	CurrentVersion = int64(1)

	// LockTTLSeconds bounds how long a liquidation sequence may hold an
	// obligation lock before the admin force-unlock override applies.
	LockTTLSeconds = int64(300)
)

// TokenMinter is the external token-supply collaborator. The core never
// mints or burns itself; it instructs this boundary and records amounts.
type TokenMinter interface {
	Mint(asset string, amount int64) error
	Burn(asset string, amount int64) error
}

// Market is the orchestrator: it owns per-asset pools, the interest and
// risk managers, the obligation ledger, and consults the oracle for
// every valuation. Single-threaded by design; the deterministic core is
// the only caller.
type Market struct {
	logger zerolog.Logger

	assets      *state.AssetRegistry
	pools       *state.PoolManager
	risk        *state.RiskParamsManager
	interest    *state.InterestManager
	obligations *state.ObligationManager
	oracle      *oracle.Aggregator
	health      *state.HealthCalculator
	minter      TokenMinter

	paused  bool
	version int64
	epoch   int64

	flashCap    int64
	flashFeeBps int64
	outstanding map[uuid.UUID]*FlashReceipt
}

// Config carries the knobs that differ across deployments.
type Config struct {
	FlashLoanCap    int64 // per-tx cap, 1e9 scale; 0 means the default
	FlashLoanFeeBps int64 // 0 means the default 10 bps
}

func New(cfg Config, agg *oracle.Aggregator, minter TokenMinter) *Market {
	if cfg.FlashLoanCap <= 0 {
		cfg.FlashLoanCap = DefaultFlashLoanCap
	}
	if cfg.FlashLoanFeeBps <= 0 {
		cfg.FlashLoanFeeBps = DefaultFlashFeeBps
	}

	assets := state.NewAssetRegistry()
	pools := state.NewPoolManager()
	risk := state.NewRiskParamsManager()
	interest := state.NewInterestManager()
	obligations := state.NewObligationManager()

	return &Market{
		logger:      observability.NewLogger("market"),
		assets:      assets,
		pools:       pools,
		risk:        risk,
		interest:    interest,
		obligations: obligations,
		oracle:      agg,
		health:      state.NewHealthCalculator(agg, risk, interest),
		minter:      minter,
		version:     CurrentVersion,
		flashCap:    cfg.FlashLoanCap,
		flashFeeBps: cfg.FlashLoanFeeBps,
		outstanding: make(map[uuid.UUID]*FlashReceipt),
	}
}

// guard runs the checks every entry point makes before anything else.
func (m *Market) guard(version int64) error {
	if m.paused {
		return ErrMarketPaused
	}
	if version != m.version {
		return fmt.Errorf("%w: caller targets %d, market at %d", ErrVersionMismatch, version, m.version)
	}
	return nil
}

// debtPoolTotals reads the debt pool's face debt and cash at the
// current (pre-accrual) index, for utilization input.
func (m *Market) debtPoolTotals(asset string) (debt, cash int64) {
	pool := m.pools.Get(asset)
	return math.DebtFromScaled(pool.TotalScaledDebt, m.interest.Index(asset)), pool.Cash
}

// DepositCollateral adds collateral to the caller's obligation, creating
// the obligation on first deposit. Isolated assets cannot be mixed with
// other collateral, in either direction.
func (m *Market) DepositCollateral(user uuid.UUID, asset string, amount, version int64) error {
	if err := m.guard(version); err != nil {
		return err
	}
	if amount <= 0 {
		return ErrZeroAmount
	}
	if !m.assets.Active(asset) {
		return fmt.Errorf("%w: %s", state.ErrAssetNotActive, asset)
	}

	params, ok := m.risk.Get(asset, m.epoch)
	if !ok {
		return fmt.Errorf("%w: %s has no risk params", state.ErrInvalidCoinType, asset)
	}

	o, exists := m.obligations.Lookup(user)
	if exists {
		if o.Locked() {
			return fmt.Errorf("%w: obligation %s", state.ErrObligationLocked, o.ID)
		}
		held := o.CollateralAssets()
		if params.Isolated && len(held) > 0 && !(len(held) == 1 && held[0] == asset) {
			return fmt.Errorf("%w: %s is isolated", state.ErrInvalidCoinType, asset)
		}
		for _, h := range held {
			if hp, ok := m.risk.Get(h, m.epoch); ok && hp.Isolated && h != asset {
				return fmt.Errorf("%w: obligation isolated on %s", state.ErrInvalidCoinType, h)
			}
		}
		if _, holds := o.Collaterals[asset]; !holds && len(held) >= state.MaxCollateralTypes {
			return fmt.Errorf("%w: obligation %s", state.ErrMaxCollateralReached, o.ID)
		}
	}

	o = m.obligations.GetOrCreate(user)
	o.Collaterals[asset] = math.SaturatingAdd(o.Collaterals[asset], amount)
	o.Version++
	m.risk.ApplyIfDue(asset, m.epoch)

	m.logger.Debug().Str("user", user.String()).Str("asset", asset).Int64("amount", amount).Msg("collateral deposited")
	return nil
}

// WithdrawCollateral removes collateral if the post-withdrawal
// collateral-factor health stays at or above 1.
func (m *Market) WithdrawCollateral(user uuid.UUID, asset string, amount, now, version int64) error {
	if err := m.guard(version); err != nil {
		return err
	}
	if amount <= 0 {
		return ErrZeroAmount
	}
	o, ok := m.obligations.Lookup(user)
	if !ok || o.CollateralBalance(asset) < amount {
		return fmt.Errorf("%w: %s", state.ErrCollateralNotEnough, asset)
	}
	if o.Locked() {
		return fmt.Errorf("%w: obligation %s", state.ErrObligationLocked, o.ID)
	}

	if o.HasDebt() {
		debt, cash := m.debtPoolTotals(o.DebtAsset)
		idx := m.interest.Preview(o.DebtAsset, now, debt, cash)

		owed := math.DebtFromScaled(o.DebtScaled, idx)
		debtPrice, err := m.oracle.ValidatedPrice(o.DebtAsset, now)
		if err != nil {
			return err
		}
		debtValue := math.ScaleMul(owed, debtPrice)

		collValue, err := m.health.WeightedCollateralValue(o, now, m.epoch, false)
		if err != nil {
			return err
		}
		price, err := m.oracle.ValidatedPrice(asset, now)
		if err != nil {
			return err
		}
		params, ok := m.risk.Get(asset, m.epoch)
		if !ok {
			return fmt.Errorf("%w: %s has no risk params", state.ErrInvalidCoinType, asset)
		}
		removed := math.ScaleMul(math.ScaleMul(amount, price), params.CollateralFactor)
		if removed > collValue || collValue-removed < debtValue {
			return fmt.Errorf("%w: %s amount %d", ErrWithdrawTooMuch, asset, amount)
		}

		m.interest.Commit(o.DebtAsset, now, idx)
	}

	o.Collaterals[asset] -= amount
	if o.Collaterals[asset] == 0 {
		delete(o.Collaterals, asset)
	}
	o.Version++

	m.logger.Debug().Str("user", user.String()).Str("asset", asset).Int64("amount", amount).Msg("collateral withdrawn")
	return nil
}

// Borrow draws the debt asset against the obligation's collateral.
// Interest accrues first; the post-borrow collateral-factor health must
// stay at or above 1.
func (m *Market) Borrow(user uuid.UUID, asset string, amount, now, version int64) error {
	if err := m.guard(version); err != nil {
		return err
	}
	if amount <= 0 {
		return ErrZeroAmount
	}
	if !m.assets.Active(asset) {
		return fmt.Errorf("%w: %s", state.ErrAssetNotActive, asset)
	}
	if asset != state.DebtAssetID {
		return fmt.Errorf("%w: %s is not a debt asset", state.ErrInvalidCoinType, asset)
	}

	o, ok := m.obligations.Lookup(user)
	if !ok {
		return fmt.Errorf("%w: no collateral", ErrBorrowTooMuch)
	}
	if o.Locked() {
		return fmt.Errorf("%w: obligation %s", state.ErrObligationLocked, o.ID)
	}
	if o.HasDebt() && o.DebtAsset != asset {
		return fmt.Errorf("%w: obligation already owes %s", state.ErrInvalidCoinType, o.DebtAsset)
	}

	meta, _ := m.assets.Get(asset)
	if amount < meta.MinBorrow {
		return fmt.Errorf("%w: amount %d below minimum %d", ErrBorrowTooSmall, amount, meta.MinBorrow)
	}

	debt, cash := m.debtPoolTotals(asset)
	idx := m.interest.Preview(asset, now, debt, cash)

	pool := m.pools.Get(asset)
	if amount > pool.Cash {
		return fmt.Errorf("%w: pool cash %d", ErrBorrowLimitReached, pool.Cash)
	}
	if meta.BorrowCap > 0 {
		total := math.SaturatingAdd(math.DebtFromScaled(pool.TotalScaledDebt, idx), amount)
		if total > meta.BorrowCap {
			return fmt.Errorf("%w: cap %d", ErrBorrowLimitReached, meta.BorrowCap)
		}
	}

	newScaled := math.ScaledDebt(amount, idx)
	owed := math.DebtFromScaled(o.DebtScaled+newScaled, idx)
	debtPrice, err := m.oracle.ValidatedPrice(asset, now)
	if err != nil {
		return err
	}
	debtValue := math.ScaleMul(owed, debtPrice)

	collValue, err := m.health.WeightedCollateralValue(o, now, m.epoch, false)
	if err != nil {
		return err
	}
	if collValue < debtValue {
		return fmt.Errorf("%w: borrow power %d, debt value %d", ErrBorrowTooMuch, collValue, debtValue)
	}

	m.interest.Commit(asset, now, idx)
	o.DebtAsset = asset
	o.DebtScaled = math.SaturatingAdd(o.DebtScaled, newScaled)
	o.Version++
	if err := m.pools.RemoveCash(asset, amount); err != nil {
		return err
	}
	m.pools.AddScaledDebt(asset, newScaled)
	m.risk.ApplyIfDue(asset, m.epoch)

	m.logger.Debug().Str("user", user.String()).Int64("amount", amount).Msg("borrowed")
	return nil
}

// RepayResult reports what a repayment actually settled.
type RepayResult struct {
	Paid   int64
	Refund int64
}

// Repay settles up to the owed amount; any excess is refunded. Partial
// repayment is always allowed, and a full repayment zeroes the debt
// exactly.
func (m *Market) Repay(user uuid.UUID, asset string, amount, now, version int64) (*RepayResult, error) {
	if err := m.guard(version); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, ErrZeroAmount
	}
	o, ok := m.obligations.Lookup(user)
	if !ok || !o.HasDebt() {
		return nil, ErrNoDebt
	}
	if asset != o.DebtAsset {
		return nil, fmt.Errorf("%w: obligation owes %s", state.ErrInvalidCoinType, o.DebtAsset)
	}
	if o.Locked() {
		return nil, fmt.Errorf("%w: obligation %s", state.ErrObligationLocked, o.ID)
	}

	debt, cash := m.debtPoolTotals(asset)
	idx := m.interest.Preview(asset, now, debt, cash)

	owed := math.DebtFromScaled(o.DebtScaled, idx)
	paid := amount
	if paid > owed {
		paid = owed
	}
	scaledPaid := o.DebtScaled
	if paid < owed {
		scaledPaid = math.ScaledDebt(paid, idx)
		if scaledPaid > o.DebtScaled {
			scaledPaid = o.DebtScaled
		}
	}

	m.interest.Commit(asset, now, idx)
	o.DebtScaled -= scaledPaid
	if o.DebtScaled == 0 {
		o.DebtAsset = ""
	}
	o.Version++
	m.pools.AddCash(asset, paid)
	m.pools.RemoveScaledDebt(asset, scaledPaid)

	m.logger.Debug().Str("user", user.String()).Int64("paid", paid).Msg("repaid")
	return &RepayResult{Paid: paid, Refund: amount - paid}, nil
}

// ============================================================================
// Admin surface
// ============================================================================

// SetPause flips the global pause flag. Deliberately not guarded by the
// pause check itself, or the market could never be unpaused.
func (m *Market) SetPause(paused bool, version int64) error {
	if version != m.version {
		return fmt.Errorf("%w: caller targets %d, market at %d", ErrVersionMismatch, version, m.version)
	}
	m.paused = paused
	m.logger.Info().Bool("paused", paused).Msg("pause flag set")
	return nil
}

func (m *Market) Paused() bool { return m.paused }

// AdvanceEpoch moves the governance clock forward and promotes any risk
// updates that have become due. Epochs never move backwards.
func (m *Market) AdvanceEpoch(epoch int64) {
	if epoch <= m.epoch {
		return
	}
	m.epoch = epoch
	applied := m.risk.ApplyAllDue(epoch)
	if applied > 0 {
		m.logger.Info().Int64("epoch", epoch).Int("applied", applied).Msg("risk updates activated")
	}
}

func (m *Market) Epoch() int64 { return m.epoch }

// ProposeRiskUpdate stages new risk params, activating 7 epochs out.
func (m *Market) ProposeRiskUpdate(p *state.RiskParams, version int64) (int64, error) {
	if version != m.version {
		return 0, fmt.Errorf("%w: caller targets %d, market at %d", ErrVersionMismatch, version, m.version)
	}
	return m.risk.Propose(p, m.epoch)
}

// ApplyRiskUpdate promotes a due pending update explicitly.
func (m *Market) ApplyRiskUpdate(asset string, version int64) (bool, error) {
	if version != m.version {
		return false, fmt.Errorf("%w: caller targets %d, market at %d", ErrVersionMismatch, version, m.version)
	}
	return m.risk.ApplyIfDue(asset, m.epoch), nil
}

// SetInterestParams replaces an asset's rate curve.
func (m *Market) SetInterestParams(asset string, p math.RateParams, version int64) error {
	if version != m.version {
		return fmt.Errorf("%w: caller targets %d, market at %d", ErrVersionMismatch, version, m.version)
	}
	return m.interest.SetParams(asset, p)
}

// SeedReserves adds lendable cash to a pool (admin funding operation).
func (m *Market) SeedReserves(asset string, amount, version int64) error {
	if version != m.version {
		return fmt.Errorf("%w: caller targets %d, market at %d", ErrVersionMismatch, version, m.version)
	}
	if amount <= 0 {
		return ErrZeroAmount
	}
	m.pools.AddCash(asset, amount)
	return nil
}

// ForceUnlock is the admin override for an expired obligation lock.
func (m *Market) ForceUnlock(obligationID uuid.UUID, now, version int64) error {
	if version != m.version {
		return fmt.Errorf("%w: caller targets %d, market at %d", ErrVersionMismatch, version, m.version)
	}
	o, ok := m.obligations.Get(obligationID)
	if !ok {
		return fmt.Errorf("%w: obligation %s", state.ErrInvalidParams, obligationID)
	}
	return o.ForceUnlock(now)
}

// ============================================================================
// Read surface
// ============================================================================

func (m *Market) Obligations() *state.ObligationManager { return m.obligations }
func (m *Market) Pools() *state.PoolManager             { return m.pools }
func (m *Market) Risk() *state.RiskParamsManager        { return m.risk }
func (m *Market) Interest() *state.InterestManager      { return m.interest }
func (m *Market) Assets() *state.AssetRegistry          { return m.assets }
func (m *Market) Health() *state.HealthCalculator       { return m.health }
func (m *Market) Version() int64                        { return m.version }

// Snapshot captures market-level flags for persistence. Component
// managers snapshot themselves.
type Snapshot struct {
	Paused  bool  `json:"paused"`
	Version int64 `json:"version"`
	Epoch   int64 `json:"epoch"`
}

func (m *Market) Snapshot() Snapshot {
	return Snapshot{Paused: m.paused, Version: m.version, Epoch: m.epoch}
}

func (m *Market) Restore(s Snapshot) {
	m.paused = s.Paused
	m.version = s.Version
	m.epoch = s.Epoch
}

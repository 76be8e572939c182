package market

import (
	"fmt"

	"github.com/Creek-Finance/lendcore/internal/math"
	"github.com/Creek-Finance/lendcore/internal/state"

	"github.com/google/uuid"
)

// LiquidationResult reports what a liquidation step actually moved.
type LiquidationResult struct {
	ObligationID uuid.UUID
	Repaid       int64
	SeizedAsset  string
	Seized       int64
	ResidualDebt int64 // unsecured remainder the debtor still owes
}

// Liquidate performs one soft-liquidation step against an unhealthy
// obligation. The caller chooses which collateral asset to seize and
// how much debt to repay at most; the engine solves for the repay
// amount that restores health to exactly 1, then applies the caps.
//
// The sequence runs under the obligation lock so no other mutation can
// interleave, and the lock is released on every exit path.
func (m *Market) Liquidate(obligationID uuid.UUID, seizeAsset string, maxRepay, now, version int64) (*LiquidationResult, error) {
	if err := m.guard(version); err != nil {
		return nil, err
	}
	if maxRepay <= 0 {
		return nil, ErrZeroAmount
	}
	o, ok := m.obligations.Get(obligationID)
	if !ok {
		return nil, fmt.Errorf("%w: unknown obligation %s", ErrUnableToLiquidate, obligationID)
	}
	if !o.HasDebt() {
		return nil, fmt.Errorf("%w: no debt", ErrUnableToLiquidate)
	}

	key, err := o.AcquireLock(now, LockTTLSeconds)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := o.ReleaseLock(key); rerr != nil {
			m.logger.Error().Err(rerr).Str("obligation", o.ID.String()).Msg("lock release failed")
		}
	}()

	debt, cash := m.debtPoolTotals(o.DebtAsset)
	idx := m.interest.Preview(o.DebtAsset, now, debt, cash)

	owed := math.DebtFromScaled(o.DebtScaled, idx)
	debtPrice, err := m.oracle.ValidatedPrice(o.DebtAsset, now)
	if err != nil {
		return nil, err
	}
	debtValue := math.ScaleMul(owed, debtPrice)

	collValue, err := m.health.WeightedCollateralValue(o, now, m.epoch, true)
	if err != nil {
		return nil, err
	}
	if collValue >= debtValue {
		return nil, fmt.Errorf("%w: health factor at or above 1", ErrUnableToLiquidate)
	}

	balance := o.CollateralBalance(seizeAsset)
	if balance <= 0 {
		return nil, fmt.Errorf("%w: obligation holds no %s", ErrUnableToLiquidate, seizeAsset)
	}
	params, ok := m.risk.Get(seizeAsset, m.epoch)
	if !ok {
		return nil, fmt.Errorf("%w: no risk params for %s", ErrUnableToLiquidate, seizeAsset)
	}
	seizePrice, err := m.oracle.ValidatedPrice(seizeAsset, now)
	if err != nil {
		return nil, err
	}

	repay, seized := solveRepay(owed, debtValue, collValue, debtPrice, seizePrice, params, balance, maxRepay)
	if repay <= 0 || seized <= 0 {
		return nil, fmt.Errorf("%w: %s value too small to cover a step", ErrUnableToLiquidate, seizeAsset)
	}

	scaledRepaid := o.DebtScaled
	if repay < owed {
		scaledRepaid = math.ScaledDebt(repay, idx)
		if scaledRepaid > o.DebtScaled {
			scaledRepaid = o.DebtScaled
		}
	}

	m.interest.Commit(o.DebtAsset, now, idx)
	o.Collaterals[seizeAsset] -= seized
	if o.Collaterals[seizeAsset] == 0 {
		delete(o.Collaterals, seizeAsset)
	}
	debtAsset := o.DebtAsset
	o.DebtScaled -= scaledRepaid
	residual := math.DebtFromScaled(o.DebtScaled, idx)
	if o.DebtScaled == 0 {
		o.DebtAsset = ""
	}
	o.Version++
	m.pools.AddCash(debtAsset, repay)
	m.pools.RemoveScaledDebt(debtAsset, scaledRepaid)

	m.logger.Info().
		Str("obligation", o.ID.String()).
		Int64("repaid", repay).
		Str("seize_asset", seizeAsset).
		Int64("seized", seized).
		Int64("residual", residual).
		Msg("liquidation step")

	return &LiquidationResult{
		ObligationID: o.ID,
		Repaid:       repay,
		SeizedAsset:  seizeAsset,
		Seized:       seized,
		ResidualDebt: residual,
	}, nil
}

// solveRepay is the closed-form health-restoration solve.
//
// With liquidation-factor-weighted collateral value V, debt value D*Pd,
// penalty pen and seize-asset liquidation factor La, repaying R and
// seizing R*Pd*(1+pen)/Pa changes health to
//
//	(V - R*Pd*(1+pen)*La) / ((D-R)*Pd)
//
// Setting that to 1 gives R = (D*Pd - V) / (Pd * (1 - (1+pen)*La)).
// When (1+pen)*La >= 1 seizing makes health worse or flat per unit
// repaid and no finite R restores it; the step then targets the full
// debt. R is capped at the caller's maximum and the total owed; the
// seizure is capped at the available balance, and a capped seizure
// recomputes the lesser R so the exchange stays at the penalty rate.
func solveRepay(owed, debtValue, collValue, debtPrice, seizePrice int64, params *state.RiskParams, balance, maxRepay int64) (repay, seized int64) {
	onePlusPen := math.Scale + params.LiquidationPenalty
	factor := math.ScaleMul(onePlusPen, params.LiquidationFactor)

	if factor >= math.Scale {
		repay = owed
	} else {
		shortfall := debtValue - collValue
		denom := math.ScaleMul(debtPrice, math.Scale-factor)
		if denom <= 0 {
			return 0, 0
		}
		repay = math.ScaleDiv(shortfall, denom)
	}

	if repay > maxRepay {
		repay = maxRepay
	}
	if repay > owed {
		repay = owed
	}

	seizeValue := math.ScaleMul(math.ScaleMul(repay, debtPrice), onePlusPen)
	seized = math.ScaleDiv(seizeValue, seizePrice)
	if seized > balance {
		seized = balance
		repay = math.MulDiv(math.ScaleMul(seized, seizePrice), math.Scale, math.ScaleMul(debtPrice, onePlusPen), math.RoundDown)
		if repay > owed {
			repay = owed
		}
	}
	return repay, seized
}

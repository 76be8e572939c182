package state

import (
	stdmath "math"

	"github.com/Creek-Finance/lendcore/internal/math"
)

// PriceSource is the slice of the oracle the health calculator needs.
type PriceSource interface {
	ValidatedPrice(asset string, now int64) (int64, error)
}

// HealthCalculator computes obligation health factors.
// health = sum(collateral_i * price_i * liquidation_factor_i) / (debt * price_debt),
// all at the 9-decimal scale. Collateral-factor weighting serves borrow
// and withdraw checks; liquidation-factor weighting serves liquidation.
type HealthCalculator struct {
	prices   PriceSource
	riskMgr  *RiskParamsManager
	interest *InterestManager
}

func NewHealthCalculator(prices PriceSource, rpm *RiskParamsManager, im *InterestManager) *HealthCalculator {
	return &HealthCalculator{prices: prices, riskMgr: rpm, interest: im}
}

// WeightedCollateralValue sums collateral value weighted by the chosen
// factor. useLiquidationFactor selects LF over CF.
func (hc *HealthCalculator) WeightedCollateralValue(o *Obligation, now, epoch int64, useLiquidationFactor bool) (int64, error) {
	var total int64
	for _, asset := range o.CollateralAssets() {
		price, err := hc.prices.ValidatedPrice(asset, now)
		if err != nil {
			return 0, err
		}
		params, ok := hc.riskMgr.Get(asset, epoch)
		if !ok {
			// Unlisted risk params contribute nothing to borrow power.
			continue
		}
		factor := params.CollateralFactor
		if useLiquidationFactor {
			factor = params.LiquidationFactor
		}
		value := math.ScaleMul(o.Collaterals[asset], price)
		total = math.SaturatingAdd(total, math.ScaleMul(value, factor))
	}
	return total, nil
}

// DebtValue returns the obligation's owed amount and its value at the
// validated debt-asset price, accruing nothing (callers accrue first).
func (hc *HealthCalculator) DebtValue(o *Obligation, now int64) (owed int64, value int64, err error) {
	if !o.HasDebt() {
		return 0, 0, nil
	}
	index := hc.interest.Index(o.DebtAsset)
	owed = math.DebtFromScaled(o.DebtScaled, index)
	price, err := hc.prices.ValidatedPrice(o.DebtAsset, now)
	if err != nil {
		return 0, 0, err
	}
	return owed, math.ScaleMul(owed, price), nil
}

// Health returns the health factor at the 9-decimal scale. An
// obligation with no debt is reported at MaxInt64.
func (hc *HealthCalculator) Health(o *Obligation, now, epoch int64) (int64, error) {
	_, debtValue, err := hc.DebtValue(o, now)
	if err != nil {
		return 0, err
	}
	if debtValue == 0 {
		return stdmath.MaxInt64, nil
	}
	collValue, err := hc.WeightedCollateralValue(o, now, epoch, true)
	if err != nil {
		return 0, err
	}
	return math.ScaleDiv(collValue, debtValue), nil
}

// BorrowHealth is the stricter collateral-factor variant used by borrow
// and withdraw checks.
func (hc *HealthCalculator) BorrowHealth(o *Obligation, now, epoch int64) (int64, error) {
	_, debtValue, err := hc.DebtValue(o, now)
	if err != nil {
		return 0, err
	}
	if debtValue == 0 {
		return stdmath.MaxInt64, nil
	}
	collValue, err := hc.WeightedCollateralValue(o, now, epoch, false)
	if err != nil {
		return 0, err
	}
	return math.ScaleDiv(collValue, debtValue), nil
}

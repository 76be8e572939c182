package state

import "fmt"

// Hard ceilings for governance proposals, 9-decimal scale.
// Proposals beyond these are rejected outright, never clamped.
const (
	MaxCollateralFactor   = int64(950_000_000) // 0.95
	MaxLiquidationFactor  = int64(950_000_000) // 0.95
	MaxLiquidationPenalty = int64(200_000_000) // 0.20

	// RiskUpdateDelayEpochs is the governance delay between proposing a
	// parameter change and the epoch at which it activates.
	RiskUpdateDelayEpochs = int64(7)
)

// RiskParams defines per-asset collateral risk parameters (1e9 scale).
type RiskParams struct {
	Asset              string
	CollateralFactor   int64
	LiquidationFactor  int64
	LiquidationPenalty int64
	Isolated           bool
}

// PendingUpdate is a staged parameter set awaiting its activation epoch.
type PendingUpdate struct {
	Params          RiskParams
	ActivationEpoch int64
}

var (
	// Default risk params (MVP)
	DefaultRiskParamsSet = map[string]*RiskParams{
		"BTC":   {Asset: "BTC", CollateralFactor: 800_000_000, LiquidationFactor: 850_000_000, LiquidationPenalty: 50_000_000},
		"ETH":   {Asset: "ETH", CollateralFactor: 750_000_000, LiquidationFactor: 800_000_000, LiquidationPenalty: 70_000_000},
		"CREEK": {Asset: "CREEK", CollateralFactor: 500_000_000, LiquidationFactor: 600_000_000, LiquidationPenalty: 100_000_000, Isolated: true},
	}
)

// RiskParamsManager manages per-asset risk parameters with the
// propose-then-apply governance protocol. Pending updates are applied
// lazily on read once their activation epoch is reached.
type RiskParamsManager struct {
	params  map[string]*RiskParams
	pending map[string]*PendingUpdate
}

func NewRiskParamsManager() *RiskParamsManager {
	params := make(map[string]*RiskParams)
	for k, v := range DefaultRiskParamsSet {
		p := *v
		params[k] = &p
	}
	return &RiskParamsManager{
		params:  params,
		pending: make(map[string]*PendingUpdate),
	}
}

// ValidateRiskParams checks parameters against the hard ceilings:
// cf <= 0.95, lf <= 0.95, penalty <= 0.20, cf <= lf, all non-negative.
func ValidateRiskParams(p *RiskParams) error {
	if p.CollateralFactor < 0 || p.CollateralFactor > MaxCollateralFactor {
		return fmt.Errorf("%w: collateral factor %d outside [0, %d]", ErrInvalidParams, p.CollateralFactor, MaxCollateralFactor)
	}
	if p.LiquidationFactor < 0 || p.LiquidationFactor > MaxLiquidationFactor {
		return fmt.Errorf("%w: liquidation factor %d outside [0, %d]", ErrInvalidParams, p.LiquidationFactor, MaxLiquidationFactor)
	}
	if p.LiquidationPenalty < 0 || p.LiquidationPenalty > MaxLiquidationPenalty {
		return fmt.Errorf("%w: liquidation penalty %d outside [0, %d]", ErrInvalidParams, p.LiquidationPenalty, MaxLiquidationPenalty)
	}
	if p.CollateralFactor > p.LiquidationFactor {
		return fmt.Errorf("%w: collateral factor %d above liquidation factor %d", ErrInvalidParams, p.CollateralFactor, p.LiquidationFactor)
	}
	return nil
}

// Propose stages a parameter update activating at currentEpoch + 7.
// A newer proposal for the same asset replaces the staged one.
func (rpm *RiskParamsManager) Propose(p *RiskParams, currentEpoch int64) (int64, error) {
	if err := ValidateRiskParams(p); err != nil {
		return 0, fmt.Errorf("invalid risk params for %s: %w", p.Asset, err)
	}
	activation := currentEpoch + RiskUpdateDelayEpochs
	rpm.pending[p.Asset] = &PendingUpdate{Params: *p, ActivationEpoch: activation}
	return activation, nil
}

// ApplyIfDue promotes a staged update whose activation epoch has been
// reached. Returns true when the update was applied.
func (rpm *RiskParamsManager) ApplyIfDue(asset string, currentEpoch int64) bool {
	pu, ok := rpm.pending[asset]
	if !ok || currentEpoch < pu.ActivationEpoch {
		return false
	}
	p := pu.Params
	rpm.params[asset] = &p
	delete(rpm.pending, asset)
	return true
}

// Get returns the parameters effective at the given epoch: a staged
// update whose activation epoch has passed shadows the stored set even
// before promotion. Reads never mutate, so a rejected operation that
// peeked at params leaves no trace in state.
func (rpm *RiskParamsManager) Get(asset string, currentEpoch int64) (*RiskParams, bool) {
	if pu, ok := rpm.pending[asset]; ok && currentEpoch >= pu.ActivationEpoch {
		p := pu.Params
		return &p, true
	}
	p, ok := rpm.params[asset]
	return p, ok
}

// ApplyAllDue promotes every staged update that has reached its
// activation epoch. Called on epoch ticks.
func (rpm *RiskParamsManager) ApplyAllDue(currentEpoch int64) int {
	applied := 0
	for asset := range rpm.pending {
		if rpm.ApplyIfDue(asset, currentEpoch) {
			applied++
		}
	}
	return applied
}

// Pending returns the staged update for an asset, if any.
func (rpm *RiskParamsManager) Pending(asset string) (*PendingUpdate, bool) {
	pu, ok := rpm.pending[asset]
	return pu, ok
}

// RiskSnapshot captures manager state for persistence.
type RiskSnapshot struct {
	Params  map[string]RiskParams    `json:"params"`
	Pending map[string]PendingUpdate `json:"pending"`
}

func (rpm *RiskParamsManager) Snapshot() RiskSnapshot {
	s := RiskSnapshot{
		Params:  make(map[string]RiskParams, len(rpm.params)),
		Pending: make(map[string]PendingUpdate, len(rpm.pending)),
	}
	for k, v := range rpm.params {
		s.Params[k] = *v
	}
	for k, v := range rpm.pending {
		s.Pending[k] = *v
	}
	return s
}

func (rpm *RiskParamsManager) Restore(s RiskSnapshot) {
	rpm.params = make(map[string]*RiskParams, len(s.Params))
	for k, v := range s.Params {
		p := v
		rpm.params[k] = &p
	}
	rpm.pending = make(map[string]*PendingUpdate, len(s.Pending))
	for k, v := range s.Pending {
		pu := v
		rpm.pending[k] = &pu
	}
}

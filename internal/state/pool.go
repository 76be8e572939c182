package state

import (
	"fmt"
	"sort"

	"github.com/Creek-Finance/lendcore/internal/math"
)

// Pool aggregates per-asset market totals. Cash is the lendable reserve
// balance, TotalScaledDebt the index-scaled debt outstanding against it,
// FeeReserves the accumulated protocol fees (flash loans, liquidation
// residue). All at the 9-decimal scale except TotalScaledDebt, which is
// in index-scaled units.
type Pool struct {
	Asset           string
	Cash            int64
	TotalScaledDebt int64
	FeeReserves     int64
}

// PoolManager owns the per-asset pools.
type PoolManager struct {
	pools map[string]*Pool
}

func NewPoolManager() *PoolManager {
	return &PoolManager{pools: make(map[string]*Pool)}
}

func (pm *PoolManager) ensure(asset string) *Pool {
	p, ok := pm.pools[asset]
	if !ok {
		p = &Pool{Asset: asset}
		pm.pools[asset] = p
	}
	return p
}

func (pm *PoolManager) Get(asset string) *Pool {
	return pm.ensure(asset)
}

// TotalDebt returns the face debt of a pool under the given wad index.
func (pm *PoolManager) TotalDebt(asset string, index int64) int64 {
	return math.DebtFromScaled(pm.ensure(asset).TotalScaledDebt, index)
}

func (pm *PoolManager) AddCash(asset string, amount int64) {
	p := pm.ensure(asset)
	p.Cash = math.SaturatingAdd(p.Cash, amount)
}

func (pm *PoolManager) RemoveCash(asset string, amount int64) error {
	p := pm.ensure(asset)
	if amount > p.Cash {
		return fmt.Errorf("%w: pool %s holds %d, need %d", ErrCollateralNotEnough, asset, p.Cash, amount)
	}
	p.Cash -= amount
	return nil
}

func (pm *PoolManager) AddScaledDebt(asset string, scaled int64) {
	p := pm.ensure(asset)
	p.TotalScaledDebt = math.SaturatingAdd(p.TotalScaledDebt, scaled)
}

func (pm *PoolManager) RemoveScaledDebt(asset string, scaled int64) {
	p := pm.ensure(asset)
	if scaled > p.TotalScaledDebt {
		p.TotalScaledDebt = 0
		return
	}
	p.TotalScaledDebt -= scaled
}

func (pm *PoolManager) AddFees(asset string, amount int64) {
	p := pm.ensure(asset)
	p.FeeReserves = math.SaturatingAdd(p.FeeReserves, amount)
}

// Assets returns pool asset IDs in deterministic order.
func (pm *PoolManager) Assets() []string {
	out := make([]string, 0, len(pm.pools))
	for k := range pm.pools {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// PoolSnapshot captures manager state for persistence.
type PoolSnapshot struct {
	Pools map[string]Pool `json:"pools"`
}

func (pm *PoolManager) Snapshot() PoolSnapshot {
	s := PoolSnapshot{Pools: make(map[string]Pool, len(pm.pools))}
	for k, v := range pm.pools {
		s.Pools[k] = *v
	}
	return s
}

func (pm *PoolManager) Restore(s PoolSnapshot) {
	pm.pools = make(map[string]*Pool, len(s.Pools))
	for k, v := range s.Pools {
		p := v
		pm.pools[k] = &p
	}
}

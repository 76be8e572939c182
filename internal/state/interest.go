package state

import (
	"github.com/Creek-Finance/lendcore/internal/math"
)

// InterestState tracks lazy interest accrual for one asset.
// Index is a wad multiplier, monotonically non-decreasing.
type InterestState struct {
	Asset         string
	Index         int64
	LastAccruedAt int64
	Params        math.RateParams
}

// DefaultRateParams is the kinked curve applied to newly tracked assets:
// 2% base, 15% to an 80% kink, 60% past it.
var DefaultRateParams = math.RateParams{
	Base:   20_000_000,
	Slope1: 150_000_000,
	Slope2: 600_000_000,
	Kink:   800_000_000,
}

// InterestManager owns per-asset accrual state. Accrual happens at the
// start of every Market operation touching the asset, never more than
// once per distinct timestamp.
type InterestManager struct {
	states map[string]*InterestState
}

func NewInterestManager() *InterestManager {
	return &InterestManager{states: make(map[string]*InterestState)}
}

func (im *InterestManager) ensure(asset string) *InterestState {
	st, ok := im.states[asset]
	if !ok {
		st = &InterestState{Asset: asset, Index: math.Wad, Params: DefaultRateParams}
		im.states[asset] = st
	}
	return st
}

// Preview computes the index Accrue would produce at the given
// timestamp without mutating anything. Operations validate against the
// previewed index and commit only when the whole unit of work succeeds.
func (im *InterestManager) Preview(asset string, now, debt, reserves int64) int64 {
	st := im.ensure(asset)
	if st.LastAccruedAt == 0 {
		return st.Index
	}
	elapsed := now - st.LastAccruedAt
	if elapsed <= 0 {
		return st.Index
	}

	u := math.Utilization(debt, reserves)
	rate := math.BorrowRate(st.Params, u)
	factor := math.AccrualFactor(rate, elapsed)
	return math.GrowIndex(st.Index, factor)
}

// Commit stores a previewed accrual. The index never moves backwards.
func (im *InterestManager) Commit(asset string, now, index int64) {
	st := im.ensure(asset)
	if index > st.Index {
		st.Index = index
	}
	if now > st.LastAccruedAt {
		st.LastAccruedAt = now
	}
}

// Accrue advances the asset's index for the elapsed time since the last
// accrual, using the utilization implied by the pool totals. Idempotent
// within the same timestamp; elapsed time below zero is ignored.
func (im *InterestManager) Accrue(asset string, now, debt, reserves int64) int64 {
	idx := im.Preview(asset, now, debt, reserves)
	im.Commit(asset, now, idx)
	return idx
}

// Index returns the current wad index without accruing.
func (im *InterestManager) Index(asset string) int64 {
	return im.ensure(asset).Index
}

// SetParams replaces the rate curve for an asset (admin op). The index
// and accrual timestamp are untouched; the new curve applies from the
// next accrual.
func (im *InterestManager) SetParams(asset string, p math.RateParams) error {
	if p.Kink <= 0 || p.Kink >= math.Scale {
		return ErrInvalidParams
	}
	if p.Base < 0 || p.Slope1 < 0 || p.Slope2 < 0 {
		return ErrInvalidParams
	}
	im.ensure(asset).Params = p
	return nil
}

// Params returns the active rate curve for an asset.
func (im *InterestManager) Params(asset string) math.RateParams {
	return im.ensure(asset).Params
}

// InterestSnapshot captures manager state for persistence.
type InterestSnapshot struct {
	States map[string]InterestState `json:"states"`
}

func (im *InterestManager) Snapshot() InterestSnapshot {
	s := InterestSnapshot{States: make(map[string]InterestState, len(im.states))}
	for k, v := range im.states {
		s.States[k] = *v
	}
	return s
}

func (im *InterestManager) Restore(s InterestSnapshot) {
	im.states = make(map[string]*InterestState, len(s.States))
	for k, v := range s.States {
		st := v
		im.states[k] = &st
	}
}

package market_test

import (
	"errors"
	"testing"

	"github.com/Creek-Finance/lendcore/internal/market"
	"github.com/Creek-Finance/lendcore/internal/math"
	"github.com/Creek-Finance/lendcore/internal/oracle"

	"github.com/google/uuid"
)

// underwater sets up 1000 BTC collateral against 800 USDC debt, then
// drops BTC to 0.90 so the LF-weighted value (765) no longer covers the
// debt.
func underwater(t *testing.T) (*market.Market, *oracle.Aggregator, uuid.UUID) {
	t.Helper()
	m, agg, _ := newTestMarket(t)
	user := uuid.New()
	if err := m.DepositCollateral(user, "BTC", 1000*math.Scale, v); err != nil {
		t.Fatal(err)
	}
	if err := m.Borrow(user, "USDC", 800*math.Scale, 100, v); err != nil {
		t.Fatal(err)
	}
	setPrice(t, agg, "BTC", 900_000_000, 101)
	return m, agg, user
}

func obligationID(t *testing.T, m *market.Market, user uuid.UUID) uuid.UUID {
	t.Helper()
	o, ok := m.Obligations().Lookup(user)
	if !ok {
		t.Fatal("no obligation")
	}
	return o.ID
}

// ============================================================================
// Test: soft liquidation restores health to 1
// ============================================================================

func TestLiquidate_RestoresHealthToOne(t *testing.T) {
	m, _, user := underwater(t)
	id := obligationID(t, m, user)

	res, err := m.Liquidate(id, "BTC", 10_000*math.Scale, 101, v)
	if err != nil {
		t.Fatal(err)
	}
	if res.Repaid <= 0 || res.Seized <= 0 {
		t.Fatalf("empty result: %+v", res)
	}

	o, _ := m.Obligations().Lookup(user)
	h, err := m.Health().Health(o, 101, m.Epoch())
	if err != nil {
		t.Fatal(err)
	}
	// Exact 1.0 up to fixed-point rounding of the closed-form solve.
	if diff := h - math.Scale; diff < -10 || diff > 10 {
		t.Errorf("health after liquidation = %d, want %d", h, math.Scale)
	}
	if o.Locked() {
		t.Error("liquidation left the obligation locked")
	}
}

func TestLiquidate_HealthyFails(t *testing.T) {
	m, _, _ := newTestMarket(t)
	user := uuid.New()
	if err := m.DepositCollateral(user, "BTC", 1000*math.Scale, v); err != nil {
		t.Fatal(err)
	}
	if err := m.Borrow(user, "USDC", 500*math.Scale, 100, v); err != nil {
		t.Fatal(err)
	}
	id := obligationID(t, m, user)

	before, _ := m.Obligations().Lookup(user)
	beforeScaled := before.DebtScaled
	beforeColl := before.CollateralBalance("BTC")

	// Repeated attempts against a healthy obligation always fail and
	// never move state.
	for i := 0; i < 3; i++ {
		_, err := m.Liquidate(id, "BTC", 100*math.Scale, 100, v)
		if !errors.Is(err, market.ErrUnableToLiquidate) {
			t.Fatalf("attempt %d: want ErrUnableToLiquidate, got %v", i, err)
		}
	}
	after, _ := m.Obligations().Lookup(user)
	if after.DebtScaled != beforeScaled || after.CollateralBalance("BTC") != beforeColl {
		t.Error("failed liquidation mutated the obligation")
	}
	if after.Locked() {
		t.Error("failed liquidation left the lock held")
	}
}

func TestLiquidate_CallerCapsRepay(t *testing.T) {
	m, _, user := underwater(t)
	id := obligationID(t, m, user)

	res, err := m.Liquidate(id, "BTC", 50*math.Scale, 101, v)
	if err != nil {
		t.Fatal(err)
	}
	if res.Repaid != 50*math.Scale {
		t.Errorf("repaid %d, want the caller's cap", res.Repaid)
	}

	// Under-repaying improves but need not fully restore health.
	o, _ := m.Obligations().Lookup(user)
	h, err := m.Health().Health(o, 101, m.Epoch())
	if err != nil {
		t.Fatal(err)
	}
	if h >= math.Scale {
		t.Errorf("a 50-unit repay should not fully restore health, got %d", h)
	}
}

func TestLiquidate_WrongCollateralAsset(t *testing.T) {
	m, _, user := underwater(t)
	id := obligationID(t, m, user)
	_, err := m.Liquidate(id, "ETH", 100*math.Scale, 101, v)
	if !errors.Is(err, market.ErrUnableToLiquidate) {
		t.Errorf("want ErrUnableToLiquidate for absent collateral, got %v", err)
	}
}

func TestLiquidate_ExhaustedCollateralNeverFailsOutright(t *testing.T) {
	m, agg, user := underwater(t)
	id := obligationID(t, m, user)

	// Crash BTC so no amount of seizure can restore health.
	setPrice(t, agg, "BTC", 100_000_000, 102) // 0.10
	res, err := m.Liquidate(id, "BTC", 10_000*math.Scale, 102, v)
	if err != nil {
		t.Fatalf("exhausted collateral must still liquidate: %v", err)
	}
	if res.Seized != 1000*math.Scale {
		t.Errorf("seized %d, want the full balance", res.Seized)
	}
	if res.ResidualDebt <= 0 {
		t.Error("expected unsecured residual debt")
	}

	o, _ := m.Obligations().Lookup(user)
	if o.CollateralBalance("BTC") != 0 {
		t.Errorf("collateral left: %d", o.CollateralBalance("BTC"))
	}
	if !o.HasDebt() {
		t.Error("residual debt should remain on the books")
	}
}

func TestLiquidate_LockedObligation(t *testing.T) {
	m, _, user := underwater(t)
	o, _ := m.Obligations().Lookup(user)
	if _, err := o.AcquireLock(101, 60); err != nil {
		t.Fatal(err)
	}
	_, err := m.Liquidate(o.ID, "BTC", 100*math.Scale, 101, v)
	if err == nil {
		t.Fatal("liquidation through a held lock must fail")
	}
}

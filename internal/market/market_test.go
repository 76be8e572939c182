package market_test

import (
	"errors"
	"testing"

	"github.com/Creek-Finance/lendcore/internal/market"
	"github.com/Creek-Finance/lendcore/internal/math"
	"github.com/Creek-Finance/lendcore/internal/oracle"
	"github.com/Creek-Finance/lendcore/internal/state"

	"github.com/google/uuid"
)

const v = market.CurrentVersion

type stubMinter struct {
	minted map[string]int64
	burned map[string]int64
}

func newStubMinter() *stubMinter {
	return &stubMinter{minted: make(map[string]int64), burned: make(map[string]int64)}
}

func (s *stubMinter) Mint(asset string, amount int64) error {
	s.minted[asset] += amount
	return nil
}

func (s *stubMinter) Burn(asset string, amount int64) error {
	s.burned[asset] += amount
	return nil
}

func setPrice(t *testing.T, agg *oracle.Aggregator, asset string, price1e9, now int64) {
	t.Helper()
	ok, err := agg.Submit(asset, oracle.Sample{Source: "test", Value: price1e9, Exponent: -9, Timestamp: now}, nil, now)
	if err != nil || !ok {
		t.Fatalf("setPrice %s: ok=%v err=%v", asset, ok, err)
	}
}

func newTestMarket(t *testing.T) (*market.Market, *oracle.Aggregator, *stubMinter) {
	t.Helper()
	agg := oracle.NewAggregator(oracle.Config{ReserveAsset: state.ReserveAssetID})
	minter := newStubMinter()
	m := market.New(market.Config{}, agg, minter)

	setPrice(t, agg, "USDC", math.Scale, 100)
	setPrice(t, agg, "BTC", math.Scale, 100) // unit price keeps scenarios readable
	setPrice(t, agg, "ETH", math.Scale, 100)

	if err := m.SeedReserves("USDC", 100_000*math.Scale, v); err != nil {
		t.Fatal(err)
	}
	return m, agg, minter
}

// ============================================================================
// Test: deposit / borrow / repay round trip
// ============================================================================

func TestRoundTrip_DepositBorrowRepay(t *testing.T) {
	m, _, _ := newTestMarket(t)
	user := uuid.New()

	if err := m.DepositCollateral(user, "BTC", 1000*math.Scale, v); err != nil {
		t.Fatal(err)
	}
	// CF 0.8 at price 1.0: exactly 800 is borrowable.
	if err := m.Borrow(user, "USDC", 800*math.Scale, 100, v); err != nil {
		t.Fatalf("borrow at the limit should pass: %v", err)
	}

	res, err := m.Repay(user, "USDC", 800*math.Scale, 100, v)
	if err != nil {
		t.Fatal(err)
	}
	if res.Paid != 800*math.Scale || res.Refund != 0 {
		t.Errorf("paid=%d refund=%d", res.Paid, res.Refund)
	}

	o, _ := m.Obligations().Lookup(user)
	if o.DebtScaled != 0 || o.DebtAsset != "" {
		t.Errorf("debt not exactly zero: scaled=%d asset=%q", o.DebtScaled, o.DebtAsset)
	}
	if o.CollateralBalance("BTC") != 1000*math.Scale {
		t.Errorf("collateral changed: %d", o.CollateralBalance("BTC"))
	}
}

func TestBorrow_OverLimitFails(t *testing.T) {
	m, _, _ := newTestMarket(t)
	user := uuid.New()
	if err := m.DepositCollateral(user, "BTC", 1000*math.Scale, v); err != nil {
		t.Fatal(err)
	}
	err := m.Borrow(user, "USDC", 800*math.Scale+1, 100, v)
	if !errors.Is(err, market.ErrBorrowTooMuch) {
		t.Errorf("want ErrBorrowTooMuch, got %v", err)
	}
	// Failed borrow leaves no debt behind.
	o, _ := m.Obligations().Lookup(user)
	if o.HasDebt() {
		t.Error("failed borrow left debt")
	}
}

func TestBorrow_Dust(t *testing.T) {
	m, _, _ := newTestMarket(t)
	user := uuid.New()
	if err := m.DepositCollateral(user, "BTC", 1000*math.Scale, v); err != nil {
		t.Fatal(err)
	}
	err := m.Borrow(user, "USDC", math.Scale/2, 100, v)
	if !errors.Is(err, market.ErrBorrowTooSmall) {
		t.Errorf("want ErrBorrowTooSmall, got %v", err)
	}
}

func TestBorrow_WrongAsset(t *testing.T) {
	m, _, _ := newTestMarket(t)
	user := uuid.New()
	if err := m.DepositCollateral(user, "BTC", 1000*math.Scale, v); err != nil {
		t.Fatal(err)
	}
	err := m.Borrow(user, "ETH", 10*math.Scale, 100, v)
	if !errors.Is(err, state.ErrInvalidCoinType) {
		t.Errorf("want ErrInvalidCoinType, got %v", err)
	}
}

func TestBorrow_PoolLiquidity(t *testing.T) {
	agg := oracle.NewAggregator(oracle.Config{ReserveAsset: state.ReserveAssetID})
	m := market.New(market.Config{}, agg, newStubMinter())
	setPrice(t, agg, "USDC", math.Scale, 100)
	setPrice(t, agg, "BTC", math.Scale, 100)
	if err := m.SeedReserves("USDC", 10*math.Scale, v); err != nil {
		t.Fatal(err)
	}

	user := uuid.New()
	if err := m.DepositCollateral(user, "BTC", 1000*math.Scale, v); err != nil {
		t.Fatal(err)
	}
	err := m.Borrow(user, "USDC", 100*math.Scale, 100, v)
	if !errors.Is(err, market.ErrBorrowLimitReached) {
		t.Errorf("want ErrBorrowLimitReached, got %v", err)
	}
}

func TestRepay_NoDebt(t *testing.T) {
	m, _, _ := newTestMarket(t)
	user := uuid.New()
	if err := m.DepositCollateral(user, "BTC", 10*math.Scale, v); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Repay(user, "USDC", math.Scale, 100, v); !errors.Is(err, market.ErrNoDebt) {
		t.Errorf("want ErrNoDebt, got %v", err)
	}
}

func TestRepay_ExcessRefunded(t *testing.T) {
	m, _, _ := newTestMarket(t)
	user := uuid.New()
	if err := m.DepositCollateral(user, "BTC", 1000*math.Scale, v); err != nil {
		t.Fatal(err)
	}
	if err := m.Borrow(user, "USDC", 100*math.Scale, 100, v); err != nil {
		t.Fatal(err)
	}
	res, err := m.Repay(user, "USDC", 150*math.Scale, 100, v)
	if err != nil {
		t.Fatal(err)
	}
	if res.Paid != 100*math.Scale || res.Refund != 50*math.Scale {
		t.Errorf("paid=%d refund=%d", res.Paid, res.Refund)
	}
}

func TestBorrow_AccruesInterestOverTime(t *testing.T) {
	m, _, _ := newTestMarket(t)
	user := uuid.New()
	if err := m.DepositCollateral(user, "BTC", 10_000*math.Scale, v); err != nil {
		t.Fatal(err)
	}
	if err := m.Borrow(user, "USDC", 1000*math.Scale, 100, v); err != nil {
		t.Fatal(err)
	}

	// A year later the owed amount must exceed the principal.
	now := int64(100) + math.SecondsPerYear
	res, err := m.Repay(user, "USDC", 5000*math.Scale, now, v)
	if err != nil {
		t.Fatal(err)
	}
	if res.Paid <= 1000*math.Scale {
		t.Errorf("no interest accrued: paid %d", res.Paid)
	}
	o, _ := m.Obligations().Lookup(user)
	if o.HasDebt() {
		t.Error("full repayment left debt")
	}
}

// ============================================================================
// Test: withdraw
// ============================================================================

func TestWithdraw_TooMuchWhileIndebted(t *testing.T) {
	m, _, _ := newTestMarket(t)
	user := uuid.New()
	if err := m.DepositCollateral(user, "BTC", 1000*math.Scale, v); err != nil {
		t.Fatal(err)
	}
	if err := m.Borrow(user, "USDC", 800*math.Scale, 100, v); err != nil {
		t.Fatal(err)
	}
	err := m.WithdrawCollateral(user, "BTC", math.Scale, 100, v)
	if !errors.Is(err, market.ErrWithdrawTooMuch) {
		t.Errorf("want ErrWithdrawTooMuch, got %v", err)
	}
}

func TestWithdraw_ExceedsBalance(t *testing.T) {
	m, _, _ := newTestMarket(t)
	user := uuid.New()
	if err := m.DepositCollateral(user, "BTC", 10*math.Scale, v); err != nil {
		t.Fatal(err)
	}
	err := m.WithdrawCollateral(user, "BTC", 11*math.Scale, 100, v)
	if !errors.Is(err, state.ErrCollateralNotEnough) {
		t.Errorf("want ErrCollateralNotEnough, got %v", err)
	}
}

func TestWithdraw_FreeCollateral(t *testing.T) {
	m, _, _ := newTestMarket(t)
	user := uuid.New()
	if err := m.DepositCollateral(user, "BTC", 1000*math.Scale, v); err != nil {
		t.Fatal(err)
	}
	if err := m.Borrow(user, "USDC", 400*math.Scale, 100, v); err != nil {
		t.Fatal(err)
	}
	// 500 BTC still covers 400 debt at CF 0.8 exactly.
	if err := m.WithdrawCollateral(user, "BTC", 500*math.Scale, 100, v); err != nil {
		t.Errorf("withdraw within headroom failed: %v", err)
	}
}

// ============================================================================
// Test: pause and version guards
// ============================================================================

func TestGuards_CheckedFirst(t *testing.T) {
	m, _, _ := newTestMarket(t)
	user := uuid.New()

	if err := m.SetPause(true, v); err != nil {
		t.Fatal(err)
	}
	// Even a zero-amount call reports the pause first.
	if err := m.DepositCollateral(user, "BTC", 0, v); !errors.Is(err, market.ErrMarketPaused) {
		t.Errorf("want ErrMarketPaused, got %v", err)
	}
	if err := m.SetPause(false, v); err != nil {
		t.Fatal(err)
	}

	if err := m.DepositCollateral(user, "BTC", 0, v+1); !errors.Is(err, market.ErrVersionMismatch) {
		t.Errorf("want ErrVersionMismatch, got %v", err)
	}
	if err := m.DepositCollateral(user, "BTC", 0, v); !errors.Is(err, market.ErrZeroAmount) {
		t.Errorf("want ErrZeroAmount, got %v", err)
	}
}

// ============================================================================
// Test: isolation and collateral limits
// ============================================================================

func TestIsolation_CannotMixEitherDirection(t *testing.T) {
	m, agg, _ := newTestMarket(t)
	setPrice(t, agg, "CREEK", 25*math.Scale, 100)

	a := uuid.New()
	if err := m.DepositCollateral(a, "BTC", 10*math.Scale, v); err != nil {
		t.Fatal(err)
	}
	if err := m.DepositCollateral(a, "CREEK", 10*math.Scale, v); !errors.Is(err, state.ErrInvalidCoinType) {
		t.Errorf("isolated on top of other collateral: want ErrInvalidCoinType, got %v", err)
	}

	b := uuid.New()
	if err := m.DepositCollateral(b, "CREEK", 10*math.Scale, v); err != nil {
		t.Fatal(err)
	}
	if err := m.DepositCollateral(b, "CREEK", 10*math.Scale, v); err != nil {
		t.Errorf("topping up the isolated asset itself must work: %v", err)
	}
	if err := m.DepositCollateral(b, "BTC", 10*math.Scale, v); !errors.Is(err, state.ErrInvalidCoinType) {
		t.Errorf("other collateral on top of isolated: want ErrInvalidCoinType, got %v", err)
	}
}

func TestDeposit_MaxCollateralTypes(t *testing.T) {
	m, _, _ := newTestMarket(t)

	extra := []string{"SOL", "AVAX", "DOT", "LINK"}
	for _, id := range extra {
		if err := m.Assets().List(&state.Asset{ID: id, Decimals: 9, Active: true}); err != nil {
			t.Fatal(err)
		}
		p := &state.RiskParams{Asset: id, CollateralFactor: 500_000_000, LiquidationFactor: 600_000_000, LiquidationPenalty: 50_000_000}
		if _, err := m.ProposeRiskUpdate(p, v); err != nil {
			t.Fatal(err)
		}
	}
	m.AdvanceEpoch(state.RiskUpdateDelayEpochs)

	user := uuid.New()
	for _, id := range append([]string{"BTC"}, extra...) {
		if err := m.DepositCollateral(user, id, math.Scale, v); err != nil {
			t.Fatalf("deposit %s: %v", id, err)
		}
	}
	if err := m.DepositCollateral(user, "ETH", math.Scale, v); !errors.Is(err, state.ErrMaxCollateralReached) {
		t.Errorf("want ErrMaxCollateralReached, got %v", err)
	}
	// Topping up an already-held type is still fine.
	if err := m.DepositCollateral(user, "BTC", math.Scale, v); err != nil {
		t.Errorf("top-up after limit: %v", err)
	}
}

func TestDeposit_InactiveAsset(t *testing.T) {
	m, _, _ := newTestMarket(t)
	if err := m.Assets().SetActive("BTC", false); err != nil {
		t.Fatal(err)
	}
	err := m.DepositCollateral(uuid.New(), "BTC", math.Scale, v)
	if !errors.Is(err, state.ErrAssetNotActive) {
		t.Errorf("want ErrAssetNotActive, got %v", err)
	}
}

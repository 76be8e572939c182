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

// ============================================================================
// Test: flash loans
// ============================================================================

func TestFlashLoan_ExactRepaySucceeds(t *testing.T) {
	m, _, _ := newTestMarket(t)
	// 10,000 at 0.1%: fee 10, due 10,010.
	sum, err := m.ExecuteFlashLoan("USDC", 10_000*math.Scale, 10_010*math.Scale, v)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Fee != 10*math.Scale || sum.Refund != 0 {
		t.Errorf("fee=%d refund=%d", sum.Fee, sum.Refund)
	}
	if got := m.Pools().Get("USDC").FeeReserves; got != 10*math.Scale {
		t.Errorf("fee reserves = %d, want %d", got, 10*math.Scale)
	}
}

func TestFlashLoan_OneShortFails(t *testing.T) {
	m, _, _ := newTestMarket(t)
	_, err := m.ExecuteFlashLoan("USDC", 10_000*math.Scale, 10_009*math.Scale, v)
	if !errors.Is(err, market.ErrFlashLoanRepayNotEnough) {
		t.Errorf("want ErrFlashLoanRepayNotEnough, got %v", err)
	}
	// Nothing may move on failure.
	if got := m.Pools().Get("USDC").FeeReserves; got != 0 {
		t.Errorf("fee reserves = %d after failed loan", got)
	}
}

func TestFlashLoan_SingleTxCap(t *testing.T) {
	m, _, _ := newTestMarket(t)
	_, err := m.ExecuteFlashLoan("USDC", market.DefaultFlashLoanCap+1, 60_000*math.Scale, v)
	if !errors.Is(err, market.ErrFlashLoanExceedSingleCap) {
		t.Errorf("want ErrFlashLoanExceedSingleCap, got %v", err)
	}
}

func TestFlashLoan_ReceiptFlow(t *testing.T) {
	m, _, _ := newTestMarket(t)

	r, err := m.FlashBorrow("USDC", 1000*math.Scale, v)
	if err != nil {
		t.Fatal(err)
	}
	if m.OutstandingReceipts() != 1 {
		t.Fatalf("outstanding = %d, want 1", m.OutstandingReceipts())
	}

	// Short repayment leaves the receipt live.
	if _, err := m.FlashRepay(r.ID, 1000*math.Scale, v); !errors.Is(err, market.ErrFlashLoanRepayNotEnough) {
		t.Fatalf("want ErrFlashLoanRepayNotEnough, got %v", err)
	}
	if m.OutstandingReceipts() != 1 {
		t.Error("failed repay consumed the receipt")
	}

	refund, err := m.FlashRepay(r.ID, 1002*math.Scale, v)
	if err != nil {
		t.Fatal(err)
	}
	if want := 1002*math.Scale - 1001*math.Scale; refund != want {
		t.Errorf("refund = %d, want %d", refund, want)
	}
	if m.OutstandingReceipts() != 0 {
		t.Error("receipt not consumed")
	}
}

func TestFlashRepay_UnknownReceipt(t *testing.T) {
	m, _, _ := newTestMarket(t)
	if _, err := m.FlashRepay(uuid.New(), 1000*math.Scale, v); err == nil {
		t.Fatal("forged receipt must not settle")
	}
}

// ============================================================================
// Test: reserve staking boundary
// ============================================================================

func TestStakeReserve_FixedRatio(t *testing.T) {
	m, agg, minter := newTestMarket(t)
	setPrice(t, agg, state.ReserveAssetID, 25*math.Scale, 100)

	res, err := m.StakeReserve(uuid.New(), math.Scale, 100, v)
	if err != nil {
		t.Fatal(err)
	}
	if res.MintedEach != 100*math.Scale {
		t.Errorf("minted %d of each, want %d", res.MintedEach, 100*math.Scale)
	}
	if minter.burned[state.ReserveAssetID] != math.Scale {
		t.Errorf("burned %d reserve units", minter.burned[state.ReserveAssetID])
	}
	if minter.minted[state.StakedDerivativeID] != 100*math.Scale ||
		minter.minted[state.GovernanceDerivativeID] != 100*math.Scale {
		t.Errorf("minted %v", minter.minted)
	}
	// Governance derivative prices off EMA/ratio: 25/100 = 0.25.
	if res.DerivativePrice != 250_000_000 {
		t.Errorf("derivative price = %d, want 250000000", res.DerivativePrice)
	}
}

func TestStakeReserve_RequiresSeededEMA(t *testing.T) {
	agg := oracle.NewAggregator(oracle.Config{ReserveAsset: state.ReserveAssetID})
	m := market.New(market.Config{}, agg, newStubMinter())
	_, err := m.StakeReserve(uuid.New(), math.Scale, 100, v)
	if !errors.Is(err, oracle.ErrPriceNotFound) {
		t.Errorf("want ErrPriceNotFound, got %v", err)
	}
}

package math_test

import (
	"testing"

	"github.com/Creek-Finance/lendcore/internal/math"
)

// ============================================================================
// Test: rounding
// ============================================================================

func TestDivideInt128_HalfUp(t *testing.T) {
	cases := []struct {
		a, b, denom int64
		want        int64
	}{
		{7, 1, 2, 4},  // 3.5 -> 4
		{5, 1, 2, 3},  // 2.5 -> 3
		{-7, 1, 2, -4},
		{6, 1, 3, 2},
	}
	for _, c := range cases {
		got := math.MulDiv(c.a, c.b, c.denom, math.RoundHalfUp)
		if got != c.want {
			t.Errorf("MulDiv(%d,%d,%d) = %d, want %d", c.a, c.b, c.denom, got, c.want)
		}
	}
}

func TestDivideInt128_HalfEven(t *testing.T) {
	if got := math.MulDiv(5, 1, 2, math.RoundHalfEven); got != 2 {
		t.Errorf("2.5 half-even = %d, want 2", got)
	}
	if got := math.MulDiv(7, 1, 2, math.RoundHalfEven); got != 4 {
		t.Errorf("3.5 half-even = %d, want 4", got)
	}
}

func TestDivideInt128_RoundUp(t *testing.T) {
	if got := math.MulDiv(10, 1, 3, math.RoundUp); got != 4 {
		t.Errorf("10/3 round-up = %d, want 4", got)
	}
	if got := math.MulDiv(9, 1, 3, math.RoundUp); got != 3 {
		t.Errorf("9/3 round-up = %d, want 3", got)
	}
}

// ============================================================================
// Test: scale helpers
// ============================================================================

func TestScaleMul(t *testing.T) {
	// 2.0 * 1.5 = 3.0 at 1e9
	got := math.ScaleMul(2*math.Scale, 1_500_000_000)
	if got != 3*math.Scale {
		t.Errorf("got %d, want %d", got, 3*math.Scale)
	}
}

func TestWadRoundTrip(t *testing.T) {
	v := int64(123_456_789)
	if back := math.FromWad(math.ToWad(v)); back != v {
		t.Errorf("round trip: got %d, want %d", back, v)
	}
}

func TestSaturatingAdd(t *testing.T) {
	max := int64(^uint64(0) >> 1)
	if got := math.SaturatingAdd(max-1, 5); got != max {
		t.Errorf("got %d, want saturation at max", got)
	}
	if got := math.SaturatingAdd(1, 2); got != 3 {
		t.Errorf("got %d, want 3", got)
	}
}

// ============================================================================
// Test: utilization and the rate curve
// ============================================================================

func TestUtilization_Clamped(t *testing.T) {
	if got := math.Utilization(0, 1000); got != 0 {
		t.Errorf("zero debt: got %d, want 0", got)
	}
	if got := math.Utilization(500, 500); got != math.Scale/2 {
		t.Errorf("50%%: got %d, want %d", got, math.Scale/2)
	}
	if got := math.Utilization(1000, 0); got != math.Scale {
		t.Errorf("full: got %d, want %d", got, math.Scale)
	}
}

func TestBorrowRate_BelowKink(t *testing.T) {
	p := math.RateParams{
		Base:   20_000_000,  // 2%
		Slope1: 150_000_000, // 15%
		Slope2: 600_000_000, // 60%
		Kink:   800_000_000, // 80%
	}
	// u = 40% = half the kink span: base + slope1/2 = 2% + 7.5% = 9.5%
	got := math.BorrowRate(p, 400_000_000)
	if got != 95_000_000 {
		t.Errorf("got %d, want 95000000", got)
	}
}

func TestBorrowRate_AtKink(t *testing.T) {
	p := math.RateParams{Base: 20_000_000, Slope1: 150_000_000, Slope2: 600_000_000, Kink: 800_000_000}
	got := math.BorrowRate(p, 800_000_000)
	if got != 170_000_000 {
		t.Errorf("got %d, want 170000000", got)
	}
}

func TestBorrowRate_AboveKink(t *testing.T) {
	p := math.RateParams{Base: 20_000_000, Slope1: 150_000_000, Slope2: 600_000_000, Kink: 800_000_000}
	// u = 90%: half the post-kink span, base + slope1 + slope2/2 = 47%
	got := math.BorrowRate(p, 900_000_000)
	if got != 470_000_000 {
		t.Errorf("got %d, want 470000000", got)
	}
}

// ============================================================================
// Test: accrual index
// ============================================================================

func TestAccrualFactor_ZeroElapsed(t *testing.T) {
	if got := math.AccrualFactor(100_000_000, 0); got != math.Wad {
		t.Errorf("got %d, want identity factor", got)
	}
}

func TestAccrualFactor_FullYear(t *testing.T) {
	// 10% for a full year: factor = 1.1 wad
	got := math.AccrualFactor(100_000_000, math.SecondsPerYear)
	want := math.Wad + math.Wad/10
	if got != want {
		t.Errorf("got %d, want %d", got, want)
	}
}

func TestGrowIndex_Monotonic(t *testing.T) {
	index := math.Wad
	for _, elapsed := range []int64{0, 1, 3600, 86400, 0, 31_536_000} {
		factor := math.AccrualFactor(50_000_000, elapsed)
		next := math.GrowIndex(index, factor)
		if next < index {
			t.Fatalf("index decreased: %d -> %d (elapsed %d)", index, next, elapsed)
		}
		index = next
	}
}

func TestScaledDebt_MinimumOne(t *testing.T) {
	// A dust amount against a huge index still books at least 1 unit.
	bigIndex := int64(2) * math.Wad
	if got := math.ScaledDebt(1, bigIndex); got != 1 {
		t.Errorf("got %d, want 1", got)
	}
}

func TestDebtRoundTrip_NeverUnderstates(t *testing.T) {
	index := math.Wad + math.Wad/20 // 1.05
	amount := int64(800 * 1_000_000_000)
	scaled := math.ScaledDebt(amount, index)
	back := math.DebtFromScaled(scaled, index)
	if back < amount {
		t.Errorf("owed %d understates borrowed %d", back, amount)
	}
}

// ============================================================================
// Test: EMA and oracle normalization
// ============================================================================

func TestEMAStep_Seeded(t *testing.T) {
	ema := int64(100 * 1_000_000_000)
	next := math.EMAStep(ema, ema, 120)
	if next != ema {
		t.Errorf("steady sample moved the average: got %d", next)
	}
}

func TestEMAStep_MovesTowardSample(t *testing.T) {
	ema := int64(100_000_000_000)
	sample := int64(220_000_000_000)
	next := math.EMAStep(ema, sample, 120)
	want := ema + (sample-ema)/120
	if next != want {
		t.Errorf("got %d, want %d", next, want)
	}
	if next <= ema || next >= sample {
		t.Errorf("EMA %d not strictly between %d and %d", next, ema, sample)
	}
}

func TestNormalizeSample_NegativeExponent(t *testing.T) {
	// 100 * 10^-1 = 10.0 -> 10e18
	got := math.NormalizeSample(100, -1)
	want := int64(10) * math.Wad
	if got != want {
		t.Errorf("got %d, want %d", got, want)
	}
}

func TestNormalizeSample_ZeroExponent(t *testing.T) {
	got := math.NormalizeSample(7, 0)
	if got != 7*math.Wad {
		t.Errorf("got %d, want %d", got, 7*math.Wad)
	}
}

func TestNormalizeSample_NonPositiveValue(t *testing.T) {
	if got := math.NormalizeSample(0, -8); got != 0 {
		t.Errorf("got %d, want 0", got)
	}
	if got := math.NormalizeSample(-5, -8); got != 0 {
		t.Errorf("got %d, want 0", got)
	}
}

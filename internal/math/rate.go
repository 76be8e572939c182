package math

import (
	"math/big"
)

const SecondsPerYear = int64(31_536_000)

// RateParams is the kinked borrow-rate curve at 9-decimal scale.
// Below the kink the rate climbs from Base toward Base+Slope1; above it
// the remaining utilization range adds Slope2 on top.
type RateParams struct {
	Base   int64 // annualized, 1e9 scale
	Slope1 int64
	Slope2 int64
	Kink   int64 // utilization breakpoint, 1e9 scale, 0 < Kink < 1e9
}

// Utilization computes debt / (debt + reserves) at 9-decimal scale,
// clamped to [0, 1]. Zero denominator reads as zero utilization.
func Utilization(debt, reserves int64) int64 {
	if debt <= 0 {
		return 0
	}
	total := SaturatingAdd(debt, reserves)
	u := MulDiv(debt, Scale, total, RoundHalfUp)
	if u > Scale {
		return Scale
	}
	return u
}

// BorrowRate maps utilization to an annualized borrow rate (1e9 scale)
// along the kinked piecewise-linear curve. Pure and total: extreme
// inputs saturate rather than overflow.
func BorrowRate(p RateParams, utilization int64) int64 {
	if utilization < 0 {
		utilization = 0
	}
	if utilization > Scale {
		utilization = Scale
	}

	if p.Kink <= 0 || utilization <= p.Kink {
		kink := p.Kink
		if kink <= 0 {
			kink = Scale
		}
		return SaturatingAdd(p.Base, MulDiv(p.Slope1, utilization, kink, RoundHalfUp))
	}

	over := utilization - p.Kink
	span := Scale - p.Kink
	if span <= 0 {
		span = 1
	}
	rate := SaturatingAdd(p.Base, p.Slope1)
	return SaturatingAdd(rate, MulDiv(p.Slope2, over, span, RoundHalfUp))
}

// AccrualFactor returns the wad multiplier 1 + rate * elapsed / year for
// a non-negative elapsed duration in seconds. The rate arrives at 1e9
// scale; the factor is wad so repeated small accruals keep precision.
func AccrualFactor(annualRate, elapsedSeconds int64) int64 {
	if elapsedSeconds <= 0 || annualRate <= 0 {
		return Wad
	}
	rateWad := ToWad(annualRate)
	num := MultiplyInt128(rateWad, elapsedSeconds)
	delta := DivideInt128(num, SecondsPerYear, RoundHalfUp)
	putInt128(num)
	return SaturatingAdd(Wad, delta)
}

// GrowIndex advances a wad accrual index by a wad factor, saturating.
// The result never drops below the input index.
func GrowIndex(index, factor int64) int64 {
	if factor <= Wad {
		return index
	}
	num := MultiplyInt128(index, factor)
	grown := DivideInt128(num, Wad, RoundHalfUp)
	putInt128(num)
	if grown < index {
		return maxInt64
	}
	return grown
}

// ScaledDebt converts a face debt amount into index-scaled units:
// scaled = amount * wad / index, rounded up to a minimum of 1 so dust
// borrows can never vanish from the books.
func ScaledDebt(amount, index int64) int64 {
	if amount <= 0 {
		return 0
	}
	num := MultiplyInt128(amount, Wad)
	scaled := DivideInt128(num, index, RoundUp)
	putInt128(num)
	if scaled < 1 {
		return 1
	}
	return scaled
}

// DebtFromScaled converts index-scaled units back to a face amount:
// amount = scaled * index / wad, rounded up so owed debt is never
// understated by truncation.
func DebtFromScaled(scaled, index int64) int64 {
	if scaled <= 0 {
		return 0
	}
	num := MultiplyInt128(scaled, index)
	amount := DivideInt128(num, Wad, RoundUp)
	putInt128(num)
	return amount
}

// NormalizeSample lifts a raw oracle value at an arbitrary power-of-ten
// exponent to the canonical wad representation. For a non-negative
// exponent e the sample scales by 10^(18-e); for a negative exponent it
// scales by 10^18 then divides by 10^|e|.
func NormalizeSample(value int64, exponent int32) int64 {
	if value <= 0 {
		return 0
	}
	v := big.NewInt(value)
	if exponent >= 0 {
		shift := int32(WadConfig.DecimalPrecision) - exponent
		if shift >= 0 {
			v.Mul(v, Pow10(shift))
			return clampBig(v)
		}
		return DivideInt128(v, Pow10(-shift).Int64(), RoundHalfUp)
	}
	v.Mul(v, Pow10(int32(WadConfig.DecimalPrecision)))
	quotient := new(big.Int).Set(v)
	divisor := Pow10(-exponent)
	rem := new(big.Int)
	quotient.QuoRem(quotient, divisor, rem)
	if new(big.Int).Lsh(rem, 1).Cmp(divisor) >= 0 {
		quotient.Add(quotient, big.NewInt(1))
	}
	return clampBig(quotient)
}

func clampBig(v *big.Int) int64 {
	if !v.IsInt64() {
		return maxInt64
	}
	return v.Int64()
}

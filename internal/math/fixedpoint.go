package math

import (
	"math/big"
	"sync"
)

// DecimalConfig defines fixed-point precision
type DecimalConfig struct {
	DecimalPrecision int   // Number of decimal places
	Scale            int64 // 10^DecimalPrecision
}

var (
	// AmountConfig covers every persisted quantity: balances, prices,
	// factors, fees. All listed assets share the 9-decimal scale so
	// cross-asset math never needs a per-asset conversion factor.
	AmountConfig = DecimalConfig{DecimalPrecision: 9, Scale: 1_000_000_000}

	// WadConfig is the internal 18-decimal representation used for the
	// accrual index, normalized oracle samples, and the EMA. Wad values
	// never leave the process; storage is always 9-decimal.
	WadConfig = DecimalConfig{DecimalPrecision: 18, Scale: 1_000_000_000_000_000_000}
)

const (
	Scale = int64(1_000_000_000)
	Wad   = int64(1_000_000_000_000_000_000)

	maxInt64 = int64(^uint64(0) >> 1)
)

// Int128 is a pooled big.Int for intermediate calculations
var int128Pool = &sync.Pool{
	New: func() interface{} {
		return new(big.Int)
	},
}

func getInt128() *big.Int {
	return int128Pool.Get().(*big.Int)
}

func putInt128(v *big.Int) {
	v.SetInt64(0) // Clear before returning to pool
	int128Pool.Put(v)
}

type RoundingMode int

const (
	RoundHalfUp RoundingMode = iota // Default for lending math: ties away from zero
	RoundHalfEven
	RoundDown
	RoundUp
)

// MultiplyInt128 performs a * b using int128 to prevent overflow
func MultiplyInt128(a, b int64) *big.Int {
	result := getInt128()
	result.Mul(big.NewInt(a), big.NewInt(b))
	return result
}

// DivideInt128 performs numerator / denominator with rounding.
// The result saturates at MaxInt64 instead of wrapping; callers relying
// on a monotonically non-decreasing index depend on this.
func DivideInt128(numerator *big.Int, denominator int64, roundingMode RoundingMode) int64 {
	denom := big.NewInt(denominator)
	quotient := getInt128()
	remainder := getInt128()

	quotient.QuoRem(numerator, denom, remainder)
	remainder.Abs(remainder)

	var result int64
	if !quotient.IsInt64() {
		result = maxInt64
		if quotient.Sign() < 0 {
			result = -maxInt64
		}
		putInt128(quotient)
		putInt128(remainder)
		return result
	}
	result = quotient.Int64()

	negative := numerator.Sign() < 0 != (denominator < 0)
	half := big.NewInt(denominator)
	half.Abs(half)
	twice := remainder.Sign() != 0 && new(big.Int).Lsh(remainder, 1).Cmp(half) >= 0
	exact := remainder.Sign() == 0

	switch roundingMode {
	case RoundHalfUp:
		if twice {
			result = bump(result, negative)
		}
	case RoundHalfEven:
		halfExact := new(big.Int).Lsh(remainder, 1).Cmp(half) == 0
		if twice && (!halfExact || result%2 != 0) {
			result = bump(result, negative)
		}
	case RoundUp:
		if !exact {
			result = bump(result, negative)
		}
	case RoundDown:
		// truncated already
	}

	putInt128(quotient)
	putInt128(remainder)

	return result
}

func bump(v int64, negative bool) int64 {
	if negative {
		if v == -maxInt64 {
			return v
		}
		return v - 1
	}
	if v == maxInt64 {
		return v
	}
	return v + 1
}

// MulDiv computes a * b / denom through int128, with rounding.
func MulDiv(a, b, denom int64, mode RoundingMode) int64 {
	num := MultiplyInt128(a, b)
	result := DivideInt128(num, denom, mode)
	putInt128(num)
	return result
}

// ScaleMul multiplies two 9-decimal fixed-point values.
func ScaleMul(a, b int64) int64 {
	return MulDiv(a, b, Scale, RoundHalfUp)
}

// ScaleDiv divides two 9-decimal fixed-point values.
func ScaleDiv(a, b int64) int64 {
	return MulDiv(a, Scale, b, RoundHalfUp)
}

// WadMul multiplies two 18-decimal values.
func WadMul(a, b int64) int64 {
	return MulDiv(a, b, Wad, RoundHalfUp)
}

// WadDiv divides two 18-decimal values.
func WadDiv(a, b int64) int64 {
	return MulDiv(a, Wad, b, RoundHalfUp)
}

// ToWad lifts a 9-decimal value to 18 decimals, saturating.
func ToWad(v int64) int64 {
	return SaturatingMul(v, Wad/Scale)
}

// FromWad drops an 18-decimal value back to 9 decimals with rounding.
func FromWad(v int64) int64 {
	num := big.NewInt(v)
	return DivideInt128(num, Wad/Scale, RoundHalfUp)
}

// SaturatingAdd adds two non-negative values, clamping at MaxInt64.
func SaturatingAdd(a, b int64) int64 {
	if a > maxInt64-b {
		return maxInt64
	}
	return a + b
}

// SaturatingMul multiplies two non-negative values, clamping at MaxInt64.
func SaturatingMul(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	if a > maxInt64/b {
		return maxInt64
	}
	return a * b
}

// EMAStep advances a 120-style exponential moving average by one sample:
// ema + (sample - ema) / periods, with half-up rounding on the step.
// The first sample seeds the average directly; callers handle that case.
func EMAStep(ema, sample, periods int64) int64 {
	diff := big.NewInt(sample)
	diff.Sub(diff, big.NewInt(ema))
	step := DivideInt128(diff, periods, RoundHalfUp)
	return ema + step
}

// Pow10 returns 10^n as big.Int for exponent normalization. n must be >= 0.
func Pow10(n int32) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

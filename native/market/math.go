package market

import "math/big"

// Rounding selects the direction applied to the division step of
// proportional arithmetic.
type Rounding uint8

const (
	// ProtocolFavor floors the quotient; rounding dust stays in the pool.
	ProtocolFavor Rounding = iota
	// Neutral rounds up once the remainder reaches the floored half of the
	// denominator.
	Neutral
	// UserFavor ceils whenever a remainder exists. Over many claims this can
	// over-distribute, so production settlement must not use it.
	UserFavor
)

// MaxBps is the basis-point denominator (10000 bps = 100%).
const MaxBps = 10_000

// All money math operates on signed 128-bit semantics: values are big.Ints
// whose magnitude is checked against the i128 range after every operation, so
// overflow surfaces as ErrArithmetic instead of silently growing.
var (
	maxInt128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minInt128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))

	bigOne = big.NewInt(1)
	bigBps = big.NewInt(MaxBps)
)

func fitsInt128(v *big.Int) bool {
	return v != nil && v.Cmp(minInt128) >= 0 && v.Cmp(maxInt128) <= 0
}

// SafeAdd returns a+b, failing with ErrArithmetic when the sum leaves the
// signed 128-bit range.
func SafeAdd(a, b *big.Int) (*big.Int, error) {
	if !fitsInt128(a) || !fitsInt128(b) {
		return nil, ErrArithmetic
	}
	sum := new(big.Int).Add(a, b)
	if !fitsInt128(sum) {
		return nil, ErrArithmetic
	}
	return sum, nil
}

// SafeSub returns a-b with the same overflow contract as SafeAdd.
func SafeSub(a, b *big.Int) (*big.Int, error) {
	if !fitsInt128(a) || !fitsInt128(b) {
		return nil, ErrArithmetic
	}
	diff := new(big.Int).Sub(a, b)
	if !fitsInt128(diff) {
		return nil, ErrArithmetic
	}
	return diff, nil
}

// SafeMul returns a*b with the same overflow contract as SafeAdd.
func SafeMul(a, b *big.Int) (*big.Int, error) {
	if !fitsInt128(a) || !fitsInt128(b) {
		return nil, ErrArithmetic
	}
	product := new(big.Int).Mul(a, b)
	if !fitsInt128(product) {
		return nil, ErrArithmetic
	}
	return product, nil
}

// Percentage computes amount*bps/10000 under the chosen rounding. Negative
// amounts fail with ErrArithmetic; bps outside [0, 10000] fails with
// ErrInvalidFeeBps. Zero amount or zero bps short-circuits to zero so the
// boundary carries no rounding ambiguity.
func Percentage(amount *big.Int, bps int64, rounding Rounding) (*big.Int, error) {
	if amount == nil || amount.Sign() < 0 || !fitsInt128(amount) {
		return nil, ErrArithmetic
	}
	if bps < 0 || bps > MaxBps {
		return nil, ErrInvalidFeeBps
	}
	if amount.Sign() == 0 || bps == 0 {
		return big.NewInt(0), nil
	}
	product, err := SafeMul(amount, big.NewInt(bps))
	if err != nil {
		return nil, err
	}
	return divideWithRounding(product, bigBps, rounding)
}

// Proportion computes numerator*amount/denominator, the core payout formula:
// numerator is the user's winning stake, denominator the total winning-outcome
// stake, amount the pool to distribute. A numerator above the denominator is
// rejected because a user's stake can never exceed the aggregate it is drawn
// from.
func Proportion(numerator, denominator, amount *big.Int, rounding Rounding) (*big.Int, error) {
	if numerator == nil || denominator == nil || amount == nil {
		return nil, ErrArithmetic
	}
	if numerator.Sign() < 0 || denominator.Sign() <= 0 || amount.Sign() < 0 {
		return nil, ErrArithmetic
	}
	if !fitsInt128(numerator) || !fitsInt128(denominator) || !fitsInt128(amount) {
		return nil, ErrArithmetic
	}
	if numerator.Sign() == 0 || amount.Sign() == 0 {
		return big.NewInt(0), nil
	}
	if numerator.Cmp(denominator) > 0 {
		return nil, ErrArithmetic
	}
	product, err := SafeMul(numerator, amount)
	if err != nil {
		return nil, err
	}
	return divideWithRounding(product, denominator, rounding)
}

// divideWithRounding applies the rounding contract to numerator/denominator:
// ProtocolFavor keeps the floor, Neutral rounds up iff the remainder reaches
// the floored half of the denominator, UserFavor rounds up on any remainder.
// For identical inputs the results order ProtocolFavor <= Neutral <=
// UserFavor.
func divideWithRounding(numerator, denominator *big.Int, rounding Rounding) (*big.Int, error) {
	if denominator == nil || denominator.Sign() == 0 {
		return nil, ErrArithmetic
	}
	quotient, remainder := new(big.Int).QuoRem(numerator, denominator, new(big.Int))
	switch rounding {
	case ProtocolFavor:
	case Neutral:
		half := new(big.Int).Rsh(denominator, 1)
		if remainder.Sign() > 0 && remainder.Cmp(half) >= 0 {
			quotient.Add(quotient, bigOne)
		}
	case UserFavor:
		if remainder.Sign() > 0 {
			quotient.Add(quotient, bigOne)
		}
	default:
		return nil, ErrInvalidData
	}
	if !fitsInt128(quotient) {
		return nil, ErrArithmetic
	}
	return quotient, nil
}

// MultiProportion distributes poolBalance across stakes proportionally, with
// the final entry forced to the exact residual so the shares always sum to
// poolBalance regardless of rounding drift. It is the reference algorithm the
// lazy per-claim payout path is validated against, not a per-claim code path.
func MultiProportion(stakes []*big.Int, totalStake, poolBalance *big.Int, rounding Rounding) ([]*big.Int, error) {
	if len(stakes) == 0 {
		return nil, nil
	}
	if totalStake == nil || totalStake.Sign() <= 0 || poolBalance == nil || poolBalance.Sign() < 0 {
		return nil, ErrArithmetic
	}
	results := make([]*big.Int, 0, len(stakes))
	distributed := big.NewInt(0)
	for i, stake := range stakes {
		if stake == nil || stake.Sign() < 0 {
			return nil, ErrArithmetic
		}
		if i == len(stakes)-1 {
			remaining, err := SafeSub(poolBalance, distributed)
			if err != nil {
				return nil, err
			}
			results = append(results, remaining)
			continue
		}
		share, err := Proportion(stake, totalStake, poolBalance, rounding)
		if err != nil {
			return nil, err
		}
		distributed, err = SafeAdd(distributed, share)
		if err != nil {
			return nil, err
		}
		results = append(results, share)
	}
	total := big.NewInt(0)
	for _, share := range results {
		total.Add(total, share)
	}
	if total.Cmp(poolBalance) > 0 {
		return nil, ErrOverDistribution
	}
	return results, nil
}

package governance

import "math/big"

// QuadraticWeight returns the vote weight bought by staking amount.
//
// The weight is the exact integer square root of amount. Amounts that
// are not perfect squares of a positive integer are rejected with
// CodeCalculationError rather than rounded down.
func QuadraticWeight(amount uint64) (uint64, error) {
	if amount == 0 {
		return 0, reject(CodeCalculationError, "quadratic weight", "amount must be positive")
	}
	w := isqrt(amount)
	if w*w != amount {
		return 0, reject(CodeCalculationError, "quadratic weight", "%d is not a perfect square", amount)
	}
	return w, nil
}

// isqrt computes floor(sqrt(n)) exactly.
func isqrt(n uint64) uint64 {
	return new(big.Int).Sqrt(new(big.Int).SetUint64(n)).Uint64()
}

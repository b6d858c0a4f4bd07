// accounting.go enforces the value-conservation rule of a withdrawal
// chain: every withdrawal moves a positive amount, and the running total
// can never exceed what the deposit address provably holds.
package program

import (
	"fmt"

	"github.com/holiman/uint256"
)

// CheckAccounting validates one withdrawal step against the running total
// and returns the new cumulative amount after the step.
func CheckAccounting(withdraw, cumulative, deposit *uint256.Int) (*uint256.Int, error) {
	if withdraw.IsZero() {
		return nil, fmt.Errorf("%w: zero withdraw amount", ErrAccounting)
	}
	next, overflow := new(uint256.Int).AddOverflow(cumulative, withdraw)
	if overflow {
		return nil, fmt.Errorf("%w: cumulative amount overflows", ErrAccounting)
	}
	if next.Gt(deposit) {
		return nil, fmt.Errorf("%w: cumulative %s exceeds deposit %s", ErrAccounting, next, deposit)
	}
	return next, nil
}

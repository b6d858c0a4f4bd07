package program

import "errors"

// Program failures are all fatal to the proving attempt. The sentinel split
// exists for local diagnosis and tests; backend adapters collapse every
// failure to an all-or-nothing abort so that nothing beyond "failed"
// crosses the proving boundary.
var (
	// ErrMalformedInput covers structurally unusable inputs.
	ErrMalformedInput = errors.New("program: malformed input")

	// ErrProofOfWork is returned when the secret fails the difficulty gate.
	ErrProofOfWork = errors.New("program: secret fails proof-of-work gate")

	// ErrStateProof is returned when a state proof does not verify against
	// the supplied state root.
	ErrStateProof = errors.New("program: state proof invalid")

	// ErrNullifierChain is returned when the withdrawal-history invariants
	// are violated: first-withdrawal preconditions broken, or the previous
	// nullifier slot not matching the claimed running total.
	ErrNullifierChain = errors.New("program: nullifier chain violation")

	// ErrAccounting is returned for a non-positive withdraw amount or a
	// withdrawal exceeding the deposited balance.
	ErrAccounting = errors.New("program: withdrawal accounting violation")
)

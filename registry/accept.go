// accept.go is the chain-side acceptance check for withdrawal proofs.
package registry

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ethwormhole/wormhole/program"
	"github.com/ethwormhole/wormhole/zkvm"
)

var (
	// ErrNullifierSpent is returned when the committed nullifier's slot is
	// already set: the withdrawal was replayed.
	ErrNullifierSpent = errors.New("registry: nullifier already spent")

	// ErrStateRootMismatch is returned when the proof's state root does not
	// match the chain's root at the claimed block.
	ErrStateRootMismatch = errors.New("registry: state root mismatch")
)

// StateRootFunc resolves the chain's state root at a block number.
type StateRootFunc func(blockNumber uint64) (common.Hash, error)

// AcceptWithdrawal runs the checks a chain performs before honoring a
// withdrawal: the proof must verify under backend, the committed nullifier
// must be unspent in reg, and the committed state root must be the chain's
// root at blockNumber. It returns the verified public output; recording
// the spend in the registry is the caller's next step.
func AcceptWithdrawal(backend zkvm.Backend, proof *zkvm.Proof, reg Registry, blockNumber uint64, stateRootAt StateRootFunc) (*program.Output, error) {
	out, err := backend.Verify(proof)
	if err != nil {
		return nil, err
	}
	if reg.Read(out.Nullifier) != (common.Hash{}) {
		return nil, fmt.Errorf("%w: %s", ErrNullifierSpent, out.Nullifier)
	}
	root, err := stateRootAt(blockNumber)
	if err != nil {
		return nil, fmt.Errorf("registry: resolving state root: %w", err)
	}
	if root != out.StateRoot {
		return nil, fmt.Errorf("%w: block %d has %s, proof committed %s",
			ErrStateRootMismatch, blockNumber, root, out.StateRoot)
	}
	return out, nil
}

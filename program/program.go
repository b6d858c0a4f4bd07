// Package program is the proving workload: given one withdrawal witness it
// re-derives the deposit address and nullifiers from the secret, verifies
// the state proofs, enforces the nullifier-chain and accounting invariants,
// and produces the public output. It is plain Go with no host dependencies
// so the same code runs natively and inside a zkVM guest.
package program

import (
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/ethwormhole/wormhole"
	"github.com/ethwormhole/wormhole/trie"
)

// Execute runs the withdrawal program over in. On success it returns the
// public output to commit; on any failure it returns a nil output and one
// of the package sentinels.
func Execute(in *Input) (*Output, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: nil input", ErrMalformedInput)
	}
	if !wormhole.CheckPoW(in.Secret, wormhole.PowLogDifficulty) {
		return nil, ErrProofOfWork
	}

	deposit := orZero(in.DepositAmount)
	withdraw := orZero(in.WithdrawAmount)
	cumulative := orZero(in.CumulativeWithdrawnAmount)
	index := orZero(in.WithdrawalIndex)

	if _, err := CheckAccounting(withdraw, cumulative, deposit); err != nil {
		return nil, err
	}

	// A chain starts from a clean slate: nothing withdrawn yet, and no
	// previous nullifier to prove against.
	if index.IsZero() {
		if !cumulative.IsZero() {
			return nil, fmt.Errorf("%w: first withdrawal with nonzero cumulative amount", ErrNullifierChain)
		}
		if len(in.PreviousNullifierStorageProof) != 0 {
			return nil, fmt.Errorf("%w: first withdrawal carries a storage proof", ErrNullifierChain)
		}
	}

	// The deposit address must hold exactly the claimed balance and must
	// never have been touched otherwise: zero nonce, no code, no storage.
	depositAddr := in.Secret.DepositAddress()
	depositAcct := trie.NewStateAccount(deposit)
	if err := trie.VerifyAccountProof(in.StateRoot, depositAddr, depositAcct, in.DepositAccountProof.Bytes()); err != nil {
		return nil, fmt.Errorf("%w: deposit account: %v", ErrStateProof, err)
	}

	// The registry account's storage root is learned from its own proof:
	// the terminal node must be a leaf carrying the account.
	nproof := in.NullifierAccountProof.Bytes()
	if len(nproof) == 0 {
		return nil, fmt.Errorf("%w: empty nullifier account proof", ErrStateProof)
	}
	registryAcct, _, err := trie.DecodeLeafAccount(nproof[len(nproof)-1])
	if err != nil {
		return nil, fmt.Errorf("%w: nullifier account: %v", ErrStateProof, err)
	}
	if err := trie.VerifyAccountProof(in.StateRoot, in.NullifierAddress, registryAcct, nproof); err != nil {
		return nil, fmt.Errorf("%w: nullifier account: %v", ErrStateProof, err)
	}

	cumulativeBytes := cumulative.Bytes32()
	cumulativeHash := crypto.Keccak256Hash(cumulativeBytes[:])

	// Subsequent withdrawals prove continuity: the slot keyed by the
	// previous nullifier must record the hash of the running total claimed
	// here. A wrong cumulative amount or a skipped index cannot produce a
	// matching slot value.
	if !index.IsZero() {
		prev := new(uint256.Int).SubUint64(index, 1)
		prevNullifier := in.Secret.Nullifier(prev)
		expected := trie.EncodeStorageValue(cumulativeHash)
		if err := trie.VerifyStorageProof(registryAcct.Root, prevNullifier, expected, in.PreviousNullifierStorageProof.Bytes()); err != nil {
			return nil, fmt.Errorf("%w: previous nullifier slot: %v", ErrNullifierChain, err)
		}
	}

	return &Output{
		NullifierAddress:        in.NullifierAddress,
		StateRoot:               in.StateRoot,
		WithdrawAmount:          withdraw,
		Nullifier:               in.Secret.Nullifier(index),
		CumulativeWithdrawnHash: cumulativeHash,
	}, nil
}

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}

// input.go defines the witness the program consumes and the public output
// it commits. Both sides of the proving boundary serialize these as JSON,
// which every supported guest toolchain can decode without code generation.
package program

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"github.com/ethwormhole/wormhole"
)

// ProofNodes is an ordered list of RLP-encoded trie nodes, root first.
type ProofNodes []hexutil.Bytes

// Bytes converts the proof to the raw form the verifier consumes.
func (p ProofNodes) Bytes() [][]byte {
	if p == nil {
		return nil
	}
	out := make([][]byte, len(p))
	for i, n := range p {
		out[i] = n
	}
	return out
}

// Input is the complete private witness of one withdrawal.
type Input struct {
	Secret wormhole.Secret `json:"secret"`

	DepositAmount             *uint256.Int `json:"deposit_amount"`
	WithdrawAmount            *uint256.Int `json:"withdraw_amount"`
	CumulativeWithdrawnAmount *uint256.Int `json:"cumulative_withdrawn_amount"`
	WithdrawalIndex           *uint256.Int `json:"withdrawal_index"`

	StateRoot           common.Hash `json:"state_root"`
	DepositAccountProof ProofNodes  `json:"deposit_account_proof"`

	// NullifierAddress is the registry contract whose storage records spent
	// nullifiers. Its account proof doubles as the source of its storage
	// root; the storage proof covers the previous nullifier's slot and is
	// empty for the first withdrawal.
	NullifierAddress              common.Address `json:"nullifier_address"`
	NullifierAccountProof         ProofNodes     `json:"nullifier_account_proof"`
	PreviousNullifierStorageProof ProofNodes     `json:"previous_nullifier_storage_proof"`
}

// Output is the public commitment of a successful execution. Everything a
// verifier needs is here; the secret, the deposit amount and the plain
// running total stay private.
type Output struct {
	NullifierAddress        common.Address `json:"nullifier_address"`
	StateRoot               common.Hash    `json:"state_root"`
	WithdrawAmount          *uint256.Int   `json:"withdraw_amount"`
	Nullifier               common.Hash    `json:"nullifier"`
	CumulativeWithdrawnHash common.Hash    `json:"cumulative_withdrawn_hash"`
}

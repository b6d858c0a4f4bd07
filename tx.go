// tx.go defines the withdrawal transaction payload: an EIP-2718 typed
// transaction carrying the zk proof and its public outputs instead of a
// signature-authenticated value transfer. Acceptance rules for this payload
// live with the chain verifier, not here.
package wormhole

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

var (
	// ErrTxTypeMismatch is returned when decoding a payload whose leading
	// type byte is not the withdrawal transaction type.
	ErrTxTypeMismatch = errors.New("wormhole: transaction type mismatch")

	errTxShort = errors.New("wormhole: typed transaction too short")
)

// TxProof is the proof envelope embedded in a withdrawal transaction: the
// succinct proof bytes together with the public outputs the chain verifier
// checks against the registry and block history.
type TxProof struct {
	StateRoot     common.Hash
	Nullifier     common.Hash
	WithdrawValue *uint256.Int
	Proof         []byte
}

// Tx is the withdrawal transaction payload. Field order is fixed by the
// wire format: chain_id, nonce, max_priority_fee_per_gas, max_fee_per_gas,
// gas_limit, to, data, access_list, state_root_block_number, proof.
type Tx struct {
	ChainID              uint64
	Nonce                uint64
	MaxPriorityFeePerGas *uint256.Int
	MaxFeePerGas         *uint256.Int
	GasLimit             uint64
	To                   common.Address
	Data                 []byte
	AccessList           types.AccessList
	StateRootBlockNumber uint64
	Proof                TxProof
}

// Type returns the EIP-2718 transaction type.
func (tx *Tx) Type() byte { return TxType }

// MarshalBinary encodes the transaction as its type byte followed by the
// RLP-encoded field list.
func (tx *Tx) MarshalBinary() ([]byte, error) {
	payload, err := rlp.EncodeToBytes(tx)
	if err != nil {
		return nil, fmt.Errorf("wormhole: encoding transaction: %w", err)
	}
	return append([]byte{TxType}, payload...), nil
}

// UnmarshalBinary decodes a typed transaction produced by MarshalBinary.
func (tx *Tx) UnmarshalBinary(data []byte) error {
	if len(data) < 2 {
		return errTxShort
	}
	if data[0] != TxType {
		return fmt.Errorf("%w: got 0x%02x, want 0x%02x", ErrTxTypeMismatch, data[0], TxType)
	}
	if err := rlp.DecodeBytes(data[1:], tx); err != nil {
		return fmt.Errorf("wormhole: decoding transaction: %w", err)
	}
	return nil
}

// account.go layers account and storage slot semantics over the raw proof
// verifier, following the eth_getProof (EIP-1186) conventions: trie keys
// are keccak256 of the address or slot, account values are the 4-field RLP
// list [nonce, balance, storageRoot, codeHash], storage values are
// RLP-encoded with leading zeros stripped.
package trie

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

var (
	// ErrProofMismatch is returned when a proof verifies structurally but
	// proves a different value than expected.
	ErrProofMismatch = errors.New("trie: proof value mismatch")

	// ErrNotLeaf is returned when a terminal proof node is not a leaf.
	ErrNotLeaf = errors.New("trie: proof node is not a leaf")
)

// StateAccount is the consensus representation of an account.
type StateAccount struct {
	Nonce    uint64
	Balance  *uint256.Int
	Root     common.Hash
	CodeHash []byte
}

// NewStateAccount returns the account shape of a fresh deposit address:
// zero nonce, no code, no storage, holding the given balance.
func NewStateAccount(balance *uint256.Int) *StateAccount {
	return &StateAccount{
		Nonce:    0,
		Balance:  balance,
		Root:     EmptyRootHash,
		CodeHash: EmptyCodeHash.Bytes(),
	}
}

// Encode returns the RLP encoding of the account.
func (a *StateAccount) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(a)
}

// DecodeStateAccount decodes an RLP-encoded account.
func DecodeStateAccount(data []byte) (*StateAccount, error) {
	acct := new(StateAccount)
	if err := rlp.DecodeBytes(data, acct); err != nil {
		return nil, fmt.Errorf("trie: decoding account: %w", err)
	}
	return acct, nil
}

// VerifyAccountProof checks that proof proves, under the given state root,
// that address holds exactly the expected account; a nil account asserts
// the address is absent from the state.
func VerifyAccountProof(root common.Hash, address common.Address, account *StateAccount, proof [][]byte) error {
	key := keccak256(address.Bytes())
	value, err := VerifyProof(root, key.Bytes(), proof)
	if err != nil {
		return err
	}
	if account == nil {
		if value != nil {
			return fmt.Errorf("%w: account %s exists", ErrProofMismatch, address)
		}
		return nil
	}
	expected, err := account.Encode()
	if err != nil {
		return err
	}
	if !bytes.Equal(value, expected) {
		return fmt.Errorf("%w: account %s", ErrProofMismatch, address)
	}
	return nil
}

// VerifyStorageProof checks that proof proves, under the given storage
// root, that slot holds the expected RLP-encoded value; an empty expected
// value asserts the slot reads as zero.
func VerifyStorageProof(storageRoot common.Hash, slot common.Hash, expected []byte, proof [][]byte) error {
	key := keccak256(slot.Bytes())
	value, err := VerifyProof(storageRoot, key.Bytes(), proof)
	if err != nil {
		return err
	}
	if len(expected) == 0 {
		if value != nil {
			return fmt.Errorf("%w: slot %s is set", ErrProofMismatch, slot)
		}
		return nil
	}
	if !bytes.Equal(value, expected) {
		return fmt.Errorf("%w: slot %s", ErrProofMismatch, slot)
	}
	return nil
}

// DecodeLeafAccount decodes the terminal node of an account proof as a
// leaf and returns the account it carries along with the raw account RLP.
// It is used when the prover must learn an account's contents (notably its
// storage root) from the proof itself rather than trust a separate input.
func DecodeLeafAccount(node []byte) (*StateAccount, []byte, error) {
	content, rest, err := rlp.SplitList(node)
	if err != nil || len(rest) != 0 {
		return nil, nil, fmt.Errorf("%w: malformed leaf node", ErrProofInvalid)
	}
	count, err := rlp.CountValues(content)
	if err != nil || count != 2 {
		return nil, nil, ErrNotLeaf
	}
	kind, compact, afterKey, err := rlp.Split(content)
	if err != nil || kind == rlp.List {
		return nil, nil, fmt.Errorf("%w: malformed leaf key", ErrProofInvalid)
	}
	if !hasTerm(compactToHex(compact)) {
		return nil, nil, ErrNotLeaf
	}
	vkind, value, _, err := rlp.Split(afterKey)
	if err != nil || vkind == rlp.List {
		return nil, nil, fmt.Errorf("%w: malformed leaf value", ErrProofInvalid)
	}
	acct, err := DecodeStateAccount(value)
	if err != nil {
		return nil, nil, err
	}
	return acct, value, nil
}

// EncodeStorageValue RLP-encodes a 32-byte storage word the way storage
// tries store it: leading zeros stripped, then RLP string encoded.
func EncodeStorageValue(value common.Hash) []byte {
	trimmed := bytes.TrimLeft(value.Bytes(), "\x00")
	enc, _ := rlp.EncodeToBytes(trimmed)
	return enc
}

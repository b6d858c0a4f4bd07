// Package registry models the on-chain nullifier registry: a contract
// whose storage maps spent nullifiers to the hash of the running withdrawn
// total, plus the acceptance check a chain runs before honoring a
// withdrawal proof. The InMemory implementation stands in for the
// reference deployment in tests and local tooling.
package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/ethwormhole/wormhole/trie"
)

var (
	// ErrNotOwner is returned for a write from anyone but the registry owner.
	ErrNotOwner = errors.New("registry: write from non-owner")

	// ErrSlotOccupied is returned when a write targets an already-set slot.
	// Nullifier slots are write-once.
	ErrSlotOccupied = errors.New("registry: slot already set")
)

// Registry is the read/write surface of the nullifier store. Read of an
// unset slot returns the zero hash.
type Registry interface {
	Read(slot common.Hash) common.Hash
	Write(slot, value common.Hash) error
}

// InMemory is a map-backed registry with a single privileged owner. It
// keeps a storage trie of its slots in step with the map so tests can
// generate eth_getProof-shaped storage proofs against its root.
type InMemory struct {
	mu    sync.RWMutex
	owner common.Address
	slots map[common.Hash]common.Hash
	tr    *trie.Trie
}

// NewInMemory creates an empty registry owned by owner.
func NewInMemory(owner common.Address) *InMemory {
	return &InMemory{
		owner: owner,
		slots: make(map[common.Hash]common.Hash),
		tr:    trie.NewTrie(),
	}
}

// Handle returns a Registry view acting as caller. Reads are unrestricted;
// writes fail unless caller is the owner.
func (r *InMemory) Handle(caller common.Address) Registry {
	return &handle{r: r, caller: caller}
}

func (r *InMemory) read(slot common.Hash) common.Hash {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.slots[slot]
}

func (r *InMemory) write(caller common.Address, slot, value common.Hash) error {
	if caller != r.owner {
		return fmt.Errorf("%w: %s", ErrNotOwner, caller)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.slots[slot]; ok {
		return fmt.Errorf("%w: %s", ErrSlotOccupied, slot)
	}
	r.slots[slot] = value
	r.tr.Update(crypto.Keccak256(slot.Bytes()), trie.EncodeStorageValue(value))
	return nil
}

// StorageRoot returns the root of the registry's storage trie.
func (r *InMemory) StorageRoot() common.Hash {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tr.Hash()
}

// ProofFor generates a storage proof for slot against the current root.
// The proof shows inclusion for set slots and absence for unset ones.
func (r *InMemory) ProofFor(slot common.Hash) ([][]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tr.Prove(crypto.Keccak256(slot.Bytes()))
}

type handle struct {
	r      *InMemory
	caller common.Address
}

func (h *handle) Read(slot common.Hash) common.Hash { return h.r.read(slot) }

func (h *handle) Write(slot, value common.Hash) error {
	return h.r.write(h.caller, slot, value)
}

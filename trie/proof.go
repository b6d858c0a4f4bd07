// proof.go is the stateless proof verifier: no trie database is needed,
// only the root hash and the ordered proof node encodings. It accepts
// proofs produced both by the in-memory Trie and by eth_getProof.
package trie

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

var (
	// ErrProofInvalid is returned when a proof is structurally malformed,
	// truncated, or does not hash to the expected reference.
	ErrProofInvalid = errors.New("trie: invalid proof")
)

// VerifyProof walks an ordered Merkle-Patricia proof for key against the
// given root hash. It returns the proven value, or (nil, nil) when the
// proof demonstrates the key is absent. An empty proof is valid only
// against the empty-trie root. Any malformed node encoding is a hard
// failure; absence and failure are never conflated.
func VerifyProof(root common.Hash, key []byte, proof [][]byte) ([]byte, error) {
	if len(proof) == 0 {
		if root == EmptyRootHash {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: empty proof for non-empty root", ErrProofInvalid)
	}

	hexKey := keybytesToHex(key)
	want := root
	idx := 0
	buf := proof[0]
	inline := false

	for {
		// Inline nodes are authenticated by their parent's encoding.
		if !inline {
			if keccak256(buf) != want {
				return nil, fmt.Errorf("%w: node %d hash mismatch", ErrProofInvalid, idx)
			}
		}

		content, rest, err := rlp.SplitList(buf)
		if err != nil || len(rest) != 0 {
			return nil, fmt.Errorf("%w: malformed node %d", ErrProofInvalid, idx)
		}
		count, err := rlp.CountValues(content)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed node %d", ErrProofInvalid, idx)
		}

		var childKind rlp.Kind
		var childContent, childRaw []byte

		switch count {
		case 2:
			kind, compact, afterKey, err := rlp.Split(content)
			if err != nil || kind == rlp.List {
				return nil, fmt.Errorf("%w: malformed short node key", ErrProofInvalid)
			}
			nodeKey := compactToHex(compact)
			if prefixLen(nodeKey, hexKey) < len(nodeKey) {
				// The path in the trie diverges from the key: absent.
				return nil, nil
			}
			hexKey = hexKey[len(nodeKey):]

			if hasTerm(nodeKey) {
				// Leaf: the second element is the value.
				vkind, value, _, err := rlp.Split(afterKey)
				if err != nil || vkind == rlp.List {
					return nil, fmt.Errorf("%w: malformed leaf value", ErrProofInvalid)
				}
				return value, nil
			}

			// Extension: the second element references the child.
			childKind, childContent, childRaw, _, err = splitRaw(afterKey)
			if err != nil {
				return nil, fmt.Errorf("%w: malformed extension child", ErrProofInvalid)
			}

		case 17:
			nibble := hexKey[0]
			hexKey = hexKey[1:]
			remaining := content
			for i := 0; i <= int(nibble); i++ {
				childKind, childContent, childRaw, remaining, err = splitRaw(remaining)
				if err != nil {
					return nil, fmt.Errorf("%w: malformed branch node", ErrProofInvalid)
				}
			}
			if nibble == terminatorNibble {
				// Value slot of the branch.
				if childKind == rlp.List {
					return nil, fmt.Errorf("%w: malformed branch value", ErrProofInvalid)
				}
				if len(childContent) == 0 {
					return nil, nil
				}
				return childContent, nil
			}
			if childKind != rlp.List && len(childContent) == 0 {
				// Empty child slot: absent.
				return nil, nil
			}

		default:
			return nil, fmt.Errorf("%w: node %d has %d elements", ErrProofInvalid, idx, count)
		}

		// Resolve the child reference.
		switch {
		case childKind == rlp.List:
			// Inline node embedded in this node's encoding.
			buf = childRaw
			inline = true
		case len(childContent) == common.HashLength:
			want = common.BytesToHash(childContent)
			idx++
			if idx >= len(proof) {
				return nil, fmt.Errorf("%w: truncated at node %d", ErrProofInvalid, idx)
			}
			buf = proof[idx]
			inline = false
		default:
			return nil, fmt.Errorf("%w: bad child reference length %d", ErrProofInvalid, len(childContent))
		}
	}
}

// splitRaw reads one RLP item, returning its kind, payload content, the
// full raw encoding including the header, and the remaining bytes.
func splitRaw(buf []byte) (rlp.Kind, []byte, []byte, []byte, error) {
	kind, content, rest, err := rlp.Split(buf)
	if err != nil {
		return 0, nil, nil, nil, err
	}
	return kind, content, buf[:len(buf)-len(rest)], rest, nil
}

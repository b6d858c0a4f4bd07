package trie

import (
	"hash"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"golang.org/x/crypto/sha3"
)

// Trie node representation. A shortNode covers both leaves (terminator in
// the key) and extensions; a fullNode is a 16-way branch plus an optional
// value at slot 16. hashNode and valueNode are raw byte references.
type node interface{}

type (
	shortNode struct {
		Key []byte // hex nibbles, terminator present for leaves
		Val node
	}
	fullNode struct {
		Children [17]node
	}
	hashNode  []byte
	valueNode []byte
)

var keccakPool = sync.Pool{
	New: func() any { return sha3.NewLegacyKeccak256() },
}

// keccak256 hashes the concatenation of the given byte slices.
func keccak256(data ...[]byte) common.Hash {
	h := keccakPool.Get().(hash.Hash)
	defer keccakPool.Put(h)
	h.Reset()
	for _, d := range data {
		h.Write(d)
	}
	var out common.Hash
	h.Sum(out[:0])
	return out
}

// encodeNode returns the RLP encoding of n with child nodes collapsed
// per the 32-byte rule: children whose encoding reaches 32 bytes are
// replaced by their keccak256 hash, smaller ones are embedded verbatim.
func encodeNode(n node) ([]byte, error) {
	switch n := n.(type) {
	case *shortNode:
		val, err := refItem(n.Val)
		if err != nil {
			return nil, err
		}
		return rlp.EncodeToBytes([]any{hexToCompact(n.Key), val})
	case *fullNode:
		items := make([]any, 17)
		for i, child := range n.Children {
			item, err := refItem(child)
			if err != nil {
				return nil, err
			}
			items[i] = item
		}
		return rlp.EncodeToBytes(items)
	case valueNode:
		return rlp.EncodeToBytes([]byte(n))
	case hashNode:
		return []byte(n), nil
	default:
		return nil, errNodeEncoding
	}
}

// refItem returns the reference form of a child for embedding in its
// parent's RLP: empty string for nil, the raw bytes for values and hash
// references, the inline encoding for small subtrees, or the subtree hash.
func refItem(n node) (any, error) {
	switch n := n.(type) {
	case nil:
		return []byte(nil), nil
	case valueNode:
		return []byte(n), nil
	case hashNode:
		return []byte(n), nil
	default:
		enc, err := encodeNode(n)
		if err != nil {
			return nil, err
		}
		if len(enc) < 32 {
			return rlp.RawValue(enc), nil
		}
		h := keccak256(enc)
		return h[:], nil
	}
}

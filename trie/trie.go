// Package trie implements Merkle-Patricia state proofs: a stateless
// verifier that walks RLP-encoded proof nodes against a root hash, account
// and storage slot proof helpers matching eth_getProof (EIP-1186) shapes,
// and a small in-memory trie used to build tries and generate proofs in
// tests and registry mocks. Node hashing is keccak-256 with the standard
// sub-32-byte inline rule.
package trie

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrNotFound is returned when a key is not present in the trie.
	ErrNotFound = errors.New("trie: key not found")

	errNodeEncoding = errors.New("trie: unencodable node")
)

var (
	// EmptyRootHash is keccak256(rlp("")), the root of an empty trie.
	EmptyRootHash = common.HexToHash("0x56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421")

	// EmptyCodeHash is keccak256 of empty code.
	EmptyCodeHash = common.HexToHash("0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470")
)

// Trie is an in-memory Merkle-Patricia trie. It supports insertion and
// overwrite but not deletion; the callers here only ever add entries.
type Trie struct {
	root node
}

// NewTrie creates an empty trie.
func NewTrie() *Trie {
	return &Trie{}
}

// Update inserts or overwrites the value at key. Empty values are not
// supported (Ethereum tries encode "no value" as absence).
func (t *Trie) Update(key, value []byte) {
	if len(value) == 0 {
		return
	}
	v := make(valueNode, len(value))
	copy(v, value)
	t.root = insert(t.root, keybytesToHex(key), v)
}

func insert(n node, key []byte, value node) node {
	if len(key) == 0 {
		return value
	}
	switch n := n.(type) {
	case nil:
		return &shortNode{Key: key, Val: value}

	case *shortNode:
		match := prefixLen(key, n.Key)
		if match == len(n.Key) {
			return &shortNode{Key: n.Key, Val: insert(n.Val, key[match:], value)}
		}
		// Paths diverge: split into a branch.
		branch := &fullNode{}
		branch.Children[n.Key[match]] = shortTail(n.Key[match+1:], n.Val)
		branch.Children[key[match]] = shortTail(key[match+1:], value)
		if match == 0 {
			return branch
		}
		return &shortNode{Key: key[:match], Val: branch}

	case *fullNode:
		if key[0] == terminatorNibble {
			n.Children[16] = value
			return n
		}
		n.Children[key[0]] = insert(n.Children[key[0]], key[1:], value)
		return n

	default:
		// Overwriting a value in place.
		return value
	}
}

// shortTail wraps a node in a shortNode carrying the remaining key nibbles,
// or returns the node itself when no nibbles remain.
func shortTail(key []byte, n node) node {
	if len(key) == 0 {
		return n
	}
	return &shortNode{Key: key, Val: n}
}

// Get returns the value stored at key, or ErrNotFound.
func (t *Trie) Get(key []byte) ([]byte, error) {
	hexKey := keybytesToHex(key)
	n := t.root
	for {
		switch nt := n.(type) {
		case nil:
			return nil, ErrNotFound
		case *shortNode:
			if prefixLen(hexKey, nt.Key) < len(nt.Key) {
				return nil, ErrNotFound
			}
			hexKey = hexKey[len(nt.Key):]
			n = nt.Val
		case *fullNode:
			n = nt.Children[hexKey[0]]
			hexKey = hexKey[1:]
		case valueNode:
			return []byte(nt), nil
		default:
			return nil, ErrNotFound
		}
	}
}

// Hash returns the root hash of the trie. The root node is always hashed,
// even when its encoding is shorter than 32 bytes.
func (t *Trie) Hash() common.Hash {
	if t.root == nil {
		return EmptyRootHash
	}
	enc, err := encodeNode(t.root)
	if err != nil {
		// The in-memory trie only ever holds well-formed nodes.
		panic("trie: " + err.Error())
	}
	return keccak256(enc)
}

// Prove generates a Merkle proof for key: the encodings of all hashed nodes
// on the path from the root towards the key. The same proof shape serves
// both inclusion (the path reaches the value) and absence (the path
// diverges or dead-ends). Inline sub-32-byte nodes are embedded in their
// parents and do not appear as separate proof elements.
func (t *Trie) Prove(key []byte) ([][]byte, error) {
	if t.root == nil {
		return nil, nil
	}
	hexKey := keybytesToHex(key)
	var proof [][]byte
	n := t.root
	first := true
	for n != nil {
		var enc []byte
		var err error
		switch nt := n.(type) {
		case *shortNode:
			enc, err = encodeNode(nt)
			if err != nil {
				return nil, err
			}
			if len(enc) >= 32 || first {
				proof = append(proof, enc)
			}
			if prefixLen(hexKey, nt.Key) < len(nt.Key) {
				return proof, nil // divergence: absence proof ends here
			}
			hexKey = hexKey[len(nt.Key):]
			n = nt.Val
		case *fullNode:
			enc, err = encodeNode(nt)
			if err != nil {
				return nil, err
			}
			if len(enc) >= 32 || first {
				proof = append(proof, enc)
			}
			n = nt.Children[hexKey[0]]
			hexKey = hexKey[1:]
		default:
			// valueNode: embedded in the parent encoding already.
			n = nil
		}
		first = false
	}
	return proof, nil
}

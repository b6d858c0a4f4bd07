// native.go implements the development backend: the program runs
// in-process and the "proof" is a SHA-256 commitment chain over the
// serialized public output, bound to a domain tag. It carries no
// cryptographic weight; it gives tests and local tooling the same
// prove/verify surface as a real backend.
package zkvm

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"

	"github.com/ethwormhole/wormhole/program"
)

// NativeName is the backend name of the in-process backend.
const NativeName = "native"

var nativeDomain = []byte("wormhole/native-proof/v1")

// Native executes the withdrawal program in-process.
type Native struct{}

// NewNative returns the in-process backend.
func NewNative() *Native { return &Native{} }

func (*Native) Name() string { return NativeName }

// Prove runs the program and commits its output. Failures collapse to
// ErrProvingFailed, matching the all-or-nothing abort of a real guest.
func (n *Native) Prove(ctx context.Context, in *program.Input) (*Proof, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := program.Execute(in)
	if err != nil {
		return nil, ErrProvingFailed
	}
	commitment, err := nativeCommit(out)
	if err != nil {
		return nil, err
	}
	return &Proof{Backend: NativeName, Output: out, Bytes: commitment}, nil
}

// Verify recomputes the commitment chain from the claimed output.
func (n *Native) Verify(proof *Proof) (*program.Output, error) {
	if proof == nil || proof.Output == nil {
		return nil, ErrProofInvalid
	}
	if proof.Backend != NativeName {
		return nil, ErrBackendMismatch
	}
	expected, err := nativeCommit(proof.Output)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(proof.Bytes, expected) {
		return nil, ErrProofInvalid
	}
	return proof.Output, nil
}

// nativeCommit chains two SHA-256 evaluations over the serialized output:
// h1 = sha256(domain || output), h2 = sha256(h1 || domain). The second
// link keeps a plain sha256(output) from passing as a commitment.
func nativeCommit(out *program.Output) ([]byte, error) {
	data, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	h1 := sha256.Sum256(append(append([]byte{}, nativeDomain...), data...))
	h2 := sha256.Sum256(append(h1[:], nativeDomain...))
	return h2[:], nil
}

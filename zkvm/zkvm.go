// Package zkvm abstracts the proving backends the withdrawal program runs
// on. A Backend turns a private witness into a proof committing the public
// output; verification never sees the witness. The Native backend proves
// nothing cryptographically and exists for tests and local development;
// real backends wrap an external zkVM SDK through the Engine seam.
package zkvm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/ethwormhole/wormhole/program"
)

var (
	// ErrProofInvalid is returned when proof verification fails. No detail
	// beyond failure crosses the proving boundary.
	ErrProofInvalid = errors.New("zkvm: proof verification failed")

	// ErrBackendMismatch is returned when a proof is verified by a backend
	// other than the one that produced it.
	ErrBackendMismatch = errors.New("zkvm: proof produced by different backend")

	// ErrProvingFailed is returned when the guest aborts. The abort is
	// all-or-nothing: the witness stays private, so no cause is reported.
	ErrProvingFailed = errors.New("zkvm: proving failed")
)

// Proof is a backend-produced proof together with the public output it
// commits to. The output is untrusted until Verify accepts the proof.
type Proof struct {
	Backend string          `json:"backend"`
	Output  *program.Output `json:"output"`
	Bytes   hexutil.Bytes   `json:"bytes"`
}

// Backend produces and verifies withdrawal proofs.
type Backend interface {
	// Name identifies the backend inside Proof envelopes.
	Name() string

	// Prove runs the withdrawal program over the witness and returns a
	// proof of the committed public output.
	Prove(ctx context.Context, in *program.Input) (*Proof, error)

	// Verify checks the proof and returns the public output it commits.
	Verify(proof *Proof) (*program.Output, error)
}

// encodeInput is the stdin codec shared by the engine-backed backends and
// the guest: JSON, so no code generation is needed on either side.
func encodeInput(in *program.Input) ([]byte, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("zkvm: encoding input: %w", err)
	}
	return data, nil
}

func encodeOutput(out *program.Output) ([]byte, error) {
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("zkvm: encoding output: %w", err)
	}
	return data, nil
}

func decodeOutput(data []byte) (*program.Output, error) {
	out := new(program.Output)
	if err := json.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("zkvm: decoding output: %w", err)
	}
	return out, nil
}

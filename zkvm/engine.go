// engine.go adapts external zkVM SDKs. An Engine is the opaque SDK
// surface: it runs the guest over a stdin buffer and yields proof bytes
// plus the committed public values. The adapter owns only the codec; no
// SDK internals are reimplemented here.
package zkvm

import (
	"context"
	"fmt"

	"github.com/ethwormhole/wormhole/program"
)

// Engine names of the supported SDKs.
const (
	SP1Name   = "sp1"
	Risc0Name = "risc0"
	PicoName  = "pico"
)

// Engine is the minimal surface an external prover SDK must offer.
type Engine interface {
	// Run executes the guest over stdin and returns the proof bytes and
	// the public values the guest committed.
	Run(ctx context.Context, stdin []byte) (proof, publicValues []byte, err error)

	// Verify checks proof bytes against committed public values.
	Verify(proof, publicValues []byte) error
}

// EngineBackend lifts an Engine into a Backend using the JSON codec the
// guest speaks.
type EngineBackend struct {
	name   string
	engine Engine
}

// NewSP1 wraps an SP1 prover engine.
func NewSP1(e Engine) *EngineBackend { return &EngineBackend{name: SP1Name, engine: e} }

// NewRisc0 wraps a RISC Zero prover engine.
func NewRisc0(e Engine) *EngineBackend { return &EngineBackend{name: Risc0Name, engine: e} }

// NewPico wraps a Pico prover engine.
func NewPico(e Engine) *EngineBackend { return &EngineBackend{name: PicoName, engine: e} }

func (b *EngineBackend) Name() string { return b.name }

func (b *EngineBackend) Prove(ctx context.Context, in *program.Input) (*Proof, error) {
	stdin, err := encodeInput(in)
	if err != nil {
		return nil, err
	}
	proofBytes, publicValues, err := b.engine.Run(ctx, stdin)
	if err != nil {
		// The guest aborts without detail; the engine error names at most
		// the SDK-level failure.
		return nil, fmt.Errorf("%w: %s: %v", ErrProvingFailed, b.name, err)
	}
	out, err := decodeOutput(publicValues)
	if err != nil {
		return nil, err
	}
	return &Proof{Backend: b.name, Output: out, Bytes: proofBytes}, nil
}

func (b *EngineBackend) Verify(proof *Proof) (*program.Output, error) {
	if proof == nil || proof.Output == nil {
		return nil, ErrProofInvalid
	}
	if proof.Backend != b.name {
		return nil, ErrBackendMismatch
	}
	publicValues, err := encodeOutput(proof.Output)
	if err != nil {
		return nil, err
	}
	if err := b.engine.Verify(proof.Bytes, publicValues); err != nil {
		return nil, ErrProofInvalid
	}
	return proof.Output, nil
}

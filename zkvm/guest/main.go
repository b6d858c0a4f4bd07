//go:build mipsle

// The guest binary runs the withdrawal program inside the Ziren zkVM.
// It reads the witness from the host, executes the program, and commits
// the public output. Any failure panics, aborting the proof without
// leaking which check failed.
package main

import (
	"github.com/ProjectZKM/Ziren/crates/go-runtime/zkvm_runtime"

	"github.com/ethwormhole/wormhole/program"
)

func main() {
	in := zkvm_runtime.Read[program.Input]()
	out, err := program.Execute(&in)
	if err != nil {
		panic(err)
	}
	zkvm_runtime.Commit[program.Output](*out)
}

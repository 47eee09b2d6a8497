// Package toolchain is the port to the external build toolchain. The
// orchestration core only needs three narrow operations, which keeps it
// testable with in-memory fakes instead of real subprocesses.
package toolchain

import "context"

// Toolchain abstracts the external build tool invoked per component and for
// the final archive assembly. Implementations report any nonzero exit as an
// error; the orchestrator treats every error as fatal.
type Toolchain interface {
	// InstallSkipTests builds and installs the component in dir into the
	// local artifact store, skipping tests and non-essential verification.
	InstallSkipTests(ctx context.Context, dir string) error

	// SetVersion re-versions the component workspace in dir in place.
	SetVersion(ctx context.Context, dir, newVersion string) error

	// Assemble packages the archive described in dir; install additionally
	// publishes it to the local artifact store.
	Assemble(ctx context.Context, dir string, install bool) error
}

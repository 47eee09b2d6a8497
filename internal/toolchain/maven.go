package toolchain

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"git.home.luguber.info/inful/bundlepacker/internal/logfields"
)

// Maven invokes the mvn binary as a blocking subprocess.
type Maven struct {
	// Binary is the executable to invoke, "mvn" by default.
	Binary string
	// BatchMode adds -B, which keeps output sane under CI.
	BatchMode bool
}

// NewMaven returns a Maven toolchain with defaults.
func NewMaven() *Maven {
	return &Maven{Binary: "mvn", BatchMode: true}
}

func (m *Maven) run(ctx context.Context, dir string, goals ...string) error {
	args := goals
	if m.BatchMode {
		args = append([]string{"-B"}, goals...)
	}

	cmd := exec.CommandContext(ctx, m.Binary, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	slog.Info("Running build toolchain", logfields.Path(dir), slog.String("goals", strings.Join(goals, " ")))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s failed in %s: %w", m.Binary, strings.Join(goals, " "), dir, err)
	}
	return nil
}

// InstallSkipTests implements Toolchain.
func (m *Maven) InstallSkipTests(ctx context.Context, dir string) error {
	return m.run(ctx, dir, "clean", "install", "-DskipTests", "-Dfindbugs.skip=true", "-Denforcer.skip=true")
}

// SetVersion implements Toolchain.
func (m *Maven) SetVersion(ctx context.Context, dir, newVersion string) error {
	return m.run(ctx, dir, "versions:set", "-DnewVersion="+newVersion)
}

// Assemble implements Toolchain.
func (m *Maven) Assemble(ctx context.Context, dir string, install bool) error {
	goal := "package"
	if install {
		goal = "install"
	}
	return m.run(ctx, dir, "clean", goal)
}

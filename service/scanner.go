package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/DEFRA/water-abstraction-ui-sub001/config"
)

// ScanOutcome is the result of a virus scan. Hard scanner failures are
// reported as errors, not outcomes, so callers branch on an explicit variant
// instead of inspecting exit codes.
type ScanOutcome int

const (
	ScanClean ScanOutcome = iota
	ScanInfected
)

func (o ScanOutcome) String() string {
	if o == ScanInfected {
		return "infected"
	}
	return "clean"
}

// VirusScanner invokes an external scanner binary against a file path.
type VirusScanner struct {
	cfg *config.ScannerConfig
}

func NewVirusScanner(cfg *config.ScannerConfig) *VirusScanner {
	if cfg.Disabled {
		slog.Warn("virus scanning is disabled; all files will be reported clean")
	}
	return &VirusScanner{cfg: cfg}
}

// Scan runs the scanner against the file at path. The configured infected
// exit code maps to ScanInfected; exit 0 is ScanClean; anything else is a
// hard failure and propagates as an error.
func (s *VirusScanner) Scan(ctx context.Context, path string) (ScanOutcome, error) {
	if s.cfg.Disabled {
		return ScanClean, nil
	}

	args := append(append([]string{}, s.cfg.Args...), path)
	cmd := exec.CommandContext(ctx, s.cfg.Command, args...)

	err := cmd.Run()
	if err == nil {
		return ScanClean, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == s.cfg.InfectedExitCode {
		return ScanInfected, nil
	}

	return ScanClean, fmt.Errorf("virus scan of %s failed: %w", path, err)
}

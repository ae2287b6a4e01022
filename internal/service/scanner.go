package service

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/ATenderholt/s3-virusscan/internal/domain"
)

type ScannerConfig interface {
	ScannerPath() string
	ScanLimits() (maxFileSize string, maxScanSize string)
}

// Scanner inspects a staged file and classifies it.
type Scanner interface {
	Scan(ctx context.Context, path string) (domain.Verdict, error)
}

// ClamScanner runs clamscan and trusts only its exit status.
type ClamScanner struct {
	command     string
	args        []string
	maxFileSize string
	maxScanSize string
}

func NewClamScanner(cfg ScannerConfig) *ClamScanner {
	maxFileSize, maxScanSize := cfg.ScanLimits()
	return &ClamScanner{
		command:     cfg.ScannerPath(),
		maxFileSize: maxFileSize,
		maxScanSize: maxScanSize,
	}
}

func (s *ClamScanner) arguments(path string) []string {
	args := make([]string, 0, len(s.args)+5)
	args = append(args, s.args...)
	args = append(args, "--no-summary", "--infected")

	if s.maxFileSize != "" {
		args = append(args, "--max-filesize="+s.maxFileSize)
	}

	if s.maxScanSize != "" {
		args = append(args, "--max-scansize="+s.maxScanSize)
	}

	return append(args, path)
}

func (s *ClamScanner) Scan(ctx context.Context, path string) (domain.Verdict, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, s.command, s.arguments(path)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	code := 0
	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		code = exitErr.ExitCode()
	default:
		return domain.VerdictScanError, ScanError{path: path, base: err}
	}

	if out := strings.TrimSpace(stdout.String()); out != "" {
		logger.Debugf("%s output: %s", s.command, out)
	}

	verdict, known := domain.VerdictFromExitCode(code)
	if !known {
		logger.Warnf("%s exited with unexpected status %d for %s: %s", s.command, code, path, strings.TrimSpace(stderr.String()))
	}

	return verdict, nil
}

// Package pdf provides a Normaliser for PDF documents.
//
// Text is extracted with the pdftotext tool from poppler, which separates
// pages with form feeds. The tool must be on PATH; see InstallInstructions.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// ToolName is the external extraction binary.
const ToolName = "pdftotext"

// ErrPDFToolNotFound is returned when pdftotext is not installed.
var ErrPDFToolNotFound = fmt.Errorf("%w: %s not found on PATH", domain.ErrPDFToolNotFound, ToolName)

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands with os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, ErrPDFToolNotFound
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

// Normaliser handles PDF documents.
type Normaliser struct {
	runner CommandRunner
}

// New creates a new PDF normaliser that runs pdftotext.
func New() *Normaliser {
	return NewWithRunner(execRunner{})
}

// NewWithRunner creates a PDF normaliser with a custom command runner.
func NewWithRunner(runner CommandRunner) *Normaliser {
	return &Normaliser{runner: runner}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts one page of text per PDF page.
func (n *Normaliser) Normalise(ctx context.Context, doc *domain.Document) ([]domain.Page, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}

	tmp, err := os.CreateTemp("", "docqa-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("%w: staging pdf: %w", domain.ErrSourceRead, err)
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.Write(doc.Content)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("%w: staging pdf: %w", domain.ErrSourceRead, err)
	}

	out, err := n.runner.Run(ctx, ToolName, "-enc", "UTF-8", tmp.Name(), "-")
	if err != nil {
		if errors.Is(err, domain.ErrPDFToolNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: pdftotext failed on %s: %w", domain.ErrSourceRead, doc.Name, err)
	}

	return domain.PagesFromText(string(out)), nil
}

// CheckAvailable returns ErrPDFToolNotFound if pdftotext is not on PATH.
func CheckAvailable() error {
	if _, err := exec.LookPath(ToolName); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions returns how to install pdftotext on common platforms.
func InstallInstructions() string {
	return `pdftotext is required to read PDF files. Install poppler:
  macOS:         brew install poppler
  Debian/Ubuntu: sudo apt install poppler-utils
  Fedora:        sudo dnf install poppler-utils`
}

// Package cli implements the docqa command line.
// It is a driving adapter: commands translate flags and arguments into calls
// on the core's driving ports and render the results.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// Runtime is the question-answering pipeline built from the current settings.
type Runtime struct {
	Index   driving.IndexService
	Session driving.SessionService

	// SearchK is the configured number of chunks per retrieval.
	SearchK int

	closer func() error
	once   sync.Once
	err    error
}

// NewRuntime creates a runtime. closer releases provider clients and may be nil.
func NewRuntime(index driving.IndexService, session driving.SessionService, searchK int, closer func() error) *Runtime {
	return &Runtime{Index: index, Session: session, SearchK: searchK, closer: closer}
}

// Close releases the runtime's resources. Safe to call more than once.
func (r *Runtime) Close() error {
	r.once.Do(func() {
		if r.closer != nil {
			r.err = r.closer()
		}
	})
	return r.err
}

// RuntimeOptions are the per-invocation choices a runtime is built with.
type RuntimeOptions struct {
	// Observer receives progress events.
	Observer driven.Observer

	// Ephemeral builds indexes in memory and discards them when the runtime closes.
	Ephemeral bool
}

// RuntimeFactory builds a runtime for one command invocation.
type RuntimeFactory func(ctx context.Context, opts RuntimeOptions) (*Runtime, error)

// IndexFactory builds an index service for on-disk maintenance. It must not
// require provider credentials.
type IndexFactory func() (driving.IndexService, error)

// Services are the dependencies injected by main.
type Services struct {
	Settings    driving.SettingsService
	OpenRuntime RuntimeFactory
	OpenIndex   IndexFactory
}

var (
	settingsService driving.SettingsService
	openRuntime     RuntimeFactory
	openIndex       IndexFactory
)

var (
	verbose   bool
	quiet     bool
	ephemeral bool
)

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Ask questions about a document",
	Long: `docqa answers natural-language questions about a single document.

The document is split into chunks, embedded once and cached on disk by content
fingerprint. General questions are answered from the whole text; specific ones
from the most relevant chunks.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "build indexes in memory and discard them on exit")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetServices injects the core services.
func SetServices(s Services) {
	settingsService = s.Settings
	openRuntime = s.OpenRuntime
	openIndex = s.OpenIndex
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

func newRuntime(cmd *cobra.Command, observer driven.Observer) (*Runtime, error) {
	if openRuntime == nil {
		return nil, errors.New("runtime not configured")
	}
	if observer == nil {
		observer = progressFor(cmd)
	}
	rt, err := openRuntime(commandContext(cmd), RuntimeOptions{Observer: observer, Ephemeral: ephemeral})
	if err != nil {
		return nil, fmt.Errorf("start pipeline: %w", err)
	}
	return rt, nil
}

func newIndexAdmin() (driving.IndexService, error) {
	if openIndex == nil {
		return nil, errors.New("index service not configured")
	}
	return openIndex()
}

// readDocument loads the file at path. The MIME type is left for the
// normaliser registry to detect.
func readDocument(path string) (*domain.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrSourceRead, path, err)
	}
	return &domain.Document{
		Name:    filepath.Base(path),
		Path:    path,
		Content: content,
	}, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// progressFor returns the observer commands use unless --quiet is set.
func progressFor(cmd *cobra.Command) driven.Observer {
	if quiet {
		return driven.NopObserver{}
	}
	return newProgressObserver(cmd.ErrOrStderr())
}

// progressObserver prints pipeline events, one per line.
type progressObserver struct {
	mu sync.Mutex
	w  io.Writer
}

func newProgressObserver(w io.Writer) *progressObserver {
	return &progressObserver{w: w}
}

// OnEvent writes the event to the underlying writer.
func (o *progressObserver) OnEvent(_ context.Context, event domain.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintf(o.w, "[%s] %s\n", event.Stage, event.Message)
}

package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

var chatPlain bool

var chatCmd = &cobra.Command{
	Use:   "chat <file>",
	Short: "Chat interactively about a document",
	Long: `Opens a question-and-answer session over a document.

On a terminal this launches the interactive UI:
  enter   - Ask the typed question
  tab     - Browse the sources of the last answer
  esc     - Clear the input
  ctrl+c  - Quit

Otherwise questions are read one per line from stdin until EOF, "exit" or
"quit". A failed question is reported and the session continues.`,
	Args: cobra.ExactArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatPlain, "plain", false, "use line mode even on a terminal")
	rootCmd.AddCommand(chatCmd)
}

// isTerminal reports whether the command is attached to a terminal.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())) //nolint:gosec // fd fits in int
}

func runChat(cmd *cobra.Command, args []string) error {
	doc, err := readDocument(args[0])
	if err != nil {
		return err
	}

	if !chatPlain && isTerminal() {
		return runChatTUI(cmd, doc)
	}
	return runChatLines(cmd, doc)
}

func runChatTUI(cmd *cobra.Command, doc *domain.Document) error {
	// Panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	observer := tui.NewEventObserver(tui.DefaultEventBuffer)
	rt, err := newRuntime(cmd, observer)
	if err != nil {
		return err
	}
	defer rt.Close()

	app, err := tui.NewApp(tui.NewPorts(rt.Session), doc, observer)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(commandContext(cmd))

	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

func runChatLines(cmd *cobra.Command, doc *domain.Document) error {
	rt, err := newRuntime(cmd, nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := commandContext(cmd)
	session, err := rt.Session.Open(ctx, doc)
	if err != nil {
		return fmt.Errorf("open %s: %w", doc.Name, err)
	}
	defer rt.Session.Close(session)

	return chatLoop(ctx, rt.Session, session, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// chatLoop answers one question per input line. Per-question failures are
// reported on errOut and do not end the session.
func chatLoop(
	ctx context.Context,
	sessions driving.SessionService,
	session *domain.Session,
	in io.Reader,
	out, errOut io.Writer,
) error {
	fmt.Fprintf(out, "Ready: %s. Type a question, or \"exit\" to quit.\n", session.Document.Name)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		question := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(question) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		result, err := sessions.Ask(ctx, session, question)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(errOut, "Error: %v\n", err)
			continue
		}
		if err := writeAnswer(out, outputText, question, result); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}
}

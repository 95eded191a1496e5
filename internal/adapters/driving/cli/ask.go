package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// Output formats.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

var askOutput string

var askCmd = &cobra.Command{
	Use:   "ask <file> <question>",
	Short: "Answer one question about a document",
	Long: `Answers a single question about a document, building its index first if needed.

The question is classified as general or specific. General questions are
answered from the whole document text; specific questions from the chunks
most similar to the question, which are listed as sources.`,
	Args: cobra.ExactArgs(2),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askOutput, "output", "o", outputText, "output format: text, json or yaml")
	rootCmd.AddCommand(askCmd)
}

// answerOutput is the serialised form of an answer.
type answerOutput struct {
	Question          string         `json:"question" yaml:"question"`
	Answer            string         `json:"answer" yaml:"answer"`
	Intent            string         `json:"intent" yaml:"intent"`
	FallbackKnowledge bool           `json:"fallback_knowledge" yaml:"fallback_knowledge"`
	Sources           []sourceOutput `json:"sources" yaml:"sources"`
}

type sourceOutput struct {
	Page  int    `json:"page" yaml:"page"`
	Index int    `json:"index" yaml:"index"`
	Text  string `json:"text" yaml:"text"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := checkOutputFormat(askOutput); err != nil {
		return err
	}

	doc, err := readDocument(args[0])
	if err != nil {
		return err
	}
	question := strings.TrimSpace(args[1])
	if question == "" {
		return fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}

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

	result, err := rt.Session.Ask(ctx, session, question)
	if err != nil {
		return fmt.Errorf("answer: %w", err)
	}

	return writeAnswer(cmd.OutOrStdout(), askOutput, question, result)
}

func checkOutputFormat(format string) error {
	switch format {
	case outputText, outputJSON, outputYAML:
		return nil
	}
	return fmt.Errorf("%w: unknown output format %q", domain.ErrInvalidInput, format)
}

func newAnswerOutput(question string, result domain.AnswerResult) answerOutput {
	out := answerOutput{
		Question:          question,
		Answer:            result.Text,
		Intent:            result.Intent.String(),
		FallbackKnowledge: result.UsedFallbackKnowledge(),
		Sources:           make([]sourceOutput, 0, len(result.Sources)),
	}
	for _, c := range result.Sources {
		out.Sources = append(out.Sources, sourceOutput{Page: c.Page, Index: c.Index, Text: c.Text})
	}
	return out
}

func writeAnswer(w io.Writer, format, question string, result domain.AnswerResult) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(newAnswerOutput(question, result)); err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		return nil

	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(newAnswerOutput(question, result)); err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		return enc.Close()
	}

	fmt.Fprintln(w, strings.TrimSpace(result.Text))
	if len(result.Sources) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Sources:")
		for i, c := range result.Sources {
			fmt.Fprintf(w, "  [%d] page %d: %s\n", i+1, c.Page, snippet(c.Text, 100))
		}
	}
	return nil
}

// snippet returns text on one line, cut to n runes.
func snippet(text string, n int) string {
	s := strings.Join(strings.Fields(text), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

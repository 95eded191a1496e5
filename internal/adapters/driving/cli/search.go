package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search <file> <query>",
	Short: "Show the chunks most similar to a query",
	Long: `Retrieves the chunks of a document most similar to a query, without
generating an answer. Useful for checking what a specific question would be
answered from.`,
	Args: cobra.ExactArgs(2),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of chunks (default: configured search k)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output chunks as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	doc, err := readDocument(args[0])
	if err != nil {
		return err
	}
	query := args[1]

	rt, err := newRuntime(cmd, nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	k := searchLimit
	if k <= 0 {
		k = rt.SearchK
	}

	ctx := commandContext(cmd)
	session, err := rt.Session.Open(ctx, doc)
	if err != nil {
		return fmt.Errorf("open %s: %w", doc.Name, err)
	}
	defer rt.Session.Close(session)

	chunks, err := rt.Session.Sources(ctx, session, query, k)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, chunks)
	}
	return outputSearchTable(cmd, chunks)
}

func outputSearchJSON(cmd *cobra.Command, chunks []domain.Chunk) error {
	out := make([]sourceOutput, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, sourceOutput{Page: c.Page, Index: c.Index, Text: c.Text})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal chunks: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		cmd.Println("No chunks found.")
		return nil
	}

	cmd.Println("Chunks:")
	cmd.Println()
	for i, c := range chunks {
		cmd.Printf("  [%d] page %d, chunk %d\n", i+1, c.Page, c.Index)
		cmd.Printf("      %s\n", snippet(c.Text, 200))
		cmd.Println()
	}
	return nil
}

package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var keepUpload bool

var indexCmd = &cobra.Command{
	Use:   "index <file>",
	Short: "Build or reuse the vector index for a document",
	Long: `Builds the vector index for a document, or reuses the one already on disk.

Indexes are stored per content fingerprint, so renaming or moving a file does
not trigger a rebuild while editing it does. An interrupted build leaves no
completion metadata and is rebuilt on the next run.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

var indexStatusCmd = &cobra.Command{
	Use:   "status <file>",
	Short: "Show the on-disk index state for a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexStatus,
}

var indexRemoveCmd = &cobra.Command{
	Use:     "rm <file>",
	Aliases: []string{"remove"},
	Short:   "Delete the index for a document",
	Args:    cobra.ExactArgs(1),
	RunE:    runIndexRemove,
}

func init() {
	indexCmd.Flags().BoolVar(&keepUpload, "keep-upload", false, "copy the document into the upload directory")
	indexCmd.AddCommand(indexStatusCmd)
	indexCmd.AddCommand(indexRemoveCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	doc, err := readDocument(args[0])
	if err != nil {
		return err
	}

	rt, err := newRuntime(cmd, nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := commandContext(cmd)
	idx, err := rt.Index.LoadOrCreate(ctx, doc)
	if err != nil {
		return fmt.Errorf("index %s: %w", doc.Name, err)
	}
	defer idx.Close()

	cmd.Printf("Indexed %s (%s): %d chunks\n", doc.Name, idx.Fingerprint(), idx.Len())

	if keepUpload {
		path, err := rt.Index.SaveUpload(ctx, doc)
		if err != nil {
			return fmt.Errorf("keep upload: %w", err)
		}
		cmd.Printf("Saved copy to %s\n", path)
	}
	return nil
}

func runIndexStatus(cmd *cobra.Command, args []string) error {
	doc, err := readDocument(args[0])
	if err != nil {
		return err
	}

	indexes, err := newIndexAdmin()
	if err != nil {
		return err
	}

	status, err := indexes.Status(commandContext(cmd), doc)
	if err != nil {
		return fmt.Errorf("index status: %w", err)
	}

	cmd.Printf("Document:    %s\n", doc.Name)
	cmd.Printf("Fingerprint: %s\n", status.Fingerprint)
	cmd.Printf("Directory:   %s\n", status.Dir)

	switch {
	case !status.Exists:
		cmd.Println("State:       not indexed")
	case !status.Complete:
		cmd.Println("State:       incomplete (will be rebuilt)")
	default:
		cmd.Println("State:       ready")
		if m := status.Metadata; m != nil {
			if m.ChunkCount > 0 {
				cmd.Printf("Chunks:      %d\n", m.ChunkCount)
			}
			if m.EmbeddingModel != "" {
				cmd.Printf("Model:       %s\n", m.EmbeddingModel)
			}
			if !m.CreatedAt.IsZero() {
				cmd.Printf("Created:     %s\n", m.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			}
		}
	}
	return nil
}

func runIndexRemove(cmd *cobra.Command, args []string) error {
	fp, err := domain.FingerprintFile(args[0])
	if err != nil {
		return err
	}

	indexes, err := newIndexAdmin()
	if err != nil {
		return err
	}

	if err := indexes.Remove(commandContext(cmd), fp); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			cmd.Printf("No index for %s\n", args[0])
			return nil
		}
		return fmt.Errorf("remove index: %w", err)
	}

	cmd.Printf("Removed index %s\n", fp)
	return nil
}

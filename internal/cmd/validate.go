package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/noot-app/fct-api/internal/config"
	"github.com/noot-app/fct-api/internal/dataset"
	"github.com/noot-app/fct-api/internal/index"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	var dataDir string
	var writeMetadata bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load and index the data directory, then print a summary",
		Long: `Loads the data directory exactly as the server would at startup and reports
what it contains. Exits non-zero if the server would refuse to start.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := config.NewTextLogger(cmd.ErrOrStderr())
			cfg := config.Load()
			if dataDir != "" {
				cfg.DataDir = dataDir
			}

			store, err := dataset.Load(cmd.Context(), cfg.DataDir, logger)
			if err != nil {
				return err
			}
			idx := index.FromStore(store)

			if writeMetadata {
				path := cfg.MetadataPath
				if dataDir != "" {
					path = filepath.Join(cfg.DataDir, "metadata.json")
				}
				if err := dataset.SaveMetadata(path, dataset.NewMetadata(store)); err != nil {
					return fmt.Errorf("failed to write metadata: %w", err)
				}
				logger.Info("Metadata written", "path", path)
			}

			printSummary(cmd.OutOrStdout(), cfg.DataDir, idx)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Data directory to validate (default: DATA_DIR)")
	cmd.Flags().BoolVar(&writeMetadata, "write-metadata", false, "Write the dataset metadata file")

	return cmd
}

// printSummary writes a human-readable overview of an index
func printSummary(w io.Writer, dir string, idx *index.Index) {
	taxonomy := idx.Taxonomy()

	fmt.Fprintf(w, "Data directory: %s\n", dir)
	fmt.Fprintf(w, "Fingerprint:    %s\n", idx.Fingerprint())
	fmt.Fprintf(w, "Foods:          %d\n", idx.Len())
	fmt.Fprintf(w, "Nutrients:      %d\n", len(taxonomy.Nutrients))
	fmt.Fprintf(w, "Categories:     %d\n", len(taxonomy.Categories))

	groups := make(map[string]int)
	for _, id := range idx.IDs() {
		if entry, ok := idx.Entry(id); ok {
			groups[entry.FoodGroupCode]++
		}
	}
	codes := make([]string, 0, len(groups))
	for code := range groups {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	fmt.Fprintln(w, "Food groups:")
	for _, code := range codes {
		fmt.Fprintf(w, "  %-3s %d\n", code, groups[code])
	}
}

package cmd

import (
	"fmt"

	"github.com/noot-app/fct-api/internal/config"
	"github.com/noot-app/fct-api/internal/dataset"
	"github.com/noot-app/fct-api/internal/export"
	"github.com/noot-app/fct-api/internal/index"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var dataDir, format, out, parquetDir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the data set into a DuckDB or SQLite database",
		Long: `Loads the data directory and writes foods, measurements, nutrients,
categories and food_categories tables into a new database file. With
--parquet (duckdb only) every table is also written as a Parquet file.`,
		Example: `  fct-api export --format sqlite --out fct.sqlite
  fct-api export --format duckdb --out fct.duckdb --parquet ./parquet`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			logger := config.NewTextLogger(cmd.ErrOrStderr())
			cfg := config.Load()
			if dataDir != "" {
				cfg.DataDir = dataDir
			}

			store, err := dataset.Load(cmd.Context(), cfg.DataDir, logger)
			if err != nil {
				return err
			}

			summary, err := export.NewExporter(logger).Export(cmd.Context(), index.FromStore(store), export.Options{
				Format:     f,
				Path:       out,
				ParquetDir: parquetDir,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Wrote %s (%s): %d foods, %d measurements, %d nutrients, %d categories\n",
				out, f, summary.Foods, summary.Measurements, summary.Nutrients, summary.Categories)
			for _, path := range summary.ParquetFiles {
				fmt.Fprintf(w, "Wrote %s\n", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Data directory to export (default: DATA_DIR)")
	cmd.Flags().StringVar(&format, "format", string(export.FormatDuckDB), "Database format: duckdb or sqlite")
	cmd.Flags().StringVar(&out, "out", "", "Database file to write (replaced if it exists)")
	cmd.Flags().StringVar(&parquetDir, "parquet", "", "Also write one Parquet file per table into this directory (duckdb only)")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

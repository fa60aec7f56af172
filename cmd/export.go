package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/folio/internal/db"
	"github.com/ziadkadry99/folio/internal/progress"
	"github.com/ziadkadry99/folio/internal/site"
	"github.com/ziadkadry99/folio/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the public page as static files",
	Long: `Renders every public section from the document store and writes
index.html, sections/<category>.json and search-index.json. The output can
be hosted as-is or passed to "folio serve --snapshot" as fallback content.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("output", "", "output directory (defaults to {data_dir}/export)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	outputDir, _ := cmd.Flags().GetString("output")
	if outputDir == "" {
		outputDir = filepath.Join(cfg.DataDir, "export")
	}

	database, err := db.Open(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	docs := store.NewStore(database)
	pub, err := newSite(cfg, docs, logger)
	if err != nil {
		return err
	}

	gen := site.NewGenerator(pub, docs, outputDir)
	res, err := gen.Generate(context.Background(), progress.NewReporter("Exporting site"))
	if err != nil {
		return fmt.Errorf("exporting site: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Exported %d sections (%d records) to %s\n", res.Sections, res.Records, outputDir)
	return nil
}

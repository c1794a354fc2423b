package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mkadlec/binsim/internal/ingest"
	"github.com/mkadlec/binsim/internal/models"
	"github.com/mkadlec/binsim/internal/store"
)

func importCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "import FILE_OR_URL",
		Short: "Import NDJSON fingerprints into a store",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			repo, err := store.Open(dbPath, 0)
			if err != nil {
				return fmt.Errorf("open store %s: %w", dbPath, err)
			}
			defer repo.Close()

			importer := ingest.NewImporter(repo, zap.NewNop(), ingest.Config{})

			source := args[0]
			var report models.ImportReport
			if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
				report, err = importer.ImportURL(c.Context(), source)
			} else {
				report, err = importer.ImportFile(c.Context(), source)
			}
			if err != nil {
				return err
			}

			for _, e := range report.Errors {
				if e.Name != "" {
					fmt.Fprintf(c.ErrOrStderr(), "line %d (%s): %s\n", e.Line, e.Name, e.Message)
				} else {
					fmt.Fprintf(c.ErrOrStderr(), "line %d: %s\n", e.Line, e.Message)
				}
			}
			fmt.Fprintf(c.OutOrStdout(), "imported %d, failed %d\n", report.Imported, report.Failed)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "data/binsim.db", "SQLite store path")
	return cmd
}

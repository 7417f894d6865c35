package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/lister/internal/app"
	"github.com/JonMunkholm/lister/internal/core"
	"github.com/JonMunkholm/lister/internal/export"
	"github.com/JonMunkholm/lister/internal/parse"
	"github.com/JonMunkholm/lister/internal/store"
)

func newIngestCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest FILE",
		Short: "Classify a listing and rebuild the record store",
		Long: `Reads a CSV or XLSX listing, classifies every row and replaces the stored
records with the result. A file with no student rows empties the store and
fails. Rows that cannot be parsed are reported and skipped.`,
		Example: `  lister ingest "Dean's List 2024.csv"
  lister ingest listing.xlsx --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			a, closeApp, err := rt.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeApp()

			rep, err := a.Service.Ingest(cmd.Context(), filepath.Base(args[0]), f)
			if rep != nil {
				if rt.jsonOut {
					if jerr := renderJSON(cmd.OutOrStdout(), rep); jerr != nil {
						return jerr
					}
				} else {
					renderReport(cmd.OutOrStdout(), rep)
				}
			}
			return err
		},
	}
}

func newExportCmd(rt *runtime) *cobra.Command {
	var (
		years   []int
		courses []string
		awards  []string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the records matching a filter as CSV",
		Long: `Writes the stored records matching every given filter to a CSV file named
after the selection, e.g. Y1-2_All_Dean.csv. An omitted filter selects all
values. Use -o - to write to stdout.`,
		Example: `  lister export --award Dean --year 1,2
  lister export --course BSCS -o - | head`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, closeApp, err := rt.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeApp()

			exp, err := a.Service.Export(cmd.Context(), store.Filter{
				Years:   years,
				Courses: courses,
				Awards:  awards,
			})
			if err != nil {
				return err
			}

			path := output
			if path == "" {
				path = exp.FileName
			}
			if err := writeOutput(cmd, path, exp.WriteCSV); err != nil {
				return err
			}
			if path != "-" {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d records to %s\n", len(exp.Records), path)
			}
			return nil
		},
	}

	cmd.Flags().IntSliceVar(&years, "year", nil, "year levels to include")
	cmd.Flags().StringSliceVar(&courses, "course", nil, "courses to include")
	cmd.Flags().StringSliceVar(&awards, "award", nil, "awards to include")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: derived from the filter)")
	return cmd
}

func newBatchCmd(rt *runtime) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Export one CSV per year, course and award as a ZIP archive",
		Long: `Writes every cell of the batch matrix to its own CSV inside one archive and
checks that the archive holds every stored record.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, closeApp, err := rt.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeApp()

			var res core.BatchResult
			err = writeOutput(cmd, output, func(w io.Writer) error {
				var err error
				res, err = a.Service.Batch(cmd.Context(), w)
				return err
			})
			if err != nil {
				return err
			}

			if output == "-" {
				return nil
			}
			if rt.jsonOut {
				return renderJSON(cmd.OutOrStdout(), res.Reconciliation)
			}
			renderReconciliation(cmd.OutOrStdout(), output, res.Reconciliation)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", export.ArchiveName, "output archive")
	return cmd
}

func newSummaryCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show the stored records by award",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, closeApp, err := rt.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeApp()

			sum, err := a.Service.Summary(cmd.Context())
			if err != nil {
				return err
			}
			if rt.jsonOut {
				return renderJSON(cmd.OutOrStdout(), sum)
			}
			renderSummary(cmd.OutOrStdout(), sum)
			return nil
		},
	}
}

func newHistoryCmd(rt *runtime) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent ingestion runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, closeApp, err := rt.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeApp()

			runs, err := a.Service.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if rt.jsonOut {
				return renderJSON(cmd.OutOrStdout(), runs)
			}
			renderHistory(cmd.OutOrStdout(), runs)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of runs (default: HISTORY_LIMIT)")
	return cmd
}

func newInspectCmd(rt *runtime) *cobra.Command {
	var page, size int

	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Show a listing's raw table without storing it",
		Long: `Prints the table exactly as read, with the 0-based row numbers used in
anomaly reports. Nothing is classified or stored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			rows, err := parse.ReadTable(args[0], f)
			if err != nil {
				return fmt.Errorf("%w: %w", core.ErrIngestionFailed, err)
			}

			p := core.NewRawPage(filepath.Base(args[0]), rows, page, size)
			if rt.jsonOut {
				return renderJSON(cmd.OutOrStdout(), p)
			}
			renderRawPage(cmd.OutOrStdout(), p)
			return nil
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 1, "page to show")
	cmd.Flags().IntVar(&size, "page-size", 50, "rows per page")
	return cmd
}

func newMigrateCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := app.OpenStore(cmd.Context(), rt.cfg.Store)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrate %s store: %w", rt.cfg.Store.Driver, err)
			}
			version, err := st.SchemaVersion(cmd.Context())
			if err != nil {
				return fmt.Errorf("read %s schema version: %w", rt.cfg.Store.Driver, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s store is up to date (schema version %d)\n", rt.cfg.Store.Driver, version)
			return nil
		},
	}
}

// writeOutput runs write against path, or stdout for "-". A partially
// written file is removed on error.
func writeOutput(cmd *cobra.Command, path string, write func(io.Writer) error) (err error) {
	if path == "-" {
		return write(cmd.OutOrStdout())
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	return write(f)
}

package command

import (
	"fmt"
	"os"

	"yamdb/database"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import [file.json]",
	Short: "Load categories, genres and titles from a JSON fixture",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		data, err := database.ReadCatalog(f)
		if err != nil {
			return err
		}

		e, err := connect()
		if err != nil {
			return err
		}
		defer e.close()

		sum, err := database.ImportCatalog(cmd.Context(), e.db, data, e.logger)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		out := cmd.OutOrStdout()
		color.New(color.FgGreen).Fprintln(out, "✓ Catalog imported")
		fmt.Fprintf(out, "Categories: %d\n", sum.Categories)
		fmt.Fprintf(out, "Genres: %d\n", sum.Genres)
		fmt.Fprintf(out, "Titles: %d (skipped %d already stored)\n", sum.Titles, sum.Skipped)
		return nil
	},
}

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/hopcrawl/internal/config"
	"github.com/nao1215/hopcrawl/internal/database"
	"github.com/nao1215/hopcrawl/internal/report"
)

// defaultHistoryLimit is the number of runs listed when --limit is not given.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show crawls recorded with --save",
		Long: `History lists the runs recorded in the history database, newest first.

Runs are recorded by 'hopcrawl crawl --save' and 'hopcrawl batch --save'.
Use --id to show the full path and the failures of a single run, and
--delete to remove a run and its path from the database.

Examples:
  # List the 20 most recent runs
  hopcrawl history

  # Show run 3 in detail
  hopcrawl history -i 3

  # Export the 100 most recent runs as JSON
  hopcrawl history -n 100 --json

  # Remove run 3
  hopcrawl history -d 3`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", defaultHistoryLimit,
		"Maximum number of runs to list (0 = all)")
	cmd.Flags().Int64P("id", "i", 0,
		"Show a single run by its ID")
	cmd.Flags().Int64P("delete", "d", 0,
		"Delete a run by its ID")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown (mutually exclusive with --json)")
	addDBDirFlag(cmd)

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	id, err := cmd.Flags().GetInt64("id")
	if err != nil {
		return err
	}
	deleteID, err := cmd.Flags().GetInt64("delete")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	if jsonOutput && markdownOutput {
		return config.ErrConflictingReportFormats
	}

	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false})
	if err != nil {
		if errors.Is(err, database.ErrDatabaseNotFound) {
			return fmt.Errorf("%w (record a run with 'hopcrawl crawl --save' first)", err)
		}
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if deleteID != 0 {
		if err := db.DeleteRun(ctx, deleteID); err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted run %d\n", deleteID) //nolint:errcheck
		return nil
	}

	var w report.Writer
	switch {
	case jsonOutput:
		w = report.NewJSONWriter(out, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case markdownOutput:
		w = report.NewMarkdownWriter(out)
	default:
		w = report.NewTextWriter(out, report.WithVerbose(getVerboseFlag(cmd)))
	}

	if id != 0 {
		run, err := db.GetRun(ctx, id)
		if err != nil {
			return err
		}
		_, err = w.Write(run)
		return err
	}

	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	_, err = w.WriteList(runs)
	return err
}

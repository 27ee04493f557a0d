package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zeebo/errs"

	"github.com/Maksym-Tokariev/csv-parser/internal/history"
)

// historyLimit is the maximum number of listed runs.
var historyLimit int

// historyCmd represents the 'history' command.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded runs",
	Long:  `List the runs recorded in paths.history_db, most recent first.`,

	RunE: func(cmd *cobra.Command, args []string) (err error) {
		settings, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		path := settings.Paths().HistoryDB
		if path == "" {
			return errs.New("run history is disabled, set paths.history_db")
		}

		store, err := history.Open(cmd.Context(), log.Named("history"), path)
		if err != nil {
			return err
		}
		defer func() { err = errs.Combine(err, store.Close()) }()

		runs, err := store.List(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "STARTED\tSTATUS\tINPUT\tTOTAL\tVALID\tINVALID\tREVENUE\tID")
		for _, run := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
				run.StartedAt.Local().Format("2006-01-02 15:04:05"),
				run.Status, run.InputFile,
				run.TotalLines, run.ValidLines, run.InvalidLines,
				run.TotalRevenue, run.ID)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of runs, 0 lists all")
}

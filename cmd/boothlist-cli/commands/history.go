package commands

import (
	"log/slog"

	"boothlist-backend/lib/cliutil"
	"boothlist-backend/services/catalog/input"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var historyPath *string
var historyDays *int
var historyOut *string

func init() {
	historyPath = historyCmd.Flags().String("db", "", "Path to a Chrome History database. Defaults to the default profile's.")
	historyDays = historyCmd.Flags().Int("days", 90, "How many days of history to scan.")
	historyOut = historyCmd.Flags().String("out", "", "Append the found ids to a dated id list in this directory instead of printing a table.")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history [--db <path>] [--days <n>] [--out <dir>]",
	Short: "Mines marketplace item visits out of Chrome browsing history.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		path := *historyPath
		if path == "" {
			var err error
			path, err = input.DefaultChromeHistoryPath()
			if err != nil {
				cliutil.Fatal("failed to locate chrome history", err)
			}
		}

		visits, err := input.LoadChromeHistory(ctx, path, *historyDays)
		if err != nil {
			cliutil.Fatal("failed to read chrome history", err)
		}
		if len(visits) == 0 {
			slog.Info("no item visits found", "days", *historyDays)
			return
		}

		if *historyOut != "" {
			ids := make([]int, 0, len(visits))
			for _, visit := range visits {
				ids = append(ids, visit.ItemID)
			}
			saveIDs(*historyOut, ids)
			return
		}

		t := newTable()
		t.AppendHeader(table.Row{"item id", "title", "visits", "last visit"})
		for _, visit := range visits {
			t.AppendRow(table.Row{visit.ItemID, visit.Title, visit.VisitCount, visit.LastVisit.Format("2006-01-02")})
		}
		t.Render()
	},
}

package commands

import (
	"log/slog"
	"os"
	"time"

	"boothlist-backend/lib/cliutil"
	"boothlist-backend/services/catalog/input"

	"github.com/spf13/cobra"
)

var idsOut *string

func init() {
	idsOut = idsCmd.Flags().String("out", "input", "Directory to write the dated id list into.")
	rootCmd.AddCommand(idsCmd)
}

func saveIDs(dir string, ids []int) {
	path, total, err := input.SaveIDs(dir, ids, time.Now())
	if err != nil {
		cliutil.Fatal("failed to save id list", err)
	}
	slog.Info("saved id list", "path", path, "new", len(ids), "total", total)
}

var idsCmd = &cobra.Command{
	Use:   "ids [--out <dir>]",
	Short: "Reads pasted text from stdin and collects item ids into a dated list.",
	Run: func(cmd *cobra.Command, args []string) {
		slog.Info("paste text containing item urls or ids, then press ctrl+d")

		ids, err := input.ExtractIDs(os.Stdin)
		if err != nil {
			cliutil.Fatal("failed to read stdin", err)
		}
		if len(ids) == 0 {
			slog.Warn("no ids found")
			return
		}
		saveIDs(*idsOut, ids)
	},
}

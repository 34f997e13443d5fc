package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ignonfollowers/pkg/report"
	"ignonfollowers/pkg/ui"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List earlier reports in the output directory",
	Long: `List the reports written by earlier runs, newest first. Each run
writes a TXT and a JSON file; the counts are read from the JSON file.`,
	Args: cobra.NoArgs,
	Run:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of reports to show (0 for all)")
}

func runHistory(cmd *cobra.Command, args []string) {
	cfg := loadConfig(cmd)

	exporter, err := report.NewExporter(cfg.Output.Directory, nil)
	if err != nil {
		ui.PrintError("Failed to open output directory", err.Error())
		os.Exit(1)
	}
	files, err := exporter.History()
	if err != nil {
		ui.PrintError("Failed to list reports", err.Error())
		os.Exit(1)
	}

	ui.PrintInfo("Output directory", exporter.OutputDir())
	out := ui.Output()
	shown := 0
	for _, f := range files {
		if !strings.HasSuffix(f.Name, ".json") {
			continue
		}
		if historyLimit > 0 && shown == historyLimit {
			break
		}
		shown++

		r, err := report.Load(f.Path)
		if err != nil {
			fmt.Fprintf(out, "%2d. %s %s\n", shown, f.Name, ui.Dim("(unreadable: "+err.Error()+")"))
			continue
		}
		fmt.Fprintf(out, "%2d. %s  %d non-followers  (following %d, followers %d)\n",
			shown,
			r.GeneratedAt.Format("2006-01-02 15:04:05"),
			r.Stats.NonFollowersCount,
			r.Stats.FollowingCount,
			r.Stats.FollowersCount)
		fmt.Fprintf(out, "    %s\n", ui.Dim(strings.TrimSuffix(f.Path, ".json")+".{txt,json}"))
	}

	if shown == 0 {
		ui.PrintInfo("No reports yet", "Run 'ignonfollowers' to create one")
	}
}

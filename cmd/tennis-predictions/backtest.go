package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/martofrog/tennis-predictions/internal/backtest"
)

var (
	backtestFrom       string
	backtestTo         string
	backtestMinMatches int
	backtestCSV        string
)

func init() {
	backtestCmd.Flags().StringVar(&backtestFrom, "from", "", "First match date to score (YYYY-MM-DD)")
	backtestCmd.Flags().StringVar(&backtestTo, "to", "", "Last match date to score (YYYY-MM-DD)")
	backtestCmd.Flags().IntVar(&backtestMinMatches, "min-matches", 10, "History both players need before a prediction is scored")
	backtestCmd.Flags().StringVar(&backtestCSV, "csv", "", "Write scored predictions to this CSV file")
	backtestCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of a report")
}

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay match history and score pre-match predictions",
	Long: `Backtest replays the configured match source from an empty rating table.
Each match is forecast from the ratings held just before it was played, then applied.
The stored snapshot is not modified.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		btCfg, err := backtest.ParseConfig(backtestFrom, backtestTo, backtestMinMatches)
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		runner, err := backtest.NewRunner(a.engine, btCfg, appLog)
		if err != nil {
			return err
		}
		stream, err := a.matches.Matches(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to open match stream: %w", err)
		}
		defer stream.Close()

		result, err := runner.Run(cmd.Context(), stream)
		if err != nil {
			return err
		}

		if backtestCSV != "" {
			if err := backtest.GenerateCSVExport(result, backtestCSV); err != nil {
				return fmt.Errorf("failed to write csv: %w", err)
			}
		}
		if jsonOutput {
			return printJSON(result)
		}
		fmt.Print(backtest.GenerateConsoleReport(result))
		return nil
	},
}

package backtest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/martofrog/tennis-predictions/internal/models"
)

// GenerateConsoleReport formats metrics for terminal output
func GenerateConsoleReport(result *Result) string {
	var builder strings.Builder
	m := result.Overall
	builder.WriteString("Backtest Report\n")
	builder.WriteString("================\n")
	builder.WriteString(fmt.Sprintf("Matches Processed: %d (skipped %d, duplicates %d)\n",
		result.Processed, result.Skipped, result.Duplicates))
	builder.WriteString(fmt.Sprintf("Predictions Scored: %d\n", m.Scored))
	builder.WriteString(fmt.Sprintf("Accuracy: %.2f%%\n", m.Accuracy*100))
	builder.WriteString(fmt.Sprintf("Brier Score: %.4f\n", m.BrierScore))
	builder.WriteString(fmt.Sprintf("Log Loss: %.4f\n", m.LogLoss))

	if len(m.Calibration) > 0 {
		builder.WriteString("\nCalibration (favourite)\n")
		for _, b := range m.Calibration {
			if b.Count == 0 {
				continue
			}
			builder.WriteString(fmt.Sprintf("  %.2f-%.2f  n=%-6d predicted %.3f  observed %.3f\n",
				b.Lower, b.Upper, b.Count, b.MeanPredicted, b.ObservedRate))
		}
	}

	builder.WriteString("\nBy Surface\n")
	for _, s := range models.Surfaces {
		sm, ok := result.BySurface[s]
		if !ok {
			continue
		}
		builder.WriteString(fmt.Sprintf("  %-6s n=%-6d accuracy %.2f%%  brier %.4f\n",
			s, sm.Scored, sm.Accuracy*100, sm.BrierScore))
	}

	builder.WriteString("\nBy Year\n")
	for _, y := range result.Years() {
		ym := result.ByYear[y]
		builder.WriteString(fmt.Sprintf("  %d   n=%-6d accuracy %.2f%%  brier %.4f\n",
			y, ym.Scored, ym.Accuracy*100, ym.BrierScore))
	}
	return builder.String()
}

// GenerateCSVExport writes one row per scored prediction
func GenerateCSVExport(result *Result, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"date", "surface", "winner", "loser", "p_winner", "favorite"}); err != nil {
		return err
	}
	for _, p := range result.Predictions {
		row := []string{
			p.Date.UTC().Format(models.DateLayout),
			p.Surface.String(),
			p.Winner,
			p.Loser,
			fmt.Sprintf("%.6f", p.PWinner),
			p.Favorite,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

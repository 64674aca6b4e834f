package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/martofrog/tennis-predictions/internal/models"
	"github.com/martofrog/tennis-predictions/internal/odds"
	"github.com/martofrog/tennis-predictions/internal/service"
	"github.com/martofrog/tennis-predictions/internal/valuebet"
)

var (
	fullRetrain   bool
	surfaceFlag   string
	price1Flag    string
	price2Flag    string
	ratingSurface string
	limitFlag     int
	sortFlag      string
	minEdgeFlag   float64
	tourFlag      string
	notifyFlag    bool
	todayFlag     bool
	windowFlag    time.Duration
	bestFlag      bool
	jsonOutput    bool
)

func init() {
	trainCmd.Flags().BoolVar(&fullRetrain, "full", false, "Rebuild ratings from an empty table instead of updating incrementally")

	predictCmd.Flags().StringVarP(&surfaceFlag, "surface", "s", "hard", "Court surface (hard, clay, grass)")
	predictCmd.Flags().StringVar(&price1Flag, "price1", "", "Decimal price quoted on PLAYER1; with --price2 shows the edge")
	predictCmd.Flags().StringVar(&price2Flag, "price2", "", "Decimal price quoted on PLAYER2")

	ratingsCmd.Flags().StringVarP(&ratingSurface, "surface", "s", "", "Order by blended surface rating")
	ratingsCmd.Flags().IntVarP(&limitFlag, "limit", "n", 20, "Number of players to list; 0 lists everyone")
	ratingsCmd.Flags().StringVar(&sortFlag, "sort", "rating", "List order (rating or player)")

	valueBetsCmd.Flags().Float64Var(&minEdgeFlag, "min-edge", 0, "Minimum edge as a fraction; 0 uses the configured threshold")
	valueBetsCmd.Flags().StringVar(&tourFlag, "tour", "", "Restrict to one tour (atp or wta)")
	valueBetsCmd.Flags().BoolVar(&notifyFlag, "notify", false, "Deliver new bets to the configured redis and telegram sinks")
	valueBetsCmd.Flags().BoolVar(&todayFlag, "today", false, "Best bet per match for markets starting within 24h")
	valueBetsCmd.Flags().DurationVar(&windowFlag, "window", 0, "Only markets starting within this duration; 0 means no limit")
	valueBetsCmd.Flags().BoolVar(&bestFlag, "best-per-match", false, "Keep only the highest expected value bet of each match")

	for _, c := range []*cobra.Command{trainCmd, predictCmd, ratingsCmd, valueBetsCmd, dataStatusCmd} {
		c.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of a table")
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Fold historical matches into the rating snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.training.Retrain(cmd.Context(), fullRetrain)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(result)
		}

		r := result.Report
		fmt.Printf("Snapshot v%d: %d players\n", result.Version, result.Players)
		fmt.Printf("  processed %d, applied %d, duplicates %d, skipped %d (%s)\n",
			r.Processed, r.Applied, r.Duplicates, r.Skipped, result.Duration.Round(time.Millisecond))
		for reason, n := range r.SkippedByReason {
			fmt.Printf("    %s: %d\n", reason, n)
		}
		return nil
	},
}

var predictCmd = &cobra.Command{
	Use:   "predict PLAYER1 PLAYER2",
	Short: "Predict a head-to-head match",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		surface, err := models.ParseSurface(surfaceFlag)
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		pred, err := a.predictions.Predict(args[0], args[1], surface)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(pred)
		}

		fmt.Printf("%s vs %s on %s (snapshot v%d)\n", pred.PlayerA, pred.PlayerB, pred.Surface, a.predictions.SnapshotVersion())
		fmt.Printf("  %-24s %7.1f  %5.1f%%  fair %s\n", pred.PlayerA, pred.RatingA, pred.ProbabilityA*100, fairPrice(pred.ProbabilityA))
		fmt.Printf("  %-24s %7.1f  %5.1f%%  fair %s\n", pred.PlayerB, pred.RatingB, pred.ProbabilityB()*100, fairPrice(pred.ProbabilityB()))
		fmt.Printf("  favorite: %s (confidence %.1f%%)\n", pred.Favorite(), pred.Confidence()*100)
		return printQuoteEdge(pred)
	},
}

// fairPrice formats the no-margin price of p in decimal and American odds
func fairPrice(p float64) string {
	price, err := odds.ProbabilityToDecimal(p)
	if err != nil {
		return "-"
	}
	american, err := odds.DecimalToAmerican(price)
	if err != nil {
		return fmt.Sprintf("%.2f", price)
	}
	return fmt.Sprintf("%.2f (%+.0f)", price, american)
}

// printQuoteEdge compares the prediction with a two-way quote given on the command line
func printQuoteEdge(pred models.Prediction) error {
	if price1Flag == "" && price2Flag == "" {
		return nil
	}
	if price1Flag == "" || price2Flag == "" {
		return fmt.Errorf("--price1 and --price2 must be given together")
	}
	p1, err := odds.ParsePrice(price1Flag)
	if err != nil {
		return err
	}
	p2, err := odds.ParsePrice(price2Flag)
	if err != nil {
		return err
	}
	noVig1, noVig2, err := odds.Normalize(p1, p2)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PLAYER\tPRICE\tNO-VIG\tEDGE\tEV")
	rows := []struct {
		player       string
		price, model float64
		noVig        float64
	}{
		{pred.PlayerA, p1, pred.ProbabilityA, noVig1},
		{pred.PlayerB, p2, pred.ProbabilityB(), noVig2},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%.2f\t%.1f%%\t%+.1f%%\t%+.1f%%\n", r.player, r.price, r.noVig*100,
			(r.model-r.noVig)*100, valuebet.ExpectedValue(r.model, r.price)*100)
	}
	return w.Flush()
}

var ratingsCmd = &cobra.Command{
	Use:   "ratings [PLAYER]",
	Short: "List player ratings or show one player",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var surface models.Surface
		if ratingSurface != "" {
			parsed, err := models.ParseSurface(ratingSurface)
			if err != nil {
				return err
			}
			surface = parsed
		}
		order, err := service.ParseRatingOrder(sortFlag)
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 1 {
			p, err := a.predictions.Player(args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(p)
			}
			fmt.Printf("%s: %.1f overall, %d matches\n", p.Name, p.Overall, p.Matches)
			for _, s := range models.Surfaces {
				fmt.Printf("  %-6s %7.1f  (%d matches)\n", s, p.SurfaceRating(s), p.SurfaceCount(s))
			}
			return nil
		}

		entries := a.predictions.Ratings(surface, order, limitFlag)
		if jsonOutput {
			return printJSON(entries)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "RANK\tPLAYER\tRATING\tMATCHES\tLAST MATCH")
		for _, e := range entries {
			last := "-"
			if !e.LastMatch.IsZero() {
				last = e.LastMatch.Format(models.DateLayout)
			}
			fmt.Fprintf(w, "%d\t%s\t%.1f\t%d\t%s\n", e.Rank, e.Player, e.Rating, e.Matches, last)
		}
		return w.Flush()
	},
}

var valueBetsCmd = &cobra.Command{
	Use:   "value-bets",
	Short: "Scan upcoming markets for value bets and arbitrage",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := service.ScanOptions{Threshold: minEdgeFlag, Window: windowFlag, BestPerMatch: bestFlag}
		if windowFlag < 0 {
			return fmt.Errorf("--window must not be negative")
		}
		if todayFlag {
			opts.Window = 24 * time.Hour
			opts.BestPerMatch = true
		}
		if tourFlag != "" {
			tour, err := models.ParseTour(tourFlag)
			if err != nil {
				return err
			}
			opts.Tour = tour
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		if notifyFlag {
			if err := a.attachSinks(cmd.Context()); err != nil {
				return err
			}
		}

		result, err := a.betting.ScanValueBets(cmd.Context(), opts)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(result)
		}

		fmt.Printf("%d markets, %d value bets, %d arbitrage (edge >= %.1f%%, snapshot v%d)\n",
			result.Markets, len(result.ValueBets), len(result.Arbitrage), result.Threshold*100, result.SnapshotVersion)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SELECTION\tOPPONENT\tBOOK\tPRICE\tMODEL\tEDGE\tEV\tSTAKE\tCALL")
		for _, vb := range result.ValueBets {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.1f%%\t%.1f%%\t%.1f%%\t%.1f%%\t%s\n",
				vb.Selection, vb.Opponent, vb.BestBookmaker, vb.BestPrice, vb.ModelProbability*100,
				vb.Edge*100, vb.ExpectedValue*100, vb.KellyStake*100, vb.Recommendation)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		for _, arb := range result.Arbitrage {
			legs := make([]string, 0, len(arb.Legs))
			for _, leg := range arb.Legs {
				legs = append(legs, fmt.Sprintf("%s %.2f @ %s", leg.Selection, leg.Price, leg.Bookmaker))
			}
			fmt.Printf("arbitrage %s: %s (margin %.2f%%)\n", arb.MatchRef, strings.Join(legs, " / "), arb.ProfitMargin*100)
		}
		return nil
	},
}

var dataStatusCmd = &cobra.Command{
	Use:   "data-status",
	Short: "Show the historical matches available per tour",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		status, err := a.training.DataStatus(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(status)
		}

		fmt.Printf("Source %s, as of %s\n", status.Source, status.CurrentDate)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TOUR\tMATCHES\tEARLIEST\tLATEST\tFILES")
		for _, t := range status.Tours {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%d\n", t.Tour, t.TotalMatches, dashIfEmpty(t.EarliestDate), dashIfEmpty(t.LatestDate), len(t.Files))
		}
		return w.Flush()
	},
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

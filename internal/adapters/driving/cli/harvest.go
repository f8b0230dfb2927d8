package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/plenara-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/plenara-cli/internal/adapters/driven/storage/sqlite"
	translategoogle "github.com/custodia-labs/plenara-cli/internal/adapters/driven/translate/google"
	"github.com/custodia-labs/plenara-cli/internal/adapters/driven/translate/noop"
	"github.com/custodia-labs/plenara-cli/internal/connectors/europarl"
	"github.com/custodia-labs/plenara-cli/internal/core/domain"
	"github.com/custodia-labs/plenara-cli/internal/core/ports/driven"
	"github.com/custodia-labs/plenara-cli/internal/core/services"
	"github.com/custodia-labs/plenara-cli/internal/normalisers/speech"
	"github.com/custodia-labs/plenara-cli/internal/normalisers/vote"
)

var (
	harvestOut       string
	harvestFrom      string
	harvestTo        string
	harvestTranslate bool
	harvestWorkers   int
	harvestDryRun    bool
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Harvest speeches and votes for a date range",
	Long: `Fetches the verbatim report of proceedings and the roll-call vote
results for every candidate sitting date in the range, normalises both
documents, reconciles member identities, and persists the corpus to the
output directory. Dates without a sitting are skipped silently; dates
that fail are reported at the end without aborting the rest.`,
	RunE: runHarvest,
}

func init() {
	harvestCmd.Flags().StringVarP(&harvestOut, "out", "o", "", "output directory for the corpus (required)")
	harvestCmd.Flags().StringVar(&harvestFrom, "from", "", "first date of the range, YYYY-MM-DD (required)")
	harvestCmd.Flags().StringVar(&harvestTo, "to", "", "last date of the range, YYYY-MM-DD (required)")
	harvestCmd.Flags().BoolVar(&harvestTranslate, "translate", false, "translate speeches to English")
	harvestCmd.Flags().IntVar(&harvestWorkers, "workers", 0, "concurrent date workers (default from config, else 4)")
	harvestCmd.Flags().BoolVar(&harvestDryRun, "dry-run", false, "run the pipeline without writing to disk")
	_ = harvestCmd.MarkFlagRequired("out")
	_ = harvestCmd.MarkFlagRequired("from")
	_ = harvestCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(harvestCmd)
}

func runHarvest(cmd *cobra.Command, _ []string) error {
	period, err := domain.ParsePeriod(harvestFrom, harvestTo)
	if err != nil {
		return fmt.Errorf("invalid date range: %w", err)
	}

	settings, err := loadSettings()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	translator, err := buildTranslator(cmd.Context(), settings.TranslateAPIKey)
	if err != nil {
		return err
	}

	store, err := buildStore(period)
	if err != nil {
		return err
	}
	defer store.Close()

	workers := harvestWorkers
	if workers == 0 {
		workers = settings.Workers
	}

	harvester := services.NewHarvester(services.HarvesterConfig{
		Period: period,
		Fetcher: europarl.New(europarl.Config{
			BaseURL:           settings.BaseURL,
			RequestsPerSecond: settings.RequestsPerSecond,
			Burst:             settings.Burst,
			Retry:             retryPolicy(settings.MaxAttempts),
		}),
		Speeches:   speech.New(),
		Votes:      vote.New(),
		Translator: translator,
		Store:      store,
		Identities: services.NewIdentityResolver(settings.Aliases),
		Workers:    workers,
	})

	cmd.Printf("Harvesting %s into %s...\n", period, harvestOut)

	report, err := runWithProgress(cmd, harvester)
	if report != nil {
		printReport(cmd, report)
	}
	if err != nil {
		return fmt.Errorf("harvest interrupted: %w", err)
	}
	return nil
}

// buildTranslator picks the translation backend for this run.
func buildTranslator(ctx context.Context, apiKey string) (driven.Translator, error) {
	if !harvestTranslate {
		return noop.New(), nil
	}
	if apiKey == "" {
		return nil, errors.New("--translate requires translate.api_key in the configuration")
	}
	translator, err := translategoogle.New(ctx, apiKey)
	if err != nil {
		return nil, fmt.Errorf("creating translator: %w", err)
	}
	return translator, nil
}

// buildStore opens the output store, or an in-memory one for dry runs.
func buildStore(period domain.Period) (driven.RecordStore, error) {
	if harvestDryRun {
		return memory.NewStore(period), nil
	}
	store, err := sqlite.NewStore(harvestOut, period)
	if err != nil {
		return nil, fmt.Errorf("opening output directory: %w", err)
	}
	return store, nil
}

func retryPolicy(maxAttempts int) europarl.Policy {
	policy := europarl.DefaultPolicy()
	if maxAttempts > 0 {
		policy.MaxAttempts = maxAttempts
	}
	return policy
}

// runWithProgress runs the harvest while printing progress updates.
func runWithProgress(cmd *cobra.Command, harvester *services.Harvester) (*domain.RunReport, error) {
	type result struct {
		report *domain.RunReport
		err    error
	}
	resCh := make(chan result, 1)
	go func() {
		report, err := harvester.Run(cmd.Context())
		resCh <- result{report, err}
	}()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastCount := -1
	for {
		select {
		case res := <-resCh:
			if lastCount >= 0 {
				cmd.Println()
			}
			return res.report, res.err
		case <-ticker.C:
			status := harvester.Status()
			if status.DatesProcessed > lastCount {
				cmd.Printf("\rProcessed %d dates (%d speeches, %d votes)",
					status.DatesProcessed, status.Speeches, status.Votes)
				lastCount = status.DatesProcessed
			}
		}
	}
}

// printReport renders the final run accounting.
func printReport(cmd *cobra.Command, report *domain.RunReport) {
	out := cmd.OutOrStdout()

	color.New(color.FgGreen).Fprintf(out, "Harvested %d sittings across %d dates\n",
		report.Sittings, report.DatesScanned)
	cmd.Printf("  speeches: %d", report.Speeches)
	if report.Translated > 0 {
		cmd.Printf(" (%d translated)", report.Translated)
	}
	cmd.Println()
	cmd.Printf("  votes:    %d\n", report.Votes)

	if len(report.Warnings) > 0 {
		color.New(color.FgYellow).Fprintf(out, "%d warnings:\n", len(report.Warnings))
		for _, w := range report.Warnings {
			cmd.Printf("  %s\n", w)
		}
	}
	if len(report.Failures) > 0 {
		color.New(color.FgRed).Fprintf(out, "%d dates failed:\n", len(report.Failures))
		for _, f := range report.Failures {
			cmd.Printf("  %s\n", f)
		}
	}
	if report.Clean() {
		cmd.Println("No warnings or failures.")
	}
}

package cli

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/plenara-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/plenara-cli/internal/core/domain"
	"github.com/custodia-labs/plenara-cli/internal/core/ports/driving"
	"github.com/custodia-labs/plenara-cli/internal/core/services"
)

var (
	statsOut    string
	statsMember string
	statsWord   string
	statsJSON   bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show statistics for a harvested corpus",
	Long: `Computes descriptive statistics over a previously harvested corpus:
per-member speech and vote activity, per-sitting totals, and corpus-wide
counts. With --member, shows one member's activity in detail. With --word,
counts how often a word occurs across speeches, per member.`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().StringVarP(&statsOut, "out", "o", "", "corpus directory (required)")
	statsCmd.Flags().StringVarP(&statsMember, "member", "m", "", "show one member, matched by name substring")
	statsCmd.Flags().StringVarP(&statsWord, "word", "w", "", "count occurrences of a word across speeches")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
	_ = statsCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	store, err := sqlite.Open(statsOut)
	if err != nil {
		return fmt.Errorf("opening corpus: %w", err)
	}
	defer store.Close()

	stats := services.NewStats(store)
	ctx := cmd.Context()

	if statsWord != "" {
		usage, err := stats.WordUsage(ctx, statsWord)
		if err != nil {
			return err
		}
		if statsJSON {
			return outputJSON(cmd, usage)
		}
		printWordUsage(cmd, usage)
		return nil
	}

	if statsMember != "" {
		activity, err := stats.MemberSummary(ctx, statsMember)
		if err != nil {
			return err
		}
		if statsJSON {
			return outputJSON(cmd, activity)
		}
		printMemberActivity(cmd, activity)
		return nil
	}

	summary, err := stats.Summarise(ctx)
	if err != nil {
		return err
	}
	if statsJSON {
		return outputJSON(cmd, summary)
	}
	printSummary(cmd, summary)
	return nil
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func printSummary(cmd *cobra.Command, summary *driving.CorpusSummary) {
	out := cmd.OutOrStdout()

	color.New(color.Bold).Fprintf(out, "Corpus %s\n", summary.Period)
	cmd.Printf("  members:  %d\n", len(summary.Members))
	cmd.Printf("  sittings: %d\n", len(summary.Sittings))
	cmd.Printf("  speeches: %d\n", summary.TotalSpeeches)
	cmd.Printf("  ballots:  %d (%d individual votes)\n", summary.TotalBallots, summary.TotalVotes)

	if len(summary.Sittings) > 0 {
		cmd.Println()
		cmd.Println("Sittings:")
		for _, s := range summary.Sittings {
			cmd.Printf("  %s  %4d speeches  %3d ballots  %5d votes\n",
				s.Date.Format(domain.DateLayout), s.Speeches, s.Ballots, s.Votes)
		}
	}
}

func printMemberActivity(cmd *cobra.Command, activity *driving.MemberActivity) {
	out := cmd.OutOrStdout()

	color.New(color.Bold).Fprintf(out, "%s\n", activity.Member.DisplayName)
	if activity.Member.Party != "" {
		cmd.Printf("  group:    %s\n", activity.Member.Party)
	}
	if activity.Member.PersonID != "" {
		cmd.Printf("  id:       %s\n", activity.Member.PersonID)
	}
	cmd.Printf("  speeches: %d (%d words", activity.SpeechCount, activity.WordCount)
	if activity.SpeakingSeconds > 0 {
		cmd.Printf(", %s speaking time", formatDuration(activity.SpeakingSeconds))
	}
	cmd.Println(")")
	cmd.Printf("  votes:    %d (for %d, against %d, abstain %d)\n",
		activity.VoteCount,
		activity.Choices[domain.ChoiceFor],
		activity.Choices[domain.ChoiceAgainst],
		activity.Choices[domain.ChoiceAbstain])
}

func printWordUsage(cmd *cobra.Command, usage *driving.WordUsage) {
	out := cmd.OutOrStdout()

	color.New(color.Bold).Fprintf(out, "%q\n", usage.Word)
	if usage.Occurrences == 0 {
		cmd.Println("  no occurrences in the corpus")
		return
	}
	cmd.Printf("  occurrences: %d across %d speeches\n", usage.Occurrences, usage.Speeches)
	cmd.Println()
	for _, m := range usage.Members {
		cmd.Printf("  %-40s %4d in %d speeches\n", m.Member.DisplayName, m.Occurrences, m.Speeches)
	}
}

func formatDuration(seconds int) string {
	if seconds < 3600 {
		return fmt.Sprintf("%dm%02ds", seconds/60, seconds%60)
	}
	return fmt.Sprintf("%dh%02dm", seconds/3600, (seconds%3600)/60)
}

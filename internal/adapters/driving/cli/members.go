package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/plenara-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/plenara-cli/internal/core/services"
)

var membersOut string

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "List members in a harvested corpus",
	Long: `Lists every member seen in the corpus with their activity counts,
sorted by display name. Members appear whether they spoke, voted, or both.`,
	RunE: runMembers,
}

func init() {
	membersCmd.Flags().StringVarP(&membersOut, "out", "o", "", "corpus directory (required)")
	_ = membersCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(membersCmd)
}

func runMembers(cmd *cobra.Command, _ []string) error {
	store, err := sqlite.Open(membersOut)
	if err != nil {
		return fmt.Errorf("opening corpus: %w", err)
	}
	defer store.Close()

	summary, err := services.NewStats(store).Summarise(cmd.Context())
	if err != nil {
		return err
	}

	if len(summary.Members) == 0 {
		cmd.Println("No members in corpus.")
		return nil
	}

	for _, activity := range summary.Members {
		party := activity.Member.Party
		if party == "" {
			party = "-"
		}
		cmd.Printf("%-40s %-12s %4d speeches %5d votes\n",
			activity.Member.DisplayName, party, activity.SpeechCount, activity.VoteCount)
	}
	return nil
}

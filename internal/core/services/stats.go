package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/plenara-cli/internal/core/domain"
	"github.com/custodia-labs/plenara-cli/internal/core/ports/driven"
	"github.com/custodia-labs/plenara-cli/internal/core/ports/driving"
)

// Ensure Stats implements the interface.
var _ driving.StatsService = (*Stats)(nil)

// Stats computes descriptive statistics over a persisted corpus. The
// reduction is pure: two invocations over the same store produce
// identical summaries, member and sitting order included.
type Stats struct {
	store driven.RecordStore
}

// NewStats creates a stats service backed by the given store.
func NewStats(store driven.RecordStore) *Stats {
	return &Stats{store: store}
}

// Summarise loads the corpus and reduces it to a summary.
func (s *Stats) Summarise(ctx context.Context) (*driving.CorpusSummary, error) {
	corpus, err := s.store.LoadCorpus(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	return summarise(corpus), nil
}

// MemberSummary returns one member's activity, matched by case-insensitive
// substring of the display name. Ambiguous queries fail so a stat is never
// silently attributed to the wrong member.
func (s *Stats) MemberSummary(ctx context.Context, nameQuery string) (*driving.MemberActivity, error) {
	query := strings.ToLower(strings.TrimSpace(nameQuery))
	if query == "" {
		return nil, fmt.Errorf("member query is empty: %w", domain.ErrInvalidInput)
	}

	summary, err := s.Summarise(ctx)
	if err != nil {
		return nil, err
	}

	var matches []driving.MemberActivity
	for _, activity := range summary.Members {
		if strings.Contains(strings.ToLower(activity.Member.DisplayName), query) {
			matches = append(matches, activity)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no member matches %q: %w", nameQuery, domain.ErrNotFound)
	case 1:
		m := matches[0]
		return &m, nil
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.Member.DisplayName
		}
		return nil, fmt.Errorf("query %q matches %s: %w",
			nameQuery, strings.Join(names, ", "), domain.ErrInvalidInput)
	}
}

// WordUsage counts case-insensitive occurrences of a word across speech
// text, overall and per member. Speeches are searched in their translated
// text when one exists, otherwise in the original.
func (s *Stats) WordUsage(ctx context.Context, word string) (*driving.WordUsage, error) {
	query := strings.ToLower(strings.TrimSpace(word))
	if query == "" {
		return nil, fmt.Errorf("word query is empty: %w", domain.ErrInvalidInput)
	}

	corpus, err := s.store.LoadCorpus(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	return countWordUsage(corpus, query), nil
}

func countWordUsage(corpus *domain.Corpus, query string) *driving.WordUsage {
	usage := &driving.WordUsage{Word: query}
	byMember := make(map[string]*driving.MemberWordUsage)

	for _, speech := range corpus.Speeches {
		text := speech.OriginalText
		if speech.TranslatedText != nil {
			text = *speech.TranslatedText
		}
		n := strings.Count(strings.ToLower(text), query)
		if n == 0 {
			continue
		}

		usage.Occurrences += n
		usage.Speeches++

		mu, ok := byMember[speech.MemberKey]
		if !ok {
			member := corpus.Members[speech.MemberKey]
			if member.Key == "" {
				member = domain.Member{Key: speech.MemberKey, DisplayName: speech.MemberKey}
			}
			mu = &driving.MemberWordUsage{Member: member}
			byMember[speech.MemberKey] = mu
		}
		mu.Occurrences += n
		mu.Speeches++
	}

	for _, mu := range byMember {
		usage.Members = append(usage.Members, *mu)
	}
	sort.Slice(usage.Members, func(i, j int) bool {
		a, b := usage.Members[i], usage.Members[j]
		if a.Occurrences != b.Occurrences {
			return a.Occurrences > b.Occurrences
		}
		return a.Member.DisplayName < b.Member.DisplayName
	})
	return usage
}

func summarise(corpus *domain.Corpus) *driving.CorpusSummary {
	byMember := make(map[string]*driving.MemberActivity)
	activity := func(key string) *driving.MemberActivity {
		a, ok := byMember[key]
		if !ok {
			member := corpus.Members[key]
			if member.Key == "" {
				member = domain.Member{Key: key, DisplayName: key}
			}
			a = &driving.MemberActivity{
				Member:  member,
				Choices: make(map[domain.VoteChoice]int),
			}
			byMember[key] = a
		}
		return a
	}

	type sittingAgg struct {
		speeches int
		votes    int
		ballots  map[string]bool
	}
	bySitting := make(map[time.Time]*sittingAgg)
	sitting := func(date time.Time) *sittingAgg {
		day := domain.Midnight(date)
		agg, ok := bySitting[day]
		if !ok {
			agg = &sittingAgg{ballots: make(map[string]bool)}
			bySitting[day] = agg
		}
		return agg
	}

	for _, speech := range corpus.Speeches {
		a := activity(speech.MemberKey)
		a.SpeechCount++
		a.SpeakingSeconds += speech.DurationSeconds
		a.WordCount += speech.WordCount()
		sitting(speech.Date).speeches++
	}

	allBallots := make(map[string]bool)
	for _, vote := range corpus.Votes {
		a := activity(vote.MemberKey)
		a.VoteCount++
		a.Choices[vote.Choice]++

		agg := sitting(vote.Date)
		agg.votes++
		agg.ballots[vote.BallotID] = true
		allBallots[vote.Date.Format(domain.DateLayout)+"/"+vote.BallotID] = true
	}

	summary := &driving.CorpusSummary{
		Period:        corpus.Period,
		TotalSpeeches: len(corpus.Speeches),
		TotalVotes:    len(corpus.Votes),
		TotalBallots:  len(allBallots),
	}

	for _, a := range byMember {
		summary.Members = append(summary.Members, *a)
	}
	sort.Slice(summary.Members, func(i, j int) bool {
		a, b := summary.Members[i].Member, summary.Members[j].Member
		if a.DisplayName != b.DisplayName {
			return a.DisplayName < b.DisplayName
		}
		return a.Key < b.Key
	})

	for day, agg := range bySitting {
		summary.Sittings = append(summary.Sittings, driving.SittingActivity{
			Date:     day,
			Speeches: agg.speeches,
			Ballots:  len(agg.ballots),
			Votes:    agg.votes,
		})
	}
	sort.Slice(summary.Sittings, func(i, j int) bool {
		return summary.Sittings[i].Date.Before(summary.Sittings[j].Date)
	})

	return summary
}

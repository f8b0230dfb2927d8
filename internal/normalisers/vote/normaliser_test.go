package vote

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/plenara-cli/internal/core/domain"
)

const sampleResults = `<?xml version="1.0" encoding="UTF-8"?>
<PV.RollCallVoteResults Sitting.Date="2020-09-14">
  <RollCallVote.Result Identifier="118264" Date="2020-09-14 17:30:00">
    <RollCallVote.Description.Text>A9-0142/2020 - Am 1</RollCallVote.Description.Text>
    <Result.For Number="2">
      <Result.PoliticalGroup.List Identifier="PPE">
        <PoliticalGroup.Member.Name PersId="124810">Garc&#237;a Mar&#237;a</PoliticalGroup.Member.Name>
      </Result.PoliticalGroup.List>
      <Result.PoliticalGroup.List Identifier="Renew">
        <PoliticalGroup.Member.Name PersId="197500">Lindqvist Erik</PoliticalGroup.Member.Name>
      </Result.PoliticalGroup.List>
    </Result.For>
    <Result.Against Number="1">
      <Result.PoliticalGroup.List Identifier="S&amp;D">
        <PoliticalGroup.Member.Name PersId="197401">Novak Jan</PoliticalGroup.Member.Name>
      </Result.PoliticalGroup.List>
    </Result.Against>
    <Result.Abstention Number="1">
      <Result.PoliticalGroup.List Identifier="PPE">
        <PoliticalGroup.Member.Name PersId="203001">Rossi Anna</PoliticalGroup.Member.Name>
      </Result.PoliticalGroup.List>
    </Result.Abstention>
  </RollCallVote.Result>
  <RollCallVote.Result>
    <RollCallVote.Description.Text>A9-0142/2020 - Vote final</RollCallVote.Description.Text>
    <Result.For Number="1">
      <Result.PoliticalGroup.List>
        <PoliticalGroup.Member.Name PersId="124810">Garc&#237;a Mar&#237;a</PoliticalGroup.Member.Name>
      </Result.PoliticalGroup.List>
    </Result.For>
  </RollCallVote.Result>
</PV.RollCallVoteResults>`

func rawVoteDoc(content string) *domain.RawDocument {
	return &domain.RawDocument{
		Date:    time.Date(2020, time.September, 14, 0, 0, 0, 0, time.UTC),
		Kind:    domain.KindVote,
		Content: []byte(content),
	}
}

func TestNormalise_SampleResults(t *testing.T) {
	n := New()
	result, err := n.Normalise(context.Background(), rawVoteDoc(sampleResults))
	require.NoError(t, err)
	require.Len(t, result.Votes, 5)
	assert.Empty(t, result.Warnings)

	first := result.Votes[0]
	assert.Equal(t, "118264", first.BallotID)
	assert.Equal(t, "A9-0142/2020 - Am 1", first.Description)
	assert.Equal(t, "124810", first.MemberID)
	assert.Equal(t, "García María", first.MemberName)
	assert.Equal(t, "PPE", first.Group)
	assert.Equal(t, domain.ChoiceFor, first.Choice)

	// Choices are flattened in For, Against, Abstention order.
	choices := make([]domain.VoteChoice, 0, 4)
	for _, v := range result.Votes[:4] {
		choices = append(choices, v.Choice)
	}
	assert.Equal(t, []domain.VoteChoice{
		domain.ChoiceFor, domain.ChoiceFor, domain.ChoiceAgainst, domain.ChoiceAbstain,
	}, choices)

	// Second ballot has no Identifier attribute: a stable fallback is used.
	last := result.Votes[4]
	assert.Equal(t, "2020-09-14-rcv-2", last.BallotID)
	assert.Empty(t, last.Group, "missing group identifier is tolerated")
}

func TestNormalise_Idempotent(t *testing.T) {
	n := New()
	doc := rawVoteDoc(sampleResults)

	first, err := n.Normalise(context.Background(), doc)
	require.NoError(t, err)
	second, err := n.Normalise(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestNormalise_MalformedDocuments(t *testing.T) {
	n := New()

	t.Run("not XML", func(t *testing.T) {
		_, err := n.Normalise(context.Background(), rawVoteDoc("plainly not xml <"))
		require.Error(t, err)
		assert.True(t, domain.IsMalformed(err))
	})

	t.Run("wrong root element", func(t *testing.T) {
		_, err := n.Normalise(context.Background(), rawVoteDoc("<CRE></CRE>"))
		require.Error(t, err)

		var m *domain.MalformedDocumentError
		require.ErrorAs(t, err, &m)
		assert.Equal(t, domain.KindVote, m.Kind)
	})

	t.Run("truncated document", func(t *testing.T) {
		_, err := n.Normalise(context.Background(), rawVoteDoc(sampleResults[:400]))
		require.Error(t, err)
		assert.True(t, domain.IsMalformed(err))
	})

	t.Run("nil document", func(t *testing.T) {
		_, err := n.Normalise(context.Background(), nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestNormalise_SkipsUnusableEntries(t *testing.T) {
	n := New()
	doc := rawVoteDoc(`<PV.RollCallVoteResults Sitting.Date="2021-01-20">
  <RollCallVote.Result Identifier="1">
    <RollCallVote.Description.Text>Nameless entry</RollCallVote.Description.Text>
    <Result.For>
      <Result.PoliticalGroup.List Identifier="PPE">
        <PoliticalGroup.Member.Name></PoliticalGroup.Member.Name>
        <PoliticalGroup.Member.Name PersId="7">Usable Member</PoliticalGroup.Member.Name>
      </Result.PoliticalGroup.List>
    </Result.For>
  </RollCallVote.Result>
</PV.RollCallVoteResults>`)

	result, err := n.Normalise(context.Background(), doc)
	require.NoError(t, err)

	require.Len(t, result.Votes, 1)
	assert.Equal(t, "Usable Member", result.Votes[0].MemberName)

	require.Len(t, result.Warnings, 1)
	assert.Equal(t, domain.WarnParse, result.Warnings[0].Kind)
}

func TestNormalise_EmptyResults(t *testing.T) {
	n := New()
	result, err := n.Normalise(context.Background(), rawVoteDoc(`<PV.RollCallVoteResults Sitting.Date="2021-01-20"/>`))
	require.NoError(t, err)
	assert.Empty(t, result.Votes)
	assert.Empty(t, result.Warnings)
}

func TestNormalise_NameOnlyMember(t *testing.T) {
	n := New()
	doc := rawVoteDoc(`<PV.RollCallVoteResults>
  <RollCallVote.Result Identifier="9">
    <RollCallVote.Description.Text>Old-style entry</RollCallVote.Description.Text>
    <Result.Against>
      <Result.PoliticalGroup.List Identifier="NI">
        <PoliticalGroup.Member.Name>Kovacs Peter</PoliticalGroup.Member.Name>
      </Result.PoliticalGroup.List>
    </Result.Against>
  </RollCallVote.Result>
</PV.RollCallVoteResults>`)

	result, err := n.Normalise(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, result.Votes, 1)

	v := result.Votes[0]
	assert.Empty(t, v.MemberID)
	assert.Equal(t, "Kovacs Peter", v.MemberName)
	assert.Equal(t, domain.ChoiceAgainst, v.Choice)
}

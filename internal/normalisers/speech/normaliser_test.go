package speech

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/plenara-cli/internal/core/domain"
)

const sampleReport = `<?xml version="1.0" encoding="UTF-8"?>
<CRE>
  <CHAPTER>
    <TL-CHAP VL="FR">Reprise de la session</TL-CHAP>
    <TL-CHAP VL="EN">Resumption of the session</TL-CHAP>
    <NUMERO VOD-START="2020-09-14T17:08:40" VOD-END="2020-09-14T17:10:10"/>
    <INTERVENTION>
      <ORATEUR MEPID="124810" PP="PPE" SPEAKER_TYPE="MEP" LIB="GARC&#205;A | Mar&#237;a"/>
      <PARA>Garc&#237;a (PPE). – Madam President, the session is resumed.</PARA>
      <PARA>We continue where we left off.</PARA>
    </INTERVENTION>
    <INTERVENTION>
      <ORATEUR MEPID="197401" PP="S&amp;D" SPEAKER_TYPE="MEP" LIB="NOVAK | Jan"/>
      <PARA><EMPHAS>on behalf of the S&amp;D Group</EMPHAS> – Thank you, colleagues.</PARA>
      <PARA><EMPHAS>(Applause)</EMPHAS>That support is appreciated.</PARA>
    </INTERVENTION>
  </CHAPTER>
  <CHAPTER>
    <TL-CHAP VL="EN">Order of business</TL-CHAP>
    <INTERVENTION>
      <ORATEUR MEPID="124810" PP="PPE" SPEAKER_TYPE="MEP" LIB="GARC&#205;A | Mar&#237;a"/>
      <PARA>I move to amend the agenda.</PARA>
    </INTERVENTION>
  </CHAPTER>
</CRE>`

func rawSpeechDoc(content string) *domain.RawDocument {
	return &domain.RawDocument{
		Date:    time.Date(2020, time.September, 14, 0, 0, 0, 0, time.UTC),
		Kind:    domain.KindSpeech,
		Content: []byte(content),
	}
}

func TestNormalise_SampleReport(t *testing.T) {
	n := New()
	result, err := n.Normalise(context.Background(), rawSpeechDoc(sampleReport))
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Len(t, result.Speeches, 3)
	assert.Empty(t, result.Warnings)

	first := result.Speeches[0]
	assert.Equal(t, 1, first.Sequence)
	assert.Equal(t, "124810", first.SpeakerID)
	assert.Equal(t, "GARCÍA María", first.SpeakerName)
	assert.Equal(t, "PPE", first.Party)
	assert.Equal(t, "MEP", first.Role)
	assert.Equal(t, "Resumption of the session", first.Topic)
	assert.Equal(t, "17:08:40", first.TimeStart)
	assert.Equal(t, "17:10:10", first.TimeEnd)
	assert.Equal(t, 90, first.DurationSeconds)
	// Speaker prefix before ". – " is stripped, paragraphs joined.
	assert.Equal(t, "Madam President, the session is resumed. We continue where we left off.", first.Text)

	second := result.Speeches[1]
	assert.Equal(t, 2, second.Sequence)
	assert.Equal(t, "197401", second.SpeakerID)
	assert.Equal(t, "NOVAK Jan", second.SpeakerName)
	// "on behalf of" attribution and the stage note are dropped.
	assert.Equal(t, "Thank you, colleagues. That support is appreciated.", second.Text)

	third := result.Speeches[2]
	assert.Equal(t, "Order of business", third.Topic)
	assert.Empty(t, third.TimeStart, "chapter without NUMERO carries no timing")
	assert.Equal(t, "I move to amend the agenda.", third.Text)
}

func TestNormalise_Idempotent(t *testing.T) {
	n := New()
	doc := rawSpeechDoc(sampleReport)

	first, err := n.Normalise(context.Background(), doc)
	require.NoError(t, err)
	second, err := n.Normalise(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestNormalise_MalformedDocuments(t *testing.T) {
	n := New()

	t.Run("not XML at all", func(t *testing.T) {
		_, err := n.Normalise(context.Background(), rawSpeechDoc("<html>service unavailable"))
		require.Error(t, err)
		assert.True(t, domain.IsMalformed(err))
	})

	t.Run("empty payload", func(t *testing.T) {
		_, err := n.Normalise(context.Background(), rawSpeechDoc(""))
		require.Error(t, err)
		assert.True(t, domain.IsMalformed(err))
	})

	t.Run("wrong root element", func(t *testing.T) {
		_, err := n.Normalise(context.Background(), rawSpeechDoc("<PV.RollCallVoteResults/>"))
		require.Error(t, err)
		assert.True(t, domain.IsMalformed(err))

		var m *domain.MalformedDocumentError
		require.ErrorAs(t, err, &m)
		assert.Equal(t, domain.KindSpeech, m.Kind)
	})

	t.Run("truncated mid-document", func(t *testing.T) {
		truncated := sampleReport[:len(sampleReport)/2]
		_, err := n.Normalise(context.Background(), rawSpeechDoc(truncated))
		require.Error(t, err)
		assert.True(t, domain.IsMalformed(err))
	})

	t.Run("nil document", func(t *testing.T) {
		_, err := n.Normalise(context.Background(), nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestNormalise_SkipsBrokenFragments(t *testing.T) {
	n := New()
	doc := rawSpeechDoc(`<CRE>
  <CHAPTER>
    <TL-CHAP VL="EN">Debate</TL-CHAP>
    <INTERVENTION>
      <PARA>An anonymous remark with no speaker element.</PARA>
    </INTERVENTION>
    <INTERVENTION>
      <ORATEUR MEPID="1" LIB="VALID | Member"/>
      <PARA>A perfectly fine speech.</PARA>
    </INTERVENTION>
    <INTERVENTION>
      <ORATEUR MEPID="2" LIB="SILENT | Member"/>
    </INTERVENTION>
  </CHAPTER>
</CRE>`)

	result, err := n.Normalise(context.Background(), doc)
	require.NoError(t, err)

	require.Len(t, result.Speeches, 1)
	assert.Equal(t, "A perfectly fine speech.", result.Speeches[0].Text)

	require.Len(t, result.Warnings, 2)
	for _, w := range result.Warnings {
		assert.Equal(t, domain.WarnParse, w.Kind)
	}
}

func TestNormalise_EmptyReport(t *testing.T) {
	n := New()
	result, err := n.Normalise(context.Background(), rawSpeechDoc("<CRE></CRE>"))
	require.NoError(t, err)
	assert.Empty(t, result.Speeches)
	assert.Empty(t, result.Warnings)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "GARCÍA María", displayName("GARCÍA | María"))
	assert.Equal(t, "President", displayName("President"))
	assert.Equal(t, "", displayName(""))
}

func TestDuration(t *testing.T) {
	assert.Equal(t, 90, Duration("17:08:40", "17:10:10"))
	assert.Equal(t, 0, Duration("", "17:10:10"))
	assert.Equal(t, 0, Duration("17:08:40", ""))
	assert.Equal(t, 0, Duration("18:00:00", "17:00:00"), "negative spans clamp to zero")
	assert.Equal(t, 25, Duration("2020-09-14T17:08:40.125", "2020-09-14T17:09:05"), "full VOD stamps are accepted")
}

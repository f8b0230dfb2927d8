// Package vote normalises roll-call vote (RCV) XML into per-ballot,
// per-member raw records.
//
// Each RollCallVote.Result element is one ballot. Member positions sit
// under Result.For, Result.Against and Result.Abstention sections, grouped
// by political group. Older documents omit group identifiers and some
// member person IDs; the normaliser extracts what is present and skips
// unusable fragments with a warning.
package vote

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/plenara-cli/internal/core/domain"
	"github.com/custodia-labs/plenara-cli/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser parses RCV vote documents.
type Normaliser struct{}

// New creates a new vote normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Kind returns the document kind this normaliser handles.
func (n *Normaliser) Kind() domain.DocumentKind {
	return domain.KindVote
}

// rollCallXML is the subtree shape of one ballot.
type rollCallXML struct {
	Identifier  string     `xml:"Identifier,attr"`
	Description textOnly   `xml:"RollCallVote.Description.Text"`
	For         sectionXML `xml:"Result.For"`
	Against     sectionXML `xml:"Result.Against"`
	Abstention  sectionXML `xml:"Result.Abstention"`
}

// sectionXML is one choice section of a ballot.
type sectionXML struct {
	Groups []groupXML `xml:"Result.PoliticalGroup.List"`
}

// groupXML is one political group's list of members.
type groupXML struct {
	Identifier string      `xml:"Identifier,attr"`
	Members    []memberXML `xml:"PoliticalGroup.Member.Name"`
}

// memberXML is one member entry.
type memberXML struct {
	PersID string `xml:"PersId,attr"`
	Name   string `xml:",chardata"`
}

// textOnly flattens an element's character data, ignoring markup the
// description text sometimes embeds.
type textOnly struct {
	Value string
}

// UnmarshalXML collects character data across the whole subtree.
func (t *textOnly) UnmarshalXML(dec *xml.Decoder, _ xml.StartElement) error {
	var sb strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch v := tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			sb.Write(v)
		}
	}
	t.Value = strings.TrimSpace(sb.String())
	return nil
}

// Normalise parses one roll-call results document. The document must be
// valid XML with a RollCallVoteResults root; anything less yields
// *domain.MalformedDocumentError. A document with zero ballots is a valid
// empty result.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	dec := xml.NewDecoder(bytes.NewReader(raw.Content))

	root, err := rootElement(dec)
	if err != nil {
		return nil, &domain.MalformedDocumentError{Date: raw.Date, Kind: domain.KindVote, Err: err}
	}
	if !strings.Contains(root.Name.Local, "RollCallVoteResults") {
		return nil, &domain.MalformedDocumentError{
			Date: raw.Date, Kind: domain.KindVote,
			Err: fmt.Errorf("unexpected root element %q", root.Name.Local),
		}
	}

	result := &driven.NormaliseResult{}
	ballot := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return result, nil
			}
			return nil, &domain.MalformedDocumentError{Date: raw.Date, Kind: domain.KindVote, Err: err}
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "RollCallVote.Result" {
			continue
		}

		ballot++
		var rc rollCallXML
		if err := dec.DecodeElement(&rc, &start); err != nil {
			var syntax *xml.SyntaxError
			if errors.As(err, &syntax) {
				return nil, &domain.MalformedDocumentError{Date: raw.Date, Kind: domain.KindVote, Err: err}
			}
			result.Warnings = append(result.Warnings, domain.Warning{
				Kind:   domain.WarnParse,
				Date:   raw.Date,
				Detail: fmt.Sprintf("ballot %d: %v", ballot, err),
			})
			continue
		}

		n.appendBallot(raw, result, ballot, &rc)
	}
}

// appendBallot flattens one ballot's sections into per-member records.
func (n *Normaliser) appendBallot(raw *domain.RawDocument, result *driven.NormaliseResult, ordinal int, rc *rollCallXML) {
	ballotID := rc.Identifier
	if ballotID == "" {
		ballotID = fmt.Sprintf("%s-rcv-%d", raw.Date.Format(domain.DateLayout), ordinal)
	}

	sections := []struct {
		section sectionXML
		choice  domain.VoteChoice
	}{
		{rc.For, domain.ChoiceFor},
		{rc.Against, domain.ChoiceAgainst},
		{rc.Abstention, domain.ChoiceAbstain},
	}

	for _, s := range sections {
		for _, group := range s.section.Groups {
			for _, member := range group.Members {
				name := strings.TrimSpace(member.Name)
				if member.PersID == "" && name == "" {
					result.Warnings = append(result.Warnings, domain.Warning{
						Kind:   domain.WarnParse,
						Date:   raw.Date,
						Detail: fmt.Sprintf("ballot %s: %s entry with no member identity", ballotID, s.choice),
					})
					continue
				}
				result.Votes = append(result.Votes, driven.RawBallotVote{
					BallotID:    ballotID,
					Description: rc.Description.Value,
					MemberID:    member.PersID,
					MemberName:  name,
					Group:       group.Identifier,
					Choice:      s.choice,
				})
			}
		}
	}
}

// rootElement reads tokens until the document's root start element.
func rootElement(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			return xml.StartElement{}, fmt.Errorf("no root element: %w", err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start, nil
		}
	}
}

// Package speech normalises verbatim report (CRE) XML into raw speech
// records.
//
// The report format has drifted across the publication history: chapter
// titles exist in several languages, video timing attributes are sometimes
// absent, and speaker attributes appear in varying combinations. The
// normaliser walks the token stream rather than decoding a rigid schema,
// extracts what is present, and skips individual malformed interventions
// with a warning instead of failing the document.
package speech

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/custodia-labs/plenara-cli/internal/core/domain"
	"github.com/custodia-labs/plenara-cli/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

var (
	// skipPhrases matches "on behalf of" attributions in the languages the
	// reports emphasise them in. These fragments are procedural, not speech.
	skipPhrases = regexp.MustCompile(`^(on behalf of|en nombre del|au nom du|a nome|namens de) `)

	// stageNote matches fully parenthesised stage directions like
	// "(Applause)". They appear as emphasised fragments inside speeches.
	stageNote = regexp.MustCompile(`^\(.*\)$`)
)

// Normaliser parses CRE speech documents.
type Normaliser struct{}

// New creates a new speech normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Kind returns the document kind this normaliser handles.
func (n *Normaliser) Kind() domain.DocumentKind {
	return domain.KindSpeech
}

// Normalise parses one verbatim report. The report must be valid XML with
// a CRE root; anything less yields *domain.MalformedDocumentError. Within
// a valid report every intervention that can be extracted is, and each
// skipped fragment is recorded as a warning.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	dec := xml.NewDecoder(bytes.NewReader(raw.Content))

	root, err := rootElement(dec)
	if err != nil {
		return nil, &domain.MalformedDocumentError{Date: raw.Date, Kind: domain.KindSpeech, Err: err}
	}
	if root.Name.Local != "CRE" {
		return nil, &domain.MalformedDocumentError{
			Date: raw.Date, Kind: domain.KindSpeech,
			Err: fmt.Errorf("unexpected root element %q", root.Name.Local),
		}
	}

	result := &driven.NormaliseResult{}
	p := &parser{raw: raw, result: result}
	if err := p.walk(dec); err != nil {
		return nil, &domain.MalformedDocumentError{Date: raw.Date, Kind: domain.KindSpeech, Err: err}
	}
	return result, nil
}

// parser carries the chapter state that applies to subsequent interventions.
type parser struct {
	raw    *domain.RawDocument
	result *driven.NormaliseResult

	topic     string
	timeStart string
	timeEnd   string
	sequence  int
}

// walk consumes the token stream below the CRE root.
func (p *parser) walk(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read token: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "CHAPTER":
			// New agenda chapter: reset the running state.
			p.topic, p.timeStart, p.timeEnd = "", "", ""

		case "TL-CHAP":
			if attr(start, "VL") == "EN" {
				title, err := elementText(dec, start)
				if err != nil {
					return err
				}
				p.topic = strings.TrimSpace(title)
			}

		case "NUMERO":
			// VOD attributes look like "2020-09-14T17:08:40".
			if s, e := attr(start, "VOD-START"), attr(start, "VOD-END"); s != "" && e != "" {
				p.timeStart = clockPart(s)
				p.timeEnd = clockPart(e)
			}

		case "INTERVENTION":
			p.sequence++
			speech, err := p.decodeIntervention(dec, start)
			if err != nil {
				return err
			}
			if speech == nil {
				continue // Skipped with a warning.
			}
			p.result.Speeches = append(p.result.Speeches, *speech)
		}
	}
}

// interventionXML is the subtree shape of one speech.
type interventionXML struct {
	Orateur *struct {
		MEPID       string `xml:"MEPID,attr"`
		PP          string `xml:"PP,attr"`
		SpeakerType string `xml:"SPEAKER_TYPE,attr"`
		Lib         string `xml:"LIB,attr"`
	} `xml:"ORATEUR"`
	Paras []paragraph `xml:"PARA"`
}

// decodeIntervention extracts one speech, or records a warning and returns
// nil when the fragment cannot be used.
func (p *parser) decodeIntervention(dec *xml.Decoder, start xml.StartElement) (*driven.RawSpeech, error) {
	var iv interventionXML
	if err := dec.DecodeElement(&iv, &start); err != nil {
		// A syntax error poisons the whole token stream; anything else
		// is a broken fragment that is skipped, not fatal.
		var syntax *xml.SyntaxError
		if errors.As(err, &syntax) {
			return nil, err
		}
		p.warnf("intervention %d: %v", p.sequence, err)
		return nil, nil
	}

	speech := driven.RawSpeech{
		Sequence:        p.sequence,
		Topic:           p.topic,
		TimeStart:       p.timeStart,
		TimeEnd:         p.timeEnd,
		DurationSeconds: Duration(p.timeStart, p.timeEnd),
		Text:            cleanText(iv.Paras),
	}
	if iv.Orateur != nil {
		speech.SpeakerID = iv.Orateur.MEPID
		speech.SpeakerName = displayName(iv.Orateur.Lib)
		speech.Party = iv.Orateur.PP
		speech.Role = iv.Orateur.SpeakerType
	}

	if speech.SpeakerID == "" && speech.SpeakerName == "" {
		p.warnf("intervention %d: no speaker identity", p.sequence)
		return nil, nil
	}
	if speech.Text == "" {
		p.warnf("intervention %d: empty speech text", p.sequence)
		return nil, nil
	}
	return &speech, nil
}

func (p *parser) warnf(format string, args ...any) {
	p.result.Warnings = append(p.result.Warnings, domain.Warning{
		Kind:   domain.WarnParse,
		Date:   p.raw.Date,
		Detail: fmt.Sprintf(format, args...),
	})
}

// paragraph collects the text of one PARA element, dropping emphasised
// attribution phrases and stage notes.
type paragraph struct {
	text string
}

// UnmarshalXML walks the PARA subtree gathering character data. EMPHAS
// fragments matching the skip patterns are dropped wholesale.
func (p *paragraph) UnmarshalXML(dec *xml.Decoder, start xml.StartElement) error {
	var parts []string
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "EMPHAS" {
				inner, err := elementText(dec, t)
				if err != nil {
					return err
				}
				inner = strings.TrimSpace(inner)
				if skipPhrases.MatchString(inner) || stageNote.MatchString(inner) {
					continue
				}
				if inner != "" {
					parts = append(parts, inner)
				}
				continue
			}
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			if s := strings.TrimSpace(string(t)); s != "" {
				parts = append(parts, s)
			}
		}
	}
	p.text = strings.Join(parts, " ")
	return nil
}

// cleanText joins paragraph texts and strips the leading speaker prefix
// the reports prepend ("Name (Group). – actual text").
func cleanText(paras []paragraph) string {
	var parts []string
	for _, p := range paras {
		if p.text != "" {
			parts = append(parts, p.text)
		}
	}
	text := strings.Join(parts, " ")
	if _, after, found := strings.Cut(text, ". – "); found {
		text = after
	}
	text = strings.TrimLeft(text, "– ")
	return strings.TrimSpace(text)
}

// displayName converts the LIB attribute ("Last | First") to "Last First".
func displayName(lib string) string {
	last, first, found := strings.Cut(lib, " | ")
	if !found {
		return strings.TrimSpace(lib)
	}
	return strings.TrimSpace(last) + " " + strings.TrimSpace(first)
}

// Duration returns the seconds between two "HH:MM:SS" clock strings,
// or 0 when either is missing or malformed.
func Duration(timeStart, timeEnd string) int {
	const layout = "15:04:05"
	s, err := time.Parse(layout, clockPart(timeStart))
	if err != nil {
		return 0
	}
	e, err := time.Parse(layout, clockPart(timeEnd))
	if err != nil {
		return 0
	}
	d := int(e.Sub(s).Seconds())
	if d < 0 {
		return 0
	}
	return d
}

// clockPart strips the date and fractional seconds from a VOD timestamp.
func clockPart(v string) string {
	if _, after, found := strings.Cut(v, "T"); found {
		v = after
	}
	if before, _, found := strings.Cut(v, "."); found {
		v = before
	}
	return v
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

// elementText consumes the remainder of an already-opened element and
// returns its flattened character data.
func elementText(dec *xml.Decoder, _ xml.StartElement) (string, error) {
	var sb strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			sb.Write(t)
		}
	}
	return sb.String(), nil
}

// attr returns the named attribute value, or empty.
func attr(start xml.StartElement, name string) string {
	for _, a := range start.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

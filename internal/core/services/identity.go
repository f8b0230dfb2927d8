package services

import (
	"fmt"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/custodia-labs/plenara-cli/internal/core/domain"
	"github.com/custodia-labs/plenara-cli/internal/logger"
)

// IdentityResolver reconciles member identities across the speech and vote
// sources into canonical Members.
//
// The two sources share one upstream person-ID scheme but disagree on name
// spelling, ordering and diacritics. Resolution prefers the person ID; a
// name-only token falls back to its normalised form. Within one run the
// mapping from raw token to member key is deterministic and monotonic:
// once assigned, a key is never reassigned to a different person.
//
// The registry is safe for concurrent use. Writes are serialised by a
// mutex; callers must not hold the registry across slow operations.
type IdentityResolver struct {
	mu sync.Mutex

	// aliases maps raw tokens to canonical member keys, supplied by
	// configuration to resolve known collisions.
	aliases map[string]string

	members map[string]*domain.Member // key -> member
	byID    map[string]string         // person ID -> key
	byName  map[string]string         // normalised name -> key

	warnings []domain.Warning
	collided map[string]bool // normalised name + person ID pairs already warned
}

// stripMarks removes diacritical marks: decompose, drop combining marks,
// recompose.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NewIdentityResolver creates a resolver with an optional alias table.
// Alias keys are raw tokens exactly as they appear upstream; values are
// the member keys they should resolve to.
func NewIdentityResolver(aliases map[string]string) *IdentityResolver {
	return &IdentityResolver{
		aliases:  aliases,
		members:  make(map[string]*domain.Member),
		byID:     make(map[string]string),
		byName:   make(map[string]string),
		collided: make(map[string]bool),
	}
}

// NormalizeToken canonicalises a raw name token: case-fold, strip
// diacritics, collapse whitespace.
func NormalizeToken(token string) string {
	folded := strings.ToLower(strings.TrimSpace(token))
	if stripped, _, err := transform.String(stripMarks, folded); err == nil {
		folded = stripped
	}
	return strings.Join(strings.Fields(folded), " ")
}

// Resolve maps one raw identity token to its canonical Member.
// personID may be empty (older vote documents); name may be empty when the
// source only carries an ID. At least one must be present.
func (r *IdentityResolver) Resolve(personID, name, party string) domain.Member {
	r.mu.Lock()
	defer r.mu.Unlock()

	normName := NormalizeToken(name)

	if key, ok := r.aliases[name]; ok && name != "" {
		if personID != "" {
			r.byID[personID] = key
		}
		return *r.update(key, personID, name, party, normName)
	}

	// The person ID is the strongest anchor: both sources share the scheme.
	if personID != "" {
		if key, ok := r.byID[personID]; ok {
			return *r.update(key, personID, name, party, normName)
		}

		// A name-only member seen earlier may be the same person now
		// appearing with an ID. Adopt the existing key so the person keeps
		// one identity; the key itself never changes.
		if key, ok := r.byName[normName]; ok && normName != "" {
			existing := r.members[key]
			if existing.PersonID == "" {
				r.byID[personID] = key
				return *r.update(key, personID, name, party, normName)
			}
			// Two distinct person IDs normalise to the same name. Keep
			// them separate and surface the collision for the alias table.
			r.warnCollision(normName, existing.PersonID, personID)
		}

		key := "mep-" + personID
		r.byID[personID] = key
		return *r.update(key, personID, name, party, normName)
	}

	if normName == "" {
		// Nothing to anchor on; callers filter these out beforehand.
		return domain.Member{}
	}

	if key, ok := r.byName[normName]; ok {
		return *r.update(key, personID, name, party, normName)
	}

	key := "name-" + strings.ReplaceAll(normName, " ", "-")
	return *r.update(key, personID, name, party, normName)
}

// Members returns all resolved members, keyed by member key.
func (r *IdentityResolver) Members() map[string]domain.Member {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]domain.Member, len(r.members))
	for key, m := range r.members {
		out[key] = *m
	}
	return out
}

// Warnings returns the identity collisions observed so far.
func (r *IdentityResolver) Warnings() []domain.Warning {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Warning, len(r.warnings))
	copy(out, r.warnings)
	return out
}

// ensure returns the member for key, creating it if needed, and backfills
// attributes that were unknown when the member was first seen.
func (r *IdentityResolver) ensure(key, personID, name, party string) *domain.Member {
	m, ok := r.members[key]
	if !ok {
		m = &domain.Member{Key: key, DisplayName: strings.TrimSpace(name)}
		r.members[key] = m
	}
	if m.DisplayName == "" {
		m.DisplayName = strings.TrimSpace(name)
	}
	if m.PersonID == "" {
		m.PersonID = personID
	}
	if m.Party == "" {
		m.Party = party
	}
	return m
}

// update is ensure plus name-index maintenance.
func (r *IdentityResolver) update(key, personID, name, party, normName string) *domain.Member {
	m := r.ensure(key, personID, name, party)
	if normName != "" {
		if _, taken := r.byName[normName]; !taken {
			r.byName[normName] = key
		}
	}
	return m
}

// warnCollision records one IdentityCollision warning per colliding pair.
func (r *IdentityResolver) warnCollision(normName, existingID, newID string) {
	marker := normName + "|" + existingID + "|" + newID
	if r.collided[marker] {
		return
	}
	r.collided[marker] = true

	detail := fmt.Sprintf("members %s and %s both normalise to %q; kept separate, add an alias to merge",
		existingID, newID, normName)
	logger.Warn("Identity collision: %s", detail)
	r.warnings = append(r.warnings, domain.Warning{Kind: domain.WarnIdentity, Detail: detail})
}

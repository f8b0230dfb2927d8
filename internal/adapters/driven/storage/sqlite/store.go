package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/plenara-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/plenara-cli/internal/core/domain"
	"github.com/custodia-labs/plenara-cli/internal/core/ports/driven"
)

// DatabaseFile is the name of the corpus database within an output directory.
const DatabaseFile = "corpus.db"

// rawDirName is the subdirectory holding archived upstream XML.
const rawDirName = "raw"

// Store is the SQLite-backed record store. A store is bound to one output
// directory and one harvest period; reusing a directory for a different
// period, or re-harvesting into a directory that already holds records,
// is rejected at open time.
type Store struct {
	db     *sql.DB
	dir    string
	period domain.Period
	closed bool
}

var _ driven.RecordStore = (*Store)(nil)

// NewStore opens (creating if needed) the corpus database in outputDir for
// a harvest of the given period. Returns domain.ErrDirtyDirectory when the
// directory already holds records or was initialised for another period.
func NewStore(outputDir string, period domain.Period) (*Store, error) {
	if err := os.MkdirAll(outputDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	s, err := open(outputDir)
	if err != nil {
		return nil, err
	}

	stored, found, err := s.storedPeriod()
	if err != nil {
		s.db.Close()
		return nil, err
	}

	if found {
		if !stored.Start().Equal(period.Start()) || !stored.End().Equal(period.End()) {
			s.db.Close()
			return nil, fmt.Errorf("directory %s holds period %s, requested %s: %w",
				outputDir, stored, period, domain.ErrDirtyDirectory)
		}
		count, err := s.recordCount()
		if err != nil {
			s.db.Close()
			return nil, err
		}
		if count > 0 {
			s.db.Close()
			return nil, fmt.Errorf("directory %s already holds %d records: %w",
				outputDir, count, domain.ErrDirtyDirectory)
		}
	} else {
		_, err = s.db.Exec(
			"INSERT INTO harvest_period (id, start_date, end_date) VALUES (1, ?, ?)",
			period.Start().Format(domain.DateLayout), period.End().Format(domain.DateLayout))
		if err != nil {
			s.db.Close()
			return nil, fmt.Errorf("recording harvest period: %w", err)
		}
	}

	s.period = period
	return s, nil
}

// Open opens an existing corpus database in outputDir for reading.
// Returns domain.ErrNotFound when no corpus has been harvested there.
func Open(outputDir string) (*Store, error) {
	if _, err := os.Stat(filepath.Join(outputDir, DatabaseFile)); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no corpus in %s: %w", outputDir, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("checking corpus database: %w", err)
	}

	s, err := open(outputDir)
	if err != nil {
		return nil, err
	}

	stored, found, err := s.storedPeriod()
	if err != nil {
		s.db.Close()
		return nil, err
	}
	if !found {
		s.db.Close()
		return nil, fmt.Errorf("corpus in %s has no period: %w", outputDir, domain.ErrNotFound)
	}

	s.period = stored
	return s, nil
}

// open opens the database file and runs migrations.
func open(outputDir string) (*Store, error) {
	dbPath := filepath.Join(outputDir, DatabaseFile)

	// WAL mode for concurrent date workers
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db, dir: outputDir}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Period returns the period the store was initialised with.
func (s *Store) Period() domain.Period {
	return s.period
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// SaveSitting persists one sitting's batch in a single transaction.
func (s *Store) SaveSitting(ctx context.Context, batch driven.SittingBatch) error {
	if s.closed {
		return domain.ErrStoreClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, member := range batch.Members {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO members (key, display_name, person_id, party)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				display_name = excluded.display_name,
				person_id = excluded.person_id,
				party = excluded.party
		`, member.Key, member.DisplayName, member.PersonID, member.Party)
		if err != nil {
			return fmt.Errorf("saving member %s: %w", member.Key, err)
		}
	}

	if len(batch.Speeches) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO speeches
				(id, date, member_key, sequence, topic, time_start, time_end,
				 duration_seconds, speaker_role, original_text, translated_text)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing speech insert: %w", err)
		}
		defer stmt.Close()

		for _, sp := range batch.Speeches {
			var translated sql.NullString
			if sp.TranslatedText != nil {
				translated = sql.NullString{String: *sp.TranslatedText, Valid: true}
			}
			_, err := stmt.ExecContext(ctx, sp.ID, sp.Date.Format(domain.DateLayout),
				sp.MemberKey, sp.Sequence, sp.Topic, sp.TimeStart, sp.TimeEnd,
				sp.DurationSeconds, sp.SpeakerRole, sp.OriginalText, translated)
			if err != nil {
				return fmt.Errorf("saving speech %s: %w", sp.ID, err)
			}
		}
	}

	if len(batch.Votes) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO votes
				(id, date, ballot_id, description, member_key, group_name, choice)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing vote insert: %w", err)
		}
		defer stmt.Close()

		for _, v := range batch.Votes {
			_, err := stmt.ExecContext(ctx, v.ID, v.Date.Format(domain.DateLayout),
				v.BallotID, v.Description, v.MemberKey, v.Group, string(v.Choice))
			if err != nil {
				return fmt.Errorf("saving vote %s: %w", v.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing sitting: %w", err)
	}
	return nil
}

// ArchiveRaw writes the fetched XML under raw/<kind>/<date>.xml.
func (s *Store) ArchiveRaw(_ context.Context, raw *domain.RawDocument) error {
	if s.closed {
		return domain.ErrStoreClosed
	}
	if raw == nil || !raw.Kind.Valid() {
		return domain.ErrInvalidInput
	}

	dir := filepath.Join(s.dir, rawDirName, string(raw.Kind))
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating archive directory: %w", err)
	}

	path := filepath.Join(dir, raw.Date.Format(domain.DateLayout)+".xml")
	if err := os.WriteFile(path, raw.Content, 0o600); err != nil {
		return fmt.Errorf("archiving %s document: %w", raw.Kind, err)
	}
	return nil
}

// LoadCorpus reconstructs the full corpus from persisted state.
func (s *Store) LoadCorpus(ctx context.Context) (*domain.Corpus, error) {
	if s.closed {
		return nil, domain.ErrStoreClosed
	}

	corpus := &domain.Corpus{
		Period:  s.period,
		Members: make(map[string]domain.Member),
	}

	if err := s.loadMembers(ctx, corpus); err != nil {
		return nil, err
	}
	if err := s.loadSpeeches(ctx, corpus); err != nil {
		return nil, err
	}
	if err := s.loadVotes(ctx, corpus); err != nil {
		return nil, err
	}
	return corpus, nil
}

func (s *Store) loadMembers(ctx context.Context, corpus *domain.Corpus) error {
	rows, err := s.db.QueryContext(ctx, "SELECT key, display_name, person_id, party FROM members")
	if err != nil {
		return fmt.Errorf("querying members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.Key, &m.DisplayName, &m.PersonID, &m.Party); err != nil {
			return fmt.Errorf("scanning member: %w", err)
		}
		corpus.Members[m.Key] = m
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating members: %w", err)
	}
	return nil
}

func (s *Store) loadSpeeches(ctx context.Context, corpus *domain.Corpus) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, member_key, sequence, topic, time_start, time_end,
		       duration_seconds, speaker_role, original_text, translated_text
		FROM speeches ORDER BY date, sequence
	`)
	if err != nil {
		return fmt.Errorf("querying speeches: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sp domain.SpeechRecord
		var dateStr string
		var translated sql.NullString
		if err := rows.Scan(&sp.ID, &dateStr, &sp.MemberKey, &sp.Sequence, &sp.Topic,
			&sp.TimeStart, &sp.TimeEnd, &sp.DurationSeconds, &sp.SpeakerRole,
			&sp.OriginalText, &translated); err != nil {
			return fmt.Errorf("scanning speech: %w", err)
		}
		sp.Date, err = parseDate(dateStr)
		if err != nil {
			return err
		}
		if translated.Valid {
			sp.TranslatedText = &translated.String
		}
		corpus.Speeches = append(corpus.Speeches, sp)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating speeches: %w", err)
	}
	return nil
}

func (s *Store) loadVotes(ctx context.Context, corpus *domain.Corpus) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, ballot_id, description, member_key, group_name, choice
		FROM votes ORDER BY date, ballot_id
	`)
	if err != nil {
		return fmt.Errorf("querying votes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v domain.VoteRecord
		var dateStr, choice string
		if err := rows.Scan(&v.ID, &dateStr, &v.BallotID, &v.Description,
			&v.MemberKey, &v.Group, &choice); err != nil {
			return fmt.Errorf("scanning vote: %w", err)
		}
		v.Date, err = parseDate(dateStr)
		if err != nil {
			return err
		}
		v.Choice = domain.VoteChoice(choice)
		corpus.Votes = append(corpus.Votes, v)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating votes: %w", err)
	}
	return nil
}

// storedPeriod reads the directory's recorded harvest period, if any.
func (s *Store) storedPeriod() (domain.Period, bool, error) {
	var start, end string
	row := s.db.QueryRow("SELECT start_date, end_date FROM harvest_period WHERE id = 1")
	if err := row.Scan(&start, &end); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Period{}, false, nil
		}
		return domain.Period{}, false, fmt.Errorf("reading harvest period: %w", err)
	}

	period, err := domain.ParsePeriod(start, end)
	if err != nil {
		return domain.Period{}, false, fmt.Errorf("stored period %s..%s invalid: %w", start, end, err)
	}
	return period, true, nil
}

// recordCount returns the total number of persisted records.
func (s *Store) recordCount() (int, error) {
	var speeches, votes int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM speeches").Scan(&speeches); err != nil {
		return 0, fmt.Errorf("counting speeches: %w", err)
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM votes").Scan(&votes); err != nil {
		return 0, fmt.Errorf("counting votes: %w", err)
	}
	return speeches + votes, nil
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}
		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing stored date %q: %w", s, err)
	}
	return d, nil
}

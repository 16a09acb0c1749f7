package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // pure Go SQLite driver
)

// ErrProfileNotFound is returned when a profile does not exist.
var ErrProfileNotFound = errors.New("profile not found")

const schema = `
CREATE TABLE IF NOT EXISTS profiles (
	id    TEXT PRIMARY KEY,
	name  TEXT NOT NULL,
	level INTEGER NOT NULL DEFAULT 200
);
CREATE TABLE IF NOT EXISTS progresses (
	profile_id   TEXT    NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
	guide_id     INTEGER NOT NULL,
	current_step INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (profile_id, guide_id)
);
CREATE TABLE IF NOT EXISTS checkboxes (
	profile_id     TEXT    NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
	guide_id       INTEGER NOT NULL,
	step_index     INTEGER NOT NULL,
	checkbox_index INTEGER NOT NULL,
	PRIMARY KEY (profile_id, guide_id, step_index, checkbox_index)
);
CREATE TABLE IF NOT EXISTS failed_downloads (
	guide_id  INTEGER PRIMARY KEY,
	failed_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Store persists profiles in a SQLite database.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

// Open opens (creating if needed) the progress database at path.
func Open(ctx context.Context, path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("progress store: failed to open database: %w", err)
	}
	// a single connection serializes writers and keeps in-memory databases shared
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("progress store: failed to connect: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("progress store: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("progress store: failed to create schema: %w", err)
	}

	log.Debug("Progress store opened", zap.String("path", path))
	return &Store{db: db, log: log}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// EnsureProfile creates a profile unless it exists.
func (s *Store) EnsureProfile(ctx context.Context, id, name string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (id, name) VALUES (?, ?) ON CONFLICT (id) DO NOTHING`, id, name)
	if err != nil {
		return fmt.Errorf("progress store: ensure profile %q: %w", id, err)
	}
	return nil
}

// CreateProfile adds a profile under a generated id and returns the id.
func (s *Store) CreateProfile(ctx context.Context, name string) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("progress store: create profile: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO profiles (id, name) VALUES (?, ?)`, id.String(), name); err != nil {
		return "", fmt.Errorf("progress store: create profile: %w", err)
	}
	s.log.Info("Profile created", zap.String("id", id.String()), zap.String("name", name))
	return id.String(), nil
}

// Profiles lists all profiles without their progress, ordered by name.
func (s *Store) Profiles(ctx context.Context) ([]*Profile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, level FROM profiles ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("progress store: list profiles: %w", err)
	}
	defer rows.Close()

	var out []*Profile
	for rows.Next() {
		p := &Profile{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Level); err != nil {
			return nil, fmt.Errorf("progress store: list profiles: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SetCurrentStep records the step the reader is on.
func (s *Store) SetCurrentStep(ctx context.Context, profileID string, guideID, stepIndex int) error {
	if err := s.profileExists(ctx, profileID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO progresses (profile_id, guide_id, current_step) VALUES (?, ?, ?)
		ON CONFLICT (profile_id, guide_id) DO UPDATE SET current_step = excluded.current_step`,
		profileID, guideID, stepIndex)
	if err != nil {
		return fmt.Errorf("progress store: set current step: %w", err)
	}
	return nil
}

// ToggleCheckbox flips a checkbox and returns its new state. Two toggles of
// the same checkbox leave it unchecked.
func (s *Store) ToggleCheckbox(ctx context.Context, profileID string, guideID, stepIndex, checkboxIndex int) (checked bool, err error) {
	if err := s.profileExists(ctx, profileID); err != nil {
		return false, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("progress store: toggle checkbox: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		DELETE FROM checkboxes
		WHERE profile_id = ? AND guide_id = ? AND step_index = ? AND checkbox_index = ?`,
		profileID, guideID, stepIndex, checkboxIndex)
	if err != nil {
		return false, fmt.Errorf("progress store: toggle checkbox: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("progress store: toggle checkbox: %w", err)
	}

	if removed == 0 {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO checkboxes (profile_id, guide_id, step_index, checkbox_index) VALUES (?, ?, ?, ?)`,
			profileID, guideID, stepIndex, checkboxIndex); err != nil {
			return false, fmt.Errorf("progress store: toggle checkbox: %w", err)
		}
		// a progress row makes the guide show up as started
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO progresses (profile_id, guide_id) VALUES (?, ?) ON CONFLICT DO NOTHING`,
			profileID, guideID); err != nil {
			return false, fmt.Errorf("progress store: toggle checkbox: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("progress store: toggle checkbox: %w", err)
	}

	s.log.Debug("Checkbox toggled",
		zap.String("profile", profileID), zap.Int("guide", guideID),
		zap.Int("step", stepIndex), zap.Int("checkbox", checkboxIndex), zap.Bool("checked", removed == 0))
	return removed == 0, nil
}

// CheckedIndices returns the checked checkboxes of one step.
func (s *Store) CheckedIndices(ctx context.Context, profileID string, guideID, stepIndex int) (map[int]bool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT checkbox_index FROM checkboxes
		WHERE profile_id = ? AND guide_id = ? AND step_index = ?`,
		profileID, guideID, stepIndex)
	if err != nil {
		return nil, fmt.Errorf("progress store: checked indices: %w", err)
	}
	defer rows.Close()

	out := make(map[int]bool)
	for rows.Next() {
		var idx int
		if err := rows.Scan(&idx); err != nil {
			return nil, fmt.Errorf("progress store: checked indices: %w", err)
		}
		out[idx] = true
	}
	return out, rows.Err()
}

// ResetGuide forgets all progress of a profile in a guide.
func (s *Store) ResetGuide(ctx context.Context, profileID string, guideID int) error {
	for _, q := range []string{
		`DELETE FROM checkboxes WHERE profile_id = ? AND guide_id = ?`,
		`DELETE FROM progresses WHERE profile_id = ? AND guide_id = ?`,
	} {
		if _, err := s.db.ExecContext(ctx, q, profileID, guideID); err != nil {
			return fmt.Errorf("progress store: reset guide %d: %w", guideID, err)
		}
	}
	return nil
}

// LoadProfile reads a consistent snapshot of a profile.
func (s *Store) LoadProfile(ctx context.Context, profileID string) (*Profile, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("progress store: load profile: %w", err)
	}
	defer tx.Rollback()

	p := &Profile{ID: profileID, Progresses: make(map[int]*GuideProgress)}
	err = tx.QueryRowContext(ctx, `SELECT name, level FROM profiles WHERE id = ?`, profileID).Scan(&p.Name, &p.Level)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("progress store: %q: %w", profileID, ErrProfileNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("progress store: load profile: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `SELECT guide_id, current_step FROM progresses WHERE profile_id = ?`, profileID)
	if err != nil {
		return nil, fmt.Errorf("progress store: load profile: %w", err)
	}
	for rows.Next() {
		var guideID, step int
		if err := rows.Scan(&guideID, &step); err != nil {
			rows.Close()
			return nil, fmt.Errorf("progress store: load profile: %w", err)
		}
		p.progress(guideID).CurrentStep = step
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("progress store: load profile: %w", err)
	}

	rows, err = tx.QueryContext(ctx, `
		SELECT guide_id, step_index, checkbox_index FROM checkboxes
		WHERE profile_id = ? ORDER BY guide_id, step_index, checkbox_index`, profileID)
	if err != nil {
		return nil, fmt.Errorf("progress store: load profile: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var guideID, step, idx int
		if err := rows.Scan(&guideID, &step, &idx); err != nil {
			return nil, fmt.Errorf("progress store: load profile: %w", err)
		}
		p.progress(guideID).Steps.add(step, idx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("progress store: load profile: %w", err)
	}
	return p, nil
}

// MarkDownloadFailed remembers that downloading a guide failed. The guides
// folder is shared, so failures are not tied to a profile.
func (s *Store) MarkDownloadFailed(ctx context.Context, guideID int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO failed_downloads (guide_id) VALUES (?)
		ON CONFLICT (guide_id) DO UPDATE SET failed_at = CURRENT_TIMESTAMP`, guideID)
	if err != nil {
		return fmt.Errorf("progress store: mark download of guide %d failed: %w", guideID, err)
	}
	return nil
}

// ClearDownloadFailed forgets a failure once the guide has been downloaded.
func (s *Store) ClearDownloadFailed(ctx context.Context, guideID int) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM failed_downloads WHERE guide_id = ?`, guideID); err != nil {
		return fmt.Errorf("progress store: clear failed download of guide %d: %w", guideID, err)
	}
	return nil
}

// FailedDownloads returns the guides whose last download failed.
func (s *Store) FailedDownloads(ctx context.Context) (map[int]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT guide_id FROM failed_downloads`)
	if err != nil {
		return nil, fmt.Errorf("progress store: failed downloads: %w", err)
	}
	defer rows.Close()

	out := make(map[int]bool)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("progress store: failed downloads: %w", err)
		}
		out[id] = true
	}
	return out, rows.Err()
}

func (s *Store) profileExists(ctx context.Context, profileID string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM profiles WHERE id = ?`, profileID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("progress store: %q: %w", profileID, ErrProfileNotFound)
	}
	if err != nil {
		return fmt.Errorf("progress store: %w", err)
	}
	return nil
}

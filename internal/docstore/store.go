// Package docstore persists annotated documents in SQLite.
//
// A document is saved whole: its content, document features, every set
// (including empty named sets) and every annotation with its original ID.
// Feature maps are stored as JSON objects in entry order. Values encoded by
// the collection codec are opaque strings there, so nested collections keep
// their escaped separators. An empty map is stored as the empty string.
package docstore

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/FocuswithJustin/standoff/core/annot"
	"github.com/FocuswithJustin/standoff/core/errors"
	"github.com/FocuswithJustin/standoff/core/sqlite"
	"github.com/FocuswithJustin/standoff/internal/docstore/migrations"
	"github.com/FocuswithJustin/standoff/internal/logging"
)

// now is injectable for testing.
var now = time.Now

// Store is a SQLite-backed document store.
type Store struct {
	db   *sql.DB
	path string
}

// Summary describes a stored document without loading it.
type Summary struct {
	ID          string
	Name        string
	Sets        int
	Annotations int
	UpdatedAt   time.Time
}

// Open opens (creating if needed) the store at path and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, errors.NewIO("mkdir", dir, err)
		}
	}

	db, err := sqlite.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	if err := sqlite.Configure(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(ctx, migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs every embedded NNN_name.up.sql newer than the recorded version.
func (s *Store) migrate(ctx context.Context, fsys embed.FS) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// Save writes doc, replacing any stored document with the same ID.
func (s *Store) Save(ctx context.Context, doc *annot.Document) error {
	docFeatures, err := encodeFeatures(doc.Features())
	if err != nil {
		return errors.Wrap(err, "document features")
	}
	hashes := annot.ContentHashes(doc)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM annotations WHERE document_id = ?`, doc.ID()); err != nil {
		return fmt.Errorf("clearing annotations: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM annotation_sets WHERE document_id = ?`, doc.ID()); err != nil {
		return fmt.Errorf("clearing sets: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, name, has_content, content, features, last_id, sha256, blake3, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			has_content = excluded.has_content,
			content = excluded.content,
			features = excluded.features,
			last_id = excluded.last_id,
			sha256 = excluded.sha256,
			blake3 = excluded.blake3,
			updated_at = excluded.updated_at
	`, doc.ID(), doc.Name(), boolToInt(doc.HasContent()), doc.Content(), docFeatures, int64(doc.LastID()),
		hashes.SHA256, hashes.BLAKE3, now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}

	setStmt, err := tx.PrepareContext(ctx, `INSERT INTO annotation_sets (document_id, name) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing set insert: %w", err)
	}
	defer setStmt.Close()

	annStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO annotations (document_id, set_name, id, seq, start_offset, end_offset, type, features)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing annotation insert: %w", err)
	}
	defer annStmt.Close()

	sets := doc.Sets()
	for _, set := range sets {
		if _, err := setStmt.ExecContext(ctx, doc.ID(), set.Name()); err != nil {
			return fmt.Errorf("saving set %q: %w", set.Name(), err)
		}
		seq := 0
		for a := range set.All() {
			features, err := encodeFeatures(a.Features())
			if err != nil {
				return errors.Wrapf(err, "annotation %s features", a.ID())
			}
			if _, err := annStmt.ExecContext(ctx, doc.ID(), set.Name(), int64(a.ID()), seq,
				a.Start(), a.End(), a.Type(), features); err != nil {
				return fmt.Errorf("saving annotation %s: %w", a.ID(), err)
			}
			seq++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing document: %w", err)
	}
	logging.DocumentStored(ctx, doc.ID(), len(sets), doc.AnnotationCount())
	return nil
}

// Load reads the document with the given ID and verifies its content hashes.
func (s *Store) Load(ctx context.Context, id string) (*annot.Document, error) {
	snap := &annot.Snapshot{ID: id}
	var (
		features       string
		lastID         int64
		sha256, blake3 string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT name, has_content, content, features, last_id, sha256, blake3
		FROM documents WHERE id = ?
	`, id).Scan(&snap.Name, &snap.HasContent, &snap.Content, &features, &lastID, &sha256, &blake3)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("document", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}
	snap.LastID = annot.ID(lastID)

	stored := annot.Hashes{SHA256: sha256, BLAKE3: blake3}
	if !stored.Matches([]byte(snap.Content)) {
		return nil, errors.NewValidation("content", "stored hash does not match content of document "+id)
	}

	if snap.Features, err = decodeFeatures(features); err != nil {
		return nil, errors.Wrap(err, "document features")
	}

	setIndex := make(map[string]int)
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM annotation_sets WHERE document_id = ? ORDER BY name`, id)
	if err != nil {
		return nil, fmt.Errorf("loading sets: %w", err)
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning set: %w", err)
		}
		setIndex[name] = len(snap.Sets)
		snap.Sets = append(snap.Sets, annot.SetSnapshot{Name: name})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading sets: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT set_name, id, start_offset, end_offset, type, features
		FROM annotations WHERE document_id = ? ORDER BY set_name, seq
	`, id)
	if err != nil {
		return nil, fmt.Errorf("loading annotations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			setName, encoded string
			as               annot.AnnotationSnapshot
			annID            int64
		)
		if err := rows.Scan(&setName, &annID, &as.Start, &as.End, &as.Type, &encoded); err != nil {
			return nil, fmt.Errorf("scanning annotation: %w", err)
		}
		as.ID = annot.ID(annID)
		if as.Features, err = decodeFeatures(encoded); err != nil {
			return nil, errors.Wrapf(err, "annotation %d features", annID)
		}
		i, ok := setIndex[setName]
		if !ok {
			i = len(snap.Sets)
			setIndex[setName] = i
			snap.Sets = append(snap.Sets, annot.SetSnapshot{Name: setName})
		}
		snap.Sets[i].Annotations = append(snap.Sets[i].Annotations, as)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading annotations: %w", err)
	}

	return snap.Restore()
}

// List returns a summary of every stored document ordered by name, then ID.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.name, d.updated_at,
			(SELECT COUNT(*) FROM annotation_sets s WHERE s.document_id = d.id),
			(SELECT COUNT(*) FROM annotations a WHERE a.document_id = d.id)
		FROM documents d
		ORDER BY d.name, d.id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var updated string
		if err := rows.Scan(&sum.ID, &sum.Name, &updated, &sum.Sets, &sum.Annotations); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, updated); err == nil {
			sum.UpdatedAt = t
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Delete removes the document with the given ID together with its sets and
// annotations.
func (s *Store) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if n == 0 {
		return errors.NewNotFound("document", id)
	}
	for _, table := range []string{"annotations", "annotation_sets"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE document_id = ?", id); err != nil {
			return fmt.Errorf("deleting %s: %w", table, err)
		}
	}
	return tx.Commit()
}

func encodeFeatures(f *annot.FeatureMap) (string, error) {
	if f.Len() == 0 {
		return "", nil
	}
	data, err := json.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("encoding features: %w", err)
	}
	return string(data), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func decodeFeatures(s string) (*annot.FeatureMap, error) {
	f := annot.NewFeatureMap()
	if s == "" {
		return f, nil
	}
	if err := json.Unmarshal([]byte(s), f); err != nil {
		return nil, errors.NewParse("json", "features", err.Error())
	}
	return f, nil
}

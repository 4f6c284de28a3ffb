package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // SQLite driver
)

// DefaultTTL is how long saved form values are kept.
const DefaultTTL = 24 * time.Hour

// FormAnalysis is the form name of the battlefield analysis form.
const FormAnalysis = "analysis"

// FormStore stores form field values keyed by session and form name.
type FormStore struct {
	db     *sqlx.DB
	dbPath string
	ttl    time.Duration
	now    func() time.Time
}

// Options configures FormStore behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool

	// TTL is the lifetime of saved values. Zero keeps DefaultTTL.
	TTL time.Duration
}

// DefaultOptions returns the default store options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
		TTL:               DefaultTTL,
	}
}

// NewSessionKey returns a fresh session key.
func NewSessionKey() string {
	return uuid.NewString()
}

// Open opens or creates the form store at dbPath and purges expired entries.
func Open(ctx context.Context, dbPath string, opts Options) (*FormStore, error) {
	if opts.CreateIfNotExists {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	} else if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("form store not found at %s: %w", dbPath, err)
	}

	// mode=rw refuses to create a missing file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	fs := &FormStore{
		db:     db,
		dbPath: dbPath,
		ttl:    opts.TTL,
		now:    time.Now,
	}
	if fs.ttl <= 0 {
		fs.ttl = DefaultTTL
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if err := fs.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	if _, err := fs.Purge(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return fs, nil
}

// Close closes the database connection.
func (fs *FormStore) Close() error {
	return fs.db.Close()
}

// Path returns the database file path.
func (fs *FormStore) Path() string {
	return fs.dbPath
}

func (fs *FormStore) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS form_fields (
		session TEXT NOT NULL,
		form TEXT NOT NULL,
		field TEXT NOT NULL,
		value TEXT NOT NULL,
		saved_at INTEGER NOT NULL,
		PRIMARY KEY (session, form, field)
	);

	CREATE INDEX IF NOT EXISTS idx_form_fields_saved_at ON form_fields(saved_at);
	`
	_, err := fs.db.ExecContext(ctx, schema)
	return err
}

// fieldRow is one stored field value.
type fieldRow struct {
	Session string `db:"session"`
	Form    string `db:"form"`
	Field   string `db:"field"`
	Value   string `db:"value"`
	SavedAt int64  `db:"saved_at"`
}

// Save replaces the stored values of a form with fields.
func (fs *FormStore) Save(ctx context.Context, session, form string, fields map[string]string) error {
	if session == "" || form == "" {
		return ErrEmptyKey
	}

	tx, err := fs.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM form_fields WHERE session = ? AND form = ?`, session, form); err != nil {
		return fmt.Errorf("failed to clear form: %w", err)
	}

	savedAt := fs.now().Unix()
	for field, value := range fields {
		row := fieldRow{Session: session, Form: form, Field: field, Value: value, SavedAt: savedAt}
		if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO form_fields (session, form, field, value, saved_at)
		VALUES (:session, :form, :field, :value, :saved_at)
		`, row); err != nil {
			return fmt.Errorf("failed to save field %s: %w", field, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit form: %w", err)
	}
	return nil
}

// Load returns the stored values of a form. It returns ErrNotFound when
// nothing unexpired was saved.
func (fs *FormStore) Load(ctx context.Context, session, form string) (map[string]string, error) {
	if session == "" || form == "" {
		return nil, ErrEmptyKey
	}

	var rows []fieldRow
	err := fs.db.SelectContext(ctx, &rows, `
	SELECT session, form, field, value, saved_at FROM form_fields
	WHERE session = ? AND form = ? AND saved_at >= ?
	`, session, form, fs.cutoff())
	if err != nil {
		return nil, fmt.Errorf("failed to load form: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}

	fields := make(map[string]string, len(rows))
	for _, r := range rows {
		fields[r.Field] = r.Value
	}
	return fields, nil
}

// Delete removes the stored values of a form.
func (fs *FormStore) Delete(ctx context.Context, session, form string) error {
	if _, err := fs.db.ExecContext(ctx, `DELETE FROM form_fields WHERE session = ? AND form = ?`, session, form); err != nil {
		return fmt.Errorf("failed to delete form: %w", err)
	}
	return nil
}

// Purge deletes every entry older than the store lifetime and returns the
// number of deleted field rows.
func (fs *FormStore) Purge(ctx context.Context) (int64, error) {
	res, err := fs.db.ExecContext(ctx, `DELETE FROM form_fields WHERE saved_at < ?`, fs.cutoff())
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired forms: %w", err)
	}
	return res.RowsAffected()
}

// Sessions returns the sessions that have unexpired saved forms.
func (fs *FormStore) Sessions(ctx context.Context) ([]string, error) {
	var sessions []string
	err := fs.db.SelectContext(ctx, &sessions, `
	SELECT DISTINCT session FROM form_fields
	WHERE saved_at >= ?
	ORDER BY session
	`, fs.cutoff())
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

func (fs *FormStore) cutoff() int64 {
	return fs.now().Add(-fs.ttl).Unix()
}

// Package store keeps the reference server's tasks in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"taskflow/internal/service"
)

// DateLayout is how task dates are stored.
const DateLayout = "2006-01-02"

// SlotLayout is how time slots are stored.
const SlotLayout = "15:04"

// ErrNotFound is returned when a task does not exist.
var ErrNotFound = errors.New("task not found")

// ErrUnknownField is returned for an update of a field tasks do not have.
var ErrUnknownField = errors.New("unknown field")

// ErrInvalidPriority is returned for a priority outside low, medium, high.
var ErrInvalidPriority = errors.New("invalid priority")

// Task is one stored task. TimeSlot is "" for tasks without a slot.
type Task struct {
	ID          int64
	Date        time.Time
	TimeSlot    string
	Title       string
	Description string
	Priority    string
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Store is a SQLite-backed task store.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path and migrates it.
// The path ":memory:" gives a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	// modernc.org/sqlite registers as "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// Each connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("configure database: %w", err)
		}
	}
	s := &Store{db: db, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT NOT NULL,
			time_slot TEXT,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			priority TEXT NOT NULL DEFAULT 'medium',
			completed INTEGER NOT NULL DEFAULT 0,
			created_at_unixms INTEGER NOT NULL,
			updated_at_unixms INTEGER NOT NULL,
			UNIQUE(date, time_slot)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_date ON tasks(date, time_slot, created_at_unixms);`,
	}
	for _, st := range stmts {
		if _, err := s.db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

const taskColumns = `id, date, time_slot, title, description, priority, completed, created_at_unixms, updated_at_unixms`

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (Task, error) {
	var (
		t         Task
		date      string
		slot      sql.NullString
		completed int
		created   int64
		updated   int64
	)
	if err := row.Scan(&t.ID, &date, &slot, &t.Title, &t.Description, &t.Priority, &completed, &created, &updated); err != nil {
		return Task{}, err
	}
	d, err := time.ParseInLocation(DateLayout, date, time.Local)
	if err != nil {
		return Task{}, fmt.Errorf("task %d: bad date %q: %w", t.ID, date, err)
	}
	t.Date = d
	t.TimeSlot = slot.String
	t.Completed = completed != 0
	t.CreatedAt = time.UnixMilli(created)
	t.UpdatedAt = time.UnixMilli(updated)
	return t, nil
}

func nullSlot(slot string) sql.NullString {
	return sql.NullString{String: slot, Valid: slot != ""}
}

// TasksOn returns the tasks of a day ordered by slot, untimed tasks first.
func (s *Store) TasksOn(ctx context.Context, day time.Time) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE date = ? ORDER BY time_slot, created_at_unixms, id`,
		day.Format(DateLayout))
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Task returns the task with the given id.
func (s *Store) Task(ctx context.Context, id int64) (Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	if err != nil {
		return Task{}, fmt.Errorf("get task %d: %w", id, err)
	}
	return t, nil
}

// SaveTask creates the task of a day and slot, or overwrites the title,
// description and priority of the one already there. It reports whether
// a task was created.
func (s *Store) SaveTask(ctx context.Context, day time.Time, slot, title, description, priority string) (Task, bool, error) {
	if priority == "" {
		priority = service.PriorityMedium
	}
	if !ValidPriority(priority) {
		return Task{}, false, fmt.Errorf("%w: %q", ErrInvalidPriority, priority)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Task{}, false, fmt.Errorf("save task: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	date := day.Format(DateLayout)
	now := s.now().UnixMilli()

	var id int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM tasks WHERE date = ? AND time_slot IS ? ORDER BY id LIMIT 1`,
		date, nullSlot(slot)).Scan(&id)
	created := errors.Is(err, sql.ErrNoRows)
	switch {
	case created:
		res, err := tx.ExecContext(ctx,
			`INSERT INTO tasks (date, time_slot, title, description, priority, completed, created_at_unixms, updated_at_unixms)
			 VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
			date, nullSlot(slot), title, description, priority, now, now)
		if err != nil {
			return Task{}, false, fmt.Errorf("insert task: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return Task{}, false, fmt.Errorf("insert task: %w", err)
		}
	case err != nil:
		return Task{}, false, fmt.Errorf("find task: %w", err)
	default:
		if _, err := tx.ExecContext(ctx,
			`UPDATE tasks SET title = ?, description = ?, priority = ?, updated_at_unixms = ? WHERE id = ?`,
			title, description, priority, now, id); err != nil {
			return Task{}, false, fmt.Errorf("update task: %w", err)
		}
	}

	t, err := scanTask(tx.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err != nil {
		return Task{}, false, fmt.Errorf("reload task: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Task{}, false, fmt.Errorf("save task: %w", err)
	}
	return t, created, nil
}

// UpdateField sets one field of a task. Values arrive decoded from JSON:
// completed takes a bool (strings and numbers are read for truth), the
// other fields take a string.
func (s *Store) UpdateField(ctx context.Context, id int64, field string, value any) error {
	var (
		column string
		arg    any
	)
	switch field {
	case service.FieldTitle, service.FieldDescription:
		column, arg = field, stringValue(value)
	case service.FieldPriority:
		p := stringValue(value)
		if !ValidPriority(p) {
			return fmt.Errorf("%w: %q", ErrInvalidPriority, p)
		}
		column, arg = field, p
	case service.FieldCompleted:
		column = field
		if truthy(value) {
			arg = 1
		} else {
			arg = 0
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET `+column+` = ?, updated_at_unixms = ? WHERE id = ?`,
		arg, s.now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("update task %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update task %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ValidPriority reports whether p is low, medium or high.
func ValidPriority(p string) bool {
	switch p {
	case service.PriorityLow, service.PriorityMedium, service.PriorityHigh:
		return true
	}
	return false
}

func stringValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		if b, err := strconv.ParseBool(x); err == nil {
			return b
		}
		return x != ""
	default:
		return true
	}
}

const keyPasswordHash = "password_hash"

// PasswordHash returns the stored password hash, or "" when none is set.
func (s *Store) PasswordHash(ctx context.Context) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT v FROM meta WHERE k = ?`, keyPasswordHash).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read password hash: %w", err)
	}
	return v, nil
}

// SetPasswordHash stores the password hash.
func (s *Store) SetPasswordHash(ctx context.Context, hash string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meta (k, v) VALUES (?, ?) ON CONFLICT(k) DO UPDATE SET v = excluded.v`,
		keyPasswordHash, hash)
	if err != nil {
		return fmt.Errorf("store password hash: %w", err)
	}
	return nil
}

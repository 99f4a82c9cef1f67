package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Makepad-fr/tada/internal/model"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned for ids that do not exist.
var ErrNotFound = errors.New("todo not found")

// Repository persists todos in SQLite.
type Repository struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at dsn. ":memory:" works for
// tests; the pool is pinned to one connection so it stays a single database.
func Open(ctx context.Context, dsn string) (*Repository, error) {
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", strings.TrimSuffix(p, ";"), err)
		}
	}
	r := &Repository{db: db}
	if err := r.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repository) Close() error { return r.db.Close() }

func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS todo (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			completed INTEGER NOT NULL DEFAULT 0
		);`,
	}
	for _, st := range stmts {
		if _, err := r.db.ExecContext(ctx, st); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

const columns = `id, title, description, completed`

type scanner interface {
	Scan(dest ...any) error
}

func scanTodo(s scanner) (model.Todo, error) {
	var (
		id int64
		t  model.Todo
	)
	if err := s.Scan(&id, &t.Title, &t.Description, &t.Completed); err != nil {
		return model.Todo{}, err
	}
	t.ID = model.ID(strconv.FormatInt(id, 10))
	return t, nil
}

func (r *Repository) Create(ctx context.Context, in model.NewTodo) (model.Todo, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO todo(title, description) VALUES (?, ?) RETURNING `+columns,
		in.Title, in.Description)
	t, err := scanTodo(row)
	if err != nil {
		return model.Todo{}, fmt.Errorf("insert todo: %w", err)
	}
	return t, nil
}

func (r *Repository) Find(ctx context.Context, id int64) (model.Todo, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM todo WHERE id = ?`, id)
	t, err := scanTodo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Todo{}, ErrNotFound
	}
	if err != nil {
		return model.Todo{}, fmt.Errorf("select todo %d: %w", id, err)
	}
	return t, nil
}

// All returns every todo in insertion order.
func (r *Repository) All(ctx context.Context) ([]model.Todo, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+columns+` FROM todo ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select todos: %w", err)
	}
	defer rows.Close()

	out := []model.Todo{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Update applies only the fields present on p.
func (r *Repository) Update(ctx context.Context, id int64, p model.Patch) (model.Todo, error) {
	var (
		sets []string
		args []any
	)
	if p.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, strings.TrimSpace(*p.Title))
	}
	if p.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *p.Description)
	}
	if p.Completed != nil {
		sets = append(sets, "completed = ?")
		args = append(args, boolToInt(*p.Completed))
	}
	if len(sets) == 0 {
		return r.Find(ctx, id)
	}
	args = append(args, id)
	row := r.db.QueryRowContext(ctx,
		`UPDATE todo SET `+strings.Join(sets, ", ")+` WHERE id = ? RETURNING `+columns, args...)
	t, err := scanTodo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Todo{}, ErrNotFound
	}
	if err != nil {
		return model.Todo{}, fmt.Errorf("update todo %d: %w", id, err)
	}
	return t, nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM todo WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete todo %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete todo %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

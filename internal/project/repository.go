package project

import (
	"context"
	"database/sql"
	"time"
)

type Repository interface {
	CreateDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, id string) (*Document, error)
	GetDocumentByName(ctx context.Context, name string) (*Document, error)
	ListDocuments(ctx context.Context) ([]*Document, error)
	UpdateDocumentBody(ctx context.Context, id, body string) error
	RenameDocument(ctx context.Context, id, name string) error
	DeleteDocument(ctx context.Context, id string) error
	CountDocuments(ctx context.Context) (int, error)

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) CreateDocument(ctx context.Context, d *Document) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO documents (id, name, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, d.ID, d.Name, d.Body, d.CreatedAt.Format(time.RFC3339), d.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetDocument(ctx context.Context, id string) (*Document, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, body, created_at, updated_at
		FROM documents WHERE id = ?
	`, id)
	return r.scanDocument(row)
}

func (r *SQLiteRepository) GetDocumentByName(ctx context.Context, name string) (*Document, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, body, created_at, updated_at
		FROM documents WHERE name = ?
	`, name)
	return r.scanDocument(row)
}

func (r *SQLiteRepository) scanDocument(row *sql.Row) (*Document, error) {
	var d Document
	var createdAt, updatedAt string

	err := row.Scan(&d.ID, &d.Name, &d.Body, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	d.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &d, nil
}

func (r *SQLiteRepository) ListDocuments(ctx context.Context) ([]*Document, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, body, created_at, updated_at
		FROM documents ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		var d Document
		var createdAt, updatedAt string
		if err := rows.Scan(&d.ID, &d.Name, &d.Body, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		d.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		docs = append(docs, &d)
	}
	return docs, rows.Err()
}

func (r *SQLiteRepository) UpdateDocumentBody(ctx context.Context, id, body string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE documents SET body = ?, updated_at = datetime('now') WHERE id = ?
	`, body, id)
	return err
}

func (r *SQLiteRepository) RenameDocument(ctx context.Context, id, name string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE documents SET name = ?, updated_at = datetime('now') WHERE id = ?
	`, name, id)
	return err
}

func (r *SQLiteRepository) DeleteDocument(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	return err
}

func (r *SQLiteRepository) CountDocuments(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&count)
	return count, err
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

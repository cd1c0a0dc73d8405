package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cv-builder/internal/domain"
	"cv-builder/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
)

// DB is the subset of *pgxpool.Pool the repository uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// ShareRepo persists shared CV snapshots in Postgres.
type ShareRepo struct {
	db DB
}

func NewShareRepo(db DB) *ShareRepo {
	return &ShareRepo{db: db}
}

// Save inserts a snapshot. Snapshots are immutable, so saving an existing
// id is a no-op.
func (r *ShareRepo) Save(ctx context.Context, s *domain.SharedCV) error {
	docB, err := json.Marshal(s.Document)
	if err != nil {
		return fmt.Errorf("encode shared cv: %w", err)
	}
	_, err = r.db.Exec(ctx, `INSERT INTO shared_cvs (id, template, document, created_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (id) DO NOTHING`,
		s.ID, s.Template, docB, s.CreatedAt)
	return err
}

func (r *ShareRepo) Get(ctx context.Context, id uuid.UUID) (*domain.SharedCV, error) {
	var (
		template  string
		docB      []byte
		createdAt time.Time
	)
	err := r.db.QueryRow(ctx, `SELECT template, document, created_at FROM shared_cvs WHERE id = $1`, id).
		Scan(&template, &docB, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrShareNotFound
	}
	if err != nil {
		return nil, err
	}

	doc, err := model.DecodeDocument(docB)
	if err != nil {
		return nil, err
	}
	return &domain.SharedCV{ID: id, Template: template, Document: doc, CreatedAt: createdAt}, nil
}

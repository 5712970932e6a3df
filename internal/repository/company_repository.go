package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/pointage-hr/pointage-api/internal/models"
)

// CompanyRepository handles persistence for companies.
type CompanyRepository struct {
	db *sqlx.DB
}

// NewCompanyRepository constructs the repository.
func NewCompanyRepository(db *sqlx.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// List returns every company ordered by name.
func (r *CompanyRepository) List(ctx context.Context) ([]models.Company, error) {
	query := `SELECT id, name, created_at, updated_at FROM companies ORDER BY name ASC`
	var rows []models.Company
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return rows, nil
}

// GetByID returns a company or nil when missing.
func (r *CompanyRepository) GetByID(ctx context.Context, id string) (*models.Company, error) {
	query := `SELECT id, name, created_at, updated_at FROM companies WHERE id = $1`
	var row models.Company
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return &row, nil
}

package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/plinth-cms/plinth/internal/models"
)

// Agency brand template methods

// scanner is satisfied by pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanBrandTemplate(row scanner) (*models.AgencyBrandTemplate, error) {
	var t models.AgencyBrandTemplate
	var colorsJSON, fontsJSON []byte
	if err := row.Scan(
		&t.ID, &t.AgencyID, &t.Name, &t.Description, &colorsJSON, &fontsJSON,
		&t.CustomCSS, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(colorsJSON, &t.Colors); err != nil {
		return nil, fmt.Errorf("parse template colors: %w", err)
	}
	if err := json.Unmarshal(fontsJSON, &t.Fonts); err != nil {
		return nil, fmt.Errorf("parse template fonts: %w", err)
	}
	return &t, nil
}

// CreateBrandTemplate inserts a new agency brand template.
func (db *DB) CreateBrandTemplate(ctx context.Context, t *models.AgencyBrandTemplate) error {
	colorsJSON, fontsJSON, err := marshalPalette(t.Colors, t.Fonts)
	if err != nil {
		return err
	}

	_, err = db.Pool.Exec(ctx, `
		INSERT INTO agency_brand_templates (id, agency_id, name, description, colors, fonts,
		                                    custom_css, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, t.ID, t.AgencyID, t.Name, t.Description, colorsJSON, fontsJSON,
		t.CustomCSS, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create brand template: %w", err)
	}
	return nil
}

// GetBrandTemplate returns a template by ID, or nil when none exists.
func (db *DB) GetBrandTemplate(ctx context.Context, id uuid.UUID) (*models.AgencyBrandTemplate, error) {
	t, err := scanBrandTemplate(db.Pool.QueryRow(ctx, `
		SELECT id, agency_id, name, description, colors, fonts, custom_css, created_at, updated_at
		FROM agency_brand_templates
		WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get brand template: %w", err)
	}
	return t, nil
}

// ListBrandTemplates returns an agency's templates ordered by name.
func (db *DB) ListBrandTemplates(ctx context.Context, agencyID uuid.UUID) ([]*models.AgencyBrandTemplate, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, agency_id, name, description, colors, fonts, custom_css, created_at, updated_at
		FROM agency_brand_templates
		WHERE agency_id = $1
		ORDER BY name, created_at
	`, agencyID)
	if err != nil {
		return nil, fmt.Errorf("list brand templates: %w", err)
	}
	defer rows.Close()

	var templates []*models.AgencyBrandTemplate
	for rows.Next() {
		t, err := scanBrandTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan brand template: %w", err)
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate brand templates: %w", err)
	}
	return templates, nil
}

// UpdateBrandTemplate replaces a template's editable fields.
func (db *DB) UpdateBrandTemplate(ctx context.Context, t *models.AgencyBrandTemplate) error {
	t.UpdatedAt = time.Now()
	colorsJSON, fontsJSON, err := marshalPalette(t.Colors, t.Fonts)
	if err != nil {
		return err
	}

	tag, err := db.Pool.Exec(ctx, `
		UPDATE agency_brand_templates
		SET name = $2, description = $3, colors = $4, fonts = $5, custom_css = $6, updated_at = $7
		WHERE id = $1
	`, t.ID, t.Name, t.Description, colorsJSON, fontsJSON, t.CustomCSS, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update brand template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("brand template %s not found", t.ID)
	}
	return nil
}

// DeleteBrandTemplate removes a template.
func (db *DB) DeleteBrandTemplate(ctx context.Context, id uuid.UUID) error {
	if _, err := db.Pool.Exec(ctx, `DELETE FROM agency_brand_templates WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete brand template: %w", err)
	}
	return nil
}

func marshalPalette(colors models.BrandColors, fonts models.BrandFonts) ([]byte, []byte, error) {
	colorsJSON, err := json.Marshal(colors)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal colors: %w", err)
	}
	fontsJSON, err := json.Marshal(fonts)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal fonts: %w", err)
	}
	return colorsJSON, fontsJSON, nil
}

package branding

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/plinth-cms/plinth/internal/apierr"
	"github.com/plinth-cms/plinth/internal/models"
)

// CreateTemplate validates req and stores a new template for the agency.
func (s *Service) CreateTemplate(ctx context.Context, agencyID uuid.UUID, req *TemplateRequest) (*models.AgencyBrandTemplate, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	t := models.NewAgencyBrandTemplate(agencyID, req.Name)
	req.ApplyTo(t)
	if err := s.templates.CreateBrandTemplate(ctx, t); err != nil {
		return nil, fmt.Errorf("create brand template: %w", err)
	}

	s.logger.Info().
		Str("agency_id", agencyID.String()).
		Str("template_id", t.ID.String()).
		Msg("brand template created")
	return t, nil
}

// ListTemplates returns the agency's templates.
func (s *Service) ListTemplates(ctx context.Context, agencyID uuid.UUID) ([]*models.AgencyBrandTemplate, error) {
	templates, err := s.templates.ListBrandTemplates(ctx, agencyID)
	if err != nil {
		return nil, fmt.Errorf("list brand templates: %w", err)
	}
	if templates == nil {
		templates = []*models.AgencyBrandTemplate{}
	}
	return templates, nil
}

// Template returns a template owned by agencyID. Templates of other agencies
// are reported as not found.
func (s *Service) Template(ctx context.Context, agencyID, templateID uuid.UUID) (*models.AgencyBrandTemplate, error) {
	t, err := s.templates.GetBrandTemplate(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("get brand template: %w", err)
	}
	if t == nil || t.AgencyID != agencyID {
		return nil, apierr.NotFound("brand template")
	}
	return t, nil
}

// UpdateTemplate validates req and replaces the template's fields.
func (s *Service) UpdateTemplate(ctx context.Context, agencyID, templateID uuid.UUID, req *TemplateRequest) (*models.AgencyBrandTemplate, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	t, err := s.Template(ctx, agencyID, templateID)
	if err != nil {
		return nil, err
	}

	req.ApplyTo(t)
	t.UpdatedAt = time.Now()
	if err := s.templates.UpdateBrandTemplate(ctx, t); err != nil {
		return nil, fmt.Errorf("update brand template: %w", err)
	}
	return t, nil
}

// DeleteTemplate removes a template. Websites it was applied to keep their copy.
func (s *Service) DeleteTemplate(ctx context.Context, agencyID, templateID uuid.UUID) error {
	if _, err := s.Template(ctx, agencyID, templateID); err != nil {
		return err
	}
	if err := s.templates.DeleteBrandTemplate(ctx, templateID); err != nil {
		return fmt.Errorf("delete brand template: %w", err)
	}
	return nil
}

// ApplyTemplate copies a template's fields into the website's brand configuration.
func (s *Service) ApplyTemplate(ctx context.Context, websiteID, templateID uuid.UUID) (*models.BrandConfiguration, error) {
	t, err := s.templates.GetBrandTemplate(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("get brand template: %w", err)
	}
	if t == nil {
		return nil, apierr.NotFound("brand template")
	}

	cfg, err := s.BrandConfiguration(ctx, websiteID)
	if err != nil {
		return nil, err
	}

	t.ApplyTo(cfg)
	if err := s.store.UpsertBrandConfiguration(ctx, cfg); err != nil {
		return nil, fmt.Errorf("apply brand template: %w", err)
	}

	s.logger.Info().
		Str("website_id", websiteID.String()).
		Str("template_id", templateID.String()).
		Msg("brand template applied")
	s.notify(ctx, websiteID)
	return cfg, nil
}

package branding

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/plinth-cms/plinth/internal/apierr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplates_CreateAndApply(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store)
	agencyID := uuid.New()
	websiteID := uuid.New()

	tmpl, err := svc.CreateTemplate(context.Background(), agencyID, &TemplateRequest{
		Name:      "  Agency Dark  ",
		Colors:    ColorsPatch{Primary: strPtr("#101010"), Background: strPtr("#000000")},
		Fonts:     FontsPatch{Body: strPtr("Roboto, sans-serif")},
		CustomCSS: ".agency{}",
	})
	require.NoError(t, err)
	assert.Equal(t, "Agency Dark", tmpl.Name)
	assert.Equal(t, "#101010", tmpl.Colors.Primary)

	var notified int
	svc.OnChange(ChangeListenerFunc(func(context.Context, uuid.UUID) { notified++ }))

	cfg, err := svc.ApplyTemplate(context.Background(), websiteID, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "#101010", cfg.Colors.Primary)
	assert.Equal(t, "#000000", cfg.Colors.Background)
	assert.Equal(t, "Roboto, sans-serif", cfg.Fonts.Body)
	assert.Equal(t, ".agency{}", cfg.CustomCSS)
	assert.Equal(t, 1, notified)

	// Later template edits do not flow into the website.
	_, err = svc.UpdateTemplate(context.Background(), agencyID, tmpl.ID, &TemplateRequest{
		Name:   "Agency Dark",
		Colors: ColorsPatch{Primary: strPtr("#FFFFFF")},
	})
	require.NoError(t, err)
	assert.Equal(t, "#101010", store.brand[websiteID].Colors.Primary)
}

func TestTemplates_Validation(t *testing.T) {
	svc := newTestService(newMockStore())

	_, err := svc.CreateTemplate(context.Background(), uuid.New(), &TemplateRequest{Name: "   "})
	var verr *apierr.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, apierr.CodeValidation, verr.Code)

	_, err = svc.CreateTemplate(context.Background(), uuid.New(), &TemplateRequest{
		Name:   "Bad",
		Colors: ColorsPatch{Primary: strPtr("blue")},
	})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, apierr.CodeInvalidColorCode, verr.Code)
}

func TestTemplates_OwnershipAndDelete(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store)
	agencyID := uuid.New()

	tmpl, err := svc.CreateTemplate(context.Background(), agencyID, &TemplateRequest{Name: "Mine"})
	require.NoError(t, err)

	_, err = svc.Template(context.Background(), uuid.New(), tmpl.ID)
	assert.ErrorIs(t, err, apierr.ErrNotFound)

	list, err := svc.ListTemplates(context.Background(), agencyID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.DeleteTemplate(context.Background(), agencyID, tmpl.ID))
	list, err = svc.ListTemplates(context.Background(), agencyID)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list)

	_, err = svc.ApplyTemplate(context.Background(), uuid.New(), tmpl.ID)
	assert.ErrorIs(t, err, apierr.ErrNotFound)
}

package catalog

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/studiousvault/core"
)

var (
	// errors
	ErrNotFound       = errors.New("subject not found")
	ErrMaterialExists = errors.New("a material with this id already exists")
	ErrInvalidType    = errors.New("invalid material type")

	maxIDAttempts = 3

	newID   = uuid.NewString // mockable
	nowFunc = time.Now       // mockable
)

type (
	Repository interface {
		// QueryAllSubjects returns the subjects in insertion order.
		QueryAllSubjects(ctx context.Context) ([]Subject, error)
		GetSubjectByID(ctx context.Context, id string) (Subject, error)
		// QueryMaterials returns the subject's materials of the given type in insertion order.
		// Returns ErrNotFound if the subject does not exist.
		QueryMaterials(ctx context.Context, subjectID, typ string) ([]Material, error)
		// AppendMaterial adds m to the subject. Returns ErrMaterialExists if m.ID was already issued.
		AppendMaterial(ctx context.Context, subjectID string, m Material) (Material, error)
	}

	// Service is the Catalog Service. Subjects are fixed; materials are append-only.
	Service interface {
		ListSubjects(ctx context.Context) ([]Subject, error)
		GetSubject(ctx context.Context, id string) (Subject, error)
		ListMaterialsByType(ctx context.Context, subjectID, typ string) ([]Material, error)
		AddMaterial(ctx context.Context, subjectID string, nm NewMaterial) (Material, error)
	}

	service struct {
		repo     Repository
		logger   core.Logger
		validate *validator.Validate
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, logger core.Logger, validate *validator.Validate) Service {
	return &service{repo: repo, logger: logger, validate: validate}
}

func (svc *service) ListSubjects(ctx context.Context) ([]Subject, error) {
	return svc.repo.QueryAllSubjects(ctx)
}

func (svc *service) GetSubject(ctx context.Context, id string) (Subject, error) {
	return svc.repo.GetSubjectByID(ctx, core.CleanString(id))
}

func (svc *service) ListMaterialsByType(ctx context.Context, subjectID, typ string) ([]Material, error) {
	typ = core.CleanString(typ, true /* lower */)
	if !IsValidType(typ) {
		return nil, core.NewValidationError(ErrInvalidType, core.FieldError{Field: "type", Error: materialTypeText})
	}
	return svc.repo.QueryMaterials(ctx, core.CleanString(subjectID), typ)
}

func (svc *service) AddMaterial(ctx context.Context, subjectID string, nm NewMaterial) (Material, error) {
	if err := nm.Validate(svc.validate); err != nil {
		return Material{}, err
	}

	uploadedAt := nm.UploadedAt
	if uploadedAt.IsZero() {
		uploadedAt = nowFunc()
	}
	m := Material{
		Title:       nm.Title,
		Description: nm.Description,
		Type:        nm.Type,
		URL:         nm.URL,
		UploadedAt:  uploadedAt.UTC(),
		UploadedBy:  nm.UploadedBy,
	}

	subjectID = core.CleanString(subjectID)
	for attempt := 1; ; attempt++ {
		m.ID = newID()
		created, err := svc.repo.AppendMaterial(ctx, subjectID, m)
		if err == nil {
			svc.logger.Info("material added", map[string]interface{}{"subject": subjectID, "id": created.ID, "type": created.Type})
			return created, nil
		}
		if errors.Cause(err) != ErrMaterialExists || attempt >= maxIDAttempts {
			return Material{}, errors.Wrap(err, "appending material")
		}
	}
}

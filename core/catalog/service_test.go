package catalog_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trezcool/studiousvault/core"
	"github.com/trezcool/studiousvault/core/catalog"
	logsvc "github.com/trezcool/studiousvault/services/logger"
	inmemdb "github.com/trezcool/studiousvault/storage/database/inmem"
)

func setup(t *testing.T) (catalog.Service, catalog.Repository) {
	t.Helper()
	db, err := inmemdb.Open()
	require.NoError(t, err)
	repo := inmemdb.NewCatalogRepository(db)

	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	catalog.InitValidators(validate, translator)

	logger := logsvc.NewRollbarLogger(zap.NewNop(), &core.Config{})
	logger.Enable(false)
	return catalog.NewService(repo, logger, validate), repo
}

func ids(materials []catalog.Material) []string {
	out := make([]string, 0, len(materials))
	for _, m := range materials {
		out = append(out, m.ID)
	}
	return out
}

func TestService_ListSubjects(t *testing.T) {
	svc, _ := setup(t)
	subjects, err := svc.ListSubjects(context.Background())
	require.NoError(t, err)

	codes := make([]string, 0, len(subjects))
	for _, s := range subjects {
		codes = append(codes, s.Code)
	}
	assert.Equal(t, []string{"MATH101", "PHYS101", "CS101", "CHEM101", "ED101", "ENG101"}, codes)
	assert.Len(t, subjects[0].Materials, 3)
	assert.Empty(t, subjects[5].Materials)
}

func TestService_GetSubject(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	subj, err := svc.GetSubject(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, "Computer Science", subj.Name)
	assert.Equal(t, "Introduction to Programming and Data Structures", subj.Description)
	assert.Equal(t, []string{"7", "8", "9"}, ids(subj.Materials))
	assert.Equal(t, time.Date(2023, 3, 20, 10, 45, 0, 0, time.UTC), subj.Materials[0].UploadedAt)

	_, err = svc.GetSubject(ctx, "42")
	assert.Equal(t, catalog.ErrNotFound, errors.Cause(err))
}

func TestService_ListMaterialsByType(t *testing.T) {
	svc, _ := setup(t)

	tests := []struct {
		name      string
		subjectID string
		typ       string
		want      []string
		wantErr   error
	}{
		{name: "pdf", subjectID: "1", typ: catalog.TypePDF, want: []string{"2"}},
		{name: "assignment", subjectID: "2", typ: catalog.TypeAssignment, want: []string{"4"}},
		{name: "youtube", subjectID: "3", typ: catalog.TypeYoutube, want: []string{"9"}},
		{name: "case insensitive type", subjectID: "3", typ: " PDF ", want: []string{"8"}},
		{name: "no match", subjectID: "1", typ: catalog.TypeOther, want: []string{}},
		{name: "subject without materials", subjectID: "6", typ: catalog.TypePDF, want: []string{}},
		{name: "unknown subject", subjectID: "42", typ: catalog.TypePDF, wantErr: catalog.ErrNotFound},
		{name: "unknown type", subjectID: "1", typ: "podcast", wantErr: catalog.ErrInvalidType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ListMaterialsByType(context.Background(), tt.subjectID, tt.typ)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestService_ListMaterialsByType_insertionOrder(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	var want []string
	for _, title := range []string{"B", "A", "C"} {
		m, err := svc.AddMaterial(ctx, "4", catalog.NewMaterial{
			Title: title, Type: catalog.TypePDF, URL: "/assets/" + title + ".pdf", UploadedBy: "Admin User",
		})
		require.NoError(t, err)
		want = append(want, m.ID)
	}
	_, err := svc.AddMaterial(ctx, "4", catalog.NewMaterial{
		Title: "Video", Type: catalog.TypeYoutube, URL: "https://youtu.be/x", UploadedBy: "Admin User",
	})
	require.NoError(t, err)

	got, err := svc.ListMaterialsByType(ctx, "4", catalog.TypePDF)
	require.NoError(t, err)
	assert.Equal(t, want, ids(got))
	for _, m := range got {
		assert.Equal(t, catalog.TypePDF, m.Type)
	}
}

func TestService_AddMaterial(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	uploadedAt := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("CAT", 2*60*60))

	tests := []struct {
		name       string
		subjectID  string
		nm         catalog.NewMaterial
		wantErr    error
		wantFields []string
	}{
		{
			name: "assignment", subjectID: "1",
			nm: catalog.NewMaterial{Title: " Integrals ", Type: "assignment", URL: "/assets/integrals.pdf", UploadedBy: "Admin User", UploadedAt: uploadedAt},
		},
		{
			name: "youtube", subjectID: "5",
			nm: catalog.NewMaterial{Title: "Drawing 101", Description: "Intro", Type: "youtube", URL: "https://www.youtube.com/watch?v=1", UploadedBy: "Admin User"},
		},
		{
			name: "unknown subject", subjectID: "42",
			nm:      catalog.NewMaterial{Title: "T", Type: "pdf", URL: "/a.pdf", UploadedBy: "Admin User"},
			wantErr: catalog.ErrNotFound,
		},
		{name: "missing fields", subjectID: "1", wantFields: []string{"title", "type", "url", "uploaded_by"}},
		{
			name: "invalid type & url", subjectID: "1",
			nm:         catalog.NewMaterial{Title: "T", Type: "podcast", URL: "javascript:alert(1)", UploadedBy: "Admin User"},
			wantFields: []string{"type", "url"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, err := svc.GetSubject(ctx, tt.subjectID)
			if err != nil {
				before = catalog.Subject{}
			}

			m, err := svc.AddMaterial(ctx, tt.subjectID, tt.nm)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, errors.Cause(err))
				return
			}
			if tt.wantFields != nil {
				var vErrs validator.ValidationErrors
				require.True(t, errors.As(err, &vErrs))
				fields := make([]string, 0, len(vErrs))
				for _, e := range vErrs {
					fields = append(fields, e.Field())
				}
				assert.ElementsMatch(t, tt.wantFields, fields)
				after, _ := svc.GetSubject(ctx, tt.subjectID)
				assert.Equal(t, len(before.Materials), len(after.Materials))
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, m.ID)
			assert.Equal(t, time.UTC, m.UploadedAt.Location())
			if !tt.nm.UploadedAt.IsZero() {
				assert.True(t, tt.nm.UploadedAt.Equal(m.UploadedAt))
			} else {
				assert.WithinDuration(t, time.Now(), m.UploadedAt, time.Minute)
			}

			after, err := svc.GetSubject(ctx, tt.subjectID)
			require.NoError(t, err)
			require.Len(t, after.Materials, len(before.Materials)+1)
			assert.Equal(t, m, after.Materials[len(after.Materials)-1])
		})
	}
}

func TestService_AddMaterial_uniqueIDs(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	issued := map[string]bool{"1": true, "2": true, "3": true, "4": true, "5": true, "6": true, "7": true, "8": true, "9": true}
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := svc.AddMaterial(ctx, "2", catalog.NewMaterial{
				Title: "T", Type: catalog.TypeOther, URL: "/x", UploadedBy: "Admin User",
			})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			assert.False(t, issued[m.ID], "id %s issued twice", m.ID)
			issued[m.ID] = true
		}()
	}
	wg.Wait()

	others, err := svc.ListMaterialsByType(ctx, "2", catalog.TypeOther)
	require.NoError(t, err)
	assert.Len(t, others, 50)
}

func TestService_returnsCopies(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	subj, err := svc.GetSubject(ctx, "1")
	require.NoError(t, err)
	subj.Materials[0].Title = "tampered"
	subj.Materials = append(subj.Materials, catalog.Material{ID: "x"})

	fresh, err := svc.GetSubject(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Calculus Assignment 1", fresh.Materials[0].Title)
	assert.Len(t, fresh.Materials, 3)
}

func TestService_AddMaterial_idCollision(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	gen := []string{"1", "1", "fresh"} // "1" is a seeded material id
	restore := catalog.SetNewID(func() string {
		id := gen[0]
		gen = gen[1:]
		return id
	})
	defer restore()

	m, err := svc.AddMaterial(ctx, "1", catalog.NewMaterial{Title: "T", Type: "pdf", URL: "/t.pdf", UploadedBy: "Admin User"})
	require.NoError(t, err)
	assert.Equal(t, "fresh", m.ID, "colliding ids are regenerated")

	restore2 := catalog.SetNewID(func() string { return "1" })
	defer restore2()
	_, err = svc.AddMaterial(ctx, "1", catalog.NewMaterial{Title: "T", Type: "pdf", URL: "/t.pdf", UploadedBy: "Admin User"})
	assert.Equal(t, catalog.ErrMaterialExists, errors.Cause(err))
}

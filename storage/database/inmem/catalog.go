package inmemdb

import (
	"context"

	"github.com/trezcool/studiousvault/core/catalog"
)

type catalogRepository struct {
	db *catalogTable
}

var _ catalog.Repository = (*catalogRepository)(nil) // interface compliance check

func NewCatalogRepository(db *DB) catalog.Repository {
	return &catalogRepository{db: db.catalog}
}

// copySubject detaches the subject from the table so callers cannot mutate stored materials.
func copySubject(s *catalog.Subject) catalog.Subject {
	subj := *s
	subj.Materials = make([]catalog.Material, len(s.Materials))
	copy(subj.Materials, s.Materials)
	return subj
}

func (repo *catalogRepository) QueryAllSubjects(_ context.Context) ([]catalog.Subject, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	subjects := make([]catalog.Subject, 0, len(repo.db.subjects))
	for _, s := range repo.db.subjects {
		subjects = append(subjects, copySubject(s))
	}
	return subjects, nil
}

func (repo *catalogRepository) GetSubjectByID(_ context.Context, id string) (catalog.Subject, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	i, ok := repo.db.index[id]
	if !ok {
		return catalog.Subject{}, catalog.ErrNotFound
	}
	return copySubject(repo.db.subjects[i]), nil
}

func (repo *catalogRepository) QueryMaterials(_ context.Context, subjectID, typ string) ([]catalog.Material, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	i, ok := repo.db.index[subjectID]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	materials := make([]catalog.Material, 0)
	for _, m := range repo.db.subjects[i].Materials {
		if m.Type == typ {
			materials = append(materials, m)
		}
	}
	return materials, nil
}

func (repo *catalogRepository) AppendMaterial(_ context.Context, subjectID string, m catalog.Material) (catalog.Material, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	i, ok := repo.db.index[subjectID]
	if !ok {
		return catalog.Material{}, catalog.ErrNotFound
	}
	if _, ok = repo.db.materialIDs[m.ID]; ok {
		return catalog.Material{}, catalog.ErrMaterialExists
	}
	repo.db.materialIDs[m.ID] = struct{}{}
	repo.db.subjects[i].Materials = append(repo.db.subjects[i].Materials, m)
	return m, nil
}

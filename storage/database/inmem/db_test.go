package inmemdb

import (
	"context"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/studiousvault/core/catalog"
	"github.com/trezcool/studiousvault/core/user"
)

func TestOpen_seeds(t *testing.T) {
	db, err := Open()
	require.NoError(t, err)
	ctx := context.Background()

	users, err := NewUserRepository(db).QueryAllUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []user.User{
		{ID: "1", Name: "John Doe", Role: user.RoleStudent, RegNumber: "RA2211028010236"},
		{ID: "2", Name: "Admin User", Role: user.RoleAdmin},
	}, users)

	subjects, err := NewCatalogRepository(db).QueryAllSubjects(ctx)
	require.NoError(t, err)
	require.Len(t, subjects, 6)
	var n int
	for _, s := range subjects {
		n += len(s.Materials)
	}
	assert.Equal(t, 9, n)
	assert.Equal(t, "Prof. Williams", subjects[2].Materials[1].UploadedBy)
}

func TestDB_Seed_rejectsDuplicates(t *testing.T) {
	tests := []struct {
		name    string
		roster  string
		catalog string
	}{
		{
			name:    "duplicate reg number",
			roster:  "- {id: '1', name: A, role: student, reg_number: RA1}\n- {id: '2', name: B, role: student, reg_number: RA1}\n",
			catalog: "[]",
		},
		{
			name:    "duplicate subject",
			roster:  "[]",
			catalog: "- {id: '1', name: A, code: A1}\n- {id: '1', name: B, code: B1}\n",
		},
		{
			name:    "duplicate material",
			roster:  "[]",
			catalog: "- {id: '1', name: A, code: A1, materials: [{id: m, type: pdf}]}\n- {id: '2', name: B, code: B1, materials: [{id: m, type: pdf}]}\n",
		},
		{name: "invalid yaml", roster: "{", catalog: "[]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := fstest.MapFS{
				"fixtures/roster.yaml":  {Data: []byte(tt.roster)},
				"fixtures/catalog.yaml": {Data: []byte(tt.catalog)},
			}
			assert.Error(t, New().Seed(fsys, "fixtures"))
		})
	}
}

func TestUserRepository_CreateUser(t *testing.T) {
	db, err := Open()
	require.NoError(t, err)
	repo := NewUserRepository(db)
	ctx := context.Background()

	tests := []struct {
		name    string
		usr     user.User
		wantErr error
	}{
		{name: "new student", usr: user.User{ID: "a", Name: "Jane", Role: user.RoleStudent, RegNumber: "RA0000000000000000"}},
		{name: "new admin", usr: user.User{ID: "b", Name: "Root", Role: user.RoleAdmin}},
		{name: "same name as a student is fine for a student", usr: user.User{ID: "c", Name: "John Doe", Role: user.RoleStudent, RegNumber: "RA1111111111111111"}},
		{name: "duplicate id", usr: user.User{ID: "1", Name: "X", Role: user.RoleAdmin}, wantErr: user.ErrUserExists},
		{name: "duplicate reg number", usr: user.User{ID: "d", Name: "X", Role: user.RoleStudent, RegNumber: "RA2211028010236"}, wantErr: user.ErrUserExists},
		{name: "admin named like any identity", usr: user.User{ID: "e", Name: "John Doe", Role: user.RoleAdmin}, wantErr: user.ErrUserExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, repo.CheckUniqueness(ctx, tt.usr))
			_, err := repo.CreateUser(ctx, tt.usr)
			assert.Equal(t, tt.wantErr, err)
		})
	}

	users, err := repo.QueryAllUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 5)
	assert.Equal(t, "c", users[4].ID, "insertion order")
}

func TestUserRepository_lookups(t *testing.T) {
	db, err := Open()
	require.NoError(t, err)
	repo := NewUserRepository(db)
	ctx := context.Background()

	usr, err := repo.GetStudentByRegNumber(ctx, "RA2211028010236")
	require.NoError(t, err)
	assert.Equal(t, "1", usr.ID)

	_, err = repo.GetAdminByName(ctx, "John Doe")
	assert.Equal(t, user.ErrNotFound, err, "students are not admins")

	usr, err = repo.GetAdminByName(ctx, "Admin User")
	require.NoError(t, err)
	assert.Equal(t, "2", usr.ID)

	_, err = repo.GetAdminByName(ctx, "admin user")
	assert.Equal(t, user.ErrNotFound, err, "exact match")

	_, err = repo.GetUserByID(ctx, "42")
	assert.Equal(t, user.ErrNotFound, err)
}

func TestUserRepository_concurrentCreate(t *testing.T) {
	repo := NewUserRepository(New())
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var created int
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			usr := user.User{ID: string(rune('a' + i)), Name: "S", Role: user.RoleStudent, RegNumber: "RA0000000000000000"}
			if _, err := repo.CreateUser(ctx, usr); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, created)
}

func TestCatalogRepository_AppendMaterial(t *testing.T) {
	db, err := Open()
	require.NoError(t, err)
	repo := NewCatalogRepository(db)
	ctx := context.Background()

	_, err = repo.AppendMaterial(ctx, "42", catalog.Material{ID: "new"})
	assert.Equal(t, catalog.ErrNotFound, err)

	_, err = repo.AppendMaterial(ctx, "4", catalog.Material{ID: "5"})
	assert.Equal(t, catalog.ErrMaterialExists, err, "ids are unique across subjects")

	m, err := repo.AppendMaterial(ctx, "4", catalog.Material{ID: "new", Type: catalog.TypePDF})
	require.NoError(t, err)
	assert.Equal(t, "new", m.ID)

	pdfs, err := repo.QueryMaterials(ctx, "4", catalog.TypePDF)
	require.NoError(t, err)
	assert.Equal(t, []catalog.Material{m}, pdfs)

	_, err = repo.QueryMaterials(ctx, "42", catalog.TypePDF)
	assert.Equal(t, catalog.ErrNotFound, err)
}

package inmemdb

import (
	"io/fs"
	"path"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/studiousvault/core/catalog"
	"github.com/trezcool/studiousvault/core/user"
	appfs "github.com/trezcool/studiousvault/fs"
)

const (
	seedDir     = "seed"
	rosterFile  = "roster.yaml"
	catalogFile = "catalog.yaml"
)

type (
	// DB owns the roster and the catalog. Both live for the process lifetime only.
	DB struct {
		user    *userTable
		catalog *catalogTable
	}

	userTable struct {
		mutex sync.RWMutex
		rows  []*user.User // insertion order
	}

	catalogTable struct {
		mutex       sync.RWMutex
		subjects    []*catalog.Subject // insertion order
		index       map[string]int     // subject ID -> position
		materialIDs map[string]struct{}
	}
)

// New returns an empty DB.
func New() *DB {
	return &DB{
		user: &userTable{},
		catalog: &catalogTable{
			index:       make(map[string]int),
			materialIDs: make(map[string]struct{}),
		},
	}
}

// Open returns a DB seeded with the embedded fixtures.
func Open() (*DB, error) {
	db := New()
	if err := db.Seed(appfs.FS, seedDir); err != nil {
		return nil, err
	}
	return db, nil
}

// Seed loads the roster and catalog fixtures found in dir.
func (db *DB) Seed(fsys fs.FS, dir string) error {
	var users []user.User
	if err := decodeYAML(fsys, path.Join(dir, rosterFile), &users); err != nil {
		return err
	}
	var subjects []catalog.Subject
	if err := decodeYAML(fsys, path.Join(dir, catalogFile), &subjects); err != nil {
		return err
	}

	db.user.mutex.Lock()
	for i := range users {
		usr := users[i]
		if db.user.conflicts(usr) {
			db.user.mutex.Unlock()
			return errors.Wrapf(user.ErrUserExists, "seeding user %q", usr.ID)
		}
		db.user.rows = append(db.user.rows, &usr)
	}
	db.user.mutex.Unlock()

	db.catalog.mutex.Lock()
	defer db.catalog.mutex.Unlock()
	for i := range subjects {
		subj := subjects[i]
		if _, ok := db.catalog.index[subj.ID]; ok {
			return errors.Errorf("seeding subject %q: duplicate id", subj.ID)
		}
		materials := make([]catalog.Material, 0, len(subj.Materials))
		for _, m := range subj.Materials {
			if _, ok := db.catalog.materialIDs[m.ID]; ok {
				return errors.Wrapf(catalog.ErrMaterialExists, "seeding material %q", m.ID)
			}
			db.catalog.materialIDs[m.ID] = struct{}{}
			m.UploadedAt = m.UploadedAt.UTC()
			materials = append(materials, m)
		}
		subj.Materials = materials
		db.catalog.index[subj.ID] = len(db.catalog.subjects)
		db.catalog.subjects = append(db.catalog.subjects, &subj)
	}
	return nil
}

func decodeYAML(fsys fs.FS, name string, v interface{}) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return errors.Wrapf(err, "reading %s", name)
	}
	if err = yaml.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "decoding %s", name)
	}
	return nil
}

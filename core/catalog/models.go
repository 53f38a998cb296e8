package catalog

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/studiousvault/core"
)

// Material types
const (
	TypeAssignment = "assignment"
	TypePDF        = "pdf"
	TypeYoutube    = "youtube"
	TypeOther      = "other"
)

var (
	AllTypes = []string{TypeAssignment, TypePDF, TypeYoutube, TypeOther}

	// Tabs are the material types browsable (and uploadable) from the subject view, in order.
	Tabs = []Tab{
		{Name: "Assignments", Value: TypeAssignment},
		{Name: "PDFs", Value: TypePDF},
		{Name: "YouTube", Value: TypeYoutube},
	}
)

func IsValidType(typ string) bool {
	for _, t := range AllTypes {
		if typ == t {
			return true
		}
	}
	return false
}

type Tab struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Subject struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Code        string     `json:"code" yaml:"code"`
	Description string     `json:"description" yaml:"description"`
	Materials   []Material `json:"materials" yaml:"materials"`
}

// CountByType returns how many of the subject's materials have the given type.
func (s Subject) CountByType(typ string) int {
	var n int
	for _, m := range s.Materials {
		if m.Type == typ {
			n++
		}
	}
	return n
}

type Material struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	Type        string    `json:"type" yaml:"type"`
	URL         string    `json:"url" yaml:"url"`
	UploadedAt  time.Time `json:"uploaded_at" yaml:"uploaded_at"` // UTC
	UploadedBy  string    `json:"uploaded_by" yaml:"uploaded_by"`
}

// NewMaterial contains information needed to upload a Material.
type NewMaterial struct {
	Title       string    `json:"title" form:"title" validate:"required,notblank_"`
	Description string    `json:"description" form:"description"`
	Type        string    `json:"type" form:"type" validate:"required,materialtype"`
	URL         string    `json:"url" form:"url" validate:"required,link"`
	UploadedAt  time.Time `json:"uploaded_at" form:"-"` // defaults to now
	UploadedBy  string    `json:"uploaded_by" form:"-" validate:"required,notblank_"`
}

func (nm *NewMaterial) Validate(validate *validator.Validate) error {
	nm.Title = core.CleanString(nm.Title)
	nm.Description = core.CleanString(nm.Description)
	nm.Type = core.CleanString(nm.Type, true /* lower */)
	nm.URL = core.CleanString(nm.URL)
	nm.UploadedBy = core.CleanString(nm.UploadedBy)
	return validate.Struct(nm)
}

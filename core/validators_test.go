package core

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type linkForm struct {
	URL  string `json:"url" validate:"required,link"`
	Name string `json:"name" validate:"notblank_"`
}

func TestInitValidators(t *testing.T) {
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	InitValidators(validate, translator)

	tests := []struct {
		name    string
		form    linkForm
		wantErr map[string]string
	}{
		{name: "https url", form: linkForm{URL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", Name: "n"}},
		{name: "rooted path", form: linkForm{URL: "/assets/limits_notes.pdf", Name: "n"}},
		{name: "missing url", form: linkForm{Name: "n"}, wantErr: map[string]string{"url": requiredText}},
		{name: "scheme-relative", form: linkForm{URL: "//evil.example", Name: "n"}, wantErr: map[string]string{"url": linkText}},
		{name: "javascript", form: linkForm{URL: "javascript:alert(1)", Name: "n"}, wantErr: map[string]string{"url": linkText}},
		{name: "ftp", form: linkForm{URL: "ftp://files.example/x.pdf", Name: "n"}, wantErr: map[string]string{"url": linkText}},
		{name: "blank name", form: linkForm{URL: "/x", Name: "  "}, wantErr: map[string]string{"name": notBlankText}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(tt.form)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			vErrs, ok := err.(validator.ValidationErrors)
			require.True(t, ok)

			got := make(map[string]string)
			for _, f := range TranslateFieldErrors(vErrs, translator) {
				got[f.Field] = f.Error
			}
			assert.Equal(t, tt.wantErr, got)
		})
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError(nil, FieldError{Field: "reg_number", Error: "bad"})
	assert.Equal(t, "bad", err.Error())

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, map[string]string{"reg_number": "bad"}, vErr.FieldMap())

	assert.True(t, IsShutdown(NewShutdownError("bye")))
	assert.False(t, IsShutdown(err))
}

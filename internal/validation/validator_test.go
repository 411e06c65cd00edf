package validation_test

import (
	"strings"
	"testing"

	domainerrors "github.com/quillbook/quillbook-server/internal/errors"
	"github.com/quillbook/quillbook-server/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupRequest struct {
	Email  string `json:"email" validate:"required,email"`
	Name   string `json:"name" validate:"notblank,max=100"`
	Reason string `json:"reason,omitempty" validate:"max=500"`
}

type nested struct {
	Title string  `json:"title" validate:"notblank"`
	Book  *series `json:"book"`
}

type series struct {
	Number int `json:"series_number" validate:"gte=0,lte=12"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	err := v.Validate(signupRequest{Email: "a@gmail.com", Name: "Ada"})
	assert.NoError(t, err)
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       signupRequest
		wantField string
	}{
		{"missing email", signupRequest{Name: "Ada"}, "email"},
		{"invalid email", signupRequest{Email: "not-an-email", Name: "Ada"}, "email"},
		{"blank name", signupRequest{Email: "a@gmail.com", Name: "   "}, "name"},
		{"reason too long", signupRequest{Email: "a@gmail.com", Name: "Ada", Reason: strings.Repeat("x", 501)}, "reason"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)
			assert.Contains(t, domainErr.Message, tt.wantField)

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Contains(t, details, tt.wantField)
		})
	}
}

func TestValidator_NestedFieldPath(t *testing.T) {
	v := validation.New()

	err := v.Validate(nested{Title: "Book", Book: &series{Number: 13}})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	details := domainErr.Details.(map[string]string)
	assert.Equal(t, "must be less than or equal to 12", details["book.series_number"])
}

func TestValidator_JSONFieldNames(t *testing.T) {
	v := validation.New()

	err := v.Validate(signupRequest{Name: "Ada"})
	require.Error(t, err)

	assert.Contains(t, err.Error(), "email")
	assert.NotContains(t, err.Error(), "Email")
}

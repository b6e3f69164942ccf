package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStruct(t *testing.T) {
	type request struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
		Rating   int    `json:"rating" validate:"min=0,max=5"`
		Role     string `json:"role" validate:"omitempty,oneof=admin hr assessor employee"`
	}

	tests := []struct {
		name   string
		input  request
		fields []string
	}{
		{
			name:  "valid",
			input: request{Email: "test@example.com", Password: "password123", Rating: 3, Role: "hr"},
		},
		{
			name:   "missing email",
			input:  request{Password: "password123"},
			fields: []string{"email"},
		},
		{
			name:   "invalid email and short password",
			input:  request{Email: "invalid-email", Password: "short"},
			fields: []string{"email", "password"},
		},
		{
			name:   "rating out of range",
			input:  request{Email: "test@example.com", Password: "password123", Rating: 6},
			fields: []string{"rating"},
		},
		{
			name:   "unknown role",
			input:  request{Email: "test@example.com", Password: "password123", Role: "owner"},
			fields: []string{"role"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.input)
			if len(tt.fields) == 0 {
				assert.NoError(t, err)
				return
			}

			var fe FieldErrors
			require.ErrorAs(t, err, &fe)
			for _, f := range tt.fields {
				assert.Contains(t, fe, f)
			}
			assert.Len(t, fe, len(tt.fields))
		})
	}
}

func TestFieldErrorsMessage(t *testing.T) {
	type request struct {
		Password string `json:"password" validate:"min=8"`
		Name     string `json:"name" validate:"required"`
	}

	err := ValidateStruct(request{Password: "abc"})
	require.Error(t, err)
	assert.Equal(t, "name is required; password must be at least 8 characters", err.Error())
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email    string
		expected bool
	}{
		{"test@example.com", true},
		{"user.name@example.co.uk", true},
		{"invalid-email", false},
		{"@example.com", false},
		{"user@", false},
		{"", false},
		{"user@example", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateEmail(tt.email) == nil)
		})
	}
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("password123"))
	assert.Error(t, ValidatePassword(""))
	assert.Error(t, ValidatePassword("short"))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "hello", SanitizeString("  hel\x00lo \n"))
	assert.Equal(t, "jane@example.com", SanitizeEmail(" Jane@Example.COM "))
}

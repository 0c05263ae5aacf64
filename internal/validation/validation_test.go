package validation

import (
	"errors"
	"testing"

	"task-tracker/backend/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func TestFields_Valid(t *testing.T) {
	fields := Fields(signup{Name: "Ann", Email: "ann@x.com", Password: "secret1"})
	assert.Nil(t, fields)
}

func TestFields_PerFieldMessages(t *testing.T) {
	fields := Fields(signup{Name: "A", Email: "not-an-email", Password: "123"})

	require.Len(t, fields, 3)
	assert.Equal(t, "Name must be at least 2 characters", fields["name"])
	assert.Equal(t, "Please provide a valid email", fields["email"])
	assert.Equal(t, "Password must be at least 6 characters", fields["password"])
}

func TestFields_Required(t *testing.T) {
	fields := Fields(signup{Email: "a@b.com"})

	assert.Equal(t, "Name is required", fields["name"])
	assert.Equal(t, "Password is required", fields["password"])
	assert.NotContains(t, fields, "email")
}

func TestStruct_ReturnsValidationKind(t *testing.T) {
	err := Struct(signup{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, &apperr.Error{Kind: apperr.KindValidation}))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Due date", Label("dueDate"))
	assert.Equal(t, "Title", Label("title"))
	assert.Equal(t, "", Label(""))
}

func TestVar(t *testing.T) {
	msg, ok := Var("title", "", "required,max=100")
	assert.False(t, ok)
	assert.Equal(t, "Title is required", msg)

	msg, ok = Var("status", "archived", "oneof=pending completed")
	assert.False(t, ok)
	assert.Equal(t, "Status must be one of: pending completed", msg)

	_, ok = Var("title", "Buy milk", "required,max=100")
	assert.True(t, ok)
}

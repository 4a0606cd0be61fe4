package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Email string `validate:"required,email"`
	Name  string `validate:"required"`
}

func TestStruct_ReportsEveryField(t *testing.T) {
	err := Struct(&sample{Email: "nope"})
	assert.ErrorContains(t, err, "field 'Email' failed 'email'")
	assert.ErrorContains(t, err, "field 'Name' failed 'required'")
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(&sample{Email: "a@b.edu", Name: "a"}))
}

func TestEmail(t *testing.T) {
	assert.True(t, Email("student@northeastern.edu"))
	assert.False(t, Email("student"))
	assert.False(t, Email(""))
}

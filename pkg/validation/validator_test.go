package validation

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsStrongPassword(t *testing.T) {
	cases := map[string]bool{
		"Strong123": true,
		"Ab1def":    true,
		"Ab1de":     false,
		"strong123": false,
		"STRONG123": false,
		"StrongPwd": false,
		"":          false,
	}
	for pwd, want := range cases {
		assert.Equal(t, want, IsStrongPassword(pwd), pwd)
	}
}

func TestIsEmail(t *testing.T) {
	assert.True(t, IsEmail("a@x.com"))
	assert.False(t, IsEmail("not-an-email"))
	assert.False(t, IsEmail(""))
}

type signupForm struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,strongpwd"`
	ConfPassword string `json:"confPassword" validate:"required,eqfield=Password"`
}

func TestToDetails_ValidationErrors(t *testing.T) {
	v := validator.New()
	register(v)

	err := v.Struct(signupForm{Email: "bad", Password: "weak", ConfPassword: "other"})
	require.Error(t, err)

	details := ToDetails(err)
	assert.Equal(t, "must be a valid email", details["email"])
	assert.Contains(t, details["password"], "uppercase")
	assert.Equal(t, "must match password", details["confPassword"])
}

func TestToDetails_InvalidJSON(t *testing.T) {
	var out map[string]any
	err := json.Unmarshal([]byte("{bad"), &out)
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(err))
	assert.Nil(t, ToDetails(nil))
}

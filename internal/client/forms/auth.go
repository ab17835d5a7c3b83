package forms

import (
	"errors"
	"strings"
)

// Credentials are the values collected by the login and register forms.
type Credentials struct {
	Email    string
	Username string
	Password string
}

// NewLoginForm asks for email and password.
func NewLoginForm() Form {
	return NewForm("Login", []Field{
		{Label: "Email", Placeholder: "you@example.com"},
		{Label: "Password", Secret: true},
	}, requireAll)
}

// NewRegisterForm asks for email, username and password.
func NewRegisterForm() Form {
	return NewForm("Register", []Field{
		{Label: "Email", Placeholder: "you@example.com"},
		{Label: "Username", Placeholder: "3 to 32 characters"},
		{Label: "Password", Secret: true, Placeholder: "at least 6 characters"},
	}, requireAll)
}

func requireAll(values []string) error {
	for _, v := range values {
		if v == "" {
			return errors.New("All fields are required!")
		}
	}
	return nil
}

// LoginCredentials maps login form values.
func LoginCredentials(values []string) Credentials {
	return Credentials{Email: strings.ToLower(values[0]), Password: values[1]}
}

// RegisterCredentials maps register form values.
func RegisterCredentials(values []string) Credentials {
	return Credentials{Email: strings.ToLower(values[0]), Username: values[1], Password: values[2]}
}

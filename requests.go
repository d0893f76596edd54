package account

import (
	"errors"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const (
	msgNotBlank     = "This value should not be blank."
	msgInvalidEmail = "This value is not a valid email address."
	msgTooLong      = "This value is too long. It should have 255 characters or less."
	msgRepeat       = "This value should be equal to password field."
	msgAlreadyUsed  = "This value is already used."
	msgBadPassword  = "This value should be the user's current password."
)

// Payload field names, as seen by clients
const (
	FieldLogin          = "login"
	FieldUsername       = "username"
	FieldEmail          = "email"
	FieldPassword       = "password"
	FieldPlainPassword  = "plainPassword"
	FieldNewPassword    = "newPassword"
	FieldRepeatPassword = "repeatPassword"
	FieldRole           = "role"
)

// LoginRequest payload
type LoginRequest struct {
	Login      string `json:"login"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Login, validation.Required.Error(msgNotBlank)),
		validation.Field(&r.Password, validation.Required.Error(msgNotBlank)),
	)
	return fieldError(err, FieldLogin, FieldPassword)
}

// RegistrationRequest payload
type RegistrationRequest struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	RepeatPassword string `json:"repeatPassword"`
}

// Validate will run validation rules
func (r RegistrationRequest) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Username, usernameRules()...),
		validation.Field(&r.Email, emailRules()...),
		validation.Field(&r.Password, validation.Required.Error(msgNotBlank)),
		validation.Field(
			&r.RepeatPassword,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
	return fieldError(err, FieldUsername, FieldEmail, FieldPassword, FieldRepeatPassword)
}

// Erase clears the plaintext passwords
func (r *RegistrationRequest) Erase() {
	r.Password = ""
	r.RepeatPassword = ""
}

// CreateUserRequest is the operator side registration payload. An empty
// password is replaced by a random one.
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r CreateUserRequest) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Username, usernameRules()...),
		validation.Field(&r.Email, emailRules()...),
	)
	return fieldError(err, FieldUsername, FieldEmail)
}

// ProfileChangeRequest updates username and email. Empty values are left
// untouched. PlainPassword must prove the current password.
type ProfileChangeRequest struct {
	Username      string `json:"username"`
	Email         string `json:"email"`
	PlainPassword string `json:"plainPassword"`
}

// Validate will run validation rules
func (r ProfileChangeRequest) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Length(0, 255).Error(msgTooLong)),
		validation.Field(&r.Email, is.Email.Error(msgInvalidEmail)),
	)
	return fieldError(err, FieldUsername, FieldEmail)
}

// Erase clears the plaintext password
func (r *ProfileChangeRequest) Erase() {
	r.PlainPassword = ""
}

// PasswordChangeRequest payload
type PasswordChangeRequest struct {
	NewPassword    string `json:"newPassword"`
	RepeatPassword string `json:"repeatPassword"`
	PlainPassword  string `json:"plainPassword"`
}

// Validate will run validation rules. The current password proof is not
// part of form validation, it is checked by the workflow.
func (r PasswordChangeRequest) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.NewPassword, validation.Required.Error(msgNotBlank)),
		validation.Field(
			&r.RepeatPassword,
			validation.By(ValidateStringEquals(r.NewPassword)),
		),
	)
	return fieldError(err, FieldNewPassword, FieldRepeatPassword)
}

// Erase clears every plaintext password
func (r *PasswordChangeRequest) Erase() {
	r.NewPassword = ""
	r.RepeatPassword = ""
	r.PlainPassword = ""
}

// RoleRequest payload
type RoleRequest struct {
	Role string `json:"role"`
}

// Validate will run validation rules
func (r RoleRequest) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Role, validation.Required.Error(msgNotBlank)),
	)
	return fieldError(err, FieldRole)
}

func usernameRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error(msgNotBlank),
		validation.Length(1, 255).Error(msgTooLong),
	}
}

func emailRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error(msgNotBlank),
		is.Email.Error(msgInvalidEmail),
	}
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New(msgRepeat)
		}
		return nil
	}
}

// fieldError turns ozzo errors into a single field scoped ValidationFailed
// error, reporting the first failing field in order.
func fieldError(err error, order ...string) error {
	if err == nil {
		return nil
	}

	var errs validation.Errors
	if !errors.As(err, &errs) {
		return NewValidationError("", err.Error())
	}

	for _, field := range order {
		if ferr, ok := errs[field]; ok && ferr != nil {
			return NewValidationError(field, ferr.Error())
		}
	}

	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if errs[k] != nil {
			return NewValidationError(k, errs[k].Error())
		}
	}

	return nil
}

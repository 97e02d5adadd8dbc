package echoapi

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/smartseats/core"
	"github.com/trezcool/smartseats/core/class"
	"github.com/trezcool/smartseats/core/user"
)

// request payloads

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (prr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	prr.Email = core.CleanString(prr.Email, true /* lower */)
	return validate.Struct(prr)
}

// response payloads

type SuccessResponse struct {
	Success string `json:"success"`
}

type AuthResponse struct {
	Token string    `json:"token"`
	User  user.User `json:"user"`
}

type AddStudentsResponse struct {
	Added []string   `json:"added"`
	Class class.Info `json:"class"`
}

package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/smartseats/core"
	"github.com/trezcool/smartseats/core/user"
)

type userApi struct {
	deps ServerDeps
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := userApi{deps: deps}

	ug := g.Group("/users")

	// un-authed endpoints
	// TODO: rate limit `/password-reset` & `/password-reset-confirm`
	ug.POST("/register", api.register)
	ug.POST("/login", api.login)
	ug.POST("/logout", api.logout)
	ug.POST("/password-reset", api.resetPassword)
	ug.POST("/password-reset-confirm", api.confirmPasswordReset)

	// authed endpoints
	ag := ug.Group("", jwt)
	ag.DELETE("/account/:id", api.destroyAccount)
}

// Handlers

func (api *userApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(ctx.Request().Context(), api.deps.Validate, api.deps.UserSvc); err != nil {
		return err
	}

	usr, err := api.deps.UserSvc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering user")
	}

	token, err := GenerateToken(api.deps.Conf, GetUserClaims(api.deps.Conf, usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	setTokenCookie(ctx, api.deps.Conf, token)

	return ctx.JSON(http.StatusCreated, AuthResponse{Token: token, User: usr})
}

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	usr, err := authenticate(ctx, data.Email, data.Password, api.deps.UserSvc)
	if err != nil {
		if errors.Cause(err) == errAuthenticationFailed {
			// same response for unknown email and bad password
			return core.NewValidationError(errors.New("invalid credentials"))
		}
		return errors.Wrap(err, "authenticating")
	}

	token, err := GenerateToken(api.deps.Conf, GetUserClaims(api.deps.Conf, usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	setTokenCookie(ctx, api.deps.Conf, token)

	return ctx.JSON(http.StatusOK, AuthResponse{Token: token, User: usr})
}

func (api *userApi) logout(ctx echo.Context) error {
	clearTokenCookie(ctx, api.deps.Conf)
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Logged out."})
}

func (api *userApi) destroyAccount(ctx echo.Context) error {
	if err := api.deps.UserSvc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting account")
	}
	clearTokenCookie(ctx, api.deps.Conf)
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Account deleted."})
}

func (api *userApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	err := api.deps.UserSvc.RequestPasswordReset(ctx.Request().Context(), data.Email)
	if !(err == nil || errors.Cause(err) == user.ErrNotFound) {
		// do not return errors to attackers
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
}

func (api *userApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	if err := api.deps.UserSvc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}

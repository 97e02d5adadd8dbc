package echoapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/smartseats/core"
	"github.com/trezcool/smartseats/core/user"
)

const jwtContextKey = "userToken"

// newAppJWTConfig returns the JWT auth middleware config. Tokens are accepted
// from the Authorization header or the session cookie.
func newAppJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    jwtContextKey,
		TokenLookup:   "header:" + echo.HeaderAuthorization + ",cookie:" + conf.Server.CookieName,
		AuthScheme:    "Bearer",
		Claims:        new(Claims),
	}
}

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

func GetUserClaims(conf *core.Config, usr user.User) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   usr.ID.Hex(),
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Name:  usr.Name,
		Email: usr.Email,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func authenticate(ctx echo.Context, email, pwd string, svc user.Service) (user.User, error) {
	usr, err := svc.GetByEmail(ctx.Request().Context(), email)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, errAuthenticationFailed
		}
		return user.User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return user.User{}, errAuthenticationFailed
	}
	usr, err = svc.SetLastLogin(ctx.Request().Context(), usr)
	if err != nil {
		return user.User{}, errors.Wrap(err, "setting lastLogin")
	}
	return usr, nil
}

// setTokenCookie mirrors the token in an httpOnly cookie so browser clients
// authenticate without storing the JWT themselves.
func setTokenCookie(ctx echo.Context, conf *core.Config, token string) {
	ctx.SetCookie(&http.Cookie{
		Name:     conf.Server.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(conf.Server.JWTExpirationDelta),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearTokenCookie(ctx echo.Context, conf *core.Config) {
	ctx.SetCookie(&http.Cookie{
		Name:     conf.Server.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(jwtContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

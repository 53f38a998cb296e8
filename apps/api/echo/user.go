package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/studiousvault/core"
	"github.com/trezcool/studiousvault/core/user"
)

type authApi struct {
	srv *Server
	svc user.Service
}

func registerAuthAPI(g *echo.Group, authed []echo.MiddlewareFunc, srv *Server) {
	api := authApi{srv: srv, svc: srv.deps.UserSvc}

	ag := g.Group("/auth")

	// un-authed endpoints
	ag.POST("/login", api.login)
	ag.POST("/signup", api.signup)

	// authed endpoints
	sg := ag.Group("", authed...)
	sg.POST("/logout", api.logout)
	sg.GET("/me", api.me)
}

// Handlers

func (api *authApi) login(ctx echo.Context) error {
	defer api.srv.deps.Notifier.Drain() // notices are for views

	var data user.Credentials
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}

	res, err := api.svc.Login(ctx.Request().Context(), data)
	if err != nil {
		return authError(err, "logging in")
	}
	return api.respond(ctx, http.StatusOK, res)
}

func (api *authApi) signup(ctx echo.Context) error {
	defer api.srv.deps.Notifier.Drain()

	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}

	res, err := api.svc.Signup(ctx.Request().Context(), data)
	if err != nil {
		return authError(err, "signing up")
	}
	return api.respond(ctx, http.StatusCreated, res)
}

func (api *authApi) logout(ctx echo.Context) error {
	defer api.srv.deps.Notifier.Drain()

	res, err := api.svc.Logout(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "logging out")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *authApi) me(ctx echo.Context) error {
	curr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	usr, err := api.svc.GetByID(ctx.Request().Context(), curr.ID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *authApi) respond(ctx echo.Context, code int, res user.Result) error {
	token, err := api.srv.GenerateToken(api.srv.GetUserClaims(*res.User))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(code, AuthResponse{Token: token, Result: res})
}

// authError maps auth failures to their HTTP counterparts.
func authError(err error, msg string) error {
	switch errors.Cause(err) {
	case user.ErrInvalidCredentials:
		return core.NewValidationError(err)
	case user.ErrUserExists:
		return errUserExists
	}
	return errors.Wrap(err, msg)
}

type AuthResponse struct {
	Token string `json:"token"`
	user.Result
}

package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/studiousvault/core/user"
)

// sessionBoundMiddleware only lets through tokens issued to the current session identity,
// so a logout invalidates every outstanding token.
func sessionBoundMiddleware(svc user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			usr, ok := svc.Current()
			if !ok || usr.ID != claims.Subject {
				return errSessionEnded
			}
			ctx.Set(contextUserKey, usr)
			return next(ctx)
		}
	}
}

func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if usr.IsAdmin() {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// guardMiddleware gates identity-requiring views.
func guardMiddleware(svc user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			decision, usr := svc.Guard()
			switch decision {
			case user.GuardLoading:
				ctx.Response().Header().Set("Refresh", "1")
				return ctx.Render(http.StatusOK, "loading", newPage("Loading", nil))
			case user.GuardRedirect:
				return ctx.Redirect(http.StatusFound, user.EntryPath)
			}
			ctx.Set(contextUserKey, usr)
			return next(ctx)
		}
	}
}

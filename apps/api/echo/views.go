package echoapi

import (
	"net/http"
	"net/url"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/studiousvault/core"
	"github.com/trezcool/studiousvault/core/catalog"
	"github.com/trezcool/studiousvault/core/user"
)

const materialAddedText = "Material added successfully!"

type views struct {
	srv        *Server
	userSvc    user.Service
	catalogSvc catalog.Service
	notifier   core.Notifier
}

type (
	signupData struct {
		Roles  []string
		Digits int
	}

	subjectData struct {
		Subject   catalog.Subject
		Tabs      []catalog.Tab
		Active    string
		Materials []catalog.Material
		CanUpload bool
	}
)

func registerViews(e *echo.Echo, srv *Server) {
	v := views{
		srv:        srv,
		userSvc:    srv.deps.UserSvc,
		catalogSvc: srv.deps.CatalogSvc,
		notifier:   srv.deps.Notifier,
	}

	e.GET(user.EntryPath, v.login)
	e.POST("/login", v.submitLogin)
	e.GET("/signup", v.signup)
	e.POST("/signup", v.submitSignup)
	e.POST("/logout", v.logout)

	// guarded screens
	guard := guardMiddleware(v.userSvc)
	e.GET(user.DashboardPath, v.dashboard, guard)
	e.GET("/subjects/:id", v.subject, guard)
	e.POST("/subjects/:id/materials", v.submitMaterial, guard, adminMiddleware())
}

// render drains pending notices into the page before rendering it.
func (v *views) render(ctx echo.Context, code int, name string, p *page) error {
	if usr, ok := v.userSvc.Current(); ok {
		p.User = &usr
	}
	p.Notices = v.notifier.Drain()
	return ctx.Render(code, name, p)
}

// Handlers

func (v *views) login(ctx echo.Context) error {
	if decision, _ := v.userSvc.Guard(); decision == user.GuardAllow {
		return ctx.Redirect(http.StatusFound, user.DashboardPath)
	}
	return v.render(ctx, http.StatusOK, "login", newPage("Login", nil))
}

func (v *views) submitLogin(ctx echo.Context) error {
	var data user.Credentials
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}

	res, err := v.userSvc.Login(ctx.Request().Context(), data)
	if err != nil {
		if isUserFailure(err) { // already notified
			return ctx.Redirect(http.StatusSeeOther, user.EntryPath)
		}
		return errors.Wrap(err, "logging in")
	}
	return ctx.Redirect(http.StatusSeeOther, res.Redirect)
}

func (v *views) signup(ctx echo.Context) error {
	return v.render(ctx, http.StatusOK, "signup", newPage("Sign Up", signupData{
		Roles:  user.AllRoles,
		Digits: v.userSvc.Pattern().Digits(),
	}))
}

func (v *views) submitSignup(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}

	res, err := v.userSvc.Signup(ctx.Request().Context(), data)
	if err != nil {
		if isUserFailure(err) {
			return ctx.Redirect(http.StatusSeeOther, "/signup")
		}
		return errors.Wrap(err, "signing up")
	}
	return ctx.Redirect(http.StatusSeeOther, res.Redirect)
}

func (v *views) logout(ctx echo.Context) error {
	res, err := v.userSvc.Logout(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "logging out")
	}
	return ctx.Redirect(http.StatusSeeOther, res.Redirect)
}

func (v *views) dashboard(ctx echo.Context) error {
	subjects, err := v.catalogSvc.ListSubjects(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing subjects")
	}
	return v.render(ctx, http.StatusOK, "dashboard", newPage("Dashboard", subjects))
}

func (v *views) subject(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	subj, err := v.catalogSvc.GetSubject(reqCtx, ctx.Param("id"))
	if err != nil {
		return catalogError(err, "finding subject by ID")
	}

	active := ctx.QueryParam("type")
	if active == "" {
		active = catalog.TypeAssignment
	}
	materials, err := v.catalogSvc.ListMaterialsByType(reqCtx, subj.ID, active)
	if err != nil {
		return catalogError(err, "listing materials")
	}

	usr, _ := getContextUser(ctx)
	return v.render(ctx, http.StatusOK, "subject", newPage(subj.Name, subjectData{
		Subject:   subj,
		Tabs:      catalog.Tabs,
		Active:    active,
		Materials: materials,
		CanUpload: usr.IsAdmin(),
	}))
}

func (v *views) submitMaterial(ctx echo.Context) error {
	var data catalog.NewMaterial
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMaterial")
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	data.UploadedBy = usr.Name

	back := "/subjects/" + url.PathEscape(ctx.Param("id"))
	m, err := v.catalogSvc.AddMaterial(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == catalog.ErrNotFound {
			return errHttpNotFound
		}
		if msg, ok := v.validationText(err); ok {
			v.notifier.Notify(core.ErrorNotice(msg))
			return ctx.Redirect(http.StatusSeeOther, back)
		}
		return errors.Wrap(err, "adding material")
	}

	v.notifier.Notify(core.SuccessNotice(materialAddedText))
	return ctx.Redirect(http.StatusSeeOther, back+"?type="+url.QueryEscape(m.Type))
}

// isUserFailure reports whether err is a user input failure the auth service has already surfaced.
func isUserFailure(err error) bool {
	switch errors.Cause(err).(type) {
	case validator.ValidationErrors, *core.ValidationError:
		return true
	}
	switch errors.Cause(err) {
	case user.ErrInvalidCredentials, user.ErrUserExists:
		return true
	}
	return false
}

func (v *views) validationText(err error) (string, bool) {
	switch origErr := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		fldErrs := core.TranslateFieldErrors(origErr, v.srv.translator)
		if len(fldErrs) > 0 {
			return fldErrs[0].Field + ": " + fldErrs[0].Error, true
		}
	case *core.ValidationError:
		return origErr.Error(), true
	}
	return "", false
}

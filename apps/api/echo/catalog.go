package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/studiousvault/core/catalog"
)

type catalogApi struct {
	svc catalog.Service
}

func registerCatalogAPI(g *echo.Group, authed []echo.MiddlewareFunc, srv *Server) {
	api := catalogApi{svc: srv.deps.CatalogSvc}

	sg := g.Group("/subjects", authed...)
	sg.GET("", api.query)
	sg.GET("/:id", api.retrieve)
	sg.GET("/:id/materials", api.queryMaterials)
	sg.POST("/:id/materials", api.createMaterial, adminMiddleware())
}

// Handlers

func (api *catalogApi) query(ctx echo.Context) error {
	subjects, err := api.svc.ListSubjects(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing subjects")
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *catalogApi) retrieve(ctx echo.Context) error {
	subj, err := api.svc.GetSubject(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return catalogError(err, "finding subject by ID")
	}
	return ctx.JSON(http.StatusOK, subj)
}

func (api *catalogApi) queryMaterials(ctx echo.Context) error {
	typ := ctx.QueryParam("type")
	if typ == "" {
		typ = catalog.TypeAssignment
	}
	materials, err := api.svc.ListMaterialsByType(ctx.Request().Context(), ctx.Param("id"), typ)
	if err != nil {
		return catalogError(err, "listing materials")
	}
	return ctx.JSON(http.StatusOK, materials)
}

func (api *catalogApi) createMaterial(ctx echo.Context) error {
	var data catalog.NewMaterial
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMaterial")
	}

	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	data.UploadedBy = usr.Name

	m, err := api.svc.AddMaterial(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return catalogError(err, "adding material")
	}
	return ctx.JSON(http.StatusCreated, m)
}

func catalogError(err error, msg string) error {
	if errors.Cause(err) == catalog.ErrNotFound {
		return errHttpNotFound
	}
	return errors.Wrap(err, msg)
}

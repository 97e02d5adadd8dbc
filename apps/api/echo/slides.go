package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/smartseats/core/slides"
)

const pptxContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

type slidesApi struct {
	deps ServerDeps
}

func registerSlidesAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := slidesApi{deps: deps}

	g.POST("/generate-ppt", api.generate, jwt)
}

func (api *slidesApi) generate(ctx echo.Context) error {
	var data slides.Request
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to slides.Request")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	pres, err := api.deps.SlidesSvc.Generate(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "generating presentation")
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", pres.Filename))
	return ctx.Blob(http.StatusOK, pptxContentType, pres.Content)
}

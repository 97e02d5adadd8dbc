package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/smartseats/core/class"
	exportsvc "github.com/trezcool/smartseats/services/export"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type classApi struct {
	deps ServerDeps
}

func registerClassAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := classApi{deps: deps}

	cg := g.Group("/classes", jwt)
	cg.POST("", api.create)
	cg.GET("", api.query)
	cg.POST("/students", api.addStudents)
	cg.POST("/tests", api.createTest)
	cg.PUT("/tests/scores", api.upsertScores)
	cg.GET("/:id", api.retrieve)
	cg.PUT("/:id", api.update)
	cg.DELETE("/:id", api.destroy)
	cg.DELETE("/:id/:testId", api.destroyTest)
	cg.GET("/:id/tests/:testId/export", api.exportScores)
}

// Handlers

func (api *classApi) create(ctx echo.Context) error {
	var data class.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	cls, err := api.deps.ClassSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, cls)
}

func (api *classApi) query(ctx echo.Context) error {
	infos, err := api.deps.ClassSvc.Query(ctx.Request().Context(), ctx.QueryParam("userId"))
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	return ctx.JSON(http.StatusOK, infos)
}

func (api *classApi) addStudents(ctx echo.Context) error {
	var data class.AddStudents
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AddStudents")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	added, info, err := api.deps.ClassSvc.AddStudents(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "adding students to class")
	}

	addedHex := make([]string, 0, len(added))
	for _, id := range added {
		addedHex = append(addedHex, id.Hex())
	}
	return ctx.JSON(http.StatusOK, AddStudentsResponse{Added: addedHex, Class: info})
}

func (api *classApi) createTest(ctx echo.Context) error {
	var data class.NewTest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	t, err := api.deps.ClassSvc.CreateTest(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating test")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *classApi) upsertScores(ctx echo.Context) error {
	var data class.UpdateScores
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateScores")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	t, err := api.deps.ClassSvc.UpsertScores(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "upserting scores")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *classApi) retrieve(ctx echo.Context) error {
	info, err := api.deps.ClassSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting class")
	}
	return ctx.JSON(http.StatusOK, info)
}

func (api *classApi) update(ctx echo.Context) error {
	var data class.UpdateClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateClass")
	}

	info, err := api.deps.ClassSvc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating class")
	}
	return ctx.JSON(http.StatusOK, info)
}

func (api *classApi) destroy(ctx echo.Context) error {
	if err := api.deps.ClassSvc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Class deleted."})
}

func (api *classApi) destroyTest(ctx echo.Context) error {
	info, err := api.deps.ClassSvc.DeleteTest(ctx.Request().Context(), ctx.Param("id"), ctx.Param("testId"))
	if err != nil {
		return errors.Wrap(err, "deleting test")
	}
	return ctx.JSON(http.StatusOK, info)
}

func (api *classApi) exportScores(ctx echo.Context) error {
	info, err := api.deps.ClassSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting class")
	}

	testID := ctx.Param("testId")
	var tst *class.Test
	for i := range info.Tests {
		if info.Tests[i].ID.Hex() == testID {
			tst = &info.Tests[i]
			break
		}
	}
	if tst == nil {
		return class.ErrTestNotFound
	}

	content, err := exportsvc.TestScoresWorkbook(info, *tst)
	if err != nil {
		return errors.Wrap(err, "building scores workbook")
	}

	filename := fmt.Sprintf("%s - %s.xlsx", info.Name, tst.TestName)
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return ctx.Blob(http.StatusOK, xlsxContentType, content)
}

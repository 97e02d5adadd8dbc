package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/smartseats/core/student"
)

type studentApi struct {
	deps ServerDeps
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := studentApi{deps: deps}

	sg := g.Group("/students", jwt)
	sg.POST("", api.create)
	sg.GET("", api.query)
	sg.GET("/search", api.search)
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update)
	sg.DELETE("/:id", api.destroy)
	sg.DELETE("/:classId/:studentId", api.removeFromClass)
}

// Handlers

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	std, err := api.deps.StudentSvc.Add(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "adding student")
	}
	return ctx.JSON(http.StatusCreated, std)
}

func (api *studentApi) query(ctx echo.Context) error {
	students, err := api.deps.StudentSvc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) search(ctx echo.Context) error {
	students, err := api.deps.StudentSvc.Search(ctx.Request().Context(), ctx.QueryParam("q"))
	if err != nil {
		return errors.Wrap(err, "searching students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	std, err := api.deps.StudentSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting student")
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *studentApi) update(ctx echo.Context) error {
	var data student.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}

	std, err := api.deps.StudentSvc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	if _, err := api.deps.StudentSvc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Student deleted."})
}

func (api *studentApi) removeFromClass(ctx echo.Context) error {
	err := api.deps.ClassSvc.RemoveStudent(ctx.Request().Context(), ctx.Param("classId"), ctx.Param("studentId"))
	if err != nil {
		return errors.Wrap(err, "removing student from class")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Student removed from class."})
}

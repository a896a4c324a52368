package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

var studentOrderingFields = []string{"first_name", "last_name", "email", "date_of_birth", "admission_date", "created_at", "updated_at"}

type schoolApi struct {
	svc        school.ServiceInterface
	userSvc    user.ServiceInterface
	validate   *validator.Validate
	translator ut.Translator
}

func registerSchoolAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc school.ServiceInterface,
	userSvc user.ServiceInterface,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := schoolApi{
		svc:        svc,
		userSvc:    userSvc,
		validate:   validate,
		translator: translator,
	}

	cg := g.Group("/classes", jwt, staffMiddleware())
	cg.POST("", api.createClass, adminMiddleware())
	cg.GET("", api.queryClasses)
	cg.GET("/:id", api.retrieveClass)
	cg.PUT("/:id", api.updateClass, adminMiddleware())
	cg.DELETE("/:id", api.destroyClass, adminMiddleware())
	cg.GET("/:id/students", api.queryClassStudents)

	sg := g.Group("/students", jwt, staffMiddleware())
	sg.POST("", api.createStudent, adminMiddleware())
	sg.GET("", api.queryStudents)
	sg.GET("/:id", api.retrieveStudent)
	sg.PUT("/:id", api.updateStudent, adminMiddleware())
	sg.DELETE("/:id", api.destroyStudent, adminMiddleware())
}

// Class handlers

func (api *schoolApi) createClass(ctx echo.Context) error {
	var data school.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.translator, api.svc); err != nil {
		return err
	}

	cls, err := api.svc.CreateClass(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, cls)
}

func (api *schoolApi) queryClasses(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx, "name", "capacity", "academic_year", "semester", "created_at", "updated_at")

	// teachers only see their own classes
	var teacherID string
	if claims, err := getContextClaims(ctx); err == nil && !claims.IsAdmin {
		teacherID = claims.Subject
	}

	classes, err := api.svc.QueryClasses(ctx.Request().Context(), teacherID, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	if classes == nil {
		classes = []school.Class{}
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *schoolApi) retrieveClass(ctx echo.Context) error {
	cls, err := api.svc.GetClass(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *schoolApi) updateClass(ctx echo.Context) error {
	cls, err := api.svc.GetClass(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	var data school.UpdateClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateClass")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, cls, api.svc); err != nil {
		return err
	}

	cls, err = api.svc.UpdateClass(ctx.Request().Context(), cls.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating class")
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *schoolApi) destroyClass(ctx echo.Context) error {
	if _, err := api.svc.GetClass(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	if err := api.svc.DeleteClasses(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *schoolApi) queryClassStudents(ctx echo.Context) error {
	if _, err := api.svc.GetClass(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx, studentOrderingFields...)

	students, err := api.svc.QueryStudents(ctx.Request().Context(), ctx.Param("id"), ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying class students")
	}
	if students == nil {
		students = []school.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

// Student handlers

func (api *schoolApi) createStudent(ctx echo.Context) error {
	var data school.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	std, err := api.svc.CreateStudent(ctx.Request().Context(), data)
	if err != nil {
		if errors.Cause(err) == school.ErrClassNotFound {
			return err
		}
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, std)
}

func (api *schoolApi) queryStudents(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx, studentOrderingFields...)

	students, err := api.svc.QueryStudents(ctx.Request().Context(), ctx.QueryParam("class_id"), ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []school.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *schoolApi) retrieveStudent(ctx echo.Context) error {
	std, err := api.svc.GetStudent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *schoolApi) updateStudent(ctx echo.Context) error {
	std, err := api.svc.GetStudent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	var data school.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err := data.Validate(api.validate, std); err != nil {
		return err
	}

	std, err = api.svc.UpdateStudent(ctx.Request().Context(), std.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *schoolApi) destroyStudent(ctx echo.Context) error {
	if _, err := api.svc.GetStudent(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	if err := api.svc.DeleteStudents(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

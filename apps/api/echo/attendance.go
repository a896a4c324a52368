package echoapi

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

var nowFunc = time.Now // mockable

type attendanceApi struct {
	svc       attendance.ServiceInterface
	schoolSvc school.ServiceInterface
	userSvc   user.ServiceInterface
	validate  *validator.Validate
}

func registerAttendanceAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc attendance.ServiceInterface,
	schoolSvc school.ServiceInterface,
	userSvc user.ServiceInterface,
	validate *validator.Validate,
) {
	api := attendanceApi{
		svc:       svc,
		schoolSvc: schoolSvc,
		userSvc:   userSvc,
		validate:  validate,
	}

	ag := g.Group("/attendance", jwt, staffMiddleware())
	ag.POST("/bulk", api.recordBulk)
	ag.GET("/class/:classId/date/:date", api.byDay)
	ag.GET("/class/:classId/summary", api.summary)
	ag.GET("/class/:classId/report", api.report)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update)
	ag.DELETE("/:id", api.destroy)
}

// Handlers

func (api *attendanceApi) recordBulk(ctx echo.Context) error {
	var data BulkRecordRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BulkRecordRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	res, err := api.svc.RecordBulk(ctx.Request().Context(), ctxUsr, data.Records)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *attendanceApi) byDay(ctx echo.Context) error {
	day, err := attendance.ParseDay(ctx.Param("date"))
	if err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	records, err := api.svc.ByDay(ctx.Request().Context(), ctxUsr, ctx.Param("classId"), day)
	if err != nil {
		return err
	}
	if records == nil {
		records = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *attendanceApi) retrieve(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	rec, err := api.svc.Get(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.enrich(ctx, rec))
}

func (api *attendanceApi) update(ctx echo.Context) error {
	var data attendance.UpdateRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateRecord")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	rec, err := api.svc.Update(ctx.Request().Context(), ctxUsr, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *attendanceApi) destroy(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err := api.svc.Delete(ctx.Request().Context(), ctxUsr, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Attendance record deleted successfully"})
}

func (api *attendanceApi) summary(ctx echo.Context) error {
	rng, _, err := bindDateRange(ctx)
	if err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	sum, err := api.svc.Summarize(ctx.Request().Context(), ctxUsr, ctx.Param("classId"), rng)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sum)
}

func (api *attendanceApi) report(ctx echo.Context) error {
	status := ctx.QueryParam("status")
	if status == "" {
		status = attendance.StatusAbsent
	}
	if !attendance.ValidStatus(status) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	rng, timeframe, err := bindDateRange(ctx)
	if err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	sum, err := api.svc.Summarize(ctx.Request().Context(), ctxUsr, ctx.Param("classId"), rng)
	if err != nil {
		return err
	}
	rep := attendance.ProjectReport(sum, status)

	if ctx.QueryParam("format") == "csv" {
		var buf bytes.Buffer
		if err := rep.WriteCSV(&buf); err != nil {
			return errors.Wrap(err, "writing report CSV")
		}
		filename := attendance.CSVFilename(status, timeframe)
		ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
		return ctx.Blob(http.StatusOK, "text/csv", buf.Bytes())
	}
	return ctx.JSON(http.StatusOK, rep)
}

// bindDateRange resolves the requested date range: explicit startDate/endDate
// params win, otherwise the named timeframe is anchored on today.
func bindDateRange(ctx echo.Context) (attendance.DateRange, string, error) {
	start, end := ctx.QueryParam("startDate"), ctx.QueryParam("endDate")
	timeframe := ctx.QueryParam("timeframe")
	if timeframe == "" {
		timeframe = attendance.TimeframeToday
	}

	if start != "" || end != "" {
		startDay, err := attendance.ParseDay(start)
		if err != nil {
			return attendance.DateRange{}, "", err
		}
		endDay, err := attendance.ParseDay(end)
		if err != nil {
			return attendance.DateRange{}, "", err
		}
		if endDay.Before(startDay) {
			return attendance.DateRange{}, "", echo.NewHTTPError(http.StatusBadRequest, "endDate must not precede startDate")
		}
		return attendance.DateRange{Start: startDay, End: endDay}, "custom", nil
	}
	return attendance.ResolveRange(timeframe, nowFunc()), timeframe, nil
}

// enrich decorates a record with display names; a missing student or class
// leaves the plain record intact.
func (api *attendanceApi) enrich(ctx echo.Context, rec attendance.Record) RecordDetail {
	detail := RecordDetail{Record: rec}
	if std, err := api.schoolSvc.GetStudent(ctx.Request().Context(), rec.StudentID); err == nil {
		detail.StudentName = school.FullName(std)
		detail.StudentEmail = std.Email
	}
	if cls, err := api.schoolSvc.GetClass(ctx.Request().Context(), rec.ClassID); err == nil {
		detail.ClassName = cls.Name
	}
	return detail
}

type (
	RecordDetail struct {
		attendance.Record
		StudentName  string `json:"student_name,omitempty"`
		StudentEmail string `json:"student_email,omitempty"`
		ClassName    string `json:"class_name,omitempty"`
	}

	BulkRecordRequest struct {
		Records []attendance.NewRecord `json:"records" validate:"required,min=1,dive"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

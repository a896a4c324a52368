package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// statusForSentinel maps domain sentinel errors to HTTP status codes.
func statusForSentinel(err error) (int, bool) {
	switch err {
	case user.ErrNotFound, school.ErrClassNotFound, school.ErrStudentNotFound, attendance.ErrRecordNotFound:
		return http.StatusNotFound, true
	case attendance.ErrNotClassOwner:
		return http.StatusForbidden, true
	case attendance.ErrNotEnrolled, attendance.ErrInvalidDay, user.ErrUserExists, school.ErrClassExists:
		return http.StatusBadRequest, true
	case attendance.ErrConflict:
		return http.StatusConflict, true
	}
	return 0, false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		// a bulk recording failure reports the failing entry's status along
		// with how many entries were already committed
		var bulkErr *attendance.BulkError
		if errors.As(err, &bulkErr) {
			code, message = bulkStatusAndBody(bulkErr)
			sendError(ctx, err, code, message)
			return
		}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default:
			if c, ok := statusForSentinel(origErr); ok {
				code = c
				message = origErr.Error()
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			var usr user.User
			if claims, cErr := getContextClaims(ctx); cErr == nil {
				usr.ID = claims.Subject
				usr.Username = claims.Username
				usr.Email = claims.Email
			}
			logger.Error(msg, errors.Wrap(err, msg), usr)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		sendError(ctx, err, code, message)
	}
}

func bulkStatusAndBody(bulkErr *attendance.BulkError) (int, interface{}) {
	code := http.StatusInternalServerError
	if c, ok := statusForSentinel(errors.Cause(bulkErr.Err)); ok {
		code = c
	}
	return code, echo.Map{
		"error":     bulkErr.Err.Error(),
		"failed_at": bulkErr.Index,
		"committed": bulkErr.Committed,
	}
}

func sendError(ctx echo.Context, err error, code int, message interface{}) {
	if ctx.Echo().Debug {
		message = err.Error()
	} else if m, ok := message.(string); ok {
		message = echo.Map{"error": m}
	}

	// Send response
	if !ctx.Response().Committed {
		if ctx.Request().Method == http.MethodHead { // Issue #608
			err = ctx.NoContent(code)
		} else {
			err = ctx.JSON(code, message)
		}
		if err != nil {
			ctx.Echo().Logger.Error(err)
		}
	}
}

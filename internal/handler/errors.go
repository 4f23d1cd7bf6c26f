package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rollcall/internal/apperr"
)

var statusByKind = map[apperr.Kind]int{
	apperr.KindValidation:          http.StatusBadRequest,
	apperr.KindUnauthorized:        http.StatusUnauthorized,
	apperr.KindAuthFailed:          http.StatusUnauthorized,
	apperr.KindIdentifierMismatch:  http.StatusUnauthorized,
	apperr.KindNotFound:            http.StatusNotFound,
	apperr.KindDuplicateAttendance: http.StatusConflict,
	apperr.KindSessionEnded:        http.StatusGone,
	apperr.KindExport:              http.StatusUnprocessableEntity,
	apperr.KindStoreUnavailable:    http.StatusServiceUnavailable,
}

// StatusFor maps an error kind to its HTTP status; unknown kinds are 500.
func StatusFor(err error) int {
	if code, ok := statusByKind[apperr.KindOf(err)]; ok {
		return code
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, err error, extra gin.H) {
	kind := string(apperr.KindOf(err))
	if kind == "" {
		kind = "internal"
	}
	body := gin.H{"error": apperr.UserMessage(err), "kind": kind}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(StatusFor(err), body)
}

// bindError turns a malformed request body into a validation error.
func bindError(c *gin.Context, err error) {
	writeError(c, apperr.Wrap(apperr.KindValidation, "Invalid request body.", err), nil)
}

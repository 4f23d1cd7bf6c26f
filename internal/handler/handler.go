// Package handler exposes the attendance flows over HTTP.
package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rollcall/internal/apperr"
	"rollcall/internal/attendance"
	"rollcall/internal/auth"
	"rollcall/internal/authenticator"
	"rollcall/internal/clock"
	"rollcall/internal/enrollment"
	"rollcall/internal/model"
	"rollcall/internal/queue"
	"rollcall/internal/report"
	"rollcall/internal/session"
)

// Handler holds the services behind the routes.
type Handler struct {
	Catalog    *session.Catalog
	Enrollment *enrollment.Service
	Intake     *attendance.Service
	Live       *attendance.Registry
	Records    *attendance.Repository
	Reports    *report.Aggregator
	Exporter   *report.Exporter
	Admins     *auth.Service
	Jobs       queue.Queue

	// Agent, when set, answers every biometric check. Otherwise the outcome
	// the student's device reports in the request body is used.
	Agent authenticator.Authenticator

	Logger *zap.Logger
}

// deviceAssertion is the local authenticator outcome reported by a device.
type deviceAssertion struct {
	HasHardware bool `json:"hasHardware"`
	Enrolled    bool `json:"enrolled"`
	Success     bool `json:"success"`
}

func (h *Handler) authenticatorFor(d *deviceAssertion) authenticator.Authenticator {
	if h.Agent != nil {
		return h.Agent
	}
	if d == nil {
		return authenticator.Static{}
	}
	return authenticator.Static{Hardware: d.HasHardware, Enrolled: d.Enrolled, Success: d.Success}
}

func (h *Handler) log() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

// ---------- Admin accounts ----------

func (h *Handler) SignUp(c *gin.Context) {
	var req struct {
		Name            string `json:"name"`
		Username        string `json:"username"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	admin, err := h.Admins.SignUp(c.Request.Context(), req.Name, req.Username, req.Password, req.ConfirmPassword)
	if err != nil {
		writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": admin.ID, "adminName": admin.Name, "username": admin.Username})
}

func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	sess, err := h.Admins.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *Handler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	sess, err := h.Admins.Refresh(req.RefreshToken)
	if err != nil {
		writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// ---------- Sessions ----------

// SearchSessions is the student session picker.
func (h *Handler) SearchSessions(c *gin.Context) {
	sessions, err := h.Catalog.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (h *Handler) CreateSession(c *gin.Context) {
	var f session.Fields
	if err := c.ShouldBindJSON(&f); err != nil {
		bindError(c, err)
		return
	}
	s, err := h.Catalog.Create(c.Request.Context(), f)
	if err != nil {
		writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (h *Handler) UpdateSession(c *gin.Context) {
	var f session.Fields
	if err := c.ShouldBindJSON(&f); err != nil {
		bindError(c, err)
		return
	}
	s, err := h.Catalog.Update(c.Request.Context(), c.Param("id"), f)
	if err != nil {
		writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.Catalog.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err, nil)
		return
	}
	c.Status(http.StatusNoContent)
}

// ---------- Live sessions ----------

type liveView struct {
	LiveID    string        `json:"liveId"`
	Session   model.Session `json:"session"`
	Remaining string        `json:"remaining"`
	Seconds   int           `json:"remainingSeconds"`
	Ended     bool          `json:"ended"`
	Message   string        `json:"message,omitempty"`
}

func view(lv *attendance.Live) liveView {
	v := liveView{
		LiveID:    lv.ID,
		Session:   lv.Session,
		Remaining: lv.Clock.String(),
		Seconds:   int(lv.Clock.Remaining() / time.Second),
		Ended:     lv.Clock.IsEnded(),
	}
	if v.Ended {
		v.Message = apperr.UserMessage(apperr.SessionEnded(lv.Session.CourseName))
	}
	return v
}

// OpenSession starts a countdown for the selected session.
func (h *Handler) OpenSession(c *gin.Context) {
	s, err := h.Catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, nil)
		return
	}
	lv := h.Live.Open(s)
	h.log().Info("session opened", zap.String("live_id", lv.ID), zap.String("course_code", s.CourseCode),
		zap.String("duration", clock.Format(lv.Clock.Remaining())))
	c.JSON(http.StatusCreated, view(lv))
}

func (h *Handler) LiveSession(c *gin.Context) {
	lv, err := h.Live.Get(c.Param("id"))
	if err != nil {
		writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, view(lv))
}

// TakeAttendance runs one intake attempt against a live session.
func (h *Handler) TakeAttendance(c *gin.Context) {
	lv, err := h.Live.Get(c.Param("id"))
	if err != nil {
		writeError(c, err, nil)
		return
	}
	var req struct {
		UniqueIdentifier string           `json:"uniqueIdentifier"`
		Device           *deviceAssertion `json:"device"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	out, err := h.Intake.Take(c.Request.Context(), lv.Attempt(req.UniqueIdentifier), h.authenticatorFor(req.Device))
	if err != nil {
		writeError(c, err, gin.H{"state": out.State})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"state": out.State, "record": out.Record})
}

// ---------- Students ----------

func (h *Handler) RegisterStudent(c *gin.Context) {
	var req struct {
		Name      string           `json:"name"`
		Matricule string           `json:"matricule"`
		Device    *deviceAssertion `json:"device"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.Enrollment.Enroll(c.Request.Context(), req.Name, req.Matricule, h.authenticatorFor(req.Device))
	if err != nil {
		writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) ListAttendances(c *gin.Context) {
	recs, err := h.Records.Records(c.Request.Context(), c.Query("courseCode"))
	if err != nil {
		writeError(c, apperr.Store("fetching attendances", err), nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attendances": recs})
}

// ---------- Reports ----------

type reportRequest struct {
	report.Query
	Format string `json:"format"`
}

// GenerateReport returns the report as JSON, or as an HTML page with ?format=html.
func (h *Handler) GenerateReport(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	rep, err := h.Reports.Generate(c.Request.Context(), req.Query)
	if err != nil {
		writeError(c, err, nil)
		return
	}
	if c.Query("format") == "html" && !rep.Empty() {
		page, err := report.HTML(rep)
		if err != nil {
			writeError(c, apperr.Export("An error occurred while rendering the report.", err), nil)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
		return
	}
	body := gin.H{"report": rep, "empty": rep.Empty()}
	if rep.Empty() {
		body["message"] = report.NoRecordsMessage
	} else {
		body["title"] = report.Title(rep)
		body["present"] = report.Present(rep)
	}
	c.JSON(http.StatusOK, body)
}

// ExportReport produces the file, hands it to the share sink and streams it back.
func (h *Handler) ExportReport(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	rep, err := h.Reports.Generate(c.Request.Context(), req.Query)
	if err != nil {
		writeError(c, err, nil)
		return
	}
	file, err := h.Exporter.Export(c.Request.Context(), rep, report.Format(strings.ToLower(req.Format)))
	if err != nil {
		writeError(c, err, nil)
		return
	}
	c.Header("X-Report-Location", file.Location)
	c.Header("Content-Disposition", `attachment; filename="`+file.Name+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// EnqueueExport queues an export for the worker.
func (h *Handler) EnqueueExport(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := req.Query.Validate(); err != nil {
		writeError(c, err, nil)
		return
	}
	format := report.Format(strings.ToLower(req.Format))
	if format != report.FormatPDF && format != report.FormatSpreadsheet {
		writeError(c, apperr.Validation("format must be pdf or xlsx"), nil)
		return
	}
	requestedBy := ""
	if claims, ok := auth.FromContext(c); ok {
		requestedBy = claims.Subject
	}
	job, err := queue.PublishExport(c.Request.Context(), h.Jobs, queue.ExportJob{
		CourseCode:  req.CourseCode,
		Date:        req.Date,
		Time:        req.Time,
		Format:      string(format),
		RequestedBy: requestedBy,
	})
	if err != nil {
		h.log().Error("enqueue export failed", zap.Error(err))
		writeError(c, apperr.Wrap(apperr.KindStoreUnavailable, "An error occurred while queueing the export.", err), nil)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job": job})
}

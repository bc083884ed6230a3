package application

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tavi/preauth/internal/domain/casefile"
	"github.com/tavi/preauth/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("physician", "nurse", "coordinator"))
	read.GET("/cases/:id/examinations.xlsx", h.ExaminationSheet)

	write := api.Group("", auth.RequireRole("physician", "coordinator"))
	write.POST("/applications/docx", h.CreateApplication)
	write.GET("/cases/:id/application.docx", h.CaseApplication)
	write.POST("/surgeon-assessments/docx", h.CreateSurgeonAssessment)
}

// Headers describing a generated document.
const (
	HeaderSections     = "X-Document-Sections"
	HeaderDegradations = "X-Document-Degradations"
)

func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrMissingPatient), errors.Is(err, ErrMissingSummary):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrSummaryFailed):
		return echo.NewHTTPError(http.StatusBadGateway, "生成醫師評估文件失敗，請稍後再試")
	case errors.Is(err, ErrSerialize):
		return echo.NewHTTPError(http.StatusInternalServerError, "文件生成失敗: "+err.Error())
	default:
		return casefile.HTTPError(err)
	}
}

// ContentDisposition returns an attachment header carrying a UTF-8 file
// name in both the legacy and the RFC 5987 extended form.
func ContentDisposition(name string) string {
	enc := url.PathEscape(name)
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, enc, enc)
}

func sendFile(c echo.Context, f *File) error {
	hdr := c.Response().Header()
	hdr.Set(echo.HeaderContentDisposition, ContentDisposition(f.Name))
	if f.Sections > 0 {
		hdr.Set(HeaderSections, strconv.Itoa(f.Sections))
		hdr.Set(HeaderDegradations, strconv.Itoa(len(f.Degradations)))
	}
	return c.Blob(http.StatusOK, f.ContentType, f.Data)
}

type applicationRequest struct {
	Case           *casefile.Case `json:"case"`
	SummaryContent string         `json:"summaryContent"`
	SignedDocument casefile.Image `json:"signedDocument,omitempty"`
}

func (h *Handler) CreateApplication(c echo.Context) error {
	var req applicationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	f, err := h.svc.Application(c.Request().Context(), req.Case, req.SummaryContent, req.SignedDocument)
	if err != nil {
		return httpError(err)
	}
	return sendFile(c, f)
}

func (h *Handler) CaseApplication(c echo.Context) error {
	id, err := casefile.ParseID(c)
	if err != nil {
		return err
	}
	generate, _ := strconv.ParseBool(c.QueryParam("generate"))
	f, err := h.svc.ApplicationForCase(c.Request().Context(), id, generate)
	if err != nil {
		return httpError(err)
	}
	return sendFile(c, f)
}

type surgeonAssessmentRequest struct {
	PatientInfo PatientInfo `json:"patientInfo"`
	Summary     string      `json:"summary"`
}

func (h *Handler) CreateSurgeonAssessment(c echo.Context) error {
	var req surgeonAssessmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	f, err := h.svc.SurgeonAssessment(req.PatientInfo, req.Summary)
	if err != nil {
		return httpError(err)
	}
	return sendFile(c, f)
}

func (h *Handler) ExaminationSheet(c echo.Context) error {
	id, err := casefile.ParseID(c)
	if err != nil {
		return err
	}
	f, err := h.svc.ExaminationSheet(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return sendFile(c, f)
}

package summary

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
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
	g := api.Group("", auth.RequireRole("physician", "coordinator"))
	g.POST("/summaries", h.Generate)
	g.POST("/cases/:id/summary", h.GenerateForCase)
}

type summaryResponse struct {
	CaseID  *uuid.UUID `json:"caseId,omitempty"`
	Summary string     `json:"summary"`
}

// httpError maps generation errors; case errors go through the case
// package mapping.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrMissingPatient):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrExternalService):
		return echo.NewHTTPError(http.StatusBadGateway, "生成醫師評估文件失敗，請稍後再試")
	default:
		return casefile.HTTPError(err)
	}
}

func (h *Handler) Generate(c echo.Context) error {
	var cs casefile.Case
	if err := c.Bind(&cs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	text, err := h.svc.Generate(c.Request().Context(), &cs)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, summaryResponse{Summary: text})
}

func (h *Handler) GenerateForCase(c echo.Context) error {
	id, err := casefile.ParseID(c)
	if err != nil {
		return err
	}
	cs, err := h.svc.GenerateForCase(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, summaryResponse{CaseID: &cs.ID, Summary: cs.GeneratedSummary})
}

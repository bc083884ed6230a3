package casefile

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/tavi/preauth/internal/platform/auth"
	"github.com/tavi/preauth/pkg/pagination"
)

// Headers carrying the case version.
const (
	HeaderETag    = "ETag"
	HeaderIfMatch = "If-Match"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("physician", "nurse", "coordinator"))
	read.GET("/cases", h.ListCases)
	read.GET("/cases/:id", h.GetCase)
	read.GET("/cases/:id/progress", h.GetProgress)

	write := api.Group("", auth.RequireRole("physician", "coordinator"))
	write.POST("/cases", h.CreateCase)
	write.PUT("/cases/:id", h.UpdateCase)
	write.DELETE("/cases/:id", h.DeleteCase)
	write.POST("/cases/:id/examinations", h.AddExamination)
	write.PUT("/cases/:id/examinations/:examId", h.UpdateExamination)
	write.DELETE("/cases/:id/examinations/:examId", h.RemoveExamination)
	write.PUT("/cases/:id/signed-document", h.PutSignedDocument)
	write.DELETE("/cases/:id/signed-document", h.DeleteSignedDocument)
	write.PUT("/cases/:id/progress", h.PutProgress)
}

// HTTPError maps service errors onto status codes.
func HTTPError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrCaseNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "case not found")
	case errors.Is(err, ErrExaminationNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "examination not found")
	case errors.Is(err, ErrInvalidCase):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrVersionConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// setETag publishes the case version as a weak entity tag.
func setETag(c echo.Context, version int) {
	c.Response().Header().Set(HeaderETag, fmt.Sprintf(`W/"%d"`, version))
}

// ifMatch reads the expected version from If-Match (W/"3" or "3"). Without
// the header the versionId in the body applies; zero means unconditional.
func ifMatch(c echo.Context) (int, bool, error) {
	raw := strings.TrimSpace(c.Request().Header.Get(HeaderIfMatch))
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(strings.Trim(strings.TrimPrefix(raw, "W/"), `"`))
	if err != nil || v < 1 {
		return 0, false, echo.NewHTTPError(http.StatusBadRequest, "invalid If-Match header")
	}
	return v, true, nil
}

// ParseID reads the :id path parameter.
func ParseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func (h *Handler) CreateCase(c echo.Context) error {
	var cs Case
	if err := c.Bind(&cs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateCase(c.Request().Context(), &cs); err != nil {
		return HTTPError(err)
	}
	return c.JSON(http.StatusCreated, cs)
}

func (h *Handler) GetCase(c echo.Context) error {
	id, err := ParseID(c)
	if err != nil {
		return err
	}
	cs, err := h.svc.GetCase(c.Request().Context(), id)
	if err != nil {
		return HTTPError(err)
	}
	setETag(c, cs.VersionID)
	return c.JSON(http.StatusOK, cs)
}

func (h *Handler) ListCases(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := map[string]string{}
	if v := c.QueryParam("name"); v != "" {
		params["name"] = v
	}
	if v := c.QueryParam("chart_number"); v != "" {
		params["chart_number"] = v
	}
	items, total, err := h.svc.ListCases(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset).WithLinks(c.Request().URL))
}

func (h *Handler) UpdateCase(c echo.Context) error {
	id, err := ParseID(c)
	if err != nil {
		return err
	}
	var cs Case
	if err := c.Bind(&cs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cs.ID = id
	if v, ok, err := ifMatch(c); err != nil {
		return err
	} else if ok {
		cs.VersionID = v
	}
	if err := h.svc.UpdateCase(c.Request().Context(), &cs); err != nil {
		return HTTPError(err)
	}
	setETag(c, cs.VersionID)
	return c.JSON(http.StatusOK, cs)
}

func (h *Handler) DeleteCase(c echo.Context) error {
	id, err := ParseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteCase(c.Request().Context(), id); err != nil {
		return HTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) AddExamination(c echo.Context) error {
	id, err := ParseID(c)
	if err != nil {
		return err
	}
	var e Examination
	if err := c.Bind(&e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	out, err := h.svc.AddExamination(c.Request().Context(), id, &e)
	if err != nil {
		return HTTPError(err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *Handler) UpdateExamination(c echo.Context) error {
	id, err := ParseID(c)
	if err != nil {
		return err
	}
	var e Examination
	if err := c.Bind(&e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	e.ID = c.Param("examId")
	out, err := h.svc.UpdateExamination(c.Request().Context(), id, &e)
	if err != nil {
		return HTTPError(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) RemoveExamination(c echo.Context) error {
	id, err := ParseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.RemoveExamination(c.Request().Context(), id, c.Param("examId")); err != nil {
		return HTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type signedDocumentRequest struct {
	Image Image `json:"image"`
}

type signedDocumentResponse struct {
	CaseID    uuid.UUID `json:"caseId"`
	MediaType string    `json:"mediaType"`
	Size      int       `json:"size"`
}

// PutSignedDocument accepts either a JSON body {"image": "<data url>"} or
// the raw image bytes.
func (h *Handler) PutSignedDocument(c echo.Context) error {
	id, err := ParseID(c)
	if err != nil {
		return err
	}

	var img Image
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		var req signedDocumentRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		img = req.Image
	} else {
		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		img = body
	}
	if len(img) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "signed document image is required")
	}

	if _, err := h.svc.SetSignedDocument(c.Request().Context(), id, img); err != nil {
		return HTTPError(err)
	}
	return c.JSON(http.StatusOK, signedDocumentResponse{CaseID: id, MediaType: MediaType(img), Size: len(img)})
}

func (h *Handler) DeleteSignedDocument(c echo.Context) error {
	id, err := ParseID(c)
	if err != nil {
		return err
	}
	if _, err := h.svc.SetSignedDocument(c.Request().Context(), id, nil); err != nil {
		return HTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetProgress(c echo.Context) error {
	id, err := ParseID(c)
	if err != nil {
		return err
	}
	p, err := h.svc.GetProgress(c.Request().Context(), id)
	if err != nil {
		return HTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) PutProgress(c echo.Context) error {
	id, err := ParseID(c)
	if err != nil {
		return err
	}
	var p Progress
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SetProgress(c.Request().Context(), id, p); err != nil {
		return HTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}

package calendar

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/turnoapp/turno/internal/platform/apperr"
)

const contentType = "text/calendar; charset=utf-8"

type Handler struct {
	exporter *Exporter
}

func NewHandler(exporter *Exporter) *Handler {
	return &Handler{exporter: exporter}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/professionals/:id/calendar.ics", h.Feed)
}

func (h *Handler) Feed(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid professional id")
	}
	body, err := h.exporter.Export(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	c.Response().Header().Set("Content-Disposition", `inline; filename="calendar.ics"`)
	return c.Blob(http.StatusOK, contentType, body)
}

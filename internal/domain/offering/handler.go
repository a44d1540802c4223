package offering

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/turnoapp/turno/internal/platform/apperr"
	"github.com/turnoapp/turno/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/professionals/:id/services", h.ListCatalog)

	pro := api.Group("/services", auth.RequireRole(auth.RoleProfessional))
	pro.GET("", h.ListOwn)
	pro.POST("", h.Create)
	pro.GET("/:id", h.Get)
	pro.PUT("/:id", h.Update)
	pro.DELETE("/:id", h.Delete)
	pro.PATCH("/:id/status", h.Toggle)
}

func ids(c echo.Context) (id, professionalID uuid.UUID, err error) {
	if id, err = uuid.Parse(c.Param("id")); err != nil {
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if professionalID, err = auth.SubjectFromContext(c.Request().Context()); err != nil {
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "unknown caller")
	}
	return id, professionalID, nil
}

func (h *Handler) ListCatalog(c echo.Context) error {
	pid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid professional id")
	}
	items, err := h.svc.ListCatalog(c.Request().Context(), pid)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListOwn(c echo.Context) error {
	pid, err := auth.SubjectFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown caller")
	}
	items, err := h.svc.ListOwn(c.Request().Context(), pid)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Create(c echo.Context) error {
	pid, err := auth.SubjectFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown caller")
	}
	var o Offering
	if err := c.Bind(&o); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateOffering(c.Request().Context(), pid, &o); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, o)
}

func (h *Handler) Get(c echo.Context) error {
	id, pid, err := ids(c)
	if err != nil {
		return err
	}
	o, err := h.svc.GetOwnOffering(c.Request().Context(), id, pid)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) Update(c echo.Context) error {
	id, pid, err := ids(c)
	if err != nil {
		return err
	}
	var p Patch
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	o, err := h.svc.UpdateOffering(c.Request().Context(), id, pid, p)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) Delete(c echo.Context) error {
	id, pid, err := ids(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeactivateOffering(c.Request().Context(), id, pid); err != nil {
		return apperr.HTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Toggle(c echo.Context) error {
	id, pid, err := ids(c)
	if err != nil {
		return err
	}
	o, err := h.svc.ToggleOffering(c.Request().Context(), id, pid)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, o)
}

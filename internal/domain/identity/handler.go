package identity

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/turnoapp/turno/internal/platform/apperr"
	"github.com/turnoapp/turno/internal/platform/auth"
	"github.com/turnoapp/turno/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Registration and public profile lookup
	api.POST("/professionals", h.RegisterProfessional)
	api.POST("/clients", h.RegisterClient)
	api.GET("/professionals/by-url/:url", h.GetProfessionalByURL)

	pro := api.Group("", auth.RequireRole(auth.RoleProfessional))
	pro.GET("/professionals/me", h.GetMyProfessional)
	pro.PUT("/professionals/me/site-config", h.UpdateSiteConfig)

	cli := api.Group("", auth.RequireRole(auth.RoleClient))
	cli.GET("/clients/me", h.GetMyClient)

	read := api.Group("", auth.RequireRole(auth.RoleProfessional, auth.RoleClient))
	read.GET("/professionals/:id", h.GetProfessional)
	read.GET("/clients/:id", h.GetClient)

	admin := api.Group("/admin", auth.RequireRole(auth.RoleAdmin))
	admin.GET("/professionals", h.ListProfessionals)
	admin.GET("/clients", h.ListClients)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func callerID(c echo.Context) (uuid.UUID, error) {
	id, err := auth.SubjectFromContext(c.Request().Context())
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "unknown caller")
	}
	return id, nil
}

// -- Professional Handlers --

func (h *Handler) RegisterProfessional(c echo.Context) error {
	var p Professional
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.RegisterProfessional(c.Request().Context(), &p); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetProfessional(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	p, err := h.svc.GetProfessional(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) GetProfessionalByURL(c echo.Context) error {
	p, err := h.svc.GetProfessionalByURL(c.Request().Context(), c.Param("url"))
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) GetMyProfessional(c echo.Context) error {
	id, err := callerID(c)
	if err != nil {
		return err
	}
	p, err := h.svc.GetProfessional(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdateSiteConfig(c echo.Context) error {
	id, err := callerID(c)
	if err != nil {
		return err
	}
	var body struct {
		SiteConfig json.RawMessage `json:"site_config"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.UpdateSiteConfig(c.Request().Context(), id, body.SiteConfig)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListProfessionals(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListProfessionals(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

// -- Client Handlers --

func (h *Handler) RegisterClient(c echo.Context) error {
	var cl Client
	if err := c.Bind(&cl); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.RegisterClient(c.Request().Context(), &cl); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, cl)
}

func (h *Handler) GetClient(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	cl, err := h.svc.GetClient(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, cl)
}

func (h *Handler) GetMyClient(c echo.Context) error {
	id, err := callerID(c)
	if err != nil {
		return err
	}
	cl, err := h.svc.GetClient(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, cl)
}

func (h *Handler) ListClients(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListClients(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

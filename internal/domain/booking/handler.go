package booking

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/turnoapp/turno/internal/platform/apperr"
	"github.com/turnoapp/turno/internal/platform/auth"
	"github.com/turnoapp/turno/pkg/pagination"
	"github.com/turnoapp/turno/pkg/wallclock"
)

type Handler struct {
	svc     *Service
	maxDays int
}

// NewHandler serves availability and appointments. maxDays bounds the
// date-range availability query.
func NewHandler(svc *Service, maxDays int) *Handler {
	return &Handler{svc: svc, maxDays: maxDays}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/availability/slots", h.AvailableSlots)
	api.GET("/availability/dates", h.AvailabilityByDates)

	appts := api.Group("/appointments")
	appts.POST("", h.Create, auth.RequireRole(auth.RoleClient))

	either := auth.RequireRole(auth.RoleProfessional, auth.RoleClient)
	appts.GET("", h.List, either)
	appts.GET("/:id", h.Get, either)
	appts.PATCH("/:id", h.Reschedule, either)
	appts.PATCH("/:id/status", h.UpdateStatus, either)
}

type createBody struct {
	ServiceID uuid.UUID      `json:"service_id"`
	Date      string         `json:"date"`
	StartTime wallclock.Time `json:"start_time"`
	Notes     *string        `json:"notes"`
}

type rescheduleBody struct {
	Date      string         `json:"date"`
	StartTime wallclock.Time `json:"start_time"`
}

type statusBody struct {
	Status Status `json:"status"`
}

func queryUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.QueryParam(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid or missing "+name)
	}
	return id, nil
}

func queryDate(c echo.Context, name string) (time.Time, error) {
	d, err := ParseDate(c.QueryParam(name))
	if err != nil {
		return time.Time{}, apperr.HTTPError(err)
	}
	return d, nil
}

// validateRange rejects an inverted range or one whose end lies more than
// maxDays after its start.
func validateRange(start, end time.Time, maxDays int) error {
	if end.Before(start) {
		return apperr.Validation("end_date %s is before start_date %s", dateKey(end), dateKey(start))
	}
	if end.After(start.AddDate(0, 0, maxDays)) {
		return apperr.Validation("date range exceeds %d days", maxDays)
	}
	return nil
}

func actorFrom(c echo.Context) (Actor, error) {
	ctx := c.Request().Context()
	id, err := auth.SubjectFromContext(ctx)
	if err != nil {
		return Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "unknown caller")
	}
	return Actor{ID: id, IsProfessional: auth.IsProfessional(ctx)}, nil
}

func appointmentID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func (h *Handler) AvailableSlots(c echo.Context) error {
	pid, err := queryUUID(c, "professional_id")
	if err != nil {
		return err
	}
	sid, err := queryUUID(c, "service_id")
	if err != nil {
		return err
	}
	date, err := queryDate(c, "date")
	if err != nil {
		return err
	}
	res, err := h.svc.AvailableSlots(c.Request().Context(), pid, sid, date)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) AvailabilityByDates(c echo.Context) error {
	pid, err := queryUUID(c, "professional_id")
	if err != nil {
		return err
	}
	sid, err := queryUUID(c, "service_id")
	if err != nil {
		return err
	}
	start, err := queryDate(c, "start_date")
	if err != nil {
		return err
	}
	end, err := queryDate(c, "end_date")
	if err != nil {
		return err
	}
	if err := validateRange(start, end, h.maxDays); err != nil {
		return apperr.HTTPError(err)
	}
	res, err := h.svc.AvailabilityByDates(c.Request().Context(), pid, sid, start, end)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) Create(c echo.Context) error {
	clientID, err := auth.SubjectFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown caller")
	}
	var body createBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	date, err := ParseDate(body.Date)
	if err != nil {
		return apperr.HTTPError(err)
	}
	a, err := h.svc.CreateAppointment(c.Request().Context(), CreateRequest{
		ServiceID: body.ServiceID,
		Date:      date,
		StartTime: body.StartTime,
		Notes:     body.Notes,
	}, clientID)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) List(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	p := pagination.FromContext(c)
	var items []*Appointment
	var total int
	if actor.IsProfessional {
		items, total, err = h.svc.ListForProfessional(c.Request().Context(), actor.ID, p.Limit, p.Offset)
	} else {
		items, total, err = h.svc.ListForClient(c.Request().Context(), actor.ID, p.Limit, p.Offset)
	}
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := appointmentID(c)
	if err != nil {
		return err
	}
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	a, err := h.svc.GetAppointment(ctx, id, Viewer{
		ID:             actor.ID,
		IsProfessional: actor.IsProfessional,
		IsAdmin:        auth.HasRole(ctx, auth.RoleAdmin),
	})
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := appointmentID(c)
	if err != nil {
		return err
	}
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var body statusBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.UpdateAppointmentStatus(c.Request().Context(), id, body.Status, actor)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Reschedule(c echo.Context) error {
	id, err := appointmentID(c)
	if err != nil {
		return err
	}
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var body rescheduleBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	date, err := ParseDate(body.Date)
	if err != nil {
		return apperr.HTTPError(err)
	}
	a, err := h.svc.RescheduleAppointment(c.Request().Context(), id, RescheduleRequest{Date: date, StartTime: body.StartTime}, actor)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, a)
}

package offering

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/turnoapp/turno/internal/platform/auth"
)

func professionalRequest(method, path, body string, pro uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req.WithContext(auth.WithIdentity(req.Context(), pro.String(), auth.RoleProfessional))
}

func TestHandler_Create(t *testing.T) {
	svc, pro := newTestService(t)
	h, e := NewHandler(svc), echo.New()

	body := `{"name":"Masaje","price_cents":1200000,"duration_minutes":60,"deposit_percentage":50}`
	rec := httptest.NewRecorder()
	c := e.NewContext(professionalRequest(http.MethodPost, "/api/v1/services", body, pro), rec)

	if err := h.Create(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var o Offering
	if err := json.Unmarshal(rec.Body.Bytes(), &o); err != nil {
		t.Fatal(err)
	}
	if o.DurationMinutes != 60 || o.ProfessionalID != pro {
		t.Errorf("unexpected offering %+v", o)
	}
}

func TestHandler_Create_Invalid(t *testing.T) {
	svc, pro := newTestService(t)
	h, e := NewHandler(svc), echo.New()

	c := e.NewContext(professionalRequest(http.MethodPost, "/api/v1/services", `{"name":"X","price_cents":100}`, pro), httptest.NewRecorder())
	err := h.Create(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_Delete_OtherProfessional(t *testing.T) {
	svc, pro := newTestService(t)
	o := haircut()
	if err := svc.CreateOffering(context.Background(), pro, o); err != nil {
		t.Fatal(err)
	}
	h, e := NewHandler(svc), echo.New()

	c := e.NewContext(professionalRequest(http.MethodDelete, "/", "", uuid.New()), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(o.ID.String())

	err := h.Delete(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestHandler_ListCatalog(t *testing.T) {
	svc, pro := newTestService(t)
	if err := svc.CreateOffering(context.Background(), pro, haircut()); err != nil {
		t.Fatal(err)
	}
	h, e := NewHandler(svc), echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(pro.String())

	if err := h.ListCatalog(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var items []Offering
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Name != "Corte" {
		t.Errorf("unexpected catalog %+v", items)
	}
}

package identity

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

func newTestHandler() (*Handler, *echo.Echo) {
	return NewHandler(newTestService()), echo.New()
}

func TestHandler_RegisterProfessional(t *testing.T) {
	h, e := newTestHandler()

	body := `{"first_name":"Ana","last_name":"Ruiz","email":"ana@example.com","site_config":{"hero":"Hola"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/professionals", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.RegisterProfessional(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var p Professional
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatal(err)
	}
	if p.FirstName != "Ana" || string(p.SiteConfig) != `{"hero":"Hola"}` {
		t.Errorf("unexpected professional %+v", p)
	}
}

func TestHandler_RegisterClient_BadRequest(t *testing.T) {
	h, e := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/clients", strings.NewReader(`{"last_name":"Doe"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	err := h.RegisterClient(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_GetProfessional_NotFound(t *testing.T) {
	h, e := newTestHandler()

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	err := h.GetProfessional(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestHandler_GetProfessional_InvalidID(t *testing.T) {
	h, e := newTestHandler()

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("42")

	err := h.GetProfessional(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_GetMyClient(t *testing.T) {
	h, e := newTestHandler()
	cl := &Client{FirstName: "Juan", LastName: "Pérez", Email: "juan@example.com"}
	if err := h.svc.RegisterClient(context.Background(), cl); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/clients/me", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), cl.ID.String(), auth.RoleClient))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.GetMyClient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), "juan@example.com") {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestHandler_UpdateSiteConfig(t *testing.T) {
	h, e := newTestHandler()
	p := &Professional{FirstName: "A", LastName: "B", Email: "a@b.com"}
	if err := h.svc.RegisterProfessional(context.Background(), p); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPut, "/api/v1/professionals/me/site-config",
		strings.NewReader(`{"site_config":{"layout":"grid"}}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = req.WithContext(auth.WithIdentity(req.Context(), p.ID.String(), auth.RoleProfessional))
	rec := httptest.NewRecorder()

	if err := h.UpdateSiteConfig(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"layout":"grid"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

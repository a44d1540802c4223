package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths are route templates reachable without a bearer token: health
// checks, registration and the booking pages a prospective client browses.
var publicPaths = map[string]bool{
	"/health":                                true,
	"/health/db":                             true,
	"/api/v1/availability/slots":             true,
	"/api/v1/availability/dates":             true,
	"/api/v1/professionals":                  true,
	"/api/v1/clients":                        true,
	"/api/v1/professionals/by-url/:url":      true,
	"/api/v1/professionals/:id/services":     true,
	"/api/v1/professionals/:id/calendar.ics": true,
}

// AuthSkipper matches on the route template, so it must run after routing.
func AuthSkipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}

func IsPublicPath(path string) bool {
	return publicPaths[path]
}

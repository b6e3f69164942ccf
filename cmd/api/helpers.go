package main

import (
	"net/http"

	"competency-assessment/internal/middleware"
	"competency-assessment/internal/models"
)

// managers are the roles allowed to maintain reference data and users
var managers = []string{models.RoleAdmin, models.RoleHR}

// router registers versioned routes behind authentication
type router struct {
	mux    *http.ServeMux
	authMw *middleware.AuthMiddleware
}

// public registers a route that needs no token
func (rt *router) public(pattern string, h http.HandlerFunc) {
	rt.mux.Handle(pattern, h)
}

// protected registers a route for any authenticated caller, wrapped in the given
// middlewares (outermost first) after authentication
func (rt *router) protected(pattern string, h http.HandlerFunc, mws ...func(http.Handler) http.Handler) {
	rt.mux.Handle(pattern, rt.authMw.Authenticate(middleware.Chain(h, mws...)))
}

// managed registers a route for admin and HR only
func (rt *router) managed(pattern string, h http.HandlerFunc, mws ...func(http.Handler) http.Handler) {
	rt.protected(pattern, h, append([]func(http.Handler) http.Handler{middleware.RequireAnyRole(managers...)}, mws...)...)
}

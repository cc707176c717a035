// Package httpx exposes the account services over HTTP/JSON.
package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/logging"
	"github.com/dmitrijs2005/accounts/internal/server/auth"
	"github.com/dmitrijs2005/accounts/internal/server/models"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	healthCheckTimeout = 2 * time.Second
	maxBodyBytes       = 1 << 20
)

// UserService is what the router needs from services.UserService.
type UserService interface {
	Register(ctx context.Context, in models.NewUser) (*models.User, error)
	Login(ctx context.Context, in models.LoginInput) (*models.LoginResult, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Authenticate(token string) (*auth.Claims, error)
	Update(ctx context.Context, claims *auth.Claims, username string, in models.UserUpdate) (*models.User, error)
	Delete(ctx context.Context, claims *auth.Claims, username string) (*models.User, error)
}

// ImageService is what the router needs from services.ImageService.
type ImageService interface {
	PresignUpload(ctx context.Context, claims *auth.Claims, username string) (*models.ImageUpload, error)
}

// Router wires HTTP endpoints to services.
type Router struct {
	mux      *http.ServeMux
	handler  http.Handler
	logger   logging.Logger
	users    UserService
	images   ImageService
	dbHealth func(context.Context) error
	metrics  *metrics
}

// NewRouter assembles routes and middleware. images and dbHealth may be nil.
func NewRouter(l logging.Logger, us UserService, is ImageService, allowedOrigins []string, dbHealth func(context.Context) error) *Router {
	r := &Router{
		mux:      http.NewServeMux(),
		logger:   l.With("module", "http"),
		users:    us,
		images:   is,
		dbHealth: dbHealth,
		metrics:  newMetrics(),
	}
	r.register()

	r.handler = newCORS(allowedOrigins).Handler(
		r.withRequestID(
			r.audit(
				r.recoverer(r.mux))))

	return r
}

// ServeHTTP runs the middleware chain and the mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

func (r *Router) register() {
	r.mux.HandleFunc("POST /auth/register", r.handleRegister)
	r.mux.HandleFunc("POST /auth/login", r.handleLogin)
	r.mux.HandleFunc("GET /users/{username}", r.handleGetUser)
	r.mux.HandleFunc("PATCH /users/{username}", r.withClaims(r.handleUpdateUser))
	r.mux.HandleFunc("DELETE /users/{username}", r.withClaims(r.handleDeleteUser))
	r.mux.HandleFunc("POST /users/{username}/image", r.withClaims(r.handleImageUpload))
	r.mux.HandleFunc("GET /healthz", r.handleHealthz)
	r.mux.Handle("GET /metrics", promhttp.HandlerFor(r.metrics.registry, promhttp.HandlerOpts{}))
}

type claimsHandler func(w http.ResponseWriter, req *http.Request, claims *auth.Claims)

// withClaims resolves the token header into claims. A missing header is
// treated like an undecodable token.
func (r *Router) withClaims(next claimsHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		token := req.Header.Get(common.TokenHeaderName)
		claims, err := r.users.Authenticate(token)
		if err != nil {
			reason := "malformed"
			if errors.Is(err, common.ErrTokenExpired) {
				reason = "expired"
			}
			r.metrics.recordAuthFailure(reason)
			r.fail(w, req, err, errorSubject{})
			return
		}
		next(w, req, claims)
	}
}

func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) {
	var in models.NewUser
	if !r.decode(w, req, &in) {
		return
	}

	user, err := r.users.Register(req.Context(), in)
	if err != nil {
		r.fail(w, req, err, errorSubject{Username: in.Username, Email: in.Email})
		return
	}

	writeJSON(w, http.StatusCreated, user.Public())
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	var in models.LoginInput
	if !r.decode(w, req, &in) {
		return
	}

	res, err := r.users.Login(req.Context(), in)
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			r.metrics.recordAuthFailure("credentials")
		}
		r.fail(w, req, err, errorSubject{Username: in.Username, Email: in.Email})
		return
	}

	writeJSON(w, http.StatusAccepted, res)
}

func (r *Router) handleGetUser(w http.ResponseWriter, req *http.Request) {
	username := req.PathValue("username")

	user, err := r.users.GetByUsername(req.Context(), username)
	if err != nil {
		r.fail(w, req, err, errorSubject{Username: username})
		return
	}

	writeJSON(w, http.StatusOK, user.Public())
}

func (r *Router) handleUpdateUser(w http.ResponseWriter, req *http.Request, claims *auth.Claims) {
	username := req.PathValue("username")

	var in models.UserUpdate
	if !r.decode(w, req, &in) {
		return
	}

	user, err := r.users.Update(req.Context(), claims, username, in)
	if err != nil {
		r.fail(w, req, err, errorSubject{Username: username})
		return
	}

	writeJSON(w, http.StatusOK, user.Private())
}

func (r *Router) handleDeleteUser(w http.ResponseWriter, req *http.Request, claims *auth.Claims) {
	username := req.PathValue("username")

	user, err := r.users.Delete(req.Context(), claims, username)
	if err != nil {
		r.fail(w, req, err, errorSubject{Username: username})
		return
	}

	writeJSON(w, http.StatusOK, models.DeletedUser{DeletedUser: user.Public()})
}

func (r *Router) handleImageUpload(w http.ResponseWriter, req *http.Request, claims *auth.Claims) {
	if r.images == nil {
		writeError(w, http.StatusNotImplemented, "image uploads are not configured")
		return
	}
	username := req.PathValue("username")

	upload, err := r.images.PresignUpload(req.Context(), claims, username)
	if err != nil {
		r.fail(w, req, err, errorSubject{Username: username})
		return
	}

	writeJSON(w, http.StatusOK, upload)
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			r.logger.Warn(ctx, "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decode reads a JSON body into dst and answers 400 when it cannot.
func (r *Router) decode(w http.ResponseWriter, req *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// fail logs unexpected errors and writes the mapped response.
func (r *Router) fail(w http.ResponseWriter, req *http.Request, err error, subj errorSubject) {
	status, detail := errorResponse(err, subj)
	if status >= http.StatusInternalServerError || status == http.StatusUnprocessableEntity {
		r.logger.Error(req.Context(), "request failed", "path", req.URL.Path, "error", err)
	}
	writeError(w, status, detail)
}

// Package gateway exposes the session manager to the UI tier over local
// HTTP. It holds no session logic of its own: every handler translates a
// request into one manager operation and replies with the resulting
// session snapshot.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nenelamp/cyberguard/internal/authapi"
	"github.com/nenelamp/cyberguard/internal/config"
	"github.com/nenelamp/cyberguard/internal/model"
	"github.com/nenelamp/cyberguard/internal/session"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Gateway struct {
	log     *zap.Logger
	session *session.Manager
	server  *http.Server
}

type Params struct {
	fx.In

	Log     *zap.Logger
	Config  *config.Config
	Session *session.Manager
}

func New(p Params) *Gateway {
	g := &Gateway{
		log:     p.Log,
		session: p.Session,
	}

	root := chi.NewRouter()
	root.Route("/session", func(r chi.Router) {
		r.Get("/", g.getSession)
		r.Post("/login", g.login)
		r.Post("/signup", g.signup)
		r.Post("/logout", g.logout)
		r.Patch("/user", g.updateUser)
		r.Post("/refresh", g.refresh)
		r.Delete("/error", g.clearError)
	})

	g.server = &http.Server{
		Addr:    p.Config.Gateway.Addr,
		Handler: root,
	}
	return g
}

// RegisterHooks should be invoked by fx.
func RegisterHooks(lc fx.Lifecycle, g *Gateway) {
	lc.Append(fx.Hook{
		OnStart: g.Start,
		OnStop:  g.server.Shutdown,
	})
}

func (g *Gateway) Start(_ context.Context) error {
	go func() {
		err := g.server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			g.log.Error("gateway server stopped", zap.Error(err))
		}
	}()
	return nil
}

func (g *Gateway) getSession(w http.ResponseWriter, _ *http.Request) {
	g.writeState(w, http.StatusOK)
}

func (g *Gateway) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &body) {
		return
	}

	if !g.session.Login(r.Context(), body.Email, body.Password) {
		g.writeState(w, http.StatusUnauthorized)
		return
	}
	g.writeState(w, http.StatusOK)
}

func (g *Gateway) signup(w http.ResponseWriter, r *http.Request) {
	var req authapi.SignupRequest
	if !decode(w, r, &req) {
		return
	}

	if !g.session.Signup(r.Context(), req) {
		g.writeState(w, http.StatusBadRequest)
		return
	}
	g.writeState(w, http.StatusOK)
}

func (g *Gateway) logout(w http.ResponseWriter, _ *http.Request) {
	g.session.Logout()
	g.writeState(w, http.StatusOK)
}

func (g *Gateway) updateUser(w http.ResponseWriter, r *http.Request) {
	var patch model.UserPatch
	if !decode(w, r, &patch) {
		return
	}

	g.session.UpdateUser(patch)
	g.writeState(w, http.StatusOK)
}

func (g *Gateway) refresh(w http.ResponseWriter, r *http.Request) {
	g.session.RefreshUser(r.Context())
	g.writeState(w, http.StatusOK)
}

func (g *Gateway) clearError(w http.ResponseWriter, _ *http.Request) {
	g.session.ClearError()
	g.writeState(w, http.StatusOK)
}

func (g *Gateway) writeState(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(g.session.Snapshot()); err != nil {
		g.log.Error("encoding session state", zap.Error(err))
	}
}

func decode(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return false
	}
	return true
}

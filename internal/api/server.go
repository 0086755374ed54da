// Package api exposes the ledger's write surface and the mirror's query
// surface as a JSON HTTP API.
package api

import (
	"net/http"

	"github.com/splitrix/splitrix/internal/auth"
	"github.com/splitrix/splitrix/internal/ledger"
	"github.com/splitrix/splitrix/internal/metrics"
	"github.com/splitrix/splitrix/internal/mirror"
)

// Server wires the ledger, mirror, and auth components into HTTP handlers.
type Server struct {
	ledger  *ledger.Ledger
	mirror  *mirror.DB
	auth    *auth.Authenticator
	jwt     *auth.JWTManager
	metrics *metrics.Metrics
}

// NewServer creates an API server.
func NewServer(l *ledger.Ledger, m *mirror.DB, a *auth.Authenticator, jwt *auth.JWTManager, met *metrics.Metrics) *Server {
	return &Server{ledger: l, mirror: m, auth: a, jwt: jwt, metrics: met}
}

// Handler builds the route table with middleware applied. Write endpoints
// require a valid session token; query endpoints are open, matching the
// original deployment where reads are public chain state.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)

	mux.Handle("POST /api/groups", s.requireAuth(s.handleCreateGroup))
	mux.Handle("POST /api/bills", s.requireAuth(s.handleCreateBill))
	mux.Handle("POST /api/bills/settle", s.requireAuth(s.handleSettleBill))

	mux.HandleFunc("GET /api/groups/{id}", s.handleGetGroup)
	mux.HandleFunc("GET /api/groups/{id}/bills", s.handleListGroupBills)
	mux.HandleFunc("GET /api/groups/{id}/balances", s.handleGroupBalances)
	mux.HandleFunc("GET /api/bills/{groupId}/{billId}", s.handleGetBill)
	mux.HandleFunc("GET /api/users/{address}/bills", s.handleListUserBills)
	mux.HandleFunc("GET /api/users/{address}/groups", s.handleListUserGroups)

	mux.Handle("GET /metrics", s.metrics.Handler())

	return requestIDMiddleware(loggingMiddleware(corsMiddleware(s.metricsMiddleware(mux))))
}

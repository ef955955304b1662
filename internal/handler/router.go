package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/credit-engine/internal/metrics"
	"github.com/segyhp/credit-engine/pkg/response"
)

// Routes bundles everything the router dispatches to.
type Routes struct {
	Credits  *CreditHandler
	Auth     *AuthHandler
	Health   *HealthHandler
	Tokens   TokenParser
	Metrics  *metrics.Ledger
	Gatherer prometheus.Gatherer
	Log      logrus.FieldLogger
}

// NewRouter wires the API. CORS wraps the whole router so preflight requests
// are answered even though no route accepts OPTIONS.
func NewRouter(routes Routes) http.Handler {
	router := mux.NewRouter()
	router.Use(LoggingMiddleware(routes.Log, routes.Metrics))

	// Health check
	router.HandleFunc("/health", routes.Health.Health).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", routes.Health.Ready).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(routes.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/login", routes.Auth.Login).Methods(http.MethodPost)

	secured := api.NewRoute().Subrouter()
	secured.Use(AuthMiddleware(routes.Tokens, routes.Log))

	secured.HandleFunc("/credits", routes.Credits.CreateCredit).Methods(http.MethodPost)
	secured.HandleFunc("/credits", routes.Credits.ListOwnCredits).Methods(http.MethodGet)
	secured.HandleFunc("/credits/{creditId}", routes.Credits.GetCredit).Methods(http.MethodGet)
	secured.HandleFunc("/credits/{creditId}", routes.Credits.RemoveCredit).Methods(http.MethodDelete)
	secured.HandleFunc("/credits/{creditId}/payments", routes.Credits.ListPayments).Methods(http.MethodGet)
	secured.HandleFunc("/users/{userId}/credits", routes.Credits.ListUserCredits).Methods(http.MethodGet)
	secured.HandleFunc("/payments", routes.Credits.ApplyPayment).Methods(http.MethodPost)

	return response.CORSMiddleware(router)
}

package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Handler serves the admin API.
type Handler struct {
	services *Services
	log      *zap.Logger
}

func NewHandler(services *Services, log *zap.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// NewRouter mounts the API. With a nil authenticator only the health
// endpoints are served.
func NewRouter(h *Handler, auth *Authenticator, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { writeSuccess(w, http.StatusOK, "ok") })

	if auth == nil {
		return r
	}
	r.Route("/v1", func(r chi.Router) {
		r.Use(auth.Middleware)

		r.Route("/affiliates", func(r chi.Router) {
			r.Post("/", h.createAccount)
			r.Get("/by-external/{externalUserID}", h.getStatsByExternal)
			r.Get("/by-code/{code}", h.findByCode)
			r.Route("/{accountID}", func(r chi.Router) {
				r.Get("/", h.getStats)
				r.Get("/transactions", h.listTransactions)
				r.Post("/earn", h.earnPoints)
				r.Post("/redeem", h.redeemPoints)
				r.Put("/custom-code", h.setCustomCode)
				r.Post("/reconcile", h.reconcileAccount)
			})
		})

		r.Route("/partners", func(r chi.Router) {
			r.Post("/", h.createPartner)
			r.Route("/{partnerID}", func(r chi.Router) {
				r.Get("/", h.getPartner)
				r.Get("/earnings", h.getEarnings)
				r.Get("/commissions/pending", h.listPendingCommissions)
				r.Post("/commissions", h.recordCommission)
				r.Get("/payouts", h.listPayouts)
				r.Post("/payouts", h.createPayout)
			})
		})

		r.Post("/commissions/{commissionID}/void", h.voidCommission)
		r.Post("/payouts/{payoutID}/mark-paid", h.markPaid)
		r.Post("/payouts/{payoutID}/settle", h.settlePayout)

		r.Get("/admin/browse", h.listResources)
		r.Get("/admin/browse/{resource}", h.browse)
	})
	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dangerclosesec/agiletrack/internal/auth"
	"github.com/dangerclosesec/agiletrack/internal/middleware"
	"github.com/dangerclosesec/agiletrack/internal/service"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type RouterConfig struct {
	Services       *service.Services
	TokenManager   *auth.TokenManager
	Logger         *slog.Logger
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// NewRouter builds the HTTP API.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	svc := cfg.Services

	orgHandler := NewOrganizationHandler(svc.Organizations, logger)
	projectHandler := NewProjectHandler(svc.Projects, svc.Metrics, logger)
	taskHandler := NewTaskHandler(svc.Tasks, logger)
	reportHandler := NewReportHandler(svc.Reports, logger)
	budgetHandler := NewBudgetHandler(svc.Budgets, logger)
	expenseHandler := NewExpenseHandler(svc.Expenses, logger)
	auditHandler := NewAuthzAuditLogHandler(svc.AuditLogs, logger)

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"https://*", "http://*"}
	}

	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Timeout(timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(chimw.AllowContentType("application/json"))
		r.Use(middleware.AuthMiddleware(cfg.TokenManager))
		r.Use(middleware.AuthzAuditMiddleware)

		r.Get("/orgs", orgHandler.ListMine)
		r.Post("/orgs", orgHandler.Create)

		r.Route("/orgs/{slug}", func(r chi.Router) {
			r.Get("/", orgHandler.Get)
			r.Patch("/", orgHandler.Update)

			r.Get("/members", orgHandler.ListMembers)
			r.Post("/members", orgHandler.AddMember)
			r.Patch("/members/{memberID}", orgHandler.UpdateMember)
			r.Delete("/members/{memberID}", orgHandler.RemoveMember)

			r.Get("/audit-logs", auditHandler.GetAuditLogs)

			r.Get("/projects", projectHandler.List)
			r.Post("/projects", projectHandler.Create)
			r.Route("/projects/{projectID}", func(r chi.Router) {
				r.Get("/", projectHandler.Get)
				r.Patch("/", projectHandler.Update)
				r.Delete("/", projectHandler.Delete)

				r.Get("/metrics", projectHandler.Metrics)
				r.Get("/metrics.xlsx", projectHandler.MetricsXLSX)

				r.Get("/phases", projectHandler.ListPhases)
				r.Post("/phases", projectHandler.CreatePhase)
				r.Patch("/phases/{phaseID}", projectHandler.UpdatePhase)
				r.Delete("/phases/{phaseID}", projectHandler.DeletePhase)

				r.Get("/tasks", taskHandler.List)
				r.Post("/tasks", taskHandler.Create)
				r.Get("/tasks/{taskID}", taskHandler.Get)
				r.Patch("/tasks/{taskID}", taskHandler.Update)
				r.Delete("/tasks/{taskID}", taskHandler.Delete)
				r.Post("/tasks/{taskID}/comments", taskHandler.Comment)

				r.Get("/reports", reportHandler.List)
				r.Post("/reports", reportHandler.Create)
				r.Post("/reports/{reportID}/{action}", reportHandler.Transition)
			})

			r.Get("/budgets", budgetHandler.List)
			r.Post("/budgets", budgetHandler.Create)
			r.Patch("/budgets/{budgetID}", budgetHandler.Update)
			r.Delete("/budgets/{budgetID}", budgetHandler.Delete)
			r.Post("/budgets/{budgetID}/approve", budgetHandler.Approve)

			r.Get("/expenses", expenseHandler.List)
			r.Post("/expenses", expenseHandler.Submit)
			r.Post("/expenses/{expenseRef}/{action}", expenseHandler.Decide)
		})
	})

	return r
}

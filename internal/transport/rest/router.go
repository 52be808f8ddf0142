package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/dealership-crm/internal/auth"
	"github.com/frahmantamala/dealership-crm/internal/cloudsync"
	"github.com/frahmantamala/dealership-crm/internal/portal"
	"github.com/frahmantamala/dealership-crm/internal/script"
	"github.com/frahmantamala/dealership-crm/internal/seller"
	"github.com/frahmantamala/dealership-crm/internal/setting"
	"github.com/frahmantamala/dealership-crm/internal/stock"
	"github.com/frahmantamala/dealership-crm/internal/transport/middleware"
	"github.com/frahmantamala/dealership-crm/internal/transport/swagger"
	"github.com/frahmantamala/dealership-crm/internal/user"
	"github.com/frahmantamala/dealership-crm/internal/visit"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

// Handlers groups the domain handlers; a nil handler leaves its routes out.
type Handlers struct {
	Auth    *auth.Handler
	User    *user.Handler
	Visit   *visit.Handler
	Stock   *stock.Handler
	Seller  *seller.Handler
	Portal  *portal.Handler
	Script  *script.Handler
	Setting *setting.Handler
	Sync    *cloudsync.Handler
}

type Options struct {
	LocalDB        *sql.DB
	CloudDB        *sql.DB
	AllowedOrigins string
	OpenAPIPath    string
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, opts Options, logger *slog.Logger) {
	healthHandler := NewHealthHandler(opts.LocalDB, opts.CloudDB)
	rbac := auth.NewRBACAuthorization(nil, logger)
	checker := auth.NewPermissionChecker()

	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	openAPIPath := opts.OpenAPIPath
	if openAPIPath == "" {
		openAPIPath = "./api/openapi.yml"
	}
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, openAPIPath)
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if h.Auth == nil {
			return
		}

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
			sr.Post("/logout", h.Auth.Logout)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)
			pr.Use(middleware.UserContext)

			if h.User != nil {
				pr.Route("/users", func(ur chi.Router) {
					ur.Get("/me", h.User.GetCurrentUser)
					ur.Put("/me/password", h.User.ChangePassword)
					ur.Get("/{username}", h.User.GetUser)

					ur.Group(func(mr chi.Router) {
						mr.Use(rbac.RequireManager())
						mr.Get("/", h.User.ListUsers)
						mr.Post("/", h.User.CreateUser)
						mr.Put("/{username}", h.User.UpdateUser)
						mr.Delete("/{username}", h.User.DeleteUser)
						mr.Put("/{username}/active", h.User.SetUserActive)
						mr.Post("/{username}/reset-password", h.User.ResetPassword)
					})
				})
			}

			if h.Visit != nil {
				pr.Route("/visits", func(vr chi.Router) {
					vr.Use(middleware.RequirePermissions(checker, auth.PermissionVisits))
					vr.Get("/", h.Visit.ListVisits)
					vr.Post("/", h.Visit.CreateVisit)
					vr.Get("/{id}", h.Visit.GetVisit)
					vr.Put("/{id}", h.Visit.UpdateVisit)
					vr.Put("/{id}/status", h.Visit.UpdateVisitStatus)
					vr.Put("/{id}/seller", h.Visit.AssignSeller)
					vr.Delete("/{id}", h.Visit.DeleteVisit)
				})
			}

			if h.Stock != nil {
				pr.Route("/stock", func(sr chi.Router) {
					sr.Use(middleware.RequirePermissions(checker, auth.PermissionStock))
					sr.Get("/", h.Stock.ListStock)
					sr.Post("/", h.Stock.CreateItem)
					sr.Get("/{id}", h.Stock.GetItem)
					sr.Put("/{id}", h.Stock.UpdateItem)
					sr.Put("/{id}/photos", h.Stock.SetPhotos)
					sr.Delete("/{id}", h.Stock.DeleteItem)
				})
			}

			if h.Seller != nil {
				pr.Route("/sellers", func(sr chi.Router) {
					sr.Use(middleware.RequirePermissions(checker, auth.PermissionSellers, auth.PermissionVisits))
					sr.Get("/", h.Seller.ListSellers)
					sr.Get("/{id}", h.Seller.GetSeller)

					sr.Group(func(mr chi.Router) {
						mr.Use(middleware.RequirePermissions(checker, auth.PermissionSellers))
						mr.Post("/", h.Seller.CreateSeller)
						mr.Put("/{id}", h.Seller.UpdateSeller)
						mr.Put("/{id}/active", h.Seller.SetSellerActive)
						mr.Delete("/{id}", h.Seller.DeleteSeller)
					})
				})
			}

			if h.Portal != nil {
				pr.Route("/portals", func(sr chi.Router) {
					sr.Use(middleware.RequirePermissions(checker, auth.PermissionPortals))
					sr.Get("/", h.Portal.ListPortals)
					sr.Post("/", h.Portal.CreatePortal)
					sr.Get("/{id}", h.Portal.GetPortal)
					sr.Put("/{id}", h.Portal.UpdatePortal)
					sr.Delete("/{id}", h.Portal.DeletePortal)
				})
			}

			if h.Script != nil {
				pr.Route("/scripts", func(sr chi.Router) {
					sr.Use(middleware.RequirePermissions(checker, auth.PermissionScripts))
					sr.Get("/", h.Script.ListScripts)
					sr.Post("/", h.Script.CreateScript)
					sr.Put("/order", h.Script.ReorderScripts)
					sr.Get("/{id}", h.Script.GetScript)
					sr.Put("/{id}", h.Script.UpdateScript)
					sr.Delete("/{id}", h.Script.DeleteScript)
				})
			}

			if h.Setting != nil {
				pr.Group(func(cr chi.Router) {
					cr.Use(rbac.Middleware(auth.PermissionSettings))
					cr.Get("/config", h.Setting.ListConfig)
					cr.Get("/config/{key}", h.Setting.GetConfig)
					cr.Put("/config/{key}", h.Setting.PutConfig)
					cr.Delete("/config/{key}", h.Setting.DeleteConfig)
				})

				pr.Route("/settings", func(sr chi.Router) {
					sr.Use(rbac.RequireManager())
					sr.Get("/", h.Setting.ListSettings)
					sr.Put("/", h.Setting.PutSettings)
					sr.Get("/{key}", h.Setting.GetSetting)
					sr.Put("/{key}", h.Setting.PutSetting)
					sr.Delete("/{key}", h.Setting.DeleteSetting)
				})
			}

			if h.Sync != nil {
				pr.Route("/sync", func(sr chi.Router) {
					sr.Get("/status", h.Sync.Status)

					sr.Group(func(mr chi.Router) {
						mr.Use(rbac.RequireManager())
						mr.Post("/pull", h.Sync.Pull)
						mr.Post("/pull/{table}", h.Sync.PullTable)
						mr.Post("/push", h.Sync.Push)
					})
				})
			}
		})
	})
}

// Command softdesk serves the SoftDesk project tracking API.
//
// @title SoftDesk API
// @version 1.0
// @description Project and issue tracking API. Every endpoint except registration and token issuance requires a Bearer access token.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/user/softdesk-go/apperror"
	"github.com/user/softdesk-go/auth"
	"github.com/user/softdesk-go/comments"
	"github.com/user/softdesk-go/config"
	"github.com/user/softdesk-go/contributors"
	"github.com/user/softdesk-go/db"
	_ "github.com/user/softdesk-go/docs" // Generated Swagger docs
	"github.com/user/softdesk-go/httpx"
	"github.com/user/softdesk-go/issues"
	"github.com/user/softdesk-go/projects"
	"github.com/user/softdesk-go/users"
)

func main() {
	app := &cli.App{
		Name:  "softdesk",
		Usage: "project and issue tracking API",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run migrations and start the HTTP server",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "apply pending database migrations and exit",
				Action: migrateOnly,
			},
		},
		Action: serve,
	}
	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("softdesk exited with an error")
	}
}

// bootstrap loads .env and the configuration, and sets up logging.
func bootstrap() (*config.AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Debug(".env file not loaded")
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	setupLogging(cfg.Log)
	return cfg, nil
}

func setupLogging(cfg *config.LogConfig) {
	if strings.EqualFold(cfg.Env, "production") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logrus.WithField("level", cfg.Level).Warn("unknown LOG_LEVEL, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

func migrateOnly(c *cli.Context) error {
	cfg, err := bootstrap()
	if err != nil {
		return err
	}
	conn, closeDB, err := db.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer closeDB()
	return db.RunMigrations(conn, cfg.Database)
}

func serve(c *cli.Context) error {
	cfg, err := bootstrap()
	if err != nil {
		return err
	}
	conn, closeDB, err := db.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := db.RunMigrations(conn, cfg.Database); err != nil {
		return err
	}

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      newRouter(conn, cfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logrus.WithFields(logrus.Fields{"addr": addr, "driver": cfg.Database.Driver}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logrus.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logrus.Info("server stopped gracefully")
	return nil
}

// newRouter wires every service and handler onto a chi router.
func newRouter(conn *sqlx.DB, cfg *config.AppConfig) http.Handler {
	authService := auth.NewAuthService(conn, *cfg.Auth)
	requireAuth := auth.JWTMiddleware(cfg.Auth, authService)

	authHandlers := auth.NewHandlers(authService)
	userHandlers := users.NewUserHandlers(users.NewUserService(conn, *cfg.Users))
	projectHandlers := projects.NewProjectHandlers(projects.NewProjectService(conn))
	contributorHandlers := contributors.NewContributorHandlers(contributors.NewContributorService(conn))
	issueHandlers := issues.NewIssueHandlers(issues.NewIssueService(conn))
	commentHandlers := comments.NewCommentHandlers(comments.NewCommentService(conn))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpx.RequestLogger)
	r.Use(recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Get("/healthz", handleHealth(conn))

	r.Route("/api/token", authHandlers.RegisterRoutes)
	r.Route("/api/users", func(r chi.Router) {
		userHandlers.RegisterRoutes(r, requireAuth)
	})
	r.Route("/api/projects", func(r chi.Router) {
		r.Use(requireAuth)
		projectHandlers.RegisterRoutes(r, func(r chi.Router) {
			r.Route("/contributors", contributorHandlers.RegisterRoutes)
			r.Route("/issues", func(r chi.Router) {
				issueHandlers.RegisterRoutes(r, func(r chi.Router) {
					r.Route("/comments", commentHandlers.RegisterRoutes)
				})
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, r, apperror.NewNotFoundError("route not found", nil))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, r, apperror.NewMethodNotAllowedError(
			fmt.Sprintf("method %s is not allowed on %s", r.Method, r.URL.Path)))
	})
	return r
}

// recoverer turns a panicking handler into a JSON 500 response.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				logrus.WithFields(logrus.Fields{
					"request_id": middleware.GetReqID(r.Context()),
					"panic":      rvr,
				}).Error("handler panicked")
				httpx.WriteError(w, r, apperror.NewInternalError("internal server error", nil))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// handleHealth godoc
// @Summary Liveness and database check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /healthz [get]
func handleHealth(conn *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := conn.PingContext(ctx); err != nil {
			logrus.WithError(err).Warn("health check failed")
			httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

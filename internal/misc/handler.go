package misc

import (
	"context"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/2beens/babymoves/internal/telemetry/tracing"
	"github.com/2beens/babymoves/pkg"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const healthCheckTimeout = 3 * time.Second

// storePinger is implemented by the stores that can report their own health.
type storePinger interface {
	Ping(ctx context.Context) error
}

type HealthStatus struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Redis   string `json:"redis"`
	Store   string `json:"store"`
}

type Handler struct {
	versionInfo string
	redisClient *redis.Client
	store       any
	frontendDir string
}

// NewHandler creates the misc handler. store is checked on /health only when
// it can be pinged, frontendDir is served when not empty.
func NewHandler(versionInfo string, redisClient *redis.Client, store any, frontendDir string) *Handler {
	return &Handler{
		versionInfo: versionInfo,
		redisClient: redisClient,
		store:       store,
		frontendDir: frontendDir,
	}
}

// SetupRoutes registers the misc routes. The frontend catch-all is registered
// last, so call it after all the other handlers set up their routes.
func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	mainRouter.HandleFunc("/health", handler.handleHealth).Methods("GET").Name("health")
	mainRouter.HandleFunc("/version", handler.handleGetVersionInfo).Methods("GET").Name("version")

	if handler.frontendDir == "" {
		mainRouter.HandleFunc("/", handler.handleRoot).Methods("GET", "OPTIONS").Name("root")
		return
	}

	mainRouter.PathPrefix("/").Handler(&frontendHandler{dir: handler.frontendDir}).Methods("GET").Name("frontend")
}

func (handler *Handler) handleRoot(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, "I'm OK, thanks ;)")
}

func (handler *Handler) handleGetVersionInfo(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, handler.versionInfo)
}

func (handler *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "miscHandler.health")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	status := HealthStatus{
		Status:  "ok",
		Version: handler.versionInfo,
		Redis:   "disabled",
		Store:   "unchecked",
	}

	if handler.redisClient != nil {
		if err := handler.redisClient.Ping(ctx).Err(); err != nil {
			log.Errorf("health check, redis ping: %s", err)
			status.Redis = "unavailable"
			status.Status = "degraded"
		} else {
			status.Redis = "ok"
		}
	}

	if pinger, ok := handler.store.(storePinger); ok {
		if err := pinger.Ping(ctx); err != nil {
			log.Errorf("health check, store ping: %s", err)
			status.Store = "unavailable"
			status.Status = "degraded"
		} else {
			status.Store = "ok"
		}
	}

	span.SetAttributes(attribute.String("health.status", status.Status))

	statusCode := http.StatusOK
	if status.Status != "ok" {
		statusCode = http.StatusServiceUnavailable
	}
	pkg.WriteJSON(w, status, statusCode)
}

// frontendHandler serves the built capture form and history view.
// Paths that do not match a file get index.html, client side routing takes it from there.
// Unknown api paths get a 404.
type frontendHandler struct {
	dir string
}

const apiPathPrefix = "/api/"

func (h *frontendHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cleanPath := path.Clean("/" + r.URL.Path)
	if cleanPath+"/" == apiPathPrefix || strings.HasPrefix(cleanPath, apiPathPrefix) {
		http.NotFound(w, r)
		return
	}
	filePath := filepath.Join(h.dir, filepath.FromSlash(cleanPath))

	exists, err := pkg.PathExists(filePath, false)
	if err != nil || !exists {
		http.ServeFile(w, r, filepath.Join(h.dir, "index.html"))
		return
	}

	http.ServeFile(w, r, filePath)
}

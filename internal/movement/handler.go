package movement

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/2beens/babymoves/internal/middleware"
	"github.com/2beens/babymoves/internal/telemetry/metrics"
	"github.com/2beens/babymoves/internal/telemetry/tracing"
	"github.com/2beens/babymoves/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=movement_test

type service interface {
	Add(ctx context.Context, event Event) (*Event, error)
	ByDay(ctx context.Context) (map[string][]DayEntry, error)
	History(ctx context.Context, params HistoryParams) (*History, error)
}

const maxGridSize = 30

type Handler struct {
	service service
}

func NewHandler(service service) *Handler {
	return &Handler{
		service: service,
	}
}

// SetupRoutes registers the movement api. The write route is rate limited
// when a limiter is given and allowedPerMin is positive.
func (h *Handler) SetupRoutes(
	mainRouter *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	metricsManager *metrics.Manager,
	allowedPerMin int,
) {
	apiRouter := mainRouter.PathPrefix("/api/v1").Subrouter()

	var addHandler http.Handler = http.HandlerFunc(h.HandleAdd)
	if rateLimiter != nil && allowedPerMin > 0 {
		addHandler = middleware.RateLimit(rateLimiter, "movement-write", allowedPerMin, metricsManager)(addHandler)
	}

	apiRouter.Handle("/movement", addHandler).Methods("POST", "OPTIONS").Name("new-movement")
	apiRouter.HandleFunc("/movement", h.HandleByDay).Methods("GET").Name("list-movements")
	apiRouter.HandleFunc("/movement/stats", h.HandleStats).Methods("GET").Name("movement-stats")
	apiRouter.HandleFunc("/positions", h.HandlePositions).Methods("GET").Name("positions")
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.movement.new")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	if mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mediaType != pkg.ContentType.JSON {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var event Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		log.Tracef("new movement, unmarshal json params: %s", err)
		http.Error(w, "add movement failed, invalid json", http.StatusBadRequest)
		return
	}

	added, err := h.service.Add(ctx, event)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidEvent):
			log.Debugf("new movement rejected: %s", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrStoreUnavailable):
			log.Errorf("failed to add new movement [%s] [%s]: %s", event.Type, event.Position, err)
			http.Error(w, "error, movement store unavailable", http.StatusServiceUnavailable)
		default:
			log.Errorf("failed to add new movement [%s] [%s]: %s", event.Type, event.Position, err)
			http.Error(w, "error, failed to add new movement", http.StatusInternalServerError)
		}
		return
	}

	log.Debugf("new movement added: %s %s, %s at %s", added.Date, added.Time, added.Type, added.Position)
	pkg.WriteJSON(w, added, http.StatusCreated)
}

func (h *Handler) HandleByDay(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.movement.byday")
	defer span.End()

	byDay, err := h.service.ByDay(ctx)
	if err != nil {
		h.writeFetchError(w, "list movements", err)
		return
	}

	pkg.WriteJSON(w, byDay, http.StatusOK)
}

func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.movement.stats")
	defer span.End()

	columns, err := gridParam(r, "columns", DefaultColumns)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rows, err := gridParam(r, "rows", DefaultRows)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	history, err := h.service.History(ctx, HistoryParams{
		Columns: columns,
		Rows:    rows,
	})
	if err != nil {
		h.writeFetchError(w, "movement stats", err)
		return
	}

	pkg.WriteJSON(w, history, http.StatusOK)
}

func (h *Handler) HandlePositions(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteJSON(w, PositionMappings(), http.StatusOK)
}

func (h *Handler) writeFetchError(w http.ResponseWriter, op string, err error) {
	log.Errorf("%s: %s", op, err)
	if errors.Is(err, ErrStoreUnavailable) {
		http.Error(w, "error, movement store unavailable", http.StatusServiceUnavailable)
		return
	}
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func gridParam(r *http.Request, name string, defaultValue int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 || v > maxGridSize {
		return 0, errors.New("error, invalid " + name)
	}
	return v, nil
}

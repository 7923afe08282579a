package handler

import (
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/gorilla/mux"
	"github.com/personnel-api/internal/dto"
	"github.com/personnel-api/internal/middleware"
	"github.com/personnel-api/internal/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig - параметры маршрутизации, не относящиеся к обработчикам
type RouterConfig struct {
	MetricsPath string
	UploadsDir  string
}

// Router настраивает маршруты API
type Router struct {
	cfg           RouterConfig
	logger        *slog.Logger
	subHandler    *SubdivisionHandler
	workerHandler *WorkerHandler
}

// NewRouter создаёт новый роутер
func NewRouter(cfg RouterConfig, subHandler *SubdivisionHandler, workerHandler *WorkerHandler, logger *slog.Logger) *Router {
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	return &Router{
		cfg:           cfg,
		logger:        logger,
		subHandler:    subHandler,
		workerHandler: workerHandler,
	}
}

// Setup настраивает все маршруты
func (r *Router) Setup() http.Handler {
	root := mux.NewRouter()

	root.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	root.Handle(r.cfg.MetricsPath, promhttp.Handler()).Methods(http.MethodGet)

	if r.cfg.UploadsDir != "" {
		prefix := "/" + storage.ImagesDir + "/"
		images := http.FileServer(http.Dir(filepath.Join(r.cfg.UploadsDir, storage.ImagesDir)))
		root.PathPrefix(prefix).Handler(http.StripPrefix(prefix, images)).Methods(http.MethodGet)
	}

	api := root.NewRoute().Subrouter()
	api.Use(middleware.Metrics, middleware.ContentType)

	api.HandleFunc("/subdivisions", r.subHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/subdivisions", r.subHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/subdivisions/{id}", r.subHandler.GetByID).Methods(http.MethodGet)
	api.HandleFunc("/subdivisions/{id}", r.subHandler.Update).Methods(http.MethodPut)
	api.HandleFunc("/subdivisions/{id}/liquidate", r.subHandler.Liquidate).Methods(http.MethodPost)

	// отчёты регистрируются раньше /workers/{id}
	api.HandleFunc("/workers/report", r.workerHandler.Report).Methods(http.MethodGet)
	api.HandleFunc("/workers/report.xlsx", r.workerHandler.ReportXLSX).Methods(http.MethodGet)
	api.HandleFunc("/workers", r.workerHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/workers", r.workerHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/workers/{id}", r.workerHandler.GetByID).Methods(http.MethodGet)
	api.HandleFunc("/workers/{id}", r.workerHandler.Update).Methods(http.MethodPut)
	api.HandleFunc("/workers/{id}/fire", r.workerHandler.Fire).Methods(http.MethodPost)
	api.HandleFunc("/workers/{id}/transfer", r.workerHandler.Transfer).Methods(http.MethodPost)

	notFound := responder{logger: r.logger}
	root.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		notFound.respondJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "not found"})
	})
	root.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		notFound.respondJSON(w, http.StatusMethodNotAllowed, dto.ErrorResponse{Error: "method not allowed"})
	})

	// Применяем middleware
	var handler http.Handler = root
	handler = middleware.Logger(r.logger)(handler)
	handler = middleware.Recoverer(r.logger)(handler)

	return handler
}

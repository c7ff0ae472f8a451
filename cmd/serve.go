package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sardarchitect/anthill/internal/analysis"
	"github.com/sardarchitect/anthill/internal/model"
	"github.com/sardarchitect/anthill/internal/sceneio"
	"github.com/sardarchitect/anthill/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		classify, err := initClassifier()
		if err != nil {
			return err
		}

		api := &apiEnv{
			store:       st,
			classify:    classify,
			storyHeight: cfg.Analysis.StoryHeight,
		}

		port := resolvePort(servePort, cfg.Server.Port)
		return startServer(ctx, buildRouter(api), port)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// resolvePort picks the flag value when set and falls back to the config.
func resolvePort(flagPort, cfgPort int) int {
	if flagPort != 0 {
		return flagPort
	}
	return cfgPort
}

// startServer runs the HTTP server until ctx is cancelled, then shuts it
// down gracefully.
func startServer(ctx context.Context, handler http.Handler, port int) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("starting server", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server listen")
	}

	return nil
}

// apiEnv holds the dependencies shared by the API handlers.
type apiEnv struct {
	store       store.Store
	classify    analysis.Classifier
	storyHeight float64
}

// buildRouter assembles the API routes.
func buildRouter(api *apiEnv) http.Handler {
	r := chi.NewRouter()

	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", api.handleHealth)

	r.Route("/api/scenes", func(r chi.Router) {
		r.Get("/", api.handleListScenes)
		r.Post("/", api.handleCreateScene)

		r.Route("/{sceneID}", func(r chi.Router) {
			r.Get("/", api.handleGetScene)
			r.Delete("/", api.handleDeleteScene)
			r.Get("/summary", api.handleSummary)
			r.Get("/kpi", api.handleKPI)
			r.Get("/floors", api.handleFloors)
		})
	})

	return r
}

// requestLogger logs one line per request with method, path, status, and
// duration.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		zap.L().Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (api *apiEnv) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := api.store.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "store unreachable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (api *apiEnv) handleListScenes(w http.ResponseWriter, r *http.Request) {
	filter := store.SceneFilter{
		Format: model.SceneFormat(r.URL.Query().Get("format")),
	}

	recs, err := api.store.ListScenes(r.Context(), filter)
	if err != nil {
		zap.L().Error("list scenes", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "list scenes failed")
		return
	}
	if recs == nil {
		recs = []model.SceneRecord{}
	}
	respondJSON(w, http.StatusOK, recs)
}

func (api *apiEnv) handleCreateScene(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "read request body failed")
		return
	}

	scene, err := sceneio.LoadScene(raw)
	if err != nil {
		if sceneio.IsParseError(err) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		zap.L().Error("parse scene", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "parse scene failed")
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = "scene"
	}

	rec := buildSceneRecord(name, raw, scene)
	if err := api.store.SaveScene(r.Context(), rec); err != nil {
		zap.L().Error("save scene", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "save scene failed")
		return
	}

	zap.L().Info("scene created",
		zap.String("scene_id", rec.ID),
		zap.String("name", rec.Name),
		zap.Int("elements", rec.ElementCount),
	)

	rec.RawPayload = nil
	respondJSON(w, http.StatusCreated, rec)
}

func (api *apiEnv) handleGetScene(w http.ResponseWriter, r *http.Request) {
	rec, ok := api.lookupScene(w, r)
	if !ok {
		return
	}
	rec.RawPayload = nil
	respondJSON(w, http.StatusOK, rec)
}

func (api *apiEnv) handleDeleteScene(w http.ResponseWriter, r *http.Request) {
	rec, ok := api.lookupScene(w, r)
	if !ok {
		return
	}

	if err := api.store.DeleteScene(r.Context(), rec.ID); err != nil {
		zap.L().Error("delete scene", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "delete scene failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"deleted": rec.ID})
}

func (api *apiEnv) handleSummary(w http.ResponseWriter, r *http.Request) {
	rec, ok := api.lookupScene(w, r)
	if !ok {
		return
	}
	rows := rec.Summary
	if rows == nil {
		rows = []model.SummaryRow{}
	}
	respondJSON(w, http.StatusOK, rows)
}

func (api *apiEnv) handleKPI(w http.ResponseWriter, r *http.Request) {
	rec, ok := api.lookupScene(w, r)
	if !ok {
		return
	}

	classify, ok := api.requestClassifier(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, analysis.KPI(rec.Summary, classify))
}

func (api *apiEnv) handleFloors(w http.ResponseWriter, r *http.Request) {
	rec, ok := api.lookupScene(w, r)
	if !ok {
		return
	}

	floors := analysis.FloorTotals(rec.Summary, api.storyHeight)
	if floors == nil {
		floors = []analysis.FloorTotal{}
	}
	respondJSON(w, http.StatusOK, floors)
}

// lookupScene fetches the scene named by the route, writing the 404 or 500
// response itself when the lookup fails.
func (api *apiEnv) lookupScene(w http.ResponseWriter, r *http.Request) (*model.SceneRecord, bool) {
	id := chi.URLParam(r, "sceneID")

	rec, err := api.store.GetScene(r.Context(), id)
	if err != nil {
		zap.L().Error("get scene", zap.String("scene_id", id), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "get scene failed")
		return nil, false
	}
	if rec == nil {
		respondError(w, http.StatusNotFound, fmt.Sprintf("no scene with ID %q", id))
		return nil, false
	}
	return rec, true
}

// requestClassifier resolves the classifier for one request: the server's
// configured classifier by default, the built-in table when
// classifier=default is passed.
func (api *apiEnv) requestClassifier(w http.ResponseWriter, r *http.Request) (analysis.Classifier, bool) {
	switch q := r.URL.Query().Get("classifier"); q {
	case "":
		return api.classify, true
	case "default":
		return analysis.DefaultClassifier, true
	default:
		respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown classifier %q", q))
		return nil, false
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jward/grapht"
	"github.com/jward/grapht/internal/store"
)

var (
	serveModule moduleFlags
	flagAddr    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve resolution and stored graphs over HTTP",
	Long:  "Loads a module once and serves GET /resolve/{type}, GET /graphs, GET /graphs/{id} and Prometheus metrics on /metrics.",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveModule.register(serveCmd)
	serveCmd.Flags().StringVar(&flagAddr, "addr", ":8080", "listen address (env GRAPHT_ADDR)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger()
	defer logger.Sync()

	mod, label, err := serveModule.load(ctx, logger)
	if err != nil {
		return err
	}
	st, err := openStore(true)
	if err != nil {
		return err
	}
	defer st.Close()

	srv := &http.Server{
		Addr:              flagAddr,
		Handler:           newServer(mod, label, st, logger).routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "Serving %s on %s\n", label, flagAddr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// server answers resolution requests against one loaded module.
type server struct {
	mod     *grapht.Module
	label   string
	store   *store.Store
	logger  *zap.Logger
	reg     *prometheus.Registry
	metrics *grapht.Metrics
}

func newServer(mod *grapht.Module, label string, st *store.Store, logger *zap.Logger) *server {
	reg := prometheus.NewRegistry()
	return &server{
		mod:     mod,
		label:   label,
		store:   st,
		logger:  logger,
		reg:     reg,
		metrics: grapht.NewMetrics(reg),
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok\n"))
	})
	r.Get("/resolve/{type}", s.handleResolve)
	r.Route("/graphs", func(r chi.Router) {
		r.Get("/", s.handleListGraphs)
		r.Get("/{id}", s.handleGetGraph)
		r.Delete("/{id}", s.handleDeleteGraph)
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))
	return r
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// handleResolve resolves one root type. Query parameters: qualifier,
// nullable, simplify and save.
func (s *server) handleResolve(w http.ResponseWriter, r *http.Request) {
	typ := chi.URLParam(r, "type")
	query := r.URL.Query()
	nullable, _ := strconv.ParseBool(query.Get("nullable"))
	simplify, _ := strconv.ParseBool(query.Get("simplify"))
	save, _ := strconv.ParseBool(query.Get("save"))

	roots, err := rootDesires([]string{typ}, query.Get("qualifier"), nullable)
	if err != nil {
		writeError(w, "resolve", http.StatusBadRequest, err)
		return
	}
	g, err := s.mod.Solve(r.Context(), []grapht.Option{
		grapht.WithLogger(s.logger),
		grapht.WithMetrics(s.metrics),
	}, roots...)
	if err != nil {
		writeError(w, "resolve", resolveStatus(err), err)
		return
	}
	if simplify {
		g = g.Simplify()
	}

	snap := store.FromGraph(typ, g)
	snap.Hash = store.ComputeGraphHash(snap)
	snap.Metadata["source"] = s.label
	snap.Metadata["roots"] = rootList(g)
	if save {
		if id, ok, err := s.store.FindByHash(r.Context(), snap.Hash); err != nil {
			writeError(w, "resolve", http.StatusInternalServerError, err)
			return
		} else if ok {
			snap.ID = id
		} else if _, err := s.store.SaveGraph(r.Context(), snap); err != nil {
			writeError(w, "resolve", http.StatusInternalServerError, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, CLIResult{Command: "resolve", Results: snapshotToCLI(snap)})
}

func (s *server) handleListGraphs(w http.ResponseWriter, r *http.Request) {
	sums, err := s.store.ListGraphs(r.Context())
	if err != nil {
		writeError(w, "graphs", http.StatusInternalServerError, err)
		return
	}
	out := make([]CLIGraphSummary, 0, len(sums))
	for _, sum := range sums {
		out = append(out, summaryToCLI(sum))
	}
	total := len(out)
	writeJSON(w, http.StatusOK, CLIResult{Command: "graphs", Results: out, TotalCount: &total})
}

func (s *server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDArg(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "graph", http.StatusBadRequest, err)
		return
	}
	snap, err := s.store.LoadGraph(r.Context(), id)
	if err != nil {
		writeError(w, "graph", storeStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, CLIResult{Command: "graph", Results: snapshotToCLI(snap)})
}

func (s *server) handleDeleteGraph(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDArg(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "delete", http.StatusBadRequest, err)
		return
	}
	if err := s.store.DeleteGraph(r.Context(), id); err != nil {
		writeError(w, "delete", storeStatus(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// resolveStatus maps resolution failures to 422 and anything else to 500.
func resolveStatus(err error) int {
	switch {
	case errors.Is(err, grapht.ErrUnresolvable),
		errors.Is(err, grapht.ErrNullDependency),
		errors.Is(err, grapht.ErrCyclic),
		errors.Is(err, grapht.ErrInvalidBinding):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func storeStatus(err error) int {
	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, command string, status int, err error) {
	writeJSON(w, status, CLIResult{Command: command, Error: err.Error()})
}

// Package server exposes lattice generation over HTTP.
//
// Routes:
//
//	GET  /healthz              liveness check, responds "ok"
//	GET  /schema               parameter schemas of every kind
//	GET  /schema/{kind}        parameter schema of one kind
//	GET  /defaults/{kind}      fully populated default parameters
//	POST /generate/{kind}      body: parameter object; responds with the graph
//
// /generate accepts the query parameters format (json, dot or svg; default
// json), detailed, refresh and persist. Failures respond with
// {"code": "...", "error": "..."}: validation failures with 400, grids above
// the server's node or edge limit with 413.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	apperrors "github.com/matzehuels/grid3d/pkg/errors"
	"github.com/matzehuels/grid3d/pkg/lattice"
	"github.com/matzehuels/grid3d/pkg/observability"
	"github.com/matzehuels/grid3d/pkg/pipeline"
)

// Defaults for Options.
const (
	DefaultMaxNodes     = 1_000_000
	DefaultMaxEdges     = 16_000_000
	DefaultTimeout      = 60 * time.Second
	DefaultMaxBodyBytes = 1 << 20
)

// Options configures a Server.
type Options struct {
	Logger *log.Logger
	// MaxNodes rejects larger grids with 413.
	MaxNodes int
	// MaxEdges rejects grids whose edge bound exceeds it with 413.
	MaxEdges int64
	// Timeout bounds each request.
	Timeout time.Duration
}

// Server is the HTTP API. It is safe for concurrent use.
type Server struct {
	runner   *pipeline.Runner
	logger   *log.Logger
	maxNodes int
	maxEdges int64
	router   chi.Router
}

// New creates a server generating through runner.
func New(runner *pipeline.Runner, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if opts.MaxNodes <= 0 {
		opts.MaxNodes = DefaultMaxNodes
	}
	if opts.MaxEdges <= 0 {
		opts.MaxEdges = DefaultMaxEdges
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	s := &Server{runner: runner, logger: opts.Logger, maxNodes: opts.MaxNodes, maxEdges: opts.MaxEdges}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)
	r.Use(middleware.Timeout(opts.Timeout))

	r.Get("/healthz", s.handleHealth)
	r.Get("/schema", s.handleSchemas)
	r.Get("/schema/{kind}", s.handleSchema)
	r.Get("/defaults/{kind}", s.handleDefaults)
	r.Post("/generate/{kind}", s.handleGenerate)

	s.router = r
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hooks := observability.Server()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		dur := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, route, status, dur)
		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", dur,
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

func (s *Server) handleSchemas(w http.ResponseWriter, _ *http.Request) {
	out := make([]lattice.Schema, 0, len(lattice.Kinds))
	for _, k := range lattice.Kinds {
		schema, _ := lattice.SchemaFor(k)
		out = append(out, schema)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.kindParam(w, r)
	if !ok {
		return
	}
	schema, _ := lattice.SchemaFor(kind)
	writeJSON(w, http.StatusOK, schema)
}

func (s *Server) handleDefaults(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.kindParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, lattice.Defaults(kind))
}

func (s *Server) kindParam(w http.ResponseWriter, r *http.Request) (lattice.Kind, bool) {
	name := chi.URLParam(r, "kind")
	kind, ok := lattice.ParseKind(name)
	if !ok {
		writeError(w, http.StatusNotFound,
			apperrors.New(apperrors.ErrCodeInvalidKind, "unknown kind %q", name))
		return "", false
	}
	return kind, true
}

// contentTypes maps the formats /generate serves to their media type.
var contentTypes = map[string]string{
	pipeline.FormatJSON: "application/json",
	pipeline.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatSVG:  "image/svg+xml",
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.kindParam(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = pipeline.FormatJSON
	}
	if _, ok := contentTypes[format]; !ok {
		writeError(w, http.StatusBadRequest, apperrors.New(apperrors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: json, dot, svg)", format))
		return
	}

	params, err := decodeParams(http.MaxBytesReader(w, r.Body, DefaultMaxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	opts := pipeline.Options{
		Kind:     string(kind),
		Params:   params,
		Formats:  []string{format},
		Detailed: boolQuery(q.Get("detailed")),
		Refresh:  boolQuery(q.Get("refresh")),
		Persist:  boolQuery(q.Get("persist")),
		Logger:   s.logger,
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.checkSize(opts.Config()); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err)
		return
	}

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case apperrors.IsValidation(err):
			status = http.StatusBadRequest
		case errors.Is(err, context.DeadlineExceeded):
			status = http.StatusGatewayTimeout
		}
		s.logger.Error("generation failed", "kind", kind, "err", err)
		writeError(w, status, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", contentTypes[format])
	h.Set("X-Graph-Hash", res.GraphHash)
	h.Set("X-Node-Count", strconv.Itoa(res.Stats.NodeCount))
	h.Set("X-Edge-Count", strconv.Itoa(res.Stats.EdgeCount))
	h.Set("X-Cache", cacheStatus(res.CacheInfo.GenerateHit))
	if res.RunID != "" {
		h.Set("X-Run-ID", res.RunID)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[format])
}

// checkSize rejects grids above the node limit, and grids whose edge bound
// is above the edge limit. A neighborhood radius spanning the grid asks for
// a complete graph, so nodes alone do not bound memory.
func (s *Server) checkSize(cfg lattice.GridConfig) error {
	if n := cfg.Dims().Count(); n > s.maxNodes {
		return apperrors.New(apperrors.ErrCodeGridTooLarge,
			"Grid of %d nodes exceeds this server's limit of %d", n, s.maxNodes)
	}
	if e := lattice.EdgeBound(cfg); e > s.maxEdges {
		return apperrors.New(apperrors.ErrCodeGridTooLarge,
			"Grid of up to %d edges exceeds this server's limit of %d", e, s.maxEdges)
	}
	return nil
}

// decodeParams reads a JSON object. An empty body or "null" yields nil
// Params, which validation reports as NO_CONFIGURATION.
func decodeParams(r io.Reader) (lattice.Params, error) {
	var p lattice.Params
	if err := json.NewDecoder(r).Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "request body must be a JSON object")
	}
	return p, nil
}

func boolQuery(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}

func cacheStatus(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

type errorBody struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	code := apperrors.GetCode(err)
	if code == "" {
		code = apperrors.ErrCodeInternal
	}
	writeJSON(w, status, errorBody{Code: string(code), Error: apperrors.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

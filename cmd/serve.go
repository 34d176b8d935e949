package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unaq/indicator-report/internal/capture"
	"github.com/unaq/indicator-report/internal/config"
	"github.com/unaq/indicator-report/internal/dataset"
	"github.com/unaq/indicator-report/internal/model"
	"github.com/unaq/indicator-report/internal/pipeline"
	"github.com/unaq/indicator-report/internal/report"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Inicia la API HTTP de reportes y capturas",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}

		env, err := initPipeline(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           newRouter(env, cfg),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ln, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			return eris.Wrap(err, "server listen")
		}

		zap.L().Info("starting server", zap.Int("port", cfg.Server.Port))
		return serveUntilDone(ctx, srv, ln)
	},
}

// shutdownTimeout bounds how long in-flight requests may drain.
const shutdownTimeout = 10 * time.Second

// serveUntilDone serves on ln until ctx is cancelled, then drains in-flight
// requests before returning.
func serveUntilDone(ctx context.Context, srv *http.Server, ln net.Listener) error {
	shutdown := make(chan error, 1)
	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		shutdown <- srv.Shutdown(drainCtx)
	}()

	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server error")
	}
	return eris.Wrap(<-shutdown, "server shutdown")
}

// apiServer serves report passes and capture edits over HTTP.
type apiServer struct {
	env *reportEnv
	cfg *config.Config
	now func() time.Time
}

func newRouter(env *reportEnv, c *config.Config) http.Handler {
	s := &apiServer{env: env, cfg: c, now: time.Now}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: c.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/report", s.handleReport)
		r.Post("/report/{format}", s.handleReportDocument)

		r.Route("/captures", func(r chi.Router) {
			r.Post("/page", s.handleCapturePage)
			r.Get("/", s.handleCaptureGet)
			r.Put("/", s.handleCapturePut)
			r.Delete("/", s.handleCaptureDelete)
		})
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// handleReport runs a pass over the uploaded files and returns the result
// as JSON.
func (s *apiServer) handleReport(w http.ResponseWriter, r *http.Request) {
	res, ok := s.runPass(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleReportDocument runs a pass and returns one rendered document.
func (s *apiServer) handleReportDocument(w http.ResponseWriter, r *http.Request) {
	formats, err := report.ParseFormats([]string{chi.URLParam(r, "format")})
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	f := formats[0]

	res, ok := s.runPass(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, f, res, reportOptionsFrom(s.cfg.Report)); err != nil {
		zap.L().Error("serve: render report", zap.String("format", string(f)), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not render report")
		return
	}

	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName(f, res.Period)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// runPass parses the multipart upload and runs a pass. On failure it has
// already written the response.
func (s *apiServer) runPass(w http.ResponseWriter, r *http.Request) (*pipeline.Result, bool) {
	limit := int64(s.cfg.Server.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return nil, false
	}

	src := pipeline.Sources{
		TargetsSheet: s.cfg.Inputs.TargetsSheet,
		CSV:          csvOptionsFrom(s.cfg.Inputs),
	}
	for _, f := range []struct {
		field string
		dst   *pipeline.File
	}{
		{"enrollment", &src.Enrollment},
		{"graduates", &src.Graduates},
		{"indicators", &src.Indicators},
	} {
		file, err := formFile(r, f.field)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return nil, false
		}
		*f.dst = file
	}

	opts, err := s.passOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	in, err := pipeline.LoadInputs(r.Context(), src)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
		return nil, false
	}
	res, err := s.env.Pipeline.Run(r.Context(), in, opts)
	if err != nil {
		zap.L().Error("serve: report pass failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "report pass failed")
		return nil, false
	}
	return res, true
}

// formFile reads an optional upload. An absent field yields an empty File.
func formFile(r *http.Request, field string) (pipeline.File, error) {
	f, hdr, err := r.FormFile(field)
	if err == http.ErrMissingFile {
		return pipeline.File{}, nil
	}
	if err != nil {
		return pipeline.File{}, eris.Wrapf(err, "read %s upload", field)
	}
	defer f.Close() //nolint:errcheck

	data, err := io.ReadAll(f)
	if err != nil {
		return pipeline.File{}, eris.Wrapf(err, "read %s upload", field)
	}
	return pipeline.File{Name: hdr.Filename, Data: data}, nil
}

// reportFilters is the JSON shape of the "filters" form field.
type reportFilters struct {
	Enrollment  map[string][]string `json:"enrollment"`
	Graduates   map[string][]string `json:"graduates"`
	Generations map[string][]string `json:"generations"`
}

// passOptions reads the period, filters and admissions form fields on top
// of the configured defaults.
func (s *apiServer) passOptions(r *http.Request) (pipeline.Options, error) {
	pc := s.cfg.Period
	if v := r.FormValue("cuatrimestre"); v != "" {
		pc.Cuatrimestre = v
	}
	if v := r.FormValue("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return pipeline.Options{}, eris.Errorf("invalid year %q", v)
		}
		pc.Year = y
	}
	period, err := (&config.Config{Period: pc}).ResolvePeriod(s.now())
	if err != nil {
		return pipeline.Options{}, err
	}

	var filters reportFilters
	if v := r.FormValue("filters"); v != "" {
		if err := json.Unmarshal([]byte(v), &filters); err != nil {
			return pipeline.Options{}, eris.Wrap(err, "invalid filters")
		}
	}

	raw := make(map[string]int)
	for k, n := range s.cfg.Admissions {
		raw[strings.ToUpper(k)] = n
	}
	if v := r.FormValue("admissions"); v != "" {
		var form map[string]int
		if err := json.Unmarshal([]byte(v), &form); err != nil {
			return pipeline.Options{}, eris.Wrap(err, "invalid admissions")
		}
		for k, n := range form {
			raw[strings.ToUpper(k)] = n
		}
	}
	admissions, err := config.ParseAdmissions(raw)
	if err != nil {
		return pipeline.Options{}, err
	}

	return pipeline.Options{
		Period:           period,
		EnrollmentFilter: dataset.Filter(mergeFilters(s.cfg.Filters.Enrollment, filters.Enrollment)),
		GraduateFilter:   dataset.Filter(mergeFilters(s.cfg.Filters.Graduates, filters.Graduates)),
		Generations:      dataset.GenerationFilter(mergeFilters(s.cfg.Filters.Generations, filters.Generations)),
		Admissions:       admissions,
	}, nil
}

// handleCapturePage lists one page of capture entries for the rows of an
// uploaded indicators workbook.
func (s *apiServer) handleCapturePage(w http.ResponseWriter, r *http.Request) {
	limit := int64(s.cfg.Server.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, err := formFile(r, "indicators")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if file.Empty() {
		writeError(w, http.StatusBadRequest, "indicators workbook is required")
		return
	}
	rows, err := pipeline.LoadCaptureRows(file)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	q := capture.Query{Search: r.FormValue("search"), Size: s.cfg.Capture.PageSize}
	q.Page, _ = strconv.Atoi(r.FormValue("page"))
	if v, err := strconv.Atoi(r.FormValue("size")); err == nil {
		q.Size = v
	}

	page, err := s.env.Captures.Page(r.Context(), rows, q)
	if err != nil {
		zap.L().Error("serve: capture page", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load captures")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func captureRow(r *http.Request) (capture.Row, bool) {
	row := capture.Row{
		Indicator:   r.URL.Query().Get("indicador"),
		Responsible: r.URL.Query().Get("responsable"),
	}
	return row, strings.TrimSpace(row.Indicator) != ""
}

func (s *apiServer) handleCaptureGet(w http.ResponseWriter, r *http.Request) {
	row, ok := captureRow(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "indicador is required")
		return
	}
	e, err := s.env.Captures.Load(r.Context(), row)
	if err != nil {
		zap.L().Error("serve: load capture", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load capture")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *apiServer) handleCapturePut(w http.ResponseWriter, r *http.Request) {
	var e capture.Entry
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(e.Indicator) == "" {
		writeError(w, http.StatusBadRequest, "indicador is required")
		return
	}

	res, err := s.env.Captures.Save(r.Context(), e)
	if err != nil {
		zap.L().Error("serve: save capture", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not save capture")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Result model.Num `json:"resultado"`
	}{res})
}

func (s *apiServer) handleCaptureDelete(w http.ResponseWriter, r *http.Request) {
	row, ok := captureRow(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "indicador is required")
		return
	}
	if err := s.env.Captures.Clear(r.Context(), row); err != nil {
		zap.L().Error("serve: clear capture", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not clear capture")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

package http

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ignatij/logreport/internal/log"
	"github.com/ignatij/logreport/internal/metrics"
	"github.com/ignatij/logreport/pkg/models"
	"github.com/klauspost/compress/gzhttp"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed templates/*.html
var templateFS embed.FS

// Reporter is the subset of the report service the HTTP layer drives.
type Reporter interface {
	RecentLogs(ctx context.Context) ([]models.LogRecord, error)
	TestConnection(ctx context.Context) string
	DownloadReport(ctx context.Context) ([]byte, error)
	SendFullReport(ctx context.Context) models.Outcome
	SendSelectedReport(ctx context.Context, ids []string) models.Outcome
}

type Options struct {
	// SendRatePerMinute limits the email endpoints per client IP. Zero disables it.
	SendRatePerMinute int
}

// NewRouter registers every route on a fresh gin engine.
func NewRouter(svc Reporter, opts Options) (*gin.Engine, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "parse templates")
	}

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(gin.Recovery(), RequestID(), RequestLogger(), metrics.Middleware())

	h := &handlers{svc: svc}
	r.GET("/health", h.health)
	r.GET("/", h.index)
	r.GET("/logs", h.index)
	r.GET("/logs/test", h.test)
	r.GET("/logs/download", h.download)

	email := r.Group("/email")
	if opts.SendRatePerMinute > 0 {
		email.Use(RateLimit(opts.SendRatePerMinute, 1))
	}
	email.POST("/send-report", h.sendReport)
	email.POST("/send-logs-report", h.sendLogsReport)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r, nil
}

// StartServer serves the report UI on port until ctx is cancelled.
func StartServer(ctx context.Context, port string, svc Reporter, opts Options) error {
	router, err := NewRouter(svc, opts)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      gzhttp.GzipHandler(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.GetLogger().Infof("Starting log report server on :%s", port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.GetLogger().Info("Shutting down log report server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

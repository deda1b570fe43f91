package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ignatij/logreport/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestFlowObserver(t *testing.T) {
	before := testutil.ToFloat64(metrics.FlowsTotal.WithLabelValues("full_report", "failure"))
	metrics.FlowObserver{}.ObserveFlow("full_report", false, 20*time.Millisecond)
	after := testutil.ToFloat64(metrics.FlowsTotal.WithLabelValues("full_report", "failure"))
	assert.Equal(t, before+1, after)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(metrics.Middleware())
	r.GET("/logs/:id", func(c *gin.Context) { c.Status(http.StatusAccepted) })

	counter := metrics.RequestTotal.WithLabelValues(http.MethodGet, "/logs/:id", "202")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/logs/abc", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

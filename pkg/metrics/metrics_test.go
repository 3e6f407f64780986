package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareRecordsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/trips/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.CollectAndCount(HTTPRequestDuration)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/trips/42", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(HTTPRequestDuration), before)
	assert.Equal(t, 1, testutil.CollectAndCount(HTTPRequestDuration.WithLabelValues("GET", "/trips/:id", "200").(prometheus.Histogram)))
}

func TestHandlerServesMetrics(t *testing.T) {
	SeatReservations.WithLabelValues("success").Inc()

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "busline_seat_reservations_total")
}

package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordTransition(t *testing.T) {
	before := testutil.ToFloat64(transitions.WithLabelValues("ADMITTED", OutcomeFailure))
	RecordTransition("ADMITTED", errors.New("boom"))
	RecordTransition("ADMITTED", nil)

	assert.Equal(t, before+1, testutil.ToFloat64(transitions.WithLabelValues("ADMITTED", OutcomeFailure)))
	assert.GreaterOrEqual(t, testutil.ToFloat64(transitions.WithLabelValues("ADMITTED", OutcomeSuccess)), 1.0)
}

func TestRequestStartedBalancesInFlight(t *testing.T) {
	before := testutil.ToFloat64(httpInFlight)
	done := RequestStarted(http.MethodGet, "/api/v1/ping")
	assert.Equal(t, before+1, testutil.ToFloat64(httpInFlight))
	done(http.StatusOK)
	assert.Equal(t, before, testutil.ToFloat64(httpInFlight))
	assert.GreaterOrEqual(t, testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/api/v1/ping", "200")), 1.0)
}

func TestHandlerExposesCollectors(t *testing.T) {
	RecordLetter("OFFER", OutcomeReused)
	RecordNotification("log", "applicant", nil)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "admissions_documents_letters_total")
	assert.Contains(t, rec.Body.String(), "admissions_notifications_sent_total")
}

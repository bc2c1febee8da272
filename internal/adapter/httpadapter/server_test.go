package httpadapter_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	cerrors "github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/flight-delay-etl/internal/adapter/httpadapter"
	"github.com/couchcryptid/flight-delay-etl/internal/features"
	"github.com/couchcryptid/flight-delay-etl/internal/model"
	"github.com/couchcryptid/flight-delay-etl/internal/observability"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockPredictor struct {
	mockReadiness
	prediction model.Prediction
	err        error
	got        features.Input
}

func (m *mockPredictor) Predict(_ context.Context, in features.Input) (model.Prediction, error) {
	m.got = in
	return m.prediction, m.err
}

func (m *mockPredictor) Metadata(context.Context) model.MetadataSummary {
	return (*model.Metadata)(nil).Summary()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(readyErr error) *httpadapter.Server {
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, nil, observability.NewMetricsForTesting(), discardLogger())
}

func post(srv http.Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(body))
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(fmt.Errorf("not ready yet"))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestModelRoutesAbsentWithoutPredictor(t *testing.T) {
	srv := newTestServer(nil)
	rec := post(srv, `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPredict(t *testing.T) {
	pred := &mockPredictor{prediction: model.Prediction{Delayed: true, Label: 1, Probability: 0.87}}
	metrics := observability.NewMetricsForTesting()
	srv := httpadapter.NewServer(":0", pred, pred, metrics, discardLogger())

	rec := post(srv, `{"airline":"aa","origin":"JFK","destination":"LAX","dep_delay":85,"distance":2475}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var body model.Prediction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, pred.prediction, body)

	require.NotNil(t, pred.got.DepDelay)
	assert.InDelta(t, 85.0, *pred.got.DepDelay, 0)
	assert.Nil(t, pred.got.TaxiOut)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.Predictions.WithLabelValues("delayed")), 0)
}

func TestPredict_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "malformed json",
			body:       `{"origin":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown field",
			body:       `{"origin":"JFK","seat":"12A"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "seat",
		},
		{
			name:       "model not trained",
			body:       `{}`,
			err:        model.ErrModelNotFound,
			wantStatus: http.StatusServiceUnavailable,
			wantError:  "run cmd/train",
		},
		{
			name:       "schema mismatch",
			body:       `{}`,
			err:        cerrors.Wrap(model.ErrSchemaMismatch, "fitted on other columns"),
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "feature schema mismatch",
		},
		{
			name:       "internal",
			body:       `{}`,
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "prediction failed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred := &mockPredictor{err: tt.err}
			metrics := observability.NewMetricsForTesting()
			srv := httpadapter.NewServer(":0", pred, pred, metrics, discardLogger())

			rec := post(srv, tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Contains(t, body["error"], tt.wantError)
			assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.Predictions.WithLabelValues("error")), 0)
		})
	}
}

func TestPredict_UntrainedService(t *testing.T) {
	svc := model.NewService(nil, nil)
	srv := httpadapter.NewServer(":0", svc, svc, observability.NewMetricsForTesting(), discardLogger())

	rec := post(srv, `{"origin":"JFK"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	ready := httptest.NewRecorder()
	srv.ServeHTTP(ready, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, ready.Code)
}

func TestModelMetadata(t *testing.T) {
	pred := &mockPredictor{}
	srv := httpadapter.NewServer(":0", pred, pred, observability.NewMetricsForTesting(), discardLogger())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/model", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body model.MetadataSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, model.NotAvailable, body.Accuracy)
	assert.Equal(t, model.NotAvailable, body.LastTrained)
	assert.Empty(t, body.Features)
}

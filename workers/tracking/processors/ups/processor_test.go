package ups

import (
	"context"
	"encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"net/http"
	"net/http/httptest"
	"os"
	"parcel-status-relay/config"
	"parcel-status-relay/workers/tracking/models"
	"parcel-status-relay/workers/tracking/processors"
	"strings"
	"testing"
	"time"
)

func newProcessor(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *TrackingProcessor {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewTrackingProcessor(zap.NewNop(), &config.TrackingConfig{
		Number:   "1ZA03R690337671312",
		Adapter:  config.AdapterStructuredAPI,
		Endpoint: srv.URL,
		Link:     "https://www.ups.com/track?tracknum=1ZA03R690337671312",
		Carrier:  "UPS",
		Timeout:  timeout,
		Headers:  map[string]string{"x-xsrf-token": "token-from-env"},
		Cookies:  map[string]string{"sharedsession": "session-from-env"},
	})
}

func serveJSON(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestProcessRendersLatestActivity(t *testing.T) {
	fixture, err := os.ReadFile("testdata/status_in_transit.json")
	require.NoError(t, err)

	p := newProcessor(t, serveJSON(string(fixture)), time.Second)
	rec := p.Process(context.Background())

	require.Equal(t, models.KindSuccess, rec.Kind)
	require.Equal(t, "On the Way", rec.PackageState)
	require.NotNil(t, rec.LastEvent)
	require.Equal(t, "Departed from Facility", rec.LastEvent.Description)

	ordered := []string{"On the Way", "Departed from Facility", "Louisville, KY, United States", "03/04/2025 4:12 A.M. EST"}
	last := -1
	for _, part := range ordered {
		idx := strings.Index(rec.Summary, part)
		require.Greater(t, idx, last, "expected %q after previous field", part)
		last = idx
	}
	require.Contains(t, rec.Summary, "https://www.ups.com/track?tracknum=1ZA03R690337671312")
}

func TestProcessSendsConfiguredRequest(t *testing.T) {
	var got StatusRequest
	var headers http.Header
	var cookies []*http.Cookie

	p := newProcessor(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		headers = r.Header.Clone()
		cookies = r.Cookies()
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"trackDetails":[]}`))
	}, time.Second)

	p.Process(context.Background())

	require.Equal(t, []string{"1ZA03R690337671312"}, got.TrackingNumber)
	require.Equal(t, "en_US", got.Locale)
	require.Equal(t, "token-from-env", headers.Get("X-Xsrf-Token"))
	require.NotEmpty(t, headers.Get("transId"))
	require.Len(t, cookies, 1)
	require.Equal(t, "sharedsession", cookies[0].Name)
	require.Equal(t, "session-from-env", cookies[0].Value)
}

func TestProcessWithoutActivitiesOmitsEvent(t *testing.T) {
	p := newProcessor(t, serveJSON(`{"trackDetails":[{"packageStatus":"Label Created"}]}`), time.Second)
	rec := p.Process(context.Background())

	require.Equal(t, models.KindSuccess, rec.Kind)
	require.Nil(t, rec.LastEvent)
	require.NotContains(t, rec.Summary, "Latest Update")
}

func TestProcessMissingStatusUsesPlaceholder(t *testing.T) {
	p := newProcessor(t, serveJSON(`{"trackDetails":[{"shipmentProgressActivities":[{"activityScan":"Picked up"}]}]}`), time.Second)
	rec := p.Process(context.Background())

	require.Equal(t, models.UnknownStatus, rec.PackageState)
	require.Contains(t, rec.Summary, models.UnknownLocation)
	require.Contains(t, rec.Summary, models.UnknownDate)
}

func TestProcessNoData(t *testing.T) {
	for name, body := range map[string]string{
		"empty collection":   `{"trackDetails":[]}`,
		"missing collection": `{"statusCode":"200"}`,
	} {
		t.Run(name, func(t *testing.T) {
			p := newProcessor(t, serveJSON(body), time.Second)
			rec := p.Process(context.Background())
			require.Equal(t, models.KindNoData, rec.Kind)
			require.Equal(t, models.NoTrackingDetails, rec.Summary)
		})
	}
}

func TestProcessHardErrorOnServiceUnavailable(t *testing.T) {
	p := newProcessor(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}, time.Second)

	rec := p.Process(context.Background())
	require.Equal(t, models.KindHardError, rec.Kind)
	require.Contains(t, rec.Summary, "503")
}

func TestProcessHardErrorOnRejectedSession(t *testing.T) {
	p := newProcessor(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}, time.Second)

	rec := p.Process(context.Background())
	require.Equal(t, models.KindHardError, rec.Kind)
	require.Contains(t, rec.Summary, "403")
}

func TestProcessTimeout(t *testing.T) {
	p := newProcessor(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, 50*time.Millisecond)

	rec := p.Process(context.Background())
	require.Equal(t, models.KindTransientError, rec.Kind)
	require.Equal(t, processors.TimedOut("UPS").Summary, rec.Summary)
}

func TestProcessTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	p := NewTrackingProcessor(zap.NewNop(), &config.TrackingConfig{
		Number:   "1Z",
		Endpoint: endpoint,
		Carrier:  "UPS",
		Timeout:  time.Second,
	})

	rec := p.Process(context.Background())
	require.Equal(t, models.KindTransientError, rec.Kind)
	require.Equal(t, processors.FetchFailed("UPS").Summary, rec.Summary)
}

func TestProcessUndecodableBody(t *testing.T) {
	p := newProcessor(t, serveJSON(`<html>not json</html>`), time.Second)
	rec := p.Process(context.Background())
	require.Equal(t, models.KindTransientError, rec.Kind)
	require.Equal(t, processors.FetchFailed("UPS").Summary, rec.Summary)
}

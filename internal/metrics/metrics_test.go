package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRequest(t *testing.T) {
	m := New()

	m.ObserveRequest("GET", "/lists/{id}", 200, 10*time.Millisecond)
	m.ObserveRequest("GET", "/lists/{id}", 200, 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/lists/{id}", "200")))
}

func TestRecordMutation(t *testing.T) {
	m := New()

	m.RecordMutation("add", nil)
	m.RecordMutation("add", errors.New("boom"))
	m.RecordMutation("add", errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.MutationsTotal.WithLabelValues("add", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.MutationsTotal.WithLabelValues("add", "error")))
}

func TestRecordRedeemAndRateLimited(t *testing.T) {
	m := New()

	m.RecordRedeem(nil)
	m.RecordRateLimited("sign-in")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RedeemsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimited.WithLabelValues("sign-in")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.WatchHub(fakeHub{clients: 3, users: 2})
	m.RecordMutation("delete", nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	for _, want := range []string{
		`list42_items_mutations_total{op="delete",result="success"} 1`,
		`list42_ws_clients 3`,
		`list42_ws_users 2`,
		`go_goroutines`,
	} {
		assert.Contains(t, body, want)
	}
}

type fakeHub struct{ clients, users int }

func (h fakeHub) ClientCount() int { return h.clients }
func (h fakeHub) UserCount() int   { return h.users }

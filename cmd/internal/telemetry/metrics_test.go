package telemetry

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.Login("success")
	m.Login("success")
	m.Login("invalid_credentials")
	m.LockedOut()
	m.SessionCheck("fresh")
	m.CodeIssued("email")
	m.CodeValidated("email", true)
	m.CodeValidated("email", false)
	m.StampRotated("logout_everywhere")
	m.Registration("success")

	require.Equal(t, 2.0, testutil.ToFloat64(m.logins.WithLabelValues("success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.logins.WithLabelValues("invalid_credentials")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.lockouts))
	require.Equal(t, 1.0, testutil.ToFloat64(m.codesValidated.WithLabelValues("email", "accepted")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.codesValidated.WithLabelValues("email", "rejected")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.Login("success")
	m.LockedOut()
	m.SessionCheck("fresh")
	m.CodeIssued("email")
	m.CodeValidated("password", false)
	m.StampRotated("x")
	m.Registration("x")
	require.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 404, rec.Code)
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.Login("success")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), `warden_login_attempts_total{outcome="success"} 1`))
}

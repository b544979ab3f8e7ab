package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_ExposesCounters(t *testing.T) {
	r := New()
	r.Login("success")
	r.Admission("accepted")
	r.Admission("OUTSIDE_GEOFENCE")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, r.Handler()(e.NewContext(req, rec)))

	body := rec.Body.String()
	assert.Contains(t, body, `checador_login_total{outcome="success"} 1`)
	assert.Contains(t, body, `checador_admission_total{outcome="OUTSIDE_GEOFENCE"} 1`)
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	r.Login("success")
	r.Admission("accepted")
}

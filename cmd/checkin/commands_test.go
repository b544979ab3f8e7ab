package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"checador/internal/client/localstore"
	"checador/internal/client/session"
)

func setupEnv(t *testing.T, apiURL string) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "checkin.db")
	t.Setenv("CHECKIN_DB_PATH", dbPath)
	t.Setenv("CHECKIN_API_URL", apiURL)
	t.Setenv("CHECKIN_HTTP_TIMEOUT", "1s")
	return dbPath
}

func run(t *testing.T, args ...string) (string, *runner, error) {
	t.Helper()
	root, r := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), r, err
}

// seedLocalSession leaves a token-less session for identity behind, as a
// previous offline login would.
func seedLocalSession(t *testing.T, dbPath string, identity *localstore.Identity, geofence *localstore.Geofence) {
	t.Helper()
	ctx := context.Background()
	db, err := localstore.OpenDB(dbPath)
	require.NoError(t, err)
	defer closeDB(db)

	logger := log.New("test")
	logger.SetOutput(io.Discard)
	local, err := localstore.New(ctx, db)
	require.NoError(t, err)
	sessions, err := session.New(db, logger)
	require.NoError(t, err)

	require.NoError(t, local.SaveIdentity(ctx, identity))
	if geofence != nil {
		require.NoError(t, local.SaveGeofence(ctx, geofence))
	}
	require.NoError(t, sessions.Save(ctx, identity, ""))
}

func TestRunner_ClosesStoreAfterFailedCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false, "message": "incorrect username or password", "reason": "INVALID_CREDENTIALS",
		})
	}))
	defer srv.Close()
	setupEnv(t, srv.URL+"/api")

	_, r, err := run(t, "login", "admin", "-p", "wrong")
	require.EqualError(t, err, "incorrect username or password")
	require.NotNil(t, r.app)

	sqlDB, err := r.app.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Ping())

	r.Close()
	assert.Error(t, sqlDB.Ping())
}

func TestRunner_CloseWithoutApp(t *testing.T) {
	r := &runner{}
	assert.NotPanics(t, r.Close)
}

func TestWhoami_ShowsCachedWorkplaceZone(t *testing.T) {
	wid := uint(2)
	tests := []struct {
		name     string
		geofence *localstore.Geofence
		want     string
	}{
		{
			name:     "cached zone",
			geofence: &localstore.Geofence{WorkplaceID: wid, RemoteID: 1, CenterLatitude: 19.432608, CenterLongitude: -99.133209, RadiusInMeters: 200},
			want:     "workplace zone: 19.432608, -99.133209 radius 200m",
		},
		{
			name: "zone not cached",
			want: "workplace zone: not cached",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.NotFoundHandler())
			srv.Close()
			dbPath := setupEnv(t, srv.URL)
			seedLocalSession(t, dbPath, &localstore.Identity{
				ID: 7, Username: "jdoe", FullName: "John Doe", Role: "Member", WorkplaceID: &wid, Active: true,
			}, tt.geofence)

			out, r, err := run(t, "whoami")
			r.Close()
			require.NoError(t, err)
			assert.Contains(t, out, "jdoe (John Doe) id=7 role=Member")
			assert.Contains(t, out, "session: authenticated(local)")
			assert.Contains(t, out, tt.want)
		})
	}
}

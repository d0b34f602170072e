package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"catalog/sync/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDropbox struct {
	tokenCalls    atomic.Int32
	downloadCalls atomic.Int32
	files         map[string]string
	expiresIn     int
	failToken     bool
}

func (d *fakeDropbox) server(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		d.tokenCalls.Add(1)
		if d.failToken {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "app-key", user)
		assert.Equal(t, "app-secret", pass)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "refresh-me", r.PostForm.Get("refresh_token"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "token-" + string(rune('0'+d.tokenCalls.Load())),
			"expires_in":   d.expiresIn,
		})
	})

	mux.HandleFunc("/2/files/download", func(w http.ResponseWriter, r *http.Request) {
		d.downloadCalls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))

		var arg struct {
			Path string `json:"path"`
		}
		require.NoError(t, json.Unmarshal([]byte(r.Header.Get("Dropbox-API-Arg")), &arg))

		body, ok := d.files[arg.Path]
		if !ok {
			http.Error(w, `{"error_summary":"path/not_found/"}`, http.StatusConflict)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte(body))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func dropboxConfig(srv *httptest.Server) config.DropboxConfig {
	return config.DropboxConfig{
		TokenURL:     srv.URL + "/oauth2/token",
		ContentURL:   srv.URL,
		AppKey:       "app-key",
		AppSecret:    "app-secret",
		RefreshToken: "refresh-me",
		Timeout:      5,
	}
}

func TestDropboxSource_Fetch(t *testing.T) {
	fake := &fakeDropbox{
		files:     map[string]string{"/catalogo/categorias.xlsx": "xlsx-bytes", "/catalogo/productos.xlsx": "more-bytes"},
		expiresIn: 14400,
	}
	srv := fake.server(t)

	source := NewDropboxSource(dropboxConfig(srv))

	data, err := source.Fetch(context.Background(), "/catalogo/categorias.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "xlsx-bytes", string(data))

	data, err = source.Fetch(context.Background(), "/catalogo/productos.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "more-bytes", string(data))

	assert.Equal(t, int32(1), fake.tokenCalls.Load(), "token is reused while valid")
	assert.Equal(t, int32(2), fake.downloadCalls.Load())
}

func TestDropboxSource_NotFound(t *testing.T) {
	fake := &fakeDropbox{files: map[string]string{}, expiresIn: 14400}
	srv := fake.server(t)

	_, err := NewDropboxSource(dropboxConfig(srv)).Fetch(context.Background(), "/missing.xlsx")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestDropboxSource_TokenFailure(t *testing.T) {
	fake := &fakeDropbox{failToken: true}
	srv := fake.server(t)

	_, err := NewDropboxSource(dropboxConfig(srv)).Fetch(context.Background(), "/any.xlsx")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Zero(t, fake.downloadCalls.Load())
}

func TestTokenSource_Refresh(t *testing.T) {
	fake := &fakeDropbox{expiresIn: 600}
	srv := fake.server(t)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tokens := NewTokenSource(dropboxConfig(srv), newHTTPClient(5, 0))
	tokens.now = func() time.Time { return now }

	tok, err := tokens.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", tok)
	// valid for expires_in minus the refresh margin
	assert.Equal(t, now.Add(540*time.Second), tokens.expiresAt)

	now = now.Add(500 * time.Second)
	tok, err = tokens.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", tok)
	assert.Equal(t, int32(1), fake.tokenCalls.Load())

	// inside the reuse margin a new token is requested
	now = now.Add(20 * time.Second)
	tok, err = tokens.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-2", tok)
	assert.Equal(t, int32(2), fake.tokenCalls.Load())
}

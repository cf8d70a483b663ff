package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthClientLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/token/", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		if body["username"] == "driver" && body["password"] == "secret" {
			_ = json.NewEncoder(w).Encode(map[string]string{"access": "acc-1", "refresh": "ref-1"})
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewAuthClient(srv.URL + "/api/")

	access, refresh, err := c.Login(context.Background(), "driver", "secret")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", access)
	assert.Equal(t, "ref-1", refresh)

	_, _, err = c.Login(context.Background(), "driver", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthClientLoginEmptyTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer srv.Close()

	c := NewAuthClient(srv.URL + "/api/")

	_, _, err := c.Login(context.Background(), "driver", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthClientRefresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/token/refresh/", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		if body["refresh"] == "ref-1" {
			_ = json.NewEncoder(w).Encode(map[string]string{"access": "acc-2"})
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewAuthClient(srv.URL + "/api/")

	access, err := c.Refresh(context.Background(), "ref-1")
	require.NoError(t, err)
	assert.Equal(t, "acc-2", access)

	_, err = c.Refresh(context.Background(), "dead")
	assert.ErrorIs(t, err, ErrRefreshRejected)
}

package authapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nenelamp/cyberguard/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(baseURL string) *Client {
	return New(Params{
		Config: &config.Config{
			API: config.API{
				BaseURL: baseURL,
				Timeout: time.Second,
			},
		},
		Log: zap.NewNop(),
	})
}

func Test_loginSuccess(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	var gotBody map[string]string
	var gotRequestID string

	r := chi.NewRouter()
	r.Post("/auth/login", func(w http.ResponseWriter, req *http.Request) {
		gotRequestID = req.Header.Get("X-Request-Id")
		require.NoError(json.NewDecoder(req.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token":"T","user":{"id":"1","firstName":"A","lastName":"B","email":"a@b.com"}}`))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	creds, err := newTestClient(srv.URL).Login(context.Background(), "a@b.com", "pw")
	require.NoError(err)

	assert.Equal("T", creds.Token)
	assert.Equal("1", creds.User.ID)
	assert.Equal("A", creds.User.FirstName)
	assert.Equal(map[string]string{"email": "a@b.com", "password": "pw"}, gotBody)
	assert.NotEmpty(gotRequestID)
}

func Test_loginRejected(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	r := chi.NewRouter()
	r.Post("/auth/login", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Invalid credentials"}`))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	_, err := newTestClient(srv.URL).Login(context.Background(), "a@b.com", "bad")
	require.Error(err)

	apiErr, ok := err.(*APIError)
	require.True(ok)
	assert.Equal(http.StatusUnauthorized, apiErr.Status)
	assert.Equal("Invalid credentials", apiErr.Message)
}

func Test_loginRejectedNoMessage(t *testing.T) {
	require := require.New(t)

	r := chi.NewRouter()
	r.Post("/auth/login", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	_, err := newTestClient(srv.URL).Login(context.Background(), "a@b.com", "pw")
	require.Error(err)

	apiErr, ok := err.(*APIError)
	require.True(ok)
	assert.Empty(t, apiErr.Message)
}

func Test_loginTransportError(t *testing.T) {
	srv := httptest.NewServer(chi.NewRouter())
	url := srv.URL
	srv.Close()

	_, err := newTestClient(url).Login(context.Background(), "a@b.com", "pw")
	require.Error(t, err)

	_, ok := err.(*APIError)
	assert.False(t, ok)
}

func Test_verify(t *testing.T) {
	assert := assert.New(t)

	var gotAuth string

	r := chi.NewRouter()
	r.Get("/auth/verify", func(w http.ResponseWriter, req *http.Request) {
		gotAuth = req.Header.Get("Authorization")
		if gotAuth != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
		}
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := newTestClient(srv.URL)

	assert.NoError(c.Verify(context.Background(), "good"))
	assert.Equal("Bearer good", gotAuth)
	assert.Error(c.Verify(context.Background(), "stale"))
}

func Test_signup(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	var gotBody SignupRequest

	r := chi.NewRouter()
	r.Post("/auth/signup", func(w http.ResponseWriter, req *http.Request) {
		require.NoError(json.NewDecoder(req.Body).Decode(&gotBody))
		w.Write([]byte(`{"token":"T2","user":{"id":"2","firstName":"New","lastName":"User","email":"n@u.com"}}`))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	req := SignupRequest{
		FirstName: "New",
		LastName:  "User",
		Email:     "n@u.com",
		Company:   "Acme",
		Password:  "pw",
	}
	creds, err := newTestClient(srv.URL).Signup(context.Background(), req)
	require.NoError(err)

	assert.Equal("T2", creds.Token)
	assert.Equal(req, gotBody)
}

func Test_mePartialResponse(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	r := chi.NewRouter()
	r.Get("/auth/me", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"lastName":"Renamed"}`))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	patch, err := newTestClient(srv.URL).Me(context.Background(), "T")
	require.NoError(err)

	require.NotNil(patch.LastName)
	assert.Equal("Renamed", *patch.LastName)
	assert.Nil(patch.FirstName)
	assert.Nil(patch.Email)
}

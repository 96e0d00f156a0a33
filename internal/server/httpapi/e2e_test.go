package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/bookmarker/internal/common"
	"github.com/dmitrijs2005/bookmarker/internal/cryptox"
	"github.com/dmitrijs2005/bookmarker/internal/dbx"
	"github.com/dmitrijs2005/bookmarker/internal/logging"
	"github.com/dmitrijs2005/bookmarker/internal/server/auth"
	"github.com/dmitrijs2005/bookmarker/internal/server/metrics"
	"github.com/dmitrijs2005/bookmarker/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/bookmarker/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastParams = cryptox.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func newE2EServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()

	db, dialect, err := dbx.Open(ctx, "sqlite:"+filepath.Join(t.TempDir(), "e2e.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rm, err := repomanager.New(dialect)
	require.NoError(t, err)
	require.NoError(t, rm.RunMigrations(ctx, db))

	issuer, err := auth.NewTokenIssuer([]byte("e2e-secret"), 15*time.Minute)
	require.NoError(t, err)

	logger := logging.NewNopLogger()
	m := metrics.New()
	svc := services.NewAuthService(db, rm, cryptox.NewArgon2Hasher(2, fastParams), issuer, m, logger)

	srv := httptest.NewServer(NewRouter(svc, issuer, m, logger))
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path, body, token string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func TestE2E_AuthFlow(t *testing.T) {
	srv := newE2EServer(t)
	creds := `{"email":"a@x.com","password":"pw123"}`

	// 1. signup
	status, body := call(t, srv, http.MethodPost, "/auth/signup", creds, "")
	require.Equal(t, http.StatusCreated, status, body)
	var created map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &created))
	assert.Equal(t, "a@x.com", created["email"])
	assert.NotEmpty(t, created["id"])
	assert.NotContains(t, strings.ToLower(body), "hash")
	assert.NotContains(t, body, "argon2")

	// 2. signup again
	status, body = call(t, srv, http.MethodPost, "/auth/signup", creds, "")
	require.Equal(t, http.StatusForbidden, status)
	assert.JSONEq(t, `{"statusCode":403,"message":"Credential taken","error":"Forbidden"}`, body)

	// 3. wrong password, and unknown email, look the same
	status, wrongPw := call(t, srv, http.MethodPost, "/auth/signin", `{"email":"a@x.com","password":"wrong"}`, "")
	require.Equal(t, http.StatusForbidden, status)
	assert.JSONEq(t, `{"statusCode":403,"message":"Credential incorrect","error":"Forbidden"}`, wrongPw)

	status, unknown := call(t, srv, http.MethodPost, "/auth/signin", `{"email":"ghost@x.com","password":"pw123"}`, "")
	require.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, wrongPw, unknown)

	// 4. signin
	status, body = call(t, srv, http.MethodPost, "/auth/signin", creds, "")
	require.Equal(t, http.StatusOK, status, body)
	var tok services.AccessToken
	require.NoError(t, json.Unmarshal([]byte(body), &tok))
	require.NotEmpty(t, tok.AccessToken)

	// 5. me with the token
	status, body = call(t, srv, http.MethodGet, "/users/me", "", tok.AccessToken)
	require.Equal(t, http.StatusOK, status, body)
	var me map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &me))
	assert.Equal(t, "a@x.com", me["email"])
	assert.Equal(t, created["id"], me["id"])
	assert.NotContains(t, strings.ToLower(body), "hash")

	// 6. me without a token
	status, body = call(t, srv, http.MethodGet, "/users/me", "", "")
	require.Equal(t, http.StatusUnauthorized, status)
	assert.JSONEq(t, unauthorizedBody, body)
}

func TestE2E_MeRejectsBadTokens(t *testing.T) {
	srv := newE2EServer(t)

	forger, err := auth.NewTokenIssuer([]byte("not-the-server-secret"), time.Minute)
	require.NoError(t, err)
	forged, err := forger.Issue("someone", "a@x.com", 0)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage": "garbage",
		"forged":  forged,
	} {
		t.Run(name, func(t *testing.T) {
			status, body := call(t, srv, http.MethodGet, "/users/me", "", token)
			require.Equal(t, http.StatusUnauthorized, status)
			assert.JSONEq(t, unauthorizedBody, body)
		})
	}
}

func TestE2E_ConcurrentSignupSameEmail(t *testing.T) {
	srv := newE2EServer(t)

	const n = 6
	statuses := make(chan int, n)
	for i := 0; i < n; i++ {
		go func() {
			resp, err := srv.Client().Post(srv.URL+"/auth/signup", "application/json",
				strings.NewReader(`{"email":"race@x.com","password":"pw"}`))
			if err != nil {
				statuses <- -1
				return
			}
			resp.Body.Close()
			statuses <- resp.StatusCode
		}()
	}

	counts := map[int]int{}
	for i := 0; i < n; i++ {
		counts[<-statuses]++
	}
	assert.Equal(t, map[int]int{http.StatusCreated: 1, http.StatusForbidden: n - 1}, counts)
}

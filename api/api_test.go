package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/starnotary/notary/authwindow"
	"github.com/starnotary/notary/block"
	"github.com/starnotary/notary/db"
	"github.com/starnotary/notary/jsonx"
	"github.com/starnotary/notary/ledger"
	"github.com/starnotary/notary/security/ratelimit"
	"github.com/starnotary/notary/signature"
	"github.com/starnotary/notary/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testStory = "Found star using https://www.google.com/sky/"

type testEnv struct {
	server   *APIServer
	handler  http.Handler
	provider db.IterableProvider
	key      *secp256k1.PrivateKey
	address  string
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()

	provider, err := db.NewMemLevelDBProvider()
	require.NoError(t, err)
	bs, err := store.NewGenericBlockStore(provider)
	require.NoError(t, err)
	t.Cleanup(bs.MustClose)

	now := func() time.Time { return time.Unix(1539000000, 0) }
	l := ledger.NewLedger(bs, ledger.WithClock(now))
	require.NoError(t, l.Initialize())
	w := authwindow.NewWindow(signature.NewVerifier(), authwindow.WithClock(now))

	if cfg.RateLimit == nil {
		cfg.RateLimit = &ratelimit.RateLimiterConfig{
			RequestsPerSecond: 1000,
			Burst:             1000,
			IdleTimeout:       time.Minute,
			CleanupInterval:   time.Minute,
		}
	}
	s := NewAPIServer(l, w, cfg)
	t.Cleanup(s.IPLimiter.Stop)

	key, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)

	return &testEnv{
		server:   s,
		handler:  s.Handler(),
		provider: provider,
		key:      key,
		address:  signature.AddressFromPubKey(key.PubKey(), true, signature.MainNetPubKeyHash),
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// authorize runs the request/sign/validate handshake for the env wallet.
func (e *testEnv) authorize(t *testing.T) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/requestValidation", `{"address":"`+e.address+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var token authwindow.Token
	require.NoError(t, jsonx.Unmarshal(rec.Body.Bytes(), &token))

	sig := signature.Sign(e.key, token.Message, true)
	rec = e.do(t, http.MethodPost, "/message-signature/validate", `{"address":"`+e.address+`","signature":"`+sig+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func (e *testEnv) starRequest(story string) string {
	return `{"address":"` + e.address + `","star":{"dec":"68° 52' 56.9","ra":"16h 29m 1.0s","story":"` + story + `"}}`
}

func decodeFailure(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, jsonx.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, rec.Code, resp.StatusCode)
	return resp
}

func TestStarRegistrationFlow(t *testing.T) {
	env := newTestEnv(t, Config{})

	rec := env.do(t, http.MethodPost, "/requestValidation", `{"address":"`+env.address+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var token authwindow.Token
	require.NoError(t, jsonx.Unmarshal(rec.Body.Bytes(), &token))
	assert.Equal(t, env.address+":1539000000:starRegistry", token.Message)
	assert.Equal(t, int64(300), token.ValidationWindow)

	sig := signature.Sign(env.key, token.Message, true)
	rec = env.do(t, http.MethodPost, "/message-signature/validate", `{"address":"`+env.address+`","signature":"`+sig+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var status authwindow.AuthorizationStatus
	require.NoError(t, jsonx.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.RegisterStar)
	assert.Equal(t, "valid", status.Status.MessageSignature)

	rec = env.do(t, http.MethodPost, "/block", env.starRequest(testStory))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var created block.Block
	require.NoError(t, jsonx.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, uint64(1), created.Height)
	assert.NotEmpty(t, created.Hash)
	assert.Contains(t, rec.Body.String(), `"time":"1539000000"`)
	assert.Contains(t, rec.Body.String(), block.EncodeStory(testStory))

	rec = env.do(t, http.MethodGet, "/block/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"storyDecoded":"`+testStory+`"`)

	rec = env.do(t, http.MethodGet, "/stars/address:"+env.address, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var views []block.View
	require.NoError(t, jsonx.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, created.Hash, views[0].Hash)

	rec = env.do(t, http.MethodGet, "/stars/hash:"+created.Hash, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view block.View
	require.NoError(t, jsonx.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, uint64(1), view.Height)

	rec = env.do(t, http.MethodGet, "/chain/validate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var report ledger.ValidationReport
	require.NoError(t, jsonx.Unmarshal(rec.Body.Bytes(), &report))
	assert.True(t, report.Valid())
	assert.Equal(t, uint64(2), report.ChainLength)

	rec = env.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","chainLength":2}`, rec.Body.String())

	// the permit is single use
	rec = env.do(t, http.MethodPost, "/block", env.starRequest(testStory))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, StatusRegistrationFailed, decodeFailure(t, rec).Status)
}

func TestPostBlockWithoutAuthorization(t *testing.T) {
	env := newTestEnv(t, Config{})

	rec := env.do(t, http.MethodPost, "/block", env.starRequest(testStory))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeFailure(t, rec)
	assert.Equal(t, StatusRegistrationFailed, resp.Status)
	assert.True(t, strings.HasPrefix(resp.Reason, "Bad Request. Validation request was not made"))
}

func TestPostBlockInputValidation(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.authorize(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `{"address":`},
		{name: "empty body", body: ``},
		{name: "missing star", body: `{"address":"` + env.address + `"}`},
		{name: "short address", body: `{"address":"1abc","star":{"dec":"dec","ra":"ra1","story":"story"}}`},
		{name: "short story", body: env.starRequest("ab")},
		{name: "non ascii story", body: env.starRequest("étoile filante")},
		{name: "too many words", body: env.starRequest(strings.TrimSpace(strings.Repeat("w ", 251)))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/block", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			resp := decodeFailure(t, rec)
			assert.Equal(t, StatusInputValidation, resp.Status)
		})
	}

	// rejected requests do not consume the permit
	rec := env.do(t, http.MethodPost, "/block", env.starRequest(testStory))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestPostBlockOversizeBody(t *testing.T) {
	env := newTestEnv(t, Config{MaxBodyBytes: 256})
	env.authorize(t)

	rec := env.do(t, http.MethodPost, "/block", env.starRequest(strings.Repeat("a", 512)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeFailure(t, rec).Reason, "exceeds maximum allowed size")
}

func TestPostBlockCustomWordLimit(t *testing.T) {
	env := newTestEnv(t, Config{MaxStoryWords: 3})
	env.authorize(t)

	rec := env.do(t, http.MethodPost, "/block", env.starRequest("one two three four"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Bad Request. Star story has to be 3 or less words", decodeFailure(t, rec).Reason)
}

func TestPostBlockStoreFailureKeepsPermit(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.authorize(t)

	require.NoError(t, env.provider.Close())

	for i := 0; i < 2; i++ {
		rec := env.do(t, http.MethodPost, "/block", env.starRequest(testStory))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		resp := decodeFailure(t, rec)
		assert.Equal(t, StatusInternal, resp.Status)
		assert.Equal(t, "Could not add block to Blockchain.", resp.Reason)
	}
}

func TestGetBlockErrors(t *testing.T) {
	env := newTestEnv(t, Config{})

	tests := []struct {
		path   string
		reason string
	}{
		{path: "/block/abc", reason: "Bad Request. Invalid value/type for block height"},
		{path: "/block/-1", reason: "Bad Request. Invalid value/type for block height"},
		{path: "/block/99", reason: "Bad Request. Block with height 99 does not exist"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, tt.path, "")
			require.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decodeFailure(t, rec)
			assert.Equal(t, StatusRetrievalFailed, resp.Status)
			assert.Equal(t, tt.reason, resp.Reason)
		})
	}
}

func TestGetGenesisBlock(t *testing.T) {
	env := newTestEnv(t, Config{})

	rec := env.do(t, http.MethodGet, "/block/0", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), block.GenesisBody)
	assert.Contains(t, rec.Body.String(), `"previousBlockHash":""`)
}

func TestGetStarsErrors(t *testing.T) {
	env := newTestEnv(t, Config{})

	tests := []struct {
		path   string
		reason string
	}{
		{path: "/stars/address:" + "1NobodyHasThisWallet", reason: "Bad Request. No stars for wallet: 1NobodyHasThisWallet"},
		{path: "/stars/hash:deadbeef", reason: "Bad Request. No star for blockHash: deadbeef"},
		{path: "/stars/owner:someone", reason: "Bad Request. Unknown star selector: owner:someone"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, tt.path, "")
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.reason, decodeFailure(t, rec).Reason)
		})
	}
}

func TestValidateSignatureFailures(t *testing.T) {
	env := newTestEnv(t, Config{})

	sig := signature.Sign(env.key, "anything", true)
	rec := env.do(t, http.MethodPost, "/message-signature/validate", `{"address":"`+env.address+`","signature":"`+sig+`"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, StatusSignatureFailed, decodeFailure(t, rec).Status)

	rec = env.do(t, http.MethodPost, "/requestValidation", `{"address":"`+env.address+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var token authwindow.Token
	require.NoError(t, jsonx.Unmarshal(rec.Body.Bytes(), &token))

	rec = env.do(t, http.MethodPost, "/message-signature/validate", `{"address":"`+env.address+`","signature":"`+sig+`"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeFailure(t, rec)
	assert.Equal(t, StatusSignatureFailed, resp.Status)
	assert.Contains(t, resp.Reason, "failed to sign the message")

	rec = env.do(t, http.MethodPost, "/message-signature/validate", `{"address":"`+env.address+`","signature":"not base64!"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	good := signature.Sign(env.key, token.Message, true)
	rec = env.do(t, http.MethodPost, "/message-signature/validate", `{"address":"`+env.address+`","signature":"`+good+`"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestValidationSchema(t *testing.T) {
	env := newTestEnv(t, Config{})

	rec := env.do(t, http.MethodPost, "/requestValidation", `{"address":"short"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeFailure(t, rec)
	assert.Equal(t, StatusInputValidation, resp.Status)
	assert.Equal(t, "Bad Request. Field 'address' must be at least 10 characters long", resp.Reason)
}

func TestRateLimitOnPostEndpoints(t *testing.T) {
	env := newTestEnv(t, Config{RateLimit: &ratelimit.RateLimiterConfig{
		RequestsPerSecond: 0.001,
		Burst:             2,
		IdleTimeout:       time.Minute,
		CleanupInterval:   time.Minute,
	}})

	body := `{"address":"` + env.address + `"}`
	for i := 0; i < 2; i++ {
		rec := env.do(t, http.MethodPost, "/requestValidation", body)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := env.do(t, http.MethodPost, "/requestValidation", body)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, StatusTooManyRequests, decodeFailure(t, rec).Status)

	// reads are not limited
	rec = env.do(t, http.MethodGet, "/block/0", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIDHeader(t *testing.T) {
	env := newTestEnv(t, Config{})

	rec := env.do(t, http.MethodGet, "/health", "")
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "3b241101-e2bb-4255-8caf-4136c566a962")
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, "3b241101-e2bb-4255-8caf-4136c566a962", rec.Header().Get(RequestIDHeader))
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, Config{})

	rec := env.do(t, http.MethodDelete, "/block", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, Config{EnableMetrics: true})

	env.do(t, http.MethodGet, "/health", "")
	rec := env.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "notary_http_requests_total")
}

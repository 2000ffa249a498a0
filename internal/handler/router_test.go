package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nutritrack/nutritrack-go/internal/crypto"
	"github.com/nutritrack/nutritrack-go/internal/model"
	"github.com/nutritrack/nutritrack-go/internal/repository"
	"github.com/nutritrack/nutritrack-go/internal/service"
	"github.com/nutritrack/nutritrack-go/internal/validation"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return newTestRouterWith(t, func(*RouterConfig) {})
}

func newTestRouterWith(t *testing.T, configure func(*RouterConfig)) http.Handler {
	t.Helper()

	store := repository.NewMemoryStore()
	v := validation.New()
	hasher := crypto.NewHasher(crypto.HashParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	tokens := crypto.NewTokenIssuer("test-secret", 7*24*time.Hour)

	authSvc, err := service.NewAuthService(store, hasher, tokens, v)
	require.NoError(t, err)
	profileSvc := service.NewProfileService(store.Profiles(), v)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := RouterConfig{
		Auth:           NewAuthHandler(authSvc),
		Profile:        NewProfileHandler(profileSvc),
		Verifier:       tokens,
		Logger:         zerolog.Nop(),
		AllowedOrigins: []string{"http://localhost:5173"},
		RateLimitRPS:   100,
		RateLimitBurst: 100,
	}
	configure(&cfg)

	return NewRouter(ctx, cfg)
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func signUp(t *testing.T, h http.Handler, email string) model.AuthResponse {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/signup", "", map[string]string{
		"firstName": "Ada", "lastName": "Lovelace", "email": email, "password": "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[model.AuthResponse](t, rec)
}

var profileBody = map[string]any{
	"age": 30, "weight": 70.5, "height": 175, "gender": "Female", "goal": "Maintain Weight",
}

func TestSignUpAndSignIn(t *testing.T) {
	h := newTestRouter(t)

	created := signUp(t, h, " A@B.com ")
	assert.Equal(t, "a@b.com", created.User.Email)
	assert.NotEmpty(t, created.Token)

	rec := do(t, h, http.MethodPost, "/signin", "", map[string]string{"email": "a@b.com", "password": "password123"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[model.AuthResponse](t, rec)
	assert.Equal(t, created.User.ID, resp.User.ID)
	assert.NotContains(t, rec.Body.String(), "argon2")
}

func TestSignUp_Duplicate(t *testing.T) {
	h := newTestRouter(t)
	signUp(t, h, "a@b.com")

	rec := do(t, h, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"firstName": "Ada", "lastName": "Lovelace", "email": "A@B.COM", "password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "DuplicateUser", decodeBody[map[string]string](t, rec)["error"])
}

func TestSignIn_UniformFailure(t *testing.T) {
	h := newTestRouter(t)
	signUp(t, h, "a@b.com")

	wrong := do(t, h, http.MethodPost, "/signin", "", map[string]string{"email": "a@b.com", "password": "nope-nope"})
	unknown := do(t, h, http.MethodPost, "/signin", "", map[string]string{"email": "x@b.com", "password": "password123"})

	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())
}

func TestRequestBodyErrors(t *testing.T) {
	h := newTestRouter(t)

	tests := []struct {
		name   string
		body   string
		status int
		kind   string
	}{
		{"malformed json", `{"email":`, http.StatusBadRequest, "ValidationError"},
		{"empty body", ``, http.StatusBadRequest, "ValidationError"},
		{"trailing value", `{"email":"a@b.com","password":"password123"} {"x":1}`, http.StatusBadRequest, "ValidationError"},
		{"trailing garbage", `{"email":"a@b.com","password":"password123"}]`, http.StatusBadRequest, "ValidationError"},
		{"unknown field", `{"email":"a@b.com","password":"password123","role":"admin"}`, http.StatusBadRequest, "ValidationError"},
		{"too large", `{"email":"` + strings.Repeat("a", 2<<20) + `"}`, http.StatusRequestEntityTooLarge, "PayloadTooLarge"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/signin", "", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.kind, decodeBody[map[string]string](t, rec)["error"])
		})
	}
}

func TestProfileFlow(t *testing.T) {
	h := newTestRouter(t)
	user := signUp(t, h, "a@b.com")

	rec := do(t, h, http.MethodGet, "/api/auth/profile", user.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"profile":{"age":null,"weight":null,"height":null,"gender":null,"goal":null}}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/profile", user.Token, profileBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"profile":{"age":30,"weight":70.5,"height":175,"gender":"Female","goal":"Maintain Weight"}}`, rec.Body.String())

	second := map[string]any{"age": 50, "weight": 90, "height": 180, "gender": "Male", "goal": "Gain Muscle"}
	rec = do(t, h, http.MethodPost, "/users/"+user.User.ID+"/profile", user.Token, second)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{
		"error": "ProfileAlreadyExists",
		"message": "profile already exists",
		"profile": {"age":30,"weight":70.5,"height":175,"gender":"Female","goal":"Maintain Weight"}
	}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/users/"+user.User.ID+"/profile", user.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[model.ProfileResponse](t, rec)
	assert.Equal(t, 30, *got.Profile.Age)
}

func TestProfile_Invalid(t *testing.T) {
	h := newTestRouter(t)
	user := signUp(t, h, "a@b.com")

	bad := map[string]any{"age": 30, "weight": 70.5, "height": 175, "gender": "robot", "goal": "Maintain Weight"}
	rec := do(t, h, http.MethodPost, "/profile", user.Token, bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "ValidationError", body["error"])
	assert.Equal(t, "gender is invalid", body["message"])
}

func TestProfile_OtherUser(t *testing.T) {
	h := newTestRouter(t)
	alice := signUp(t, h, "alice@b.com")
	bob := signUp(t, h, "bob@b.com")

	rec := do(t, h, http.MethodGet, "/users/"+alice.User.ID+"/profile", bob.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodPost, "/users/"+alice.User.ID+"/profile", bob.Token, profileBody)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := newTestRouter(t)

	for _, path := range []string{"/me", "/profile", "/api/auth/profile"} {
		rec := do(t, h, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec := do(t, h, http.MethodGet, "/profile", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "malformed token", decodeBody[map[string]string](t, rec)["message"])
}

func TestMe(t *testing.T) {
	h := newTestRouter(t)
	user := signUp(t, h, "a@b.com")

	rec := do(t, h, http.MethodGet, "/me", user.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[map[string]model.UserResponse](t, rec)
	assert.Equal(t, user.User.ID, got["user"].ID)
	assert.Equal(t, "Ada", got["user"].FirstName)
}

func TestBannerAndHealth(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Backend is Connected", rec.Body.String())

	rec = do(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	h := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/auth/signin", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/auth/signin", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func signInFrom(h http.Handler, remoteAddr, forwardedFor string) int {
	req := httptest.NewRequest(http.MethodPost, "/signin", strings.NewReader(`{"email":"a@b.com","password":"password123"}`))
	req.RemoteAddr = remoteAddr
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimit_IgnoresForwardedForByDefault(t *testing.T) {
	h := newTestRouterWith(t, func(cfg *RouterConfig) {
		cfg.RateLimitRPS = 0.001
		cfg.RateLimitBurst = 2
	})

	var codes []int
	for i := 0; i < 5; i++ {
		codes = append(codes, signInFrom(h, "203.0.113.7:4000", fmt.Sprintf("198.51.100.%d", i+1)))
	}

	assert.Equal(t, []int{
		http.StatusUnauthorized, http.StatusUnauthorized,
		http.StatusTooManyRequests, http.StatusTooManyRequests, http.StatusTooManyRequests,
	}, codes)
}

func TestRateLimit_TrustProxy(t *testing.T) {
	h := newTestRouterWith(t, func(cfg *RouterConfig) {
		cfg.RateLimitRPS = 0.001
		cfg.RateLimitBurst = 1
		cfg.TrustProxy = true
	})

	assert.Equal(t, http.StatusUnauthorized, signInFrom(h, "10.0.0.1:4000", "198.51.100.1"))
	assert.Equal(t, http.StatusTooManyRequests, signInFrom(h, "10.0.0.1:4000", "198.51.100.1"))
	// Behind a trusted proxy each forwarded client gets its own bucket.
	assert.Equal(t, http.StatusUnauthorized, signInFrom(h, "10.0.0.1:4000", "198.51.100.2"))
}

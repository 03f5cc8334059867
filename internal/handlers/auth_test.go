package handlers_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/barberia/backend/internal/auth"
	"github.com/barberia/backend/internal/handlers"
	"github.com/barberia/backend/internal/repositories"
	"github.com/barberia/backend/internal/router"
	"github.com/barberia/backend/internal/services"
	"github.com/rs/zerolog"
	"github.com/steinfletcher/apitest"
	jsonpath "github.com/steinfletcher/apitest-jsonpath"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

type testEnv struct {
	handler http.Handler
	service *services.AuthService
	tokens  *auth.TokenService
}

func newTestEnv(denylist repositories.TokenDenylist) *testEnv {
	repo := repositories.NewMemoryAccountRepository()
	tokens := auth.NewTokenService(testSecret, time.Hour)
	hasher := auth.NewHasher(bcrypt.MinCost)
	service := services.NewAuthService(repo, denylist, hasher, tokens, zerolog.Nop())
	handler := handlers.NewAuthHandler(service, zerolog.Nop())
	return &testEnv{
		handler: router.New(handler, tokens, denylist, zerolog.Nop()),
		service: service,
		tokens:  tokens,
	}
}

func (e *testEnv) registerAna(t *testing.T) *services.AuthResult {
	t.Helper()
	result, err := e.service.Register(context.Background(), services.RegisterRequest{
		FullName:        "Ana Gomez",
		Email:           "ana@x.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	})
	require.NoError(t, err)
	return result
}

func TestRegister_Success(t *testing.T) {
	env := newTestEnv(nil)

	apitest.New().
		Handler(env.handler).
		Post("/api/auth/register").
		JSON(`{"full_name":"Ana Gomez","email":"ana@x.com","password":"secret1","confirm_password":"secret1"}`).
		Expect(t).
		Status(http.StatusCreated).
		Assert(jsonpath.Present("$.token")).
		Assert(jsonpath.Equal("$.user.full_name", "Ana Gomez")).
		Assert(jsonpath.Equal("$.user.email", "ana@x.com")).
		Assert(jsonpath.NotPresent("$.user.password_hash")).
		End()
}

func TestRegister_PasswordMismatch(t *testing.T) {
	env := newTestEnv(nil)

	apitest.New().
		Handler(env.handler).
		Post("/api/auth/register").
		JSON(`{"full_name":"Ana Gomez","email":"ana@x.com","password":"secret1","confirm_password":"different"}`).
		Expect(t).
		Status(http.StatusBadRequest).
		Assert(jsonpath.Equal("$.error", "passwords do not match")).
		End()

	// No account was created, so a login attempt fails.
	apitest.New().
		Handler(env.handler).
		Post("/api/auth/login").
		JSON(`{"email":"ana@x.com","password":"secret1"}`).
		Expect(t).
		Status(http.StatusUnauthorized).
		End()
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := newTestEnv(nil)
	env.registerAna(t)

	apitest.New().
		Handler(env.handler).
		Post("/api/auth/register").
		JSON(`{"full_name":"Other Ana","email":"ana@x.com","password":"secret2","confirm_password":"secret2"}`).
		Expect(t).
		Status(http.StatusConflict).
		Assert(jsonpath.Equal("$.error", "email already registered")).
		End()
}

func TestRegister_MalformedBody(t *testing.T) {
	env := newTestEnv(nil)

	apitest.New().
		Handler(env.handler).
		Post("/api/auth/register").
		Body(`{not json`).
		Expect(t).
		Status(http.StatusBadRequest).
		End()
}

func TestLogin_Success(t *testing.T) {
	env := newTestEnv(nil)
	registered := env.registerAna(t)

	apitest.New().
		Handler(env.handler).
		Post("/api/auth/login").
		JSON(`{"email":"ana@x.com","password":"secret1"}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Present("$.token")).
		Assert(jsonpath.Equal("$.user.id", registered.Account.ID.String())).
		End()
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := newTestEnv(nil)
	env.registerAna(t)

	apitest.New().
		Handler(env.handler).
		Post("/api/auth/login").
		JSON(`{"email":"ana@x.com","password":"wrong"}`).
		Expect(t).
		Status(http.StatusUnauthorized).
		Assert(jsonpath.Equal("$.error", "invalid email or password")).
		End()

	// Unknown email: byte-identical error, no account enumeration.
	apitest.New().
		Handler(env.handler).
		Post("/api/auth/login").
		JSON(`{"email":"nobody@x.com","password":"secret1"}`).
		Expect(t).
		Status(http.StatusUnauthorized).
		Assert(jsonpath.Equal("$.error", "invalid email or password")).
		End()
}

func TestLogin_MissingFields(t *testing.T) {
	env := newTestEnv(nil)

	apitest.New().
		Handler(env.handler).
		Post("/api/auth/login").
		JSON(`{"email":"ana@x.com"}`).
		Expect(t).
		Status(http.StatusBadRequest).
		End()
}

func TestMe_Success(t *testing.T) {
	env := newTestEnv(nil)
	registered := env.registerAna(t)

	apitest.New().
		Handler(env.handler).
		Get("/api/auth/me").
		Header("Authorization", "Bearer "+registered.Token).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.user.id", registered.Account.ID.String())).
		Assert(jsonpath.Equal("$.user.full_name", "Ana Gomez")).
		Assert(jsonpath.NotPresent("$.user.password_hash")).
		End()
}

func TestMe_NoToken(t *testing.T) {
	env := newTestEnv(nil)

	apitest.New().
		Handler(env.handler).
		Get("/api/auth/me").
		Expect(t).
		Status(http.StatusUnauthorized).
		End()
}

func TestMe_BadToken(t *testing.T) {
	env := newTestEnv(nil)

	apitest.New().
		Handler(env.handler).
		Get("/api/auth/me").
		Header("Authorization", "Bearer garbage").
		Expect(t).
		Status(http.StatusForbidden).
		End()
}

func TestMe_ExpiredToken(t *testing.T) {
	env := newTestEnv(nil)
	registered := env.registerAna(t)

	// Same secret, validity window already in the past.
	expiredIssuer := auth.NewTokenService(testSecret, -time.Hour)
	expired, _, err := expiredIssuer.Issue(registered.Account.ID, "ana@x.com")
	require.NoError(t, err)

	apitest.New().
		Handler(env.handler).
		Get("/api/auth/me").
		Header("Authorization", "Bearer "+expired).
		Expect(t).
		Status(http.StatusForbidden).
		End()
}

func TestMe_AccountDeleted(t *testing.T) {
	// No denylist wired: a valid token for a deleted account reaches the
	// handler, which reports the account as gone.
	env := newTestEnv(nil)
	registered := env.registerAna(t)

	claims, err := env.tokens.Verify(registered.Token)
	require.NoError(t, err)
	err = env.service.DeleteAccount(context.Background(), registered.Account.ID, claims, "secret1")
	require.NoError(t, err)

	apitest.New().
		Handler(env.handler).
		Get("/api/auth/me").
		Header("Authorization", "Bearer "+registered.Token).
		Expect(t).
		Status(http.StatusNotFound).
		End()
}

func TestChangePassword_Flow(t *testing.T) {
	env := newTestEnv(nil)
	registered := env.registerAna(t)
	authz := "Bearer " + registered.Token

	apitest.New().
		Handler(env.handler).
		Post("/api/auth/change-password").
		Header("Authorization", authz).
		JSON(`{"current_password":"wrong","new_password":"newsecret"}`).
		Expect(t).
		Status(http.StatusUnauthorized).
		Assert(jsonpath.Equal("$.error", "current password incorrect")).
		End()

	apitest.New().
		Handler(env.handler).
		Post("/api/auth/change-password").
		Header("Authorization", authz).
		JSON(`{"current_password":"secret1","new_password":"12345"}`).
		Expect(t).
		Status(http.StatusBadRequest).
		End()

	apitest.New().
		Handler(env.handler).
		Post("/api/auth/change-password").
		Header("Authorization", authz).
		JSON(`{"current_password":"secret1","new_password":"newsecret"}`).
		Expect(t).
		Status(http.StatusOK).
		End()

	apitest.New().
		Handler(env.handler).
		Post("/api/auth/login").
		JSON(`{"email":"ana@x.com","password":"newsecret"}`).
		Expect(t).
		Status(http.StatusOK).
		End()
}

func TestChangePassword_RevokesPresentingToken(t *testing.T) {
	env := newTestEnv(repositories.NewMemoryTokenDenylist())
	registered := env.registerAna(t)
	authz := "Bearer " + registered.Token

	apitest.New().
		Handler(env.handler).
		Post("/api/auth/change-password").
		Header("Authorization", authz).
		JSON(`{"current_password":"secret1","new_password":"newsecret"}`).
		Expect(t).
		Status(http.StatusOK).
		End()

	// The token used for the change is now refused by the guard.
	apitest.New().
		Handler(env.handler).
		Get("/api/auth/me").
		Header("Authorization", authz).
		Expect(t).
		Status(http.StatusForbidden).
		End()
}

func TestDeleteAccount_WrongPassword(t *testing.T) {
	env := newTestEnv(repositories.NewMemoryTokenDenylist())
	registered := env.registerAna(t)
	authz := "Bearer " + registered.Token

	apitest.New().
		Handler(env.handler).
		Delete("/api/auth/delete-account").
		Header("Authorization", authz).
		JSON(`{"password":"wrong"}`).
		Expect(t).
		Status(http.StatusUnauthorized).
		End()

	// Account survives and the same token still works.
	apitest.New().
		Handler(env.handler).
		Get("/api/auth/me").
		Header("Authorization", authz).
		Expect(t).
		Status(http.StatusOK).
		End()
}

func TestDeleteAccount_Success(t *testing.T) {
	env := newTestEnv(repositories.NewMemoryTokenDenylist())
	registered := env.registerAna(t)
	authz := "Bearer " + registered.Token

	apitest.New().
		Handler(env.handler).
		Delete("/api/auth/delete-account").
		Header("Authorization", authz).
		JSON(`{"password":"secret1"}`).
		Expect(t).
		Status(http.StatusOK).
		End()

	// The presenting token was revoked along with the account.
	apitest.New().
		Handler(env.handler).
		Get("/api/auth/me").
		Header("Authorization", authz).
		Expect(t).
		Status(http.StatusForbidden).
		End()

	// Credentials are gone too.
	apitest.New().
		Handler(env.handler).
		Post("/api/auth/login").
		JSON(`{"email":"ana@x.com","password":"secret1"}`).
		Expect(t).
		Status(http.StatusUnauthorized).
		End()
}

func TestDeleteAccount_MissingPassword(t *testing.T) {
	env := newTestEnv(nil)
	registered := env.registerAna(t)

	apitest.New().
		Handler(env.handler).
		Delete("/api/auth/delete-account").
		Header("Authorization", "Bearer "+registered.Token).
		JSON(`{}`).
		Expect(t).
		Status(http.StatusBadRequest).
		End()
}

func TestLogout_Ack(t *testing.T) {
	env := newTestEnv(nil)

	apitest.New().
		Handler(env.handler).
		Post("/api/auth/logout").
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.message", "logged out")).
		End()
}

func TestHealth(t *testing.T) {
	env := newTestEnv(nil)

	apitest.New().
		Handler(env.handler).
		Get("/health").
		Expect(t).
		Status(http.StatusOK).
		Body("OK").
		End()
}

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/accounts/auth-api/internal/core/domain"
	"github.com/accounts/auth-api/internal/core/service"
	"github.com/accounts/auth-api/internal/infrastructure/db/memory"
)

func newTestServer() (*echo.Echo, *memory.UserRepository) {
	repo := memory.NewUserRepository()
	users := service.NewUserService(repo, bcrypt.MinCost, zerolog.Nop())
	tokens := service.NewTokenService("access-secret", time.Hour, "refresh-secret", 24*time.Hour)
	auth := service.NewAuthService(users, tokens, zerolog.Nop())

	e := NewRouter(Dependencies{
		AuthService: auth,
		UserService: users,
		Tokens:      tokens,
		Logger:      zerolog.Nop(),
		Registerer:  prometheus.NewRegistry(),
	})
	return e, repo
}

func doJSON(e *echo.Echo, method, path, body, token string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type authResponse struct {
	User struct {
		ID     string        `json:"id"`
		Email  string        `json:"email"`
		Role   domain.Role   `json:"role"`
		Status domain.Status `json:"status"`
	} `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func registerUser(t *testing.T, e *echo.Echo, email, role string) authResponse {
	t.Helper()
	body := `{"first_name":"Alice","last_name":"Smith","email":"` + email + `","password":"password123"`
	if role != "" {
		body += `,"role":"` + role + `"`
	}
	body += `}`

	rec := doJSON(e, http.MethodPost, "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return resp
}

func TestRouter_RegisterReturnsActiveUserWithoutSecrets(t *testing.T) {
	e, _ := newTestServer()

	resp := registerUser(t, e, "alice@example.com", "")

	if resp.User.Status != domain.StatusActive {
		t.Fatalf("expected active user, got %s", resp.User.Status)
	}
	if resp.User.Role != domain.RoleUser {
		t.Fatalf("expected default role, got %s", resp.User.Role)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatalf("expected token pair")
	}

	rec := doJSON(e, http.MethodPost, "/api/v1/auth/register",
		`{"first_name":"Bob","last_name":"Jones","email":"bob@example.com","password":"password123"}`, "")
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("response leaks password material: %s", rec.Body.String())
	}
}

func TestRouter_RegisterDuplicateEmail(t *testing.T) {
	e, _ := newTestServer()
	registerUser(t, e, "carol@example.com", "")

	rec := doJSON(e, http.MethodPost, "/api/v1/auth/register",
		`{"first_name":"Carol","last_name":"Smith","email":"carol@example.com","password":"password123"}`, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "User with this email already exists") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestRouter_RegisterValidation(t *testing.T) {
	e, _ := newTestServer()

	cases := []string{
		`{"first_name":"A","last_name":"Smith","email":"a@example.com","password":"password123"}`,
		`{"first_name":"Alice","last_name":"Smith","email":"not-an-email","password":"password123"}`,
		`{"first_name":"Alice","last_name":"Smith","email":"a@example.com","password":"short"}`,
		`{"first_name":"Alice","last_name":"Smith","email":"a@example.com","password":"password123","role":"root"}`,
	}
	for _, body := range cases {
		rec := doJSON(e, http.MethodPost, "/api/v1/auth/register", body, "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestRouter_LoginFailuresShareOneMessage(t *testing.T) {
	e, _ := newTestServer()
	registerUser(t, e, "dave@example.com", "")

	wrongPass := doJSON(e, http.MethodPost, "/api/v1/auth/login",
		`{"email":"dave@example.com","password":"wrongpassword"}`, "")
	noUser := doJSON(e, http.MethodPost, "/api/v1/auth/login",
		`{"email":"ghost@example.com","password":"password123"}`, "")

	if wrongPass.Code != http.StatusUnauthorized || noUser.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", wrongPass.Code, noUser.Code)
	}
	if wrongPass.Body.String() != noUser.Body.String() {
		t.Fatalf("bodies differ: %s vs %s", wrongPass.Body.String(), noUser.Body.String())
	}
}

func TestRouter_LoginInactiveAccount(t *testing.T) {
	e, repo := newTestServer()
	resp := registerUser(t, e, "eve@example.com", "")

	if err := repo.UpdateStatus(context.Background(), resp.User.ID, domain.StatusInactive); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	rec := doJSON(e, http.MethodPost, "/api/v1/auth/login",
		`{"email":"eve@example.com","password":"password123"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Account is not active") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestRouter_RefreshAndLogout(t *testing.T) {
	e, _ := newTestServer()
	resp := registerUser(t, e, "frank@example.com", "")

	rec := doJSON(e, http.MethodPost, "/api/v1/auth/refresh",
		`{"refresh_token":"`+resp.RefreshToken+`"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "access_token") {
		t.Fatalf("unexpected refresh body: %s", rec.Body.String())
	}

	rec = doJSON(e, http.MethodPost, "/api/v1/auth/logout", "", resp.AccessToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(e, http.MethodPost, "/api/v1/auth/refresh",
		`{"refresh_token":"`+resp.RefreshToken+`"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("refresh after logout: expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid refresh token") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestRouter_ProtectedRouteRequiresToken(t *testing.T) {
	e, _ := newTestServer()

	rec := doJSON(e, http.MethodGet, "/api/v1/users/profile", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRouter_ProfileRoundTrip(t *testing.T) {
	e, _ := newTestServer()
	resp := registerUser(t, e, "gina@example.com", "")

	rec := doJSON(e, http.MethodGet, "/api/v1/users/profile", "", resp.AccessToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "gina@example.com") {
		t.Fatalf("unexpected profile body: %s", rec.Body.String())
	}

	rec = doJSON(e, http.MethodPut, "/api/v1/users/profile",
		`{"first_name":"Georgina"}`, resp.AccessToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("update profile: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Georgina") {
		t.Fatalf("unexpected update body: %s", rec.Body.String())
	}
}

func TestRouter_ChangePassword(t *testing.T) {
	e, _ := newTestServer()
	resp := registerUser(t, e, "hank@example.com", "")

	rec := doJSON(e, http.MethodPut, "/api/v1/users/change-password",
		`{"current_password":"wrongpassword","new_password":"newpassword1"}`, resp.AccessToken)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong current password: expected 401, got %d", rec.Code)
	}

	rec = doJSON(e, http.MethodPut, "/api/v1/users/change-password",
		`{"current_password":"password123","new_password":"newpassword1"}`, resp.AccessToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("change password: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(e, http.MethodPost, "/api/v1/auth/login",
		`{"email":"hank@example.com","password":"newpassword1"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login with new password: expected 200, got %d", rec.Code)
	}
}

func TestRouter_AdminGating(t *testing.T) {
	e, _ := newTestServer()
	admin := registerUser(t, e, "admin@example.com", "admin")
	user := registerUser(t, e, "user@example.com", "")

	rec := doJSON(e, http.MethodGet, "/api/v1/users", "", user.AccessToken)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("user role on admin route: expected 403, got %d", rec.Code)
	}

	rec = doJSON(e, http.MethodGet, "/api/v1/users", "", admin.AccessToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin list: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("listing leaks password material: %s", rec.Body.String())
	}

	rec = doJSON(e, http.MethodGet, "/api/v1/users/"+user.User.ID, "", admin.AccessToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin get by id: expected 200, got %d", rec.Code)
	}

	rec = doJSON(e, http.MethodDelete, "/api/v1/users/"+user.User.ID, "", admin.AccessToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin delete: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(e, http.MethodDelete, "/api/v1/users/"+user.User.ID, "", admin.AccessToken)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", rec.Code)
	}
}

func TestRouter_DeletedUserLosesAccess(t *testing.T) {
	e, _ := newTestServer()
	admin := registerUser(t, e, "admin@example.com", "admin")
	user := registerUser(t, e, "victim@example.com", "")

	rec := doJSON(e, http.MethodDelete, "/api/v1/users/"+user.User.ID, "", admin.AccessToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}

	// the still-unexpired access token must be rejected once the user is gone
	rec = doJSON(e, http.MethodGet, "/api/v1/users/profile", "", user.AccessToken)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for deleted user, got %d", rec.Code)
	}
}

func TestRouter_Liveness(t *testing.T) {
	e, _ := newTestServer()

	rec := doJSON(e, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

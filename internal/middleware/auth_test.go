package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"infinite-experiment/kontrollburo/internal/auth"
	"infinite-experiment/kontrollburo/internal/constants"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, cid int, role constants.OperatorRole) string {
	claims := &auth.OperatorTokenClaims{
		CID:  cid,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return signed
}

func claimsEcho(got *auth.Claims) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = auth.GetClaims(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware_ValidBearerToken(t *testing.T) {
	var got auth.Claims
	handler := AuthMiddleware(nil, testSecret)(claimsEcho(&got))

	req := httptest.NewRequest("GET", "/api/v1/subjects/1000001/status", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, 1000010, constants.RoleStaff))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if got == nil {
		t.Fatal("Expected claims in request context")
	}
	if got.SubjectCID() != 1000010 {
		t.Errorf("Expected CID 1000010, got %d", got.SubjectCID())
	}
	if !got.CanManageRemovals() {
		t.Error("Staff claims should carry removal rights")
	}
}

func TestAuthMiddleware_RejectsBadToken(t *testing.T) {
	var got auth.Claims
	handler := AuthMiddleware(nil, testSecret)(claimsEcho(&got))

	req := httptest.NewRequest("GET", "/api/v1/subjects/1000001/status", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rr.Code)
	}
}

func TestAuthMiddleware_RejectsWrongSecret(t *testing.T) {
	var got auth.Claims
	handler := AuthMiddleware(nil, "other-secret")(claimsEcho(&got))

	req := httptest.NewRequest("GET", "/api/v1/subjects/1000001/status", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, 1000010, constants.RoleStaff))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rr.Code)
	}
}

func TestAuthMiddleware_RejectsMissingCredentials(t *testing.T) {
	var got auth.Claims
	handler := AuthMiddleware(nil, testSecret)(claimsEcho(&got))

	req := httptest.NewRequest("GET", "/api/v1/subjects/1000001/status", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rr.Code)
	}
}

func TestRequireRemovalManager(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireRemovalManager()(inner)

	// Mentor tokens may read but not manage removals
	mentorClaims := &auth.JWTClaims{Token: &auth.OperatorTokenClaims{CID: 1, Role: constants.RoleMentor}}
	req := httptest.NewRequest("POST", "/api/v1/roster/1000001/mark-removal", nil)
	req = req.WithContext(auth.SetClaims(req.Context(), mentorClaims))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for mentor, got %d", rr.Code)
	}

	adminClaims := &auth.JWTClaims{Token: &auth.OperatorTokenClaims{CID: 1, Role: constants.RoleAdmin}}
	req = httptest.NewRequest("POST", "/api/v1/roster/1000001/mark-removal", nil)
	req = req.WithContext(auth.SetClaims(req.Context(), adminClaims))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected 200 for admin, got %d", rr.Code)
	}

	// No claims at all
	req = httptest.NewRequest("POST", "/api/v1/roster/1000001/mark-removal", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("Expected 403 without claims, got %d", rr.Code)
	}
}

package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newAuthRouter(svc *MockAuthService) http.Handler {
	router := setupRouter()
	NewAuthHandler(svc, discardLogger()).RegisterRoutes(router.Group("/auth"))
	return router
}

func TestSignup_Success(t *testing.T) {
	svc := new(MockAuthService)
	req := dto.SignupRequest{Username: "alice", Email: "alice@example.com"}
	svc.On("Signup", mock.Anything, req).Return(&dto.SignupResponse{Username: "alice", Email: "alice@example.com"}, nil)

	w := doJSON(newAuthRouter(svc), http.MethodPost, "/auth/signup", req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp dto.SignupResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp.Username)
	svc.AssertExpectations(t)
}

func TestSignup_BindingErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  any
		field string
		msg   string
	}{
		{"empty body", nil, "username", "This field is required."},
		{"missing email", map[string]string{"username": "alice"}, "email", "This field is required."},
		{"bad email", map[string]string{"username": "alice", "email": "nope"}, "email", "Enter a valid email address."},
		{"bad username", map[string]string{"username": "al ice", "email": "a@example.com"}, "username", service.FieldMessage("username", "")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAuthService)
			w := doJSON(newAuthRouter(svc), http.MethodPost, "/auth/signup", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, []string{tt.msg}, decodeFields(w)[tt.field])
			svc.AssertNotCalled(t, "Signup", mock.Anything, mock.Anything)
		})
	}
}

func TestSignup_ServiceValidation(t *testing.T) {
	svc := new(MockAuthService)
	svc.On("Signup", mock.Anything, mock.Anything).Return(nil, service.NewValidationError("username", `Username must be not "me"`))

	w := doJSON(newAuthRouter(svc), http.MethodPost, "/auth/signup", map[string]string{"username": "me", "email": "me@example.com"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{`Username must be not "me"`}, decodeFields(w)["username"])
}

func TestToken_Success(t *testing.T) {
	svc := new(MockAuthService)
	req := dto.TokenRequest{Username: "alice", ConfirmationCode: "abc-123"}
	svc.On("IssueToken", mock.Anything, req).Return(&dto.TokenResponse{Token: "jwt"}, nil)

	w := doJSON(newAuthRouter(svc), http.MethodPost, "/auth/token", req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"token":"jwt"}`, w.Body.String())
}

func TestToken_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"unknown user", service.ErrNotFound, http.StatusNotFound, `{"detail":"Not found."}`},
		{"bad code", service.ErrInvalidConfirmationCode, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAuthService)
			svc.On("IssueToken", mock.Anything, mock.Anything).Return(nil, tt.err)

			w := doJSON(newAuthRouter(svc), http.MethodPost, "/auth/token",
				dto.TokenRequest{Username: "alice", ConfirmationCode: "wrong"})

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantBody == "" {
				assert.Empty(t, w.Body.String())
			} else {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestToken_MissingFields(t *testing.T) {
	svc := new(MockAuthService)
	w := doJSON(newAuthRouter(svc), http.MethodPost, "/auth/token", map[string]string{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	fields := decodeFields(w)
	assert.Contains(t, fields, "username")
	assert.Contains(t, fields, "confirmation_code")
}

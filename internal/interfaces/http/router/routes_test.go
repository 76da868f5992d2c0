package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ech/backend/internal/infrastructure/auth"
	"github.com/ech/backend/internal/interfaces/http/handler"
	"github.com/ech/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticAuthenticator accepts the tokens it knows
type staticAuthenticator map[string]*auth.Claims

func (a staticAuthenticator) Authenticate(_ context.Context, token string) (*auth.Claims, error) {
	claims, ok := a[token]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return claims, nil
}

var testTokens = staticAuthenticator{
	"admin":        {UserID: "u-admin", Username: "admin", Groups: []string{middleware.GroupAdmin}},
	"comptable":    {UserID: "u-compta", Username: "compta", Groups: []string{middleware.GroupComptable}},
	"gestionnaire": {UserID: "u-gestion", Username: "gestion", Groups: []string{middleware.GroupGestionnaire}},
	"root":         {UserID: "u-root", Username: "root", Superuser: true},
}

// mountedEngine wires handlers without services. Requests that pass the
// gates stop at body or path validation, so the services are never reached.
func mountedEngine() *gin.Engine {
	middleware.SetupValidator()
	engine := gin.New()
	Mount(engine, Handlers{
		Health:   handler.NewHealthHandler("test"),
		Auth:     handler.NewAuthHandler(nil),
		User:     handler.NewUserHandler(nil),
		Caisse:   handler.NewCaisseHandler(nil, nil),
		Debt:     handler.NewDebtHandler(nil, nil, nil),
		Project:  handler.NewProjectHandler(nil, nil),
		Revenue:  handler.NewRevenueHandler(nil),
		Document: handler.NewDocumentHandler(nil, nil),
	}, Options{Authenticator: testTokens})
	return engine
}

func call(engine http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestMount_HealthIsPublic(t *testing.T) {
	engine := mountedEngine()

	assert.Equal(t, http.StatusOK, call(engine, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, call(engine, http.MethodGet, "/api/v1/health", "").Code)
}

func TestMount_ServesAPIDocumentation(t *testing.T) {
	engine := mountedEngine()

	w := call(engine, http.MethodGet, "/swagger/doc.json", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var doc struct {
		BasePath string                    `json:"basePath"`
		Paths    map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "/api/v1", doc.BasePath)
	assert.Contains(t, doc.Paths, "/caisse/encaissement")
	assert.Contains(t, doc.Paths["/dettes/{id}/payment"], "post")
	assert.Contains(t, doc.Paths, "/bons-livraison/{id}/history")

	assert.Equal(t, http.StatusOK, call(engine, http.MethodGet, "/swagger/index.html", "").Code)
}

func TestMount_RequiresAuthentication(t *testing.T) {
	engine := mountedEngine()

	for _, path := range []string{"/api/v1/caisse", "/api/v1/caisse/history", "/api/v1/dettes", "/api/v1/auth/me"} {
		w := call(engine, http.MethodGet, path, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	w := call(engine, http.MethodGet, "/api/v1/caisse", "forged")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_TOKEN", decodeError(t, w))
}

func TestMount_LoginSkipsAuthentication(t *testing.T) {
	engine := mountedEngine()

	w := call(engine, http.MethodPost, "/api/v1/auth/login", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, w))
}

func TestMount_GroupGates(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		path    string
		allowed []string
		denied  []string
	}{
		{"credit", http.MethodPost, "/api/v1/caisse/encaissement", []string{"admin", "comptable", "root"}, []string{"gestionnaire"}},
		{"debit", http.MethodPost, "/api/v1/caisse/decaissement", []string{"admin", "comptable"}, []string{"gestionnaire"}},
		{"adjust", http.MethodPost, "/api/v1/caisse/adjust", []string{"admin", "root"}, []string{"comptable", "gestionnaire"}},
		{"create debt", http.MethodPost, "/api/v1/dettes/create", []string{"comptable"}, []string{"gestionnaire"}},
		{"pay debt", http.MethodPost, "/api/v1/dettes/not-a-uuid/payment", []string{"admin"}, []string{"gestionnaire"}},
		{"create project", http.MethodPost, "/api/v1/projects", []string{"admin", "gestionnaire"}, []string{"comptable"}},
		{"delete project", http.MethodDelete, "/api/v1/projects/not-a-uuid", []string{"gestionnaire"}, []string{"comptable"}},
		{"create revenue", http.MethodPost, "/api/v1/revenus", []string{"comptable"}, []string{"gestionnaire"}},
		{"delete revenue", http.MethodDelete, "/api/v1/revenus/not-a-uuid", []string{"admin"}, []string{"gestionnaire"}},
		{"create delivery note", http.MethodPost, "/api/v1/bons-livraison", []string{"gestionnaire"}, []string{"comptable"}},
		{"render delivery note", http.MethodPost, "/api/v1/bons-livraison/not-a-uuid/pdf", []string{"admin"}, []string{"comptable"}},
		{"create purchase order", http.MethodPost, "/api/v1/bons-commande", []string{"gestionnaire"}, []string{"comptable"}},
		{"create mission order", http.MethodPost, "/api/v1/ordres-mission", []string{"admin"}, []string{"comptable"}},
		{"create user", http.MethodPost, "/api/v1/auth/users", []string{"admin", "root"}, []string{"comptable", "gestionnaire"}},
		{"list users", http.MethodGet, "/api/v1/auth/users?page=x", []string{"admin"}, []string{"comptable"}},
	}

	engine := mountedEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, token := range tt.denied {
				w := call(engine, tt.method, tt.path, token)
				assert.Equal(t, http.StatusForbidden, w.Code, "%s should be denied", token)
				assert.Equal(t, "PERMISSION_DENIED", decodeError(t, w))
			}
			for _, token := range tt.allowed {
				if tt.method == http.MethodGet {
					continue
				}
				w := call(engine, tt.method, tt.path, token)
				assert.Equal(t, http.StatusBadRequest, w.Code, "%s should reach the handler", token)
			}
		})
	}
}

func TestMount_ReadsAreOpenToEveryGroup(t *testing.T) {
	engine := mountedEngine()

	for _, path := range []string{
		"/api/v1/caisse/operations/not-a-uuid",
		"/api/v1/caisse/history/not-a-uuid",
		"/api/v1/dettes/not-a-uuid",
		"/api/v1/projects/not-a-uuid",
		"/api/v1/revenus/not-a-uuid",
		"/api/v1/bons-livraison/not-a-uuid",
		"/api/v1/ordres-mission/not-a-uuid",
	} {
		w := call(engine, http.MethodGet, path, "gestionnaire")
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

func TestMount_UnknownRoute(t *testing.T) {
	engine := mountedEngine()

	w := call(engine, http.MethodGet, "/api/v1/stock", "admin")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ROUTE_NOT_FOUND", decodeError(t, w))
}

func TestMount_RouteTable(t *testing.T) {
	table := RouteTable(mountedEngine())

	for _, route := range []string{
		"GET /health",
		"GET /swagger/*any",
		"GET /api/v1/health",
		"POST /api/v1/auth/login",
		"PATCH /api/v1/auth/users/:id/active",
		"GET /api/v1/caisse/history/export",
		"GET /api/v1/dashboard",
		"POST /api/v1/dettes/:id/payment",
		"GET /api/v1/projects/:id/revenus",
		"DELETE /api/v1/revenus/:id",
		"GET /api/v1/bons-livraison/:id/history",
		"GET /api/v1/ordres-mission/:id/pdf",
	} {
		assert.Contains(t, table, route)
	}
	assert.NotContains(t, table, "GET /ws/caisse", "the websocket needs a notification hub")
	assert.Len(t, table, 57)
}

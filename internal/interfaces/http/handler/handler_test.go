package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	debtapp "github.com/ech/backend/internal/application/debt"
	docapp "github.com/ech/backend/internal/application/document"
	ledgerapp "github.com/ech/backend/internal/application/ledger"
	projectapp "github.com/ech/backend/internal/application/project"
	"github.com/ech/backend/internal/application/report"
	"github.com/ech/backend/internal/infrastructure/persistence"
	"github.com/ech/backend/internal/infrastructure/printing"
	"github.com/ech/backend/internal/interfaces/http/middleware"
	"github.com/ech/backend/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// stack serves the handlers over real services backed by SQLite. Reports
// have no renderer, so PDF routes answer 503 while XLSX exports work.
type stack struct {
	engine   *gin.Engine
	ledger   *ledgerapp.CashLedgerService
	projects *projectapp.Service
	userID   uuid.UUID
}

func newStack(t *testing.T) *stack {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	reads := persistence.NewRepositories(db)
	scope := persistence.NewGormTransactionScope(db, zap.NewNop())

	ledger := ledgerapp.NewCashLedgerService(scope, reads, ledgerapp.Config{ReferencePrefix: "OP"}, zap.NewNop())
	require.NoError(t, ledger.Initialize(context.Background()))
	debts := debtapp.NewService(reads, zap.NewNop())
	projects := projectapp.NewService(scope, reads, zap.NewNop())
	documents := docapp.NewService(scope, reads, zap.NewNop())
	engine, err := printing.NewTemplateEngine()
	require.NoError(t, err)
	reports := report.NewService(report.Deps{
		Ledger:    ledger,
		Projects:  projects,
		Debts:     debts,
		Documents: documents,
		Engine:    engine,
	}, report.Config{}, zap.NewNop())

	s := &stack{ledger: ledger, projects: projects, userID: uuid.New()}
	r := gin.New()
	r.Use(middleware.RequestID(zap.NewNop()), func(c *gin.Context) {
		c.Set(middleware.JWTUserIDKey, s.userID.String())
		c.Set(middleware.JWTUsernameKey, "compta")
		c.Next()
	})

	caisse := NewCaisseHandler(ledger, reports)
	r.GET("/caisse", caisse.Balance)
	r.POST("/caisse/encaissement", caisse.Credit)
	r.POST("/caisse/decaissement", caisse.Debit)
	r.POST("/caisse/adjust", caisse.Adjust)
	r.GET("/caisse/operations", caisse.ListOperations)
	r.GET("/caisse/operations/:id", caisse.GetOperation)
	r.GET("/caisse/operations/:id/pdf", caisse.OperationPDF)
	r.GET("/caisse/history", caisse.ListHistory)
	r.GET("/caisse/history/pdf", caisse.HistoryPDF)
	r.GET("/caisse/history/export", caisse.HistoryExport)
	r.GET("/caisse/history/:id", caisse.GetHistoryEntry)
	r.GET("/caisse/history/:id/pdf", caisse.HistoryEntryPDF)
	r.GET("/dashboard", caisse.Dashboard)

	debt := NewDebtHandler(debts, ledger, reports)
	r.POST("/dettes/create", debt.Create)
	r.GET("/dettes", debt.List)
	r.GET("/dettes/:id", debt.Get)
	r.POST("/dettes/:id/payment", debt.Pay)

	project := NewProjectHandler(projects, reports)
	revenue := NewRevenueHandler(projects)
	r.POST("/projects", project.Create)
	r.GET("/projects", project.List)
	r.POST("/projects/finance-report", project.FinanceReport)
	r.GET("/projects/:id", project.Get)
	r.PUT("/projects/:id", project.Update)
	r.DELETE("/projects/:id", project.Delete)
	r.GET("/projects/:id/revenus", revenue.ListByProject)
	r.POST("/revenus", revenue.Create)
	r.GET("/revenus/:id", revenue.Get)
	r.DELETE("/revenus/:id", revenue.Delete)

	doc := NewDocumentHandler(documents, reports)
	r.POST("/bons-livraison", doc.CreateDeliveryNote)
	r.GET("/bons-livraison", doc.ListDeliveryNotes)
	r.GET("/bons-livraison/:id", doc.GetDeliveryNote)
	r.PUT("/bons-livraison/:id", doc.UpdateDeliveryNote)
	r.DELETE("/bons-livraison/:id", doc.DeleteDeliveryNote)
	r.POST("/bons-livraison/:id/pdf", doc.GenerateDeliveryNotePDF)
	r.GET("/bons-livraison/:id/history", doc.DeliveryNoteHistory)
	r.POST("/bons-commande", doc.CreatePurchaseOrder)
	r.GET("/bons-commande/:id", doc.GetPurchaseOrder)
	r.POST("/ordres-mission", doc.CreateMissionOrder)
	r.GET("/ordres-mission", doc.ListMissionOrders)

	s.engine = r
	return s
}

func (s *stack) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return testutil.ServeJSON(t, s.engine, method, path, body)
}

// project creates a project through the API
func (s *stack) project(t *testing.T, name, budget string) projectapp.ProjectView {
	t.Helper()
	w := s.do(t, http.MethodPost, "/projects", gin.H{
		"name":             name,
		"estimated_budget": budget,
		"start_date":       "2025-01-01",
		"duration_months":  6,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return data[projectapp.ProjectView](t, w)
}

func (s *stack) credit(t *testing.T, amount string) ledgerapp.MovementResult {
	t.Helper()
	w := s.do(t, http.MethodPost, "/caisse/encaissement", gin.H{
		"amount":        amount,
		"date":          "2025-03-01",
		"income_source": "personal",
		"description":   "Apport",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return data[ledgerapp.MovementResult](t, w)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) testutil.Envelope[T] {
	t.Helper()
	return testutil.DecodeEnvelope[T](t, w)
}

func data[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	env := decode[T](t, w)
	require.True(t, env.Success, w.Body.String())
	return env.Data
}

func assertError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	assert.Equal(t, status, w.Code, w.Body.String())
	env := decode[json.RawMessage](t, w)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, code, env.Error.Code)
	assert.NotEmpty(t, env.Error.RequestID)
}

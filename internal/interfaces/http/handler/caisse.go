package handler

import (
	ledgerapp "github.com/ech/backend/internal/application/ledger"
	"github.com/ech/backend/internal/application/report"
	"github.com/ech/backend/internal/domain/ledger"
	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/gin-gonic/gin"
)

// CaisseHandler serves the cash register: balance, movements, history
// and the dashboard
type CaisseHandler struct {
	BaseHandler
	ledger  *ledgerapp.CashLedgerService
	reports *report.Service
}

// NewCaisseHandler creates a new cash register handler
func NewCaisseHandler(ledger *ledgerapp.CashLedgerService, reports *report.Service) *CaisseHandler {
	return &CaisseHandler{ledger: ledger, reports: reports}
}

// historyOrdering maps public ordering names to history columns
var historyOrdering = map[string]string{
	"date":   "effective_date",
	"numero": "reference_number",
}

var operationOrdering = map[string]string{
	"date": "effective_date",
}

// Balance godoc
// @Summary      Get cash balance
// @Tags         caisse
// @Produce      json
// @Success      200 {object} dto.Response{data=ledgerapp.BalanceView}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /caisse [get]
func (h *CaisseHandler) Balance(c *gin.Context) {
	balance, err := h.ledger.Balance(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, balance)
}

// Credit godoc
// @Summary      Record an encaissement
// @Tags         caisse
// @Accept       json
// @Produce      json
// @Param        request body CreditRequest true "Encaissement"
// @Success      201 {object} dto.Response{data=ledgerapp.MovementResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /caisse/encaissement [post]
func (h *CaisseHandler) Credit(c *gin.Context) {
	var req CreditRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.ledger.Credit(c.Request.Context(), req.input(currentUserID(c)))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Debit godoc
// @Summary      Record a decaissement
// @Tags         caisse
// @Accept       json
// @Produce      json
// @Param        request body DebitRequest true "Decaissement"
// @Success      201 {object} dto.Response{data=ledgerapp.MovementResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /caisse/decaissement [post]
func (h *CaisseHandler) Debit(c *gin.Context) {
	var req DebitRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.ledger.Debit(c.Request.Context(), req.input(currentUserID(c)))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Adjust godoc
// @Summary      Adjust cash balance
// @Description  Sets the balance to an explicit value and records the difference in the history
// @Tags         caisse
// @Accept       json
// @Produce      json
// @Param        request body AdjustRequest true "Target balance"
// @Success      201 {object} dto.Response{data=ledgerapp.MovementResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /caisse/adjust [post]
func (h *CaisseHandler) Adjust(c *gin.Context) {
	var req AdjustRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if req.NewBalance == nil {
		h.BadRequest(c, "new_balance is required")
		return
	}

	result, err := h.ledger.AdjustBalance(c.Request.Context(), ledgerapp.AdjustInput{
		Target:      *req.NewBalance,
		Description: req.Description,
		UserID:      currentUserID(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// ListOperations godoc
// @Summary      List cash operations
// @Tags         caisse
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        search query string false "Search term"
// @Param        operation_type query string false "entree or sortie"
// @Param        project_id query string false "Project ID" format(uuid)
// @Param        income_source query string false "Income source"
// @Param        date_from query string false "From date (YYYY-MM-DD)"
// @Param        date_to query string false "To date (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=[]ledgerapp.OperationView,meta=dto.Meta}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /caisse/operations [get]
func (h *CaisseHandler) ListOperations(c *gin.Context) {
	filter := ledger.OperationFilter{
		Filter:       queryFilter(c, operationOrdering),
		Type:         ledger.OperationType(c.Query("operation_type")),
		ProjectID:    queryUUID(c, "project_id"),
		DebtID:       queryUUID(c, "debt_id"),
		IncomeSource: ledger.IncomeSource(c.Query("income_source")),
		DateFrom:     queryDate(c, "date_from"),
		DateTo:       queryDateEnd(c, "date_to"),
	}
	if !filter.Type.IsValid() {
		filter.Type = ""
	}
	if !filter.IncomeSource.IsValid() {
		filter.IncomeSource = ""
	}

	page, err := h.ledger.ListOperations(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// GetOperation godoc
// @Summary      Get cash operation
// @Tags         caisse
// @Produce      json
// @Param        id path string true "Operation ID" format(uuid)
// @Success      200 {object} dto.Response{data=ledgerapp.OperationView}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /caisse/operations/{id} [get]
func (h *CaisseHandler) GetOperation(c *gin.Context) {
	id, ok := h.PathUUID(c, "id")
	if !ok {
		return
	}
	op, err := h.ledger.GetOperation(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, op)
}

// OperationPDF godoc
// @Summary      Cash operation receipt
// @Tags         caisse
// @Produce      application/pdf
// @Param        id path string true "Operation ID" format(uuid)
// @Success      200 {file} binary
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /caisse/operations/{id}/pdf [get]
func (h *CaisseHandler) OperationPDF(c *gin.Context) {
	id, ok := h.PathUUID(c, "id")
	if !ok {
		return
	}
	f, err := h.reports.OperationPDF(c.Request.Context(), id, requester(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	sendFile(c, f)
}

// ListHistory godoc
// @Summary      List cash history
// @Tags         caisse
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        search query string false "Search term"
// @Param        action query string false "Audit action"
// @Param        project_id query string false "Project ID" format(uuid)
// @Param        user_id query string false "User ID" format(uuid)
// @Param        date_from query string false "From date (YYYY-MM-DD)"
// @Param        date_to query string false "To date (YYYY-MM-DD)"
// @Param        amount_min query string false "Minimum amount"
// @Param        amount_max query string false "Maximum amount"
// @Param        payment_mode query string false "Payment mode"
// @Success      200 {object} dto.Response{data=[]ledgerapp.HistoryView,meta=dto.Meta}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /caisse/history [get]
func (h *CaisseHandler) ListHistory(c *gin.Context) {
	page, err := h.ledger.ListHistory(c.Request.Context(), historyFilter(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// GetHistoryEntry godoc
// @Summary      Get cash history entry
// @Tags         caisse
// @Produce      json
// @Param        id path string true "History entry ID" format(uuid)
// @Success      200 {object} dto.Response{data=ledgerapp.HistoryView}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /caisse/history/{id} [get]
func (h *CaisseHandler) GetHistoryEntry(c *gin.Context) {
	id, ok := h.PathUUID(c, "id")
	if !ok {
		return
	}
	entry, err := h.ledger.GetHistoryEntry(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// HistoryEntryPDF godoc
// @Summary      History entry receipt
// @Tags         caisse
// @Produce      application/pdf
// @Param        id path string true "History entry ID" format(uuid)
// @Success      200 {file} binary
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /caisse/history/{id}/pdf [get]
func (h *CaisseHandler) HistoryEntryPDF(c *gin.Context) {
	id, ok := h.PathUUID(c, "id")
	if !ok {
		return
	}
	entry, err := h.ledger.GetHistoryEntry(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if entry.Operation == nil {
		h.HandleError(c, shared.NewDomainError(shared.CodeInvalidState, "Balance adjustments have no receipt"))
		return
	}
	f, err := h.reports.OperationPDF(c.Request.Context(), entry.Operation.ID, requester(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	sendFile(c, f)
}

// HistoryPDF godoc
// @Summary      Cash history PDF
// @Tags         caisse
// @Produce      application/pdf
// @Param        action query string false "Audit action"
// @Param        date_from query string false "From date (YYYY-MM-DD)"
// @Param        date_to query string false "To date (YYYY-MM-DD)"
// @Success      200 {file} binary
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /caisse/history/pdf [get]
func (h *CaisseHandler) HistoryPDF(c *gin.Context) {
	f, err := h.reports.HistoryPDF(c.Request.Context(), historyFilter(c), requester(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	sendFile(c, f)
}

// HistoryExport godoc
// @Summary      Export cash history
// @Tags         caisse
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        action query string false "Audit action"
// @Param        date_from query string false "From date (YYYY-MM-DD)"
// @Param        date_to query string false "To date (YYYY-MM-DD)"
// @Success      200 {file} binary
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /caisse/history/export [get]
func (h *CaisseHandler) HistoryExport(c *gin.Context) {
	f, err := h.reports.HistoryXLSX(c.Request.Context(), historyFilter(c), requester(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	sendFile(c, f)
}

// Dashboard godoc
// @Summary      Dashboard statistics
// @Tags         dashboard
// @Produce      json
// @Success      200 {object} dto.Response{data=ledgerapp.DashboardStats}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /dashboard [get]
func (h *CaisseHandler) Dashboard(c *gin.Context) {
	stats, err := h.ledger.DashboardStats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// historyFilter reads the history query parameters. Malformed values are
// dropped instead of rejected.
func historyFilter(c *gin.Context) ledger.HistoryFilter {
	f := ledger.HistoryFilter{
		Filter:         queryFilter(c, historyOrdering),
		ProjectID:      queryUUID(c, "project_id"),
		UserID:         queryUUID(c, "user_id"),
		Action:         ledger.HistoryAction(c.Query("action")),
		DateFrom:       queryDate(c, "date_from"),
		DateTo:         queryDateEnd(c, "date_to"),
		AmountMin:      queryMoney(c, "amount_min"),
		AmountMax:      queryMoney(c, "amount_max"),
		OperationType:  ledger.OperationType(c.Query("operation_type")),
		PaymentMode:    valueobject.PaymentMode(c.Query("payment_mode")),
		IncomeSource:   ledger.IncomeSource(c.Query("income_source")),
		Supplier:       c.Query("supplier"),
		Bank:           c.Query("bank"),
		ChequeNumber:   c.Query("cheque_number"),
		ByCollaborator: queryBool(c, "by_collaborator"),
		DebtID:         queryUUID(c, "debt_id"),
		Reference:      c.Query("reference"),
	}
	if !f.Action.IsValid() {
		f.Action = ""
	}
	if !f.OperationType.IsValid() {
		f.OperationType = ""
	}
	if f.PaymentMode == "" || !f.PaymentMode.IsValid() {
		f.PaymentMode = ""
	}
	if !f.IncomeSource.IsValid() {
		f.IncomeSource = ""
	}
	return f
}

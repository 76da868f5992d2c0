package handler

import (
	debtapp "github.com/ech/backend/internal/application/debt"
	ledgerapp "github.com/ech/backend/internal/application/ledger"
	"github.com/ech/backend/internal/application/report"
	"github.com/ech/backend/internal/domain/debt"
	"github.com/gin-gonic/gin"
)

// DebtHandler serves the dettes endpoints. Opening and repaying a debt are
// cash movements and go through the ledger.
type DebtHandler struct {
	BaseHandler
	debts   *debtapp.Service
	ledger  *ledgerapp.CashLedgerService
	reports *report.Service
}

// NewDebtHandler creates a new debt handler
func NewDebtHandler(debts *debtapp.Service, ledger *ledgerapp.CashLedgerService, reports *report.Service) *DebtHandler {
	return &DebtHandler{debts: debts, ledger: ledger, reports: reports}
}

var debtOrdering = map[string]string{
	"date":      "date_created",
	"remaining": "remaining_amount",
	"amount":    "original_amount",
}

// Create godoc
// @Summary      Create debt
// @Description  Opens a debt and credits the borrowed amount to the cash register
// @Tags         dettes
// @Accept       json
// @Produce      json
// @Param        request body CreateDebtRequest true "Debt"
// @Success      201 {object} dto.Response{data=ledgerapp.MovementResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /dettes/create [post]
func (h *DebtHandler) Create(c *gin.Context) {
	var req CreateDebtRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.ledger.CreateDebt(c.Request.Context(), ledgerapp.CreateDebtInput{
		CreditorName: req.CreditorName,
		Amount:       req.OriginalAmount,
		Date:         req.Date.OrToday(),
		ProjectID:    req.ProjectID,
		Description:  req.Description,
		Payment:      req.PaymentFields.input(),
		UserID:       currentUserID(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// List godoc
// @Summary      List debts
// @Tags         dettes
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        search query string false "Search term"
// @Param        status query string false "active or paid"
// @Param        project_id query string false "Project ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]debtapp.DebtView,meta=dto.Meta}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /dettes [get]
func (h *DebtHandler) List(c *gin.Context) {
	filter := debt.Filter{
		Filter:    queryFilter(c, debtOrdering),
		Status:    debt.Status(c.Query("status")),
		ProjectID: queryUUID(c, "project_id"),
	}
	if !filter.Status.IsValid() {
		filter.Status = ""
	}

	page, err := h.debts.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// Get godoc
// @Summary      Get debt
// @Tags         dettes
// @Produce      json
// @Param        id path string true "Debt ID" format(uuid)
// @Success      200 {object} dto.Response{data=debtapp.DebtDetail}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /dettes/{id} [get]
func (h *DebtHandler) Get(c *gin.Context) {
	id, ok := h.PathUUID(c, "id")
	if !ok {
		return
	}
	detail, err := h.debts.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, detail)
}

// Pay godoc
// @Summary      Pay debt
// @Tags         dettes
// @Accept       json
// @Produce      json
// @Param        id path string true "Debt ID" format(uuid)
// @Param        request body PayDebtRequest true "Repayment"
// @Success      201 {object} dto.Response{data=ledgerapp.PayDebtResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /dettes/{id}/payment [post]
func (h *DebtHandler) Pay(c *gin.Context) {
	id, ok := h.PathUUID(c, "id")
	if !ok {
		return
	}
	var req PayDebtRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.ledger.PayDebt(c.Request.Context(), ledgerapp.PayDebtInput{
		DebtID:      id,
		Amount:      req.AmountPaid,
		Date:        req.Date.OrToday(),
		Description: req.Description,
		Payment:     req.PaymentFields.input(),
		UserID:      currentUserID(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// JournalPDF godoc
// @Summary      Debt journal PDF
// @Tags         dettes
// @Produce      application/pdf
// @Param        id path string true "Debt ID" format(uuid)
// @Success      200 {file} binary
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /dettes/{id}/journal/pdf [get]
func (h *DebtHandler) JournalPDF(c *gin.Context) {
	id, ok := h.PathUUID(c, "id")
	if !ok {
		return
	}
	f, err := h.reports.DebtJournalPDF(c.Request.Context(), id, requester(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	sendFile(c, f)
}

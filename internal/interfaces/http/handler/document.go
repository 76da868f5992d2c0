package handler

import (
	docapp "github.com/ech/backend/internal/application/document"
	"github.com/ech/backend/internal/application/report"
	"github.com/ech/backend/internal/domain/document"
	"github.com/gin-gonic/gin"
)

// DocumentHandler serves delivery notes, purchase orders and mission orders
type DocumentHandler struct {
	BaseHandler
	documents *docapp.Service
	reports   *report.Service
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documents *docapp.Service, reports *report.Service) *DocumentHandler {
	return &DocumentHandler{documents: documents, reports: reports}
}

// CreateDeliveryNote godoc
// @Summary      Create delivery note
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        request body DeliveryNoteRequest true "Delivery note"
// @Success      201 {object} dto.Response{data=docapp.DeliveryNoteView}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /bons-livraison [post]
func (h *DocumentHandler) CreateDeliveryNote(c *gin.Context) {
	var req DeliveryNoteRequest
	if !h.BindJSON(c, &req) {
		return
	}
	note, err := h.documents.CreateDeliveryNote(c.Request.Context(), req.input(), currentUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, note)
}

// ListDeliveryNotes godoc
// @Summary      List delivery notes
// @Tags         documents
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        search query string false "Search term"
// @Param        project_id query string false "Project ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]docapp.DeliveryNoteView,meta=dto.Meta}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /bons-livraison [get]
func (h *DocumentHandler) ListDeliveryNotes(c *gin.Context) {
	page, err := h.documents.ListDeliveryNotes(c.Request.Context(), document.DeliveryNoteFilter{
		Filter:    queryFilter(c, nil),
		ProjectID: queryUUID(c, "project_id"),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// GetDeliveryNote godoc
// @Summary      Get delivery note
// @Tags         documents
// @Produce      json
// @Param        id path string true "Delivery note ID" format(uuid)
// @Success      200 {object} dto.Response{data=docapp.DeliveryNoteView}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /bons-livraison/{id} [get]
func (h *DocumentHandler) GetDeliveryNote(c *gin.Context) {
	id, ok := h.PathUUID(c, "id")
	if !ok {
		return
	}
	note, err := h.documents.GetDeliveryNote(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, note)
}

// UpdateDeliveryNote godoc
// @Summary      Update delivery note
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        id path string true "Delivery note ID" format(uuid)
// @Param        request body DeliveryNoteRequest true "Delivery note"
// @Success      200 {object} dto.Response{data=docapp.DeliveryNoteView}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /bons-livraison/{id} [put]
func (h *DocumentHandler) UpdateDeliveryNote(c *gin.Context) {
	id, ok := h.PathUUID(c, "id")
	if !ok {
		return
	}
	var req DeliveryNoteRequest
	if !h.BindJSON(c, &req) {
		return
	}
	note, err := h.documents.UpdateDeliveryNote(c.Request.Context(), id, req.input(), currentUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, note)
}

// DeleteDeliveryNote godoc
// @Summary      Delete delivery note
// @Description  The audit trail of the note is kept
// @Tags         documents
// @Produce      json
// @Param        id path string true "Delivery note ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /bons-livraison/{id} [delete]
func (h *DocumentHandler) DeleteDeliveryNote(c *gin.Context) {
	id, ok := h.PathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.documents.DeleteDeliveryNote(c.Request.Context(), id, currentUserID(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// GenerateDeliveryNotePDF godoc
// @Summary      Generate delivery note PDF
// @Tags         documents
// @Produce      application/pdf
// @Param        id path string true "Delivery note ID" format(uuid)
// @Success      200 {file} binary
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /bons-livraison/{id}/pdf [post]
func (h *DocumentHandler) GenerateDeliveryNotePDF(c *gin.Context) {
	id, ok := h.PathUUID(c, "id")
	if !ok {
		return
	}
	f, err := h.reports.GenerateDeliveryNotePDF(c.Request.Context(), id, requester(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	sendFile(c, f)
}

// DownloadDeliveryNotePDF godoc
// @Summary      Download delivery note PDF
// @Tags         documents
// @Produce      application/pdf
// @Param        id path string true "Delivery note ID" format(uuid)
// @Success      200 {file} binary
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /bons-livraison/{id}/pdf [get]
func (h *DocumentHandler) DownloadDeliveryNotePDF(c *gin.Context) {
	id, ok := h.PathUUID(c, "id")
	if !ok {
		return
	}
	f, err := h.reports.DownloadDeliveryNotePDF(c.Request.Context(), id, requester(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	sendFile(c, f)
}

// DeliveryNoteHistory godoc
// @Summary      Delivery note history
// @Tags         documents
// @Produce      json
// @Param        id path string true "Delivery note ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]docapp.HistoryView}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /bons-livraison/{id}/history [get]
func (h *DocumentHandler) DeliveryNoteHistory(c *gin.Context) {
	id, ok := h.PathUUID(c, "id")
	if !ok {
		return
	}
	entries, err := h.documents.DeliveryNoteHistory(c.Request.Context(), queryUUID(c, "project_id"), &id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entries)
}

// CreatePurchaseOrder godoc
// @Summary      Create purchase order
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        request body PurchaseOrderRequest true "Purchase order"
// @Success      201 {object} dto.Response{data=docapp.PurchaseOrderView}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /bons-commande [post]
func (h *DocumentHandler) CreatePurchaseOrder(c *gin.Context) {
	var req PurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	order, err := h.documents.CreatePurchaseOrder(c.Request.Context(), req.input(), currentUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// ListPurchaseOrders godoc
// @Summary      List purchase orders
// @Tags         documents
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        search query string false "Search term"
// @Success      200 {object} dto.Response{data=[]docapp.PurchaseOrderView,meta=dto.Meta}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /bons-commande [get]
func (h *DocumentHandler) ListPurchaseOrders(c *gin.Context) {
	page, err := h.documents.ListPurchaseOrders(c.Request.Context(), queryFilter(c, nil))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// GetPurchaseOrder godoc
// @Summary      Get purchase order
// @Tags         documents
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Success      200 {object} dto.Response{data=docapp.PurchaseOrderView}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /bons-commande/{id} [get]
func (h *DocumentHandler) GetPurchaseOrder(c *gin.Context) {
	id, ok := h.PathUUID(c, "id")
	if !ok {
		return
	}
	order, err := h.documents.GetPurchaseOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// PurchaseOrderPDF godoc
// @Summary      Purchase order PDF
// @Tags         documents
// @Produce      application/pdf
// @Param        id path string true "Purchase order ID" format(uuid)
// @Success      200 {file} binary
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /bons-commande/{id}/pdf [get]
func (h *DocumentHandler) PurchaseOrderPDF(c *gin.Context) {
	id, ok := h.PathUUID(c, "id")
	if !ok {
		return
	}
	f, err := h.reports.PurchaseOrderPDF(c.Request.Context(), id, requester(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	sendFile(c, f)
}

// CreateMissionOrder godoc
// @Summary      Create mission order
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        request body MissionOrderRequest true "Mission order"
// @Success      201 {object} dto.Response{data=docapp.MissionOrderView}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /ordres-mission [post]
func (h *DocumentHandler) CreateMissionOrder(c *gin.Context) {
	var req MissionOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	order, err := h.documents.CreateMissionOrder(c.Request.Context(), req.input(), currentUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// ListMissionOrders godoc
// @Summary      List mission orders
// @Tags         documents
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        search query string false "Search term"
// @Success      200 {object} dto.Response{data=[]docapp.MissionOrderView,meta=dto.Meta}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /ordres-mission [get]
func (h *DocumentHandler) ListMissionOrders(c *gin.Context) {
	page, err := h.documents.ListMissionOrders(c.Request.Context(), queryFilter(c, nil))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// GetMissionOrder godoc
// @Summary      Get mission order
// @Tags         documents
// @Produce      json
// @Param        id path string true "Mission order ID" format(uuid)
// @Success      200 {object} dto.Response{data=docapp.MissionOrderView}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /ordres-mission/{id} [get]
func (h *DocumentHandler) GetMissionOrder(c *gin.Context) {
	id, ok := h.PathUUID(c, "id")
	if !ok {
		return
	}
	order, err := h.documents.GetMissionOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// MissionOrderPDF godoc
// @Summary      Mission order PDF
// @Tags         documents
// @Produce      application/pdf
// @Param        id path string true "Mission order ID" format(uuid)
// @Success      200 {file} binary
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /ordres-mission/{id}/pdf [get]
func (h *DocumentHandler) MissionOrderPDF(c *gin.Context) {
	id, ok := h.PathUUID(c, "id")
	if !ok {
		return
	}
	f, err := h.reports.MissionOrderPDF(c.Request.Context(), id, requester(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	sendFile(c, f)
}

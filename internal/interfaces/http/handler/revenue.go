package handler

import (
	projectapp "github.com/ech/backend/internal/application/project"
	"github.com/ech/backend/internal/domain/project"
	"github.com/gin-gonic/gin"
)

// RevenueHandler serves project revenues
type RevenueHandler struct {
	BaseHandler
	projects *projectapp.Service
}

// NewRevenueHandler creates a new revenue handler
func NewRevenueHandler(projects *projectapp.Service) *RevenueHandler {
	return &RevenueHandler{projects: projects}
}

// Create godoc
// @Summary      Create revenue
// @Description  Records a revenue and returns the updated project totals
// @Tags         revenus
// @Accept       json
// @Produce      json
// @Param        request body RevenueRequest true "Revenue"
// @Success      201 {object} dto.Response{data=projectapp.RevenueResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /revenus [post]
func (h *RevenueHandler) Create(c *gin.Context) {
	var req RevenueRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.projects.CreateRevenue(c.Request.Context(), projectapp.RevenueInput{
		Code:      req.Code,
		ProjectID: *req.ProjectID,
		Amount:    req.Amount,
		Date:      req.Date.OrToday(),
		UserID:    currentUserID(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// ListByProject godoc
// @Summary      List project revenues
// @Description  Revenues of a project, optionally narrowed to a year, month, day or date range
// @Tags         revenus
// @Produce      json
// @Param        id path string true "Project ID" format(uuid)
// @Param        year query int false "Year"
// @Param        month query int false "Month"
// @Param        day query int false "Day"
// @Param        date_from query string false "From date (YYYY-MM-DD)"
// @Param        date_to query string false "To date (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=[]projectapp.RevenueView}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /projects/{id}/revenus [get]
func (h *RevenueHandler) ListByProject(c *gin.Context) {
	id, ok := h.PathUUID(c, "id")
	if !ok {
		return
	}
	revenues, err := h.projects.ListRevenues(c.Request.Context(), project.RevenueFilter{
		ProjectID: &id,
		Year:      queryInt(c, "year"),
		Month:     queryInt(c, "month"),
		Day:       queryInt(c, "day"),
		DateFrom:  queryDate(c, "date_from"),
		DateTo:    queryDateEnd(c, "date_to"),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, revenues)
}

// Get godoc
// @Summary      Get revenue
// @Tags         revenus
// @Produce      json
// @Param        id path string true "Revenue ID" format(uuid)
// @Success      200 {object} dto.Response{data=projectapp.RevenueView}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /revenus/{id} [get]
func (h *RevenueHandler) Get(c *gin.Context) {
	id, ok := h.PathUUID(c, "id")
	if !ok {
		return
	}
	r, err := h.projects.GetRevenue(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, r)
}

// Delete godoc
// @Summary      Delete revenue
// @Tags         revenus
// @Produce      json
// @Param        id path string true "Revenue ID" format(uuid)
// @Success      200 {object} dto.Response{data=projectapp.RevenueResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /revenus/{id} [delete]
func (h *RevenueHandler) Delete(c *gin.Context) {
	id, ok := h.PathUUID(c, "id")
	if !ok {
		return
	}
	result, err := h.projects.DeleteRevenue(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

package handler

import (
	projectapp "github.com/ech/backend/internal/application/project"
	"github.com/ech/backend/internal/application/report"
	"github.com/ech/backend/internal/domain/project"
	"github.com/gin-gonic/gin"
)

// ProjectHandler serves projects and their finance reports
type ProjectHandler struct {
	BaseHandler
	projects *projectapp.Service
	reports  *report.Service
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projects *projectapp.Service, reports *report.Service) *ProjectHandler {
	return &ProjectHandler{projects: projects, reports: reports}
}

var projectOrdering = map[string]string{
	"budget": "estimated_budget",
}

// Create godoc
// @Summary      Create project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        request body ProjectRequest true "Project"
// @Success      201 {object} dto.Response{data=projectapp.ProjectView}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	var req ProjectRequest
	if !h.BindJSON(c, &req) {
		return
	}
	p, err := h.projects.Create(c.Request.Context(), req.input(), currentUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, p)
}

// List godoc
// @Summary      List projects
// @Tags         projects
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        search query string false "Search term"
// @Param        has_collaborator query bool false "Only projects with a collaborator"
// @Success      200 {object} dto.Response{data=[]projectapp.ProjectView,meta=dto.Meta}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /projects [get]
func (h *ProjectHandler) List(c *gin.Context) {
	page, err := h.projects.List(c.Request.Context(), project.Filter{
		Filter:          queryFilter(c, projectOrdering),
		HasCollaborator: queryBool(c, "has_collaborator"),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// Get godoc
// @Summary      Get project
// @Tags         projects
// @Produce      json
// @Param        id path string true "Project ID" format(uuid)
// @Success      200 {object} dto.Response{data=projectapp.ProjectView}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /projects/{id} [get]
func (h *ProjectHandler) Get(c *gin.Context) {
	id, ok := h.PathUUID(c, "id")
	if !ok {
		return
	}
	p, err := h.projects.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// Update godoc
// @Summary      Update project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        id path string true "Project ID" format(uuid)
// @Param        request body ProjectRequest true "Project"
// @Success      200 {object} dto.Response{data=projectapp.ProjectView}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /projects/{id} [put]
func (h *ProjectHandler) Update(c *gin.Context) {
	id, ok := h.PathUUID(c, "id")
	if !ok {
		return
	}
	var req ProjectRequest
	if !h.BindJSON(c, &req) {
		return
	}
	p, err := h.projects.Update(c.Request.Context(), id, req.input())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// Delete godoc
// @Summary      Delete project
// @Description  Only projects without operations, debts or revenues can be deleted
// @Tags         projects
// @Produce      json
// @Param        id path string true "Project ID" format(uuid)
// @Success      204
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /projects/{id} [delete]
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, ok := h.PathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.projects.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// PDF godoc
// @Summary      Project sheet PDF
// @Tags         projects
// @Produce      application/pdf
// @Param        id path string true "Project ID" format(uuid)
// @Success      200 {file} binary
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /projects/{id}/pdf [get]
func (h *ProjectHandler) PDF(c *gin.Context) {
	id, ok := h.PathUUID(c, "id")
	if !ok {
		return
	}
	f, err := h.reports.ProjectPDF(c.Request.Context(), id, requester(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	sendFile(c, f)
}

// FinanceReport godoc
// @Summary      Project finance report
// @Description  Returns the cash flows of a project as JSON, or as a PDF document with ?format=pdf
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        request body FinanceReportRequest true "Report period"
// @Param        format query string false "pdf to render a document"
// @Success      200 {object} dto.Response{data=projectapp.FinanceReport}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /projects/finance-report [post]
func (h *ProjectHandler) FinanceReport(c *gin.Context) {
	var req FinanceReportRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if c.Query("format") == "pdf" {
		f, err := h.reports.FinancePDF(c.Request.Context(), req.input(), requester(c))
		if err != nil {
			h.HandleError(c, err)
			return
		}
		sendFile(c, f)
		return
	}

	r, err := h.projects.FinanceReport(c.Request.Context(), req.input())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, r)
}

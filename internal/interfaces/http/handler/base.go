package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/ech/backend/internal/application/report"
	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/infrastructure/logger"
	"github.com/ech/backend/internal/infrastructure/printing"
	"github.com/ech/backend/internal/interfaces/http/dto"
	"github.com/ech/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Page sends a page of results with pagination meta
func Page[T any](c *gin.Context, page *shared.Paginated[T]) {
	c.JSON(http.StatusOK, dto.NewPageResponse(page))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 response for a request that could not be read
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, shared.CodeValidation, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, shared.CodeUnauthorized, message)
}

// BindJSON decodes the body into req and answers with validation details on failure
func (h *BaseHandler) BindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// PathUUID parses the named path parameter
func (h *BaseHandler) PathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

// HandleError converts errors to HTTP responses. Domain errors keep their
// code and message; anything else is logged and answered with a generic 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		h.Error(c, dto.GetHTTPStatus(domainErr.Code), domainErr.Code, domainErr.Message)
		return
	}

	var renderErr *printing.RenderError
	if errors.As(err, &renderErr) {
		if renderErr.Code == printing.ErrCodeDisabled {
			h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeReportsDisabled, "Report generation is disabled")
			return
		}
		logger.FromContext(c.Request.Context()).Error("Report generation failed", zap.Error(err))
		h.Error(c, http.StatusBadGateway, dto.ErrCodeReportFailed, "Report generation failed")
		return
	}

	logger.FromContext(c.Request.Context()).Error("Unhandled error",
		zap.Error(err),
		zap.String("path", c.FullPath()),
	)
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}

// currentUserID returns the authenticated user id, nil for anonymous calls
func currentUserID(c *gin.Context) *uuid.UUID {
	return middleware.GetJWTUserUUID(c)
}

// DocumentURLHeader carries the presigned URL of an archived report
const DocumentURLHeader = "X-Document-URL"

// sendFile writes a generated report as an attachment
func sendFile(c *gin.Context, f *report.File) {
	c.Header("Content-Disposition", `attachment; filename="`+f.Name+`"; filename*=UTF-8''`+url.PathEscape(f.Name))
	if f.URL != "" {
		c.Header(DocumentURLHeader, f.URL)
	}
	c.Data(http.StatusOK, f.ContentType, f.Data)
}

// requester identifies the caller of a report
func requester(c *gin.Context) report.Requester {
	return report.Requester{UserID: currentUserID(c), Name: middleware.GetJWTUsername(c)}
}

package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the unified API response envelope.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *PageMeta   `json:"meta,omitempty"`
}

// PageMeta carries pagination info for list endpoints.
type PageMeta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// NewPageMeta computes pagination metadata from a total row count.
func NewPageMeta(page, limit int, total int64) *PageMeta {
	if limit <= 0 {
		limit = 20
	}
	pages := int(total) / limit
	if int(total)%limit != 0 {
		pages++
	}
	return &PageMeta{Page: page, Limit: limit, Total: total, Pages: pages}
}

// AppError represents a structured application error with HTTP status.
type AppError struct {
	HTTPStatus int    // HTTP status code (e.g. 400, 404, 500)
	Message    string // Human-readable error message
}

func (e *AppError) Error() string {
	return e.Message
}

// Pre-defined error constructors, one per taxonomy class.

// NewValidation is for malformed or missing input.
func NewValidation(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusBadRequest, Message: msg}
}

// NewAuthentication is for missing, expired or invalid credentials.
func NewAuthentication(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusUnauthorized, Message: msg}
}

// NewAuthorization is for authenticated actors with insufficient privilege.
// The message is deliberately generic so callers cannot probe which rule failed.
func NewAuthorization() *AppError {
	return &AppError{HTTPStatus: http.StatusForbidden, Message: "access denied"}
}

func NewNotFound(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusNotFound, Message: msg}
}

// NewConflict is for duplicate names/emails and state conflicts.
func NewConflict(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusConflict, Message: msg}
}

// NewUpstream is for collaborator failures (mail, queue, persistence).
func NewUpstream(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusInternalServerError, Message: msg}
}

// --- Gin response helpers ---

// Success sends a 200 OK response with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Message: "ok", Data: data})
}

// SuccessPage sends a 200 OK response with data and pagination metadata.
func SuccessPage(c *gin.Context, data interface{}, meta *PageMeta) {
	c.JSON(http.StatusOK, Response{Success: true, Message: "ok", Data: data, Meta: meta})
}

// Created sends a 201 Created response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Message: "created", Data: data})
}

// Error sends an error response. If err is an *AppError its status is used;
// otherwise a generic 500 internal server error is returned.
func Error(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, Response{Success: false, Message: appErr.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, Response{Success: false, Message: err.Error()})
}

// Convenience error response functions

func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Message: msg})
}

func Unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, Response{Success: false, Message: msg})
}

func Forbidden(c *gin.Context) {
	c.JSON(http.StatusForbidden, Response{Success: false, Message: "access denied"})
}

func NotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, Response{Success: false, Message: msg})
}

func Conflict(c *gin.Context, msg string) {
	c.JSON(http.StatusConflict, Response{Success: false, Message: msg})
}

func ServerError(c *gin.Context, msg string) {
	c.JSON(http.StatusInternalServerError, Response{Success: false, Message: msg})
}

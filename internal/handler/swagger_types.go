package handler

import (
	"github.com/google/uuid"
)

// Swagger type definitions for API documentation.
// These types are used by swag to generate OpenAPI documentation.

// --- Request Types ---

// ResolveRequest represents the resolution request body.
type ResolveRequest struct {
	Action       string            `json:"action" binding:"required" example:"MARK_RESOLVED"`
	ExceptionIDs []uuid.UUID       `json:"exception_ids" example:"550e8400-e29b-41d4-a716-446655440000"`
	Fields       map[string]string `json:"fields" example:"dueDate:2024-07-31"`
}

// InvoiceRefRequest names a single invoice.
type InvoiceRefRequest struct {
	InvoiceID uuid.UUID `json:"invoice_id" binding:"required" example:"660e8400-e29b-41d4-a716-446655440001"`
}

// ConfirmRequest carries the explicit confirmation of a destructive wizard step.
type ConfirmRequest struct {
	Confirmed bool `json:"confirmed" example:"true"`
}

// MappingsRequest maps report field keys to column headers of the uploaded file.
type MappingsRequest struct {
	Mappings map[string]string `json:"mappings" binding:"required" example:"invoiceNumber:Invoice #"`
}

// AddNoteRequest represents the add note request body.
type AddNoteRequest struct {
	Body   string `json:"body" binding:"required" example:"Called the buyer, PO will be reopened on Monday."`
	Author string `json:"author" example:"Dana from AR"`
}

// --- Response Types ---

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
	Error  string `json:"error,omitempty" example:"database not reachable"`
}

// MessageResponse represents a simple message response.
type MessageResponse struct {
	Message string `json:"message" example:"operation completed successfully"`
}

// Response wraps a successful response.
type Response struct {
	Success bool        `json:"success" example:"true"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// ErrorResponseBody wraps an error response.
type ErrorResponseBody struct {
	Success bool      `json:"success" example:"false"`
	Error   *APIError `json:"error"`
}

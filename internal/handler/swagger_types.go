package handler

import (
	"time"

	"reviewhub/internal/domain"
)

// Swagger type definitions for API documentation.

// --- Request Types ---

// RegisterRequest represents the registration request body.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required" example:"owner@example.com"`
	Password string `json:"password" binding:"required" example:"securepassword123"`
	FullName string `json:"full_name" binding:"required" example:"Jordan Lee"`
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Email    string `json:"email" binding:"required" example:"owner@example.com"`
	Password string `json:"password" binding:"required" example:"securepassword123"`
}

// RefreshRequest represents the token refresh request body.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// CreateProductRequest represents the create product request body.
type CreateProductRequest struct {
	ProductName string `json:"product_name" binding:"required" example:"Noise Cancelling Headphones"`
	Brand       string `json:"brand" example:"Acme Audio"`
	CategoryID  int64  `json:"category_id" binding:"required" example:"1"`
}

// UploadFormDoc documents the multipart review upload form.
type UploadFormDoc struct {
	Files       []string               `json:"files" example:"reviews.csv"`
	Mappings    []domain.ColumnMapping `json:"mappings"`
	AutoAnalyze bool                   `json:"auto_analyze" example:"false"`
}

// --- Response Types ---

// TokenResponse represents the authentication token response.
type TokenResponse struct {
	AccessToken  string    `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	RefreshToken string    `json:"refresh_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	ExpiresAt    time.Time `json:"expires_at" example:"2025-01-15T10:30:00Z"`
}

// RegisterResponse represents the registration response.
type RegisterResponse struct {
	User   domain.User   `json:"user"`
	Tokens TokenResponse `json:"tokens"`
}

// ProductResponse wraps a created or updated product.
type ProductResponse struct {
	Message string         `json:"message" example:"product created"`
	Product domain.Product `json:"product"`
}

// UploadTicketResponse is returned when an upload is accepted.
type UploadTicketResponse struct {
	TaskID    string `json:"task_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	FileCount int    `json:"file_count" example:"2"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status      string `json:"status" example:"ok"`
	Error       string `json:"error,omitempty" example:"database not reachable"`
	ActiveTasks int    `json:"active_tasks,omitempty" example:"3"`
}

// MessageResponse represents a simple message response.
type MessageResponse struct {
	Message string `json:"message" example:"operation completed successfully"`
}

// --- Generic Response Wrappers ---

// Response wraps a successful response with data.
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

// Package docs registers the OpenAPI description served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/auth/register": {"post": {"tags": ["auth"], "summary": "Register an account", "responses": {"201": {"description": "Created"}, "409": {"description": "Email already exists"}}}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "Log in", "responses": {"200": {"description": "Token pair"}, "401": {"description": "Invalid credentials"}}}},
        "/auth/refresh": {"post": {"tags": ["auth"], "summary": "Refresh tokens", "responses": {"200": {"description": "Token pair"}}}},
        "/auth/me": {"get": {"tags": ["auth"], "summary": "Current user", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "User"}}}},
        "/categories": {"get": {"tags": ["products"], "summary": "List product categories", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Categories"}}}},
        "/products": {
            "get": {"tags": ["products"], "summary": "List own products", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Products"}}},
            "post": {"tags": ["products"], "summary": "Create a product", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}, "400": {"description": "Missing name or invalid category"}}}
        },
        "/products/{id}": {
            "get": {"tags": ["products"], "summary": "Get a product", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Product"}, "404": {"description": "Product not found"}}},
            "put": {"tags": ["products"], "summary": "Update a product", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Updated"}}},
            "delete": {"tags": ["products"], "summary": "Delete a product and its reviews", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Deleted"}}}
        },
        "/products/{id}/reviews": {"get": {"tags": ["reviews"], "summary": "List reviews of a product", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Reviews"}}}},
        "/products/{id}/reviews/files": {"get": {"tags": ["reviews"], "summary": "List uploaded review files", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Files"}}}},
        "/products/{id}/reviews/upload": {"post": {"tags": ["reviews"], "summary": "Upload review files", "consumes": ["multipart/form-data"], "security": [{"BearerAuth": []}], "responses": {"202": {"description": "Task accepted"}, "400": {"description": "Invalid files or mappings"}, "413": {"description": "File too large"}}}},
        "/products/{id}/reviews/upload/progress/{taskId}": {"get": {"tags": ["reviews"], "summary": "Stream upload progress", "produces": ["text/event-stream"], "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Server-sent progress events"}, "403": {"description": "Task belongs to another user"}, "404": {"description": "Task not found"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "ReviewHub API",
	Description:      "Product review ingestion: products, review file uploads and ingestion progress.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

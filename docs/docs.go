// Package docs registers the OpenAPI description served at /swagger when
// SWAGGER_ENABLED is set. Regenerate with `swag init -g cmd/server/main.go`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/": {
            "get": {
                "description": "Renders the watch form with both server catalogs and the request statistics.",
                "produces": ["text/html", "application/json"],
                "tags": ["Form"],
                "summary": "Watch form",
                "operationId": "index",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.IndexResponse"}},
                    "502": {"description": "Store unavailable", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "post": {
                "description": "Runs the submission pipeline: field validation, phone normalization, human verification, uniqueness, provider availability, then persistence.",
                "consumes": ["application/x-www-form-urlencoded", "application/json"],
                "produces": ["text/html", "application/json"],
                "tags": ["Form"],
                "summary": "Register an availability watch",
                "operationId": "submitRequest",
                "parameters": [
                    {"description": "Watch form", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.Submission"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.RequestResponse"}},
                    "400": {"description": "Unreadable body", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "409": {"description": "Already pending or already available", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "422": {"description": "Invalid form, phone or human verification", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "429": {"description": "Rate limited", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "502": {"description": "Upstream unavailable", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/request/reactivate/{token}": {
            "get": {
                "description": "Turns a notified watch back to pending and rotates its token.",
                "produces": ["text/html", "application/json"],
                "tags": ["Form"],
                "summary": "Reactivate a notified watch",
                "operationId": "reactivateRequest",
                "parameters": [
                    {"type": "string", "description": "Reactivation token (48 hex characters)", "name": "token", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.RequestResponse"}},
                    "404": {"description": "Invalid token", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "409": {"description": "Request still active", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "502": {"description": "Store unavailable", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/v1/resources": {
            "get": {
                "description": "Returns both server catalogs and the request statistics. The flat reference list is only included when references=true.",
                "produces": ["application/json"],
                "tags": ["Resources"],
                "summary": "Form read model",
                "operationId": "getResources",
                "parameters": [
                    {"type": "boolean", "default": false, "description": "Include the list of valid references", "name": "references", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.Resources"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "502": {"description": "Store unavailable", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.AvailabilityRequest": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "reference": {"type": "string", "example": "160sk1"},
                "mail": {"type": "string", "example": "john@example.com"},
                "zone": {"type": "string", "enum": ["europe", "canada", "all"]},
                "phone": {"type": "string", "example": "0033612345678"},
                "state": {"type": "string", "enum": ["pending", "notified"]},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "domain.Server": {
            "type": "object",
            "properties": {
                "reference": {"type": "string"},
                "family": {"type": "string", "enum": ["sys", "kimsufi"]},
                "name": {"type": "string"},
                "cpu": {"type": "string"},
                "ram": {"type": "string"},
                "disk": {"type": "string"},
                "bandwidth": {"type": "string"},
                "price": {"type": "number"}
            }
        },
        "domain.ReferenceCount": {
            "type": "object",
            "properties": {
                "reference": {"type": "string"},
                "count": {"type": "integer"}
            }
        },
        "domain.Statistics": {
            "type": "object",
            "properties": {
                "total": {"type": "integer"},
                "pending": {"type": "integer"},
                "notified": {"type": "integer"},
                "top_references": {"type": "array", "items": {"$ref": "#/definitions/domain.ReferenceCount"}}
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string", "example": "123e4567-e89b-12d3-a456-426614174000"},
                "code": {"type": "string", "example": "invalid_token"},
                "message": {"type": "string", "example": "Unable to perform this action, invalid token."},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "handlers.IndexResponse": {
            "type": "object",
            "properties": {
                "resources": {"$ref": "#/definitions/services.Resources"},
                "pushbullet": {"type": "boolean"},
                "mail": {"type": "string"}
            }
        },
        "handlers.RequestResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string", "example": "Your request has been registered."},
                "request": {"$ref": "#/definitions/domain.AvailabilityRequest"}
            }
        },
        "services.Resources": {
            "type": "object",
            "properties": {
                "sys_servers": {"type": "array", "items": {"$ref": "#/definitions/domain.Server"}},
                "kimsufi_servers": {"type": "array", "items": {"$ref": "#/definitions/domain.Server"}},
                "references": {"type": "array", "items": {"type": "string"}},
                "statistics": {"$ref": "#/definitions/domain.Statistics"}
            }
        },
        "services.Submission": {
            "type": "object",
            "required": ["mail", "zone", "server"],
            "properties": {
                "mail": {"type": "string", "maxLength": 100, "minLength": 5},
                "zone": {"type": "string", "enum": ["europe", "canada", "all"]},
                "server": {"type": "string"},
                "phone": {"type": "string"},
                "country": {"type": "string", "example": "FR"},
                "captcha": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Server availability watch",
	Description:      "Register watches on dedicated-server offers and get notified when they are back in stock.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

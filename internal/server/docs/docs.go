// Package docs holds the OpenAPI description served under /swagger.
// Regenerate with `go generate ./internal/server` after changing handler
// annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "bizaudit maintainers",
            "url": "https://github.com/raysh454/bizaudit"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/audit": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["audit"],
                "summary": "Audit a business listing",
                "parameters": [
                    {
                        "description": "Business identity",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/server.AuditRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/server.AuditResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/server.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/server.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        },
        "/api/audit/queue-status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["queue"],
                "summary": "Queue status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/server.QueueStatusResponse"}}
                }
            }
        },
        "/api/audit/queue/pause": {
            "post": {
                "produces": ["application/json"],
                "tags": ["queue"],
                "summary": "Pause dispatching",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/server.QueueControlResponse"}}
                }
            }
        },
        "/api/audit/queue/resume": {
            "post": {
                "produces": ["application/json"],
                "tags": ["queue"],
                "summary": "Resume dispatching",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/server.QueueControlResponse"}}
                }
            }
        },
        "/api/audit/queue/clear": {
            "post": {
                "produces": ["application/json"],
                "tags": ["queue"],
                "summary": "Drop queued audits",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/server.QueueControlResponse"}}
                }
            }
        },
        "/api/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["ops"],
                "summary": "Liveness",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/server.HealthResponse"}}
                }
            }
        },
        "/metrics": {
            "get": {
                "produces": ["text/plain"],
                "tags": ["ops"],
                "summary": "Prometheus metrics",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "string"}}
                }
            }
        }
    },
    "definitions": {
        "server.AuditRequest": {
            "type": "object",
            "properties": {
                "area": {"type": "string", "example": "Park Street, Kolkata"},
                "businessName": {"type": "string", "example": "Blue Door Cafe"},
                "placeUrl": {"type": "string", "example": "https://www.google.com/maps/place/Blue+Door+Cafe"}
            }
        },
        "server.AuditResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": true},
                "auditId": {"type": "string"},
                "cached": {"type": "boolean"},
                "businessName": {"type": "string"},
                "area": {"type": "string"},
                "placeUrl": {"type": "string"},
                "scrapedAt": {"type": "string"},
                "totalScore": {"type": "integer"},
                "statusTier": {"type": "string", "enum": ["success", "warning", "danger"]},
                "statusMessage": {"type": "string"},
                "categories": {"type": "array", "items": {"$ref": "#/definitions/model.Category"}},
                "facts": {"type": "object"},
                "processingTimeMs": {"type": "integer"},
                "changes": {"$ref": "#/definitions/scoring.Delta"}
            }
        },
        "model.Category": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "score": {"type": "integer"},
                "maxScore": {"type": "integer"},
                "details": {"type": "array", "items": {"$ref": "#/definitions/model.Line"}}
            }
        },
        "model.Line": {
            "type": "object",
            "properties": {
                "tier": {"type": "string"},
                "text": {"type": "string"}
            }
        },
        "scoring.Delta": {
            "type": "object",
            "properties": {
                "previousScore": {"type": "integer"},
                "currentScore": {"type": "integer"},
                "delta": {"type": "integer"},
                "previousTier": {"type": "string"},
                "currentTier": {"type": "string"},
                "added": {"type": "array", "items": {"type": "string"}},
                "removed": {"type": "array", "items": {"type": "string"}}
            }
        },
        "server.ErrorResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": false},
                "error": {"type": "string", "example": "QUEUE_FULL"},
                "message": {"type": "string", "example": "High load, please retry in 120 seconds"},
                "retryAfter": {"type": "integer", "example": 120}
            }
        },
        "server.QueueStatusResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": true},
                "queue": {"$ref": "#/definitions/scheduler.Stats"}
            }
        },
        "scheduler.Stats": {
            "type": "object",
            "properties": {
                "queueDepth": {"type": "integer"},
                "inFlight": {"type": "integer"},
                "totalProcessed": {"type": "integer"},
                "totalFailed": {"type": "integer"},
                "lastDispatchTime": {"type": "string"},
                "paused": {"type": "boolean"},
                "maxDepth": {"type": "integer"}
            }
        },
        "server.QueueControlResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": true},
                "paused": {"type": "boolean"},
                "dropped": {"type": "integer", "example": 3}
            }
        },
        "server.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "ok"},
                "time": {"type": "string"}
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
	Title:            "bizaudit API",
	Description:      "Listing audits: queue-paced extraction, cached scoring and queue controls.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

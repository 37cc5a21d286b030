package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Windward Scheduling API",
        "description": "Teacher daily queue and commission engine",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Authentication"},
        {"name": "Teachers", "description": "Instructor roster"},
        {"name": "Queues", "description": "Per-teacher daily event queues and slot search"},
        {"name": "Settings", "description": "Schedule settings administration"},
        {"name": "Earnings", "description": "Commission and earnings reporting"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/queues": {
            "get": {
                "tags": ["Queues"],
                "summary": "Teacher queues for a day",
                "parameters": [
                    {"name": "date", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Queues", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/queues/{teacherId}/slot": {
            "get": {
                "tags": ["Queues"],
                "summary": "Propose the next available slot",
                "parameters": [
                    {"name": "teacherId", "in": "path", "type": "string", "required": true},
                    {"name": "date", "in": "query", "type": "string", "required": true},
                    {"name": "students", "in": "query", "type": "integer"},
                    {"name": "from", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Slot proposal", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/queues/{teacherId}/events": {
            "post": {
                "tags": ["Queues"],
                "summary": "Schedule a new lesson event",
                "parameters": [
                    {"name": "teacherId", "in": "path", "type": "string", "required": true},
                    {"name": "date", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "201": {"description": "Scheduled event", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/settings": {
            "get": {
                "tags": ["Settings"],
                "summary": "Current schedule settings",
                "responses": {
                    "200": {"description": "Settings", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Settings"],
                "summary": "Update schedule settings",
                "responses": {
                    "200": {"description": "Settings", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/earnings/daily": {
            "get": {
                "tags": ["Earnings"],
                "summary": "Daily per-teacher earnings report",
                "parameters": [
                    {"name": "date", "in": "query", "type": "string", "required": true},
                    {"name": "format", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Report", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}

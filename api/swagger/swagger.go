package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Request Workflow API",
        "description": "Exam-access and lesson request approval workflow",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "ExamRequests", "description": "Student → instructor → admin exam access approvals"},
        {"name": "LessonRequests", "description": "Student → instructor tutoring session bookings"}
    ],
    "paths": {
        "/exam-requests": {
            "get": {
                "tags": ["ExamRequests"],
                "summary": "List exam requests visible to the caller",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "description": "Comma separated statuses"},
                    {"name": "all", "in": "query", "type": "boolean", "description": "Admins: include every status"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["ExamRequests"],
                "summary": "Request access to an exam sitting",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateExamRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Only students may create requests", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exam-requests/{id}": {
            "get": {
                "tags": ["ExamRequests"],
                "summary": "Get exam request detail",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "patch": {
                "tags": ["ExamRequests"],
                "summary": "Forward, approve or deny an exam request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ActRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid transition or concurrent update", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "504": {"description": "Timed out before commit", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exam-requests/{id}/history": {
            "get": {
                "tags": ["ExamRequests"],
                "summary": "List the transitions of an exam request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/lesson-requests": {
            "get": {
                "tags": ["LessonRequests"],
                "summary": "List lesson requests visible to the caller",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "description": "Comma separated statuses"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["LessonRequests"],
                "summary": "Request a tutoring session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateLessonRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/lesson-requests/{id}": {
            "get": {
                "tags": ["LessonRequests"],
                "summary": "Get lesson request detail",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "patch": {
                "tags": ["LessonRequests"],
                "summary": "Confirm, reject or complete a lesson request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ActRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid transition or concurrent update", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Missing Zoom link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/lesson-requests/{id}/history": {
            "get": {
                "tags": ["LessonRequests"],
                "summary": "List the transitions of a lesson request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreateExamRequest": {
            "type": "object",
            "properties": {
                "examId": {"type": "string"},
                "studentNote": {"type": "string"}
            },
            "required": ["examId"]
        },
        "CreateLessonRequest": {
            "type": "object",
            "properties": {
                "topic": {"type": "string"},
                "preferredDate": {"type": "string", "example": "2025-06-01"},
                "preferredTime": {"type": "string", "example": "14:00"},
                "altDate": {"type": "string"},
                "altTime": {"type": "string"},
                "durationMinutes": {"type": "integer", "enum": [30, 45, 60, 90]},
                "studentMessage": {"type": "string"}
            },
            "required": ["topic", "preferredDate", "preferredTime", "durationMinutes"]
        },
        "ActRequest": {
            "type": "object",
            "properties": {
                "action": {"type": "string", "enum": ["forward", "approve", "deny", "confirm", "reject", "complete"]},
                "note": {"type": "string"},
                "zoomLink": {"type": "string"}
            },
            "required": ["action"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "limit": {"type": "integer"},
                "offset": {"type": "integer"},
                "count": {"type": "integer"}
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

package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SpecReg Bridge API",
        "description": "Course request validation and override bridge for the special registration site",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Validations", "description": "Course request validation and override submission"},
        {"name": "Eligibility", "description": "Registration eligibility checks"},
        {"name": "Reconciliations", "description": "Override status reconciliation"},
        {"name": "Reports", "description": "Override status report export"}
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
        "/api/v1/validations": {
            "post": {
                "tags": ["Validations"],
                "summary": "Validate course requests",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ValidationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/validations/submit": {
            "post": {
                "tags": ["Validations"],
                "summary": "Submit course requests and file overrides",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ValidationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/validations/check": {
            "post": {
                "tags": ["Validations"],
                "summary": "Check tracked override statuses",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CheckRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/eligibility/{studentId}": {
            "get": {
                "tags": ["Eligibility"],
                "summary": "Check whether a student may register",
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/reconciliations/{studentId}": {
            "post": {
                "tags": ["Reconciliations"],
                "summary": "Reconcile one student's overrides",
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/reconciliations": {
            "post": {
                "tags": ["Reconciliations"],
                "summary": "Reconcile many students' overrides in batches",
                "parameters": [
                    {"name": "termId", "in": "query", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/BatchReconcileRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/revalidations/{studentId}": {
            "post": {
                "tags": ["Reconciliations"],
                "summary": "Enqueue an asynchronous revalidation",
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "integer"},
                    {"name": "force", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/overrides/report": {
            "get": {
                "tags": ["Reports"],
                "summary": "Export the override status report of a term",
                "parameters": [
                    {"name": "termId", "in": "query", "required": true, "type": "integer"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "definitions": {
        "RequestLine": {
            "type": "object",
            "properties": {
                "courses": {"type": "array", "items": {"type": "string"}},
                "alternative": {"type": "boolean"}
            },
            "required": ["courses"]
        },
        "ValidationRequest": {
            "type": "object",
            "properties": {
                "studentId": {"type": "integer"},
                "lines": {"type": "array", "items": {"$ref": "#/definitions/RequestLine"}}
            },
            "required": ["studentId", "lines"]
        },
        "CheckRequest": {
            "type": "object",
            "properties": {
                "studentId": {"type": "integer"}
            },
            "required": ["studentId"]
        },
        "BatchReconcileRequest": {
            "type": "object",
            "properties": {
                "studentIds": {"type": "array", "items": {"type": "integer"}}
            }
        },
        "CourseMessage": {
            "type": "object",
            "properties": {
                "course": {"type": "string"},
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "string"},
                "error": {"type": "boolean"}
            }
        },
        "Confirmation": {
            "type": "object",
            "properties": {
                "source": {"type": "string"},
                "title": {"type": "string"},
                "messages": {"type": "array", "items": {"type": "string"}}
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

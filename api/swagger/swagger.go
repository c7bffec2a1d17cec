package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Transcript API",
        "description": "Final transcript evaluation: criteria, weighted rollups and stored results.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Transcripts", "description": "Final transcript calculation, reads and exports"},
        {"name": "Observability", "description": "Liveness, readiness and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Observability"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Observability"],
                "summary": "Readiness check against PostgreSQL and Redis",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Degraded"}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Observability"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/api/v1/students/{id}/transcript/calculate": {
            "post": {
                "tags": ["Transcripts"],
                "summary": "Calculate a student's final transcript",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "async", "in": "query", "type": "boolean", "description": "Queue the calculation instead of waiting"}
                ],
                "responses": {
                    "200": {"description": "Calculated", "schema": {"$ref": "#/definitions/TranscriptEnvelope"}},
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/TranscriptJobResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Persistence failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/students/{id}/transcript": {
            "get": {
                "tags": ["Transcripts"],
                "summary": "Read a student's stored transcript",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/TranscriptEnvelope"}},
                    "404": {"description": "Not calculated yet", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/students/{id}/transcript/export": {
            "get": {
                "tags": ["Transcripts"],
                "summary": "Download a student's transcript",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/transcripts/recalculate": {
            "post": {
                "tags": ["Transcripts"],
                "summary": "Recalculate transcripts for the given students, or every student with results",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/RecalculateTranscriptsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/RecalculateTranscriptsResult"}}
                }
            }
        }
    },
    "definitions": {
        "TestResult": {
            "type": "object",
            "properties": {
                "test": {"type": "string"},
                "test_result": {"type": "string", "enum": ["PASS", "FAIL"]},
                "test_total_mark": {"type": "number"},
                "test_weighted_mark": {"type": "number"}
            }
        },
        "SubjectResult": {
            "type": "object",
            "properties": {
                "subject": {"type": "string"},
                "test_results": {"type": "array", "items": {"$ref": "#/definitions/TestResult"}},
                "subject_total_mark": {"type": "number"},
                "subject_result": {"type": "string", "enum": ["PASS", "FAIL"]}
            }
        },
        "BlockResult": {
            "type": "object",
            "properties": {
                "block": {"type": "string"},
                "subject_results": {"type": "array", "items": {"$ref": "#/definitions/SubjectResult"}},
                "block_total_mark": {"type": "number"},
                "block_result": {"type": "string", "enum": ["PASS", "FAIL"]}
            }
        },
        "FinalTranscriptResult": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "student": {"type": "string"},
                "overall_result": {"type": "string", "enum": ["PASS", "FAIL"]},
                "block_results": {"type": "array", "items": {"$ref": "#/definitions/BlockResult"}},
                "calculated_by": {"type": "string"},
                "created_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"}
            }
        },
        "TranscriptJobResponse": {
            "type": "object",
            "properties": {
                "jobId": {"type": "string"},
                "studentId": {"type": "string"},
                "queued": {"type": "boolean"}
            }
        },
        "RecalculateTranscriptsRequest": {
            "type": "object",
            "properties": {
                "studentIds": {"type": "array", "items": {"type": "string"}},
                "concurrency": {"type": "integer", "minimum": 1, "maximum": 64}
            }
        },
        "RecalculateTranscriptsResult": {
            "type": "object",
            "properties": {
                "total": {"type": "integer"},
                "passed": {"type": "integer"},
                "failed": {"type": "integer"},
                "errored": {"type": "integer"},
                "failures": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "studentId": {"type": "string"},
                            "reason": {"type": "string"}
                        }
                    }
                }
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
        },
        "TranscriptEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/FinalTranscriptResult"},
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

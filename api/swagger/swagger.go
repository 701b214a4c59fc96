package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Escola Admin API",
        "description": "School administration backend: matrículas, financeiro, chamadas e resumos",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login, tokens and session"},
        {"name": "Matriculas", "description": "Enrollments and billing plans"},
        {"name": "Financeiro", "description": "Installment ledger and exports"},
        {"name": "Chamadas", "description": "Class attendance"},
        {"name": "Resumos", "description": "Lesson summaries"},
        {"name": "Arquivos", "description": "Audio files and course materials"}
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
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/matriculas": {
            "get": {
                "tags": ["Matriculas"],
                "summary": "List enrollments",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "schoolId", "in": "query", "type": "string"},
                    {"name": "cursoId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Matriculas"],
                "summary": "Enroll student",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateMatriculaRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/matriculas/{id}": {
            "get": {
                "tags": ["Matriculas"],
                "summary": "Get enrollment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Matriculas"],
                "summary": "Update enrollment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateMatriculaRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Billing plan has paid installments"}
                }
            }
        },
        "/matriculas/{id}/status": {
            "put": {
                "tags": ["Matriculas"],
                "summary": "Move enrollment through its lifecycle",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object", "properties": {"status": {"type": "string"}}}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "412": {"description": "Transition not allowed"}
                }
            }
        },
        "/matriculas/novo/aluno/{id}": {
            "get": {
                "tags": ["Matriculas"],
                "summary": "Hydrate enrollment form for a student",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "cursoId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/financeiroParcelas": {
            "get": {
                "tags": ["Financeiro"],
                "summary": "Financial ledger with derived statuses and period totals",
                "parameters": [
                    {"name": "matriculaId", "in": "query", "type": "string"},
                    {"name": "schoolId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string", "description": "Pago, à vencer or Vencido"},
                    {"name": "month", "in": "query", "type": "string", "description": "AAAA-MM"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/update-status/{parcelaId}": {
            "put": {
                "tags": ["Financeiro"],
                "summary": "Update installment status",
                "parameters": [
                    {"name": "parcelaId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object", "properties": {"status": {"type": "string"}}}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unknown status value"}
                }
            }
        },
        "/financeiro/export": {
            "post": {
                "tags": ["Financeiro"],
                "summary": "Enqueue a CSV/PDF ledger export",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportJobParams"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/financeiro/export/{id}": {
            "get": {
                "tags": ["Financeiro"],
                "summary": "Export job status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/chamadas": {
            "post": {
                "tags": ["Chamadas"],
                "summary": "Register a class-session roll call",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateChamadaRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/chamadas/turma/{turmaId}": {
            "get": {
                "tags": ["Chamadas"],
                "summary": "List attendance for a class",
                "parameters": [
                    {"name": "turmaId", "in": "path", "required": true, "type": "string"},
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/resumos/{turmaId}": {
            "get": {
                "tags": ["Resumos"],
                "summary": "Lesson summaries grouped by date, newest first",
                "parameters": [
                    {"name": "turmaId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/audios": {
            "get": {
                "tags": ["Arquivos"],
                "summary": "List audio files",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Arquivos"],
                "summary": "Upload audio file",
                "consumes": ["multipart/form-data"],
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/materiais": {
            "get": {
                "tags": ["Arquivos"],
                "summary": "List course materials",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Arquivos"],
                "summary": "Upload course material",
                "consumes": ["multipart/form-data"],
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "CreateMatriculaRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "curso_id": {"type": "string"},
                "turma_id": {"type": "string"},
                "billing_type": {"type": "string", "enum": ["PARCELADO", "MENSAL"]},
                "installment_count": {"type": "integer"},
                "first_payment_date": {"type": "string"},
                "level": {"type": "string"},
                "schedule": {"type": "string"},
                "has_guardian": {"type": "boolean"},
                "guardian": {"$ref": "#/definitions/GuardianSection"},
                "has_extra_data": {"type": "boolean"},
                "extra_data": {"$ref": "#/definitions/ExtraDataSection"}
            },
            "required": ["student_id", "curso_id", "billing_type", "first_payment_date"]
        },
        "GuardianSection": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "cpf": {"type": "string"},
                "phone": {"type": "string"}
            }
        },
        "ExtraDataSection": {
            "type": "object",
            "properties": {
                "profession": {"type": "string"},
                "marital_state": {"type": "string"},
                "city": {"type": "string"},
                "street": {"type": "string"},
                "number": {"type": "string"}
            }
        },
        "CreateChamadaRequest": {
            "type": "object",
            "properties": {
                "turma_id": {"type": "string"},
                "date": {"type": "string"},
                "time": {"type": "string"},
                "entries": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "student_id": {"type": "string"},
                            "status": {"type": "string", "enum": ["PRESENTE", "AUSENTE", "JUSTIFICADO"]},
                            "notes": {"type": "string"}
                        }
                    }
                }
            },
            "required": ["turma_id", "date", "entries"]
        },
        "ExportJobParams": {
            "type": "object",
            "properties": {
                "schoolId": {"type": "string"},
                "month": {"type": "string"},
                "format": {"type": "string", "enum": ["csv", "pdf"]}
            },
            "required": ["format"]
        },
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

package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Pointage API",
        "description": "Employee time and attendance tracking",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login and session info"},
        {"name": "Employees", "description": "Employee directory"},
        {"name": "Attendance", "description": "Check-in, check-out, today board and summaries"},
        {"name": "Departures", "description": "Temporary intra-day departures"},
        {"name": "Leaves", "description": "Leave and permission ranges"},
        {"name": "Reports", "description": "Asynchronous sheet generation"}
    ],
    "paths": {
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
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user profile",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/employees": {
            "get": {
                "tags": ["Employees"],
                "summary": "List employees",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "companyId", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Employees"],
                "summary": "Create employee",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateEmployeeRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/employees/{id}": {
            "get": {
                "tags": ["Employees"],
                "summary": "Get employee",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Employees"],
                "summary": "Update employee",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateEmployeeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Employees"],
                "summary": "Delete employee",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/companies": {
            "get": {
                "tags": ["Employees"],
                "summary": "List companies",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/checkin": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Record a morning check-in",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CheckInRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already checked in"},
                    "422": {"description": "Outside the check-in window"}
                }
            }
        },
        "/attendance/checkout": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Record an end-of-day check-out",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CheckOutRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already checked out"},
                    "422": {"description": "Outside the check-out window"}
                }
            }
        },
        "/attendance/on-field": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Record an on-field presence",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OnFieldCheckInRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already recorded for the date"}
                }
            }
        },
        "/attendance/today": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Today's presence board",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/summary/{id}": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Monthly presence summary",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "month", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/departures": {
            "get": {
                "tags": ["Departures"],
                "summary": "List departures",
                "parameters": [
                    {"name": "employeeId", "in": "query", "type": "string"},
                    {"name": "month", "in": "query", "type": "string"},
                    {"name": "open", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Departures"],
                "summary": "Open a temporary departure",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OpenDepartureRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "A departure is already open"}
                }
            }
        },
        "/departures/{id}/return": {
            "post": {
                "tags": ["Departures"],
                "summary": "Close a departure",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CloseDepartureRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already closed"}
                }
            }
        },
        "/departures/return-latest": {
            "post": {
                "tags": ["Departures"],
                "summary": "Close the most recent open departure",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CloseLatestDepartureRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No open departure"}
                }
            }
        },
        "/leaves": {
            "get": {
                "tags": ["Leaves"],
                "summary": "List leave records",
                "parameters": [
                    {"name": "employeeId", "in": "query", "type": "string"},
                    {"name": "month", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Leaves"],
                "summary": "Submit a leave range",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateLeaveRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Cap exceeded or invalid range"}
                }
            }
        },
        "/leaves/suggest-end": {
            "get": {
                "tags": ["Leaves"],
                "summary": "Suggest the latest allowed end date for a permission category",
                "parameters": [
                    {"name": "category", "in": "query", "required": true, "type": "string"},
                    {"name": "start", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/{kind}": {
            "post": {
                "tags": ["Reports"],
                "summary": "Queue a presence or departures sheet",
                "parameters": [
                    {"name": "kind", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/jobs/{id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Report job status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown job"}
                }
            }
        },
        "/reports/jobs/{id}/download": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a finished report",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "404": {"description": "Not ready"}
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
        "CreateEmployeeRequest": {
            "type": "object",
            "properties": {
                "full_name": {"type": "string"},
                "position": {"type": "string"},
                "company_id": {"type": "string"}
            },
            "required": ["full_name", "company_id"]
        },
        "UpdateEmployeeRequest": {
            "type": "object",
            "properties": {
                "full_name": {"type": "string"},
                "position": {"type": "string"},
                "company_id": {"type": "string"},
                "active": {"type": "boolean"}
            },
            "required": ["full_name", "company_id"]
        },
        "CheckInRequest": {
            "type": "object",
            "properties": {
                "employee_id": {"type": "string"},
                "signature": {"type": "string"}
            },
            "required": ["employee_id", "signature"]
        },
        "CheckOutRequest": {
            "type": "object",
            "properties": {
                "employee_id": {"type": "string"},
                "signature": {"type": "string"}
            },
            "required": ["employee_id", "signature"]
        },
        "OnFieldCheckInRequest": {
            "type": "object",
            "properties": {
                "employee_id": {"type": "string"},
                "date": {"type": "string"}
            },
            "required": ["employee_id"]
        },
        "OpenDepartureRequest": {
            "type": "object",
            "properties": {
                "employee_id": {"type": "string"},
                "reason": {"type": "string"}
            },
            "required": ["employee_id", "reason"]
        },
        "CloseDepartureRequest": {
            "type": "object",
            "properties": {
                "signature": {"type": "string"}
            },
            "required": ["signature"]
        },
        "CloseLatestDepartureRequest": {
            "type": "object",
            "properties": {
                "employee_id": {"type": "string"},
                "signature": {"type": "string"}
            },
            "required": ["employee_id", "signature"]
        },
        "CreateLeaveRequest": {
            "type": "object",
            "properties": {
                "employee_id": {"type": "string"},
                "status": {"type": "string"},
                "leave_type": {"type": "string"},
                "start_date": {"type": "string"},
                "end_date": {"type": "string"}
            },
            "required": ["employee_id", "status", "leave_type", "start_date", "end_date"]
        },
        "ReportRequest": {
            "type": "object",
            "properties": {
                "format": {"type": "string"},
                "month": {"type": "string"},
                "employee_id": {"type": "string"},
                "company_id": {"type": "string"}
            },
            "required": ["format", "month"]
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

package swagger

import (
	"strings"

	"github.com/swaggo/swag"
)

// BasePath is substituted into the document; main sets it from API_PREFIX.
var BasePath = "/api/v1"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Placement Portal API",
        "description": "Student registration, eligibility filtering, exports and job postings for campus placement cells",
        "version": "1.0.0"
    },
    "basePath": "{{BASE_PATH}}",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Registration and login"},
        {"name": "Students", "description": "Filtered student listing and profiles"},
        {"name": "Student Workflow", "description": "Approve, reject, blacklist and whitelist"},
        {"name": "Exports", "description": "CSV, Excel and PDF exports"},
        {"name": "Whitelist Requests", "description": "Blacklist appeals"},
        {"name": "Jobs", "description": "Job postings and applications"},
        {"name": "Activity", "description": "Audit trail"},
        {"name": "Reference Data", "description": "Colleges and regions"}
    ],
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register a student account",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterStudentRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "PRN or email already registered", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "description": "Every filter is optional; absent or empty values do not constrain the result. Officers only see their college.",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "enum": ["all", "pending", "approved", "rejected", "blacklisted"]},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "cgpa_min", "in": "query", "type": "number"},
                    {"name": "cgpa_max", "in": "query", "type": "number"},
                    {"name": "backlog_count", "in": "query", "type": "integer"},
                    {"name": "branch", "in": "query", "type": "string"},
                    {"name": "dob_from", "in": "query", "type": "string", "format": "date"},
                    {"name": "dob_to", "in": "query", "type": "string", "format": "date"},
                    {"name": "height_min", "in": "query", "type": "number"},
                    {"name": "height_max", "in": "query", "type": "number"},
                    {"name": "weight_min", "in": "query", "type": "number"},
                    {"name": "weight_max", "in": "query", "type": "number"},
                    {"name": "has_driving_license", "in": "query", "type": "string", "enum": ["yes", "no"]},
                    {"name": "has_pan", "in": "query", "type": "string", "enum": ["yes", "no"]},
                    {"name": "has_aadhar", "in": "query", "type": "string", "enum": ["yes", "no"]},
                    {"name": "has_passport", "in": "query", "type": "string", "enum": ["yes", "no"]},
                    {"name": "districts", "in": "query", "type": "string"},
                    {"name": "college_id", "in": "query", "type": "string"},
                    {"name": "region_id", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid filter", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/export": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export filtered students",
                "description": "Accepts the listing filters plus fields and format. Requests matching more rows than the cap are rejected.",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [
                    {"name": "fields", "in": "query", "type": "string", "required": true},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "excel", "pdf"]},
                    {"name": "short_branch", "in": "query", "type": "boolean"},
                    {"name": "separate_colleges", "in": "query", "type": "boolean"},
                    {"name": "company_name", "in": "query", "type": "string"},
                    {"name": "drive_date", "in": "query", "type": "string"},
                    {"name": "signature_column", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "400": {"description": "Invalid fields or format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Too many rows", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/export/jobs": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue a background export",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportJobRequest"}}],
                "responses": {"202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/students/export/jobs/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Background export status",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/exports/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a finished export through its signed link",
                "parameters": [{"name": "token", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "File"}, "403": {"description": "Invalid or expired token"}}
            }
        },
        "/students/me": {
            "get": {
                "tags": ["Students"],
                "summary": "Current student's profile",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Students"],
                "summary": "Update current student's profile",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get student detail",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/students/{id}/approve": {
            "post": {
                "tags": ["Student Workflow"],
                "summary": "Approve a pending student",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Invalid transition"}}
            }
        },
        "/students/{id}/reject": {
            "post": {
                "tags": ["Student Workflow"],
                "summary": "Reject a pending student",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StatusReasonRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Invalid transition"}}
            }
        },
        "/students/{id}/blacklist": {
            "post": {
                "tags": ["Student Workflow"],
                "summary": "Blacklist an approved student",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StatusReasonRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Invalid transition"}}
            }
        },
        "/students/{id}/whitelist": {
            "post": {
                "tags": ["Student Workflow"],
                "summary": "Lift a student's blacklist",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Invalid transition"}}
            }
        },
        "/students/bulk/approve": {
            "post": {
                "tags": ["Student Workflow"],
                "summary": "Approve several students",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkStatusRequest"}}],
                "responses": {"200": {"description": "All succeeded"}, "207": {"description": "Some items failed"}}
            }
        },
        "/students/bulk/reject": {
            "post": {
                "tags": ["Student Workflow"],
                "summary": "Reject several students",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkStatusRequest"}}],
                "responses": {"200": {"description": "All succeeded"}, "207": {"description": "Some items failed"}}
            }
        },
        "/whitelist-requests": {
            "get": {
                "tags": ["Whitelist Requests"],
                "summary": "List whitelist requests",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "enum": ["PENDING", "APPROVED", "REJECTED"]},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Whitelist Requests"],
                "summary": "File a whitelist request",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateWhitelistRequest"}}],
                "responses": {"201": {"description": "Created"}, "409": {"description": "Already pending"}}
            }
        },
        "/whitelist-requests/{id}/review": {
            "post": {
                "tags": ["Whitelist Requests"],
                "summary": "Approve or reject a whitelist request",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Already reviewed"}}
            }
        },
        "/jobs": {
            "get": {
                "tags": ["Jobs"],
                "summary": "List job postings",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "enum": ["PENDING", "APPROVED", "REJECTED"]},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Jobs"],
                "summary": "Submit a job posting for review",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateJobRequest"}}],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/jobs/visible": {
            "get": {
                "tags": ["Jobs"],
                "summary": "Open postings targeted at the current student",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Student not eligible"}}
            }
        },
        "/jobs/{id}/review": {
            "post": {
                "tags": ["Jobs"],
                "summary": "Approve or reject a pending job posting",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Already reviewed"}}
            }
        },
        "/jobs/{id}/apply": {
            "post": {
                "tags": ["Jobs"],
                "summary": "Apply to a job posting",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"201": {"description": "Created"}, "409": {"description": "Already applied or closed"}}
            }
        },
        "/activity": {
            "get": {
                "tags": ["Activity"],
                "summary": "List activity entries",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "actor_id", "in": "query", "type": "string"},
                    {"name": "action", "in": "query", "type": "string"},
                    {"name": "from", "in": "query", "type": "string", "format": "date"},
                    {"name": "to", "in": "query", "type": "string", "format": "date"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/activity/summary": {
            "get": {
                "tags": ["Activity"],
                "summary": "Activity counts per action",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "from", "in": "query", "type": "string", "format": "date"},
                    {"name": "to", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/colleges": {
            "get": {
                "tags": ["Reference Data"],
                "summary": "List colleges",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "region_id", "in": "query", "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Reference Data"],
                "summary": "Create a college",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCollegeRequest"}}],
                "responses": {"201": {"description": "Created"}, "409": {"description": "Duplicate code"}}
            }
        },
        "/regions": {
            "get": {
                "tags": ["Reference Data"],
                "summary": "List regions",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Reference Data"],
                "summary": "Create a region",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateRegionRequest"}}],
                "responses": {"201": {"description": "Created"}, "409": {"description": "Duplicate name"}}
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "RegisterStudentRequest": {
            "type": "object",
            "required": ["email", "password", "prn", "name", "mobile_number", "date_of_birth", "gender", "branch", "college_id", "region_id", "district"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "prn": {"type": "string"},
                "name": {"type": "string"},
                "mobile_number": {"type": "string"},
                "date_of_birth": {"type": "string", "format": "date"},
                "gender": {"type": "string", "enum": ["male", "female", "other"]},
                "branch": {"type": "string"},
                "college_id": {"type": "string"},
                "region_id": {"type": "string"},
                "district": {"type": "string"},
                "height": {"type": "number"},
                "weight": {"type": "number"}
            }
        },
        "StatusReasonRequest": {
            "type": "object",
            "required": ["reason"],
            "properties": {"reason": {"type": "string"}}
        },
        "BulkStatusRequest": {
            "type": "object",
            "required": ["student_ids"],
            "properties": {
                "student_ids": {"type": "array", "items": {"type": "string"}},
                "reason": {"type": "string"}
            }
        },
        "ExportJobRequest": {
            "type": "object",
            "required": ["fields"],
            "properties": {
                "filters": {"type": "object", "additionalProperties": {"type": "string"}},
                "fields": {"type": "array", "items": {"type": "string"}},
                "format": {"type": "string", "enum": ["csv", "excel", "pdf"]},
                "options": {
                    "type": "object",
                    "properties": {
                        "shortBranch": {"type": "boolean"},
                        "separateColleges": {"type": "boolean"},
                        "companyName": {"type": "string"},
                        "driveDate": {"type": "string"},
                        "signatureColumn": {"type": "boolean"}
                    }
                }
            }
        },
        "CreateWhitelistRequest": {
            "type": "object",
            "required": ["student_id", "reason"],
            "properties": {
                "student_id": {"type": "string"},
                "reason": {"type": "string"}
            }
        },
        "ReviewRequest": {
            "type": "object",
            "required": ["decision"],
            "properties": {
                "decision": {"type": "string", "enum": ["APPROVE", "REJECT"]},
                "note": {"type": "string"}
            }
        },
        "CreateJobRequest": {
            "type": "object",
            "required": ["title", "company", "description", "location", "deadline", "audience_type"],
            "properties": {
                "title": {"type": "string"},
                "company": {"type": "string"},
                "description": {"type": "string"},
                "location": {"type": "string"},
                "package_lpa": {"type": "number"},
                "deadline": {"type": "string", "format": "date"},
                "audience_type": {"type": "string", "enum": ["ALL", "COLLEGES", "REGIONS"]},
                "college_ids": {"type": "array", "items": {"type": "string"}},
                "region_ids": {"type": "array", "items": {"type": "string"}}
            }
        },
        "CreateCollegeRequest": {
            "type": "object",
            "required": ["name", "code", "region_id"],
            "properties": {
                "name": {"type": "string"},
                "code": {"type": "string"},
                "region_id": {"type": "string"}
            }
        },
        "CreateRegionRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {"name": {"type": "string"}}
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"},
                "total_pages": {"type": "integer"}
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
	return strings.Replace(docTemplate, "{{BASE_PATH}}", BasePath, 1)
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}

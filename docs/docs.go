// Package docs registers the OpenAPI document served under /swagger.
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
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login user",
                "parameters": [
                    {"description": "Login credentials", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.LoginResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Revoke the presented bearer token",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/users/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Get a user snapshot",
                "parameters": [{"type": "integer", "description": "User ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.UserDTO"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/attendance/register": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["attendance"],
                "summary": "Register today's attendance",
                "parameters": [
                    {"description": "Location and timestamp", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.RegisterAttendanceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.AttendanceResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/attendance/user/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["attendance"],
                "summary": "List a user's attendance, newest first",
                "parameters": [{"type": "integer", "description": "User ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.Attendance"}}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/attendance/today": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["attendance"],
                "summary": "List today's attendance (UTC), newest first",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.Attendance"}}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "errors.ErrorResponse": {
            "type": "object",
            "properties": {"success": {"type": "boolean"}, "error": {"type": "string"}, "code": {"type": "string"}}
        },
        "handler.LoginRequest": {
            "type": "object",
            "properties": {"username": {"type": "string"}, "password": {"type": "string"}}
        },
        "handler.UserDTO": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"}, "username": {"type": "string"}, "full_name": {"type": "string"},
                "email": {"type": "string"}, "role": {"type": "string"}, "workplace_id": {"type": "integer"},
                "workplace_name": {"type": "string"}, "active": {"type": "boolean"},
                "created_at": {"type": "string"}, "last_login_at": {"type": "string"}
            }
        },
        "handler.GeofenceDTO": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"}, "workplace_id": {"type": "integer"},
                "center_latitude": {"type": "number"}, "center_longitude": {"type": "number"},
                "radius_in_meters": {"type": "number"}, "updated_at": {"type": "string"}
            }
        },
        "handler.LoginResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"}, "token": {"type": "string"}, "message": {"type": "string"},
                "reason": {"type": "string"}, "user": {"$ref": "#/definitions/handler.UserDTO"},
                "geofence": {"$ref": "#/definitions/handler.GeofenceDTO"}
            }
        },
        "handler.RegisterAttendanceRequest": {
            "type": "object",
            "required": ["latitude", "longitude"],
            "properties": {
                "user_id": {"type": "integer"}, "latitude": {"type": "number", "maximum": 90, "minimum": -90},
                "longitude": {"type": "number", "maximum": 180, "minimum": -180}, "timestamp": {"type": "string"}
            }
        },
        "handler.AttendanceResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"}, "message": {"type": "string"}, "reason": {"type": "string"},
                "attendance_id": {"type": "integer"}, "distance": {"type": "number"}
            }
        },
        "model.Attendance": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"}, "user_id": {"type": "integer"},
                "latitude": {"type": "number"}, "longitude": {"type": "number"},
                "timestamp": {"type": "string"}, "received_at": {"type": "string"},
                "accepted": {"type": "boolean"}, "accepted_on": {"type": "string"},
                "reject_reason": {"type": "string"}, "distance_from_center": {"type": "number"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api",
	Schemes:          []string{"http"},
	Title:            "Checador API",
	Description:      "Geofenced daily attendance with JWT authentication.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// Package docs registers the OpenAPI description served under /swagger.
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
    "securityDefinitions": {
        "OperatorToken": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/trips": {
            "get": {
                "tags": ["trips"],
                "summary": "List trips",
                "parameters": [
                    {"type": "integer", "name": "route_id", "in": "query"},
                    {"type": "string", "enum": ["SCHEDULED", "COMPLETED", "CANCELLED"], "name": "status", "in": "query"},
                    {"type": "boolean", "name": "upcoming", "in": "query"},
                    {"type": "integer", "default": 1, "name": "page", "in": "query"},
                    {"type": "integer", "default": 20, "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Response"}}}
            }
        },
        "/trips/{id}": {
            "get": {
                "tags": ["trips"],
                "summary": "Trip with route, bus and live availability",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/Response"}}
                }
            }
        },
        "/trips/{id}/seats/available": {
            "get": {
                "tags": ["seats"],
                "summary": "Seats that can be held right now",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Response"}}}
            }
        },
        "/bookings": {
            "post": {
                "tags": ["bookings"],
                "summary": "Hold seats and open a PENDING booking",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateBookingRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/Response"}},
                    "409": {"description": "Seat unavailable", "schema": {"$ref": "#/definitions/Response"}}
                }
            }
        },
        "/bookings/{token}": {
            "get": {
                "tags": ["bookings"],
                "summary": "Retrieve a paid booking by token",
                "parameters": [{"type": "string", "name": "token", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Response"}},
                    "402": {"description": "Payment incomplete", "schema": {"$ref": "#/definitions/Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/Response"}}
                }
            }
        },
        "/payments/initialize": {
            "post": {
                "tags": ["payments"],
                "summary": "Create or reuse a gateway payment intent",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateIntentRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Response"}},
                    "409": {"description": "Seat hold expired", "schema": {"$ref": "#/definitions/Response"}}
                }
            }
        },
        "/payments/verify/{reference}": {
            "get": {
                "tags": ["payments"],
                "summary": "Verify a charge with the gateway and settle it",
                "parameters": [{"type": "string", "name": "reference", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Response"}}}
            }
        },
        "/webhooks/paystack": {
            "post": {
                "tags": ["payments"],
                "summary": "Gateway event callback signed with HMAC-SHA512",
                "parameters": [{"type": "string", "name": "x-paystack-signature", "in": "header", "required": true}],
                "responses": {
                    "200": {"description": "Accepted"},
                    "400": {"description": "Invalid signature"}
                }
            }
        },
        "/admin/bookings": {
            "get": {
                "security": [{"OperatorToken": []}],
                "tags": ["operator"],
                "summary": "List bookings",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Response"}}}
            }
        },
        "/admin/bookings/{id}/status": {
            "patch": {
                "security": [{"OperatorToken": []}],
                "tags": ["operator"],
                "summary": "Move a booking to a new status",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateStatusRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Response"}}}
            }
        },
        "/admin/bookings/{id}/payments": {
            "post": {
                "security": [{"OperatorToken": []}],
                "tags": ["operator"],
                "summary": "Record an offline payment",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AdminPaymentRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/Response"}}}
            }
        },
        "/admin/holds/sweep": {
            "post": {
                "security": [{"OperatorToken": []}],
                "tags": ["operator"],
                "summary": "Run the expired hold sweep now",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Response"}}}
            }
        }
    },
    "definitions": {
        "Response": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "status_code": {"type": "integer"},
                "message": {"type": "string"},
                "data": {},
                "errors": {}
            }
        },
        "CreateBookingRequest": {
            "type": "object",
            "required": ["trip_id", "seat_ids", "passenger_name", "email", "mobile"],
            "properties": {
                "trip_id": {"type": "integer"},
                "seat_ids": {"type": "array", "maxItems": 5, "items": {"type": "integer"}},
                "passenger_name": {"type": "string"},
                "email": {"type": "string"},
                "mobile": {"type": "string"}
            }
        },
        "CreateIntentRequest": {
            "type": "object",
            "properties": {
                "booking_id": {"type": "integer"},
                "booking_token": {"type": "string"},
                "seat_ids": {"type": "array", "items": {"type": "integer"}},
                "amount": {"type": "integer", "description": "minor units; 0 pays the outstanding balance"},
                "channel": {"type": "string"},
                "email": {"type": "string"}
            }
        },
        "UpdateStatusRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["DRAFT", "PENDING", "CONFIRMED", "CANCELLED"]},
                "seat_count": {"type": "integer"},
                "allow_downgrade": {"type": "boolean"}
            }
        },
        "AdminPaymentRequest": {
            "type": "object",
            "required": ["amount"],
            "properties": {
                "amount": {"type": "integer"},
                "note": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Busline API",
	Description:      "Seat holds, bookings and payment reconciliation for intercity bus trips.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// Package docs is the OpenAPI description served under /swagger. It mirrors
// the handler annotations; `swag init -g cmd/railtix/main.go` regenerates it.
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
        "/admin/promotions": {
            "post": {
                "summary": "Create promotion",
                "parameters": [
                    {
                        "description": "payload",
                        "name": "req",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/httpgin.CreatePromotionRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Promotion"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/admin/promotions/{id}": {
            "delete": {
                "summary": "Delete promotion",
                "parameters": [
                    {"type": "string", "description": "Promotion ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/admin/tickets": {
            "delete": {
                "summary": "Remove every ticket and free its seats",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httpgin.ClearTicketsResponse"}}
                }
            }
        },
        "/admin/trains": {
            "post": {
                "summary": "Create train",
                "parameters": [
                    {
                        "description": "payload",
                        "name": "req",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/httpgin.CreateTrainRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Train"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/promotions": {
            "get": {
                "summary": "List promotions",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Promotion"}}}
                }
            }
        },
        "/promotions/applicable": {
            "post": {
                "summary": "Promotions applicable to an itinerary",
                "parameters": [
                    {
                        "description": "payload",
                        "name": "req",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/httpgin.ApplicablePromotionsRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Promotion"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/quotes": {
            "post": {
                "summary": "Price an itinerary without booking",
                "parameters": [
                    {
                        "description": "payload",
                        "name": "req",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/httpgin.QuoteRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/booking.QuoteResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/booking.QuoteResult"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/booking.QuoteResult"}}
                }
            }
        },
        "/tickets": {
            "get": {
                "summary": "List tickets",
                "parameters": [
                    {"type": "string", "description": "only this customer's tickets", "name": "username", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Ticket"}}}
                }
            },
            "post": {
                "summary": "Purchase a ticket (idempotent)",
                "parameters": [
                    {
                        "description": "payload",
                        "name": "req",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/httpgin.PurchaseTicketRequest"}
                    },
                    {"type": "string", "description": "replays the first response", "name": "Idempotency-Key", "in": "header"}
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {"$ref": "#/definitions/booking.PurchaseResult"},
                        "headers": {"Idempotency-Key": {"type": "string", "description": "echo"}}
                    },
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/booking.PurchaseResult"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/booking.PurchaseResult"}},
                    "409": {"description": "seats unavailable / idem in progress", "schema": {"$ref": "#/definitions/booking.PurchaseResult"}},
                    "429": {"description": "rate limited", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/tickets/{id}": {
            "get": {
                "summary": "Get ticket",
                "parameters": [
                    {"type": "string", "description": "Ticket ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Ticket"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            },
            "delete": {
                "summary": "Cancel a ticket and free its seats",
                "parameters": [
                    {"type": "string", "description": "Ticket ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/booking.OperationResult"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/booking.OperationResult"}}
                }
            },
            "patch": {
                "summary": "Modify a ticket",
                "parameters": [
                    {"type": "string", "description": "Ticket ID", "name": "id", "in": "path", "required": true},
                    {
                        "description": "fields to change",
                        "name": "req",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/httpgin.ModifyTicketRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/booking.OperationResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/booking.OperationResult"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/booking.OperationResult"}}
                }
            }
        },
        "/trains": {
            "get": {
                "summary": "List trains",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Train"}}}
                }
            }
        },
        "/trains/{id}": {
            "get": {
                "summary": "Get train",
                "parameters": [
                    {"type": "integer", "description": "Train ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Train"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/trains/{id}/availability": {
            "get": {
                "summary": "Free seats on a train",
                "parameters": [
                    {"type": "integer", "description": "Train ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.TrainAvailability"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "booking.OperationResult": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "price": {"type": "number"},
                "success": {"type": "boolean"}
            }
        },
        "booking.PurchaseResult": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "price": {"type": "number"},
                "quote": {"$ref": "#/definitions/pricing.Quote"},
                "success": {"type": "boolean"},
                "ticket": {"$ref": "#/definitions/domain.Ticket"},
                "ticket_id": {"type": "string"}
            }
        },
        "booking.QuoteResult": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "quote": {"$ref": "#/definitions/pricing.Quote"},
                "success": {"type": "boolean"}
            }
        },
        "domain.Promotion": {
            "type": "object",
            "properties": {
                "description": {"type": "string"},
                "discount_percent": {"type": "number"},
                "id": {"type": "string"},
                "name": {"type": "string"},
                "only_for_loyalty_members": {"type": "boolean"},
                "route_names": {"type": "array", "items": {"type": "string"}},
                "service_classes": {"type": "array", "items": {"type": "string"}},
                "train_type": {"type": "string"},
                "user_types": {"type": "array", "items": {"type": "string"}},
                "valid_from": {"type": "string"},
                "valid_to": {"type": "string"}
            }
        },
        "domain.Ticket": {
            "type": "object",
            "properties": {
                "arrival_station": {"type": "string"},
                "created_at": {"type": "string"},
                "departure_station": {"type": "string"},
                "id": {"type": "string"},
                "passenger_name": {"type": "string"},
                "price": {"type": "number"},
                "promo_code": {"type": "string"},
                "seat_count": {"type": "integer"},
                "service_class": {"type": "string"},
                "tier": {"type": "string"},
                "train_id": {"type": "integer"},
                "travel_date": {"type": "string"},
                "updated_at": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "domain.Train": {
            "type": "object",
            "properties": {
                "arrival_station": {"type": "string"},
                "arrives_at": {"type": "string"},
                "departs_at": {"type": "string"},
                "departure_station": {"type": "string"},
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "type": {"type": "string"}
            }
        },
        "domain.TrainAvailability": {
            "type": "object",
            "properties": {
                "available": {"type": "integer"},
                "capacity": {"type": "integer"},
                "train_id": {"type": "integer"}
            }
        },
        "httpgin.ApplicablePromotionsRequest": {
            "type": "object",
            "properties": {
                "arrival_station": {"type": "string"},
                "departure_station": {"type": "string"},
                "service_class": {"type": "string"},
                "tier": {"type": "string", "example": "standard"},
                "train_id": {"type": "integer"},
                "train_type": {"type": "string"},
                "travel_date": {"type": "string", "example": "2025-06-02"},
                "username": {"type": "string"}
            }
        },
        "httpgin.ClearTicketsResponse": {
            "type": "object",
            "properties": {
                "removed": {"type": "integer"}
            }
        },
        "httpgin.CreatePromotionRequest": {
            "type": "object",
            "required": ["id", "name"],
            "properties": {
                "description": {"type": "string"},
                "discount_percent": {"type": "number"},
                "id": {"type": "string"},
                "name": {"type": "string"},
                "only_for_loyalty_members": {"type": "boolean"},
                "route_names": {"type": "array", "items": {"type": "string"}},
                "service_classes": {"type": "array", "items": {"type": "string"}},
                "train_type": {"type": "string"},
                "user_types": {"type": "array", "items": {"type": "string"}},
                "valid_from": {"type": "string", "example": "2025-06-01"},
                "valid_to": {"type": "string", "example": "2025-08-31"}
            }
        },
        "httpgin.CreateTrainRequest": {
            "type": "object",
            "required": ["arrival_station", "departure_station", "id", "name"],
            "properties": {
                "arrival_station": {"type": "string"},
                "arrives_at": {"type": "string", "example": "2025-06-02T11:10:00Z"},
                "departs_at": {"type": "string", "example": "2025-06-02T08:00:00Z"},
                "departure_station": {"type": "string"},
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "type": {"type": "string"}
            }
        },
        "httpgin.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
            }
        },
        "httpgin.ModifyTicketRequest": {
            "type": "object",
            "properties": {
                "arrival_station": {"type": "string"},
                "departure_station": {"type": "string"},
                "service_class": {"type": "string"},
                "travel_date": {"type": "string", "example": "2025-06-03"}
            }
        },
        "httpgin.PurchaseTicketRequest": {
            "type": "object",
            "required": ["train_id"],
            "properties": {
                "arrival_station": {"type": "string"},
                "departure_station": {"type": "string"},
                "passenger_name": {"type": "string"},
                "promo_code": {"type": "string"},
                "seats": {"type": "integer"},
                "service_class": {"type": "string", "example": "Seconda Classe"},
                "tier": {"type": "string", "example": "standard"},
                "train_id": {"type": "integer"},
                "travel_date": {"type": "string", "example": "2025-06-02"},
                "username": {"type": "string"}
            }
        },
        "httpgin.QuoteRequest": {
            "type": "object",
            "properties": {
                "arrival_station": {"type": "string"},
                "departure_station": {"type": "string"},
                "promo_code": {"type": "string"},
                "service_class": {"type": "string"},
                "tier": {"type": "string", "example": "standard"},
                "train_id": {"type": "integer"},
                "train_type": {"type": "string", "example": "Frecciarossa"},
                "travel_date": {"type": "string", "example": "2025-06-02"},
                "username": {"type": "string"}
            }
        },
        "pricing.Adjustment": {
            "type": "object",
            "properties": {
                "label": {"type": "string"},
                "percent": {"type": "number"}
            }
        },
        "pricing.AppliedPromotion": {
            "type": "object",
            "properties": {
                "discount_percent": {"type": "number"},
                "id": {"type": "string"},
                "name": {"type": "string"}
            }
        },
        "pricing.Quote": {
            "type": "object",
            "properties": {
                "adjustments": {"type": "array", "items": {"$ref": "#/definitions/pricing.Adjustment"}},
                "base_fare": {"type": "number"},
                "code_rejected": {"type": "boolean"},
                "price": {"type": "number"},
                "promo_code": {"type": "string"},
                "promotion": {"$ref": "#/definitions/pricing.AppliedPromotion"},
                "tier": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Railtix API",
	Description:      "Train ticket booking: fares, promotions, purchases and seat availability.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

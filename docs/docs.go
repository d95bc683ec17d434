// Package docs registers the swagger document served at /swagger.
// Regenerate with: swag init -g cmd/server/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/chat": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Chats the caller belongs to, most recently active first",
                "produces": ["application/json"],
                "tags": ["Chat"],
                "summary": "List chats",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Chat"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        },
        "/api/chat/createPersonalChat": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Returns the direct chat with userId, creating it on first use",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Chat"],
                "summary": "Open a direct chat",
                "parameters": [{"description": "Other participant", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.personalChatRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Chat"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        },
        "/api/chat/createGroupChat": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "users is an array of ids or a JSON-encoded string of one; at least two besides the caller",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Chat"],
                "summary": "Create a group chat",
                "parameters": [{"description": "Group", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.groupChatRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Chat"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        },
        "/api/chat/renameGroup": {
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Chat"],
                "summary": "Rename a group chat",
                "parameters": [{"description": "New name", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.renameGroupRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Chat"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        },
        "/api/chat/addGroupParticipant": {
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Chat"],
                "summary": "Add a participant",
                "parameters": [{"description": "Chat and user", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.participantRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Chat"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        },
        "/api/chat/removeGroupParticipant": {
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Chat"],
                "summary": "Remove a participant",
                "parameters": [{"description": "Chat and user", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.participantRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Chat"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        },
        "/api/chat/{chatId}/transcript": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/pdf"],
                "tags": ["Chat"],
                "summary": "Export a chat transcript",
                "parameters": [{"type": "string", "description": "Chat ID", "name": "chatId", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        },
        "/api/message": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Stores the message and returns the envelope clients relay with \"new message\"",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Message"],
                "summary": "Post a message",
                "parameters": [{"description": "Message", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.postMessageRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Message"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        },
        "/api/message/{chatId}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Full history of a chat, oldest first",
                "produces": ["application/json"],
                "tags": ["Message"],
                "summary": "List messages",
                "parameters": [{"type": "string", "description": "Chat ID", "name": "chatId", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Message"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "errorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "handlers.personalChatRequest": {
            "type": "object",
            "properties": {"userId": {"type": "string"}}
        },
        "handlers.groupChatRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "users": {"type": "array", "items": {"type": "string"}}
            }
        },
        "handlers.renameGroupRequest": {
            "type": "object",
            "properties": {"chatId": {"type": "string"}, "chatName": {"type": "string"}}
        },
        "handlers.participantRequest": {
            "type": "object",
            "properties": {"chatId": {"type": "string"}, "userId": {"type": "string"}}
        },
        "handlers.postMessageRequest": {
            "type": "object",
            "properties": {"chatId": {"type": "string"}, "content": {"type": "string"}}
        },
        "models.User": {
            "type": "object",
            "properties": {
                "_id": {"type": "string"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "pic": {"type": "string"},
                "createdAt": {"type": "string"}
            }
        },
        "models.Chat": {
            "type": "object",
            "properties": {
                "_id": {"type": "string"},
                "chatName": {"type": "string"},
                "isGroupChat": {"type": "boolean"},
                "users": {"type": "array", "items": {"$ref": "#/definitions/models.User"}},
                "groupAdmin": {"$ref": "#/definitions/models.User"},
                "latestMessage": {"$ref": "#/definitions/models.Message"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "models.Message": {
            "type": "object",
            "properties": {
                "_id": {"type": "string"},
                "sender": {"$ref": "#/definitions/models.User"},
                "chat": {"$ref": "#/definitions/models.Chat"},
                "content": {"type": "string"},
                "createdAt": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "parley API",
	Description:      "Chat sessions, messages and the realtime relay.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

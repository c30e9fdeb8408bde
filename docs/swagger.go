// Package docs holds the Swagger definition for the fare feed API.
package docs

import "github.com/swaggo/swag"

// @title Rail Fare Feed API
// @version 1.0
// @description Publishes the cheapest upcoming rail fares for a journey as a JSON feed document

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

func init() {
	swag.Register(swag.Name, &swag.Spec{
		InfoInstanceName: "swagger",
		SwaggerTemplate:  docTemplate,
	})
}

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Rail Fare Feed API",
        "description": "Publishes the cheapest upcoming rail fares for a journey as a JSON feed document",
        "version": "1.0.0",
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        }
    },
    "host": "localhost:8080",
    "basePath": "/",
    "paths": {
        "/journey": {
            "get": {
                "tags": ["Feed"],
                "summary": "Get the fare feed for a journey",
                "description": "Probes the upstream search API for each requested departure date and returns a JSON feed document with one item listing the cheapest fares",
                "produces": ["application/feed+json"],
                "parameters": [
                    {"name": "from", "in": "query", "type": "string", "default": "BHM", "description": "Origin station code (3 letters)"},
                    {"name": "to", "in": "query", "type": "string", "default": "EUS", "description": "Destination station code (3 letters)"},
                    {"name": "at", "in": "query", "type": "string", "description": "Departure time HHMM (default: now)"},
                    {"name": "on", "in": "query", "type": "string", "description": "Departure date YYYYMMDD (default: today)"},
                    {"name": "schedule", "in": "query", "type": "string", "description": "5-field cron expression selecting the recurring variant"},
                    {"name": "count", "in": "query", "type": "string", "description": "Occurrences of the recurring schedule to probe (1-5)"},
                    {"name": "skip", "in": "query", "type": "string", "description": "Weeks to skip before the first recurring occurrence"},
                    {"name": "weeks", "in": "query", "type": "string", "default": "0", "description": "Week-ahead horizon for the explicit-date variant"},
                    {"name": "seats", "in": "query", "type": "string", "description": "Include remaining seat counts (true/yes/y)"}
                ],
                "responses": {
                    "200": {"description": "Feed document"},
                    "400": {"description": "Validation errors"},
                    "503": {"description": "Bot detection, retry later"}
                }
            }
        },
        "/health": {
            "get": {
                "tags": ["Health"],
                "summary": "Health check",
                "produces": ["application/json"],
                "responses": {"200": {"description": "Service healthy"}}
            }
        },
        "/api/v1/journeys": {
            "get": {
                "tags": ["History"],
                "summary": "List journeys with stored fare history",
                "produces": ["application/json"],
                "responses": {"200": {"description": "Journey list"}}
            }
        },
        "/api/v1/history/{journey}": {
            "get": {
                "tags": ["History"],
                "summary": "Recent fare records for a journey",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "journey", "in": "path", "type": "string", "required": true, "description": "Journey label, e.g. BHM>EUS"},
                    {"name": "limit", "in": "query", "type": "integer", "description": "Maximum records to return (default 100)"}
                ],
                "responses": {
                    "200": {"description": "Fare records"},
                    "404": {"description": "No history for journey"}
                }
            }
        }
    },
    "tags": [
        {"name": "Feed", "description": "Fare feed endpoints"},
        {"name": "Health", "description": "Health check endpoints"},
        {"name": "History", "description": "Stored fare history endpoints"}
    ]
}`

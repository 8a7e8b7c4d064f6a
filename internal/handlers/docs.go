package handlers

import (
	"net/http"

	"github.com/goccy/go-json"
)

func dateParam(name, description string) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"in":          "query",
		"description": description,
		"required":    false,
		"schema":      map[string]string{"type": "string", "format": "date"},
	}
}

func jsonResponse(description, schemaRef string) map[string]interface{} {
	return map[string]interface{}{
		"description": description,
		"content": map[string]interface{}{
			"application/json": map[string]interface{}{
				"schema": map[string]string{"$ref": "#/components/schemas/" + schemaRef},
			},
		},
	}
}

func object(properties map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{"type": "object", "properties": properties}
}

func arrayOf(ref string) map[string]interface{} {
	return map[string]interface{}{
		"type":  "array",
		"items": map[string]string{"$ref": "#/components/schemas/" + ref},
	}
}

var (
	schemaString  = map[string]string{"type": "string"}
	schemaInteger = map[string]string{"type": "integer"}
	schemaNumber  = map[string]string{"type": "number"}
	schemaBoolean = map[string]string{"type": "boolean"}
	schemaDate    = map[string]string{"type": "string", "format": "date-time"}
)

// openAPIDocument describes every route registered by DashboardHandler
func openAPIDocument() map[string]interface{} {
	return map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Bike Rental Analytics API",
			"description": "Date-range filtered rental aggregates by commute time block, wind category and hour of day",
			"version":     "1.0.0",
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/dashboard": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Compute the dashboard for a date range",
					"description": "Bounds are clamped to the dataset span. Missing bounds default to the first and last day of the dataset.",
					"parameters": []map[string]interface{}{
						dateParam("start_date", "First day, inclusive (YYYY-MM-DD)"),
						dateParam("end_date", "Last day, inclusive (YYYY-MM-DD)"),
					},
					"responses": map[string]interface{}{
						"200": jsonResponse("Dashboard summary", "Summary"),
						"400": jsonResponse("Malformed date or start_date after end_date", "Error"),
					},
				},
			},
			"/api/dataset": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Describe the loaded dataset",
					"responses": map[string]interface{}{
						"200": jsonResponse("Dataset span and size", "DatasetInfo"),
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Health check",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Service is healthy"},
						"503": map[string]interface{}{"description": "Backing database is unreachable"},
					},
				},
			},
			"/metrics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Prometheus metrics",
					"description": "Prometheus metrics endpoint for monitoring",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Prometheus metrics in text format",
							"content": map[string]interface{}{
								"text/plain": map[string]interface{}{"schema": schemaString},
							},
						},
					},
				},
			},
		},
		"components": map[string]interface{}{
			"schemas": map[string]interface{}{
				"DateRange": object(map[string]interface{}{
					"start": schemaDate,
					"end":   schemaDate,
				}),
				"TimeBlockMean": object(map[string]interface{}{
					"time_block":     map[string]interface{}{"type": "string", "enum": []string{"Morning-Commute", "Midday-Leisure", "Evening-Commute", "Night"}},
					"is_working_day": schemaBoolean,
					"mean_total":     schemaNumber,
					"records":        schemaInteger,
				}),
				"WindCategoryMean": object(map[string]interface{}{
					"wind_category": map[string]interface{}{"type": "string", "enum": []string{"Low", "Moderate", "High", "Extreme"}},
					"mean_total":    schemaNumber,
					"records":       schemaInteger,
				}),
				"HourlyPoint": object(map[string]interface{}{
					"hour":           schemaInteger,
					"is_working_day": schemaBoolean,
					"mean_total":     schemaNumber,
					"records":        schemaInteger,
				}),
				"CompositionSlice": object(map[string]interface{}{
					"label":   schemaString,
					"count":   schemaInteger,
					"percent": schemaNumber,
				}),
				"Headline": object(map[string]interface{}{
					"label": schemaString,
					"value": schemaString,
					"delta": schemaString,
				}),
				"Aggregate": object(map[string]interface{}{
					"record_count":     schemaInteger,
					"total_rentals":    schemaInteger,
					"total_registered": schemaInteger,
					"total_casual":     schemaInteger,
					"registered_ratio": schemaNumber,
					"mean_temperature": map[string]interface{}{"type": "number", "nullable": true},
					"time_blocks":      arrayOf("TimeBlockMean"),
					"wind_categories":  arrayOf("WindCategoryMean"),
				}),
				"Summary": object(map[string]interface{}{
					"requested_range": map[string]string{"$ref": "#/components/schemas/DateRange"},
					"applied_range":   map[string]string{"$ref": "#/components/schemas/DateRange"},
					"record_count":    schemaInteger,
					"aggregate":       map[string]string{"$ref": "#/components/schemas/Aggregate"},
					"charts": object(map[string]interface{}{
						"time_blocks":     arrayOf("TimeBlockMean"),
						"wind_categories": arrayOf("WindCategoryMean"),
						"hourly":          arrayOf("HourlyPoint"),
						"composition":     arrayOf("CompositionSlice"),
					}),
					"headlines":   arrayOf("Headline"),
					"computed_at": schemaDate,
				}),
				"DatasetInfo": object(map[string]interface{}{
					"span":          map[string]string{"$ref": "#/components/schemas/DateRange"},
					"default_range": map[string]string{"$ref": "#/components/schemas/DateRange"},
					"records":       schemaInteger,
					"days":          schemaInteger,
				}),
				"Error": object(map[string]interface{}{
					"error":   schemaString,
					"message": schemaString,
					"code":    schemaInteger,
				}),
			},
		},
	}
}

// OpenAPISpec serves the OpenAPI 3.0 document for the analytics API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(openAPIDocument())
}

package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// Catalog is the read-only business-data surface the agent may call
// during generation. Every method returns plain text or a fixed
// "not found" sentence; none of them may mutate anything or fail on
// empty results.
type Catalog interface {
	PackagesInfo(ctx context.Context) string
	PackageByName(ctx context.Context, name string) string
	PackagesWithinBudget(ctx context.Context, maxPrice float64) string
	ThemesInfo(ctx context.Context) string
	ThemeByName(ctx context.Context, name string) string
	EnhancementsInfo(ctx context.Context) string
	GalleryItems(ctx context.Context, limit int) string
	Testimonials(ctx context.Context, limit int) string
	BookingInfo(ctx context.Context) string
	SearchFAQ(ctx context.Context, query string) string
}

func jsonSchema(properties map[string]any, required []string) json.RawMessage {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	raw, _ := json.Marshal(schema)
	return raw
}

// toolDefinitions declares the functions exposed to the model. The
// descriptions double as routing hints for the model's tool choice.
func toolDefinitions() []openai.Tool {
	specs := []struct {
		name        string
		description string
		parameters  json.RawMessage
	}{
		{
			name:        "get_packages_info",
			description: "Get information about all available event decoration packages, with names, descriptions and pricing. Use this for general package inquiries.",
			parameters:  jsonSchema(map[string]any{}, nil),
		},
		{
			name:        "get_package_by_name",
			description: "Get detailed information about a specific package by name, including what is included. Use when the customer asks about a specific package such as starter, deluxe or signature.",
			parameters: jsonSchema(map[string]any{
				"package_name": map[string]any{"type": "string", "description": "Name of the package to search for"},
			}, []string{"package_name"}),
		},
		{
			name:        "get_packages_by_price",
			description: "Get packages within a budget and suggest the best value. Use when the customer mentions a budget or asks about affordable options.",
			parameters: jsonSchema(map[string]any{
				"max_price": map[string]any{"type": "number", "description": "Maximum price the customer wants to spend"},
			}, []string{"max_price"}),
		},
		{
			name:        "get_themes_info",
			description: "Get information about all available decoration themes. Use this for general theme inquiries.",
			parameters:  jsonSchema(map[string]any{}, nil),
		},
		{
			name:        "get_theme_by_name",
			description: "Get detailed information about a specific theme by name, such as romantic, vintage or modern.",
			parameters: jsonSchema(map[string]any{
				"theme_name": map[string]any{"type": "string", "description": "Name of the theme to search for"},
			}, []string{"theme_name"}),
		},
		{
			name:        "get_enhancements",
			description: "Get available package enhancements and add-ons with starting prices. Use when the customer wants to make a package more special.",
			parameters:  jsonSchema(map[string]any{}, nil),
		},
		{
			name:        "get_gallery_items",
			description: "Get recent gallery items showcasing past event decorations.",
			parameters: jsonSchema(map[string]any{
				"limit": map[string]any{"type": "integer", "description": "Number of gallery items to return (default 5)"},
			}, nil),
		},
		{
			name:        "get_testimonials",
			description: "Get customer testimonials and reviews. Use when the customer asks about past experiences.",
			parameters: jsonSchema(map[string]any{
				"limit": map[string]any{"type": "integer", "description": "Number of testimonials to return (default 3)"},
			}, nil),
		},
		{
			name:        "get_booking_info",
			description: "Get information about how to book an event or consultation, including the recommended timeline.",
			parameters:  jsonSchema(map[string]any{}, nil),
		},
		{
			name:        "search_faq",
			description: "Search frequently asked questions about services, policies and payment.",
			parameters: jsonSchema(map[string]any{
				"query": map[string]any{"type": "string", "description": "Question or topic to search for"},
			}, []string{"query"}),
		},
	}

	tools := make([]openai.Tool, 0, len(specs))
	for _, s := range specs {
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        s.name,
				Description: s.description,
				Parameters:  s.parameters,
			},
		})
	}
	return tools
}

// callTool dispatches one model tool call to the catalog. Unknown
// tools and malformed arguments produce a plain-text notice rather
// than an error so a single bad call never aborts the turn.
func callTool(ctx context.Context, catalog Catalog, name string, arguments string) string {
	var args struct {
		PackageName string  `json:"package_name"`
		ThemeName   string  `json:"theme_name"`
		MaxPrice    float64 `json:"max_price"`
		Query       string  `json:"query"`
		Limit       int     `json:"limit"`
	}
	if arguments != "" {
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return fmt.Sprintf("Could not parse arguments for %s.", name)
		}
	}

	switch name {
	case "get_packages_info":
		return catalog.PackagesInfo(ctx)
	case "get_package_by_name":
		return catalog.PackageByName(ctx, args.PackageName)
	case "get_packages_by_price":
		return catalog.PackagesWithinBudget(ctx, args.MaxPrice)
	case "get_themes_info":
		return catalog.ThemesInfo(ctx)
	case "get_theme_by_name":
		return catalog.ThemeByName(ctx, args.ThemeName)
	case "get_enhancements":
		return catalog.EnhancementsInfo(ctx)
	case "get_gallery_items":
		limit := args.Limit
		if limit <= 0 {
			limit = 5
		}
		return catalog.GalleryItems(ctx, limit)
	case "get_testimonials":
		limit := args.Limit
		if limit <= 0 {
			limit = 3
		}
		return catalog.Testimonials(ctx, limit)
	case "get_booking_info":
		return catalog.BookingInfo(ctx)
	case "search_faq":
		return catalog.SearchFAQ(ctx, args.Query)
	default:
		return fmt.Sprintf("Tool %s is not available.", name)
	}
}

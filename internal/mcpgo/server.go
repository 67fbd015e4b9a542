package mcpgo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/noot-app/fct-api/internal/query"
	"github.com/noot-app/fct-api/internal/response"
	"github.com/noot-app/fct-api/internal/types"
)

// Endpoint is the path the streamable HTTP transport is mounted on
const Endpoint = "/mcp"

// responseRecorder wraps http.ResponseWriter to capture response details
type responseRecorder struct {
	http.ResponseWriter
	statusCode    int
	bytesWritten  int
	headerWritten bool
}

func (r *responseRecorder) WriteHeader(code int) {
	if r.headerWritten {
		return // Prevent duplicate WriteHeader calls
	}
	r.statusCode = code
	r.headerWritten = true
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(data []byte) (int, error) {
	if !r.headerWritten {
		r.WriteHeader(http.StatusOK)
	}
	n, err := r.ResponseWriter.Write(data)
	r.bytesWritten += n
	return n, err
}

// Flush lets streamed responses through the recorder
func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Server wraps the mark3labs MCP server around a query engine
type Server struct {
	mcpServer   *server.MCPServer
	queryEngine query.QueryEngine
	log         *slog.Logger
}

// SearchFoodsResponse represents the response from search_foods
type SearchFoodsResponse struct {
	Foods []types.FoodSummary `json:"foods"`
	Meta  response.ListMeta   `json:"meta"`
}

// GetFoodResponse represents the response from get_food
type GetFoodResponse struct {
	Found bool        `json:"found"`
	Food  *types.Food `json:"food,omitempty"`
}

// ListNutrientsResponse represents the response from list_nutrients
type ListNutrientsResponse struct {
	Count     int                  `json:"count"`
	Nutrients []types.NutrientMeta `json:"nutrients"`
}

// ListCategoriesResponse represents the response from list_categories
type ListCategoriesResponse struct {
	Count      int                  `json:"count"`
	Categories []types.CategoryMeta `json:"categories"`
}

// NewServer creates a new MCP server with the mark3labs SDK
func NewServer(queryEngine query.QueryEngine, serverVersion string, logger *slog.Logger) *Server {
	mcpServer := server.NewMCPServer(
		"PhilFCT Food Composition API",
		serverVersion,
		server.WithToolCapabilities(false), // Tools don't change dynamically
		server.WithRecovery(),              // Recover from panics
		server.WithLogging(),               // Enable logging
	)

	s := &Server{
		mcpServer:   mcpServer,
		queryEngine: queryEngine,
		log:         logger,
	}

	s.addTools()

	return s
}

func (s *Server) addTools() {
	limits := s.queryEngine.Limits()

	searchTool := mcp.NewTool("search_foods",
		mcp.WithDescription("Search the Philippine Food Composition Tables. All filters are combined with AND. Results are paged; use meta.next_offset to fetch the next page."),
		mcp.WithString(query.ParamQ,
			mcp.Description("Words to match against the food name, e.g. 'rice cooked'. Case and accents are ignored and partial words match."),
		),
		mcp.WithString(query.ParamCategory,
			mcp.Description("Only foods measured in this nutrient category code (see list_categories)"),
		),
		mcp.WithString(query.ParamNutrient,
			mcp.Description("Only foods with a reported value for this nutrient code (see list_nutrients)"),
		),
		mcp.WithString(query.ParamFoodGroupCode,
			mcp.Description("Food group letter, e.g. 'A' for cereals"),
		),
		mcp.WithString(query.ParamFoodGroup,
			mcp.Description("Food group name, e.g. 'Fruits and Products'"),
		),
		mcp.WithString(query.ParamSort,
			mcp.Description("Sort field: id, name, food_group, food_group_code, or a nutrient code. Foods without a value sort last."),
		),
		mcp.WithString(query.ParamOrder,
			mcp.Description("Sort direction"),
			mcp.Enum(string(query.OrderAsc), string(query.OrderDesc)),
		),
		mcp.WithNumber(query.ParamLimit,
			mcp.Description(fmt.Sprintf("Maximum number of results (default: %d, max: %d)", limits.Default, limits.Max)),
			mcp.DefaultNumber(float64(limits.Default)),
			mcp.Min(1),
			mcp.Max(float64(limits.Max)),
		),
		mcp.WithNumber(query.ParamOffset,
			mcp.Description("Number of results to skip"),
			mcp.DefaultNumber(0),
			mcp.Min(0),
		),
		mcp.WithOutputSchema[SearchFoodsResponse](),
		mcp.WithIdempotentHintAnnotation(true),
	)
	s.mcpServer.AddTool(searchTool, s.handleSearchFoods)

	getTool := mcp.NewTool("get_food",
		mcp.WithDescription("Get the full nutrient and energy profile of one food by its id, e.g. 'A001'"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.MinLength(1),
			mcp.Description("Food id exactly as returned by search_foods"),
		),
		mcp.WithOutputSchema[GetFoodResponse](),
		mcp.WithIdempotentHintAnnotation(true),
	)
	s.mcpServer.AddTool(getTool, s.handleGetFood)

	nutrientsTool := mcp.NewTool("list_nutrients",
		mcp.WithDescription("List every nutrient code with its display name, unit and category"),
		mcp.WithOutputSchema[ListNutrientsResponse](),
		mcp.WithIdempotentHintAnnotation(true),
	)
	s.mcpServer.AddTool(nutrientsTool, s.handleListNutrients)

	categoriesTool := mcp.NewTool("list_categories",
		mcp.WithDescription("List the nutrient categories (report tabs) and their section labels"),
		mcp.WithOutputSchema[ListCategoriesResponse](),
		mcp.WithIdempotentHintAnnotation(true),
	)
	s.mcpServer.AddTool(categoriesTool, s.handleListCategories)
}

// searchValues turns tool arguments into query string values so MCP and
// HTTP requests go through the same parameter parsing
func searchValues(args map[string]any) url.Values {
	values := url.Values{}
	for key, raw := range args {
		switch v := raw.(type) {
		case string:
			values.Set(key, v)
		case float64:
			values.Set(key, strconv.FormatFloat(v, 'f', -1, 64))
		case int:
			values.Set(key, strconv.Itoa(v))
		case json.Number:
			values.Set(key, v.String())
		}
	}
	return values
}

func (s *Server) handleSearchFoods(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.log.Debug("handleSearchFoods: Starting tool call",
		"arguments", request.GetArguments())

	params, err := query.ParseParams(searchValues(request.GetArguments()), s.queryEngine.Limits())
	if err != nil {
		s.log.Warn("handleSearchFoods: Invalid parameters", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	foods, total, err := s.queryEngine.Search(ctx, params)
	if err != nil {
		return s.toolError("handleSearchFoods", "Search failed", err), nil
	}

	env := response.List(foods, total, params)
	result := SearchFoodsResponse{
		Foods: env.Data.([]types.FoodSummary),
		Meta:  env.Meta.(response.ListMeta),
	}

	return s.structured("handleSearchFoods", result)
}

func (s *Server) handleGetFood(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.log.Debug("handleGetFood: Starting tool call",
		"arguments", request.GetArguments())

	id, err := request.RequireString("id")
	if err != nil || id == "" {
		s.log.Warn("handleGetFood: Missing 'id' parameter", "error", err)
		return mcp.NewToolResultError("Missing required parameter 'id'"), nil
	}

	food, err := s.queryEngine.GetByID(ctx, id)
	switch {
	case query.IsNotFound(err):
		return s.structured("handleGetFood", GetFoodResponse{Found: false})
	case err != nil:
		return s.toolError("handleGetFood", "Lookup failed", err), nil
	}

	return s.structured("handleGetFood", GetFoodResponse{Found: true, Food: food})
}

func (s *Server) handleListNutrients(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nutrients, err := s.queryEngine.ListNutrients(ctx)
	if err != nil {
		return s.toolError("handleListNutrients", "Listing nutrients failed", err), nil
	}
	if nutrients == nil {
		nutrients = []types.NutrientMeta{}
	}

	return s.structured("handleListNutrients", ListNutrientsResponse{Count: len(nutrients), Nutrients: nutrients})
}

func (s *Server) handleListCategories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	categories, err := s.queryEngine.ListCategories(ctx)
	if err != nil {
		return s.toolError("handleListCategories", "Listing categories failed", err), nil
	}
	if categories == nil {
		categories = []types.CategoryMeta{}
	}

	return s.structured("handleListCategories", ListCategoriesResponse{Count: len(categories), Categories: categories})
}

// structured returns both structured content and a JSON text fallback for
// clients without structured output support
func (s *Server) structured(handler string, result any) (*mcp.CallToolResult, error) {
	resultJSON, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		s.log.Error(handler+": Failed to marshal response", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Failed to marshal response: %v", err)), nil
	}

	s.log.Debug(handler+": Returning structured result", "response_size", len(resultJSON))
	return mcp.NewToolResultStructured(result, string(resultJSON)), nil
}

func (s *Server) toolError(handler, message string, err error) *mcp.CallToolResult {
	if errors.Is(err, query.ErrNotReady) {
		s.log.Warn(handler+": Dataset not loaded yet")
		return mcp.NewToolResultError("The food composition data is still loading, try again shortly")
	}
	s.log.Error(handler+": "+message, "error", err)
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", message, err))
}

// Handler returns the streamable HTTP transport. Authentication is left to
// the caller's middleware.
func (s *Server) Handler() http.Handler {
	streamableServer := server.NewStreamableHTTPServer(
		s.mcpServer,
		server.WithEndpointPath(Endpoint),
		server.WithStateLess(true), // Stateless for better OpenAI compatibility
	)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.Debug("MCP request received",
			"method", r.Method,
			"url", r.URL.String(),
			"content_type", r.Header.Get("Content-Type"),
			"content_length", r.ContentLength,
			"remote_addr", r.RemoteAddr)

		recorder := &responseRecorder{ResponseWriter: w}
		streamableServer.ServeHTTP(recorder, r)

		s.log.Debug("MCP response sent",
			"status_code", recorder.statusCode,
			"response_size", recorder.bytesWritten,
			"content_type", recorder.Header().Get("Content-Type"))
	})
}

// ServeStdio serves the MCP server over stdio (no auth required for local use)
func (s *Server) ServeStdio() error {
	s.log.Info("Starting MCP server in stdio mode")
	return server.ServeStdio(s.mcpServer)
}

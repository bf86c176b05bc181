package mcp

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/kcdb-client/internal/config"
	"github.com/kcdb-client/pkg/kcdb"
)

// Server exposes KCDB lookups and searches as MCP tools.
type Server struct {
	client    *kcdb.Client
	mcpServer *mcp.Server
	tools     []*mcp.Tool
	logger    *logrus.Logger
}

// Option is a functional option for Server.
type Option func(*Server)

// WithLogger sets a custom logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP server instance backed by client.
func NewServer(client *kcdb.Client, cfg config.MCPConfig, opts ...Option) *Server {
	server := &Server{
		client: client,
		logger: logrus.New(),
	}
	for _, opt := range opts {
		opt(server)
	}

	serverInfo := &mcp.Implementation{
		Name:    cfg.ServerName,
		Version: cfg.ServerVersion,
	}
	server.mcpServer = mcp.NewServer(serverInfo, nil)
	server.registerTools()

	server.logger.WithField("tool_count", len(server.tools)).Info("Successfully registered all tools")
	return server
}

// Start serves MCP over stdin and stdout until ctx is done or the client disconnects.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting KCDB MCP Server...")
	return s.Run(ctx, &mcp.StdioTransport{})
}

// Run serves MCP over transport.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	if err := s.mcpServer.Run(ctx, transport); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

// Tools returns the definitions of the registered tools.
func (s *Server) Tools() []*mcp.Tool {
	return s.tools
}

func addTool[In any](s *Server, tool *mcp.Tool, handler mcp.ToolHandlerFor[In, any]) {
	mcp.AddTool(s.mcpServer, tool, handler)
	s.tools = append(s.tools, tool)
	s.logger.WithField("tool_name", tool.Name).Debug("Registered MCP tool")
}

func (s *Server) registerTools() {
	addTool(s, &mcp.Tool{
		Name:        "kcdb_domains",
		Description: "List the KCDB domains (code and name).",
		InputSchema: objectSchema(nil),
	}, s.handleDomains)

	addTool(s, &mcp.Tool{
		Name:        "kcdb_countries",
		Description: "List the countries publishing calibration and measurement capabilities, optionally filtered by a regular expression.",
		InputSchema: objectSchema(map[string]*jsonschema.Schema{
			"filter": stringProperty("Regular expression matched against the country name or ISO code"),
		}),
	}, s.handleCountries)

	addTool(s, &mcp.Tool{
		Name:        "kcdb_metrology_areas",
		Description: "List the metrology areas of a KCDB domain.",
		InputSchema: objectSchema(map[string]*jsonschema.Schema{
			"domain": domainProperty(),
		}, "domain"),
	}, s.handleMetrologyAreas)

	addTool(s, &mcp.Tool{
		Name:        "kcdb_branches",
		Description: "List the branches of a metrology area, identified by its label (e.g. EM, TF, RI).",
		InputSchema: objectSchema(map[string]*jsonschema.Schema{
			"domain":     domainProperty(),
			"area_label": stringProperty("Metrology area label"),
		}, "domain", "area_label"),
	}, s.handleBranches)

	addTool(s, &mcp.Tool{
		Name:        "kcdb_search_physics",
		Description: "Search General Physics calibration and measurement capabilities.",
		InputSchema: objectSchema(withPaging(map[string]*jsonschema.Schema{
			"metrology_area":   stringProperty("Metrology area label, e.g. EM"),
			"branch":           stringProperty("Branch label, e.g. EM/RF"),
			"physics_code":     stringProperty("Dotted physics code, e.g. 11.3.3"),
			"keywords":         stringProperty("Free-text keywords, may use OR"),
			"countries":        stringArrayProperty("ISO country codes"),
			"public_date_from": stringProperty("Earliest publication date, YYYY-MM-DD"),
			"public_date_to":   stringProperty("Latest publication date, YYYY-MM-DD"),
		}), "metrology_area"),
	}, s.handleSearchPhysics)

	addTool(s, &mcp.Tool{
		Name:        "kcdb_search_chemistry_biology",
		Description: "Search Chemistry and Biology calibration and measurement capabilities.",
		InputSchema: objectSchema(withPaging(map[string]*jsonschema.Schema{
			"analyte":          stringProperty("Analyte label, e.g. nitrogen"),
			"category":         stringProperty("Category label"),
			"keywords":         stringProperty("Free-text keywords, may use OR"),
			"countries":        stringArrayProperty("ISO country codes"),
			"public_date_from": stringProperty("Earliest publication date, YYYY-MM-DD"),
			"public_date_to":   stringProperty("Latest publication date, YYYY-MM-DD"),
		})),
	}, s.handleSearchChemistryBiology)

	addTool(s, &mcp.Tool{
		Name:        "kcdb_search_radiation",
		Description: "Search Ionizing Radiation calibration and measurement capabilities.",
		InputSchema: objectSchema(withPaging(map[string]*jsonschema.Schema{
			"branch":           stringProperty("Branch label: RAD, DOS or NEU"),
			"medium":           stringProperty("Medium label"),
			"source":           stringProperty("Source label"),
			"quantity":         stringProperty("Quantity label"),
			"nuclide":          stringProperty("Nuclide label, e.g. Co-60"),
			"keywords":         stringProperty("Free-text keywords, may use OR"),
			"countries":        stringArrayProperty("ISO country codes"),
			"public_date_from": stringProperty("Earliest publication date, YYYY-MM-DD"),
			"public_date_to":   stringProperty("Latest publication date, YYYY-MM-DD"),
		})),
	}, s.handleSearchRadiation)

	addTool(s, &mcp.Tool{
		Name:        "kcdb_quick_search",
		Description: "Run a KCDB quick search across all domains, with aggregations and filters.",
		InputSchema: objectSchema(withPaging(map[string]*jsonschema.Schema{
			"keywords":         stringProperty("Free-text keywords, may use OR"),
			"included_filters": stringArrayProperty("Filter codes to include, e.g. cmcDomain.CHEM-BIO"),
			"excluded_filters": stringArrayProperty("Filter codes to exclude"),
		})),
	}, s.handleQuickSearch)
}

func objectSchema(properties map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	if properties == nil {
		properties = map[string]*jsonschema.Schema{}
	}
	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

func stringProperty(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: description}
}

func stringArrayProperty(description string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "array",
		Description: description,
		Items:       &jsonschema.Schema{Type: "string"},
	}
}

func domainProperty() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Description: "Domain code",
		Enum: []any{
			kcdb.DomainGeneralPhysics.Code,
			kcdb.DomainChemistryBiology.Code,
			kcdb.DomainIonizingRadiation.Code,
		},
	}
}

func withPaging(properties map[string]*jsonschema.Schema) map[string]*jsonschema.Schema {
	properties["page"] = &jsonschema.Schema{Type: "integer", Description: "Zero-based page number"}
	properties["page_size"] = &jsonschema.Schema{
		Type:        "integer",
		Description: fmt.Sprintf("Results per page, 1 to %d (default %d)", kcdb.MaxPageSize, kcdb.DefaultPageSize),
	}
	properties["show_table"] = &jsonschema.Schema{Type: "boolean", Description: "Include uncertainty tables"}
	return properties
}

package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/kcdb-client/pkg/kcdb"
)

// DomainsParams defines parameters for the kcdb_domains tool
type DomainsParams struct{}

// CountriesParams defines parameters for the kcdb_countries tool
type CountriesParams struct {
	Filter string `json:"filter,omitempty"`
}

// MetrologyAreasParams defines parameters for the kcdb_metrology_areas tool
type MetrologyAreasParams struct {
	Domain string `json:"domain"`
}

// BranchesParams defines parameters for the kcdb_branches tool
type BranchesParams struct {
	Domain    string `json:"domain"`
	AreaLabel string `json:"area_label"`
}

// PagingParams are shared by the search tools. A zero page size selects the default.
type PagingParams struct {
	Page      int  `json:"page,omitempty"`
	PageSize  int  `json:"page_size,omitempty"`
	ShowTable bool `json:"show_table,omitempty"`
}

func (p PagingParams) paging() kcdb.Paging {
	paging := kcdb.DefaultPaging()
	paging.Page = p.Page
	if p.PageSize != 0 {
		paging.PageSize = p.PageSize
	}
	paging.ShowTable = p.ShowTable
	return paging
}

// SearchPhysicsParams defines parameters for the kcdb_search_physics tool
type SearchPhysicsParams struct {
	PagingParams
	MetrologyArea  string   `json:"metrology_area"`
	Branch         string   `json:"branch,omitempty"`
	PhysicsCode    string   `json:"physics_code,omitempty"`
	Keywords       string   `json:"keywords,omitempty"`
	Countries      []string `json:"countries,omitempty"`
	PublicDateFrom string   `json:"public_date_from,omitempty"`
	PublicDateTo   string   `json:"public_date_to,omitempty"`
}

// SearchChemistryBiologyParams defines parameters for the kcdb_search_chemistry_biology tool
type SearchChemistryBiologyParams struct {
	PagingParams
	Analyte        string   `json:"analyte,omitempty"`
	Category       string   `json:"category,omitempty"`
	Keywords       string   `json:"keywords,omitempty"`
	Countries      []string `json:"countries,omitempty"`
	PublicDateFrom string   `json:"public_date_from,omitempty"`
	PublicDateTo   string   `json:"public_date_to,omitempty"`
}

// SearchRadiationParams defines parameters for the kcdb_search_radiation tool
type SearchRadiationParams struct {
	PagingParams
	Branch         string   `json:"branch,omitempty"`
	Medium         string   `json:"medium,omitempty"`
	Source         string   `json:"source,omitempty"`
	Quantity       string   `json:"quantity,omitempty"`
	Nuclide        string   `json:"nuclide,omitempty"`
	Keywords       string   `json:"keywords,omitempty"`
	Countries      []string `json:"countries,omitempty"`
	PublicDateFrom string   `json:"public_date_from,omitempty"`
	PublicDateTo   string   `json:"public_date_to,omitempty"`
}

// QuickSearchParams defines parameters for the kcdb_quick_search tool
type QuickSearchParams struct {
	PagingParams
	Keywords        string   `json:"keywords,omitempty"`
	IncludedFilters []string `json:"included_filters,omitempty"`
	ExcludedFilters []string `json:"excluded_filters,omitempty"`
}

func (s *Server) handleDomains(ctx context.Context, _ *mcp.CallToolRequest, _ DomainsParams) (*mcp.CallToolResult, any, error) {
	const tool = "kcdb_domains"
	s.logger.WithField("tool", tool).Info("Tool invoked")

	domains, err := s.client.Domains(ctx)
	if err != nil {
		return s.errorResult(tool, err), nil, nil
	}
	return s.jsonResult(tool, domains), nil, nil
}

func (s *Server) handleCountries(ctx context.Context, _ *mcp.CallToolRequest, params CountriesParams) (*mcp.CallToolResult, any, error) {
	const tool = "kcdb_countries"
	s.logger.WithField("tool", tool).Info("Tool invoked")

	countries, err := s.client.Countries(ctx)
	if err != nil {
		return s.errorResult(tool, err), nil, nil
	}
	if params.Filter != "" {
		countries, err = kcdb.Filter(countries, params.Filter, kcdb.IgnoreCase)
		if err != nil {
			return s.errorResult(tool, err), nil, nil
		}
	}
	return s.jsonResult(tool, countries), nil, nil
}

func (s *Server) handleMetrologyAreas(ctx context.Context, _ *mcp.CallToolRequest, params MetrologyAreasParams) (*mcp.CallToolResult, any, error) {
	const tool = "kcdb_metrology_areas"
	s.logger.WithFields(logrus.Fields{"tool": tool, "domain": params.Domain}).Info("Tool invoked")

	nav, err := s.client.Navigator(params.Domain)
	if err != nil {
		return s.errorResult(tool, err), nil, nil
	}
	areas, err := nav.MetrologyAreas(ctx)
	if err != nil {
		return s.errorResult(tool, err), nil, nil
	}
	return s.jsonResult(tool, areas), nil, nil
}

func (s *Server) handleBranches(ctx context.Context, _ *mcp.CallToolRequest, params BranchesParams) (*mcp.CallToolResult, any, error) {
	const tool = "kcdb_branches"
	s.logger.WithFields(logrus.Fields{"tool": tool, "domain": params.Domain, "area": params.AreaLabel}).Info("Tool invoked")

	nav, err := s.client.Navigator(params.Domain)
	if err != nil {
		return s.errorResult(tool, err), nil, nil
	}
	areas, err := nav.MetrologyAreas(ctx)
	if err != nil {
		return s.errorResult(tool, err), nil, nil
	}
	area, err := kcdb.FindLabel(areas, params.AreaLabel)
	if err != nil {
		return s.errorResult(tool, err), nil, nil
	}
	branches, err := nav.Branches(ctx, area)
	if err != nil {
		return s.errorResult(tool, err), nil, nil
	}
	return s.jsonResult(tool, branches), nil, nil
}

func (s *Server) handleSearchPhysics(ctx context.Context, _ *mcp.CallToolRequest, params SearchPhysicsParams) (*mcp.CallToolResult, any, error) {
	const tool = "kcdb_search_physics"
	s.logger.WithField("tool", tool).Info("Tool invoked")

	q := kcdb.NewGeneralPhysicsQuery(kcdb.Label(params.MetrologyArea))
	q.Paging = params.paging()
	q.Branch = kcdb.Label(params.Branch)
	q.PhysicsCode = kcdb.PhysicsCode(params.PhysicsCode)
	q.Keywords = params.Keywords
	q.Countries = kcdb.Countries(params.Countries...)
	q.PublicDateFrom = params.PublicDateFrom
	q.PublicDateTo = params.PublicDateTo

	results, err := s.client.GeneralPhysics().Search(ctx, q)
	if err != nil {
		return s.errorResult(tool, err), nil, nil
	}
	return s.jsonResult(tool, results), nil, nil
}

func (s *Server) handleSearchChemistryBiology(ctx context.Context, _ *mcp.CallToolRequest, params SearchChemistryBiologyParams) (*mcp.CallToolResult, any, error) {
	const tool = "kcdb_search_chemistry_biology"
	s.logger.WithField("tool", tool).Info("Tool invoked")

	q := kcdb.NewChemistryBiologyQuery()
	q.Paging = params.paging()
	q.Analyte = kcdb.Label(params.Analyte)
	q.Category = kcdb.Label(params.Category)
	q.Keywords = params.Keywords
	q.Countries = kcdb.Countries(params.Countries...)
	q.PublicDateFrom = params.PublicDateFrom
	q.PublicDateTo = params.PublicDateTo

	results, err := s.client.ChemistryBiology().Search(ctx, q)
	if err != nil {
		return s.errorResult(tool, err), nil, nil
	}
	return s.jsonResult(tool, results), nil, nil
}

func (s *Server) handleSearchRadiation(ctx context.Context, _ *mcp.CallToolRequest, params SearchRadiationParams) (*mcp.CallToolResult, any, error) {
	const tool = "kcdb_search_radiation"
	s.logger.WithField("tool", tool).Info("Tool invoked")

	q := kcdb.NewIonizingRadiationQuery()
	q.Paging = params.paging()
	q.Branch = kcdb.Label(params.Branch)
	q.Medium = kcdb.Label(params.Medium)
	q.Source = kcdb.Label(params.Source)
	q.Quantity = kcdb.Label(params.Quantity)
	q.Nuclide = kcdb.Label(params.Nuclide)
	q.Keywords = params.Keywords
	q.Countries = kcdb.Countries(params.Countries...)
	q.PublicDateFrom = params.PublicDateFrom
	q.PublicDateTo = params.PublicDateTo

	results, err := s.client.IonizingRadiation().Search(ctx, q)
	if err != nil {
		return s.errorResult(tool, err), nil, nil
	}
	return s.jsonResult(tool, results), nil, nil
}

func (s *Server) handleQuickSearch(ctx context.Context, _ *mcp.CallToolRequest, params QuickSearchParams) (*mcp.CallToolResult, any, error) {
	const tool = "kcdb_quick_search"
	s.logger.WithField("tool", tool).Info("Tool invoked")

	q := kcdb.NewQuickSearchQuery()
	q.Paging = params.paging()
	q.Keywords = params.Keywords
	q.IncludedFilters = params.IncludedFilters
	q.ExcludedFilters = params.ExcludedFilters

	results, err := s.client.QuickSearch(ctx, q)
	if err != nil {
		return s.errorResult(tool, err), nil, nil
	}
	return s.jsonResult(tool, results), nil, nil
}

func (s *Server) jsonResult(tool string, v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return s.errorResult(tool, fmt.Errorf("failed to encode result: %w", err))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}
}

// errorResult creates a standardized error result for tool calls
func (s *Server) errorResult(tool string, err error) *mcp.CallToolResult {
	s.logger.WithError(err).WithField("tool", tool).Warn("Tool call failed")
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("Error: %v", err)},
		},
		IsError: true,
	}
}

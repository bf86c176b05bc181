package mcp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kcdb-client/internal/config"
	"github.com/kcdb-client/pkg/kcdb"
)

// fakeKCDB serves canned replies by path and records the JSON bodies it receives.
type fakeKCDB struct {
	mu     sync.Mutex
	routes map[string]string
	bodies map[string]map[string]any
}

func newFakeKCDB(t *testing.T, routes map[string]string) (*fakeKCDB, *kcdb.Client) {
	t.Helper()
	f := &fakeKCDB{routes: routes, bodies: map[string]map[string]any{}}
	server := httptest.NewServer(f)
	t.Cleanup(server.Close)
	return f, kcdb.NewClient(kcdb.Config{BaseURL: server.URL})
}

func (f *fakeKCDB) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		var body map[string]any
		_ = json.Unmarshal(data, &body)
		f.bodies[r.URL.Path] = body
	}
	reply, ok := f.routes[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, reply)
}

func (f *fakeKCDB) body(path string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[path]
}

func newTestServer(client *kcdb.Client) *Server {
	logger, _ := test.NewNullLogger()
	return NewServer(client, config.MCPConfig{ServerName: "kcdb-mcp", ServerVersion: "v0.0.0"}, WithLogger(logger))
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

const searchReply = `{
  "versionApiKcdb": "1.0.7",
  "pageNumber": 0,
  "pageSize": 100,
  "numberOfElements": 0,
  "totalElements": 0,
  "totalPages": 0,
  "data": []
}`

func TestNewServer_RegistersTools(t *testing.T) {
	_, client := newFakeKCDB(t, nil)
	server := newTestServer(client)

	var names []string
	for _, tool := range server.Tools() {
		names = append(names, tool.Name)
		require.NotNil(t, tool.InputSchema, tool.Name)
		assert.Equal(t, "object", tool.InputSchema.Type, tool.Name)
		assert.NotEmpty(t, tool.Description, tool.Name)
	}
	assert.Equal(t, []string{
		"kcdb_domains",
		"kcdb_countries",
		"kcdb_metrology_areas",
		"kcdb_branches",
		"kcdb_search_physics",
		"kcdb_search_chemistry_biology",
		"kcdb_search_radiation",
		"kcdb_quick_search",
	}, names)
}

func TestHandleDomains(t *testing.T) {
	_, client := newFakeKCDB(t, map[string]string{
		"/referenceData/domain": `{"domains":[{"code":"PHYSICS","name":"General physics"}]}`,
	})
	server := newTestServer(client)

	result, out, err := server.handleDomains(context.Background(), nil, DomainsParams{})
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.False(t, result.IsError)

	var domains []kcdb.Domain
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &domains))
	assert.Equal(t, []kcdb.Domain{kcdb.DomainGeneralPhysics}, domains)
}

func TestHandleCountries_Filter(t *testing.T) {
	_, client := newFakeKCDB(t, map[string]string{
		"/referenceData/country": `{"referenceData":[
			{"id":58,"label":"NZ","value":"New Zealand"},
			{"id":29,"label":"FR","value":"France"}]}`,
	})
	server := newTestServer(client)

	result, _, err := server.handleCountries(context.Background(), nil, CountriesParams{Filter: "zealand"})
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	var countries []kcdb.Country
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &countries))
	require.Len(t, countries, 1)
	assert.Equal(t, "NZ", countries[0].Label)

	result, _, err = server.handleCountries(context.Background(), nil, CountriesParams{Filter: "(broken"})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleMetrologyAreas(t *testing.T) {
	_, client := newFakeKCDB(t, map[string]string{
		"/referenceData/metrologyArea": `{"referenceData":[{"id":2,"label":"EM","value":"Electricity and Magnetism"}]}`,
	})
	server := newTestServer(client)

	result, _, err := server.handleMetrologyAreas(context.Background(), nil, MetrologyAreasParams{Domain: "PHYSICS"})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), `"label": "EM"`)

	result, _, err = server.handleMetrologyAreas(context.Background(), nil, MetrologyAreasParams{Domain: "BIOLOGY"})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "domain")
}

func TestHandleBranches(t *testing.T) {
	_, client := newFakeKCDB(t, map[string]string{
		"/referenceData/metrologyArea": `{"referenceData":[{"id":7,"label":"TF","value":"Time and Frequency"}]}`,
		"/referenceData/branch":        `{"referenceData":[{"id":27,"label":"TF/F","value":"Frequency"}]}`,
	})
	server := newTestServer(client)

	result, _, err := server.handleBranches(context.Background(), nil, BranchesParams{Domain: "PHYSICS", AreaLabel: "TF"})
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	var branches []kcdb.Branch
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &branches))
	require.Len(t, branches, 1)
	assert.Equal(t, "TF/F", branches[0].Label)

	result, _, err = server.handleBranches(context.Background(), nil, BranchesParams{Domain: "PHYSICS", AreaLabel: "XX"})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "cannot be found")
}

func TestHandleBranches_ChemistryBiology(t *testing.T) {
	_, client := newFakeKCDB(t, map[string]string{
		"/referenceData/metrologyArea": `{"referenceData":[{"id":8,"label":"QM","value":"Amount of substance"}]}`,
		"/referenceData/branch":        `{"referenceData":[{"id":40,"label":"QM/GAS","value":"Gases"}]}`,
	})
	server := newTestServer(client)

	result, _, err := server.handleBranches(context.Background(), nil, BranchesParams{Domain: "CHEM-BIO", AreaLabel: "QM"})
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	var branches []kcdb.Branch
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &branches))
	require.Len(t, branches, 1)
	assert.Equal(t, "QM/GAS", branches[0].Label)
}

func TestHandleSearchPhysics(t *testing.T) {
	fake, client := newFakeKCDB(t, map[string]string{
		"/cmc/searchData/physics": searchReply,
	})
	server := newTestServer(client)

	result, _, err := server.handleSearchPhysics(context.Background(), nil, SearchPhysicsParams{
		MetrologyArea: "EM",
		PhysicsCode:   "11.3.3",
		Countries:     []string{"CH", "JP"},
		PagingParams:  PagingParams{PageSize: 20},
	})
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))
	assert.Contains(t, resultText(t, result), `"total_elements": 0`)

	assert.Equal(t, map[string]any{
		"page":               float64(0),
		"pageSize":           float64(20),
		"showTable":          false,
		"metrologyAreaLabel": "EM",
		"physicsCode":        "11.3.3",
		"countries":          []any{"CH", "JP"},
	}, fake.body("/cmc/searchData/physics"))
}

func TestHandleSearchPhysics_Invalid(t *testing.T) {
	fake, client := newFakeKCDB(t, nil)
	server := newTestServer(client)

	tests := []struct {
		name   string
		params SearchPhysicsParams
	}{
		{name: "missing area", params: SearchPhysicsParams{}},
		{name: "page size", params: SearchPhysicsParams{MetrologyArea: "EM", PagingParams: PagingParams{PageSize: 10001}}},
		{name: "negative page", params: SearchPhysicsParams{MetrologyArea: "EM", PagingParams: PagingParams{Page: -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, _, err := server.handleSearchPhysics(context.Background(), nil, tt.params)
			require.NoError(t, err)
			assert.True(t, result.IsError)
		})
	}
	assert.Nil(t, fake.body("/cmc/searchData/physics"))
}

func TestHandleSearchChemistryBiology(t *testing.T) {
	fake, client := newFakeKCDB(t, map[string]string{
		"/cmc/searchData/chemistryAndBiology": searchReply,
	})
	server := newTestServer(client)

	result, _, err := server.handleSearchChemistryBiology(context.Background(), nil, SearchChemistryBiologyParams{
		Analyte:  "nitrogen",
		Keywords: "gas",
	})
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	body := fake.body("/cmc/searchData/chemistryAndBiology")
	assert.Equal(t, "QM", body["metrologyAreaLabel"])
	assert.Equal(t, "nitrogen", body["analyteLabel"])
	assert.Equal(t, "gas", body["keywords"])
	assert.NotContains(t, body, "categoryLabel")
}

func TestHandleSearchRadiation(t *testing.T) {
	fake, client := newFakeKCDB(t, map[string]string{
		"/cmc/searchData/radiation": searchReply,
	})
	server := newTestServer(client)

	result, _, err := server.handleSearchRadiation(context.Background(), nil, SearchRadiationParams{
		Branch:  "DOS",
		Nuclide: "Co-60",
	})
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	body := fake.body("/cmc/searchData/radiation")
	assert.Equal(t, "RI", body["metrologyAreaLabel"])
	assert.Equal(t, "DOS", body["branchLabel"])
	assert.Equal(t, "Co-60", body["nuclideLabel"])
}

func TestHandleQuickSearch(t *testing.T) {
	fake, client := newFakeKCDB(t, map[string]string{
		"/cmc/searchData/quickSearch": searchReply,
	})
	server := newTestServer(client)

	result, _, err := server.handleQuickSearch(context.Background(), nil, QuickSearchParams{
		Keywords:        "phase",
		IncludedFilters: []string{"cmcDomain.PHYSICS"},
	})
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	body := fake.body("/cmc/searchData/quickSearch")
	assert.Equal(t, []any{"cmcDomain.PHYSICS"}, body["includedFilters"])
	assert.NotContains(t, body, "excludedFilters")
}

func TestHandler_ServerErrorBecomesToolError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	logger, hook := test.NewNullLogger()
	s := NewServer(kcdb.NewClient(kcdb.Config{BaseURL: server.URL}), config.MCPConfig{}, WithLogger(logger))

	result, _, err := s.handleDomains(context.Background(), nil, DomainsParams{})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Server Error 500")

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "kcdb_domains", entry.Data["tool"])
}

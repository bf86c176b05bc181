package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kcdb-client/pkg/kcdb"
)

type kcdbServer struct {
	mu       sync.Mutex
	routes   map[string]string
	requests []string
	bodies   map[string]map[string]any
}

func (s *kcdbServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, r.URL.RequestURI())
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		var body map[string]any
		_ = json.Unmarshal(data, &body)
		s.bodies[r.URL.Path] = body
	}

	key := r.URL.Path
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.RawQuery
	}
	reply, ok := s.routes[key]
	if !ok {
		reply, ok = s.routes[r.URL.Path]
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = io.WriteString(w, reply)
}

func newTestCLI(t *testing.T, routes map[string]string) (*CLI, *kcdbServer, *bytes.Buffer) {
	t.Helper()
	backend := &kcdbServer{routes: routes, bodies: map[string]map[string]any{}}
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	var out bytes.Buffer
	client := kcdb.NewClient(kcdb.Config{BaseURL: server.URL})
	return New(client, &out, io.Discard), backend, &out
}

const emptySearch = `{"versionApiKcdb":"1.0.7","pageNumber":0,"pageSize":100,
	"numberOfElements":0,"totalElements":0,"totalPages":0,"data":[]}`

func TestCLI_Usage(t *testing.T) {
	c, _, _ := newTestCLI(t, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		args []string
	}{
		{name: "no command", args: nil},
		{name: "unknown command", args: []string{"frobnicate"}},
		{name: "missing area argument", args: []string{"areas"}},
		{name: "too many arguments", args: []string{"domains", "extra"}},
		{name: "unknown flag", args: []string{"countries", "-colour"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Run(ctx, tt.args)
			assert.ErrorIs(t, err, ErrUsage)
		})
	}

	assert.NoError(t, c.Run(ctx, []string{"help"}))
	assert.True(t, errors.Is(c.Run(ctx, []string{"domains", "-h"}), flag.ErrHelp))
}

func TestCLI_Domains(t *testing.T) {
	c, _, out := newTestCLI(t, map[string]string{
		"/referenceData/domain": `{"domains":[{"code":"CHEM-BIO","name":"Chemistry and Biology"}]}`,
	})
	require.NoError(t, c.Run(context.Background(), []string{"domains"}))
	assert.JSONEq(t, `[{"code":"CHEM-BIO","name":"Chemistry and Biology"}]`, out.String())
}

func TestCLI_CountriesFilter(t *testing.T) {
	c, _, out := newTestCLI(t, map[string]string{
		"/referenceData/country": `{"referenceData":[
			{"id":58,"label":"NZ","value":"New Zealand"},
			{"id":29,"label":"FR","value":"France"}]}`,
	})
	require.NoError(t, c.Run(context.Background(), []string{"countries", "-filter", "^fr"}))
	assert.JSONEq(t, `[{"id":29,"label":"FR","value":"France"}]`, out.String())
}

func TestCLI_Areas(t *testing.T) {
	c, backend, out := newTestCLI(t, map[string]string{
		"/referenceData/metrologyArea": `{"referenceData":[{"id":9,"label":"RI","value":"Ionizing Radiation"}]}`,
	})
	require.NoError(t, c.Run(context.Background(), []string{"areas", "radiation"}))
	assert.Contains(t, out.String(), `"code": "RADIATION"`)
	assert.Equal(t, []string{"/referenceData/metrologyArea?domainCode=RADIATION"}, backend.requests)

	assert.ErrorIs(t, c.Run(context.Background(), []string{"areas", "biology"}), kcdb.ErrValidation)
}

func TestCLI_Branches(t *testing.T) {
	c, backend, out := newTestCLI(t, map[string]string{
		"/referenceData/metrologyArea": `{"referenceData":[{"id":8,"label":"QM","value":"Amount of substance"}]}`,
	})
	require.NoError(t, c.Run(context.Background(), []string{"branches", "CHEM-BIO", "QM"}))
	assert.Equal(t, "[]\n", out.String())
	assert.Equal(t, []string{
		"/referenceData/metrologyArea?domainCode=CHEM-BIO",
		"/referenceData/branch?areaId=8",
	}, backend.requests)

	err := c.Run(context.Background(), []string{"branches", "CHEM-BIO", "XX"})
	assert.ErrorIs(t, err, kcdb.ErrNotFound)
}

func TestCLI_PhysicsCodes(t *testing.T) {
	c, backend, out := newTestCLI(t, map[string]string{
		"/referenceData/metrologyArea": `{"referenceData":[{"id":7,"label":"TF","value":"Time and Frequency"}]}`,
		"/referenceData/branch": `{"referenceData":[
			{"id":26,"label":"TF/TS","value":"Time scales"},
			{"id":27,"label":"TF/F","value":"Frequency"}]}`,
		"/referenceData/service":           `{"referenceData":[{"id":55,"label":"2","value":"Frequency"}]}`,
		"/referenceData/subService":        `{"referenceData":[{"id":218,"label":"3","value":"Frequency meter"}]}`,
		"/referenceData/individualService": `{"referenceData":[{"id":546,"label":"1","value":"Frequency counter"}]}`,
	})

	require.NoError(t, c.Run(context.Background(), []string{"physics-codes", "-branch", "^Freq", "TF"}))

	var entries []PhysicsCodeEntry
	require.NoError(t, json.Unmarshal(out.Bytes(), &entries))
	assert.Equal(t, []PhysicsCodeEntry{{
		PhysicsCode:       "2.3.1",
		Branch:            "TF/F",
		Service:           "Frequency",
		SubService:        "Frequency meter",
		IndividualService: "Frequency counter",
	}}, entries)
	assert.Contains(t, backend.requests, "/referenceData/service?branchId=27")
	assert.NotContains(t, backend.requests, "/referenceData/service?branchId=26")
}

func TestCLI_SearchPhysics(t *testing.T) {
	c, backend, out := newTestCLI(t, map[string]string{
		"/cmc/searchData/physics": emptySearch,
	})
	require.NoError(t, c.Run(context.Background(), []string{
		"search-physics", "-area", "EM", "-branch", "EM/RF", "-countries", "CH,FR", "-countries", "JP",
		"-from", "2005-01-31", "-page-size", "10",
	}))
	assert.Contains(t, out.String(), `"total_elements": 0`)
	assert.Equal(t, map[string]any{
		"page":               float64(0),
		"pageSize":           float64(10),
		"showTable":          false,
		"metrologyAreaLabel": "EM",
		"branchLabel":        "EM/RF",
		"countries":          []any{"CH", "FR", "JP"},
		"publicDateFrom":     "2005-01-31",
	}, backend.bodies["/cmc/searchData/physics"])
}

func TestCLI_SearchValidation(t *testing.T) {
	c, backend, _ := newTestCLI(t, nil)
	ctx := context.Background()

	assert.ErrorIs(t, c.Run(ctx, []string{"search-physics"}), kcdb.ErrValidation)
	assert.ErrorIs(t, c.Run(ctx, []string{"search-chem-bio", "-page-size", "10001"}), kcdb.ErrValidation)
	assert.ErrorIs(t, c.Run(ctx, []string{"search-radiation", "-page", "-1"}), kcdb.ErrValidation)
	assert.ErrorIs(t, c.Run(ctx, []string{"quick-search", "-page-size", "0"}), kcdb.ErrValidation)
	assert.Empty(t, backend.requests)
}

func TestCLI_SearchChemistryBiologyAndRadiation(t *testing.T) {
	c, backend, _ := newTestCLI(t, map[string]string{
		"/cmc/searchData/chemistryAndBiology": emptySearch,
		"/cmc/searchData/radiation":           emptySearch,
	})
	ctx := context.Background()

	require.NoError(t, c.Run(ctx, []string{"search-chem-bio", "-analyte", "nitrogen", "-keywords", "gas"}))
	chem := backend.bodies["/cmc/searchData/chemistryAndBiology"]
	assert.Equal(t, "QM", chem["metrologyAreaLabel"])
	assert.Equal(t, "nitrogen", chem["analyteLabel"])

	require.NoError(t, c.Run(ctx, []string{"search-radiation", "-branch", "NEU", "-show-table"}))
	rad := backend.bodies["/cmc/searchData/radiation"]
	assert.Equal(t, "RI", rad["metrologyAreaLabel"])
	assert.Equal(t, "NEU", rad["branchLabel"])
	assert.Equal(t, true, rad["showTable"])
}

func TestCLI_QuickSearch(t *testing.T) {
	c, backend, out := newTestCLI(t, map[string]string{
		"/cmc/searchData/quickSearch": `{"versionApiKcdb":"1.0.7","pageNumber":0,"pageSize":100,
			"numberOfElements":0,"totalElements":0,"totalPages":0,"data":[],"aggregations":[],"filtersList":[]}`,
	})
	require.NoError(t, c.Run(context.Background(), []string{
		"quick-search", "-keywords", "phase OR test", "-include", "cmcDomain.CHEM-BIO", "-exclude", "cmcServices.AC power",
	}))
	assert.Contains(t, out.String(), `"filters_list": []`)

	body := backend.bodies["/cmc/searchData/quickSearch"]
	assert.Equal(t, "phase OR test", body["keywords"])
	assert.Equal(t, []any{"cmcDomain.CHEM-BIO"}, body["includedFilters"])
	assert.Equal(t, []any{"cmcServices.AC power"}, body["excludedFilters"])
}

func TestCLI_ServerError(t *testing.T) {
	c, _, _ := newTestCLI(t, nil)
	err := c.Run(context.Background(), []string{"domains"})
	assert.ErrorIs(t, err, kcdb.ErrClientError)
}

package kcdb

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
)

const testBaseURL = "https://kcdb.test/api/kcdb"

type fakeReply struct {
	status int
	body   string
}

// recordingTransport answers requests from a route table keyed by path and
// keeps every request it receives.
type recordingTransport struct {
	mu       sync.Mutex
	routes   map[string]fakeReply
	requests []*Request
	err      error
}

func (f *recordingTransport) Send(_ context.Context, req *Request) (*Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}

	path := strings.TrimPrefix(req.URL, testBaseURL)
	reply, ok := f.routes[path]
	if !ok {
		reply = fakeReply{status: http.StatusNotFound, body: `{"message":"not found"}`}
	}
	if reply.status == 0 {
		reply.status = http.StatusOK
	}
	return &Response{
		StatusCode: reply.status,
		Reason:     http.StatusText(reply.status),
		URL:        req.FullURL(),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       []byte(reply.body),
	}, nil
}

func (f *recordingTransport) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *recordingTransport) last(t *testing.T) *Request {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		t.Fatal("no request was sent")
	}
	return f.requests[len(f.requests)-1]
}

func newFakeClient(routes map[string]fakeReply) (*Client, *recordingTransport) {
	fake := &recordingTransport{routes: routes}
	client := NewClient(Config{BaseURL: testBaseURL, Transport: fake})
	return client, fake
}

const physicsSearchFixture = `{
  "versionApiKcdb": "1.0.7",
  "pageNumber": 0,
  "pageSize": 100,
  "numberOfElements": 1,
  "totalElements": 1,
  "totalPages": 1,
  "data": [
    {
      "id": 35071,
      "status": "Published",
      "statusDate": "2022-01-04",
      "kcdbCode": "EURAMET-EM-CH-00000GFB-5",
      "domainCode": "PHYSICS",
      "metrologyAreaLabel": "EM",
      "rmo": "EURAMET",
      "countryValue": "Switzerland",
      "nmiCode": "METAS",
      "nmiName": "Federal Institute of Metrology",
      "nmiServiceCode": "217.01.04",
      "nmiServiceLink": null,
      "quantityValue": "Scattering parameters: transmission coefficient (Sij) in coaxial line, phase",
      "cmc": {"lowerLimit": -180.0, "upperLimit": 180.0, "unit": "degree"},
      "cmcUncertainty": {"lowerLimit": 0.2, "upperLimit": 1.4, "unit": "degree"},
      "cmcBaseUnit": {"lowerLimit": -3.141592653589794, "upperLimit": 3.141592653589794, "unit": "rad"},
      "cmcUncertaintyBaseUnit": {"lowerLimit": 0.0034906585039886605, "upperLimit": 0.024434609527920616, "unit": "rad"},
      "confidenceLevel": 95,
      "coverageFactor": 2,
      "uncertaintyEquation": {"equation": "", "equationComment": null},
      "uncertaintyTable": {
        "tableName": "Scat_coax_atten_phase",
        "tableRows": 122,
        "tableCols": 13,
        "tableComment": "",
        "tableContents": "{\"row_1\":{\"col_1\":\"Connector\"}}"
      },
      "uncertaintyMode": "Absolute",
      "traceabilitySource": "METAS",
      "comments": null,
      "groupIdentifier": "F",
      "publicationDate": "2022-01-04",
      "approvalDate": "2022-01-04",
      "internationalStandard": "",
      "branchValue": "Radio frequency measurements",
      "serviceValue": "Radio frequency measurements",
      "subServiceValue": "Scattering parameters (vectors)",
      "individualServiceValue": "Transmission coefficient in coaxial line (real and imaginary)",
      "instrument": "Passive device",
      "instrumentMethod": "Vector network analyser",
      "parameters": [
        {"parameterName": "Frequency", "parameterValue": "9 kHz to 116.5 GHz"},
        {"parameterName": "Connector", "parameterValue": "PC-7 mm"},
        {"parameterName": "S11 and S22", "parameterValue": "&lt; 0.1"},
        {"parameterName": "S21 and S12", "parameterValue": "-80 dB to 0 dB"}
      ]
    }
  ]
}`

const chemistryBiologySearchFixture = `{
  "versionApiKcdb": "1.0.7",
  "pageNumber": 0,
  "pageSize": 100,
  "numberOfElements": 1,
  "totalElements": 1,
  "totalPages": 1,
  "data": [
    {
      "id": 8001,
      "nmiCode": "NMIJ AIST",
      "nmiServiceCode": "5-01-02",
      "rmo": "APMP",
      "analyteMatrix": "high purity nitrogen",
      "analyteValue": "nitrogen",
      "categoryValue": "High purity chemicals",
      "crm": {},
      "crmUncertainty": null,
      "crmUncertaintyMode": "",
      "measurmentTechnique": "Gas chromatography",
      "mechanism": "",
      "subCategoryValue": "Other",
      "uncertaintyConvention": "Two",
      "uncertaintyMode": "Relative"
    }
  ]
}`

const radiationSearchFixture = `{
  "versionApiKcdb": "1.0.7",
  "pageNumber": 0,
  "pageSize": 100,
  "numberOfElements": 1,
  "totalElements": 1,
  "totalPages": 1,
  "data": [
    {
      "id": 23099,
      "nmiCode": "BEV-PTP",
      "rmo": "EURAMET",
      "branchValue": "Dosimetry",
      "mediumValue": "Graphite",
      "nuclideValue": "Co-60",
      "quantityValue": "Absorbed dose/rate",
      "radiationCode": "10.1.1",
      "radiationSpecification": "Co-60",
      "referenceStandard": "Graphite calorimeter",
      "sourceValue": "Aerosol"
    }
  ]
}`

const quickSearchFixture = `{
  "versionApiKcdb": "1.0.7",
  "pageNumber": 0,
  "pageSize": 100,
  "numberOfElements": 2,
  "totalElements": 2,
  "totalPages": 1,
  "aggregations": [
    {"name": "cmcCountries", "values": ["Switzerland", "Japan"]},
    {"name": "cmcRmo", "values": null}
  ],
  "data": [
    {"id": 1, "domainCode": "PHYSICS"},
    {"id": 2, "domainCode": "CHEM-BIO"}
  ],
  "filtersList": [
    {
      "code": "cmcDomain",
      "name": "Domain",
      "count": 2,
      "order": 0,
      "children": [
        {"code": "cmcDomain.PHYSICS", "name": "PHYSICS", "count": 1, "order": 0, "children": []},
        {"code": "cmcDomain.CHEM-BIO", "name": "CHEM-BIO", "count": 1, "order": 1}
      ]
    }
  ]
}`

package kcdb

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultBaseURL is the KCDB API root.
	DefaultBaseURL = "https://www.bipm.org/api/kcdb"

	// DefaultTimeout is the per-request timeout when none is configured.
	DefaultTimeout = 30 * time.Second

	// NoTimeout disables the per-request timeout.
	NoTimeout time.Duration = 0
)

// Config configures a Client. Zero values select the defaults.
type Config struct {
	BaseURL string `json:"base_url"`
	// Timeout applies to every request. Zero selects DefaultTimeout, a negative value selects NoTimeout.
	Timeout        time.Duration        `json:"timeout"`
	RateLimit      float64              `json:"rate_limit"`
	UserAgent      string               `json:"user_agent"`
	CircuitBreaker CircuitBreakerConfig `json:"circuit_breaker"`

	Logger  *logrus.Logger `json:"-"`
	Metrics *Metrics       `json:"-"`
	// Transport replaces the HTTP transport built from the settings above.
	Transport Transport `json:"-"`
}

// Client holds what every KCDB navigator shares: the base URL, the transport,
// the logger and the timeout. Its methods cover the domain-agnostic endpoints.
type Client struct {
	baseURL   string
	transport Transport
	logger    *logrus.Logger
	timeout   atomic.Int64
}

// NewClient creates a Client.
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Logger == nil {
		config.Logger = discardLogger()
	}
	if config.Transport == nil {
		config.Transport = NewHTTPTransport(HTTPTransportConfig{
			UserAgent:      config.UserAgent,
			RateLimit:      config.RateLimit,
			CircuitBreaker: config.CircuitBreaker,
			Logger:         config.Logger,
			Metrics:        config.Metrics,
		})
	}

	c := &Client{
		baseURL:   strings.TrimRight(config.BaseURL, "/"),
		transport: config.Transport,
		logger:    config.Logger,
	}
	c.SetTimeout(config.Timeout)
	return c
}

// BaseURL returns the API root requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Timeout returns the per-request timeout, or NoTimeout.
func (c *Client) Timeout() time.Duration {
	return time.Duration(c.timeout.Load())
}

// SetTimeout changes the timeout used by subsequent requests. A value <= 0 selects NoTimeout.
func (c *Client) SetTimeout(d time.Duration) {
	if d < 0 {
		d = NoTimeout
	}
	c.timeout.Store(int64(d))
}

// GeneralPhysics returns a General Physics navigator sharing this client.
func (c *Client) GeneralPhysics() *GeneralPhysics {
	return &GeneralPhysics{Client: c}
}

// ChemistryBiology returns a Chemistry and Biology navigator sharing this client.
func (c *Client) ChemistryBiology() *ChemistryBiology {
	return &ChemistryBiology{Client: c}
}

// IonizingRadiation returns an Ionizing Radiation navigator sharing this client.
func (c *Client) IonizingRadiation() *IonizingRadiation {
	return &IonizingRadiation{Client: c}
}

// Navigator returns the navigator of the domain with the given code.
func (c *Client) Navigator(code string) (Navigator, error) {
	switch code {
	case DomainGeneralPhysics.Code:
		return c.GeneralPhysics(), nil
	case DomainChemistryBiology.Code:
		return c.ChemistryBiology(), nil
	case DomainIonizingRadiation.Code:
		return c.IonizingRadiation(), nil
	}
	return nil, &ValidationError{Field: "domain", Message: "must be PHYSICS, CHEM-BIO or RADIATION", Value: code}
}

func (c *Client) send(ctx context.Context, method, path string, body any, query ...QueryParam) (*Response, error) {
	return c.transport.Send(ctx, &Request{
		Method:  method,
		URL:     c.baseURL + path,
		Query:   query,
		Body:    body,
		Timeout: c.Timeout(),
	})
}

// fetch sends a request and fails on any 4xx or 5xx reply.
func (c *Client) fetch(ctx context.Context, method, path string, body any, query ...QueryParam) (*Response, error) {
	resp, err := c.send(ctx, method, path, body, query...)
	if err != nil {
		return nil, err
	}
	if err := resp.RaiseForStatus(); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) referenceData(ctx context.Context, path string, query ...QueryParam) ([]referenceRecord, error) {
	resp, err := c.fetch(ctx, http.MethodGet, path, nil, query...)
	if err != nil {
		return nil, err
	}
	records, err := decodeReferenceData(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return records, nil
}

// Countries returns every country that publishes CMCs.
func (c *Client) Countries(ctx context.Context) ([]Country, error) {
	records, err := c.referenceData(ctx, "/referenceData/country")
	if err != nil {
		return nil, err
	}
	countries := make([]Country, 0, len(records))
	for _, r := range records {
		countries = append(countries, Country{ReferenceData: r.ReferenceData})
	}
	return countries, nil
}

// Domains returns the KCDB domains.
func (c *Client) Domains(ctx context.Context) ([]Domain, error) {
	resp, err := c.fetch(ctx, http.MethodGet, "/referenceData/domain", nil)
	if err != nil {
		return nil, err
	}
	domains, err := decodeDomains(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode /referenceData/domain: %w", err)
	}
	return domains, nil
}

// NonIonizingQuantities returns the quantities that do not belong to Ionizing
// Radiation, i.e. the quantity records published without a label.
func (c *Client) NonIonizingQuantities(ctx context.Context) ([]NonIonizingQuantity, error) {
	records, err := c.referenceData(ctx, "/referenceData/quantity")
	if err != nil {
		return nil, err
	}
	quantities := make([]NonIonizingQuantity, 0)
	for _, r := range records {
		if r.labelNull {
			quantities = append(quantities, NonIonizingQuantity{
				ReferenceData: ReferenceData{ID: r.ID, Value: r.Value},
			})
		}
	}
	return quantities, nil
}

// QuickSearch runs a quick search across all domains.
func (c *Client) QuickSearch(ctx context.Context, q QuickSearchQuery) (ResultsQuickSearch, error) {
	body, err := q.Body()
	if err != nil {
		return ResultsQuickSearch{}, err
	}
	resp, err := c.fetch(ctx, http.MethodPost, "/cmc/searchData/quickSearch", body)
	if err != nil {
		return ResultsQuickSearch{}, err
	}
	return DecodeResultsQuickSearch(resp.Body)
}

func (c *Client) metrologyAreas(ctx context.Context, domain Domain) ([]MetrologyArea, error) {
	records, err := c.referenceData(ctx, "/referenceData/metrologyArea",
		QueryParam{Key: "domainCode", Value: domain.Code})
	if err != nil {
		return nil, err
	}
	areas := make([]MetrologyArea, 0, len(records))
	for _, r := range records {
		areas = append(areas, MetrologyArea{ReferenceData: r.ReferenceData, Domain: domain})
	}
	return areas, nil
}

func (c *Client) branches(ctx context.Context, area MetrologyArea) ([]Branch, error) {
	records, err := c.referenceData(ctx, "/referenceData/branch",
		QueryParam{Key: "areaId", Value: fmt.Sprint(area.ID)})
	if err != nil {
		return nil, err
	}
	branches := make([]Branch, 0, len(records))
	for _, r := range records {
		branches = append(branches, Branch{ReferenceData: r.ReferenceData, MetrologyArea: area})
	}
	return branches, nil
}

func (c *Client) skipped(operation string, fields logrus.Fields, reason string) {
	c.logger.WithFields(fields).WithFields(logrus.Fields{
		"operation": operation,
		"reason":    reason,
	}).Debug("KCDB lookup answered without a request")
}

// Navigator is implemented by the three domain navigators.
type Navigator interface {
	Domain() Domain
	MetrologyAreas(ctx context.Context) ([]MetrologyArea, error)
	Branches(ctx context.Context, area MetrologyArea) ([]Branch, error)
}

func navigatorString(typeName string, d Domain) string {
	return fmt.Sprintf("%s(code=%q, name=%q)", typeName, d.Code, d.Name)
}

var (
	_ Navigator = (*ChemistryBiology)(nil)
	_ Navigator = (*GeneralPhysics)(nil)
	_ Navigator = (*IonizingRadiation)(nil)
)

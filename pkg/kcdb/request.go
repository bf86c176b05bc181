package kcdb

import (
	"fmt"
	"reflect"
	"time"
)

const (
	// MaxPageSize is the largest page the KCDB server returns.
	MaxPageSize = 10000

	// DefaultPageSize is the page size applied by the New*Query constructors.
	DefaultPageSize = 100
)

// LabelSource supplies a label for a search parameter. It is satisfied by a
// plain Label and by every reference-data entity.
type LabelSource interface {
	GetLabel() string
}

// Label is a literal label, e.g. "EM" or "EM/RF".
type Label string

func (l Label) GetLabel() string { return string(l) }

// CountryLabels makes a single Label usable as a CountrySource.
func (l Label) CountryLabels() []string {
	if l == "" {
		return nil
	}
	return []string{string(l)}
}

// PhysicsCodeSource supplies a physics code. It is satisfied by a plain
// PhysicsCode and by Service, SubService and IndividualService.
type PhysicsCodeSource interface {
	GetPhysicsCode() string
}

// PhysicsCode is a literal physics code, e.g. "11.3.3".
type PhysicsCode string

func (p PhysicsCode) GetPhysicsCode() string { return string(p) }

// CountrySource supplies one or more country labels.
type CountrySource interface {
	CountryLabels() []string
}

// CountryList is a sequence mixing Labels and Country entities. Every entry
// yields one label, empty ones included.
type CountryList []LabelSource

func (l CountryList) CountryLabels() []string {
	labels := make([]string, 0, len(l))
	for _, src := range l {
		if isNil(src) {
			labels = append(labels, "")
			continue
		}
		labels = append(labels, src.GetLabel())
	}
	return labels
}

// Countries is shorthand for a CountryList of literal labels.
func Countries(labels ...string) CountryList {
	list := make(CountryList, 0, len(labels))
	for _, l := range labels {
		list = append(list, Label(l))
	}
	return list
}

// isNil reports whether v is nil or an interface holding a nil pointer.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// sources turns label, physics-code and country sources into body strings.
// A nil pointer behind a non-nil interface is rejected; the first such
// error is kept in err.
type sources struct {
	err error
}

func (n *sources) nilPointer(field string, v any) bool {
	if v == nil || !isNil(v) {
		return false
	}
	if n.err == nil {
		n.err = NewValidationError(field, "must not be a nil pointer", fmt.Sprintf("%T", v))
	}
	return true
}

func (n *sources) label(field string, src LabelSource) string {
	if src == nil || n.nilPointer(field, src) {
		return ""
	}
	return src.GetLabel()
}

func (n *sources) physicsCode(field string, src PhysicsCodeSource) string {
	if src == nil || n.nilPointer(field, src) {
		return ""
	}
	return src.GetPhysicsCode()
}

func (n *sources) countries(field string, src CountrySource) []string {
	if src == nil || n.nilPointer(field, src) {
		return nil
	}
	var labels []string
	if list, ok := src.(CountryList); ok {
		labels = make([]string, 0, len(list))
		for i, entry := range list {
			labels = append(labels, n.label(fmt.Sprintf("%s[%d]", field, i), entry))
		}
	} else {
		labels = src.CountryLabels()
	}
	if len(labels) == 0 {
		return nil
	}
	return labels
}


// FormatDate renders t as the YYYY-MM-DD form used by the publication date filters.
func FormatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

// Paging selects a page of search results.
type Paging struct {
	Page      int  `json:"page"`
	PageSize  int  `json:"pageSize"`
	ShowTable bool `json:"showTable"`
}

// DefaultPaging is the first page with DefaultPageSize results and no tables.
func DefaultPaging() Paging {
	return Paging{Page: 0, PageSize: DefaultPageSize}
}

// Validate checks the page number and page size.
func (p Paging) Validate() error {
	if p.Page < 0 {
		return NewValidationError("page", "must be >= 0", p.Page)
	}
	if p.PageSize < 1 || p.PageSize > MaxPageSize {
		return NewValidationError("page_size", fmt.Sprintf("must be in the range [1, %d]", MaxPageSize), p.PageSize)
	}
	return nil
}

func (n *sources) area(src LabelSource) string {
	s := n.label("metrology_area", src)
	if s == "" && n.err == nil {
		n.err = NewValidationError("metrology_area", "is required", s)
	}
	return s
}

// GeneralPhysicsQuery holds the parameters of a General Physics search.
type GeneralPhysicsQuery struct {
	Paging
	MetrologyArea  LabelSource
	Branch         LabelSource
	Countries      CountrySource
	Keywords       string
	PhysicsCode    PhysicsCodeSource
	PublicDateFrom string
	PublicDateTo   string
}

// NewGeneralPhysicsQuery returns a query for the given metrology area with default paging.
func NewGeneralPhysicsQuery(area LabelSource) GeneralPhysicsQuery {
	return GeneralPhysicsQuery{Paging: DefaultPaging(), MetrologyArea: area}
}

// GeneralPhysicsBody is the JSON body of a General Physics search.
type GeneralPhysicsBody struct {
	Paging
	MetrologyAreaLabel string   `json:"metrologyAreaLabel"`
	BranchLabel        string   `json:"branchLabel,omitempty"`
	Countries          []string `json:"countries,omitempty"`
	Keywords           string   `json:"keywords,omitempty"`
	PhysicsCode        string   `json:"physicsCode,omitempty"`
	PublicDateFrom     string   `json:"publicDateFrom,omitempty"`
	PublicDateTo       string   `json:"publicDateTo,omitempty"`
}

// Body validates q and builds the request body.
func (q GeneralPhysicsQuery) Body() (GeneralPhysicsBody, error) {
	if err := q.Paging.Validate(); err != nil {
		return GeneralPhysicsBody{}, err
	}
	var n sources
	body := GeneralPhysicsBody{
		Paging:             q.Paging,
		MetrologyAreaLabel: n.area(q.MetrologyArea),
		BranchLabel:        n.label("branch", q.Branch),
		Countries:          n.countries("countries", q.Countries),
		Keywords:           q.Keywords,
		PhysicsCode:        n.physicsCode("physics_code", q.PhysicsCode),
		PublicDateFrom:     q.PublicDateFrom,
		PublicDateTo:       q.PublicDateTo,
	}
	if n.err != nil {
		return GeneralPhysicsBody{}, n.err
	}
	return body, nil
}

// ChemistryBiologyQuery holds the parameters of a Chemistry and Biology search.
type ChemistryBiologyQuery struct {
	Paging
	MetrologyArea  LabelSource
	Analyte        LabelSource
	Category       LabelSource
	Countries      CountrySource
	Keywords       string
	PublicDateFrom string
	PublicDateTo   string
}

// NewChemistryBiologyQuery returns a query for the QM metrology area with default paging.
func NewChemistryBiologyQuery() ChemistryBiologyQuery {
	return ChemistryBiologyQuery{Paging: DefaultPaging(), MetrologyArea: Label("QM")}
}

// ChemistryBiologyBody is the JSON body of a Chemistry and Biology search.
type ChemistryBiologyBody struct {
	Paging
	MetrologyAreaLabel string   `json:"metrologyAreaLabel"`
	AnalyteLabel       string   `json:"analyteLabel,omitempty"`
	CategoryLabel      string   `json:"categoryLabel,omitempty"`
	Countries          []string `json:"countries,omitempty"`
	Keywords           string   `json:"keywords,omitempty"`
	PublicDateFrom     string   `json:"publicDateFrom,omitempty"`
	PublicDateTo       string   `json:"publicDateTo,omitempty"`
}

// Body validates q and builds the request body.
func (q ChemistryBiologyQuery) Body() (ChemistryBiologyBody, error) {
	if err := q.Paging.Validate(); err != nil {
		return ChemistryBiologyBody{}, err
	}
	var n sources
	body := ChemistryBiologyBody{
		Paging:             q.Paging,
		MetrologyAreaLabel: n.area(q.MetrologyArea),
		AnalyteLabel:       n.label("analyte", q.Analyte),
		CategoryLabel:      n.label("category", q.Category),
		Countries:          n.countries("countries", q.Countries),
		Keywords:           q.Keywords,
		PublicDateFrom:     q.PublicDateFrom,
		PublicDateTo:       q.PublicDateTo,
	}
	if n.err != nil {
		return ChemistryBiologyBody{}, n.err
	}
	return body, nil
}

// IonizingRadiationQuery holds the parameters of an Ionizing Radiation search.
type IonizingRadiationQuery struct {
	Paging
	MetrologyArea  LabelSource
	Branch         LabelSource
	Countries      CountrySource
	Keywords       string
	Medium         LabelSource
	Nuclide        LabelSource
	PublicDateFrom string
	PublicDateTo   string
	Quantity       LabelSource
	Source         LabelSource
}

// NewIonizingRadiationQuery returns a query for the RI metrology area with default paging.
func NewIonizingRadiationQuery() IonizingRadiationQuery {
	return IonizingRadiationQuery{Paging: DefaultPaging(), MetrologyArea: Label("RI")}
}

// IonizingRadiationBody is the JSON body of an Ionizing Radiation search.
type IonizingRadiationBody struct {
	Paging
	MetrologyAreaLabel string   `json:"metrologyAreaLabel"`
	BranchLabel        string   `json:"branchLabel,omitempty"`
	Countries          []string `json:"countries,omitempty"`
	Keywords           string   `json:"keywords,omitempty"`
	MediumLabel        string   `json:"mediumLabel,omitempty"`
	NuclideLabel       string   `json:"nuclideLabel,omitempty"`
	PublicDateFrom     string   `json:"publicDateFrom,omitempty"`
	PublicDateTo       string   `json:"publicDateTo,omitempty"`
	QuantityLabel      string   `json:"quantityLabel,omitempty"`
	SourceLabel        string   `json:"sourceLabel,omitempty"`
}

// Body validates q and builds the request body.
func (q IonizingRadiationQuery) Body() (IonizingRadiationBody, error) {
	if err := q.Paging.Validate(); err != nil {
		return IonizingRadiationBody{}, err
	}
	var n sources
	body := IonizingRadiationBody{
		Paging:             q.Paging,
		MetrologyAreaLabel: n.area(q.MetrologyArea),
		BranchLabel:        n.label("branch", q.Branch),
		Countries:          n.countries("countries", q.Countries),
		Keywords:           q.Keywords,
		MediumLabel:        n.label("medium", q.Medium),
		NuclideLabel:       n.label("nuclide", q.Nuclide),
		PublicDateFrom:     q.PublicDateFrom,
		PublicDateTo:       q.PublicDateTo,
		QuantityLabel:      n.label("quantity", q.Quantity),
		SourceLabel:        n.label("source", q.Source),
	}
	if n.err != nil {
		return IonizingRadiationBody{}, n.err
	}
	return body, nil
}

// QuickSearchQuery holds the parameters of a quick search across all domains.
// Filters look like "cmcDomain.CHEM-BIO" or "cmcServices.AC power".
type QuickSearchQuery struct {
	Paging
	ExcludedFilters []string
	IncludedFilters []string
	Keywords        string
}

// NewQuickSearchQuery returns a quick-search query with default paging.
func NewQuickSearchQuery() QuickSearchQuery {
	return QuickSearchQuery{Paging: DefaultPaging()}
}

// QuickSearchBody is the JSON body of a quick search.
type QuickSearchBody struct {
	Paging
	ExcludedFilters []string `json:"excludedFilters,omitempty"`
	IncludedFilters []string `json:"includedFilters,omitempty"`
	Keywords        string   `json:"keywords,omitempty"`
}

// Body validates q and builds the request body.
func (q QuickSearchQuery) Body() (QuickSearchBody, error) {
	if err := q.Paging.Validate(); err != nil {
		return QuickSearchBody{}, err
	}
	return QuickSearchBody{
		Paging:          q.Paging,
		ExcludedFilters: q.ExcludedFilters,
		IncludedFilters: q.IncludedFilters,
		Keywords:        q.Keywords,
	}, nil
}

package kcdb

import "fmt"

// Results is the paging envelope of every search response.
type Results struct {
	NumberOfElements int    `json:"number_of_elements"`
	PageNumber       int    `json:"page_number"`
	PageSize         int    `json:"page_size"`
	TotalElements    int    `json:"total_elements"`
	TotalPages       int    `json:"total_pages"`
	VersionAPIKCDB   string `json:"version_api_kcdb"`
}

// Page returns the envelope itself so every Results* wrapper satisfies SearchResult.
func (r Results) Page() Results { return r }

func (r Results) String() string {
	return fmt.Sprintf(
		"number_of_elements=%d, page_number=%d, page_size=%d, total_elements=%d, total_pages=%d, version_api_kcdb=%q",
		r.NumberOfElements, r.PageNumber, r.PageSize, r.TotalElements, r.TotalPages, r.VersionAPIKCDB,
	)
}

// SearchResult is any decoded search page.
type SearchResult interface {
	Page() Results
	Domain() Domain
}

// ResultUnit is a value range with its unit.
type ResultUnit struct {
	LowerLimit *float64 `json:"lower_limit,omitempty"`
	Unit       string   `json:"unit"`
	UpperLimit *float64 `json:"upper_limit,omitempty"`
}

func (u ResultUnit) String() string {
	return fmt.Sprintf("ResultUnit(lower_limit=%s, unit=%q, upper_limit=%s)", fmtFloat(u.LowerLimit), u.Unit, fmtFloat(u.UpperLimit))
}

// ResultEquation is an uncertainty equation.
type ResultEquation struct {
	Equation        string `json:"equation"`
	EquationComment string `json:"equation_comment"`
}

// ResultTable is an uncertainty table. TableContents is the server's JSON-encoded table.
type ResultTable struct {
	TableRows     int    `json:"table_rows"`
	TableCols     int    `json:"table_cols"`
	TableName     string `json:"table_name"`
	TableComment  string `json:"table_comment"`
	TableContents string `json:"table_contents"`
}

// ResultParam is a named parameter of a General Physics CMC.
type ResultParam struct {
	ParameterName  string `json:"parameter_name"`
	ParameterValue string `json:"parameter_value"`
}

// ResultAggregation is a quick-search aggregation bucket.
type ResultAggregation struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// ResultFilter is a quick-search filter node.
type ResultFilter struct {
	Children []ResultFilter `json:"children"`
	Code     string         `json:"code"`
	Count    int            `json:"count"`
	Name     string         `json:"name"`
	Order    int            `json:"order"`
}

// ResultCommon holds the fields shared by all domain-specific CMC records.
// Nested values are nil when the server omitted them or sent an empty value.
type ResultCommon struct {
	ID                     int               `json:"id"`
	ApprovalDate           string            `json:"approval_date"`
	CMC                    *ResultUnit       `json:"cmc,omitempty"`
	CMCBaseUnit            *ResultUnit       `json:"cmc_base_unit,omitempty"`
	CMCUncertainty         *ResultUnit       `json:"cmc_uncertainty,omitempty"`
	CMCUncertaintyBaseUnit *ResultUnit       `json:"cmc_uncertainty_base_unit,omitempty"`
	Comments               string            `json:"comments"`
	ConfidenceLevel        *float64          `json:"confidence_level,omitempty"`
	CountryValue           string            `json:"country_value"`
	CoverageFactor         *float64          `json:"coverage_factor,omitempty"`
	DomainCode             string            `json:"domain_code"`
	GroupIdentifier        string            `json:"group_identifier"`
	KCDBCode               string            `json:"kcdb_code"`
	MetrologyAreaLabel     string            `json:"metrology_area_label"`
	NMICode                string            `json:"nmi_code"`
	NMIName                string            `json:"nmi_name"`
	NMIServiceCode         string            `json:"nmi_service_code"`
	NMIServiceLink         string            `json:"nmi_service_link"`
	PublicationDate        string            `json:"publication_date"`
	QuantityValue          string            `json:"quantity_value"`
	RMO                    string            `json:"rmo"`
	Status                 string            `json:"status"`
	StatusDate             string            `json:"status_date"`
	TraceabilitySource     string            `json:"traceability_source"`
	UncertaintyEquation    *ResultEquation   `json:"uncertainty_equation,omitempty"`
	UncertaintyMode        *AbsoluteRelative `json:"uncertainty_mode,omitempty"`
	UncertaintyTable       *ResultTable      `json:"uncertainty_table,omitempty"`
}

// ResultChemistryBiology is a Chemistry and Biology CMC record.
type ResultChemistryBiology struct {
	ResultCommon
	AnalyteMatrix          string                 `json:"analyte_matrix"`
	AnalyteValue           string                 `json:"analyte_value"`
	CategoryValue          string                 `json:"category_value"`
	CRM                    *ResultUnit            `json:"crm,omitempty"`
	CRMConfidenceLevel     *float64               `json:"crm_confidence_level,omitempty"`
	CRMCoverageFactor      *float64               `json:"crm_coverage_factor,omitempty"`
	CRMUncertainty         *ResultUnit            `json:"crm_uncertainty,omitempty"`
	CRMUncertaintyEquation *ResultEquation        `json:"crm_uncertainty_equation,omitempty"`
	CRMUncertaintyMode     *AbsoluteRelative      `json:"crm_uncertainty_mode,omitempty"`
	CRMUncertaintyTable    *ResultTable           `json:"crm_uncertainty_table,omitempty"`
	MeasurementTechnique   string                 `json:"measurement_technique"`
	Mechanism              string                 `json:"mechanism"`
	SubCategoryValue       string                 `json:"sub_category_value"`
	UncertaintyConvention  *UncertaintyConvention `json:"uncertainty_convention,omitempty"`
}

func (r ResultChemistryBiology) String() string {
	return fmt.Sprintf("ResultChemistryBiology(id=%d, nmi_code=%q, rmo=%q)", r.ID, r.NMICode, r.RMO)
}

// ResultGeneralPhysics is a General Physics CMC record.
type ResultGeneralPhysics struct {
	ResultCommon
	BranchValue            string        `json:"branch_value"`
	IndividualServiceValue string        `json:"individual_service_value"`
	Instrument             string        `json:"instrument"`
	InstrumentMethod       string        `json:"instrument_method"`
	InternationalStandard  string        `json:"international_standard"`
	Parameters             []ResultParam `json:"parameters"`
	ServiceValue           string        `json:"service_value"`
	SubServiceValue        string        `json:"sub_service_value"`
}

func (r ResultGeneralPhysics) String() string {
	return fmt.Sprintf("ResultGeneralPhysics(id=%d, nmi_code=%q, rmo=%q)", r.ID, r.NMICode, r.RMO)
}

// ResultIonizingRadiation is an Ionizing Radiation CMC record.
type ResultIonizingRadiation struct {
	ResultCommon
	BranchValue            string `json:"branch_value"`
	Instrument             string `json:"instrument"`
	InstrumentMethod       string `json:"instrument_method"`
	InternationalStandard  string `json:"international_standard"`
	MediumValue            string `json:"medium_value"`
	NuclideValue           string `json:"nuclide_value"`
	RadiationCode          string `json:"radiation_code"`
	RadiationSpecification string `json:"radiation_specification"`
	ReferenceStandard      string `json:"reference_standard"`
	SourceValue            string `json:"source_value"`
}

func (r ResultIonizingRadiation) String() string {
	return fmt.Sprintf("ResultIonizingRadiation(id=%d, nmi_code=%q, rmo=%q)", r.ID, r.NMICode, r.RMO)
}

// ResultsChemistryBiology is a page of Chemistry and Biology results.
type ResultsChemistryBiology struct {
	Results
	Data []ResultChemistryBiology `json:"data"`
}

func (r ResultsChemistryBiology) Domain() Domain { return DomainChemistryBiology }

func (r ResultsChemistryBiology) String() string {
	return fmt.Sprintf("ResultsChemistryBiology(%s)", r.Results)
}

// ResultsGeneralPhysics is a page of General Physics results.
type ResultsGeneralPhysics struct {
	Results
	Data []ResultGeneralPhysics `json:"data"`
}

func (r ResultsGeneralPhysics) Domain() Domain { return DomainGeneralPhysics }

func (r ResultsGeneralPhysics) String() string {
	return fmt.Sprintf("ResultsGeneralPhysics(%s)", r.Results)
}

// ResultsIonizingRadiation is a page of Ionizing Radiation results.
type ResultsIonizingRadiation struct {
	Results
	Data []ResultIonizingRadiation `json:"data"`
}

func (r ResultsIonizingRadiation) Domain() Domain { return DomainIonizingRadiation }

func (r ResultsIonizingRadiation) String() string {
	return fmt.Sprintf("ResultsIonizingRadiation(%s)", r.Results)
}

// ResultsQuickSearch is a page of quick-search results. Data records span all
// domains and are kept as decoded JSON objects.
type ResultsQuickSearch struct {
	Results
	Aggregations []ResultAggregation `json:"aggregations"`
	Data         []map[string]any    `json:"data"`
	FiltersList  []ResultFilter      `json:"filters_list"`
}

// Domain is the zero Domain: a quick search is not bound to one domain.
func (r ResultsQuickSearch) Domain() Domain { return Domain{} }

func (r ResultsQuickSearch) String() string {
	return fmt.Sprintf("ResultsQuickSearch(%s, len(aggregations)=%d, len(filters_list)=%d)",
		r.Results, len(r.Aggregations), len(r.FiltersList))
}

func fmtFloat(f *float64) string {
	if f == nil {
		return "nil"
	}
	return fmt.Sprint(*f)
}

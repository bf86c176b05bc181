package kcdb

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// referenceRecord is a decoded reference-data item. labelNull records that the
// server sent no label at all, which is how non-ionizing quantities are marked.
type referenceRecord struct {
	ReferenceData
	labelNull bool
}

type wireReference struct {
	ID    *int    `json:"id"`
	Label *string `json:"label"`
	Value *string `json:"value"`
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...))
}

// required collects the first missing required key while a record is being converted.
type required struct {
	err error
}

func (r *required) intKey(p *int, key string) int {
	if p == nil {
		if r.err == nil {
			r.err = malformed("missing required key %q", key)
		}
		return 0
	}
	return *p
}

func (r *required) stringKey(p *string, key string) string {
	if p == nil {
		if r.err == nil {
			r.err = malformed("missing required key %q", key)
		}
		return ""
	}
	return *p
}

func optional(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// truthy reports whether a raw JSON value is set to something non-empty.
// null, false, 0, "", [] and {} are all treated as absent.
func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		// let the typed decode report the problem
		return true
	}
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	return true
}

func unmarshal(body []byte, v any, what string) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", ErrMalformedResponse, what, err)
	}
	return nil
}

// decodeReferenceData decodes a {"referenceData": [...]} body.
func decodeReferenceData(body []byte) ([]referenceRecord, error) {
	var envelope struct {
		ReferenceData *[]wireReference `json:"referenceData"`
	}
	if err := unmarshal(body, &envelope, "reference data"); err != nil {
		return nil, err
	}
	if envelope.ReferenceData == nil {
		return nil, malformed("missing required key %q", "referenceData")
	}

	records := make([]referenceRecord, 0, len(*envelope.ReferenceData))
	for i, w := range *envelope.ReferenceData {
		var req required
		rec := referenceRecord{
			ReferenceData: ReferenceData{
				ID:    req.intKey(w.ID, "id"),
				Label: optional(w.Label),
				Value: req.stringKey(w.Value, "value"),
			},
			labelNull: w.Label == nil,
		}
		if req.err != nil {
			return nil, fmt.Errorf("referenceData[%d]: %w", i, req.err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// decodeDomains decodes a {"domains": [...]} body.
func decodeDomains(body []byte) ([]Domain, error) {
	var envelope struct {
		Domains *[]struct {
			Code *string `json:"code"`
			Name *string `json:"name"`
		} `json:"domains"`
	}
	if err := unmarshal(body, &envelope, "domains"); err != nil {
		return nil, err
	}
	if envelope.Domains == nil {
		return nil, malformed("missing required key %q", "domains")
	}

	domains := make([]Domain, 0, len(*envelope.Domains))
	for i, w := range *envelope.Domains {
		var req required
		d := Domain{Code: req.stringKey(w.Code, "code"), Name: req.stringKey(w.Name, "name")}
		if req.err != nil {
			return nil, fmt.Errorf("domains[%d]: %w", i, req.err)
		}
		domains = append(domains, d)
	}
	return domains, nil
}

type wirePage struct {
	NumberOfElements *int    `json:"numberOfElements"`
	PageNumber       *int    `json:"pageNumber"`
	PageSize         *int    `json:"pageSize"`
	TotalElements    *int    `json:"totalElements"`
	TotalPages       *int    `json:"totalPages"`
	VersionAPIKCDB   *string `json:"versionApiKcdb"`
}

func (w wirePage) results() (Results, error) {
	var req required
	r := Results{
		NumberOfElements: req.intKey(w.NumberOfElements, "numberOfElements"),
		PageNumber:       req.intKey(w.PageNumber, "pageNumber"),
		PageSize:         req.intKey(w.PageSize, "pageSize"),
		TotalElements:    req.intKey(w.TotalElements, "totalElements"),
		TotalPages:       req.intKey(w.TotalPages, "totalPages"),
		VersionAPIKCDB:   optional(w.VersionAPIKCDB),
	}
	return r, req.err
}

func decodeUnit(raw json.RawMessage, key string) (*ResultUnit, error) {
	if !truthy(raw) {
		return nil, nil
	}
	var w struct {
		LowerLimit *float64 `json:"lowerLimit"`
		Unit       *string  `json:"unit"`
		UpperLimit *float64 `json:"upperLimit"`
	}
	if err := unmarshal(raw, &w, key); err != nil {
		return nil, err
	}
	return &ResultUnit{LowerLimit: w.LowerLimit, Unit: optional(w.Unit), UpperLimit: w.UpperLimit}, nil
}

func decodeEquation(raw json.RawMessage, key string) (*ResultEquation, error) {
	if !truthy(raw) {
		return nil, nil
	}
	var w struct {
		Equation        *string `json:"equation"`
		EquationComment *string `json:"equationComment"`
	}
	if err := unmarshal(raw, &w, key); err != nil {
		return nil, err
	}
	return &ResultEquation{Equation: optional(w.Equation), EquationComment: optional(w.EquationComment)}, nil
}

func decodeTable(raw json.RawMessage, key string) (*ResultTable, error) {
	if !truthy(raw) {
		return nil, nil
	}
	var w struct {
		TableRows     *int    `json:"tableRows"`
		TableCols     *int    `json:"tableCols"`
		TableName     *string `json:"tableName"`
		TableComment  *string `json:"tableComment"`
		TableContents *string `json:"tableContents"`
	}
	if err := unmarshal(raw, &w, key); err != nil {
		return nil, err
	}
	var req required
	t := &ResultTable{
		TableRows:     req.intKey(w.TableRows, "tableRows"),
		TableCols:     req.intKey(w.TableCols, "tableCols"),
		TableName:     optional(w.TableName),
		TableComment:  optional(w.TableComment),
		TableContents: optional(w.TableContents),
	}
	if req.err != nil {
		return nil, fmt.Errorf("%s: %w", key, req.err)
	}
	return t, nil
}

func decodeMode(raw json.RawMessage, key string) (*AbsoluteRelative, error) {
	if !truthy(raw) {
		return nil, nil
	}
	var s string
	if err := unmarshal(raw, &s, key); err != nil {
		return nil, err
	}
	v, err := parseAbsoluteRelative(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func decodeConvention(raw json.RawMessage, key string) (*UncertaintyConvention, error) {
	if !truthy(raw) {
		return nil, nil
	}
	var s string
	if err := unmarshal(raw, &s, key); err != nil {
		return nil, err
	}
	v, err := parseUncertaintyConvention(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// nested runs the decoders for optional nested values, stopping at the first failure.
type nested struct {
	err error
}

func (n *nested) unit(raw json.RawMessage, key string) *ResultUnit {
	if n.err != nil {
		return nil
	}
	u, err := decodeUnit(raw, key)
	n.err = err
	return u
}

func (n *nested) equation(raw json.RawMessage, key string) *ResultEquation {
	if n.err != nil {
		return nil
	}
	e, err := decodeEquation(raw, key)
	n.err = err
	return e
}

func (n *nested) table(raw json.RawMessage, key string) *ResultTable {
	if n.err != nil {
		return nil
	}
	t, err := decodeTable(raw, key)
	n.err = err
	return t
}

func (n *nested) mode(raw json.RawMessage, key string) *AbsoluteRelative {
	if n.err != nil {
		return nil
	}
	m, err := decodeMode(raw, key)
	n.err = err
	return m
}

func (n *nested) convention(raw json.RawMessage, key string) *UncertaintyConvention {
	if n.err != nil {
		return nil
	}
	c, err := decodeConvention(raw, key)
	n.err = err
	return c
}

type wireCommon struct {
	ID                     *int            `json:"id"`
	ApprovalDate           *string         `json:"approvalDate"`
	CMC                    json.RawMessage `json:"cmc"`
	CMCBaseUnit            json.RawMessage `json:"cmcBaseUnit"`
	CMCUncertainty         json.RawMessage `json:"cmcUncertainty"`
	CMCUncertaintyBaseUnit json.RawMessage `json:"cmcUncertaintyBaseUnit"`
	Comments               *string         `json:"comments"`
	ConfidenceLevel        *float64        `json:"confidenceLevel"`
	CountryValue           *string         `json:"countryValue"`
	CoverageFactor         *float64        `json:"coverageFactor"`
	DomainCode             *string         `json:"domainCode"`
	GroupIdentifier        *string         `json:"groupIdentifier"`
	KCDBCode               *string         `json:"kcdbCode"`
	MetrologyAreaLabel     *string         `json:"metrologyAreaLabel"`
	NMICode                *string         `json:"nmiCode"`
	NMIName                *string         `json:"nmiName"`
	NMIServiceCode         *string         `json:"nmiServiceCode"`
	NMIServiceLink         *string         `json:"nmiServiceLink"`
	PublicationDate        *string         `json:"publicationDate"`
	QuantityValue          *string         `json:"quantityValue"`
	RMO                    *string         `json:"rmo"`
	Status                 *string         `json:"status"`
	StatusDate             *string         `json:"statusDate"`
	TraceabilitySource     *string         `json:"traceabilitySource"`
	UncertaintyEquation    json.RawMessage `json:"uncertaintyEquation"`
	UncertaintyMode        json.RawMessage `json:"uncertaintyMode"`
	UncertaintyTable       json.RawMessage `json:"uncertaintyTable"`
}

func (w wireCommon) common() (ResultCommon, error) {
	var req required
	var n nested
	c := ResultCommon{
		ID:                     req.intKey(w.ID, "id"),
		ApprovalDate:           optional(w.ApprovalDate),
		CMC:                    n.unit(w.CMC, "cmc"),
		CMCBaseUnit:            n.unit(w.CMCBaseUnit, "cmcBaseUnit"),
		CMCUncertainty:         n.unit(w.CMCUncertainty, "cmcUncertainty"),
		CMCUncertaintyBaseUnit: n.unit(w.CMCUncertaintyBaseUnit, "cmcUncertaintyBaseUnit"),
		Comments:               optional(w.Comments),
		ConfidenceLevel:        w.ConfidenceLevel,
		CountryValue:           optional(w.CountryValue),
		CoverageFactor:         w.CoverageFactor,
		DomainCode:             optional(w.DomainCode),
		GroupIdentifier:        optional(w.GroupIdentifier),
		KCDBCode:               optional(w.KCDBCode),
		MetrologyAreaLabel:     optional(w.MetrologyAreaLabel),
		NMICode:                optional(w.NMICode),
		NMIName:                optional(w.NMIName),
		NMIServiceCode:         optional(w.NMIServiceCode),
		NMIServiceLink:         optional(w.NMIServiceLink),
		PublicationDate:        optional(w.PublicationDate),
		QuantityValue:          optional(w.QuantityValue),
		RMO:                    optional(w.RMO),
		Status:                 optional(w.Status),
		StatusDate:             optional(w.StatusDate),
		TraceabilitySource:     optional(w.TraceabilitySource),
		UncertaintyEquation:    n.equation(w.UncertaintyEquation, "uncertaintyEquation"),
		UncertaintyMode:        n.mode(w.UncertaintyMode, "uncertaintyMode"),
		UncertaintyTable:       n.table(w.UncertaintyTable, "uncertaintyTable"),
	}
	if req.err != nil {
		return c, req.err
	}
	return c, n.err
}

type wireChemistryBiology struct {
	wireCommon
	AnalyteMatrix          *string         `json:"analyteMatrix"`
	AnalyteValue           *string         `json:"analyteValue"`
	CategoryValue          *string         `json:"categoryValue"`
	CRM                    json.RawMessage `json:"crm"`
	CRMConfidenceLevel     *float64        `json:"crmConfidenceLevel"`
	CRMCoverageFactor      *float64        `json:"crmCoverageFactor"`
	CRMUncertainty         json.RawMessage `json:"crmUncertainty"`
	CRMUncertaintyEquation json.RawMessage `json:"crmUncertaintyEquation"`
	CRMUncertaintyMode     json.RawMessage `json:"crmUncertaintyMode"`
	CRMUncertaintyTable    json.RawMessage `json:"crmUncertaintyTable"`
	// the server spells this key without the second "e"
	MeasurementTechnique  *string         `json:"measurmentTechnique"`
	Mechanism             *string         `json:"mechanism"`
	SubCategoryValue      *string         `json:"subCategoryValue"`
	UncertaintyConvention json.RawMessage `json:"uncertaintyConvention"`
}

func (w wireChemistryBiology) result() (ResultChemistryBiology, error) {
	common, err := w.common()
	if err != nil {
		return ResultChemistryBiology{}, err
	}
	var n nested
	r := ResultChemistryBiology{
		ResultCommon:           common,
		AnalyteMatrix:          optional(w.AnalyteMatrix),
		AnalyteValue:           optional(w.AnalyteValue),
		CategoryValue:          optional(w.CategoryValue),
		CRM:                    n.unit(w.CRM, "crm"),
		CRMConfidenceLevel:     w.CRMConfidenceLevel,
		CRMCoverageFactor:      w.CRMCoverageFactor,
		CRMUncertainty:         n.unit(w.CRMUncertainty, "crmUncertainty"),
		CRMUncertaintyEquation: n.equation(w.CRMUncertaintyEquation, "crmUncertaintyEquation"),
		CRMUncertaintyMode:     n.mode(w.CRMUncertaintyMode, "crmUncertaintyMode"),
		CRMUncertaintyTable:    n.table(w.CRMUncertaintyTable, "crmUncertaintyTable"),
		MeasurementTechnique:   optional(w.MeasurementTechnique),
		Mechanism:              optional(w.Mechanism),
		SubCategoryValue:       optional(w.SubCategoryValue),
		UncertaintyConvention:  n.convention(w.UncertaintyConvention, "uncertaintyConvention"),
	}
	return r, n.err
}

type wireParam struct {
	ParameterName  *string `json:"parameterName"`
	ParameterValue *string `json:"parameterValue"`
}

type wireGeneralPhysics struct {
	wireCommon
	BranchValue            *string     `json:"branchValue"`
	IndividualServiceValue *string     `json:"individualServiceValue"`
	Instrument             *string     `json:"instrument"`
	InstrumentMethod       *string     `json:"instrumentMethod"`
	InternationalStandard  *string     `json:"internationalStandard"`
	Parameters             []wireParam `json:"parameters"`
	ServiceValue           *string     `json:"serviceValue"`
	SubServiceValue        *string     `json:"subServiceValue"`
}

func (w wireGeneralPhysics) result() (ResultGeneralPhysics, error) {
	common, err := w.common()
	if err != nil {
		return ResultGeneralPhysics{}, err
	}
	params := make([]ResultParam, 0, len(w.Parameters))
	for _, p := range w.Parameters {
		params = append(params, ResultParam{
			ParameterName:  optional(p.ParameterName),
			ParameterValue: optional(p.ParameterValue),
		})
	}
	return ResultGeneralPhysics{
		ResultCommon:           common,
		BranchValue:            optional(w.BranchValue),
		IndividualServiceValue: optional(w.IndividualServiceValue),
		Instrument:             optional(w.Instrument),
		InstrumentMethod:       optional(w.InstrumentMethod),
		InternationalStandard:  optional(w.InternationalStandard),
		Parameters:             params,
		ServiceValue:           optional(w.ServiceValue),
		SubServiceValue:        optional(w.SubServiceValue),
	}, nil
}

type wireIonizingRadiation struct {
	wireCommon
	BranchValue            *string `json:"branchValue"`
	Instrument             *string `json:"instrument"`
	InstrumentMethod       *string `json:"instrumentMethod"`
	InternationalStandard  *string `json:"internationalStandard"`
	MediumValue            *string `json:"mediumValue"`
	NuclideValue           *string `json:"nuclideValue"`
	RadiationCode          *string `json:"radiationCode"`
	RadiationSpecification *string `json:"radiationSpecification"`
	ReferenceStandard      *string `json:"referenceStandard"`
	SourceValue            *string `json:"sourceValue"`
}

func (w wireIonizingRadiation) result() (ResultIonizingRadiation, error) {
	common, err := w.common()
	if err != nil {
		return ResultIonizingRadiation{}, err
	}
	return ResultIonizingRadiation{
		ResultCommon:           common,
		BranchValue:            optional(w.BranchValue),
		Instrument:             optional(w.Instrument),
		InstrumentMethod:       optional(w.InstrumentMethod),
		InternationalStandard:  optional(w.InternationalStandard),
		MediumValue:            optional(w.MediumValue),
		NuclideValue:           optional(w.NuclideValue),
		RadiationCode:          optional(w.RadiationCode),
		RadiationSpecification: optional(w.RadiationSpecification),
		ReferenceStandard:      optional(w.ReferenceStandard),
		SourceValue:            optional(w.SourceValue),
	}, nil
}

// DecodeResultsChemistryBiology decodes a Chemistry and Biology search response body.
func DecodeResultsChemistryBiology(body []byte) (ResultsChemistryBiology, error) {
	var w struct {
		wirePage
		Data []wireChemistryBiology `json:"data"`
	}
	if err := unmarshal(body, &w, "chemistry and biology results"); err != nil {
		return ResultsChemistryBiology{}, err
	}
	page, err := w.results()
	if err != nil {
		return ResultsChemistryBiology{}, err
	}
	out := ResultsChemistryBiology{Results: page, Data: make([]ResultChemistryBiology, 0, len(w.Data))}
	for i, d := range w.Data {
		r, err := d.result()
		if err != nil {
			return ResultsChemistryBiology{}, fmt.Errorf("data[%d]: %w", i, err)
		}
		out.Data = append(out.Data, r)
	}
	return out, nil
}

// DecodeResultsGeneralPhysics decodes a General Physics search response body.
func DecodeResultsGeneralPhysics(body []byte) (ResultsGeneralPhysics, error) {
	var w struct {
		wirePage
		Data []wireGeneralPhysics `json:"data"`
	}
	if err := unmarshal(body, &w, "general physics results"); err != nil {
		return ResultsGeneralPhysics{}, err
	}
	page, err := w.results()
	if err != nil {
		return ResultsGeneralPhysics{}, err
	}
	out := ResultsGeneralPhysics{Results: page, Data: make([]ResultGeneralPhysics, 0, len(w.Data))}
	for i, d := range w.Data {
		r, err := d.result()
		if err != nil {
			return ResultsGeneralPhysics{}, fmt.Errorf("data[%d]: %w", i, err)
		}
		out.Data = append(out.Data, r)
	}
	return out, nil
}

// DecodeResultsIonizingRadiation decodes an Ionizing Radiation search response body.
func DecodeResultsIonizingRadiation(body []byte) (ResultsIonizingRadiation, error) {
	var w struct {
		wirePage
		Data []wireIonizingRadiation `json:"data"`
	}
	if err := unmarshal(body, &w, "ionizing radiation results"); err != nil {
		return ResultsIonizingRadiation{}, err
	}
	page, err := w.results()
	if err != nil {
		return ResultsIonizingRadiation{}, err
	}
	out := ResultsIonizingRadiation{Results: page, Data: make([]ResultIonizingRadiation, 0, len(w.Data))}
	for i, d := range w.Data {
		r, err := d.result()
		if err != nil {
			return ResultsIonizingRadiation{}, fmt.Errorf("data[%d]: %w", i, err)
		}
		out.Data = append(out.Data, r)
	}
	return out, nil
}

type wireFilter struct {
	Children []wireFilter `json:"children"`
	Code     *string      `json:"code"`
	Count    *int         `json:"count"`
	Name     *string      `json:"name"`
	Order    *int         `json:"order"`
}

func (w wireFilter) filter() (ResultFilter, error) {
	var req required
	f := ResultFilter{
		Code:  optional(w.Code),
		Count: req.intKey(w.Count, "count"),
		Name:  optional(w.Name),
		Order: req.intKey(w.Order, "order"),
	}
	if req.err != nil {
		return ResultFilter{}, req.err
	}
	f.Children = make([]ResultFilter, 0, len(w.Children))
	for _, c := range w.Children {
		child, err := c.filter()
		if err != nil {
			return ResultFilter{}, err
		}
		f.Children = append(f.Children, child)
	}
	return f, nil
}

// DecodeResultsQuickSearch decodes a quick-search response body.
func DecodeResultsQuickSearch(body []byte) (ResultsQuickSearch, error) {
	var w struct {
		wirePage
		Aggregations []struct {
			Name   *string  `json:"name"`
			Values []string `json:"values"`
		} `json:"aggregations"`
		Data        []map[string]any `json:"data"`
		FiltersList []wireFilter     `json:"filtersList"`
	}
	if err := unmarshal(body, &w, "quick search results"); err != nil {
		return ResultsQuickSearch{}, err
	}
	page, err := w.results()
	if err != nil {
		return ResultsQuickSearch{}, err
	}

	out := ResultsQuickSearch{
		Results:      page,
		Aggregations: make([]ResultAggregation, 0, len(w.Aggregations)),
		Data:         w.Data,
		FiltersList:  make([]ResultFilter, 0, len(w.FiltersList)),
	}
	if out.Data == nil {
		out.Data = []map[string]any{}
	}
	for _, a := range w.Aggregations {
		values := a.Values
		if values == nil {
			values = []string{}
		}
		out.Aggregations = append(out.Aggregations, ResultAggregation{Name: optional(a.Name), Values: values})
	}
	for i, f := range w.FiltersList {
		filter, err := f.filter()
		if err != nil {
			return ResultsQuickSearch{}, fmt.Errorf("filtersList[%d]: %w", i, err)
		}
		out.FiltersList = append(out.FiltersList, filter)
	}
	return out, nil
}

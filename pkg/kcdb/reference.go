package kcdb

import (
	"cmp"
	"fmt"
)

// Domain is one of General Physics, Chemistry and Biology or Ionizing Radiation.
type Domain struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// The three KCDB domains.
var (
	DomainChemistryBiology  = Domain{Code: "CHEM-BIO", Name: "Chemistry and Biology"}
	DomainGeneralPhysics    = Domain{Code: "PHYSICS", Name: "General physics"}
	DomainIonizingRadiation = Domain{Code: "RADIATION", Name: "Ionizing radiation"}
)

// CompareDomains orders domains by code, then name.
func CompareDomains(a, b Domain) int {
	if c := cmp.Compare(a.Code, b.Code); c != 0 {
		return c
	}
	return cmp.Compare(a.Name, b.Name)
}

// Reference is implemented by every reference-data entity.
type Reference interface {
	GetID() int
	GetLabel() string
	GetValue() string
}

// ReferenceData holds the fields shared by all reference-data entities.
// Label may be empty for quantities that the server publishes without one.
type ReferenceData struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
	Value string `json:"value"`
}

func (r ReferenceData) GetID() int       { return r.ID }
func (r ReferenceData) GetLabel() string { return r.Label }
func (r ReferenceData) GetValue() string { return r.Value }

func (r ReferenceData) String() string {
	return fmt.Sprintf("id=%d, label=%q, value=%q", r.ID, r.Label, r.Value)
}

// CompareReferenceData orders by id, then label, then value.
func CompareReferenceData(a, b ReferenceData) int {
	if c := cmp.Compare(a.ID, b.ID); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Label, b.Label); c != 0 {
		return c
	}
	return cmp.Compare(a.Value, b.Value)
}

// Country is a country that publishes CMCs. Example: id=58, label="NZ", value="New Zealand".
type Country struct {
	ReferenceData
}

// CountryLabels returns the country's label as a single-element list.
func (c Country) CountryLabels() []string {
	return []string{c.Label}
}

// Analyte is a Chemistry and Biology analyte. Example: id=1, label="nitrogen".
type Analyte struct {
	ReferenceData
}

// Category is a Chemistry and Biology category. Example: id=2, label="10",
// value="Biological fluids and materials".
type Category struct {
	ReferenceData
}

// Nuclide is an Ionizing Radiation nuclide. Example: id=3, label="Ce-144".
type Nuclide struct {
	ReferenceData
}

// NonIonizingQuantity is a quantity that does not belong to Ionizing Radiation.
// Its label is always empty.
type NonIonizingQuantity struct {
	ReferenceData
}

// MetrologyArea is a metrology area of a domain. Example: id=2, label="EM".
type MetrologyArea struct {
	ReferenceData
	Domain Domain `json:"domain"`
}

// Branch is a branch of a metrology area. Example: id=21, label="PR/Fibre".
type Branch struct {
	ReferenceData
	MetrologyArea MetrologyArea `json:"metrology_area"`
}

// Service is a General Physics service. PhysicsCode equals its label.
type Service struct {
	ReferenceData
	Branch      Branch `json:"branch"`
	PhysicsCode string `json:"physics_code"`
}

func (s Service) GetPhysicsCode() string { return s.PhysicsCode }

// SubService is a General Physics sub-service. PhysicsCode is "<service>.<label>".
type SubService struct {
	ReferenceData
	Service     Service `json:"service"`
	PhysicsCode string  `json:"physics_code"`
}

func (s SubService) GetPhysicsCode() string { return s.PhysicsCode }

// IndividualService is a General Physics individual service.
// PhysicsCode is "<service>.<sub service>.<label>".
type IndividualService struct {
	ReferenceData
	SubService  SubService `json:"sub_service"`
	PhysicsCode string     `json:"physics_code"`
}

func (s IndividualService) GetPhysicsCode() string { return s.PhysicsCode }

// Quantity is an Ionizing Radiation quantity of a branch.
type Quantity struct {
	ReferenceData
	Branch Branch `json:"branch"`
}

// Medium is an Ionizing Radiation medium of a branch.
type Medium struct {
	ReferenceData
	Branch Branch `json:"branch"`
}

// Source is an Ionizing Radiation source of a branch.
type Source struct {
	ReferenceData
	Branch Branch `json:"branch"`
}

func newService(branch Branch, data ReferenceData) Service {
	return Service{ReferenceData: data, Branch: branch, PhysicsCode: data.Label}
}

func newSubService(service Service, data ReferenceData) SubService {
	return SubService{ReferenceData: data, Service: service, PhysicsCode: service.PhysicsCode + "." + data.Label}
}

func newIndividualService(sub SubService, data ReferenceData) IndividualService {
	return IndividualService{ReferenceData: data, SubService: sub, PhysicsCode: sub.PhysicsCode + "." + data.Label}
}

// AbsoluteRelative is the uncertainty mode of a CMC.
type AbsoluteRelative string

const (
	Absolute AbsoluteRelative = "Absolute"
	Relative AbsoluteRelative = "Relative"
)

func parseAbsoluteRelative(s string) (AbsoluteRelative, error) {
	switch v := AbsoluteRelative(s); v {
	case Absolute, Relative:
		return v, nil
	}
	return "", fmt.Errorf("%w: %q is not a valid uncertainty mode", ErrMalformedResponse, s)
}

// UncertaintyConvention is the Chemistry and Biology uncertainty convention.
type UncertaintyConvention string

const (
	ConventionOne UncertaintyConvention = "One"
	ConventionTwo UncertaintyConvention = "Two"
)

func parseUncertaintyConvention(s string) (UncertaintyConvention, error) {
	switch v := UncertaintyConvention(s); v {
	case ConventionOne, ConventionTwo:
		return v, nil
	}
	return "", fmt.Errorf("%w: %q is not a valid uncertainty convention", ErrMalformedResponse, s)
}

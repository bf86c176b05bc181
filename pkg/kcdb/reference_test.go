package kcdb

import (
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareDomains(t *testing.T) {
	domains := []Domain{DomainIonizingRadiation, DomainGeneralPhysics, DomainChemistryBiology}
	slices.SortFunc(domains, CompareDomains)

	assert.Equal(t, []Domain{DomainChemistryBiology, DomainGeneralPhysics, DomainIonizingRadiation}, domains)

	// same code, different name
	a := Domain{Code: "PHYSICS", Name: "A"}
	b := Domain{Code: "PHYSICS", Name: "B"}
	assert.Negative(t, CompareDomains(a, b))
	assert.Zero(t, CompareDomains(a, a))
}

func TestCompareReferenceData(t *testing.T) {
	items := []ReferenceData{
		{ID: 2, Label: "b", Value: "x"},
		{ID: 1, Label: "z", Value: "x"},
		{ID: 2, Label: "a", Value: "y"},
		{ID: 2, Label: "a", Value: "x"},
	}
	slices.SortFunc(items, CompareReferenceData)

	assert.Equal(t, []ReferenceData{
		{ID: 1, Label: "z", Value: "x"},
		{ID: 2, Label: "a", Value: "x"},
		{ID: 2, Label: "a", Value: "y"},
		{ID: 2, Label: "b", Value: "x"},
	}, items)
}

func TestEntityEquality(t *testing.T) {
	nz := Country{ReferenceData{ID: 58, Label: "NZ", Value: "New Zealand"}}
	assert.True(t, nz == Country{ReferenceData{ID: 58, Label: "NZ", Value: "New Zealand"}})
	assert.False(t, nz == Country{ReferenceData{ID: 58, Label: "NZ", Value: "Aotearoa"}})

	area := MetrologyArea{ReferenceData{ID: 9, Label: "RI", Value: "Ionizing Radiation"}, DomainIonizingRadiation}
	branch := Branch{ReferenceData{ID: 34, Label: "NEU", Value: "Neutron Measurements"}, area}
	other := branch
	assert.True(t, branch == other)

	other.MetrologyArea.Domain = DomainGeneralPhysics
	assert.False(t, branch == other)
}

func TestPhysicsCodeComposition(t *testing.T) {
	area := MetrologyArea{ReferenceData{ID: 7, Label: "TF", Value: "Time and Frequency"}, DomainGeneralPhysics}
	branch := Branch{ReferenceData{ID: 27, Label: "TF/F", Value: "Frequency"}, area}

	service := newService(branch, ReferenceData{ID: 55, Label: "2", Value: "Frequency"})
	sub := newSubService(service, ReferenceData{ID: 218, Label: "3", Value: "Frequency meter"})
	individual := newIndividualService(sub, ReferenceData{ID: 546, Label: "1", Value: "Frequency counter"})

	assert.Equal(t, "2", service.GetPhysicsCode())
	assert.Equal(t, "2.3", sub.GetPhysicsCode())
	assert.Equal(t, "2.3.1", individual.GetPhysicsCode())

	segments := []string{
		individual.SubService.Service.Label,
		individual.SubService.Label,
		individual.Label,
	}
	assert.Equal(t, strings.Join(segments, "."), individual.PhysicsCode)
	assert.Equal(t, 7, individual.SubService.Service.Branch.MetrologyArea.ID)
}

func TestReferenceAccessors(t *testing.T) {
	var ref Reference = Nuclide{ReferenceData{ID: 3, Label: "Ce-144", Value: "Ce-144"}}
	assert.Equal(t, 3, ref.GetID())
	assert.Equal(t, "Ce-144", ref.GetLabel())
	assert.Equal(t, "Ce-144", ref.GetValue())

	assert.Equal(t, `id=3, label="Ce-144", value="Ce-144"`, ReferenceData{ID: 3, Label: "Ce-144", Value: "Ce-144"}.String())
}

func TestParseEnums(t *testing.T) {
	mode, err := parseAbsoluteRelative("Relative")
	require.NoError(t, err)
	assert.Equal(t, Relative, mode)

	_, err = parseAbsoluteRelative("ABSOLUTE")
	assert.ErrorIs(t, err, ErrMalformedResponse)

	convention, err := parseUncertaintyConvention("One")
	require.NoError(t, err)
	assert.Equal(t, ConventionOne, convention)

	_, err = parseUncertaintyConvention("Three")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

package kcdb

import (
	"context"
	"math"
	"net/http"

	"github.com/sirupsen/logrus"
)

// idRange is the half-open id interval [lo, hi).
type idRange struct {
	lo, hi int
}

func (r idRange) contains(id int) bool {
	return id >= r.lo && id < r.hi
}

// The medium, source and quantity endpoints return one list for every Ionizing
// Radiation branch. These ranges split each list by branch label. The boundaries
// come from the data the server publishes and are not part of any API contract.
var (
	mediumRanges = map[string]idRange{
		"RAD": {math.MinInt, 17},
		"DOS": {17, 24},
		"NEU": {24, math.MaxInt},
	}
	sourceRanges = map[string]idRange{
		"DOS": {math.MinInt, 32},
		"RAD": {32, 35},
		"NEU": {35, math.MaxInt},
	}
	// quantity ids from 78 up are the non-ionizing quantities
	quantityRanges = map[string]idRange{
		"DOS": {math.MinInt, 32},
		"RAD": {32, 47},
		"NEU": {47, 78},
	}
)

// IonizingRadiation navigates and searches the Ionizing Radiation domain.
type IonizingRadiation struct {
	*Client
}

// NewIonizingRadiation creates an Ionizing Radiation navigator with its own Client.
func NewIonizingRadiation(config Config) *IonizingRadiation {
	return &IonizingRadiation{Client: NewClient(config)}
}

func (r *IonizingRadiation) Domain() Domain { return DomainIonizingRadiation }

func (r *IonizingRadiation) String() string {
	return navigatorString("IonizingRadiation", DomainIonizingRadiation)
}

// MetrologyAreas returns the Ionizing Radiation metrology areas.
func (r *IonizingRadiation) MetrologyAreas(ctx context.Context) ([]MetrologyArea, error) {
	return r.metrologyAreas(ctx, DomainIonizingRadiation)
}

// Branches returns the branches of area. Only areas with id >= 9 belong to Ionizing Radiation.
func (r *IonizingRadiation) Branches(ctx context.Context, area MetrologyArea) ([]Branch, error) {
	if area.ID < 9 {
		r.skipped("branches", logrus.Fields{"area_id": area.ID}, "area belongs to another domain")
		return []Branch{}, nil
	}
	return r.branches(ctx, area)
}

// partition fetches path and keeps the records inside the range registered for the branch label.
// Labels without a range yield nothing and send no request.
func (r *IonizingRadiation) partition(ctx context.Context, operation, path string, ranges map[string]idRange, branch Branch) ([]ReferenceData, error) {
	span, known := ranges[branch.Label]
	if !known {
		r.skipped(operation, logrus.Fields{"branch": branch.Label}, "branch is not RAD, DOS or NEU")
		return nil, nil
	}
	all, err := r.referenceData(ctx, path)
	if err != nil {
		return nil, err
	}
	var records []ReferenceData
	for _, rec := range all {
		if span.contains(rec.ID) {
			records = append(records, rec.ReferenceData)
		}
	}
	return records, nil
}

// Mediums returns the mediums of branch.
func (r *IonizingRadiation) Mediums(ctx context.Context, branch Branch) ([]Medium, error) {
	records, err := r.partition(ctx, "mediums", "/referenceData/radiationMedium", mediumRanges, branch)
	if err != nil {
		return nil, err
	}
	mediums := make([]Medium, 0, len(records))
	for _, rec := range records {
		mediums = append(mediums, Medium{ReferenceData: rec, Branch: branch})
	}
	return mediums, nil
}

// Sources returns the sources of branch.
func (r *IonizingRadiation) Sources(ctx context.Context, branch Branch) ([]Source, error) {
	records, err := r.partition(ctx, "sources", "/referenceData/radiationSource", sourceRanges, branch)
	if err != nil {
		return nil, err
	}
	sources := make([]Source, 0, len(records))
	for _, rec := range records {
		sources = append(sources, Source{ReferenceData: rec, Branch: branch})
	}
	return sources, nil
}

// Quantities returns the quantities of branch.
func (r *IonizingRadiation) Quantities(ctx context.Context, branch Branch) ([]Quantity, error) {
	records, err := r.partition(ctx, "quantities", "/referenceData/quantity", quantityRanges, branch)
	if err != nil {
		return nil, err
	}
	quantities := make([]Quantity, 0, len(records))
	for _, rec := range records {
		quantities = append(quantities, Quantity{ReferenceData: rec, Branch: branch})
	}
	return quantities, nil
}

// Nuclides returns every nuclide.
func (r *IonizingRadiation) Nuclides(ctx context.Context) ([]Nuclide, error) {
	records, err := r.referenceData(ctx, "/referenceData/nuclide")
	if err != nil {
		return nil, err
	}
	nuclides := make([]Nuclide, 0, len(records))
	for _, rec := range records {
		nuclides = append(nuclides, Nuclide{ReferenceData: rec.ReferenceData})
	}
	return nuclides, nil
}

// Search runs an Ionizing Radiation CMC search.
func (r *IonizingRadiation) Search(ctx context.Context, q IonizingRadiationQuery) (ResultsIonizingRadiation, error) {
	body, err := q.Body()
	if err != nil {
		return ResultsIonizingRadiation{}, err
	}
	resp, err := r.fetch(ctx, http.MethodPost, "/cmc/searchData/radiation", body)
	if err != nil {
		return ResultsIonizingRadiation{}, err
	}
	return DecodeResultsIonizingRadiation(resp.Body)
}

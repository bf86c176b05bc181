package kcdb

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"github.com/sirupsen/logrus"
)

// ChemistryBiology navigates and searches the Chemistry and Biology domain.
type ChemistryBiology struct {
	*Client
}

// NewChemistryBiology creates a Chemistry and Biology navigator with its own Client.
func NewChemistryBiology(config Config) *ChemistryBiology {
	return &ChemistryBiology{Client: NewClient(config)}
}

func (c *ChemistryBiology) Domain() Domain { return DomainChemistryBiology }

func (c *ChemistryBiology) String() string {
	return navigatorString("ChemistryBiology", DomainChemistryBiology)
}

// MetrologyAreas returns the Chemistry and Biology metrology areas.
func (c *ChemistryBiology) MetrologyAreas(ctx context.Context) ([]MetrologyArea, error) {
	return c.metrologyAreas(ctx, DomainChemistryBiology)
}

// NoBranchesAreaIDs are the Chemistry and Biology areas (Amount of substance)
// for which the branch endpoint is known to answer 404.
var NoBranchesAreaIDs = []int{8}

// Branches returns the branches of area. Areas tagged with another domain
// send no request. A 4xx reply is accepted as "none" only for
// NoBranchesAreaIDs and is reported as ErrUnexpectedResponse otherwise.
func (c *ChemistryBiology) Branches(ctx context.Context, area MetrologyArea) ([]Branch, error) {
	if area.Domain.Code != "" && area.Domain.Code != DomainChemistryBiology.Code {
		c.skipped("branches", logrus.Fields{"area": area.Label}, "area belongs to another domain")
		return []Branch{}, nil
	}

	resp, err := c.send(ctx, http.MethodGet, "/referenceData/branch", nil,
		QueryParam{Key: "areaId", Value: fmt.Sprint(area.ID)})
	if err != nil {
		return nil, err
	}

	if !resp.OK() {
		statusErr := resp.RaiseForStatus()
		switch {
		case resp.StatusCode >= 500:
			return nil, statusErr
		case resp.StatusCode >= 400 && slices.Contains(NoBranchesAreaIDs, area.ID):
			c.skipped("branches", logrus.Fields{
				"area_id": area.ID,
				"status":  resp.StatusCode,
			}, "area has no branches")
			return []Branch{}, nil
		case statusErr != nil:
			return nil, fmt.Errorf("%w: branches of metrology area %d: %w", ErrUnexpectedResponse, area.ID, statusErr)
		default:
			return nil, fmt.Errorf("%w: branches of metrology area %d: status %d", ErrUnexpectedResponse, area.ID, resp.StatusCode)
		}
	}

	records, err := decodeReferenceData(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode /referenceData/branch: %w", err)
	}
	branches := make([]Branch, 0, len(records))
	for _, r := range records {
		branches = append(branches, Branch{ReferenceData: r.ReferenceData, MetrologyArea: area})
	}
	return branches, nil
}

// Analytes returns every analyte.
func (c *ChemistryBiology) Analytes(ctx context.Context) ([]Analyte, error) {
	records, err := c.referenceData(ctx, "/referenceData/analyte")
	if err != nil {
		return nil, err
	}
	analytes := make([]Analyte, 0, len(records))
	for _, r := range records {
		analytes = append(analytes, Analyte{ReferenceData: r.ReferenceData})
	}
	return analytes, nil
}

// Categories returns every category.
func (c *ChemistryBiology) Categories(ctx context.Context) ([]Category, error) {
	records, err := c.referenceData(ctx, "/referenceData/category")
	if err != nil {
		return nil, err
	}
	categories := make([]Category, 0, len(records))
	for _, r := range records {
		categories = append(categories, Category{ReferenceData: r.ReferenceData})
	}
	return categories, nil
}

// Search runs a Chemistry and Biology CMC search.
func (c *ChemistryBiology) Search(ctx context.Context, q ChemistryBiologyQuery) (ResultsChemistryBiology, error) {
	body, err := q.Body()
	if err != nil {
		return ResultsChemistryBiology{}, err
	}
	resp, err := c.fetch(ctx, http.MethodPost, "/cmc/searchData/chemistryAndBiology", body)
	if err != nil {
		return ResultsChemistryBiology{}, err
	}
	return DecodeResultsChemistryBiology(resp.Body)
}

package kcdb

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"github.com/sirupsen/logrus"
)

// NoServicesBranchIDs are the branches (Dosimetry, Radioactivity and Neutron
// Measurements) for which the service endpoint is known to answer 404.
var NoServicesBranchIDs = []int{32, 33, 34}

// NoIndividualServicesSubServiceIDs are the sub services ("Not attributed 1" and
// "Fibre Polarization mode dispersion (inactive)") that have no individual services.
var NoIndividualServicesSubServiceIDs = []int{104, 151}

// GeneralPhysics navigates and searches the General Physics domain.
type GeneralPhysics struct {
	*Client
}

// NewGeneralPhysics creates a General Physics navigator with its own Client.
func NewGeneralPhysics(config Config) *GeneralPhysics {
	return &GeneralPhysics{Client: NewClient(config)}
}

func (g *GeneralPhysics) Domain() Domain { return DomainGeneralPhysics }

func (g *GeneralPhysics) String() string {
	return navigatorString("GeneralPhysics", DomainGeneralPhysics)
}

// MetrologyAreas returns the General Physics metrology areas.
func (g *GeneralPhysics) MetrologyAreas(ctx context.Context) ([]MetrologyArea, error) {
	return g.metrologyAreas(ctx, DomainGeneralPhysics)
}

// Branches returns the branches of area. The QM and RI areas belong to other
// domains and have no General Physics branches.
func (g *GeneralPhysics) Branches(ctx context.Context, area MetrologyArea) ([]Branch, error) {
	if area.Label == "QM" || area.Label == "RI" {
		g.skipped("branches", logrus.Fields{"area": area.Label}, "area belongs to another domain")
		return []Branch{}, nil
	}
	return g.branches(ctx, area)
}

// Services returns the services of branch.
func (g *GeneralPhysics) Services(ctx context.Context, branch Branch) ([]Service, error) {
	if slices.Contains(NoServicesBranchIDs, branch.ID) {
		g.skipped("services", logrus.Fields{"branch_id": branch.ID}, "branch has no services")
		return []Service{}, nil
	}
	records, err := g.referenceData(ctx, "/referenceData/service",
		QueryParam{Key: "branchId", Value: fmt.Sprint(branch.ID)})
	if err != nil {
		return nil, err
	}
	services := make([]Service, 0, len(records))
	for _, r := range records {
		services = append(services, newService(branch, r.ReferenceData))
	}
	return services, nil
}

// SubServices returns the sub services of service.
func (g *GeneralPhysics) SubServices(ctx context.Context, service Service) ([]SubService, error) {
	records, err := g.referenceData(ctx, "/referenceData/subService",
		QueryParam{Key: "serviceId", Value: fmt.Sprint(service.ID)})
	if err != nil {
		return nil, err
	}
	subs := make([]SubService, 0, len(records))
	for _, r := range records {
		subs = append(subs, newSubService(service, r.ReferenceData))
	}
	return subs, nil
}

// IndividualServices returns the individual services of sub. A client error
// reply is only accepted as "none" for NoIndividualServicesSubServiceIDs;
// for any other sub service it is reported as ErrUnexpectedResponse.
func (g *GeneralPhysics) IndividualServices(ctx context.Context, sub SubService) ([]IndividualService, error) {
	resp, err := g.send(ctx, http.MethodGet, "/referenceData/individualService", nil,
		QueryParam{Key: "subServiceId", Value: fmt.Sprint(sub.ID)})
	if err != nil {
		return nil, err
	}

	if !resp.OK() {
		statusErr := resp.RaiseForStatus()
		switch {
		case resp.StatusCode >= 500:
			return nil, statusErr
		case resp.StatusCode >= 400 && slices.Contains(NoIndividualServicesSubServiceIDs, sub.ID):
			g.skipped("individual_services", logrus.Fields{
				"sub_service_id": sub.ID,
				"status":         resp.StatusCode,
			}, "sub service has no individual services")
			return []IndividualService{}, nil
		case statusErr != nil:
			return nil, fmt.Errorf("%w: individual services of sub service %d: %w", ErrUnexpectedResponse, sub.ID, statusErr)
		default:
			return nil, fmt.Errorf("%w: individual services of sub service %d: status %d", ErrUnexpectedResponse, sub.ID, resp.StatusCode)
		}
	}

	records, err := decodeReferenceData(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode /referenceData/individualService: %w", err)
	}
	individual := make([]IndividualService, 0, len(records))
	for _, r := range records {
		individual = append(individual, newIndividualService(sub, r.ReferenceData))
	}
	return individual, nil
}

// Search runs a General Physics CMC search.
func (g *GeneralPhysics) Search(ctx context.Context, q GeneralPhysicsQuery) (ResultsGeneralPhysics, error) {
	body, err := q.Body()
	if err != nil {
		return ResultsGeneralPhysics{}, err
	}
	resp, err := g.fetch(ctx, http.MethodPost, "/cmc/searchData/physics", body)
	if err != nil {
		return ResultsGeneralPhysics{}, err
	}
	return DecodeResultsGeneralPhysics(resp.Body)
}

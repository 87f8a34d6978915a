package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/hvacconnect/marketplace/internal/domain/entities"
	"github.com/hvacconnect/marketplace/internal/domain/providers"
	tsclient "github.com/hvacconnect/marketplace/internal/infrastructure/clients/typesense"
)

const defaultPerPage = 50

// TypesenseAdapter implements TechnicianSearchProvider on a Typesense collection
type TypesenseAdapter struct {
	client *tsclient.Client
}

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

var _ providers.TechnicianSearchProvider = (*TypesenseAdapter)(nil)

// InitSchema ensures the technicians collection exists
func (a *TypesenseAdapter) InitSchema(ctx context.Context) error {
	return a.client.InitSchema(ctx)
}

// Index upserts a technician document
func (a *TypesenseAdapter) Index(ctx context.Context, technician *entities.Technician) error {
	_, err := a.client.Client().Collection(tsclient.TechniciansCollection).Documents().
		Upsert(ctx, technicianDocument(technician))
	if err != nil {
		return fmt.Errorf("failed to index technician %s: %w", technician.ID, err)
	}
	return nil
}

// Search returns the ids of matching technicians in rank order
func (a *TypesenseAdapter) Search(ctx context.Context, query entities.TechnicianSearchQuery) ([]string, error) {
	result, err := a.client.Client().Collection(tsclient.TechniciansCollection).Documents().
		Search(ctx, searchParams(query))
	if err != nil {
		return nil, fmt.Errorf("failed to search technicians: %w", err)
	}
	if result.Hits == nil {
		return nil, nil
	}

	ids := make([]string, 0, len(*result.Hits))
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		if id, ok := (*hit.Document)["id"].(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func technicianDocument(t *entities.Technician) map[string]interface{} {
	specialties := t.Specialties
	if specialties == nil {
		specialties = []string{}
	}
	return map[string]interface{}{
		"id":           t.ID,
		"full_name":    t.FullName,
		"location":     t.Location,
		"bio":          t.Bio,
		"specialties":  specialties,
		"rating":       t.Rating,
		"review_count": t.ReviewCount,
		"available":    t.Available,
		"created_at":   t.CreatedAt.Unix(),
	}
}

func searchParams(query entities.TechnicianSearchQuery) *api.SearchCollectionParams {
	q := strings.TrimSpace(query.Query)
	if q == "" {
		q = "*"
	}

	perPage := query.Limit
	if perPage <= 0 {
		perPage = defaultPerPage
	}

	params := &api.SearchCollectionParams{
		Q:       pointer.String(q),
		QueryBy: pointer.String("full_name,location,specialties"),
		SortBy:  pointer.String("rating:desc,review_count:desc"),
		Page:    pointer.Int(query.Offset/perPage + 1),
		PerPage: pointer.Int(perPage),
	}
	if filter := filterBy(query); filter != "" {
		params.FilterBy = pointer.String(filter)
	}
	return params
}

func filterBy(query entities.TechnicianSearchQuery) string {
	var clauses []string
	if query.MinRating > 0 {
		clauses = append(clauses, fmt.Sprintf("rating:>=%g", query.MinRating))
	}
	if query.Specialty != "" {
		clauses = append(clauses, fmt.Sprintf("specialties:=`%s`", strings.ReplaceAll(query.Specialty, "`", "")))
	}
	if query.AvailableOnly {
		clauses = append(clauses, "available:=true")
	}
	return strings.Join(clauses, " && ")
}

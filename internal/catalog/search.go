// internal/catalog/search.go
package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
)

// propertyDocument is the flattened shape stored in the search index.
type propertyDocument struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Location     string  `json:"location"`
	Rent         float64 `json:"rent"`
	Bedrooms     int     `json:"bedrooms"`
	PropertyType string  `json:"property_type"`
	Bookable     bool    `json:"bookable"`
}

// MeiliIndex implements SearchIndex on a Meilisearch instance.
type MeiliIndex struct {
	client  meilisearch.ServiceManager
	service Service
}

// NewMeiliIndex connects to Meilisearch. The catalog service is attached
// afterwards via Bind so search hits can be hydrated from the read model.
func NewMeiliIndex(host, apiKey string) *MeiliIndex {
	return &MeiliIndex{
		client: meilisearch.New(host, meilisearch.WithAPIKey(apiKey)),
	}
}

// Bind attaches the catalog service used to hydrate search hits.
func (m *MeiliIndex) Bind(service Service) {
	m.service = service
}

// IndexProperty upserts one listing document.
func (m *MeiliIndex) IndexProperty(ctx context.Context, p *Property) error {
	docs := []propertyDocument{{
		ID:           p.ID.String(),
		Title:        p.Title,
		Description:  p.Description,
		Location:     p.Location,
		Rent:         p.Rent,
		Bedrooms:     p.Bedrooms,
		PropertyType: p.PropertyType,
		Bookable:     p.Bookable(),
	}}
	if _, err := m.client.Index("properties").AddDocuments(&docs, nil); err != nil {
		return fmt.Errorf("index property: %w", err)
	}
	return nil
}

// RemoveProperty drops a listing document from the index.
func (m *MeiliIndex) RemoveProperty(ctx context.Context, id uuid.UUID) error {
	if _, err := m.client.Index("properties").DeleteDocument(id.String()); err != nil {
		return fmt.Errorf("remove property from index: %w", err)
	}
	return nil
}

// Search runs a full-text query and hydrates the bookable hits from the
// read model, preserving relevance order.
func (m *MeiliIndex) Search(ctx context.Context, query string) ([]Property, error) {
	resp, err := m.client.Index("properties").Search(query, &meilisearch.SearchRequest{Limit: 50})
	if err != nil {
		return nil, fmt.Errorf("search properties: %w", err)
	}

	raw, err := json.Marshal(resp.Hits)
	if err != nil {
		return nil, fmt.Errorf("decode search hits: %w", err)
	}
	var docs []propertyDocument
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("decode search hits: %w", err)
	}

	properties := make([]Property, 0, len(docs))
	for _, doc := range docs {
		if !doc.Bookable || m.service == nil {
			continue
		}
		id, err := uuid.Parse(doc.ID)
		if err != nil {
			continue
		}
		p, err := m.service.GetProperty(ctx, id)
		if err != nil {
			continue
		}
		properties = append(properties, *p)
	}
	return properties, nil
}

package typesense

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hvacconnect/marketplace/pkg/config"
)

func TestTechnicianSchema(t *testing.T) {
	schema := TechnicianSchema()
	assert.Equal(t, TechniciansCollection, schema.Name)

	fields := map[string]string{}
	for _, f := range schema.Fields {
		fields[f.Name] = f.Type
	}
	assert.Equal(t, "string[]", fields["specialties"])
	assert.Equal(t, "bool", fields["available"])

	// The default sorting field must be a required numeric field
	require.NotNil(t, schema.DefaultSortingField)
	sortField := *schema.DefaultSortingField
	assert.Equal(t, "float", fields[sortField])
	for _, f := range schema.Fields {
		if f.Name == sortField {
			assert.Nil(t, f.Optional)
		}
	}
}

func TestClient_Integration(t *testing.T) {
	if os.Getenv("TEST_INTEGRATION") != "true" {
		t.Skip("Skipping integration test")
	}

	cfg := &config.TypesenseConfig{
		Enabled: true,
		URL:     "http://localhost:8108",
		APIKey:  "xyz",
	}

	client, err := NewClient(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	require.NoError(t, client.InitSchema(ctx))
	// Second call finds the existing collection
	require.NoError(t, client.InitSchema(ctx))

	doc := map[string]interface{}{
		"id":           "test-technician-1",
		"full_name":    "Sam Rivera",
		"location":     "Austin, TX",
		"specialties":  []string{"Heating", "Cooling"},
		"rating":       4.5,
		"review_count": 2,
		"available":    true,
		"created_at":   time.Now().Unix(),
	}
	_, err = client.Client().Collection(TechniciansCollection).Documents().Upsert(ctx, doc)
	assert.NoError(t, err)

	assert.NoError(t, client.DropSchema(ctx))
}

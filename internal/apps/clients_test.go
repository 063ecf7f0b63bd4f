package apps

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arrmada/internal/remote"
)

func schemaWithFields(names ...string) *ClientSchema {
	s := &ClientSchema{Implementation: "SABnzbd", ConfigContract: "SABnzbdSettings"}
	for _, n := range names {
		s.Fields = append(s.Fields, SchemaField{Name: n})
	}
	return s
}

func TestCategoryFieldName(t *testing.T) {
	tests := []struct {
		name   string
		schema *ClientSchema
		app    string
		want   string
	}{
		{"sonarr schema", schemaWithFields("host", "port", "tvCategory"), "Sonarr", "tvCategory"},
		{"radarr schema", schemaWithFields("host", "port", "movieCategory"), "Radarr", "movieCategory"},
		{"generic schema", schemaWithFields("host", "category"), "Sonarr", "category"},
		{"no schema radarr", nil, "Radarr", "movieCategory"},
		{"no schema sonarr", nil, "Sonarr", "tvCategory"},
		{"schema without category falls through", schemaWithFields("host", "port"), "Radarr", "movieCategory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, categoryFieldName(tt.schema, tt.app))
		})
	}
}

func fieldByName(fields []remote.Field, name string) (remote.Field, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return remote.Field{}, false
}

func TestDesiredQBittorrentClient(t *testing.T) {
	d := desiredQBittorrentClient(QBittorrentClientSpec{
		Name: "qbittorrent", Host: "gluetun", Port: 8080,
		Username: "user", Password: "pass", Category: "tv",
	})

	require.NoError(t, remote.Validate(d))
	assert.Equal(t, "QBittorrent", d.Implementation)
	assert.Equal(t, "torrent", d.Attrs["protocol"])
	assert.Equal(t, 2, d.Attrs["priority"])

	f, ok := fieldByName(d.Fields, "host")
	require.True(t, ok)
	assert.Equal(t, "gluetun", f.Value)
	_, ok = fieldByName(d.Fields, "category")
	assert.True(t, ok)
}

func TestDesiredSABnzbdClientWithSchema(t *testing.T) {
	schema := schemaWithFields("host", "port", "apiKey", "tvCategory", "recentTvPriority")
	schema.Fields[4].DefaultValue = json.RawMessage(`-100`)

	d := desiredSABnzbdClient(SABnzbdClientSpec{
		Name: "sabnzbd", Host: "sabnzbd", Port: 8080, APIKey: "k", Category: "tv",
	}, schema, "Sonarr")

	require.NoError(t, remote.Validate(d))
	assert.Equal(t, "usenet", d.Attrs["protocol"])
	assert.Equal(t, 1, d.Attrs["priority"])

	// Desired values land on schema fields, schema order preserved.
	assert.Equal(t, "host", d.Fields[0].Name)
	assert.Equal(t, "sabnzbd", d.Fields[0].Value)

	cat, ok := fieldByName(d.Fields, "tvCategory")
	require.True(t, ok)
	assert.Equal(t, "tv", cat.Value)

	// Untouched schema fields keep their defaults.
	prio, ok := fieldByName(d.Fields, "recentTvPriority")
	require.True(t, ok)
	assert.Equal(t, float64(-100), prio.Value)
}

func TestDesiredSABnzbdClientWithoutSchema(t *testing.T) {
	d := desiredSABnzbdClient(SABnzbdClientSpec{
		Name: "sabnzbd", Host: "sabnzbd", Port: 8080, APIKey: "k", Category: "movies",
	}, nil, "Radarr")

	require.NoError(t, remote.Validate(d))
	cat, ok := fieldByName(d.Fields, "movieCategory")
	require.True(t, ok)
	assert.Equal(t, "movies", cat.Value)

	key, ok := fieldByName(d.Fields, "apiKey")
	require.True(t, ok)
	assert.Equal(t, "k", key.Value)
}

func TestSchemaFieldSeed(t *testing.T) {
	f := SchemaField{Name: "x", Value: json.RawMessage(`"set"`), DefaultValue: json.RawMessage(`"default"`)}
	assert.Equal(t, "set", f.Seed())

	f = SchemaField{Name: "x", DefaultValue: json.RawMessage(`42`)}
	assert.Equal(t, float64(42), f.Seed())

	f = SchemaField{Name: "x"}
	assert.Nil(t, f.Seed())
}

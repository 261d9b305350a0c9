package migration

import (
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/storefront/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList(t *testing.T) {
	fsys := fstest.MapFS{
		"000002_b.up.sql":   {Data: []byte("SELECT 1;")},
		"000002_b.down.sql": {Data: []byte("SELECT 1;")},
		"000001_a.up.sql":   {Data: []byte("SELECT 1;")},
		"000001_a.down.sql": {Data: []byte("SELECT 1;")},
		"README.md":         {Data: []byte("docs")},
		"nested/x.up.sql":   {Data: []byte("SELECT 1;")},
	}

	names, err := List(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_a", "000002_b"}, names)
}

func TestEmbeddedMigrations_ArePaired(t *testing.T) {
	names, err := ListEmbedded()
	require.NoError(t, err)
	require.NotEmpty(t, names)

	for _, name := range names {
		for _, suffix := range []string{".up.sql", ".down.sql"} {
			_, err := fs.Stat(migrations.FS, name+suffix)
			assert.NoError(t, err, "missing %s%s", name, suffix)
		}
	}
}

func TestEmbeddedMigrations_DeclareUniqueConstraints(t *testing.T) {
	data, err := fs.ReadFile(migrations.FS, "000001_create_catalog.up.sql")
	require.NoError(t, err)
	schema := string(data)

	for _, constraint := range []string{"uq_categories_slug", "uq_vendors_slug", "uq_products_slug", "uq_products_source_url"} {
		assert.True(t, strings.Contains(schema, constraint), "schema lacks %s", constraint)
	}
	assert.Contains(t, schema, "category_id       UUID NOT NULL")
	assert.Contains(t, schema, "vendor_id         UUID NOT NULL")
}

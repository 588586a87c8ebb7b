package migrations

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion(t *testing.T) {
	assert.Equal(t, "001", Version("001_init.sql"))
	assert.Equal(t, "002", Version("sql/002_letters.sql"))
}

func TestPendingSortsAndFilters(t *testing.T) {
	fsys := fstest.MapFS{
		"002_offers.sql": {Data: []byte("SELECT 1;")},
		"001_init.sql":   {Data: []byte("SELECT 1;")},
		"README.md":      {Data: []byte("notes")},
		"003_dir/x.sql":  {Data: []byte("SELECT 1;")},
	}

	files, err := Pending(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init.sql", "002_offers.sql"}, files)
}

func TestEmbeddedSchemaDeclaresLetterUniqueness(t *testing.T) {
	files, err := Pending(Embedded())
	require.NoError(t, err)
	require.NotEmpty(t, files)

	content, err := Files.ReadFile("sql/" + files[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), "letter_artifacts_application_type_key UNIQUE (application_id, letter_type)")
}

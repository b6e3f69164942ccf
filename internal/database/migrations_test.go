package database

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"competency-assessment/migrations"
)

func TestReadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"002_add_profiles.up.sql":   {Data: []byte("CREATE TABLE b();")},
		"002_add_profiles.down.sql": {Data: []byte("DROP TABLE b;")},
		"001_init.up.sql":           {Data: []byte("CREATE TABLE a();")},
		"003_orphan.down.sql":       {Data: []byte("DROP TABLE c;")},
		"README.md":                 {Data: []byte("docs")},
		"noversion.up.sql":          {Data: []byte("SELECT 1;")},
	}

	got, err := ReadMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "001", got[0].Version)
	assert.Equal(t, "init", got[0].Title)
	assert.Empty(t, got[0].DownSQL)

	assert.Equal(t, "002", got[1].Version)
	assert.Equal(t, "add profiles", got[1].Title)
	assert.Equal(t, "DROP TABLE b;", got[1].DownSQL)
	assert.Equal(t, calculateChecksum("CREATE TABLE b();"), got[1].Checksum)
}

func TestValidateChecksums(t *testing.T) {
	migrations := []Migration{
		{Version: "001", Title: "init", Checksum: calculateChecksum("a")},
		{Version: "002", Title: "next", Checksum: calculateChecksum("b")},
	}

	assert.NoError(t, validateChecksums(migrations, map[string]string{
		"001": calculateChecksum("a"),
	}))
	assert.NoError(t, validateChecksums(migrations, map[string]string{"001": ""}))

	err := validateChecksums(migrations, map[string]string{
		"001": calculateChecksum("a"),
		"002": calculateChecksum("edited"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Migration 002 (next)")
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	got, err := ReadMigrations(migrations.Files)
	require.NoError(t, err)
	require.NotEmpty(t, got)

	for _, m := range got {
		assert.NotEmpty(t, m.DownSQL, "migration %s has no down file", m.Version)
	}
}

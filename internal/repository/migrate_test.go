package repository

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/migrations"
)

func TestLoadMigrations_Embedded(t *testing.T) {
	t.Parallel()

	all, err := LoadMigrations(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, all)

	assert.Equal(t, "000001_users", all[0].Name)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Name, all[i].Name)
	}
	for _, m := range all {
		assert.NotEmpty(t, m.Up, m.Name)
		assert.NotEmpty(t, m.Down, m.Name)
	}
}

func TestLoadMigrations_MissingDown(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"000001_a.up.sql":   {Data: []byte("CREATE TABLE a ();")},
		"000001_a.down.sql": {Data: []byte("DROP TABLE a;")},
		"000002_b.up.sql":   {Data: []byte("CREATE TABLE b ();")},
	}

	_, err := LoadMigrations(fsys)
	assert.ErrorContains(t, err, "000002_b")
}

func TestPending(t *testing.T) {
	t.Parallel()

	all := []Migration{{Name: "000001_a"}, {Name: "000002_b"}, {Name: "000003_c"}}

	got := pending(all, []string{"000001_a"})
	require.Len(t, got, 2)
	assert.Equal(t, "000002_b", got[0].Name)
	assert.Equal(t, "000003_c", got[1].Name)

	assert.Empty(t, pending(all, []string{"000001_a", "000002_b", "000003_c"}))
	assert.Len(t, pending(all, nil), 3)
}

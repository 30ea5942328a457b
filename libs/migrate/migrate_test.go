package migrate

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceReadsVersionedFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"0001_init.up.sql":     {Data: []byte("CREATE TABLE a (id INT);")},
		"0001_init.down.sql":   {Data: []byte("DROP TABLE a;")},
		"0002_second.up.sql":   {Data: []byte("CREATE TABLE b (id INT);")},
		"0002_second.down.sql": {Data: []byte("DROP TABLE b;")},
	}
	src, err := newSource(fsys)
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	next, err := src.Next(first)
	require.NoError(t, err)
	assert.Equal(t, uint(2), next)
}

func TestSourceWithoutMigrationsFails(t *testing.T) {
	src, err := newSource(fstest.MapFS{"README.md": {Data: []byte("nothing")}})
	require.NoError(t, err)
	defer src.Close()

	_, err = src.First()
	assert.Error(t, err)
}

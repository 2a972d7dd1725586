package snapshot_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civiclens/legistry/internal/snapshot"
	"github.com/civiclens/legistry/pkg/legis"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "wy"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "ak"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".cache"), 0o755))
	writeFile(t, dir, "notes.txt", "not a jurisdiction")

	names, err := snapshot.List(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"ak", "wy"}, names, "sorted, directories only, hidden skipped")
}

func TestLoadYAMLAndJSON(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "ex")
	require.NoError(t, os.Mkdir(base, 0o755))

	writeFile(t, base, "legislators.yaml", `
- full_name: Jane Doe
  term: T1
  chamber: upper
  district: "4"
`)
	writeFile(t, base, "bills.json", `[
  {"session": "S1", "chamber": "upper", "bill_id": "SB 1", "title": "An Act"}
]`)

	batch, err := snapshot.Load(dir, "ex")
	require.NoError(t, err)

	require.Len(t, batch.Legislators, 1)
	assert.Equal(t, "Jane Doe", batch.Legislators[0].FullName)
	assert.Equal(t, legis.ChamberUpper, batch.Legislators[0].Chamber)
	assert.Equal(t, "ex", batch.Legislators[0].Jurisdiction, "directory name fills the jurisdiction")

	require.Len(t, batch.Bills, 1)
	assert.Equal(t, "SB 1", batch.Bills[0].BillID)
	assert.Equal(t, "ex", batch.Bills[0].Jurisdiction)

	assert.Nil(t, batch.Committees, "missing files stay nil")
	assert.Nil(t, batch.Votes)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "ex")
	require.NoError(t, os.Mkdir(base, 0o755))
	writeFile(t, base, "votes.json", "{not json")

	_, err := snapshot.Load(dir, "ex")
	assert.Error(t, err)
}

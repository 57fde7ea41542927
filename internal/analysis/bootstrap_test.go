package analysis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dermascan/dermascan-go/internal/conf"
)

func bootstrapSettings(t *testing.T) *conf.Settings {
	t.Helper()
	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = t.TempDir() + "/test.db"
	return settings
}

func TestBootstrapWithoutModelSeedsBuiltinCatalog(t *testing.T) {
	settings := bootstrapSettings(t)

	pipeline, store, err := Bootstrap(settings, nil, false)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })

	assert.Nil(t, pipeline.classifier)

	entries, err := store.CatalogEntries()
	require.NoError(t, err)
	codes := make([]string, len(entries))
	for i, e := range entries {
		codes[i] = e.Code
	}
	assert.Equal(t, []string{"AKIEC", "BCC", "BKL", "DF", "MEL", "NV", "VASC"}, codes)
}

func TestBootstrapWithoutModelHonorsLabelPath(t *testing.T) {
	labels := filepath.Join(t.TempDir(), "labels.txt")
	require.NoError(t, os.WriteFile(labels,
		[]byte("MEL_Melanoma\nSCC_Squamous Cell Carcinoma\n"), 0o644))

	settings := bootstrapSettings(t)
	settings.DermNET.LabelPath = labels

	// The seed path must use the same class table the serving path would,
	// or the catalog codes drift from the configured model's outputs.
	_, store, err := Bootstrap(settings, nil, false)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })

	entries, err := store.CatalogEntries()
	require.NoError(t, err)
	codes := make([]string, len(entries))
	for i, e := range entries {
		codes[i] = e.Code
	}
	assert.Equal(t, []string{"MEL", "SCC"}, codes)
}

func TestBootstrapWithoutModelRejectsBadLabelPath(t *testing.T) {
	settings := bootstrapSettings(t)
	settings.DermNET.LabelPath = filepath.Join(t.TempDir(), "missing.txt")

	_, _, err := Bootstrap(settings, nil, false)
	require.Error(t, err)
}

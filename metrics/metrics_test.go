package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordPersist(t *testing.T) {
	okBefore := testutil.ToFloat64(PersistCount("ok"))
	errBefore := testutil.ToFloat64(PersistCount("error"))

	RecordPersist(0, errors.New("quota exceeded"))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(PersistCount("error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(unsaved))

	RecordPersist(2048, nil)
	assert.Equal(t, okBefore+1, testutil.ToFloat64(PersistCount("ok")))
	assert.Equal(t, float64(2048), testutil.ToFloat64(blobBytes))
	assert.Equal(t, float64(0), testutil.ToFloat64(unsaved))
}

func TestRecordMutation(t *testing.T) {
	before := testutil.ToFloat64(MutationCount("signup", "error"))
	RecordMutation("signup", errors.New("email already registered"))
	assert.Equal(t, before+1, testutil.ToFloat64(MutationCount("signup", "error")))
}

func TestRegistryGathers(t *testing.T) {
	ObserveReload(3 * time.Millisecond)

	families, err := Registry.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["collaborax_state_reload_duration_seconds"])
	assert.True(t, names["collaborax_store_blob_bytes"])
}

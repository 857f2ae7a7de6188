package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddBytesCopied(t *testing.T) {
	before := testutil.ToFloat64(bytesCopied)

	AddBytesCopied(42)
	AddBytesCopied(0)
	AddBytesCopied(-5)

	assert.InDelta(t, before+42, testutil.ToFloat64(bytesCopied), 0.001)
}

func TestRecordEntry(t *testing.T) {
	before := testutil.ToFloat64(archiveEntries.WithLabelValues(EntrySkipped))

	RecordEntry(EntrySkipped)
	RecordEntry(EntrySkipped)

	assert.InDelta(t, before+2, testutil.ToFloat64(archiveEntries.WithLabelValues(EntrySkipped)), 0.001)
}

func TestRecordOperation(t *testing.T) {
	okBefore := testutil.ToFloat64(operationsTotal.WithLabelValues("zip", "success"))
	failBefore := testutil.ToFloat64(operationsTotal.WithLabelValues("zip", "failure"))

	RecordOperation("zip", true)
	RecordOperation("zip", false)

	assert.InDelta(t, okBefore+1, testutil.ToFloat64(operationsTotal.WithLabelValues("zip", "success")), 0.001)
	assert.InDelta(t, failBefore+1, testutil.ToFloat64(operationsTotal.WithLabelValues("zip", "failure")), 0.001)
}

func TestWriteTextfile(t *testing.T) {
	RecordCopyFailure("fatal")

	path := filepath.Join(t.TempDir(), "vfszip.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "vfszip_copy_failures_total")
}

// Package metrics provides Prometheus metrics for the archiving engine.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bytesCopied = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vfszip_bytes_copied_total",
			Help: "Total bytes moved through the buffered stream copier",
		},
	)

	copyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vfszip_copy_failures_total",
			Help: "Total failed stream copies by failure kind",
		},
		[]string{"kind"},
	)

	archiveEntries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vfszip_archive_entries_total",
			Help: "Total archive entries handled by operation",
		},
		[]string{"op"},
	)

	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vfszip_operations_total",
			Help: "Total archive and tree operations by result",
		},
		[]string{"op", "result"},
	)
)

// Entry operation labels.
const (
	EntryZipped    = "zipped"
	EntryUnzipped  = "unzipped"
	EntrySkipped   = "skipped"
	EntryVersioned = "versioned"
)

// AddBytesCopied adds n to the copied bytes counter.
func AddBytesCopied(n int64) {
	if n > 0 {
		bytesCopied.Add(float64(n))
	}
}

// RecordCopyFailure records a failed copy of the given kind.
func RecordCopyFailure(kind string) {
	copyFailures.WithLabelValues(kind).Inc()
}

// RecordEntry records one archive entry for the given operation label.
func RecordEntry(op string) {
	archiveEntries.WithLabelValues(op).Inc()
}

// RecordOperation records the outcome of a top-level operation.
func RecordOperation(op string, ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	operationsTotal.WithLabelValues(op, result).Inc()
}

// WriteTextfile writes all registered metrics to path in the text exposition
// format, suitable for the node exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("(metrics) failed to write textfile: %w", err)
	}

	return nil
}

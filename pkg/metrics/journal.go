package metrics

// JournalMetrics observes journal protocol traffic. A nil-safe no-op
// implementation backs sessions created without metrics.
type JournalMetrics interface {
	// RecordQuery counts one journal metadata query by final status.
	RecordQuery(status string)

	// RecordRead counts one completed paged read: its final status, the
	// number of records delivered and the number of physical read calls
	// it took.
	RecordRead(status string, records int, physicalReads int)

	// RecordBytesRead counts raw journal bytes returned by the kernel.
	RecordBytesRead(bytes int)

	// RecordDecodeError counts fatal codec violations.
	RecordDecodeError()

	// SetOpenHandles tracks the session's cached volume handle count.
	SetOpenHandles(count int)
}

// noopJournalMetrics discards every observation.
type noopJournalMetrics struct{}

// NewNoopJournalMetrics returns the zero-overhead implementation.
func NewNoopJournalMetrics() JournalMetrics {
	return noopJournalMetrics{}
}

func (noopJournalMetrics) RecordQuery(string)         {}
func (noopJournalMetrics) RecordRead(string, int, int) {}
func (noopJournalMetrics) RecordBytesRead(int)         {}
func (noopJournalMetrics) RecordDecodeError()          {}
func (noopJournalMetrics) SetOpenHandles(int)          {}

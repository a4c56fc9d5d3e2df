package executor

import (
	"encoding/json"
	"os"
	"testing"
)

func TestSampleProcessSelf(t *testing.T) {
	if _, err := os.Stat("/proc/self/stat"); err != nil {
		t.Skip("procfs unavailable")
	}

	sample, err := sampleProcess(os.Getpid())
	if err != nil {
		t.Fatalf("sampleProcess: %v", err)
	}
	if sample.RSSBytes <= 0 {
		t.Errorf("rss = %d", sample.RSSBytes)
	}
	if _, err := os.ReadFile("/proc/self/io"); err == nil && sample.IOOps == 0 {
		t.Error("io op count should be non-zero for the test process")
	}
	if sample.Timestamp.IsZero() {
		t.Error("sample missing timestamp")
	}
}

func TestMetricsSampleFieldNames(t *testing.T) {
	raw, err := json.Marshal(MetricsSample{})
	if err != nil {
		t.Fatal(err)
	}
	var keys map[string]any
	json.Unmarshal(raw, &keys)
	for _, key := range []string{"timestamp", "cpu_ticks", "rss_bytes", "io_op_count", "network_connection_count"} {
		if _, ok := keys[key]; !ok {
			t.Errorf("sample key %q missing; got %v", key, keys)
		}
	}
}

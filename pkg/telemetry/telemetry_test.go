package telemetry

import (
	"testing"
	"time"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"missing service name", func(c *Config) { c.ServiceName = "" }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, true},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, true},
		{"otlp without endpoint", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.Exporter = "otlp"
		}, true},
		{"stdout exporter ok", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.Exporter = "stdout"
		}, false},
		{"sampling rate out of range", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.Exporter = "none"
			c.Tracing.SamplingRate = 1.5
		}, true},
		{"metrics without address", func(c *Config) { c.Metrics.Enabled = true }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEventPublisher_SynchronousDelivery(t *testing.T) {
	ep, err := NewEventPublisher(EventsConfig{Enabled: true})
	if err != nil {
		t.Fatalf("NewEventPublisher() error: %v", err)
	}
	defer ep.Close()

	var got []Event
	ep.Subscribe(func(ev Event) { got = append(got, ev) })

	if err := ep.PublishArtifactWritten("run-1", "user-repo", "out/user_repo.go", "merge_custom_blocks"); err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	if err := ep.PublishBlocksOrphaned("run-1", "user-repo", "out/user_repo.go", []string{"legacy"}); err != nil {
		t.Fatalf("Publish error: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Type != EventTypeArtifactWritten || got[1].Type != EventTypeBlocksOrphaned {
		t.Errorf("unexpected event types: %s, %s", got[0].Type, got[1].Type)
	}
	if got[0].ID == "" || got[0].Timestamp.IsZero() {
		t.Error("published event is missing id or timestamp")
	}
	if got[1].Level != EventLevelWarning {
		t.Errorf("orphan event level = %q, want warning", got[1].Level)
	}
}

func TestEventPublisher_Disabled(t *testing.T) {
	ep, err := NewEventPublisher(EventsConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewEventPublisher() error: %v", err)
	}
	delivered := false
	ep.Subscribe(func(Event) { delivered = true })
	if err := ep.PublishRunStarted("run-1", "demo"); err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	if delivered {
		t.Error("disabled publisher must not deliver events")
	}
}

func TestMetrics_DisabledIsNoOp(t *testing.T) {
	m, err := NewMetrics(MetricsConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewMetrics() error: %v", err)
	}
	// None of these may panic on the zero collectors.
	m.RecordRunStarted()
	m.RecordRunCompleted("success", time.Second)
	m.RecordMerge("overwrite", "write", time.Millisecond)
	m.RecordParseError()
	m.RecordOrphanedBlocks(3)
	m.RecordPolicyDenial("protect-custom-blocks")
	m.RecordError("parse")
}

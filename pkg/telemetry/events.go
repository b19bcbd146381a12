package telemetry

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event represents one generator lifecycle event.
type Event struct {
	// ID is the unique identifier for this event.
	ID string `json:"id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type is the event type.
	Type string `json:"type"`

	// Source identifies where the event originated.
	Source string `json:"source"`

	// RunID is the associated generation run, if applicable.
	RunID string `json:"run_id,omitempty"`

	// ArtifactID is the associated artifact, if applicable.
	ArtifactID string `json:"artifact_id,omitempty"`

	// OutputPath is the target file, if applicable.
	OutputPath string `json:"output_path,omitempty"`

	// Message is a human-readable event message.
	Message string `json:"message"`

	// Level is the event severity level (info, warning, error).
	Level string `json:"level"`

	// Data contains additional event-specific data.
	Data map[string]interface{} `json:"data,omitempty"`
}

// EventType constants for generator events.
const (
	EventTypeRunStarted      = "run.started"
	EventTypeRunCompleted    = "run.completed"
	EventTypeRunFailed       = "run.failed"
	EventTypeArtifactWritten = "artifact.written"
	EventTypeArtifactSkipped = "artifact.skipped"
	EventTypeMergeFailed     = "merge.failed"
	EventTypeBlocksOrphaned  = "blocks.orphaned"
	EventTypePolicyViolation = "policy.violation"
)

// EventLevel constants for event severity.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// EventSubscriber is a function that handles events.
type EventSubscriber func(event Event)

// EventPublisher manages event publishing and subscriptions.
type EventPublisher struct {
	config      EventsConfig
	buffer      chan Event
	subscribers []EventSubscriber
	wg          sync.WaitGroup
	mu          sync.RWMutex
	done        chan struct{}
	closeOnce   sync.Once
}

// NewEventPublisher creates a new event publisher with the given configuration.
func NewEventPublisher(cfg EventsConfig) (*EventPublisher, error) {
	ep := &EventPublisher{
		config: cfg,
		done:   make(chan struct{}),
	}
	if !cfg.Enabled {
		return ep, nil
	}

	if cfg.EnableAsync {
		size := cfg.BufferSize
		if size <= 0 {
			size = 256
		}
		ep.buffer = make(chan Event, size)
		ep.wg.Add(1)
		go ep.processEvents()
	}

	return ep, nil
}

func (ep *EventPublisher) processEvents() {
	defer ep.wg.Done()
	for {
		select {
		case ev := <-ep.buffer:
			ep.deliver(ev)
		case <-ep.done:
			// Drain whatever is left before stopping.
			for {
				select {
				case ev := <-ep.buffer:
					ep.deliver(ev)
				default:
					return
				}
			}
		}
	}
}

func (ep *EventPublisher) deliver(ev Event) {
	ep.mu.RLock()
	subs := ep.subscribers
	ep.mu.RUnlock()
	for _, sub := range subs {
		sub(ev)
	}
}

// Subscribe registers a subscriber for every published event.
func (ep *EventPublisher) Subscribe(subscriber EventSubscriber) {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	ep.subscribers = append(ep.subscribers, subscriber)
}

// Publish publishes an event to all subscribers.
func (ep *EventPublisher) Publish(event Event) error {
	if !ep.config.Enabled {
		return nil
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if ep.config.EnableAsync {
		select {
		case ep.buffer <- event:
			return nil
		case <-ep.done:
			return fmt.Errorf("event publisher stopped")
		default:
			return fmt.Errorf("event buffer full, event dropped")
		}
	}

	ep.deliver(event)
	return nil
}

// PublishRunStarted publishes a run started event.
func (ep *EventPublisher) PublishRunStarted(runID, workspace string) error {
	return ep.Publish(Event{
		Type:    EventTypeRunStarted,
		Source:  "generator",
		RunID:   runID,
		Message: fmt.Sprintf("Generation run %s started for workspace %s", runID, workspace),
		Level:   EventLevelInfo,
		Data:    map[string]interface{}{"workspace": workspace},
	})
}

// PublishRunCompleted publishes a run completed event.
func (ep *EventPublisher) PublishRunCompleted(runID, status string, duration time.Duration) error {
	return ep.Publish(Event{
		Type:    EventTypeRunCompleted,
		Source:  "generator",
		RunID:   runID,
		Message: fmt.Sprintf("Generation run %s completed with status: %s", runID, status),
		Level:   EventLevelInfo,
		Data: map[string]interface{}{
			"status":   status,
			"duration": duration.Seconds(),
		},
	})
}

// PublishRunFailed publishes a run failed event.
func (ep *EventPublisher) PublishRunFailed(runID, reason string) error {
	return ep.Publish(Event{
		Type:    EventTypeRunFailed,
		Source:  "generator",
		RunID:   runID,
		Message: fmt.Sprintf("Generation run %s failed: %s", runID, reason),
		Level:   EventLevelError,
		Data:    map[string]interface{}{"reason": reason},
	})
}

// PublishArtifactWritten publishes an artifact written event.
func (ep *EventPublisher) PublishArtifactWritten(runID, artifactID, outputPath, mode string) error {
	return ep.Publish(Event{
		Type:       EventTypeArtifactWritten,
		Source:     "generator",
		RunID:      runID,
		ArtifactID: artifactID,
		OutputPath: outputPath,
		Message:    fmt.Sprintf("Artifact %s written to %s", artifactID, outputPath),
		Level:      EventLevelInfo,
		Data:       map[string]interface{}{"merge_mode": mode},
	})
}

// PublishArtifactSkipped publishes an artifact skipped event.
func (ep *EventPublisher) PublishArtifactSkipped(runID, artifactID, outputPath, reason string) error {
	return ep.Publish(Event{
		Type:       EventTypeArtifactSkipped,
		Source:     "generator",
		RunID:      runID,
		ArtifactID: artifactID,
		OutputPath: outputPath,
		Message:    fmt.Sprintf("Artifact %s skipped: %s", artifactID, reason),
		Level:      EventLevelInfo,
		Data:       map[string]interface{}{"reason": reason},
	})
}

// PublishMergeFailed publishes a merge failed event.
func (ep *EventPublisher) PublishMergeFailed(runID, artifactID, outputPath, reason string) error {
	return ep.Publish(Event{
		Type:       EventTypeMergeFailed,
		Source:     "merge_engine",
		RunID:      runID,
		ArtifactID: artifactID,
		OutputPath: outputPath,
		Message:    fmt.Sprintf("Merge failed for %s: %s", outputPath, reason),
		Level:      EventLevelError,
		Data:       map[string]interface{}{"reason": reason},
	})
}

// PublishBlocksOrphaned publishes an orphaned custom blocks event.
func (ep *EventPublisher) PublishBlocksOrphaned(runID, artifactID, outputPath string, ids []string) error {
	return ep.Publish(Event{
		Type:       EventTypeBlocksOrphaned,
		Source:     "merge_engine",
		RunID:      runID,
		ArtifactID: artifactID,
		OutputPath: outputPath,
		Message:    fmt.Sprintf("%d custom block(s) in %s are no longer declared by the template", len(ids), outputPath),
		Level:      EventLevelWarning,
		Data:       map[string]interface{}{"block_ids": ids},
	})
}

// PublishPolicyViolation publishes a write-policy violation event.
func (ep *EventPublisher) PublishPolicyViolation(runID, artifactID, policyName, reason string) error {
	return ep.Publish(Event{
		Type:       EventTypePolicyViolation,
		Source:     "policy_engine",
		RunID:      runID,
		ArtifactID: artifactID,
		Message:    fmt.Sprintf("Policy violation on artifact %s: %s - %s", artifactID, policyName, reason),
		Level:      EventLevelError,
		Data: map[string]interface{}{
			"policy": policyName,
			"reason": reason,
		},
	})
}

// Close stops the publisher, delivering any buffered events first.
func (ep *EventPublisher) Close() {
	ep.closeOnce.Do(func() {
		close(ep.done)
	})
	ep.wg.Wait()
}

// Package cloudevt bridges corestore's own Event values into
// cloudevents.Event, so side-effect handlers can hand events to external
// CloudEvents-speaking collaborators (brokers, webhooks) without the core
// itself depending on any particular transport. It follows the same
// reverse-DNS EventType convention and UUID-based event identifiers the
// teacher's own CloudEvents integration uses for its lifecycle events
// (observer_cloudevents.go's NewCloudEvent/NewModuleLifecycleEvent).
package cloudevt

import (
	"fmt"
	"strings"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"

	"github.com/corestore/corestore"
	"github.com/corestore/corestore/serialize"
)

// Lifecycle event types for the core's own start/stop transitions,
// following the com.corestore.* reverse-DNS convention.
const (
	EventTypeStoreInitialized = "com.corestore.store.initialized"
	EventTypeStoreFinished    = "com.corestore.store.finished"
)

// TypeURI derives a reverse-DNS CloudEvents type from a domain event's Go
// type name, e.g. OrderPlaced -> "com.corestore.event.orderplaced".
func TypeURI(event corestore.Event) string {
	return "com.corestore.event." + strings.ToLower(corestore.TypeName(event))
}

// New converts a domain event into a cloudevents.Event sourced from
// source, with its data populated from the event's snapshot
// representation (serialize.Snapshot) and its type derived by TypeURI.
func New(source string, event corestore.Event) (cloudevents.Event, error) {
	data, err := serialize.Snapshot(event)
	if err != nil {
		return cloudevents.Event{}, fmt.Errorf("cloudevt: snapshotting event: %w", err)
	}
	return build(source, TypeURI(event), data), nil
}

// NewStoreInitialized builds the lifecycle CloudEvent emitted when a store
// completes its first reduction.
func NewStoreInitialized(source string) cloudevents.Event {
	return build(source, EventTypeStoreInitialized, nil)
}

// NewStoreFinished builds the lifecycle CloudEvent emitted when a store
// completes its shutdown procedure.
func NewStoreFinished(source string) cloudevents.Event {
	return build(source, EventTypeStoreFinished, nil)
}

func build(source, eventType string, data any) cloudevents.Event {
	evt := cloudevents.NewEvent()
	evt.SetID(uuid.NewString())
	evt.SetSource(source)
	evt.SetType(eventType)
	evt.SetTime(time.Now())
	evt.SetSpecVersion(cloudevents.VersionV1)
	if data != nil {
		_ = evt.SetData(cloudevents.ApplicationJSON, data)
	}
	return evt
}

// Sink hands a CloudEvent off to an external collaborator (an HTTP
// webhook, a broker client). It is the only interface this package
// requires of the transport layer.
type Sink interface {
	Send(event cloudevents.Event) error
}

// Bridge forwards a store's events of a given type to a Sink as
// CloudEvents. It is wired up the same way any other side-effect handler
// is: via store.SubscribeEvent.
type Bridge struct {
	source string
	sink   Sink
	logger corestore.Logger
}

// NewBridge constructs a Bridge that labels every CloudEvent it produces
// with source.
func NewBridge(source string, sink Sink, logger corestore.Logger) *Bridge {
	if logger == nil {
		logger = corestore.NopLogger{}
	}
	return &Bridge{source: source, sink: sink, logger: logger}
}

// Forward subscribes the bridge to every delivery of eventType on store,
// converting each to a CloudEvent and handing it to the sink. The returned
// func unsubscribes.
func (b *Bridge) Forward(store *corestore.Store, eventType corestore.Event) (unsubscribe func()) {
	return store.SubscribeEvent(eventType, func(_ *corestore.Store, event corestore.Event) {
		ce, err := New(b.source, event)
		if err != nil {
			b.logger.Error("cloudevt: failed to convert event", "error", err)
			return
		}
		if err := b.sink.Send(ce); err != nil {
			b.logger.Error("cloudevt: sink rejected event", "error", err)
		}
	})
}

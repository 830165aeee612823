package bootevents

import (
	"fmt"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// CloudEvent is an alias for the CloudEvents Event type for convenience
type CloudEvent = cloudevents.Event

// NewCloudEvent creates a new CloudEvent with the specified parameters. Data
// is encoded as JSON; an encoding failure is returned.
func NewCloudEvent(eventType, source string, data any, metadata map[string]any) (cloudevents.Event, error) {
	event := cloudevents.NewEvent()

	event.SetID(generateEventID())
	event.SetSource(source)
	event.SetType(eventType)
	event.SetTime(time.Now())
	event.SetSpecVersion(cloudevents.VersionV1)

	if data != nil {
		if err := event.SetData(cloudevents.ApplicationJSON, data); err != nil {
			return cloudevents.Event{}, fmt.Errorf("encode %s data: %w", eventType, err)
		}
	}

	for key, value := range metadata {
		event.SetExtension(key, value)
	}

	return event, nil
}

// generateEventID generates a unique identifier for CloudEvents using UUIDv7.
// UUIDv7 includes timestamp information which provides time-ordered uniqueness.
func generateEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}

// ValidateCloudEvent validates that a CloudEvent conforms to CloudEvents v1.0.
func ValidateCloudEvent(event cloudevents.Event) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("CloudEvent validation failed: %w", err)
	}
	return nil
}

// ToCloudEvent converts event into a validated CloudEvent. The type is the
// event kind, the time is the event timestamp and the data is EventData.
func ToCloudEvent(event Event) (cloudevents.Event, error) {
	if event == nil {
		return cloudevents.Event{}, ErrEventNil
	}
	ce, err := NewCloudEvent(event.Kind().String(), EventSource(event), EventData(event), nil)
	if err != nil {
		return cloudevents.Event{}, err
	}
	ce.SetTime(event.Timestamp())
	if err := ValidateCloudEvent(ce); err != nil {
		return cloudevents.Event{}, err
	}
	return ce, nil
}

// EventSource renders the source of event as a CloudEvents source URI reference.
func EventSource(event Event) string {
	switch src := event.Source().(type) {
	case *Application:
		if src == nil {
			return "bootevents/application"
		}
		return "bootevents/application/" + src.Name()
	case ApplicationContext:
		return "bootevents/context/" + src.ID()
	case *BootstrapContext:
		return "bootevents/bootstrap"
	default:
		return "bootevents"
	}
}

// EventData summarizes event as a JSON-friendly map.
func EventData(event Event) map[string]any {
	data := make(map[string]any)

	if appEvent, ok := event.(interface {
		Application() *Application
		Args() []string
	}); ok {
		if app := appEvent.Application(); app != nil {
			data["application"] = app.Name()
		}
		data["args"] = appEvent.Args()
	}

	switch e := event.(type) {
	case *EnvironmentPreparedEvent:
		if e.Environment != nil {
			data["propertySources"] = e.Environment.PropertySourceNames()
			data["activeProfiles"] = e.Environment.ActiveProfiles()
		}
	case *ContextInitializedEvent:
		addContextID(data, e.Context)
	case *PreparedEvent:
		addContextID(data, e.Context)
	case *StartedEvent:
		addContextID(data, e.Context)
		data["timeTakenMs"] = e.TimeTaken.Milliseconds()
	case *ReadyEvent:
		addContextID(data, e.Context)
		data["timeTakenMs"] = e.TimeTaken.Milliseconds()
	case *FailedEvent:
		addContextID(data, e.Context)
		if e.Err != nil {
			data["error"] = e.Err.Error()
		}
	case *AvailabilityChangeEvent:
		data["state"] = e.State.String()
		switch e.State.(type) {
		case LivenessState:
			data["availability"] = "liveness"
		case ReadinessState:
			data["availability"] = "readiness"
		}
	case *ContextRefreshedEvent:
		addContextID(data, e.Context())
	case *ContextClosedEvent:
		addContextID(data, e.Context())
	case *BootstrapContextClosedEvent:
		addContextID(data, e.Context)
	}
	return data
}

func addContextID(data map[string]any, appCtx ApplicationContext) {
	if appCtx != nil {
		data["context"] = appCtx.ID()
	}
}

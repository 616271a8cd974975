// Package telemetry periodically publishes actuator status snapshots
// encoded as google.protobuf.Struct.
package telemetry

import (
	"time"

	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"
	structpb "github.com/golang/protobuf/ptypes/struct"

	fx "github.com/robotalks/cmdstepper/pkg/framework"
	"github.com/robotalks/cmdstepper/pkg/stepper"
)

// DefaultPeriod is the default publishing period.
const DefaultPeriod = 100 * time.Millisecond

// StatusTopicSuffix is appended to the device header to form the topic.
const StatusTopicSuffix = "/status"

// Publisher delivers encoded payloads to a topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// PublishFunc is the func form of Publisher.
type PublishFunc func(topic string, payload []byte) error

// Publish implements Publisher.
func (f PublishFunc) Publish(topic string, payload []byte) error {
	return f(topic, payload)
}

// Snapshotter provides the state of an actuator.
type Snapshotter interface {
	Snapshot() stepper.State
}

type source struct {
	header string
	snap   Snapshotter
	last   stepper.State
	sent   bool
}

// Reporter publishes the state of every source once per period and
// whenever a source starts or stops moving.
type Reporter struct {
	Publisher Publisher
	Period    time.Duration

	sources []*source
	lastRun time.Time
}

// NewReporter creates a Reporter.
func NewReporter(pub Publisher) *Reporter {
	return &Reporter{Publisher: pub, Period: DefaultPeriod}
}

// Add registers a source published under header.
func (r *Reporter) Add(header string, snap Snapshotter) *Reporter {
	r.sources = append(r.sources, &source{header: header, snap: snap})
	return r
}

// Control implements Controller.
func (r *Reporter) Control(cc fx.ControlContext) error {
	now := cc.Time()
	periodic := r.lastRun.IsZero() || now.Sub(r.lastRun) >= r.Period
	if periodic {
		r.lastRun = now
	}
	for _, src := range r.sources {
		state := src.snap.Snapshot()
		if !periodic && src.sent && state.Moving == src.last.Moving {
			continue
		}
		if err := r.publish(src.header, state); err != nil {
			glog.Warningf("publish status of %s: %v", src.header, err)
			continue
		}
		src.last, src.sent = state, true
	}
	return nil
}

// AddToLoop implements LoopAdder.
func (r *Reporter) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvReport, r)
}

func (r *Reporter) publish(header string, state stepper.State) error {
	payload, err := proto.Marshal(Encode(header, state))
	if err != nil {
		return err
	}
	return r.Publisher.Publish(header+StatusTopicSuffix, payload)
}

// Encode converts a state into a Struct.
func Encode(header string, s stepper.State) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"header":               stringValue(header),
		"position":             numberValue(float64(s.Position)),
		"target":               numberValue(float64(s.Target)),
		"distance_to_go":       numberValue(float64(s.Target - s.Position)),
		"speed":                numberValue(s.Speed),
		"max_speed":            numberValue(s.MaxSpeed),
		"acceleration":         numberValue(s.Acceleration),
		"acceleration_enabled": boolValue(s.AccelerationEnabled),
		"moving":               boolValue(s.Moving),
		"enabled":              boolValue(s.Enabled),
	}}
}

// Decode reads a state from a payload produced by the Reporter.
func Decode(payload []byte) (string, stepper.State, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(payload, &st); err != nil {
		return "", stepper.State{}, err
	}
	f := st.GetFields()
	return f["header"].GetStringValue(), stepper.State{
		Position:            int64(f["position"].GetNumberValue()),
		Target:              int64(f["target"].GetNumberValue()),
		Speed:               f["speed"].GetNumberValue(),
		MaxSpeed:            f["max_speed"].GetNumberValue(),
		Acceleration:        f["acceleration"].GetNumberValue(),
		AccelerationEnabled: f["acceleration_enabled"].GetBoolValue(),
		Moving:              f["moving"].GetBoolValue(),
		Enabled:             f["enabled"].GetBoolValue(),
	}, nil
}

func numberValue(v float64) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_NumberValue{NumberValue: v}}
}

func stringValue(v string) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_StringValue{StringValue: v}}
}

func boolValue(v bool) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_BoolValue{BoolValue: v}}
}

package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/cmdstepper/pkg/framework"
	"github.com/robotalks/cmdstepper/pkg/stepper"
)

type fixedState struct {
	state stepper.State
}

func (s *fixedState) Snapshot() stepper.State { return s.state }

type published struct {
	topic string
	state stepper.State
}

func TestEncodeDecode(t *testing.T) {
	state := stepper.State{
		Position:            -12,
		Target:              40,
		Speed:               -250.5,
		MaxSpeed:            1000,
		Acceleration:        500,
		AccelerationEnabled: true,
		Moving:              true,
		Enabled:             true,
	}
	st := Encode("M1", state)
	require.Equal(t, 52.0, st.Fields["distance_to_go"].GetNumberValue())
	require.Equal(t, "M1", st.Fields["header"].GetStringValue())
}

func TestReporter(t *testing.T) {
	var out []published
	pub := PublishFunc(func(topic string, payload []byte) error {
		header, state, err := Decode(payload)
		require.NoError(t, err)
		require.Equal(t, header+StatusTopicSuffix, topic)
		out = append(out, published{topic: topic, state: state})
		return nil
	})
	m1 := &fixedState{state: stepper.State{Position: 1, Target: 5, Moving: true}}
	m2 := &fixedState{state: stepper.State{Position: 7, Target: 7}}
	r := NewReporter(pub).Add("M1", m1).Add("M2", m2)
	r.Period = time.Second

	clock := time.Unix(100, 0)
	loop := fx.NewLoop().Add(r)
	loop.Clock = func() time.Time { return clock }

	loop.RunIteration(context.Background())
	require.Len(t, out, 2)
	require.Equal(t, "M1/status", out[0].topic)
	require.Equal(t, m1.state, out[0].state)
	require.Equal(t, "M2/status", out[1].topic)
	require.Equal(t, m2.state, out[1].state)

	out = nil
	clock = clock.Add(100 * time.Millisecond)
	m1.state.Position = 3
	loop.RunIteration(context.Background())
	require.Empty(t, out)

	m1.state = stepper.State{Position: 5, Target: 5}
	clock = clock.Add(100 * time.Millisecond)
	loop.RunIteration(context.Background())
	require.Len(t, out, 1)
	require.Equal(t, "M1/status", out[0].topic)
	require.False(t, out[0].state.Moving)

	out = nil
	clock = clock.Add(time.Second)
	loop.RunIteration(context.Background())
	require.Len(t, out, 2)
}

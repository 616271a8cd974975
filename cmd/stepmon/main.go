package main

import (
	"flag"
	"log"
	"strings"

	"github.com/robotalks/cmdstepper/pkg/env"
	"github.com/robotalks/cmdstepper/pkg/telemetry"
	"github.com/robotalks/cmdstepper/pkg/transport/mqtt"
)

var brokerURL = "mqtt://localhost:1883/"

func init() {
	env.SetupFlags()
	flag.StringVar(&brokerURL, "mqtt", brokerURL, "MQTT broker URL, overridden by -telemetry.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	conf := env.NewConfig()
	if conf.Telemetry != "" {
		brokerURL = conf.Telemetry
	}
	q, err := conf.ConnectMQTT(brokerURL)
	if err != nil {
		log.Fatalln(err)
	}
	defer q.Close()

	token := q.Sub("#", mqtt.Handler(func(topic string, payload []byte) {
		if !strings.HasSuffix(topic, telemetry.StatusTopicSuffix) {
			log.Printf("%s: %q", topic, payload)
			return
		}
		header, state, err := telemetry.Decode(payload)
		if err != nil {
			log.Printf("%s: bad status: %v", topic, err)
			return
		}
		log.Printf("%s: pos=%d target=%d speed=%g max=%g accel=%g moving=%v enabled=%v",
			header, state.Position, state.Target, state.Speed,
			state.MaxSpeed, state.Acceleration, state.Moving, state.Enabled)
	}))
	if token.Wait(); token.Error() != nil {
		log.Fatalln(token.Error())
	}
	<-(chan struct{})(nil)
}

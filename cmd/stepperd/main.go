package main

//go-build: CGO_ENABLED=0

import (
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/cmdstepper/pkg/device/accelstepper"
	"github.com/robotalks/cmdstepper/pkg/env"
	fx "github.com/robotalks/cmdstepper/pkg/framework"
	"github.com/robotalks/cmdstepper/pkg/manager"
	"github.com/robotalks/cmdstepper/pkg/metrics"
	"github.com/robotalks/cmdstepper/pkg/stepper"
	"github.com/robotalks/cmdstepper/pkg/telemetry"
	"github.com/robotalks/cmdstepper/pkg/transport"
)

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf := env.Default()
	settings, err := conf.LoadSettings()
	if err != nil {
		glog.Exitf("config: %v", err)
	}

	runner := fx.NewRunner().HandleSignals()
	conn, err := conf.OpenTransport(runner.Context, settings.Transport)
	if err != nil {
		glog.Exitf("open transport %s: %v", settings.Transport, err)
	}
	glog.Infof("transport %s opened", settings.Transport)

	rec := metrics.NewRecorder()
	link := transport.NewLink("link", conn).WithObserver(rec)
	mgr := manager.New(link)
	mgr.Recorder = rec
	mgr.Commands().Observer = rec

	var reporter *telemetry.Reporter
	if settings.Telemetry != "" {
		pub, closer, err := conf.OpenTelemetry(settings.Telemetry)
		if err != nil {
			glog.Exitf("telemetry %s: %v", settings.Telemetry, err)
		}
		defer closer.Close()
		reporter = telemetry.NewReporter(pub)
	}

	for _, devConf := range settings.Devices {
		act := stepper.NewActuator(nil, nil)
		devConf.Apply(act)
		dev := accelstepper.New(link, act)
		dev.Commands().Observer = rec
		if err := mgr.AddDevice(devConf.Header, dev); err != nil {
			glog.Exitf("add device: %v", err)
		}
		if reporter != nil {
			reporter.Add(devConf.Header, dev)
		}
	}
	if err := mgr.Init(); err != nil {
		glog.Exitf("init devices: %v", err)
	}

	loop := fx.NewLoop().Add(link, mgr)
	loop.Interval = settings.LoopInterval
	if reporter != nil {
		loop.Add(reporter)
	}
	if settings.MetricsAddr != "" {
		loop.AddRunnable(fx.NamedRun("metrics", &metrics.Server{Addr: settings.MetricsAddr, Recorder: rec}))
	}
	runner.Go(fx.NamedRun("loop", loop))
	if err := runner.Wait(); err != nil {
		glog.Errorf("exit: %v", err)
	}
}

package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/coproc.go/pkg/board"
	"github.com/robotalks/coproc.go/pkg/bridge/mqtt"
	fx "github.com/robotalks/coproc.go/pkg/framework"
)

func init() {
	board.SetupFlags()
	mqtt.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	runner := fx.NewRunner().HandleSignals()
	b, err := board.NewConfig().Open(runner.Context)
	if err != nil {
		glog.Exitf("open board: %v", err)
	}
	defer b.Close()
	q, err := mqtt.NewConfig().NewQueue(b.ID)
	if err != nil {
		glog.Exitf("mqtt: %v", err)
	}
	glog.Infof("board %s: %d ports", b.ID, len(b.Ports()))

	runner.FailFast().Go(
		fx.NamedRun("board", fx.RunFunc(b.Run)),
		mqtt.NewBridge(b, q),
	)
	if err := runner.Wait(); err != nil && err != context.Canceled {
		glog.Errorf("stopped: %v", err)
	}
}

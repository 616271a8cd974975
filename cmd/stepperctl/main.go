package main

import (
	"github.com/robotalks/cmdstepper/pkg/cli/sh"
	"github.com/robotalks/cmdstepper/pkg/env"

	_ "github.com/robotalks/cmdstepper/pkg/cli/cmds/stepper"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}

// Package all registers all shell commands.
package all

import (
	_ "github.com/robotalks/coproc.go/pkg/cli/cmds/gpio"
	_ "github.com/robotalks/coproc.go/pkg/cli/cmds/i2c"
	_ "github.com/robotalks/coproc.go/pkg/cli/cmds/raw"
)

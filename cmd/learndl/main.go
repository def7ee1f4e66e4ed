package main

import (
	"learndl/cmd/learndl/commands"
	"learndl/lib/serviceutil"
	"learndl/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext()
	telemetry.SetupFromEnv(ctx, "learndl")
	telemetry.InitSlog(false)
	commands.ExecuteContext(ctx)
}

package main

import (
	"context"

	"boothlist-backend/cmd/boothlist-cli/commands"
	"boothlist-backend/lib/cliutil"
	"boothlist-backend/lib/telemetry"
)

func main() {
	ctx := cliutil.SignalContext()
	telemetry.SetupFromEnv(ctx, "boothlist-cli")
	defer telemetry.Shutdown(context.Background())
	telemetry.InstrumentPerfStats(ctx)
	commands.ExecuteContext(ctx)
}

package prisonwarden

import (
	"context"
	"fmt"
)

func (p *PrisonWarden) runPingCommand(
	_ context.Context,
	cc *CommandContext,
) error {
	latency := cc.Session.HeartbeatLatency()
	return cc.reply(
		fmt.Sprintf("Pong! %.2fms", float64(latency.Microseconds())/1000),
	)
}

func (p *PrisonWarden) runPineappleCommand(
	_ context.Context,
	cc *CommandContext,
) error {
	return cc.reply("\U0001f34d")
}

package flags

import (
	"time"

	"gopkg.in/urfave/cli.v1"
)

// NodeFlags holds knobs specific to the local engine instance.

func NodeFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "identity",
			Usage: "Custom name reported in logs",
		},
		cli.IntFlag{
			Name:  "cache",
			Usage: "Number of finalized epochs kept decoded in memory",
		},
		cli.IntFlag{
			Name:  "inputs.max",
			Usage: "Capacity of one input buffer",
		},
		cli.DurationFlag{
			Name:  "keeper.interval",
			Usage: "How often the keeper closes due input windows and finalizes epochs",
			Value: 10 * time.Second,
		},
	}
}

// AllFlags is every flag the launcher understands.
func AllFlags() []cli.Flag {
	var all []cli.Flag
	all = append(all, CommonFlags()...)
	all = append(all, RollupFlags()...)
	all = append(all, NodeFlags()...)
	return all
}

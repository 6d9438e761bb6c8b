package flags

import (
	"gopkg.in/urfave/cli.v1"
)

// RollupFlags select the deployment: preset, rules and their overrides.

func RollupFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "preset",
			Usage: "Deployment preset (dev|test|main|default)",
			Value: "default",
		},
		cli.StringFlag{
			Name:  "rules",
			Usage: "Rules preset overriding the deployment preset (fake|test|main)",
		},
		cli.IntFlag{
			Name:  "fakenet",
			Usage: "Number of generated validators",
		},
		cli.StringFlag{
			Name:  "rollup.inputduration",
			Usage: "Length of the input accumulation window (e.g. 24h)",
		},
		cli.StringFlag{
			Name:  "rollup.challengeperiod",
			Usage: "Wait after the leading claim before an epoch can be finalized (e.g. 168h)",
		},
		cli.StringFlag{
			Name:  "rollup.disputes",
			Usage: "Dispute mode (inline|deferred)",
		},
		cli.BoolFlag{
			Name:  "rollup.permissioned",
			Usage: "Restrict input notification and dispute resolution to their collaborators",
		},
	}
}

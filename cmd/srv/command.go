package main

import "github.com/urfave/cli/v2"

var configFlag = &cli.StringFlag{
	Name:  "config",
	Usage: "Load configurations from a toml file, overriding the environment",
}

func (s *srv) loadApp() {
	app := cli.NewApp()
	app.Action = cli.ShowAppHelp
	app.Name = "Prizeloop"
	app.Usage = ""
	app.Commands = []*cli.Command{
		{
			Action:      server.startApi,
			Name:        "api",
			Usage:       "Start service api",
			Flags:       []cli.Flag{configFlag},
			Category:    "Api",
			Description: `Serves the payment confirmation endpoint and the read APIs.`,
		},
		{
			Action:      server.startCron,
			Name:        "cron",
			Usage:       "Start cron jobs",
			Flags:       []cli.Flag{configFlag},
			Category:    "Worker",
			Description: `Runs the periodic draw reconciliation and winner selection.`,
		},
		{
			Action:      server.startSubscriber,
			Name:        "subscriber",
			Usage:       "Start the audit subscriber",
			Flags:       []cli.Flag{configFlag},
			Category:    "Worker",
			Description: `Consumes the benefit events and writes them to the audit log.`,
		},
		{
			Action:      server.startMigrate,
			Name:        "migrate",
			Usage:       "Apply database migrations",
			Flags:       []cli.Flag{configFlag},
			Category:    "Database",
			Description: `Applies the versioned mysql migrations and exits.`,
		},
	}

	s.app = app
}

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/m3rciful/hrbot/core/buildinfo"
	corecmd "github.com/m3rciful/hrbot/core/cmd"
)

var configFlag = cli.StringFlag{
	Name:    "config",
	Aliases: []string{"c"},
	Usage:   "path to the YAML config file",
	EnvVars: []string{corecmd.DefaultConfigEnv},
}

func main() {
	app := &cli.App{
		Name:    "hrbot",
		Usage:   "HR assistant actions over Telegram and the action server protocol",
		Version: fmt.Sprintf("%s (%s)", buildinfo.Version, buildinfo.Commit),
		Flags:   []cli.Flag{&configFlag},
		Action:  runCmd.Action,
		Commands: []*cli.Command{
			runCmd,
			actionsCmd,
			invokeCmd,
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "start the enabled frontends and block until interrupted",
	Action: func(c *cli.Context) error {
		return corecmd.Run(c.Context, corecmd.Options{ConfigPath: c.String(configFlag.Name)})
	},
}

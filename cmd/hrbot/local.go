package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/m3rciful/hrbot/core/actionserver"
	"github.com/m3rciful/hrbot/core/bootstrap"
	coreconfig "github.com/m3rciful/hrbot/core/config"
	"github.com/m3rciful/hrbot/core/dialogue"
)

var actionsCmd = &cli.Command{
	Name:  "actions",
	Usage: "list registered action names",
	Action: func(c *cli.Context) error {
		cfg, err := localConfig(c)
		if err != nil {
			return err
		}
		// names do not depend on the backends, skip building them
		cfg.Translation.Provider = coreconfig.ProviderNone
		reg, err := bootstrap.NewRegistry(cfg, nil, nil)
		if err != nil {
			return err
		}
		for _, n := range reg.Names() {
			fmt.Fprintln(c.App.Writer, n)
		}
		return nil
	},
}

var invokeFlags struct {
	lang      string
	text      string
	sender    string
	noNetwork bool
}

var invokeCmd = &cli.Command{
	Name:      "invoke",
	Usage:     "run one action locally and print its events and messages as JSON",
	ArgsUsage: "<action>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:        "lang",
			Usage:       "language slot value; empty leaves the slot unset",
			Destination: &invokeFlags.lang,
		},
		&cli.StringFlag{
			Name:        "text",
			Usage:       "latest user message",
			Destination: &invokeFlags.text,
		},
		&cli.StringFlag{
			Name:        "sender",
			Usage:       "conversation id",
			Value:       "cli",
			Destination: &invokeFlags.sender,
		},
		&cli.BoolFlag{
			Name:        "no-translate",
			Usage:       "return English text without calling the translation provider",
			Destination: &invokeFlags.noNetwork,
		},
	},
	Action: func(c *cli.Context) error {
		name := strings.TrimSpace(c.Args().First())
		if name == "" {
			return cli.Exit("invoke: action name required", 2)
		}
		cfg, err := localConfig(c)
		if err != nil {
			return err
		}
		if invokeFlags.noNetwork {
			cfg.Translation.Provider = coreconfig.ProviderNone
		}
		reg, err := bootstrap.NewRegistry(cfg, nil, nil)
		if err != nil {
			return err
		}

		t := dialogue.NewTracker(invokeFlags.sender)
		if invokeFlags.lang != "" {
			t.Apply(dialogue.SlotSet(dialogue.SlotLanguage, invokeFlags.lang))
		}
		if invokeFlags.text != "" {
			t.Apply(dialogue.UserUttered(invokeFlags.text))
		}

		res, err := reg.Run(c.Context, name, t)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		out := actionserver.Response{Events: res.Events, Responses: res.Messages}
		if out.Events == nil {
			out.Events = []dialogue.Event{}
		}
		if out.Responses == nil {
			out.Responses = []dialogue.Message{}
		}
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(out)
	},
}

// localConfig reads --config when given and falls back to the environment.
func localConfig(c *cli.Context) (*coreconfig.Config, error) {
	if path := c.String(configFlag.Name); path != "" {
		return coreconfig.Load(path)
	}
	return coreconfig.Defaults()
}

package commands

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"

	"github.com/reviewkit/revq/internal/core/config"
	"github.com/reviewkit/revq/internal/printer"
	"github.com/reviewkit/revq/internal/revq"
)

type ConfigValidateCmd struct {
	flags  *Flags
	app    *revq.App
	format string
}

// NewConfigValidateCmd creates a new config validate command.
func NewConfigValidateCmd(flags *Flags, app *revq.App) *ConfigValidateCmd {
	return &ConfigValidateCmd{flags: flags, app: app}
}

// Register adds the config validate command to the application.
func (cmd *ConfigValidateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:        "validate",
				Usage:       "Validate configuration file",
				UsageText:   "revq config validate [options]",
				Description: "Validates the configuration file, checking ignore glob syntax, the git executable, and file paths.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Usage:       "output format (text, json)",
						Value:       "text",
						Destination: &cmd.format,
					},
				},
				Action: cmd.run,
			},
		},
	})

	return app
}

func (cmd *ConfigValidateCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	err := cmd.app.Config.ValidateDeep(cmd.flags.ConfigPath)
	warnings := cmd.app.Config.Warnings()

	if cmd.format == "json" {
		return cmd.outputJSON(c, err, warnings)
	}

	return cmd.outputText(p, err, warnings)
}

type fieldErrorJSON struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (cmd *ConfigValidateCmd) outputJSON(c *cli.Command, result error, warnings []config.ValidationWarning) error {
	out := struct {
		Valid    bool                       `json:"valid"`
		Errors   []fieldErrorJSON           `json:"errors,omitempty"`
		Warnings []config.ValidationWarning `json:"warnings,omitempty"`
	}{
		Valid:    result == nil,
		Warnings: warnings,
	}

	var fieldErrs criterio.FieldErrors
	if errors.As(result, &fieldErrs) {
		for _, fe := range fieldErrs {
			out.Errors = append(out.Errors, fieldErrorJSON{Field: fe.Field, Message: fe.Err.Error()})
		}
	} else if result != nil {
		out.Errors = append(out.Errors, fieldErrorJSON{Message: result.Error()})
	}

	enc := json.NewEncoder(c.Root().Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func (cmd *ConfigValidateCmd) outputText(p *printer.Printer, result error, warnings []config.ValidationWarning) error {
	for _, warn := range warnings {
		p.Infof("%s: %s", warn.Category, warn.Message)
		if warn.Item != "" {
			p.Printf("  Item: %s", warn.Item)
		}
	}

	if result == nil {
		cfg := cmd.app.Config
		configPath := cmd.flags.ConfigPath
		if configPath == "" {
			configPath = "(defaults, no file)"
		}
		p.Success("Configuration is valid",
			"config: "+configPath,
			"data dir: "+cfg.DataDir,
			"git: "+cfg.GitPath,
		)
		return nil
	}

	var fieldErrs criterio.FieldErrors
	if !errors.As(result, &fieldErrs) {
		p.Errorf("%v", result)
		return cli.Exit("", 1)
	}

	for _, fe := range fieldErrs {
		p.Errorf("%s: %s", fe.Field, fe.Err)
	}

	p.Printf("")
	p.Errorf("%d error(s) found", len(fieldErrs))
	return cli.Exit("", 1)
}

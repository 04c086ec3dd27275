package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/rediminute/internal/cli/connection"
	"github.com/yndnr/rediminute/internal/cli/output"
	"github.com/yndnr/rediminute/internal/infra/buildinfo"
)

// DefaultServer is the server's default RESP listener.
const DefaultServer = "127.0.0.1:6380"

const (
	metaClient    = "client"
	metaFormatter = "formatter"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "rediminute-cli",
		Usage:   "Command-line client for rediminute",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			PingCommand(),
			SetCommand(),
			GetCommand(),
			DelCommand(),
			ExistsCommand(),
			PublishCommand(),
			SubscribeCommand(),
		},
		Before: setup,
		After:  teardown,
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "rediminute RESP address",
			EnvVars: []string{"REDIMINUTE_SERVER"},
			Value:   DefaultServer,
		},
		&cli.StringFlag{
			Name:    "namespace",
			Aliases: []string{"n"},
			Usage:   "Namespace for key commands (empty selects the global namespace)",
			EnvVars: []string{"REDIMINUTE_NAMESPACE"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: text, json, yaml",
			Value:   string(output.FormatText),
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Dial and request timeout",
			Value: connection.DefaultTimeout,
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Server    string
	Namespace string
	Output    string
	Timeout   time.Duration
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Server:    c.String("server"),
		Namespace: c.String("namespace"),
		Output:    c.String("output"),
		Timeout:   c.Duration("timeout"),
	}
}

func setup(c *cli.Context) error {
	flags := ParseGlobalFlags(c)

	format, err := output.ParseFormat(flags.Output)
	if err != nil {
		return err
	}
	client, err := connection.NewClient(connection.Options{
		Addr:      flags.Server,
		Namespace: flags.Namespace,
		Timeout:   flags.Timeout,
	})
	if err != nil {
		return err
	}

	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[metaClient] = client
	c.App.Metadata[metaFormatter] = output.NewFormatter(format)
	return nil
}

func teardown(c *cli.Context) error {
	if client, ok := c.App.Metadata[metaClient].(*connection.Client); ok {
		return client.Close()
	}
	return nil
}

// clientFrom returns the client opened by the Before hook.
func clientFrom(c *cli.Context) (*connection.Client, error) {
	client, ok := c.App.Metadata[metaClient].(*connection.Client)
	if !ok {
		return nil, errors.New("not connected")
	}
	return client, nil
}

// render formats result to the app's writer.
func render(c *cli.Context, result any) error {
	f, ok := c.App.Metadata[metaFormatter].(output.Formatter)
	if !ok {
		f = output.NewFormatter(output.FormatText)
	}
	return f.Format(c.App.Writer, result)
}

// requestContext bounds one request by the global timeout.
func requestContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Context, c.Duration("timeout"))
}

// exactArgs checks the positional argument count.
func exactArgs(c *cli.Context, n int, usage string) error {
	if c.NArg() != n {
		return fmt.Errorf("usage: %s %s", c.Command.Name, usage)
	}
	return nil
}

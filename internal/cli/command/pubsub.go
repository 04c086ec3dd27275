package command

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/rediminute/internal/cli/connection"
)

// PublishCommand sends a message to a channel.
func PublishCommand() *cli.Command {
	return &cli.Command{
		Name:      "publish",
		Aliases:   []string{"pub"},
		Usage:     "Publish a message and print the number of receivers",
		ArgsUsage: "<channel> <message>",
		Action: func(c *cli.Context) error {
			if err := exactArgs(c, 2, "<channel> <message>"); err != nil {
				return err
			}
			client, err := clientFrom(c)
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(c)
			defer cancel()

			n, err := client.Publish(ctx, c.Args().Get(0), c.Args().Get(1))
			if err != nil {
				return err
			}
			return render(c, n)
		},
	}
}

// SubscribeCommand prints messages from channels until interrupted.
func SubscribeCommand() *cli.Command {
	return &cli.Command{
		Name:      "subscribe",
		Aliases:   []string{"sub"},
		Usage:     "Print messages published to channels until interrupted",
		ArgsUsage: "<channel> [channel...]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "count",
				Usage: "Exit after this many messages (0 waits forever)",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return fmt.Errorf("usage: subscribe <channel> [channel...]")
			}
			client, err := clientFrom(c)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			return client.Subscribe(ctx, c.Args().Slice(), connection.SubscribeHandler{
				OnSubscribe: func(channel string, count int) {
					fmt.Fprintf(c.App.ErrWriter, "subscribed to %s (%d active)\n", channel, count)
				},
				OnMessage: func(msg connection.Message) error {
					return render(c, msg)
				},
				Limit: c.Int("count"),
			})
		},
	}
}

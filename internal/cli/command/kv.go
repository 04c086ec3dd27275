package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/rediminute/internal/cli/output"
)

// PingCommand checks that the server answers.
func PingCommand() *cli.Command {
	return &cli.Command{
		Name:      "ping",
		Usage:     "Check server liveness",
		ArgsUsage: "[message]",
		Action: func(c *cli.Context) error {
			if c.NArg() > 1 {
				return fmt.Errorf("usage: ping [message]")
			}
			client, err := clientFrom(c)
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(c)
			defer cancel()

			reply, err := client.Ping(ctx, c.Args().First())
			if err != nil {
				return err
			}
			return render(c, output.Status(reply))
		},
	}
}

// SetCommand stores a value.
func SetCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Store a value under a key",
		ArgsUsage: "<key> <value>",
		Action: func(c *cli.Context) error {
			if err := exactArgs(c, 2, "<key> <value>"); err != nil {
				return err
			}
			client, err := clientFrom(c)
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(c)
			defer cancel()

			if err := client.Set(ctx, c.Args().Get(0), c.Args().Get(1)); err != nil {
				return err
			}
			return render(c, output.Status("OK"))
		},
	}
}

// GetCommand reads a value.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Read the value under a key",
		ArgsUsage: "<key>",
		Action: func(c *cli.Context) error {
			if err := exactArgs(c, 1, "<key>"); err != nil {
				return err
			}
			client, err := clientFrom(c)
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(c)
			defer cancel()

			value, found, err := client.Get(ctx, c.Args().First())
			if err != nil {
				return err
			}
			if !found {
				return render(c, output.Nil{})
			}
			return render(c, value)
		},
	}
}

// DelCommand removes a key.
func DelCommand() *cli.Command {
	return &cli.Command{
		Name:      "del",
		Usage:     "Delete a key",
		ArgsUsage: "<key>",
		Action: func(c *cli.Context) error {
			if err := exactArgs(c, 1, "<key>"); err != nil {
				return err
			}
			client, err := clientFrom(c)
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(c)
			defer cancel()

			deleted, err := client.Del(ctx, c.Args().First())
			if err != nil {
				return err
			}
			return render(c, deleted)
		},
	}
}

// ExistsCommand tests for a key.
func ExistsCommand() *cli.Command {
	return &cli.Command{
		Name:      "exists",
		Usage:     "Report whether a key is present",
		ArgsUsage: "<key>",
		Action: func(c *cli.Context) error {
			if err := exactArgs(c, 1, "<key>"); err != nil {
				return err
			}
			client, err := clientFrom(c)
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(c)
			defer cancel()

			exists, err := client.Exists(ctx, c.Args().First())
			if err != nil {
				return err
			}
			return render(c, exists)
		},
	}
}

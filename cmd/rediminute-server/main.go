package main

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/rediminute/internal/infra/buildinfo"
	"github.com/yndnr/rediminute/internal/infra/confloader"
	"github.com/yndnr/rediminute/internal/server/config"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Fprintln(c.App.Writer, "rediminute-server "+buildinfo.String())
	}
	return &cli.App{
		Name:    "rediminute-server",
		Usage:   "In-memory namespaced key-value store with pub/sub",
		Version: buildinfo.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				EnvVars: []string{"REDIMINUTE_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a .env file loaded before the environment",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "Line protocol listen host",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Line protocol listen port",
			},
			&cli.IntFlag{
				Name:  "timeout",
				Usage: "Idle timeout in seconds (0 disables)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			return run(cfg, configSource{file: c.String("config"), envFile: c.String("env-file"), debug: c.Bool("debug")})
		},
	}
}

// configSource remembers where the configuration came from so that a
// file change can be re-read the same way.
type configSource struct {
	file    string
	envFile string
	debug   bool
}

// loadConfig layers defaults, file, env file, environment and flags.
func loadConfig(c *cli.Context) (*config.ServerConfig, error) {
	cfg := config.Default()

	var opts []confloader.Option
	if path := c.String("config"); path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}
	if path := c.String("env-file"); path != "" {
		opts = append(opts, confloader.WithEnvFile(path))
	}
	loader := confloader.NewLoader(opts...)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	overrides, err := flagOverrides(c, cfg)
	if err != nil {
		return nil, err
	}
	if len(overrides) > 0 {
		if err := loader.LoadMap(overrides); err != nil {
			return nil, fmt.Errorf("apply flags: %w", err)
		}
		if err := loader.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("apply flags: %w", err)
		}
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// flagOverrides maps explicitly set flags onto config keys. --host and
// --port each replace one half of the line listener address.
func flagOverrides(c *cli.Context, cfg *config.ServerConfig) (map[string]any, error) {
	out := make(map[string]any)

	if c.IsSet("host") || c.IsSet("port") {
		host, port, err := net.SplitHostPort(cfg.Server.Line.Addr)
		if err != nil {
			return nil, fmt.Errorf("server.line.addr: %w", err)
		}
		if c.IsSet("host") {
			host = c.String("host")
		}
		if c.IsSet("port") {
			p := c.Int("port")
			if p < 0 || p > 65535 {
				return nil, fmt.Errorf("--port %d out of range", p)
			}
			port = strconv.Itoa(p)
		}
		out["server.line.addr"] = net.JoinHostPort(host, port)
		out["server.line.enabled"] = true
	}
	if c.IsSet("timeout") {
		secs := c.Int("timeout")
		if secs < 0 {
			return nil, fmt.Errorf("--timeout %d must not be negative", secs)
		}
		out["server.idle_timeout"] = time.Duration(secs) * time.Second
	}
	if c.Bool("debug") {
		out["log.level"] = "debug"
	}
	return out, nil
}

package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"teahouse/internal/pkg/auth"
	"teahouse/internal/pkg/bootstrap"
	"teahouse/internal/pkg/redis"
	"teahouse/internal/pkg/session"
)

// sessionCommand 为运维与联调签发 session token，登录流程本身不在本服务内。
func sessionCommand() *cli.Command {
	return &cli.Command{
		Name:  "session",
		Usage: "issue or revoke session tokens",
		Subcommands: []*cli.Command{
			{
				Name:  "issue",
				Usage: "issue a token for a user",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Required: true},
					&cli.StringFlag{Name: "role", Value: string(auth.RoleCustomer), Usage: "customer | admin | system"},
				},
				Action: func(c *cli.Context) error {
					role := auth.Role(c.String("role"))
					switch role {
					case auth.RoleCustomer, auth.RoleAdmin, auth.RoleSystem:
					default:
						return fmt.Errorf("unknown role %q", role)
					}
					mgr, closeFn, err := sessionManager(c)
					if err != nil {
						return err
					}
					defer closeFn()

					token, err := mgr.Create(c.Context, auth.Actor{UserID: c.String("user"), Role: role})
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, token)
					return nil
				},
			},
			{
				Name:      "revoke",
				Usage:     "revoke a token",
				ArgsUsage: "<token>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("exactly one token is required", 2)
					}
					mgr, closeFn, err := sessionManager(c)
					if err != nil {
						return err
					}
					defer closeFn()
					return mgr.Revoke(c.Context, c.Args().First())
				},
			},
		},
	}
}

func sessionManager(c *cli.Context) (*session.Manager, func(), error) {
	cfg := bootstrap.GetCurrentConfig()
	client, err := redis.NewClient(c.Context, cfg.Infra.Redis.Addrs, cfg.Infra.Redis.Password, cfg.Infra.Redis.DB)
	if err != nil {
		return nil, nil, err
	}
	return session.NewManager(client.GetClient(), cfg.Shop.SessionTTL), func() { _ = client.Close() }, nil
}

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/Grooty887/Tomorrow-tracker/internal/app"
	"github.com/Grooty887/Tomorrow-tracker/internal/auth"
)

func main() {
	// Load .env first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	cliApp := &cli.App{
		Name:  "plannerd",
		Usage: "Personal day planner daemon with schedule notifications.",
		Commands: []*cli.Command{
			serveCommand(),
			addUserCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Value:   "./config.yaml",
		Usage:   "path to the config file (YAML or JSON)",
		EnvVars: []string{"PLANNER_CONFIG"},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the planner API and notification engine.",
		Flags: []cli.Flag{configFlag()},
		Action: func(c *cli.Context) error {
			ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := app.New(c.String("config"))
			if err != nil {
				return err
			}
			if err := a.Start(ctx); err != nil {
				return err
			}

			<-ctx.Done()
			a.Stop(context.Background())
			return nil
		},
	}
}

func addUserCommand() *cli.Command {
	return &cli.Command{
		Name:  "adduser",
		Usage: "Create an account directly in the database.",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{Name: "username", Required: true, Usage: "login name"},
			&cli.StringFlag{Name: "name", Usage: "display name"},
			&cli.StringFlag{Name: "email", Usage: "contact email"},
		},
		Action: func(c *cli.Context) error {
			a, err := app.New(c.String("config"))
			if err != nil {
				return err
			}
			defer a.Stop(context.Background())

			fmt.Print("Password: ")
			reader := bufio.NewReader(os.Stdin)
			password, _ := reader.ReadString('\n')
			password = strings.TrimSpace(password)
			if password == "" {
				return fmt.Errorf("password cannot be empty")
			}

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			u, err := a.Store().CreateUser(c.Context,
				c.String("username"), hash, c.String("name"), c.String("email"))
			if err != nil {
				return err
			}
			fmt.Printf("created user %q (id %d)\n", u.Username, u.ID)
			return nil
		},
	}
}

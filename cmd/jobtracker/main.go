package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.SetFlags(0)

	app := &cli.Command{
		Name:  "jobtracker",
		Usage: "Save job postings and follow your applications from the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api",
				Usage:   "backend base URL",
				Value:   "http://localhost:8080/api",
				Sources: cli.EnvVars("JOBTRACKER_API_URL"),
			},
			&cli.StringFlag{
				Name:    "token-file",
				Usage:   "where the session token is kept",
				Value:   defaultTokenFile(),
				Sources: cli.EnvVars("JOBTRACKER_TOKEN_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "register",
				Usage: "Create an account and log in",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
					&cli.StringFlag{Name: "name", Required: true},
				},
				Action: registerAction,
			},
			{
				Name:  "login",
				Usage: "Log in and store the session token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
				},
				Action: loginAction,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored session token",
				Action: logoutAction,
			},
			{
				Name:   "whoami",
				Usage:  "Check the stored token against the backend",
				Action: whoamiAction,
			},
			{
				Name:      "extract",
				Usage:     "Fetch a posting and print what the site extractor finds",
				ArgsUsage: "<url>",
				Action:    extractAction,
			},
			{
				Name:      "save",
				Usage:     "Fetch a posting and save it to your tracker",
				ArgsUsage: "<url>",
				Action:    saveAction,
			},
			{
				Name:  "jobs",
				Usage: "List saved jobs",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "status", Usage: "only jobs in this status"},
				},
				Action: jobsAction,
			},
			{
				Name:   "stats",
				Usage:  "Show application statistics",
				Action: statsAction,
			},
			{
				Name:  "gmail-auth",
				Usage: "Authorize the inbox watcher to read Gmail",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "credentials",
						Value:   "credential.json",
						Sources: cli.EnvVars("GMAIL_CREDENTIALS_FILE"),
					},
					&cli.StringFlag{
						Name:    "token",
						Value:   "token.json",
						Sources: cli.EnvVars("GMAIL_TOKEN_FILE"),
					},
				},
				Action: gmailAuthAction,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

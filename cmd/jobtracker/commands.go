package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/justsurfingit/job-tracker/internal/auth"
	"github.com/justsurfingit/job-tracker/internal/dtos"
	"github.com/justsurfingit/job-tracker/internal/extract"
	"github.com/justsurfingit/job-tracker/internal/models"
	"github.com/justsurfingit/job-tracker/internal/relay"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

func init() {
	// a local .env may carry JOBTRACKER_* and GMAIL_* settings
	_ = godotenv.Load()
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".jobtracker-token.json"
	}
	return filepath.Join(home, ".jobtracker", "token.json")
}

type app struct {
	client *relay.Client
	relay  *relay.Relay
}

func newApp(cmd *cli.Command) (*app, error) {
	session := relay.NewSession(relay.NewFileTokenStore(cmd.String("token-file")))
	if err := session.Load(); err != nil {
		return nil, err
	}
	client := relay.NewClient(cmd.String("api"))
	fetcher := extract.NewFetcher(extract.DefaultFetchConfig())
	return &app{
		client: client,
		relay:  relay.New(session, client, fetcher, relay.LogNotifier{}),
	}, nil
}

func (a *app) requireToken() (string, error) {
	token := a.relay.Session.Token()
	if token == "" {
		return "", errors.New("not logged in; run `jobtracker login` first")
	}
	return token, nil
}

func registerAction(ctx context.Context, cmd *cli.Command) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	resp, err := a.client.Register(ctx, &dtos.RegisterRequest{
		Email:    cmd.String("email"),
		Password: cmd.String("password"),
		Name:     cmd.String("name"),
	})
	if err != nil {
		return err
	}
	if err := a.relay.Session.Set(resp.Token); err != nil {
		return err
	}
	fmt.Printf("✅ Registered and logged in as %s\n", resp.User.Email)
	return nil
}

func loginAction(ctx context.Context, cmd *cli.Command) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	resp, err := a.client.Login(ctx, &dtos.LoginRequest{
		Email:    cmd.String("email"),
		Password: cmd.String("password"),
	})
	if err != nil {
		return err
	}
	if err := a.relay.Session.Set(resp.Token); err != nil {
		return err
	}
	fmt.Printf("✅ Logged in as %s\n", resp.User.Email)
	return nil
}

func logoutAction(ctx context.Context, cmd *cli.Command) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	if err := a.relay.Session.Clear(); err != nil {
		return err
	}
	fmt.Println("Logged out")
	return nil
}

func whoamiAction(ctx context.Context, cmd *cli.Command) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	resp := a.relay.Handle(ctx, relay.Message{Action: relay.ActionCheckAuth})
	if !resp.Authenticated {
		return errors.New("not logged in")
	}
	fmt.Printf("%s <%s>\n", resp.User.Name, resp.User.Email)
	return nil
}

func extractAction(ctx context.Context, cmd *cli.Command) error {
	rawURL := cmd.Args().First()
	if rawURL == "" {
		return errors.New("usage: jobtracker extract <url>")
	}
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	resp := a.relay.Handle(ctx, relay.Message{Action: relay.ActionExtractJob, URL: rawURL})
	if resp.Error != "" {
		return errors.New(resp.Error)
	}
	if resp.Details == nil {
		return fmt.Errorf("no job posting found at %s", rawURL)
	}
	printDetails(resp.Details)
	return nil
}

func saveAction(ctx context.Context, cmd *cli.Command) error {
	rawURL := cmd.Args().First()
	if rawURL == "" {
		return errors.New("usage: jobtracker save <url>")
	}
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	extracted := a.relay.Handle(ctx, relay.Message{Action: relay.ActionExtractJob, URL: rawURL})
	if extracted.Error != "" {
		return errors.New(extracted.Error)
	}
	details := extracted.Details
	if details == nil {
		details = &extract.JobDetails{URL: rawURL}
	}

	resp := a.relay.Handle(ctx, relay.Message{Action: relay.ActionSaveJob, Data: details})
	if !resp.Success {
		return errors.New(resp.Error)
	}
	fmt.Printf("✅ Saved %s at %s (%s)\n", resp.Job.Title, resp.Job.Company, resp.Job.ID)
	return nil
}

func jobsAction(ctx context.Context, cmd *cli.Command) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	token, err := a.requireToken()
	if err != nil {
		return err
	}
	status := models.ApplicationStatus(cmd.String("status"))
	if status != "" && !status.Valid() {
		return fmt.Errorf("unknown status %q", status)
	}
	jobs, err := a.client.ListJobs(ctx, token, status)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Status", "Title", "Company", "Added")
	for _, job := range jobs {
		table.Append(job.ID, string(job.Status), job.Title, job.Company, job.DateAdded.Format("2006-01-02"))
	}
	return table.Render()
}

func statsAction(ctx context.Context, cmd *cli.Command) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	token, err := a.requireToken()
	if err != nil {
		return err
	}
	stats, err := a.client.Stats(ctx, token)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Metric", "Value")
	table.Append("Total", fmt.Sprintf("%d", stats.Total))
	for _, st := range models.AllStatuses {
		table.Append("  "+string(st), fmt.Sprintf("%d", stats.ByStatus[st]))
	}
	table.Append("Response rate", fmt.Sprintf("%.0f%%", stats.ResponseRate*100))
	table.Append("Avg. days to response", fmt.Sprintf("%d", stats.AverageTimeToResponse))
	return table.Render()
}

func gmailAuthAction(ctx context.Context, cmd *cli.Command) error {
	return auth.AuthorizeGmail(ctx, cmd.String("credentials"), cmd.String("token"), func(authURL string) (string, error) {
		fmt.Printf("Open this link in your browser, then paste the authorization code:\n%s\n> ", authURL)
		code, err := bufio.NewReader(os.Stdin).ReadString('\n')
		return strings.TrimSpace(code), err
	})
}

func printDetails(d *extract.JobDetails) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Field", "Value")
	table.Append("Site", string(d.Site))
	table.Append("Title", d.Title)
	table.Append("Company", d.Company)
	if d.Location != "" {
		table.Append("Location", d.Location)
	}
	if d.Salary != "" {
		table.Append("Salary", d.Salary)
	}
	table.Append("URL", d.URL)
	table.Render()
}

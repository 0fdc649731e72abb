// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/chesscom/workreport/internal/config"
	"github.com/chesscom/workreport/internal/domain"
	"github.com/chesscom/workreport/internal/editor"
	"github.com/chesscom/workreport/internal/gateway"
	"github.com/chesscom/workreport/internal/gitrepo"
	"github.com/chesscom/workreport/internal/mail"
	"github.com/chesscom/workreport/internal/report"
	"github.com/chesscom/workreport/internal/usecase"
	"github.com/chesscom/workreport/internal/window"
)

var sendCmd = &cobra.Command{
	Use:   "send [flags] recipient...",
	Short: "Assembles the activity report, opens it in your editor and mails it",
	Long: `Collects the author's commits on active branches and their open pull
requests since the window boundary, assembles them into a report, opens the
report in your editor, and emails the edited result to every recipient.`,
	Args: cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		// Get the verbose flag from the root command to set up the logger.
		verbose, _ := cmd.InheritedFlags().GetBool("verbose")
		logger := log.New(io.Discard, "", log.LstdFlags) // Default: discard all logs.
		if verbose {
			logger.SetOutput(os.Stderr) // If verbose, log to standard error.
		}

		cfg, err := resolveConfig(cmd, args)
		if err == nil {
			err = run(context.Background(), cfg, logger)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

// resolveConfig builds the run configuration: documented defaults, then the
// optional YAML file, then any flag the user explicitly set, then the
// positional recipient arguments.
func resolveConfig(cmd *cobra.Command, args []string) (config.Config, error) {
	cfg := config.New()

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return config.Config{}, err
		}
	}

	flags := cmd.Flags()
	setString := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	setString("from", &cfg.From)
	setString("token", &cfg.Token)
	setString("username", &cfg.Username)
	setString("password", &cfg.Password)
	setString("author", &cfg.Author)
	setString("org", &cfg.Organization)
	setString("repo", &cfg.Repository)
	setString("dir", &cfg.Dir)
	setString("since", &cfg.Since)
	setString("smtp-server", &cfg.SMTPServer)
	setString("smtp-username", &cfg.SMTPUsername)
	setString("smtp-password", &cfg.SMTPPassword)
	if flags.Changed("branch") {
		cfg.Branches, _ = flags.GetStringSlice("branch")
	}
	if flags.Changed("smtp-port") {
		cfg.SMTPPort, _ = flags.GetInt("smtp-port")
	}
	if len(args) > 0 {
		cfg.To = args
	}

	return cfg, cfg.Validate()
}

func run(ctx context.Context, cfg config.Config, logger *log.Logger) error {
	// The boundary is resolved exactly once; every filter below uses it.
	since, err := window.Resolve(cfg.Since, time.Now())
	if err != nil {
		return err
	}
	logger.Printf("Window boundary: %s", since.Format(time.RFC3339))

	fetcher, err := gateway.NewGitHubGateway(gateway.Credentials{
		Token:    cfg.Token,
		Username: cfg.Username,
		Password: cfg.Password,
	}, logger)
	if err != nil {
		return err
	}

	branches := cfg.Branches
	if len(branches) == 0 {
		refs, err := gitrepo.NewSelector(cfg.Dir).Branches()
		if err != nil {
			return err
		}
		branches = gitrepo.ActiveSince(refs, since)
		logger.Printf("Discovered %d active branch(es) in %s.", len(branches), cfg.Dir)
	}

	builder := usecase.NewBuilder(fetcher, logger)

	commits, failures := builder.CollectCommits(ctx, cfg.Organization, cfg.Repository, cfg.Author, branches, since)
	for _, f := range failures {
		fmt.Fprintf(os.Stderr, "warning: branch %s skipped: %v\n", f.Branch, f.Err)
	}

	pulls, err := builder.SelectPullRequests(ctx, cfg.Organization, cfg.Repository, cfg.Author, since)
	if err != nil {
		return err
	}

	document, err := report.Assemble(commits, pulls)
	if err != nil {
		return err
	}

	// Resolve the sender before the operator spends time editing.
	from := cfg.From
	if from == "" {
		from, err = fetcher.UserEmail(ctx, cfg.Author)
		if err != nil {
			return err
		}
		if from == "" {
			return fmt.Errorf("%w: no public email on the %s profile, use --from", domain.ErrConfig, cfg.Author)
		}
	}

	body, err := editor.New().Open(document)
	if err != nil {
		return err
	}

	sender := mail.Sender{
		Host:     cfg.SMTPServer,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     from,
	}
	if err := sender.Send(cfg.To, body); err != nil {
		return err
	}

	logger.Printf("Report sent to %d recipient(s).", len(cfg.To))
	return nil
}

func init() {
	rootCmd.AddCommand(sendCmd)
	f := sendCmd.Flags()
	f.String("config", "", "Path to a YAML config file (keys mirror the flags)")
	f.String("from", "", "Sender address (default: the author's GitHub profile email)")
	f.String("token", "", "GitHub API token")
	f.String("username", "", "GitHub username (with --password, instead of --token)")
	f.String("password", "", "GitHub password")
	f.StringP("author", "a", "", "GitHub login whose activity is reported (required)")
	f.StringP("org", "o", config.DefaultOrganization, "GitHub organization")
	f.StringP("repo", "r", config.DefaultRepository, "GitHub repository")
	f.StringSlice("branch", nil, "Branch to report on (repeatable; default: branches active since the boundary)")
	f.String("dir", ".", "Local checkout used for branch discovery")
	f.String("since", config.DefaultSince, "Window boundary: today, yesterday, YYYY-MM-DD, YYYY/MM/DD or RFC 3339")
	f.String("smtp-server", "", "SMTP server host (required)")
	f.Int("smtp-port", config.DefaultSMTPPort, "SMTP server port")
	f.String("smtp-username", "", "SMTP username (required)")
	f.String("smtp-password", "", "SMTP password (required)")
}

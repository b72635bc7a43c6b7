package admin

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"
)

// SessionsCommand returns the sessions subcommand group.
func SessionsCommand() *cli.Command {
	return &cli.Command{
		Name:    "sessions",
		Aliases: []string{"sess"},
		Usage:   "Inspect and revoke sessions",
		Subcommands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "List a user's sessions, newest first",
				ArgsUsage: "USERNAME",
				Action:    sessionsList,
			},
			{
				Name:   "cleanup",
				Usage:  "Delete expired sessions",
				Action: sessionsCleanup,
			},
			{
				Name:      "revoke",
				Usage:     "Revoke every session of a user",
				ArgsUsage: "USERNAME",
				Action:    sessionsRevoke,
			},
		},
	}
}

func sessionsList(c *cli.Context) error {
	username, err := usernameArg(c)
	if err != nil {
		return err
	}
	env, err := getEnv(c)
	if err != nil {
		return err
	}
	list, err := env.Admin.ListSessions(c.Context, username)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(env.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tCREATED\tEXPIRES\tLAST ACCESS\tEXPIRED")
	for _, s := range list {
		id := s.ID
		if len(id) > 12 {
			id = id[:12] + "…"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n", id,
			s.CreatedAt.UTC().Format(time.RFC3339),
			s.ExpiresAt.UTC().Format(time.RFC3339),
			s.LastAccessed.UTC().Format(time.RFC3339),
			s.IsExpired())
	}
	return tw.Flush()
}

func sessionsCleanup(c *cli.Context) error {
	env, err := getEnv(c)
	if err != nil {
		return err
	}
	n, err := env.Admin.CleanupExpired(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintf(env.Out, "%d expired session(s) removed\n", n)
	return nil
}

func sessionsRevoke(c *cli.Context) error {
	username, err := usernameArg(c)
	if err != nil {
		return err
	}
	env, err := getEnv(c)
	if err != nil {
		return err
	}
	n, err := env.Admin.RevokeSessions(c.Context, username)
	if err != nil {
		return err
	}
	fmt.Fprintf(env.Out, "%d session(s) revoked for %q\n", n, username)
	return nil
}

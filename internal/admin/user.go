package admin

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/urfave/cli/v2"
)

// UserCommand returns the user subcommand group.
func UserCommand() *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "Manage accounts",
		Subcommands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Create an account (password is prompted for)",
				ArgsUsage: "USERNAME",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "contact email"},
				},
				Action: userCreate,
			},
			{
				Name:   "list",
				Usage:  "List accounts",
				Action: userList,
			},
			{
				Name:      "passwd",
				Usage:     "Set a new password and revoke all sessions",
				ArgsUsage: "USERNAME",
				Action:    userPasswd,
			},
			{
				Name:      "disable",
				Usage:     "Disable an account and revoke its sessions",
				ArgsUsage: "USERNAME",
				Action:    userSetActive(false),
			},
			{
				Name:      "enable",
				Usage:     "Re-enable a disabled account",
				ArgsUsage: "USERNAME",
				Action:    userSetActive(true),
			},
			{
				Name:      "delete",
				Usage:     "Delete an account and its sessions",
				ArgsUsage: "USERNAME",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "Skip confirmation"},
				},
				Action: userDelete,
			},
		},
	}
}

func usernameArg(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", fmt.Errorf("usage: %s %s", c.Command.HelpName, c.Command.ArgsUsage)
	}
	return c.Args().First(), nil
}

func userCreate(c *cli.Context) error {
	username, err := usernameArg(c)
	if err != nil {
		return err
	}
	env, err := getEnv(c)
	if err != nil {
		return err
	}

	pw, err := env.Prompt.NewPassword()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	var email *string
	if v := c.String("email"); v != "" {
		email = &v
	}

	u, err := env.Users.CreateUser(c.Context, username, string(pw), email)
	if err != nil {
		return err
	}
	fmt.Fprintf(env.Out, "created user %q (id %d)\n", u.Username, u.ID)
	return nil
}

func userList(c *cli.Context) error {
	env, err := getEnv(c)
	if err != nil {
		return err
	}
	list, err := env.Admin.ListUsers(c.Context)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(env.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tACTIVE\tCREATED")
	for _, u := range list {
		email := "-"
		if u.Email != nil {
			email = *u.Email
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%t\t%s\n", u.ID, u.Username, email, u.IsActive, u.CreatedAt.UTC().Format(time.RFC3339))
	}
	return tw.Flush()
}

func userPasswd(c *cli.Context) error {
	username, err := usernameArg(c)
	if err != nil {
		return err
	}
	env, err := getEnv(c)
	if err != nil {
		return err
	}
	u, err := env.Admin.Lookup(c.Context, username)
	if err != nil {
		return err
	}

	pw, err := env.Prompt.NewPassword()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	if err := env.Users.SetPassword(c.Context, u.ID, string(pw)); err != nil {
		return err
	}
	fmt.Fprintf(env.Out, "password changed for %q, all sessions revoked\n", u.Username)
	return nil
}

func userSetActive(active bool) cli.ActionFunc {
	return func(c *cli.Context) error {
		username, err := usernameArg(c)
		if err != nil {
			return err
		}
		env, err := getEnv(c)
		if err != nil {
			return err
		}
		n, err := env.Admin.SetActive(c.Context, username, active)
		if err != nil {
			return err
		}
		if active {
			fmt.Fprintf(env.Out, "user %q enabled\n", username)
		} else {
			fmt.Fprintf(env.Out, "user %q disabled, %d session(s) revoked\n", username, n)
		}
		return nil
	}
}

func userDelete(c *cli.Context) error {
	username, err := usernameArg(c)
	if err != nil {
		return err
	}
	env, err := getEnv(c)
	if err != nil {
		return err
	}

	if !c.Bool("force") {
		ok, err := env.Prompt.Confirm(fmt.Sprintf("Delete user %q?", username))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(env.Out, "aborted")
			return nil
		}
	}

	n, err := env.Admin.DeleteUser(c.Context, username)
	if err != nil {
		return err
	}
	fmt.Fprintf(env.Out, "user %q deleted, %d session(s) revoked\n", username, n)
	return nil
}

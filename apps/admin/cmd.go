package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"syscall"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trezcool/studiousvault/core"
	"github.com/trezcool/studiousvault/core/catalog"
	"github.com/trezcool/studiousvault/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errNoPassword = errors.New("password is required")
)

type commandLine struct {
	store      core.LocalStorage
	sessionKey string
	usrSvc     user.Service
	catSvc     catalog.Service
	notifier   core.Notifier
	out        io.Writer
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Studious Vault administration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	session := &cobra.Command{
		Use:   "session",
		Short: "Inspect or clear the persisted session",
	}
	session.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the persisted identity",
			Args:  cobra.NoArgs,
			RunE:  func(cmd *cobra.Command, _ []string) error { return cli.showSession(cmd.Context()) },
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Log out: remove the persisted identity",
			Args:  cobra.NoArgs,
			RunE:  func(cmd *cobra.Command, _ []string) error { return cli.clearSession(cmd.Context()) },
		},
	)

	var identifier string
	login := &cobra.Command{
		Use:   "login",
		Short: "Log in and persist the session for the next server start. The password is prompted next.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprint(cli.out, "Enter password:")
			pwd, err := readPasswordFunc(int(syscall.Stdin))
			fmt.Fprintln(cli.out)
			if err != nil {
				return errors.Wrap(err, "reading password")
			}
			if len(pwd) == 0 {
				return errNoPassword
			}
			return cli.login(cmd.Context(), identifier, string(pwd))
		},
	}
	login.Flags().StringVar(&identifier, "identifier", "", "registration number (students) or name (admins)")
	_ = login.MarkFlagRequired("identifier")

	subjects := &cobra.Command{
		Use:   "subjects",
		Short: "List the catalog",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, _ []string) error { return cli.listSubjects(cmd.Context()) },
	}

	users := &cobra.Command{
		Use:   "users",
		Short: "List the roster",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, _ []string) error { return cli.listUsers(cmd.Context()) },
	}

	root.AddCommand(session, login, subjects, users)
	root.SetOut(cli.out)
	root.SetErr(cli.out)
	return root
}

// run executes args (program name included).
func (cli *commandLine) run(ctx context.Context, args []string) error {
	root := cli.rootCmd()
	root.SetArgs(args[1:])
	return root.ExecuteContext(ctx)
}

func (cli *commandLine) showSession(ctx context.Context) error {
	data, err := cli.store.Get(ctx, cli.sessionKey)
	if err != nil {
		if errors.Cause(err) == core.ErrNoValue {
			fmt.Fprintln(cli.out, "no active session")
			return nil
		}
		return errors.Wrap(err, "reading session")
	}

	var usr user.User
	if err = json.Unmarshal(data, &usr); err != nil {
		return errors.Wrap(err, "decoding session")
	}
	fmt.Fprintf(cli.out, "%s (%s)", usr.Name, usr.Role)
	if usr.RegNumber != "" {
		fmt.Fprintf(cli.out, " %s", usr.RegNumber)
	}
	fmt.Fprintf(cli.out, " id=%s\n", usr.ID)
	return nil
}

func (cli *commandLine) clearSession(ctx context.Context) error {
	res, err := cli.usrSvc.Logout(ctx)
	if err != nil {
		return errors.Wrap(err, "logging out")
	}
	cli.notifier.Drain()
	fmt.Fprintln(cli.out, res.Message)
	return nil
}

func (cli *commandLine) login(ctx context.Context, identifier, pwd string) error {
	if err := cli.usrSvc.Restore(ctx); err != nil {
		return errors.Wrap(err, "restoring session")
	}
	res, err := cli.usrSvc.Login(ctx, user.Credentials{Identifier: identifier, Password: pwd})
	notices := cli.notifier.Drain()
	if err != nil {
		for _, n := range notices {
			fmt.Fprintln(cli.out, n.Message)
		}
		return err
	}
	fmt.Fprintln(cli.out, res.Message)
	return nil
}

func (cli *commandLine) listSubjects(ctx context.Context) error {
	subjects, err := cli.catSvc.ListSubjects(ctx)
	if err != nil {
		return errors.Wrap(err, "listing subjects")
	}

	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCODE\tNAME\tASSIGNMENTS\tPDFS\tVIDEOS")
	for _, s := range subjects {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\n", s.ID, s.Code, s.Name,
			s.CountByType(catalog.TypeAssignment), s.CountByType(catalog.TypePDF), s.CountByType(catalog.TypeYoutube))
	}
	return w.Flush()
}

func (cli *commandLine) listUsers(ctx context.Context) error {
	users, err := cli.usrSvc.QueryAll(ctx)
	if err != nil {
		return errors.Wrap(err, "listing users")
	}

	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tROLE\tREG NUMBER")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Role, u.RegNumber)
	}
	return w.Flush()
}

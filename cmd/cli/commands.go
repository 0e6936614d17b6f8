package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/and161185/jobassist/internal/config"
	"github.com/and161185/jobassist/internal/errs"
	"github.com/and161185/jobassist/internal/guard"
	"github.com/and161185/jobassist/internal/session"
	"github.com/and161185/jobassist/internal/workflow"
)

// rootCmd builds the command tree.
func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ja",
		Short:         "Job-application assistant client",
		Long:          "ja uploads resumes, analyzes companies, and generates cover letters and email drafts.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgPath, "config", "", "config file (default "+config.DefaultPath()+")")
	pf.BoolVar(&a.jsonOut, "json", false, "print JSON instead of text")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log requests to stderr")

	root.AddCommand(
		a.versionCmd(),
		a.configCmd(),
		a.signupCmd(),
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.dashboardCmd(),
		a.uploadCmd(),
		a.fileCmd(),
		a.documentCmd(),
		a.profileCmd(),
		a.companyCmd(),
		a.letterCmd(),
		a.draftCmd(),
		a.settingsCmd(),
	)
	return root
}

// emit prints v as JSON with --json, otherwise through text.
func (a *app) emit(v any, text func(io.Writer) error) error {
	if a.jsonOut {
		return printJSON(a.out, v)
	}
	return text(a.out)
}

func (a *app) say(format string, args ...any) {
	if a.jsonOut {
		return
	}
	fmt.Fprintf(a.out, format+"\n", args...)
}

// readAll reads a file, or stdin for "-".
func (a *app) readAll(p string) (string, error) {
	var (
		b   []byte
		err error
	)
	if p == "-" {
		b, err = io.ReadAll(a.in)
	} else {
		b, err = os.ReadFile(p)
	}
	if err != nil {
		return "", errs.Validation("read %s: %v", p, err)
	}
	return string(b), nil
}

// readSecret returns flagVal, or the first line of stdin when it is empty.
func (a *app) readSecret(flagVal, what string) (string, error) {
	if flagVal != "" {
		return flagVal, nil
	}
	fmt.Fprintf(a.errOut, "%s: ", what)
	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ---- misc ----

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "version",
		Short:             "Print the client version",
		Args:              cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(*cobra.Command, []string) error {
			fmt.Fprintf(a.out, "ja %s (%s)\n", version, buildDate)
			return nil
		},
	}
}

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			cfg, err := config.Load(a.cfgPath)
			a.cfg = cfg
			return err
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (secrets redacted)",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if a.jsonOut {
				return printJSON(a.out, a.cfg.Redacted())
			}
			b, err := a.cfg.YAML()
			if err != nil {
				return err
			}
			_, err = a.out.Write(b)
			return err
		},
	})
	return cmd
}

// ---- account ----

func (a *app) signupCmd() *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := a.readSecret(password, "Password")
			if err != nil {
				return err
			}
			u, err := a.accounts.Signup(cmd.Context(), name, email, pw)
			if err != nil {
				return err
			}
			a.say("Account created. Logged in as %s <%s>", u.Name, u.Email)
			if a.jsonOut {
				return printJSON(a.out, u)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "full name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password (read from stdin when omitted)")
	return routed(cmd, guard.Signup)
}

func (a *app) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := a.readSecret(password, "Password")
			if err != nil {
				return err
			}
			u, err := a.accounts.Login(cmd.Context(), email, pw)
			if err != nil {
				return err
			}
			a.say("Logged in as %s <%s>", u.Name, u.Email)
			if a.jsonOut {
				return printJSON(a.out, u)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password (read from stdin when omitted)")
	return routed(cmd, guard.Login)
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.accounts.Logout(cmd.Context()); err != nil {
				return err
			}
			a.say("Logged out")
			return nil
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the current identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, _ := a.store.User()
			if remote {
				var err error
				if u, err = a.accounts.Me(cmd.Context()); err != nil {
					return err
				}
			}
			var exp string
			if c, err := a.store.Claims(); err == nil && !c.ExpiresAt().IsZero() {
				exp = c.ExpiresAt().Local().Format("2006-01-02 15:04")
			}
			out := struct {
				ID        string `json:"id"`
				Name      string `json:"name"`
				Email     string `json:"email"`
				ExpiresAt string `json:"token_expires_at,omitempty"`
				Store     string `json:"session_store"`
			}{u.ID, u.Name, u.Email, exp, a.sessionLocation()}
			return a.emit(out, func(w io.Writer) error {
				fmt.Fprintf(w, "%s <%s> (id %s)\n", out.Name, out.Email, out.ID)
				if exp != "" {
					fmt.Fprintf(w, "token expires %s\n", exp)
				}
				fmt.Fprintf(w, "session stored in %s\n", out.Store)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "ask the backend instead of the local session")
	return routed(cmd, guard.Landing)
}

func (a *app) sessionLocation() string {
	if a.cfg.Session.Backend == config.BackendPostgres {
		return "postgres (profile " + a.cfg.Session.Profile + ")"
	}
	if a.cfg.Session.Dir != "" {
		return a.cfg.Session.Dir
	}
	return session.DefaultDir()
}

func (a *app) dashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Overview of profiles, companies and letters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := workflow.LoadDashboard(cmd.Context(), a.client)
			if err != nil {
				return err
			}
			u, _ := a.store.User()
			return a.emit(d, func(w io.Writer) error { return renderDashboard(w, u, d) })
		},
	}
	return routed(cmd, guard.Landing)
}

// ---- settings ----

func (a *app) settingsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "settings", Short: "Models and provider API keys"}

	show := &cobra.Command{
		Use:   "show",
		Short: "List models and key status per provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ov, err := a.settings.Overview(cmd.Context())
			if err != nil {
				return err
			}
			return a.emit(ov, func(w io.Writer) error { return renderOverview(w, ov) })
		},
	}

	var key string
	var validate bool
	setKey := &cobra.Command{
		Use:   "set-key <provider>",
		Short: "Store an API key for a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := a.readSecret(key, "API key")
			if err != nil {
				return err
			}
			if err := a.settings.SaveKey(cmd.Context(), args[0], k, validate); err != nil {
				return err
			}
			a.say("API key saved for %s", args[0])
			return nil
		},
	}
	setKey.Flags().StringVar(&key, "key", "", "API key (read from stdin when omitted)")
	setKey.Flags().BoolVar(&validate, "validate", true, "have the backend test the key before saving")

	status := &cobra.Command{
		Use:   "key-status <provider>",
		Short: "Show whether a key is stored",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.settings.Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.emit(st, func(w io.Writer) error {
				if !st.Exists {
					fmt.Fprintf(w, "%s: not configured\n", args[0])
					return nil
				}
				since := "-"
				if st.Credential != nil {
					since = date(st.Credential.CreatedAt)
				}
				fmt.Fprintf(w, "%s: configured (since %s)\n", args[0], since)
				return nil
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete-key <provider>",
		Short: "Remove a stored key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.settings.DeleteKey(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.say("API key deleted for %s", args[0])
			return nil
		},
	}

	for _, c := range []*cobra.Command{show, setKey, status, del} {
		cmd.AddCommand(routed(c, "/settings"))
	}
	return cmd
}

package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sufield/wabbit/internal/core/domain"
	"github.com/sufield/wabbit/internal/core/errors"
)

type loginOptions struct {
	user     string
	password string
	plugin   string
	actions  []string
}

func newLoginCmd(opts *globalOptions) *cobra.Command {
	lo := &loginOptions{}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate against a configured auth plugin",
		Long: `Authenticate with a login and password against an auth plugin and print the
roles of the account. Each --action is then checked for the new session.

Exit codes distinguish rejected credentials (4) from configuration (3) and
usage (2) errors.`,
		Example: `  wabbit login --config wabbit.yaml --user alice --password s3cret-pass
  wabbit login -c wabbit.yaml --plugin auth/ldap#eu --user bob --password pw --action beans:reg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogin(cmd, opts, lo)
		},
	}

	cmd.Flags().StringVarP(&lo.user, "user", "u", "", "Account login (required)")
	cmd.Flags().StringVarP(&lo.password, "password", "p", "", "Account password (required)")
	cmd.Flags().StringVar(&lo.plugin, "plugin", "", "Auth plugin id as name/param#param (first auth plugin when empty)")
	cmd.Flags().StringSliceVar(&lo.actions, "action", nil, "Action resource:verb to authorize after login (repeatable)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func runLogin(cmd *cobra.Command, opts *globalOptions, lo *loginOptions) error {
	actions := make([]domain.Action, 0, len(lo.actions))
	for _, a := range lo.actions {
		action, err := domain.ParseAction(a)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUsage, err)
		}
		actions = append(actions, action)
	}

	var pluginID domain.NameParams
	if lo.plugin != "" {
		id, err := domain.ParseNameParams(lo.plugin)
		if err != nil {
			return fmt.Errorf("%w: invalid --plugin: %v", ErrUsage, err)
		}
		pluginID = id
	}

	rt, _, stop, err := opts.startRuntime(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = stop() }()

	ctx := cmd.Context()
	auth, ok := rt.Auth(pluginID)
	if pluginID.IsZero() {
		pluginID, auth, ok = rt.DefaultAuth()
	}
	if !ok {
		return fmt.Errorf("%w: no auth plugin %q is configured", ErrConfig, lo.plugin)
	}

	principal, err := auth.Login(ctx, domain.PasswordCredentials{Login: lo.user, Password: lo.password})
	if err != nil {
		return authFailure(err)
	}

	roles, err := auth.Roles(ctx, principal)
	if err != nil {
		return authFailure(err)
	}
	sort.Strings(roles)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Authenticated %s via %s\n", principal.Login, pluginID)
	fmt.Fprintf(out, "Roles: %s\n", strings.Join(roles, ", "))
	fmt.Fprintf(out, "Session expires: %s\n", principal.ExpiresAt.UTC().Format(time.RFC3339))

	denied := 0
	for _, action := range actions {
		if err := auth.CheckAction(ctx, principal, action); err != nil {
			if !errors.IsAuthFailure(err) {
				return fmt.Errorf("%w: %v", ErrRuntime, err)
			}
			denied++
			fmt.Fprintf(out, "  %-24s denied\n", action)
			continue
		}
		fmt.Fprintf(out, "  %-24s allowed\n", action)
	}
	if denied > 0 {
		return fmt.Errorf("%w: %d of %d action(s) denied", ErrAuth, denied, len(actions))
	}

	return stop()
}

func authFailure(err error) error {
	if errors.IsAuthFailure(err) {
		return fmt.Errorf("%w: %v", ErrAuth, err)
	}
	return fmt.Errorf("%w: %v", ErrRuntime, err)
}

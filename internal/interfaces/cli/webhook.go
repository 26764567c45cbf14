package cli

import (
	"net/url"

	"github.com/spf13/cobra"
)

func newWebhookCommand(opts *RootOptions, factory EnvFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Manage the POS sale webhook registration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Show the current registration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := factory(cmd.Context())
			if err != nil {
				return &ExitError{Code: ExitCommandError, Message: "setup failed", Err: err}
			}
			hook, err := env.Webhooks.GetWebhook(cmd.Context())
			if err != nil {
				return err
			}

			out := newFormatter(opts, cmd.OutOrStdout())
			if out.isJSON() {
				return out.json(hook)
			}
			if hook == nil {
				out.line("no webhook registered")
				return nil
			}
			out.line("url: %s", hook.URL)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "register <url>",
		Short: "Point POS sale notifications at url",
		Long: `Register url as the POS sale webhook, replacing any existing registration.

The POS returns the signing secret; configure it as WEBHOOK_SECRET on the server.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := url.ParseRequestURI(args[0])
			if err != nil || target.Host == "" {
				return &ExitError{Code: ExitCommandError, Message: "invalid webhook url " + args[0]}
			}

			env, err := factory(cmd.Context())
			if err != nil {
				return &ExitError{Code: ExitCommandError, Message: "setup failed", Err: err}
			}
			hook, err := env.Webhooks.RegisterWebhook(cmd.Context(), target.String())
			if err != nil {
				return err
			}

			out := newFormatter(opts, cmd.OutOrStdout())
			if out.isJSON() {
				return out.json(hook)
			}
			out.line("registered: %s", hook.URL)
			if hook.Secret != "" {
				out.line("secret: %s", hook.Secret)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete",
		Short: "Remove the registration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := factory(cmd.Context())
			if err != nil {
				return &ExitError{Code: ExitCommandError, Message: "setup failed", Err: err}
			}
			if err := env.Webhooks.DeleteWebhook(cmd.Context()); err != nil {
				return err
			}
			newFormatter(opts, cmd.OutOrStdout()).line("webhook deleted")
			return nil
		},
	})

	return cmd
}

// Package cli implements posbridgectl, the operator command line of the POS bridge.
package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/erp/posbridge/internal/domain/catalogsync"
	"github.com/erp/posbridge/internal/infrastructure/crm"
	"github.com/erp/posbridge/internal/infrastructure/pos"
)

// CatalogRunner runs one catalog reconciliation
type CatalogRunner interface {
	Run(ctx context.Context) (*catalogsync.RunSummary, error)
}

// WebhookAdmin manages the POS webhook registration
type WebhookAdmin interface {
	GetWebhook(ctx context.Context) (*pos.Webhook, error)
	RegisterWebhook(ctx context.Context, target string) (*pos.Webhook, error)
	DeleteWebhook(ctx context.Context) error
}

// GoodsLister lists the POS catalog
type GoodsLister interface {
	ListGoods(ctx context.Context) ([]catalogsync.Good, error)
}

// ReferenceLister lists the CRM reference data needed to fill the order config
type ReferenceLister interface {
	ListPaymentMethods(ctx context.Context) ([]crm.ReferenceItem, error)
	ListOrderStatuses(ctx context.Context) ([]crm.ReferenceItem, error)
	ListOrderSources(ctx context.Context) ([]crm.ReferenceItem, error)
}

// Env is what the commands operate on
type Env struct {
	Runner    CatalogRunner
	Webhooks  WebhookAdmin
	Goods     GoodsLister
	Reference ReferenceLister
}

// EnvFactory builds the command environment. It is called once per command,
// after flags are parsed.
type EnvFactory func(ctx context.Context) (*Env, error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command
func NewRootCommand(factory EnvFactory) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "posbridgectl",
		Short: "Operate the CRM to POS bridge",
		Long:  "Run catalog syncs, manage the POS webhook and look up CRM reference data.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(newSyncCommand(opts, factory))
	cmd.AddCommand(newWebhookCommand(opts, factory))
	cmd.AddCommand(newCRMCommand(opts, factory))
	cmd.AddCommand(newPOSCommand(opts, factory))

	return cmd
}

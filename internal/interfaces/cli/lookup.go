package cli

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/erp/posbridge/internal/infrastructure/crm"
)

type referenceSection struct {
	Name  string              `json:"name"`
	Items []crm.ReferenceItem `json:"items"`
}

func newCRMCommand(opts *RootOptions, factory EnvFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crm",
		Short: "CRM lookups",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "reference",
		Short: "List payment methods, order statuses and order sources",
		Long: `List the CRM reference data whose ids go into the ORDER_* settings:
payment methods, order statuses and order sources.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := factory(cmd.Context())
			if err != nil {
				return &ExitError{Code: ExitCommandError, Message: "setup failed", Err: err}
			}

			ref := env.Reference
			lists := []struct {
				name string
				list func(context.Context) ([]crm.ReferenceItem, error)
			}{
				{"payment methods", ref.ListPaymentMethods},
				{"order statuses", ref.ListOrderStatuses},
				{"order sources", ref.ListOrderSources},
			}

			sections := make([]referenceSection, 0, len(lists))
			for _, l := range lists {
				items, err := l.list(cmd.Context())
				if err != nil {
					return err
				}
				sections = append(sections, referenceSection{Name: l.name, Items: items})
			}

			out := newFormatter(opts, cmd.OutOrStdout())
			if out.isJSON() {
				return out.json(sections)
			}
			for i, s := range sections {
				if i > 0 {
					out.line("")
				}
				out.line("%s:", s.Name)
				rows := make([][]string, 0, len(s.Items))
				for _, item := range s.Items {
					rows = append(rows, []string{strconv.FormatInt(item.ID, 10), item.Name, item.Alias})
				}
				if err := out.table([]string{"ID", "NAME", "ALIAS"}, rows); err != nil {
					return err
				}
			}
			return nil
		},
	})

	return cmd
}

func newPOSCommand(opts *RootOptions, factory EnvFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pos",
		Short: "POS lookups",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "goods",
		Short: "List the POS catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := factory(cmd.Context())
			if err != nil {
				return &ExitError{Code: ExitCommandError, Message: "setup failed", Err: err}
			}
			goods, err := env.Goods.ListGoods(cmd.Context())
			if err != nil {
				return err
			}

			out := newFormatter(opts, cmd.OutOrStdout())
			if out.isJSON() {
				return out.json(goods)
			}
			rows := make([][]string, 0, len(goods))
			for _, g := range goods {
				rows = append(rows, []string{g.Code, g.Name, strconv.FormatInt(g.Price, 10), g.ExternalRef})
			}
			if err := out.table([]string{"CODE", "NAME", "PRICE", "REF"}, rows); err != nil {
				return err
			}
			out.line("%d goods", len(goods))
			return nil
		},
	})

	return cmd
}

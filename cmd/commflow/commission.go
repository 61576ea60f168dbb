package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Drakz0n/CommFlow/internal/model"
	"github.com/Drakz0n/CommFlow/internal/repository"
)

func newCommissionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "commission",
		Aliases: []string{"com"},
		Short:   "Manage commissions",
	}
	cmd.AddCommand(
		newCommissionSaveCmd(a),
		newCommissionListCmd(a),
		newCommissionMoveCmd(a),
		newCommissionDeleteCmd(a),
	)
	return cmd
}

func newCommissionSaveCmd(a *app) *cobra.Command {
	var (
		input   string
		c       model.Commission
		status  string
		payment string
	)
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Create or replace a commission",
		Long: `Save writes the commission under pendings/ or history/ depending on its status.
The file name embeds created_at, so pass --created-at when updating an existing
commission to overwrite it in place.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if input != "" {
				// Same decoding as stored files, so a legacy price is converted.
				data, err := readInput(input, cmd.InOrStdin())
				if err != nil {
					return err
				}
				if c, err = repository.DecodeCommission(data); err != nil {
					return fmt.Errorf("decode %s: %w", input, err)
				}
			} else {
				c.Status = model.Status(status)
				c.PaymentStatus = model.PaymentStatus(payment)
			}
			if c.ID == "" {
				c.ID = newID()
			}
			ts := now()
			if c.CreatedAt == "" {
				c.CreatedAt = ts
			}
			c.UpdatedAt = ts
			if err := a.commissions.Create(cmd.Context(), &c); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), c)
		},
	}
	cmd.Flags().StringVar(&input, "json", "", "Read the commission record from a JSON file (- for stdin)")
	cmd.Flags().StringVar(&c.ID, "id", "", "Commission id (generated when empty)")
	cmd.Flags().StringVar(&c.ClientID, "client-id", "", "Owning client id")
	cmd.Flags().StringVar(&c.ClientName, "client-name", "", "Owning client name")
	cmd.Flags().StringVar(&c.Title, "title", "", "Title")
	cmd.Flags().StringVar(&c.Description, "description", "", "Description")
	cmd.Flags().Int64Var(&c.PriceCents, "price-cents", 0, "Price in cents")
	cmd.Flags().StringVar(&payment, "payment", string(model.PaymentNotPaid), "Payment status: Not Paid, Half Paid or Fully Paid")
	cmd.Flags().StringVar(&status, "status", string(model.StatusPending), "Status: pending, in-progress or completed")
	cmd.Flags().StringSliceVar(&c.Images, "image", nil, "Image reference (repeatable)")
	cmd.Flags().StringVar(&c.CreatedAt, "created-at", "", "Creation timestamp (defaults to now)")
	cmd.MarkFlagsMutuallyExclusive("json", "title")
	return cmd
}

func newCommissionListCmd(a *app) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print commissions filed under a status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.commissions.ListByStatus(cmd.Context(), model.Status(status))
			if err != nil {
				return err
			}
			if list == nil {
				list = []model.Commission{}
			}
			return printJSON(cmd.OutOrStdout(), list)
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", string(model.StatusPending), "Status folder to list")
	return cmd
}

func newCommissionMoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <from-status> <to-status>",
		Short: "Change a commission's status, relocating its file when needed",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, from, to := args[0], model.Status(args[1]), model.Status(args[2])
			if err := a.commissions.Move(cmd.Context(), id, from, to); err != nil {
				return err
			}
			printOK(cmd.OutOrStdout(), "commission %s moved %s -> %s", id, from, to)
			return nil
		},
	}
}

func newCommissionDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id> <status>",
		Short: "Delete a commission filed under status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.commissions.Delete(cmd.Context(), args[0], model.Status(args[1])); err != nil {
				return err
			}
			printOK(cmd.OutOrStdout(), "commission %s deleted", args[0])
			return nil
		},
	}
}

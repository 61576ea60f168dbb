package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Drakz0n/CommFlow/internal/model"
)

func newClientCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Manage clients",
	}
	cmd.AddCommand(
		newClientSaveCmd(a),
		newClientGetCmd(a),
		newClientListCmd(a),
		newClientDeleteCmd(a),
	)
	return cmd
}

func newClientSaveCmd(a *app) *cobra.Command {
	var (
		input string
		c     model.Client
		notes string
		image string
	)
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Create or replace a client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if input != "" {
				if err := readJSONInput(input, cmd.InOrStdin(), &c); err != nil {
					return err
				}
			} else {
				c.Notes = optional(notes)
				c.ProfileImage = optional(image)
			}
			if c.ID == "" {
				c.ID = newID()
			}
			ts := now()
			if c.CreatedAt == "" {
				c.CreatedAt = ts
				if existing, err := a.clients.Get(ctx, c.ID); err == nil && existing != nil {
					c.CreatedAt = existing.CreatedAt
				}
			}
			c.UpdatedAt = ts
			if err := a.clients.Create(ctx, &c); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), c)
		},
	}
	cmd.Flags().StringVar(&input, "json", "", "Read the client record from a JSON file (- for stdin)")
	cmd.Flags().StringVar(&c.ID, "id", "", "Client id (generated when empty)")
	cmd.Flags().StringVar(&c.Name, "name", "", "Client name")
	cmd.Flags().StringVar(&c.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&c.Contact, "contact", "", "Other contact info")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes")
	cmd.Flags().StringVar(&image, "profile-image", "", "Profile image reference")
	cmd.MarkFlagsMutuallyExclusive("json", "name")
	return cmd
}

func newClientGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print one client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.clients.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if c == nil {
				return fmt.Errorf("client %s not found", args[0])
			}
			return printJSON(cmd.OutOrStdout(), c)
		},
	}
}

func newClientListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clients, err := a.clients.List(cmd.Context())
			if err != nil {
				return err
			}
			if clients == nil {
				clients = []model.Client{}
			}
			return printJSON(cmd.OutOrStdout(), clients)
		},
	}
}

func newClientDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a client; a missing client is not an error",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.clients.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			printOK(cmd.OutOrStdout(), "client %s deleted", args[0])
			return nil
		},
	}
}

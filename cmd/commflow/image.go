package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newImageCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "image",
		Short: "Manage commission reference images",
	}
	cmd.AddCommand(newImageAddCmd(a))
	return cmd
}

func newImageAddCmd(a *app) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "add <commission-id> <client-name> <file>",
		Short: "Store an image for a commission and print its relative path",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, clientName, file := args[0], args[1], args[2]
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			if name == "" {
				name = filepath.Base(file)
			}
			rel, err := a.images.SaveCommissionImage(id, clientName, name, data)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), rel)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Stored file name (defaults to the source file's base name)")
	return cmd
}

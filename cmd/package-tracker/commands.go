package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/BearBump/PackageTracker/internal/carriers"
	"github.com/BearBump/PackageTracker/internal/models"
	"github.com/BearBump/PackageTracker/internal/services/packages"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func detectCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "detect <tracking-number>",
		Short: "Identify the carrier of a tracking number",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			raw := strings.Join(args, " ")
			if carriers.Normalize(raw) == "" {
				return models.ErrEmptyTrackingNumber
			}
			res := carriers.Detect(raw)
			fmt.Fprintf(c.out, "Number:   %s\n", carriers.Normalize(raw))
			fmt.Fprintf(c.out, "Provider: %s (%s)\n", res.Carrier, res.Key)
			if res.TrackingURL != "" {
				fmt.Fprintf(c.out, "Track:    %s\n", res.TrackingURL)
			}
			fmt.Fprintf(c.out, "Status:   %s\n", carriers.StatusMessage(res))
			return nil
		},
	}
}

func carriersCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "carriers",
		Short: "List known carriers in matching order",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			printCarriers(c.out, carriers.Rules())
			return nil
		},
	}
}

func addCmd(c *cli) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "add <tracking-number>",
		Short: "Start tracking a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			p, err := svc.AddPackage(cmd.Context(), models.PackageCreateInput{TrackingNumber: args[0], Name: name})
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Added %s (%s) as %s\n", p.TrackingNumber, p.Provider, p.ID)
			if p.TrackingURL != "" {
				fmt.Fprintf(c.out, "Track: %s\n", p.TrackingURL)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "label for the package")
	return cmd
}

func listCmd(c *cli) *cobra.Command {
	var archived bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show tracked packages, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			view := viewOf(archived)
			list, err := svc.List(cmd.Context(), view)
			if err != nil {
				return err
			}
			active, arch, err := svc.Counts(cmd.Context())
			if err != nil {
				return err
			}
			printPackages(c.out, view, list)
			if view == models.CollectionActive {
				fmt.Fprintf(c.out, "\nArchive: %d package(s)\n", arch)
			} else {
				fmt.Fprintf(c.out, "\nActive: %d package(s)\n", active)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&archived, "archived", false, "show the archive instead")
	return cmd
}

func deleteCmd(c *cli) *cobra.Command {
	var archived, yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view := viewOf(archived)
			prompt := "Are you sure you want to remove this package?"
			if archived {
				prompt = "Permanently delete this archived package?"
			}
			if !yes && !c.confirm(prompt) {
				fmt.Fprintln(c.out, "Cancelled.")
				return nil
			}
			svc, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			found, err := svc.Delete(cmd.Context(), view, args[0])
			if err != nil {
				return err
			}
			return c.report(found, "Deleted", args[0], view)
		},
	}
	cmd.Flags().BoolVar(&archived, "archived", false, "delete from the archive")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func archiveCmd(c *cli) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "archive <id>",
		Short: "Move a package to the archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !c.confirm("Archive this package? You can restore it from the archive later.") {
				fmt.Fprintln(c.out, "Cancelled.")
				return nil
			}
			svc, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			found, err := svc.Archive(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.report(found, "Archived", args[0], models.CollectionActive)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func restoreCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id>",
		Short: "Move an archived package back to the active list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			found, err := svc.Restore(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.report(found, "Restored", args[0], models.CollectionArchived)
		},
	}
}

func clearCmd(c *cli) *cobra.Command {
	var archived, yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every package in a collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			view := viewOf(archived)
			list, err := svc.List(cmd.Context(), view)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(c.out, "Nothing to clear.")
				return nil
			}
			prompt := fmt.Sprintf("Are you sure you want to remove all %d package(s)?", len(list))
			if archived {
				prompt = fmt.Sprintf("Are you sure you want to remove all %d archived package(s)?", len(list))
			}
			if !yes && !c.confirm(prompt) {
				fmt.Fprintln(c.out, "Cancelled.")
				return nil
			}
			if err := svc.Clear(cmd.Context(), view); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Removed %d package(s).\n", len(list))
			return nil
		},
	}
	cmd.Flags().BoolVar(&archived, "archived", false, "clear the archive instead")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func backupCmd(c *cli) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write both collections to a JSON backup file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			snap, err := svc.Export(cmd.Context())
			if err != nil {
				return err
			}
			if output == "-" {
				return snap.Encode(c.out)
			}
			if output == "" {
				output = packages.BackupFileName(c.now())
			}
			f, err := os.OpenFile(output, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
			if err != nil {
				return errors.Wrap(err, "create backup file")
			}
			if err := snap.Encode(f); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return errors.Wrap(err, "close backup file")
			}
			fmt.Fprintf(c.out, "Backup saved to %s. Keep this file safe.\n", output)
			fmt.Fprintf(c.out, "It contains %d active and %d archived packages.\n", snap.ActiveCount(), snap.ArchivedCount())
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", `output file ("-" for stdout)`)
	return cmd
}

func importCmd(c *cli) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Restore collections from a backup file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(err, "open backup file")
			}
			snap, err := packages.ParseSnapshot(f)
			_ = f.Close()
			if err != nil {
				return errors.Wrap(err, "invalid backup file format")
			}
			prompt := fmt.Sprintf("Restore %d active and %d archived packages? This will REPLACE all current data!",
				snap.ActiveCount(), snap.ArchivedCount())
			if !yes && !c.confirm(prompt) {
				fmt.Fprintln(c.out, "Cancelled.")
				return nil
			}
			svc, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			if err := svc.Import(cmd.Context(), snap); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "Data restored successfully!")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func viewOf(archived bool) models.Collection {
	if archived {
		return models.CollectionArchived
	}
	return models.CollectionActive
}

// report prints the outcome. An unknown id is not an error, there is
// simply nothing to do.
func (c *cli) report(found bool, verb, id string, view models.Collection) error {
	if !found {
		fmt.Fprintf(c.out, "No %s package with id %s, nothing to do.\n", view, id)
		return nil
	}
	fmt.Fprintf(c.out, "%s %s.\n", verb, id)
	return nil
}

package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/BearBump/PackageTracker/internal/carriers"
	"github.com/BearBump/PackageTracker/internal/models"
)

const dateLayout = "2006-01-02"

func printPackages(w io.Writer, view models.Collection, list []models.Package) {
	if len(list) == 0 {
		if view == models.CollectionArchived {
			fmt.Fprintln(w, "No archived packages.")
		} else {
			fmt.Fprintln(w, "No packages yet. Add one with: package-tracker add <tracking-number>")
		}
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tNUMBER\tPROVIDER\tADDED\tSTATUS")
	for _, p := range list {
		added := p.AddedDate.Format(dateLayout)
		if p.ArchivedDate != nil {
			added = "archived " + p.ArchivedDate.Format(dateLayout)
		}
		status := p.Status
		if p.Location != "" {
			status += " @ " + p.Location
		}
		if p.EstimatedDelivery != "" {
			status += " (ETA " + p.EstimatedDelivery + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.TrackingNumber, p.Provider, added, status)
	}
	_ = tw.Flush()
}

func printCarriers(w io.Writer, rules []carriers.Rule) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tNAME\tPATTERNS")
	for _, r := range rules {
		pats := make([]string, 0, len(r.Patterns))
		for _, p := range r.Patterns {
			pats = append(pats, p.String())
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", strings.ToLower(r.Key), r.Name, strings.Join(pats, " "))
	}
	_ = tw.Flush()
}

// confirm asks a yes/no question. Anything but y/yes is a no.
func (c *cli) confirm(question string) bool {
	fmt.Fprintf(c.out, "%s [y/N]: ", question)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

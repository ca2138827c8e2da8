package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charlesng35/sponsorpass/internal/models"
	"github.com/charlesng35/sponsorpass/internal/pagination"
	"github.com/charlesng35/sponsorpass/internal/state"
)

const timeLayout = "2006-01-02 15:04"

func writeSponsors(w io.Writer, sponsors []models.Sponsor, selected *models.Sponsor) error {
	if len(sponsors) == 0 {
		_, err := fmt.Fprintln(w, "No sponsors found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tID\tNAME\tDAILY RATE")
	for _, sponsor := range sponsors {
		marker := ""
		if selected != nil && selected.ID == sponsor.ID {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", marker, sponsor.ID, sponsor.Name, sponsor.DailyRate)
	}
	return tw.Flush()
}

func writePasses(w io.Writer, view state.View) error {
	if view.SelectedSponsor != nil {
		fmt.Fprintf(w, "Passes for %s\n", view.SelectedSponsor.Name)
	}
	if len(view.Passes) == 0 {
		_, err := fmt.Fprintln(w, view.EmptyMessage)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tSTATUS\tEXPIRES")
	for _, pass := range view.Passes {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			pass.ID, pass.FullName(), pass.Email, pass.Status, formatExpiry(pass.ExpiresAt))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "Page %d of %d (%d passes)\n", view.Page, view.TotalPages, view.TotalCount)
	if bar := paginationBar(view.Pagination); bar != "" {
		fmt.Fprintln(w, bar)
	}
	return nil
}

func paginationBar(controls []pagination.Control) string {
	if len(controls) == 0 {
		return ""
	}
	parts := make([]string, 0, len(controls))
	for _, control := range controls {
		switch {
		case control.Active:
			parts = append(parts, "["+control.Label+"]")
		case control.Disabled && control.Kind != pagination.KindEllipsis:
			parts = append(parts, "("+control.Label+")")
		default:
			parts = append(parts, control.Label)
		}
	}
	return strings.Join(parts, " ")
}

func formatExpiry(ts *time.Time) string {
	if ts == nil || ts.IsZero() {
		return "never"
	}
	return ts.Local().Format(timeLayout)
}

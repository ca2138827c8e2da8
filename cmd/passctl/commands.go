package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/charlesng35/sponsorpass/internal/forms"
)

func (c *cli) sponsorsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sponsors [query]",
		Short: "List sponsors, optionally fuzzy-matched by name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			view := c.dashboard.View()
			if view.Banner != "" {
				return errors.New(view.Banner)
			}
			return writeSponsors(cmd.OutOrStdout(), c.dashboard.SearchSponsors(query), view.SelectedSponsor)
		},
	}
}

func (c *cli) passesCommand() *cobra.Command {
	var (
		sponsorID   int64
		showRevoked bool
		page        int
	)

	cmd := &cobra.Command{
		Use:   "passes",
		Short: "List passes for a sponsor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.selectSponsor(ctx, sponsorID); err != nil {
				return err
			}
			if showRevoked {
				c.dashboard.SetShowRevoked(ctx, true)
			}
			if cmd.Flags().Changed("page") {
				if err := c.dashboard.SetPage(ctx, page); err != nil {
					return err
				}
			}

			view := c.dashboard.View()
			if view.Banner != "" {
				return errors.New(view.Banner)
			}
			return writePasses(cmd.OutOrStdout(), view)
		},
	}

	cmd.Flags().Int64Var(&sponsorID, "sponsor", 0, "sponsor id (defaults to the first sponsor)")
	cmd.Flags().BoolVar(&showRevoked, "show-revoked", false, "include revoked passes")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

func (c *cli) createCommand() *cobra.Command {
	var (
		sponsorID int64
		form      forms.CreatePassForm
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a pass for a sponsor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.selectSponsor(ctx, sponsorID); err != nil {
				return err
			}

			pass, err := c.dashboard.CreatePass(ctx, form)
			if err != nil {
				var verr *forms.ValidationError
				if errors.As(err, &verr) {
					for _, field := range verr.Fields {
						fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", field.Field, field.Message)
					}
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created pass #%d for %s <%s>, expires %s\n",
				pass.ID, pass.FullName(), pass.Email, formatExpiry(pass.ExpiresAt))
			return nil
		},
	}

	cmd.Flags().Int64Var(&sponsorID, "sponsor", 0, "sponsor id (defaults to the first sponsor)")
	cmd.Flags().StringVar(&form.FirstName, "first-name", "", "pass holder first name")
	cmd.Flags().StringVar(&form.LastName, "last-name", "", "pass holder last name")
	cmd.Flags().StringVar(&form.Email, "email", "", "pass holder email")
	cmd.Flags().StringVar(&form.ExpiresAt, "expires", "", "expiry date-time, e.g. 2025-12-31T18:00 (optional)")
	return cmd
}

func (c *cli) revokeCommand() *cobra.Command {
	var sponsorID int64

	cmd := &cobra.Command{
		Use:   "revoke <pass-id>",
		Short: "Revoke an active pass",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid pass id %q", args[0])
			}

			ctx := cmd.Context()
			if err := c.selectSponsor(ctx, sponsorID); err != nil {
				return err
			}
			if err := c.seekPass(ctx, id); err != nil {
				return err
			}

			pass, err := c.dashboard.RevokePass(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Revoked pass #%d for %s\n", pass.ID, pass.FullName())
			return nil
		},
	}

	cmd.Flags().Int64Var(&sponsorID, "sponsor", 0, "sponsor id (defaults to the first sponsor)")
	return cmd
}

func (c *cli) selectSponsor(ctx context.Context, id int64) error {
	if id <= 0 {
		return nil
	}
	return c.dashboard.SelectSponsor(ctx, id)
}

// seekPass pages through the selected sponsor's active passes until id is visible.
func (c *cli) seekPass(ctx context.Context, id int64) error {
	view := c.dashboard.View()
	if view.SelectedSponsor == nil {
		return errors.New("no sponsor selected")
	}
	for page := 1; page <= view.TotalPages; page++ {
		if page != view.Page {
			if err := c.dashboard.SetPage(ctx, page); err != nil {
				return err
			}
		}
		current := c.dashboard.View()
		if current.Banner != "" {
			return errors.New(current.Banner)
		}
		for _, pass := range current.Passes {
			if pass.ID == id {
				return nil
			}
		}
	}
	return fmt.Errorf("pass %d not found among active passes of %s", id, view.SelectedSponsor.Name)
}

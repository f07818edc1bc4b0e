package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/fleetdesk/internal/profile"
)

// NewProfileCommand creates the profile command group.
func NewProfileCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show and edit the fleet manager profile",
	}

	cmd.AddCommand(newProfileShowCommand(rootOpts))
	cmd.AddCommand(newProfileEditCommand(rootOpts))

	return cmd
}

func newProfileShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show",
		Short:         "Show the profile",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, a *app, f *OutputFormatter) error {
				editor, err := a.profile(ctx)
				if err != nil {
					return report(f, err)
				}
				p := editor.Current()
				return f.Render(p, func(w io.Writer) error {
					return writeProfile(w, p)
				})
			})
		},
	}
}

func newProfileEditCommand(rootOpts *RootOptions) *cobra.Command {
	var draft profile.Profile

	cmd := &cobra.Command{
		Use:           "edit",
		Short:         "Change profile fields",
		Long:          `Change the profile fields given as flags. Name and a valid email are required.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, a *app, f *OutputFormatter) error {
				editor, err := a.profile(ctx)
				if err != nil {
					return report(f, err)
				}

				set := cmd.Flags().Changed
				editor.Change(func(p *profile.Profile) {
					if set("name") {
						p.Name = draft.Name
					}
					if set("email") {
						p.Email = draft.Email
					}
					if set("phone") {
						p.Phone = draft.Phone
					}
					if set("role") {
						p.Role = draft.Role
					}
					if set("department") {
						p.Department = draft.Department
					}
					if set("join-date") {
						p.JoinDate = draft.JoinDate
					}
				})
				saved, err := editor.Save()
				if err != nil {
					editor.Cancel()
					return report(f, err)
				}
				if err := a.saveProfile(ctx, saved); err != nil {
					return report(f, err)
				}

				return f.Render(saved, func(w io.Writer) error {
					fmt.Fprintln(w, "Profile saved.")
					return writeProfile(w, saved)
				})
			})
		},
	}
	cmd.Flags().StringVar(&draft.Name, "name", "", "display name")
	cmd.Flags().StringVar(&draft.Email, "email", "", "email address")
	cmd.Flags().StringVar(&draft.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&draft.Role, "role", "", "role")
	cmd.Flags().StringVar(&draft.Department, "department", "", "department")
	cmd.Flags().StringVar(&draft.JoinDate, "join-date", "", "join date")

	return cmd
}

func writeProfile(w io.Writer, p profile.Profile) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Name:\t%s (%s)\n", p.Name, p.Initials())
	fmt.Fprintf(tw, "Email:\t%s\n", p.Email)
	fmt.Fprintf(tw, "Phone:\t%s\n", p.Phone)
	fmt.Fprintf(tw, "Role:\t%s\n", p.Role)
	fmt.Fprintf(tw, "Department:\t%s\n", p.Department)
	fmt.Fprintf(tw, "Joined:\t%s\n", p.JoinDate)
	fmt.Fprintf(tw, "Drivers:\t%d\n", p.TotalDrivers)
	fmt.Fprintf(tw, "Vehicles:\t%d\n", p.TotalVehicles)
	fmt.Fprintf(tw, "Active trips:\t%d\n", p.ActiveTrips)
	return tw.Flush()
}

package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/fleetdesk/internal/vehicle"
)

// NewVehiclesCommand creates the vehicles command group.
func NewVehiclesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vehicles",
		Short: "List and add fleet vehicles",
	}

	cmd.AddCommand(newVehiclesListCommand(rootOpts))
	cmd.AddCommand(newVehiclesAddCommand(rootOpts))

	return cmd
}

func newVehiclesListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List vehicles",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, a *app, f *OutputFormatter) error {
				roster, err := a.vehicles(ctx)
				if err != nil {
					return report(f, err)
				}
				list := roster.List()
				return f.Render(list, func(w io.Writer) error {
					return writeVehicleTable(w, list, roster.Count())
				})
			})
		},
	}
}

func newVehiclesAddCommand(rootOpts *RootOptions) *cobra.Command {
	var draft vehicle.Draft

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a vehicle",
		Long: `Add a vehicle to the fleet. Make, model, year and license plate are
required; new vehicles start available.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, a *app, f *OutputFormatter) error {
				roster, err := a.vehicles(ctx)
				if err != nil {
					return report(f, err)
				}
				v, err := roster.Add(draft)
				if err != nil {
					return report(f, err)
				}
				if err := a.saveVehicles(ctx, roster); err != nil {
					return report(f, err)
				}

				return f.Render(v, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Added vehicle %d: %d %s %s (%s)\n", v.ID, v.Year, v.Make, v.Model, v.LicensePlate)
					return err
				})
			})
		},
	}
	cmd.Flags().StringVar(&draft.Make, "make", "", "manufacturer (required)")
	cmd.Flags().StringVar(&draft.Model, "model", "", "model (required)")
	cmd.Flags().IntVar(&draft.Year, "year", 0, "model year (required)")
	cmd.Flags().StringVar(&draft.LicensePlate, "plate", "", "license plate (required)")
	cmd.Flags().StringVar(&draft.Color, "color", "", "color")
	cmd.Flags().StringVar(&draft.Mileage, "mileage", "", "mileage, e.g. \"12,000 miles\"")

	return cmd
}

func writeVehicleTable(w io.Writer, list []vehicle.Vehicle, counts map[vehicle.Status]int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tVEHICLE\tYEAR\tPLATE\tCOLOR\tMILEAGE\tSTATUS")
	for _, v := range list {
		fmt.Fprintf(tw, "%d\t%s %s\t%d\t%s\t%s\t%s\t%s\n",
			v.ID, v.Make, v.Model, v.Year, v.LicensePlate, v.Color, v.Mileage, v.Status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d vehicle(s): %d available, %d in use, %d in maintenance\n",
		len(list), counts[vehicle.StatusAvailable], counts[vehicle.StatusInUse], counts[vehicle.StatusMaintenance])
	return err
}

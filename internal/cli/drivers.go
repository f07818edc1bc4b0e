package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/fleetdesk/internal/driver"
	"github.com/roach88/fleetdesk/internal/ingest"
	"github.com/roach88/fleetdesk/internal/registration"
	"github.com/roach88/fleetdesk/internal/viewer"
)

// NewDriversCommand creates the drivers command group.
func NewDriversCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drivers",
		Short: "List and manage driver records",
	}

	cmd.AddCommand(newDriversListCommand(rootOpts))
	cmd.AddCommand(newDriversShowCommand(rootOpts))
	cmd.AddCommand(newDriversAddCommand(rootOpts))
	cmd.AddCommand(newDriversEditCommand(rootOpts))
	cmd.AddCommand(newDriversDeleteCommand(rootOpts))
	cmd.AddCommand(newDriversAttachCommand(rootOpts))

	return cmd
}

func newDriversListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List all drivers",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, a *app, f *OutputFormatter) error {
				list := a.drivers.List()
				return f.Render(list, func(w io.Writer) error {
					return writeDriverTable(w, list)
				})
			})
		},
	}
}

func newDriversShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <id>",
		Short:         "Show one driver with document status",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, a *app, f *OutputFormatter) error {
				id, err := parseID(args[0])
				if err != nil {
					return badArgument(f, err.Error())
				}
				d, ok := a.drivers.Get(id)
				if !ok {
					return notFound(f, id)
				}
				return f.Render(d, func(w io.Writer) error {
					return writeDriver(w, d)
				})
			})
		},
	}
}

// driverFlags holds the registration form fields accepted by add and edit.
type driverFlags struct {
	Name                  string
	Phone                 string
	VehicleType           string
	VehicleNumber         string
	DOB                   string
	Gender                string
	EmergencyName         string
	EmergencyRelationship string
	EmergencyPhone        string
	Docs                  []string // kind=path
}

func (o *driverFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Name, "name", "", "full name")
	cmd.Flags().StringVar(&o.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&o.VehicleType, "vehicle-type", "", "vehicle type (bike|truck)")
	cmd.Flags().StringVar(&o.VehicleNumber, "vehicle-number", "", "vehicle registration number")
	cmd.Flags().StringVar(&o.DOB, "dob", "", "date of birth")
	cmd.Flags().StringVar(&o.Gender, "gender", "", "gender")
	cmd.Flags().StringVar(&o.EmergencyName, "emergency-name", "", "emergency contact name")
	cmd.Flags().StringVar(&o.EmergencyRelationship, "emergency-relationship", "", "emergency contact relationship")
	cmd.Flags().StringVar(&o.EmergencyPhone, "emergency-phone", "", "emergency contact phone")
	cmd.Flags().StringArrayVar(&o.Docs, "doc", nil, "attach a document as kind=path (repeatable)")
}

// fill returns a form update applying every flag that was set.
func (o *driverFlags) fill(cmd *cobra.Command) func(c *driver.Candidate) {
	set := cmd.Flags().Changed
	return func(c *driver.Candidate) {
		if set("name") {
			c.Name = o.Name
		}
		if set("phone") {
			c.Phone = o.Phone
		}
		if set("vehicle-type") {
			c.VehicleType = driver.VehicleType(strings.ToLower(o.VehicleType))
		}
		if set("vehicle-number") {
			c.VehicleNumber = o.VehicleNumber
		}
		if set("dob") {
			c.DOB = o.DOB
		}
		if set("gender") {
			c.Gender = o.Gender
		}
		if set("emergency-name") {
			c.EmergencyName = o.EmergencyName
		}
		if set("emergency-relationship") {
			c.EmergencyRelationship = o.EmergencyRelationship
		}
		if set("emergency-phone") {
			c.EmergencyPhone = o.EmergencyPhone
		}
	}
}

// uploads parses the --doc flags.
func (o *driverFlags) uploads() ([]docUpload, error) {
	out := make([]docUpload, 0, len(o.Docs))
	for _, spec := range o.Docs {
		name, path, ok := strings.Cut(spec, "=")
		if !ok || path == "" {
			return nil, fmt.Errorf("invalid --doc %q: want kind=path", spec)
		}
		kind, err := driver.ParseDocumentKind(name)
		if err != nil {
			return nil, err
		}
		out = append(out, docUpload{Kind: kind, Path: path})
	}
	return out, nil
}

type docUpload struct {
	Kind driver.DocumentKind
	Path string
}

// submitForm uploads the documents into flow and submits it.
func submitForm(ctx context.Context, flow *registration.Flow, docs []docUpload) ([]driver.Driver, error) {
	for _, u := range docs {
		if _, err := flow.Upload(ctx, u.Kind, ingest.FileSource(u.Path)); err != nil {
			return nil, err
		}
	}
	return flow.Submit(ctx)
}

func newDriversAddCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &driverFlags{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new driver",
		Long: `Register a new driver through the registration form.

The email is derived from the name, a license number is generated and the
driver starts active. Documents are attached with --doc kind=path where kind
is one of aadharCard, panCard, driverLicense, rcVehicle, insuranceVehicle.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, a *app, f *OutputFormatter) error {
				return runDriversAdd(ctx, a, f, flags, cmd)
			})
		},
	}
	flags.bind(cmd)

	return cmd
}

func runDriversAdd(ctx context.Context, a *app, f *OutputFormatter, flags *driverFlags, cmd *cobra.Command) error {
	docs, err := flags.uploads()
	if err != nil {
		return badArgument(f, err.Error())
	}

	flow := registration.New(a.drivers, registration.WithLogger(a.log))
	defer flow.Reset()
	flow.Fill(flags.fill(cmd))

	list, err := submitForm(ctx, flow, docs)
	if err != nil {
		return report(f, err)
	}
	created := list[len(list)-1]

	f.VerboseLog("Driver list now has %d record(s)", len(list))
	return f.Render(created, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Created driver %d: %s <%s> license %s\n", created.ID, created.Name, created.Email, created.License)
		return err
	})
}

func newDriversEditCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &driverFlags{}
	var (
		status  string
		removes []string
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit an existing driver",
		Long: `Edit a driver through the registration form, prefilled from the stored
record. Only the flags given are changed. The id, email, license and
creation time are kept.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, a *app, f *OutputFormatter) error {
				return runDriversEdit(ctx, a, f, args[0], flags, status, removes, cmd)
			})
		},
	}
	flags.bind(cmd)
	cmd.Flags().StringVar(&status, "status", "", "set the status (active|inactive)")
	cmd.Flags().StringArrayVar(&removes, "remove-doc", nil, "clear a document slot (repeatable)")

	return cmd
}

func runDriversEdit(ctx context.Context, a *app, f *OutputFormatter, arg string, flags *driverFlags, status string, removes []string, cmd *cobra.Command) error {
	id, err := parseID(arg)
	if err != nil {
		return badArgument(f, err.Error())
	}
	docs, err := flags.uploads()
	if err != nil {
		return badArgument(f, err.Error())
	}
	cleared := make([]driver.DocumentKind, 0, len(removes))
	for _, name := range removes {
		kind, err := driver.ParseDocumentKind(name)
		if err != nil {
			return badArgument(f, err.Error())
		}
		cleared = append(cleared, kind)
	}

	d, ok := a.drivers.Get(id)
	if !ok {
		return notFound(f, id)
	}
	if cmd.Flags().Changed("status") {
		s := driver.Status(strings.ToLower(status))
		if !s.Valid() {
			return report(f, &driver.ValidationError{Fields: []string{"status"}})
		}
		d.Status = s
	}

	flow := registration.New(a.drivers, registration.WithLogger(a.log))
	defer flow.Reset()
	flow.Edit(d)
	flow.Fill(flags.fill(cmd))
	for _, kind := range cleared {
		flow.RemoveDocument(kind)
	}

	if _, err := submitForm(ctx, flow, docs); err != nil {
		return report(f, err)
	}
	updated, _ := a.drivers.Get(id)

	return f.Render(updated, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Updated driver %d: %s (%s)\n", updated.ID, updated.Name, updated.Status.Label())
		return err
	})
}

func newDriversDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <id>",
		Short:         "Delete a driver",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, a *app, f *OutputFormatter) error {
				id, err := parseID(args[0])
				if err != nil {
					return badArgument(f, err.Error())
				}
				d, ok := a.drivers.Get(id)
				if !ok {
					return notFound(f, id)
				}
				list, err := a.drivers.Delete(ctx, id)
				if err != nil {
					return report(f, err)
				}

				result := map[string]any{"id": id, "remaining": len(list)}
				return f.Render(result, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Deleted driver %d: %s (%d remaining)\n", id, d.Name, len(list))
					return err
				})
			})
		},
	}
}

func newDriversAttachCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "attach <id> <kind> <file>",
		Short: "Attach a document file to a driver",
		Long: `Attach a document file to one of the driver's document slots,
replacing any file already there. The media type is detected from the file
contents.`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, a *app, f *OutputFormatter) error {
				return runDriversAttach(ctx, a, f, args[0], args[1], args[2])
			})
		},
	}
}

func runDriversAttach(ctx context.Context, a *app, f *OutputFormatter, idArg, kindArg, path string) error {
	id, err := parseID(idArg)
	if err != nil {
		return badArgument(f, err.Error())
	}
	kind, err := driver.ParseDocumentKind(kindArg)
	if err != nil {
		return badArgument(f, err.Error())
	}
	if _, ok := a.drivers.Get(id); !ok {
		return notFound(f, id)
	}

	blob, err := ingest.Read(ctx, ingest.FileSource(path), ingest.DefaultMaxSize)
	if err != nil {
		return report(f, err)
	}
	f.VerboseLog("Read %s (%s, %d bytes)", blob.Name, blob.Type, blob.Size)

	if _, err := a.drivers.AttachDocument(ctx, id, kind, blob); err != nil {
		return report(f, err)
	}
	d, _ := a.drivers.Get(id)
	doc, err := viewer.Open(d, kind)
	if err != nil {
		return report(f, err)
	}

	return f.Render(documentInfo(doc), func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Attached to driver %d: %s\n", id, doc.Summary())
		return err
	})
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid driver id %q", s)
	}
	return id, nil
}

// writeDriverTable writes the driver list as aligned columns.
func writeDriverTable(w io.Writer, list []driver.Driver) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPHONE\tLICENSE\tSTATUS\tDOCS")
	for _, d := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d/%d\n",
			d.ID, d.Name, d.Phone, d.License, d.Status.Label(), uploaded(d), len(driver.DocumentKinds))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d driver(s)\n", len(list))
	return err
}

func uploaded(d driver.Driver) int {
	n := 0
	for _, k := range driver.DocumentKinds {
		if d.Document(k).Complete() {
			n++
		}
	}
	return n
}

// writeDriver writes the detail view of d.
func writeDriver(w io.Writer, d driver.Driver) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%d\n", d.ID)
	fmt.Fprintf(tw, "Name:\t%s (%s)\n", d.Name, driver.Initials(d.Name))
	fmt.Fprintf(tw, "Email:\t%s\n", d.Email)
	fmt.Fprintf(tw, "Phone:\t%s\n", d.Phone)
	fmt.Fprintf(tw, "License:\t%s\n", d.License)
	fmt.Fprintf(tw, "Status:\t%s\n", d.Status.Label())
	fmt.Fprintf(tw, "Experience:\t%s\n", d.Experience)
	if d.VehicleType != "" || d.VehicleNumber != "" {
		fmt.Fprintf(tw, "Vehicle:\t%s %s\n", d.VehicleType, d.VehicleNumber)
	}
	if d.DOB != "" {
		fmt.Fprintf(tw, "Date of birth:\t%s\n", d.DOB)
	}
	if d.Gender != "" {
		fmt.Fprintf(tw, "Gender:\t%s\n", d.Gender)
	}
	if d.EmergencyName != "" {
		fmt.Fprintf(tw, "Emergency contact:\t%s (%s) %s\n", d.EmergencyName, d.EmergencyRelationship, d.EmergencyPhone)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w, "Documents:")
	for _, kind := range driver.DocumentKinds {
		doc, err := viewer.Open(d, kind)
		if err != nil {
			fmt.Fprintf(w, "  %s: not uploaded\n", viewer.TypeName(kind))
			continue
		}
		fmt.Fprintf(w, "  %s\n", doc.Summary())
	}
	return nil
}

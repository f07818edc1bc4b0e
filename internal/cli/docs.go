package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/fleetdesk/internal/driver"
	"github.com/roach88/fleetdesk/internal/viewer"
)

// DocumentInfo describes one uploaded document without its payload.
type DocumentInfo struct {
	DriverID   int64  `json:"driverId"`
	DriverName string `json:"driverName"`
	Kind       string `json:"kind"`
	TypeName   string `json:"typeName"`
	Icon       string `json:"icon"`
	FileName   string `json:"fileName"`
	MediaType  string `json:"mediaType"`
	Size       int64  `json:"size"`
	SizeText   string `json:"sizeText"`
}

func documentInfo(doc viewer.Document) DocumentInfo {
	return DocumentInfo{
		DriverID:   doc.DriverID,
		DriverName: doc.DriverName,
		Kind:       string(doc.Kind),
		TypeName:   doc.TypeName(),
		Icon:       doc.Icon(),
		FileName:   doc.Blob.Name,
		MediaType:  doc.Blob.Type,
		Size:       doc.Blob.Size,
		SizeText:   viewer.FormatSize(doc.Blob.Size),
	}
}

// NewDocsCommand creates the docs command group.
func NewDocsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "View, download and print driver documents",
	}

	cmd.AddCommand(newDocsViewCommand(rootOpts))
	cmd.AddCommand(newDocsDownloadCommand(rootOpts))
	cmd.AddCommand(newDocsPrintCommand(rootOpts))

	return cmd
}

// openDocument resolves the <id> <kind> arguments shared by the docs
// subcommands. Failures are reported before the ExitError is returned.
func openDocument(a *app, f *OutputFormatter, idArg, kindArg string) (viewer.Document, error) {
	id, err := parseID(idArg)
	if err != nil {
		return viewer.Document{}, badArgument(f, err.Error())
	}
	kind, err := driver.ParseDocumentKind(kindArg)
	if err != nil {
		return viewer.Document{}, badArgument(f, err.Error())
	}
	d, ok := a.drivers.Get(id)
	if !ok {
		return viewer.Document{}, notFound(f, id)
	}
	doc, err := viewer.Open(d, kind)
	if err != nil {
		return viewer.Document{}, report(f, err)
	}
	return doc, nil
}

func newDocsViewCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "view <id> <kind>",
		Short:         "Show document details",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, a *app, f *OutputFormatter) error {
				doc, err := openDocument(a, f, args[0], args[1])
				if err != nil {
					return err
				}
				info := documentInfo(doc)
				return f.Render(info, func(w io.Writer) error {
					fmt.Fprintf(w, "%s %s\n", info.Icon, info.TypeName)
					fmt.Fprintf(w, "Driver: %s (%d)\n", info.DriverName, info.DriverID)
					fmt.Fprintf(w, "File:   %s\n", info.FileName)
					fmt.Fprintf(w, "Type:   %s\n", info.MediaType)
					_, err := fmt.Fprintf(w, "Size:   %s\n", info.SizeText)
					return err
				})
			})
		},
	}
}

func newDocsDownloadCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "download <id> <kind> [out]",
		Short: "Write the decoded document to a file",
		Long: `Write the decoded document to out. Without out the stored file name is
used in the current directory; "-" writes to standard output.`,
		Args:          cobra.RangeArgs(2, 3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, a *app, f *OutputFormatter) error {
				doc, err := openDocument(a, f, args[0], args[1])
				if err != nil {
					return err
				}
				out := doc.SuggestedName()
				if len(args) == 3 {
					out = args[2]
				}

				if out == "-" {
					if _, err := doc.Download(cmd.OutOrStdout()); err != nil {
						return report(f, err)
					}
					return nil
				}
				if err := doc.SaveAs(out); err != nil {
					return report(f, err)
				}

				result := map[string]any{"path": out, "size": doc.Blob.Size}
				return f.Render(result, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Saved %s to %s (%s)\n", doc.TypeName(), out, viewer.FormatSize(doc.Blob.Size))
					return err
				})
			})
		},
	}
}

func newDocsPrintCommand(rootOpts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "print <id> <kind>",
		Short: "Render a printable HTML page for a document",
		Long: `Render a printable HTML page for a document. Images are embedded in the
page; other files get a placeholder.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, a *app, f *OutputFormatter) error {
				doc, err := openDocument(a, f, args[0], args[1])
				if err != nil {
					return err
				}
				if output == "" {
					if err := doc.PrintPage(cmd.OutOrStdout()); err != nil {
						return report(f, err)
					}
					return nil
				}
				return printToFile(f, doc, output)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the page to a file instead of stdout")

	return cmd
}

func printToFile(f *OutputFormatter, doc viewer.Document, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return report(f, err)
	}
	if err := doc.PrintPage(file); err != nil {
		file.Close()
		return report(f, err)
	}
	if err := file.Close(); err != nil {
		return report(f, err)
	}

	result := map[string]any{"path": path}
	return f.Render(result, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Wrote print page for %s to %s\n", doc.TypeName(), path)
		return err
	})
}

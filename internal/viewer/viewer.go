// Package viewer presents stored driver documents: display names, icons,
// downloads and a printable page.
package viewer

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/roach88/fleetdesk/internal/driver"
	"github.com/roach88/fleetdesk/internal/ingest"
)

// ErrNoDocument is returned when the requested slot is empty.
var ErrNoDocument = errors.New("viewer: no document uploaded")

// Icons by file kind.
const (
	IconPDF   = "📄"
	IconImage = "🖼️"
	IconOther = "📋"
)

var imageName = regexp.MustCompile(`\.(jpg|jpeg|png|gif)$`)

// TypeName turns a camel-case document kind into words:
// "aadharCard" becomes "Aadhar Card".
func TypeName(kind driver.DocumentKind) string {
	var sb strings.Builder
	for i, r := range string(kind) {
		switch {
		case i == 0:
			sb.WriteRune(unicode.ToUpper(r))
		case unicode.IsUpper(r):
			sb.WriteByte(' ')
			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Icon picks the icon for a file name.
func Icon(fileName string) string {
	lower := strings.ToLower(fileName)
	switch {
	case strings.Contains(lower, ".pdf"):
		return IconPDF
	case imageName.MatchString(lower):
		return IconImage
	default:
		return IconOther
	}
}

// FormatSize renders a byte count for display.
func FormatSize(n int64) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	}
}

// Document is one uploaded file of one driver.
type Document struct {
	DriverID   int64
	DriverName string
	Kind       driver.DocumentKind
	Blob       driver.DocumentBlob
}

// Open returns the kind document of d.
func Open(d driver.Driver, kind driver.DocumentKind) (Document, error) {
	if _, err := driver.ParseDocumentKind(string(kind)); err != nil {
		return Document{}, err
	}
	b := d.Document(kind)
	if !b.Complete() {
		return Document{}, fmt.Errorf("driver %d %s: %w", d.ID, kind, ErrNoDocument)
	}
	return Document{DriverID: d.ID, DriverName: d.Name, Kind: kind, Blob: *b}, nil
}

// TypeName returns the display name of the document kind.
func (doc Document) TypeName() string { return TypeName(doc.Kind) }

// Icon returns the icon for the file name.
func (doc Document) Icon() string { return Icon(doc.Blob.Name) }

// IsImage reports whether the payload is an image.
func (doc Document) IsImage() bool {
	return strings.HasPrefix(doc.Blob.Type, "image/")
}

// Bytes decodes the stored payload.
func (doc Document) Bytes() ([]byte, error) {
	_, data, err := ingest.DecodeDataURI(doc.Blob.Data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", doc.Blob.Name, err)
	}
	return data, nil
}

// Download writes the decoded file to w.
func (doc Document) Download(w io.Writer) (int64, error) {
	data, err := doc.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// SaveAs writes the decoded file to path.
func (doc Document) SaveAs(path string) error {
	data, err := doc.Bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save %s: %w", doc.Blob.Name, err)
	}
	return nil
}

// SuggestedName is the file name offered for downloads.
func (doc Document) SuggestedName() string {
	// Stored names are untrusted; keep only the final path element.
	name := filepath.Base(strings.ReplaceAll(doc.Blob.Name, `\`, "/"))
	switch name {
	case ".", "..", "/", "-":
		return string(doc.Kind)
	}
	return name
}

// Summary is a one-line description for listings.
func (doc Document) Summary() string {
	return fmt.Sprintf("%s %s: %s (%s, %s)", doc.Icon(), doc.TypeName(), doc.Blob.Name, doc.Blob.Type, FormatSize(doc.Blob.Size))
}

var printPage = template.Must(template.New("print").Parse(`<html>
<head>
<title>Print {{.FileName}}</title>
<style>
body { font-family: Arial, sans-serif; margin: 20px; }
.header { text-align: center; margin-bottom: 20px; }
.document-info { background: #f5f5f5; padding: 15px; border-radius: 8px; margin-bottom: 20px; }
</style>
</head>
<body>
<div class="header">
<h1>{{.TypeName}}</h1>
<p>Driver Document</p>
</div>
<div class="document-info">
<p><strong>Driver:</strong> {{.Driver}}</p>
<p><strong>Document Type:</strong> {{.TypeName}}</p>
<p><strong>File Name:</strong> {{.FileName}}</p>
<p><strong>Size:</strong> {{.Size}}</p>
<p><strong>Status:</strong> Uploaded</p>
</div>
{{if .Image}}<img src="{{.Src}}" alt="{{.TypeName}}" style="max-width: 100%;">
{{else}}<p>{{.Icon}} Preview is not available for this file type.</p>
{{end}}</body>
</html>
`))

// PrintPage renders a printable HTML page for the document.
func (doc Document) PrintPage(w io.Writer) error {
	data := struct {
		Driver   string
		TypeName string
		FileName string
		Size     string
		Icon     string
		Image    bool
		Src      template.URL
	}{
		Driver:   doc.DriverName,
		TypeName: doc.TypeName(),
		FileName: doc.Blob.Name,
		Size:     FormatSize(doc.Blob.Size),
		Icon:     doc.Icon(),
	}
	if doc.IsImage() && strings.HasPrefix(doc.Blob.Data, "data:") {
		data.Image = true
		// Only data URIs are embedded.
		data.Src = template.URL(doc.Blob.Data)
	}
	if err := printPage.Execute(w, data); err != nil {
		return fmt.Errorf("render print page: %w", err)
	}
	return nil
}

package reporting

import (
	"bytes"
	"fmt"
	"html"
	"os"

	"github.com/spboyer/bulkgrade/internal/models"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const htmlHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem auto; max-width: 60rem; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 0.25rem 0.75rem; text-align: left; }
blockquote { border-left: 4px solid #d33; margin-left: 0; padding-left: 1rem; }
</style>
</head>
<body>
`

// RenderHTML renders the Markdown report to a standalone HTML page.
func RenderHTML(report *models.BatchReport) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))

	var body bytes.Buffer
	if err := md.Convert([]byte(FormatMarkdown(report)), &body); err != nil {
		return nil, fmt.Errorf("rendering HTML report: %w", err)
	}

	title := report.Assignment
	if title == "" {
		title = "Grading report"
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, htmlHead, html.EscapeString(title))
	out.Write(body.Bytes())
	out.WriteString("</body>\n</html>\n")
	return out.Bytes(), nil
}

// WriteHTML writes the HTML report to path.
func WriteHTML(report *models.BatchReport, path string) error {
	data, err := RenderHTML(report)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

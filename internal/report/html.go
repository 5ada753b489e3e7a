package report

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

const htmlHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 60rem; margin: 2rem auto; color: #100F0F; }
table { border-collapse: collapse; margin-bottom: 1rem; }
th, td { border: 1px solid #CECDC3; padding: 0.25rem 0.75rem; }
th { background: #F2F0E5; }
blockquote { border-left: 4px solid #DA702C; margin: 0; padding-left: 1rem; }
</style>
</head>
<body>
`

// HTML renders the report as a standalone HTML page.
func (r *Monthly) HTML() ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, htmlHead, "Monthly report "+r.Month.String())
	if err := md.Convert([]byte(r.Markdown()), &buf); err != nil {
		return nil, fmt.Errorf("rendering html: %w", err)
	}
	buf.WriteString("</body>\n</html>\n")
	return buf.Bytes(), nil
}

package report

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// htmlShell wraps the rendered body in a minimal self-contained page so the
// memo can be mailed or downloaded as one file.
const htmlShell = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Junior Gold Portfolio Memo</title>
<style>
body { font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; line-height: 1.6;
       color: #1e293b; background: #f8fafc; max-width: 1000px; margin: 0 auto; padding: 40px 20px; }
h1 { color: #0f172a; border-bottom: 4px solid #0f172a; padding-bottom: 10px; }
h2 { color: #0f172a; border-bottom: 2px solid #e2e8f0; padding-bottom: 8px; margin-top: 36px; }
h3 { color: #1e40af; }
table { border-collapse: collapse; width: 100%%; margin: 16px 0; background: #fff; }
th, td { border: 1px solid #e2e8f0; padding: 8px 12px; text-align: left; }
th { background: #f1f5f9; }
</style>
</head>
<body>
%s
</body>
</html>
`

// HTML renders the memo markdown to a standalone HTML page. Table support
// needs the GFM extension.
func (b *Builder) HTML(in Input) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))

	var body bytes.Buffer
	if err := md.Convert([]byte(b.Markdown(in)), &body); err != nil {
		return "", fmt.Errorf("failed to render memo html: %w", err)
	}
	return fmt.Sprintf(htmlShell, body.String()), nil
}

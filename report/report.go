// Package report renders a conversation transcript as markdown or as a
// standalone, sanitized HTML page.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
	"github.com/smallnest/collabgraph/message"
)

// Markdown returns the transcript of msgs as markdown, one section per message.
func Markdown(msgs []message.Message) string {
	var b strings.Builder
	for i, m := range msgs {
		if i > 0 {
			b.WriteString("\n---\n\n")
		}
		fmt.Fprintf(&b, "### %s\n\n", heading(m))
		if m.Role == message.RoleTool {
			b.WriteString(codeBlock(m.Content, lang(m.Content)))
		} else if m.Content != "" {
			b.WriteString(m.Content)
			b.WriteString("\n")
		}
		for _, tc := range m.ToolCalls {
			fmt.Fprintf(&b, "\n**Tool call** `%s` (%s)\n\n", tc.Name, tc.ID)
			b.WriteString(codeBlock(prettyJSON(tc.Arguments), "json"))
		}
	}
	return b.String()
}

func heading(m message.Message) string {
	switch m.Role {
	case message.RoleTool:
		h := "Tool " + m.Name
		if m.ToolCallID != "" {
			h += " (" + m.ToolCallID + ")"
		}
		if m.IsError {
			h += " failed"
		}
		return h
	case message.RoleSystem:
		return "System"
	}
	if m.Name != "" {
		return m.Name
	}
	if m.Role == message.RoleHuman {
		return "User"
	}
	return string(m.Role)
}

// codeBlock fences content with more backticks than it contains in a row.
func codeBlock(content, lang string) string {
	longest, run := 0, 0
	for _, r := range content {
		if r == '`' {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	fence := strings.Repeat("`", max(3, longest+1))
	return fence + lang + "\n" + strings.TrimRight(content, "\n") + "\n" + fence + "\n"
}

func lang(content string) string {
	t := strings.TrimSpace(content)
	if t != "" && (t[0] == '{' || t[0] == '[') && json.Valid([]byte(t)) {
		return "json"
	}
	return ""
}

func prettyJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

// HTML converts the transcript to sanitized HTML.
func HTML(msgs []message.Message) []byte {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(Markdown(msgs)))

	htmlFlags := html.CommonFlags | html.HrefTargetBlank
	renderer := html.NewRenderer(html.RendererOptions{Flags: htmlFlags})

	// Model output is untrusted
	return bluemonday.UGCPolicy().SanitizeBytes(markdown.Render(doc, renderer))
}

var page = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; max-width: 860px; margin: 2em auto; line-height: 1.5; }
pre { background: #f4f4f4; padding: 0.8em; overflow-x: auto; }
h3 { border-bottom: 1px solid #ddd; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p><small>Generated {{.Generated.Format "2006-01-02 15:04:05"}}, {{.Count}} messages</small></p>
{{.Body}}
</body>
</html>
`))

// Render writes the transcript as a standalone HTML page.
func Render(w io.Writer, title string, msgs []message.Message) error {
	data := struct {
		Title     string
		Generated time.Time
		Count     int
		Body      template.HTML
	}{
		Title:     title,
		Generated: time.Now(),
		Count:     len(msgs),
		Body:      template.HTML(HTML(msgs)), // #nosec G203 sanitized by bluemonday
	}
	if err := page.Execute(w, data); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

package web

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
)

// Raw HTML in annotation text is not passed through.
var markdownRenderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM, emoji.Emoji),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

func renderMarkdownHTML(src string) template.HTML {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}
	var b bytes.Buffer
	if err := markdownRenderer.Convert([]byte(src), &b); err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(src) + "</pre>")
	}
	return template.HTML(b.String())
}

// boxStyle positions a canvas rect in the page.
func boxStyle(r model.Rect) template.CSS {
	return template.CSS(fmt.Sprintf("left:%gpx;top:%gpx;width:%gpx;height:%gpx", r.X, r.Y, r.W, r.H))
}

var templateFuncs = template.FuncMap{
	"markdown": renderMarkdownHTML,
	"box":      boxStyle,
}

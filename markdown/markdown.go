// Package markdown renders post bodies to HTML with goldmark and exposes the
// result as a templ component.
package markdown

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

type options struct {
	unsafeHTML bool
	hardWraps  bool
	headingIDs bool
}

// Option configures a Renderer.
type Option func(*options)

// WithUnsafeHTML passes raw HTML in the markdown through instead of
// replacing it with a comment.
func WithUnsafeHTML() Option {
	return func(o *options) { o.unsafeHTML = true }
}

// WithHardWraps renders soft line breaks as <br>.
func WithHardWraps() Option {
	return func(o *options) { o.hardWraps = true }
}

// WithoutHeadingIDs disables generated id attributes on headings.
func WithoutHeadingIDs() Option {
	return func(o *options) { o.headingIDs = false }
}

// Renderer converts markdown to HTML. It is stateless after construction and
// safe for concurrent use.
type Renderer struct {
	md goldmark.Markdown
}

// New builds a Renderer with GFM and footnotes enabled.
func New(opts ...Option) *Renderer {
	o := options{headingIDs: true}
	for _, opt := range opts {
		opt(&o)
	}

	var parserOptions []parser.Option
	if o.headingIDs {
		parserOptions = append(parserOptions, parser.WithAutoHeadingID())
	}
	var rendererOptions []renderer.Option
	if o.unsafeHTML {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}
	if o.hardWraps {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}

	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Footnote),
			goldmark.WithParserOptions(parserOptions...),
			goldmark.WithRendererOptions(rendererOptions...),
		),
	}
}

// Render converts source to an HTML string. The context is only checked
// before conversion starts; a conversion in progress is not interrupted.
func (r *Renderer) Render(ctx context.Context, source []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := r.md.Convert(source, &buf); err != nil {
		return "", fmt.Errorf("markdown: convert: %w", err)
	}
	return buf.String(), nil
}

// HTML returns a templ.Component that writes already rendered HTML verbatim.
func HTML(s string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	})
}

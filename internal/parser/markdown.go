package parser

import (
	"log/slog"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Markdown extraction covers relays that render upstream pages to markdown
// instead of raw HTML. Headings become candidate show titles; the first
// image and video link after a heading are attached to it.

func (p *Parser) parseShowsMarkdown(raw string) []ShowFragment {
	root := p.parseMarkdownAST(raw)
	if root == nil {
		return nil
	}

	src := []byte(raw)

	var shows []ShowFragment
	seen := make(map[string]struct{})
	cur := -1

	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			if node.Level < 2 {
				return ast.WalkContinue, nil
			}

			title := strings.TrimSpace(string(node.Text(src)))
			if !p.usableTitle(title, seen) {
				cur = -1

				return ast.WalkSkipChildren, nil
			}

			seen[title] = struct{}{}
			shows = append(shows, ShowFragment{Title: title})
			cur = len(shows) - 1
			if len(shows) >= p.maxShows {
				return ast.WalkStop, nil
			}

			return ast.WalkSkipChildren, nil

		case *ast.Image:
			if cur >= 0 && shows[cur].Thumbnail == "" {
				shows[cur].Thumbnail = string(node.Destination)
			}

		case *ast.Link:
			dest := string(node.Destination)
			if cur >= 0 && shows[cur].SourceURL == "" && strings.Contains(dest, "/video/") {
				shows[cur].SourceURL = dest
			}

		case *ast.Paragraph:
			if imageOnly(node) {
				return ast.WalkContinue, nil
			}
			if cur >= 0 && shows[cur].Description == "" {
				if desc := strings.TrimSpace(string(node.Text(src))); desc != "" {
					shows[cur].Description = desc
				}
			}
		}

		return ast.WalkContinue, nil
	})

	return shows
}

func (p *Parser) parseSeriesMarkdown(raw string) (SeriesFragment, bool) {
	root := p.parseMarkdownAST(raw)
	if root == nil {
		return SeriesFragment{}, false
	}

	src := []byte(raw)
	var frag SeriesFragment

	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			title := strings.TrimSpace(string(node.Text(src)))
			if title == "" {
				return ast.WalkSkipChildren, nil
			}

			if node.Level == 1 && frag.Name == "" {
				frag.Name = title
			} else if node.Level >= 2 {
				// Episode cards render as sub-headings.
				frag.Episodes++
			}

			return ast.WalkSkipChildren, nil

		case *ast.Paragraph:
			if frag.Name != "" && frag.Description == "" {
				if desc := strings.TrimSpace(string(node.Text(src))); desc != "" {
					frag.Description = desc
				}
			}
		}

		return ast.WalkContinue, nil
	})

	return frag, frag.Name != ""
}

// imageOnly reports whether a paragraph holds nothing but an image, so its
// alt text is not mistaken for a description.
func imageOnly(node *ast.Paragraph) bool {
	if node.ChildCount() != 1 {
		return false
	}

	_, ok := node.FirstChild().(*ast.Image)

	return ok
}

func (p *Parser) parseMarkdownAST(raw string) (root ast.Node) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Warn("Markdown parser panicked, skipping batch", slog.Any("panic", r))
			root = nil
		}
	}()

	md := goldmark.New()

	return md.Parser().Parse(text.NewReader([]byte(raw)))
}

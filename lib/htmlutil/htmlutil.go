package htmlutil

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("boothlist.lib.htmlutil")

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func nodeText(node *html.Node) string {
	var out strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n == nil {
			return
		}
		if n.Type == html.TextNode {
			out.WriteString(n.Data)
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(node)
	return out.String()
}

// CleanText strips non-printable runes, trims surrounding whitespace
// and collapses runs of inner whitespace into one space.
func CleanText(s string) string {
	var printable strings.Builder
	for _, c := range s {
		if unicode.IsPrint(c) {
			printable.WriteRune(c)
		}
	}
	cleaned := strings.Trim(printable.String(), " \t\n")
	return innerWhitespace.ReplaceAllString(cleaned, " ")
}

type Anchor struct {
	Name string
	Href string
}

// GetAnchors extracts (text, href) pairs from the anchor nodes of sel,
// skipping anchors whose href does not parse.
func GetAnchors(ctx context.Context, sel *goquery.Selection) []Anchor {
	_, span := tracer.Start(ctx, "GetAnchors")
	defer span.End()

	anchors := []Anchor{}
	for _, n := range sel.Nodes {
		link, err := url.Parse(attrVal(n, "href"))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "got error while parsing url")
			continue
		}

		a := Anchor{Name: CleanText(nodeText(n)), Href: link.String()}
		anchors = append(anchors, a)
		span.AddEvent("anchor", trace.WithAttributes(
			attribute.String("name", a.Name),
			attribute.String("url", a.Href),
		))
	}
	return anchors
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

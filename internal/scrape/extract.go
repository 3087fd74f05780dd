package scrape

import (
	"errors"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/sells-group/contentgrade/internal/model"
)

// parseHTML decodes body using the declared or sniffed charset and extracts
// the page title, meta description, visible text and outbound links.
func parseHTML(pageURL string, body io.Reader, contentType string) (*model.ContentRecord, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, eris.Wrap(err, "scrape: parse page url")
	}

	utf8Body, err := charset.NewReader(body, contentType)
	if errors.Is(err, io.EOF) {
		// Empty body: a valid page with nothing on it.
		return &model.ContentRecord{URL: pageURL, Domain: base.Host}, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "scrape: decode charset")
	}

	doc, err := goquery.NewDocumentFromReader(utf8Body)
	if err != nil {
		return nil, eris.Wrap(err, "scrape: parse html")
	}

	rec := &model.ContentRecord{
		URL:         pageURL,
		Domain:      base.Host,
		Title:       pageTitle(doc),
		Description: metaDescription(doc),
		Links:       extractLinks(doc, base),
	}

	doc.Find("script, style, noscript, template").Remove()
	rec.Text = visibleText(doc.Selection)

	return rec, nil
}

// pageTitle prefers the document's head title. Titles inside inline SVG
// are never used.
func pageTitle(doc *goquery.Document) string {
	if t := doc.Find("head > title").First(); t.Length() > 0 {
		return strings.TrimSpace(t.Text())
	}
	body := doc.Find("title").FilterFunction(func(_ int, t *goquery.Selection) bool {
		return t.ParentsFiltered("svg").Length() == 0
	})
	return strings.TrimSpace(body.First().Text())
}

func metaDescription(doc *goquery.Document) string {
	for _, sel := range []string{`meta[name="description"]`, `meta[property="og:description"]`} {
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			return strings.TrimSpace(content)
		}
	}
	return ""
}

// visibleText joins every non-blank text node with single spaces.
func visibleText(sel *goquery.Selection) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if s := strings.Join(strings.Fields(n.Data), " "); s != "" {
				parts = append(parts, s)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(parts, " ")
}

// extractLinks resolves every anchor against base and keeps distinct
// http(s) targets without fragments, in document order.
func extractLinks(doc *goquery.Document, base *url.URL) []string {
	seen := make(map[string]struct{})
	var links []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return
		}
		abs.Fragment = ""
		s := abs.String()
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		links = append(links, s)
	})
	return links
}

package renderer

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/23f3002873/llm-analysis-quiz/api/schemas"
)

var (
	absoluteSubmitPattern = regexp.MustCompile(`https?://[\w./:?=&%~-]+/submit[\w./:?=&%~-]*`)
	fetchSubmitPattern    = regexp.MustCompile(`fetch\(['"](https?://[^'")]+/submit[^'")]*)['"]`)
	actionSubmitPattern   = regexp.MustCompile(`action=['"]([^'"]*/submit[^'"]*)['"]`)
)

// parsePage builds the RenderedPage snapshot from the raw tab state.
func parsePage(pageHTML, visibleText, finalURL string) (*schemas.RenderedPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(finalURL)
	if err != nil {
		base = nil
	}

	page := &schemas.RenderedPage{
		FinalURL:    finalURL,
		HTML:        pageHTML,
		VisibleText: visibleText,
		HasTables:   doc.Find("table").Length() > 0,
	}
	page.JSONBlob = findJSONBlob(doc)
	page.SubmitURL = findSubmitURL(doc, pageHTML, base)
	page.Resources = discoverResources(doc, page.JSONBlob, base)
	return page, nil
}

// findJSONBlob returns the first <pre> block that decodes as a JSON object,
// either directly or after base64 decoding.
func findJSONBlob(doc *goquery.Document) map[string]interface{} {
	var blob map[string]interface{}
	doc.Find("pre").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return true
		}
		var parsed map[string]interface{}
		if err := json.Unmarshal([]byte(text), &parsed); err == nil {
			blob = parsed
			return false
		}
		if decoded, err := base64.StdEncoding.DecodeString(text); err == nil {
			if err := json.Unmarshal(decoded, &parsed); err == nil {
				blob = parsed
				return false
			}
		}
		return true
	})
	return blob
}

// findSubmitURL locates the submission endpoint embedded in page content.
// Heuristics run in a fixed priority order:
//  1. an absolute URL containing /submit anywhere in the HTML
//  2. a form action containing /submit
//  3. a [data-submit] attribute
//  4. a fetch() target inside inline scripts
//  5. a relative action="..." resolved against the final URL
func findSubmitURL(doc *goquery.Document, pageHTML string, base *url.URL) string {
	if m := absoluteSubmitPattern.FindString(pageHTML); m != "" {
		return m
	}

	var fromForm string
	doc.Find("form[action]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		action, _ := sel.Attr("action")
		if strings.Contains(action, "/submit") {
			fromForm = resolveURL(base, action)
			return false
		}
		return true
	})
	if fromForm != "" {
		return fromForm
	}

	if attr, ok := doc.Find("[data-submit]").First().Attr("data-submit"); ok && attr != "" {
		return resolveURL(base, attr)
	}

	var scripts strings.Builder
	doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		scripts.WriteString(sel.Text())
		scripts.WriteString(" ")
	})
	joined := scripts.String()
	if m := fetchSubmitPattern.FindStringSubmatch(joined); m != nil {
		return m[1]
	}
	if m := absoluteSubmitPattern.FindString(joined); m != "" {
		return m
	}

	if m := actionSubmitPattern.FindStringSubmatch(pageHTML); m != nil {
		return resolveURL(base, m[1])
	}

	return ""
}

// discoverResources collects PDF/CSV links from anchors and from the JSON
// instruction blob's url/file fields, in document order.
func discoverResources(doc *goquery.Document, blob map[string]interface{}, base *url.URL) []schemas.Resource {
	var resources []schemas.Resource
	seen := make(map[string]bool)

	add := func(link string) {
		resolved := resolveURL(base, link)
		if resolved == "" || seen[resolved] {
			return
		}
		kind, ok := classifyResource(resolved)
		if !ok {
			return
		}
		seen[resolved] = true
		resources = append(resources, schemas.Resource{URL: resolved, Kind: kind})
	}

	if blob != nil {
		for _, key := range []string{"url", "file"} {
			if link, ok := blob[key].(string); ok {
				add(link)
			}
		}
	}

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		add(href)
	})

	return resources
}

func classifyResource(link string) (schemas.ResourceKind, bool) {
	u, err := url.Parse(link)
	if err != nil {
		return "", false
	}
	path := strings.ToLower(u.Path)
	switch {
	case strings.HasSuffix(path, ".pdf"):
		return schemas.ResourcePDF, true
	case strings.HasSuffix(path, ".csv"):
		return schemas.ResourceCSV, true
	}
	return "", false
}

// resolveURL makes href absolute against the page's final URL.
func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if ref.IsAbs() || base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}

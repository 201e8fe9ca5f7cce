// Copyright 2026 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package assemble

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/sirseerhq/sirseer-export/internal/cache"
	"github.com/sirseerhq/sirseer-export/internal/jira"
	"github.com/sirseerhq/sirseer-export/internal/logging"
)

// cssURLPattern matches url(...) references inside stylesheet text.
var cssURLPattern = regexp.MustCompile(`url\(['"]?([^'")]+)['"]?\)`)

// printStylesheet is appended to every assembled page so the paginated
// output gets consistent margins, table breaks, and image scaling.
const printStylesheet = `
@page {
    size: A4;
    margin: 1cm;
}
body {
    font-family: Arial, sans-serif;
    font-size: 11pt;
    line-height: 1.3;
}
a {
    text-decoration: underline;
    color: #000;
}
.no-print, #previous-view, header, nav {
    display: none !important;
}
table {
    page-break-inside: auto;
    border-collapse: collapse;
}
tr {
    page-break-inside: avoid;
    page-break-after: auto;
}
th, td {
    border: 1px solid #ddd;
    padding: 4px;
}
img {
    max-width: 100% !important;
    height: auto !important;
}
`

// Options controls page assembly.
type Options struct {
	// KeepInstructions retains the instruction box and navigation chrome
	// injected by the issue viewer instead of stripping it (debug aid).
	KeepInstructions bool
}

// Assembler inlines a page's external resources through the shared cache.
type Assembler struct {
	client jira.Client
	cache  *cache.Cache
	log    zerolog.Logger
}

// New creates an Assembler backed by the given client and cache. The cache
// is shared across workers; the assembler itself is stateless and safe for
// concurrent use.
func New(client jira.Client, c *cache.Cache) *Assembler {
	return &Assembler{
		client: client,
		cache:  c,
		log:    logging.NewLogger("assemble"),
	}
}

// Assemble rewrites every embeddable asset reference in rawHTML into an
// inline data URI and optionally strips viewer chrome. baseURL is the URL
// the page was fetched from, used to resolve relative references.
//
// Asset failures never abort assembly: the original reference is kept and
// a warning logged. Only an unparseable page or base URL is an error.
func (a *Assembler) Assemble(ctx context.Context, rawHTML []byte, baseURL string, opts Options) ([]byte, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL %q: %w", baseURL, err)
	}

	// External stylesheets become <style> elements with their own url()
	// references inlined recursively.
	doc.Find(`link[rel="stylesheet"]`).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		cssURL := a.resolve(base, href)
		cssText, err := a.fetchText(ctx, cssURL)
		if err != nil {
			a.log.Warn().Str("url", cssURL).Err(err).Msg("Failed to inline stylesheet")
			return
		}
		inlined := a.inlineCSS(ctx, cssText, cssURL)
		sel.ReplaceWithHtml("<style>" + inlined + "</style>")
	})

	// Inline <style> bodies and style attributes may carry url() references.
	doc.Find("style").Each(func(_ int, sel *goquery.Selection) {
		sel.SetHtml(a.inlineCSS(ctx, sel.Text(), baseURL))
	})
	doc.Find("[style]").Each(func(_ int, sel *goquery.Selection) {
		style, _ := sel.Attr("style")
		sel.SetAttr("style", a.inlineCSS(ctx, style, baseURL))
	})

	// Images become data URIs.
	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		src, ok := sel.Attr("src")
		if !ok {
			return
		}
		sel.SetAttr("src", a.embed(ctx, base, src))
	})

	if head := doc.Find("head").First(); head.Length() > 0 {
		head.AppendHtml(`<style media="print">` + printStylesheet + `</style>`)
	}

	if !opts.KeepInstructions {
		doc.Find(".no-print").Remove()
		doc.Find("#previous-view").Remove()
	}

	out, err := doc.Html()
	if err != nil {
		return nil, fmt.Errorf("serialize page: %w", err)
	}
	return []byte(out), nil
}

// embed returns a data URI for the referenced asset, or the original
// reference when the asset cannot be fetched. data: and javascript:
// references pass through untouched.
func (a *Assembler) embed(ctx context.Context, base *url.URL, ref string) string {
	if strings.HasPrefix(ref, "data:") || strings.HasPrefix(ref, "javascript:") {
		return ref
	}

	absURL := a.resolve(base, ref)
	entry, hit, err := a.cache.GetOrFetch(ctx, absURL, func(ctx context.Context) (cache.Entry, error) {
		data, contentType, err := a.client.FetchResource(ctx, absURL)
		if err != nil {
			return cache.Entry{}, err
		}
		return cache.Entry{Data: data, ContentType: normalizeContentType(contentType)}, nil
	})
	if err != nil {
		a.log.Warn().Str("url", absURL).Err(err).Msg("Failed to embed resource, keeping original reference")
		return ref
	}
	if hit {
		a.log.Debug().Str("url", absURL).Msg("Resource served from cache")
	}

	return fmt.Sprintf("data:%s;base64,%s", entry.ContentType, base64.StdEncoding.EncodeToString(entry.Data))
}

// inlineCSS replaces every url(...) reference in cssText with a data URI,
// resolving relative references against cssBase (the stylesheet's own URL).
func (a *Assembler) inlineCSS(ctx context.Context, cssText, cssBase string) string {
	base, err := url.Parse(cssBase)
	if err != nil {
		return cssText
	}
	return cssURLPattern.ReplaceAllStringFunc(cssText, func(match string) string {
		ref := strings.Trim(cssURLPattern.FindStringSubmatch(match)[1], `'"`)
		return "url(" + a.embed(ctx, base, ref) + ")"
	})
}

// fetchText retrieves a text resource (stylesheet) through the cache.
func (a *Assembler) fetchText(ctx context.Context, absURL string) (string, error) {
	entry, _, err := a.cache.GetOrFetch(ctx, absURL, func(ctx context.Context) (cache.Entry, error) {
		data, contentType, err := a.client.FetchResource(ctx, absURL)
		if err != nil {
			return cache.Entry{}, err
		}
		return cache.Entry{Data: data, ContentType: normalizeContentType(contentType)}, nil
	})
	if err != nil {
		return "", err
	}
	return string(entry.Data), nil
}

// resolve turns a possibly-relative reference into an absolute URL string.
func (a *Assembler) resolve(base *url.URL, ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

// normalizeContentType collapses server content types to the small set the
// renderers understand. Unknown types become application/octet-stream.
func normalizeContentType(contentType string) string {
	switch {
	case strings.Contains(contentType, "text/css"):
		return "text/css"
	case strings.Contains(contentType, "image/png"),
		strings.Contains(contentType, "image/jpeg"),
		strings.Contains(contentType, "image/gif"),
		strings.Contains(contentType, "image/svg+xml"):
		return contentType
	default:
		return "application/octet-stream"
	}
}

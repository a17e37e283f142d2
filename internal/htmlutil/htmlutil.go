// Package htmlutil provides targeted text mining over irregular web-page
// markup: entity decoding, tag/attribute extraction, meta lookups and
// query-string handling. There is deliberately no DOM here; every helper is
// a documented pattern over raw text so the matching strategy can be swapped
// without touching callers.
package htmlutil

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	xhtml "golang.org/x/net/html"
)

var (
	brRe       = regexp.MustCompile(`\s*<\s*br\s*/?\s*>\s*`)
	pBreakRe   = regexp.MustCompile(`<\s*/\s*p\s*>\s*<\s*p[^>]*>`)
	tagRe      = regexp.MustCompile(`<.*?>`)
	entityRe   = regexp.MustCompile(`&([^&;]+;)`)
	numEntRe   = regexp.MustCompile(`^#(x[0-9a-fA-F]+|[0-9]+)$`)
	metaTagRe  = regexp.MustCompile(`(?is)<meta[^>]+>`)
	attrPairRe = regexp.MustCompile(`([a-zA-Z:._-]+)\s*=\s*("[^"]*"|'[^']*'|[^\s"'>]*)`)
)

// CleanHTML reduces an HTML snippet to readable text: <br> and paragraph
// breaks become newlines, remaining tags are stripped, entities decoded.
func CleanHTML(html string) string {
	cleaned := strings.ReplaceAll(html, "\n", " ")
	cleaned = brRe.ReplaceAllString(cleaned, "\n")
	cleaned = pBreakRe.ReplaceAllString(cleaned, "\n")
	cleaned = tagRe.ReplaceAllString(cleaned, "")
	cleaned = UnescapeHTML(cleaned)
	return strings.TrimSpace(cleaned)
}

// UnescapeHTML replaces every &name; reference using EntityTransform.
func UnescapeHTML(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	return entityRe.ReplaceAllStringFunc(s, func(m string) string {
		return EntityTransform(m[1:])
	})
}

// EntityTransform decodes one entity reference given without the leading
// ampersand but with the trailing semicolon ("amp;", "#65;"). Known names
// resolve to their replacement text. Numeric references resolve to the
// decimal number stringified, not to the code point's character; see
// https://github.com/ytdl-org/youtube-dl/issues/7518 for why callers depend
// on that. Unknown names come back as their literal &name; form.
func EntityTransform(s string) string {
	entity := strings.TrimSuffix(s, ";")

	if m := numEntRe.FindStringSubmatch(entity); m != nil {
		numstr := m[1]
		base := 10
		if strings.HasPrefix(numstr, "x") {
			numstr = numstr[1:]
			base = 16
		}
		if n, err := strconv.ParseInt(numstr, base, 32); err == nil {
			return strconv.FormatInt(n, 10)
		}
	}

	// Named entity, with or without the HTML5 semicolon-less form.
	if out := xhtml.UnescapeString("&" + entity + ";"); out != "&"+entity+";" {
		return out
	}
	if out := xhtml.UnescapeString("&" + s); out != "&"+s {
		return out
	}

	return "&" + s
}

// ElementByID returns the content of the tag with the given id, or "" and
// false when no such tag exists.
func ElementByID(id, html string) (string, bool) {
	return ElementByAttribute("id", id, html)
}

// ElementByClass returns the content of the first tag carrying the given
// class name.
func ElementByClass(class, html string) (string, bool) {
	all := elementsByAttributePattern("class", `[^'"]*\b`+regexp.QuoteMeta(class)+`\b[^'"]*`, html)
	if len(all) == 0 {
		return "", false
	}
	return all[0], true
}

// ElementByAttribute returns the content of the first tag whose attribute
// equals value exactly.
func ElementByAttribute(attribute, value, html string) (string, bool) {
	all := ElementsByAttribute(attribute, value, html)
	if len(all) == 0 {
		return "", false
	}
	return all[0], true
}

// ElementsByAttribute returns the unescaped content of every tag whose
// attribute equals value exactly.
func ElementsByAttribute(attribute, value, html string) []string {
	return elementsByAttributePattern(attribute, regexp.QuoteMeta(value), html)
}

// elementsByAttributePattern scans for opening tags whose attribute matches
// the given value pattern and slices out everything up to the matching close
// tag. Nested same-name tags are not handled; the pages this runs against do
// not nest the targeted elements.
func elementsByAttributePattern(attribute, valuePattern, html string) []string {
	openRe := regexp.MustCompile(
		`(?s)<([a-zA-Z0-9:._-]+)` +
			`(?:\s+[a-zA-Z0-9:._-]+(?:=[a-zA-Z0-9:._-]*|="[^"]*"|='[^']*'|))*?` +
			`\s+` + regexp.QuoteMeta(attribute) + `=['"]?(?:` + valuePattern + `)['"]?` +
			`(?:\s+[a-zA-Z0-9:._-]+(?:=[a-zA-Z0-9:._-]*|="[^"]*"|='[^']*'|))*?` +
			`\s*>`)

	var out []string
	rest := html
	for {
		loc := openRe.FindStringSubmatchIndex(rest)
		if loc == nil {
			break
		}
		tag := rest[loc[2]:loc[3]]
		body := rest[loc[1]:]
		end := strings.Index(body, "</"+tag+">")
		if end < 0 {
			rest = rest[loc[1]:]
			continue
		}
		content := body[:end]
		if len(content) >= 2 && (content[0] == '"' || content[0] == '\'') {
			content = content[1 : len(content)-1]
		}
		out = append(out, UnescapeHTML(content))
		rest = body[end:]
	}
	return out
}

// SearchMeta returns the content attribute of the first <meta> tag whose
// name, property, itemprop, id or http-equiv attribute equals prop.
func SearchMeta(prop, html string) (string, bool) {
	for _, tag := range metaTagRe.FindAllString(html, -1) {
		attrs := map[string]string{}
		for _, m := range attrPairRe.FindAllStringSubmatch(tag, -1) {
			attrs[strings.ToLower(m[1])] = strings.Trim(m[2], `"'`)
		}
		for _, key := range []string{"itemprop", "name", "property", "id", "http-equiv"} {
			if attrs[key] == prop {
				if content, ok := attrs["content"]; ok {
					return UnescapeHTML(content), true
				}
			}
		}
	}
	return "", false
}

// SearchRegex applies an extraction pattern to text and returns the first
// capture group (the whole match when the pattern has no groups), cleaned of
// markup. The boolean reports whether the pattern matched at all.
func SearchRegex(re *regexp.Regexp, s string) (string, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	if len(m) > 1 {
		return CleanHTML(m[1]), true
	}
	return CleanHTML(m[0]), true
}

// ParseQueryString decodes a query-string-encoded map. Each value is
// URL-decoded and then split on "," into a list, matching how the site
// encodes multi-valued fields.
func ParseQueryString(qs string) map[string][]string {
	out := make(map[string][]string)
	for _, pair := range strings.Split(qs, "&") {
		if pair == "" {
			continue
		}
		key := pair
		rawVal := ""
		if i := strings.Index(pair, "="); i >= 0 {
			key = pair[:i]
			rawVal = pair[i+1:]
		}
		val, err := url.QueryUnescape(rawVal)
		if err != nil {
			val = rawVal
		}
		out[key] = strings.Split(val, ",")
	}
	return out
}

// QueryStringFrom encodes a flat map as an application/x-www-form-urlencoded
// query string.
func QueryStringFrom(m map[string]string) string {
	parts := make([]string, 0, len(m))
	for k, v := range m {
		parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(v))
	}
	return strings.Join(parts, "&")
}

// RemoveQuotes strips one matching pair of surrounding quotes.
func RemoveQuotes(s string) string {
	if len(s) < 2 {
		return s
	}
	if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}

var uppercaseEscapeRe = regexp.MustCompile(`\\U([0-9a-fA-F]{8})`)

// UppercaseEscape decodes \UXXXXXXXX escapes into their code points.
func UppercaseEscape(s string) string {
	return uppercaseEscapeRe.ReplaceAllStringFunc(s, func(m string) string {
		n, err := strconv.ParseInt(m[2:], 16, 64)
		if err != nil {
			return m
		}
		return string(rune(n))
	})
}

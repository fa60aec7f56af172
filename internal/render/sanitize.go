package render

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// EscapeText escapes s for use as HTML text or a quoted attribute value.
func EscapeText(s string) string {
	return html.EscapeString(s)
}

// SanitizeURL returns the normalized form of an absolute http, https or
// mailto URL, or "#" for anything else.
func SanitizeURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "#"
	}
	u, err := url.Parse(s)
	if err != nil {
		return "#"
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if u.Host == "" {
			return "#"
		}
	case "mailto":
		if u.Opaque == "" && u.Path == "" {
			return "#"
		}
	default:
		return "#"
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if (u.Scheme == "http" || u.Scheme == "https") && u.Path == "" && u.Opaque == "" {
		u.Path = "/"
	}
	return u.String()
}

// deniedElements are removed together with their subtrees.
var deniedElements = map[string]bool{
	"script": true,
	"style":  true,
	"iframe": true,
	"object": true,
	"embed":  true,
	"form":   true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"base":   true,
	"svg":    true,
}

// SanitizeHTML parses s as a body fragment, drops denied elements, event
// handler attributes and javascript: links, and serializes what is left.
func SanitizeHTML(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	body := &xhtml.Node{Type: xhtml.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := xhtml.ParseFragment(strings.NewReader(s), body)
	if err != nil {
		return EscapeText(s)
	}

	var sb strings.Builder
	for _, n := range nodes {
		if !clean(n) {
			continue
		}
		if err := xhtml.Render(&sb, n); err != nil {
			return ""
		}
	}
	return sb.String()
}

// clean scrubs n in place and reports whether n itself survives.
func clean(n *xhtml.Node) bool {
	if n.Type == xhtml.ElementNode && deniedElements[strings.ToLower(n.Data)] {
		return false
	}
	if n.Type == xhtml.ElementNode {
		kept := n.Attr[:0]
		for _, a := range n.Attr {
			if deniedAttr(a) {
				continue
			}
			kept = append(kept, a)
		}
		n.Attr = kept
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if !clean(c) {
			n.RemoveChild(c)
		}
		c = next
	}
	return true
}

func deniedAttr(a xhtml.Attribute) bool {
	key := strings.ToLower(a.Key)
	if strings.HasPrefix(key, "on") {
		return true
	}
	return key == "href" && strings.HasPrefix(strings.ToLower(strings.TrimSpace(a.Val)), "javascript:")
}

// Mode selects how rich text is cleaned.
type Mode string

const (
	// ModeDenylist removes known-dangerous markup and keeps the rest.
	ModeDenylist Mode = "denylist"
	// ModeStrict additionally runs an allowlist policy over the result.
	ModeStrict Mode = "strict"
)

// Sanitizer cleans rich-text fields.
type Sanitizer struct {
	mode   Mode
	policy *bluemonday.Policy
}

// NewSanitizer creates a Sanitizer. An empty mode means ModeDenylist.
func NewSanitizer(mode Mode) (*Sanitizer, error) {
	switch mode {
	case "", ModeDenylist:
		return &Sanitizer{mode: ModeDenylist}, nil
	case ModeStrict:
		p := bluemonday.UGCPolicy()
		p.RequireNoReferrerOnLinks(true)
		p.AddTargetBlankToFullyQualifiedLinks(true)
		return &Sanitizer{mode: ModeStrict, policy: p}, nil
	default:
		return nil, fmt.Errorf("unknown sanitizer mode %q", mode)
	}
}

// Mode returns the configured mode.
func (s *Sanitizer) Mode() Mode { return s.mode }

// HTML sanitizes a rich-text value.
func (s *Sanitizer) HTML(in string) string {
	out := SanitizeHTML(in)
	if s.policy != nil {
		out = s.policy.Sanitize(out)
	}
	return out
}

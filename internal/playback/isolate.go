package playback

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// urlAttrs are attributes that may carry a navigable URL.
var urlAttrs = map[string]bool{
	"href":       true,
	"src":        true,
	"action":     true,
	"formaction": true,
	"xlink:href": true,
	"srcdoc":     true,
}

// Isolate turns captured page markup into an inert document for the render
// surface: no scripts, no nested browsing contexts, no inline handlers or
// javascript: URLs, and relative URLs resolved against baseURL.
func Isolate(markup, baseURL string) (string, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("playback: parse snapshot markup: %w", err)
	}

	strip(doc)
	if baseURL != "" {
		setBase(doc, baseURL)
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return "", fmt.Errorf("playback: render snapshot markup: %w", err)
	}
	return buf.String(), nil
}

func inert(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Script, atom.Noscript, atom.Iframe, atom.Frame, atom.Frameset, atom.Object, atom.Embed:
		return true
	case atom.Meta:
		for _, a := range n.Attr {
			if strings.EqualFold(a.Key, "http-equiv") && strings.EqualFold(a.Val, "refresh") {
				return true
			}
		}
	}
	return false
}

func strip(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if inert(c) {
			n.RemoveChild(c)
		} else {
			strip(c)
		}
		c = next
	}
	if n.Type != html.ElementNode {
		return
	}
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		key := strings.ToLower(a.Key)
		if strings.HasPrefix(key, "on") {
			continue
		}
		if urlAttrs[key] && isScriptURL(a.Val) {
			continue
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}

func isScriptURL(v string) bool {
	v = strings.ToLower(strings.Map(func(r rune) rune {
		if r <= ' ' {
			return -1
		}
		return r
	}, v))
	return strings.HasPrefix(v, "javascript:") || strings.HasPrefix(v, "vbscript:")
}

func find(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if f := find(c, a); f != nil {
			return f
		}
	}
	return nil
}

// setBase replaces any captured <base> with one pointing at the page URL.
// html.Parse always synthesises a <head>.
func setBase(doc *html.Node, baseURL string) {
	head := find(doc, atom.Head)
	if head == nil {
		return
	}
	for c := head.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && c.DataAtom == atom.Base {
			head.RemoveChild(c)
		}
		c = next
	}
	base := &html.Node{
		Type:     html.ElementNode,
		Data:     "base",
		DataAtom: atom.Base,
		Attr:     []html.Attribute{{Key: "href", Val: baseURL}},
	}
	head.InsertBefore(base, head.FirstChild)
}

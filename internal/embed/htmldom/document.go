// Package htmldom hosts the embed runtime in an in-memory HTML document
// parsed with golang.org/x/net/html.
package htmldom

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/plinth-cms/plinth/internal/embed"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Fetcher performs the runtime's HTTP requests.
type Fetcher interface {
	Fetch(ctx context.Context, req *embed.Request) (*embed.Response, error)
}

var errNoFetcher = errors.New("document has no fetcher")

// Document is an embed.Platform backed by a parsed HTML tree. It is safe
// for concurrent use; listeners run without the document lock held.
type Document struct {
	mu        sync.Mutex
	root      *html.Node
	listeners []*listener
	fetcher   Fetcher
	logger    zerolog.Logger
}

type listener struct {
	node      *html.Node
	eventType string
	attr      string
	fn        func(*embed.Event)
}

// Element wraps a node of a Document.
type Element struct {
	node *html.Node
	doc  *Document
}

// ID returns the element's id attribute.
func (e *Element) ID() string {
	v, _ := e.Attr("id")
	return v
}

// Attr returns the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return attr(e.node, name)
}

// Parse reads an HTML document.
func Parse(r io.Reader, fetcher Fetcher, logger zerolog.Logger) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return &Document{root: root, fetcher: fetcher, logger: logger}, nil
}

// ParseString is Parse over a string.
func ParseString(s string, fetcher Fetcher, logger zerolog.Logger) (*Document, error) {
	return Parse(strings.NewReader(s), fetcher, logger)
}

var _ embed.Platform = (*Document)(nil)

// FindElement returns the element with the given id, or nil.
func (d *Document) FindElement(id string) embed.Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n := d.find(func(n *html.Node) bool { v, _ := attr(n, "id"); return v == id }); n != nil {
		return d.wrap(n)
	}
	return nil
}

// FindByAttr returns the first element whose name attribute equals value.
func (d *Document) FindByAttr(name, value string) *Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n := d.find(func(n *html.Node) bool { v, ok := attr(n, name); return ok && v == value }); n != nil {
		return d.wrap(n)
	}
	return nil
}

// QueryAll returns every element carrying name, in document order.
func (d *Document) QueryAll(name string) []embed.Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []embed.Element
	walk(d.root, func(n *html.Node) bool {
		if _, ok := attr(n, name); ok && n.Type == html.ElementNode {
			out = append(out, d.wrap(n))
		}
		return false
	})
	return out
}

// SetInnerHTML replaces el's children with the parsed markup.
func (d *Document) SetInnerHTML(el embed.Element, markup string) error {
	n, err := d.node(el)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	nodes, err := html.ParseFragment(strings.NewReader(markup), n)
	if err != nil {
		return fmt.Errorf("parse fragment: %w", err)
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	for _, c := range nodes {
		n.AppendChild(c)
	}
	return nil
}

// SetAttribute sets or replaces an attribute.
func (d *Document) SetAttribute(el embed.Element, name, value string) {
	n, err := d.node(el)
	if err != nil {
		d.logger.Warn().Err(err).Str("attr", name).Msg("cannot set attribute")
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	setAttr(n, name, value)
}

// InjectStyle adds a <style> element with the given id to <head>, or
// replaces the text of an existing one.
func (d *Document) InjectStyle(id, css string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	style := d.find(func(n *html.Node) bool {
		v, _ := attr(n, "id")
		return n.DataAtom == atom.Style && v == id
	})
	if style == nil {
		style = &html.Node{
			Type:     html.ElementNode,
			DataAtom: atom.Style,
			Data:     "style",
			Attr:     []html.Attribute{{Key: "id", Val: id}},
		}
		d.head().AppendChild(style)
	}
	for c := style.FirstChild; c != nil; {
		next := c.NextSibling
		style.RemoveChild(c)
		c = next
	}
	style.AppendChild(&html.Node{Type: html.TextNode, Data: css})
}

// RemoveStyle removes the <style> element with the given id.
func (d *Document) RemoveStyle(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	style := d.find(func(n *html.Node) bool {
		v, _ := attr(n, "id")
		return n.DataAtom == atom.Style && v == id
	})
	if style != nil && style.Parent != nil {
		style.Parent.RemoveChild(style)
	}
}

// Listen registers a delegated listener on el.
func (d *Document) Listen(el embed.Element, eventType, attrName string, fn func(*embed.Event)) func() {
	n, err := d.node(el)
	if err != nil {
		d.logger.Warn().Err(err).Str("event", eventType).Msg("cannot listen")
		return func() {}
	}

	l := &listener{node: n, eventType: eventType, attr: attrName, fn: fn}
	d.mu.Lock()
	d.listeners = append(d.listeners, l)
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		for i, cur := range d.listeners {
			if cur == l {
				d.listeners = append(d.listeners[:i], d.listeners[i+1:]...)
				return
			}
		}
	}
}

// Dispatch fires an event at target. Each listener on an ancestor (or the
// target itself) receives the nearest element between target and the
// listening element that carries its attribute. For input events, value
// becomes the target's value attribute first.
func (d *Document) Dispatch(target embed.Element, eventType, value string) {
	n, err := d.node(target)
	if err != nil {
		return
	}

	type call struct {
		fn func(*embed.Event)
		ev *embed.Event
	}
	var calls []call

	d.mu.Lock()
	if eventType == "input" {
		setAttr(n, "value", value)
	}
	for _, l := range d.listeners {
		if l.eventType != eventType {
			continue
		}
		if match := delegate(n, l.node, l.attr); match != nil {
			calls = append(calls, call{fn: l.fn, ev: &embed.Event{Type: eventType, Target: d.wrap(match), Value: value}})
		}
	}
	d.mu.Unlock()

	for _, c := range calls {
		c.fn(c.ev)
	}
}

// Click dispatches a click at el.
func (d *Document) Click(el embed.Element) { d.Dispatch(el, "click", "") }

// Input sets el's value and dispatches an input event.
func (d *Document) Input(el embed.Element, value string) { d.Dispatch(el, "input", value) }

// Fetch delegates to the document's Fetcher.
func (d *Document) Fetch(ctx context.Context, req *embed.Request) (*embed.Response, error) {
	if d.fetcher == nil {
		return nil, errNoFetcher
	}
	return d.fetcher.Fetch(ctx, req)
}

// Logger returns the document's logger.
func (d *Document) Logger() zerolog.Logger { return d.logger }

// InnerHTML renders el's children.
func (d *Document) InnerHTML(el embed.Element) string {
	n, err := d.node(el)
	if err != nil {
		return ""
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&buf, c)
	}
	return buf.String()
}

// Render writes the whole document.
func (d *Document) Render(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return html.Render(w, d.root)
}

// String returns the rendered document.
func (d *Document) String() string {
	var buf bytes.Buffer
	_ = d.Render(&buf)
	return buf.String()
}

func (d *Document) wrap(n *html.Node) *Element {
	return &Element{node: n, doc: d}
}

func (d *Document) node(el embed.Element) (*html.Node, error) {
	e, ok := el.(*Element)
	if !ok || e == nil || e.doc != d {
		return nil, fmt.Errorf("element %T does not belong to this document", el)
	}
	return e.node, nil
}

// head returns <head>, creating it when the tree has none. Callers hold d.mu.
func (d *Document) head() *html.Node {
	if h := d.find(func(n *html.Node) bool { return n.DataAtom == atom.Head }); h != nil {
		return h
	}
	h := &html.Node{Type: html.ElementNode, DataAtom: atom.Head, Data: "head"}
	parent := d.find(func(n *html.Node) bool { return n.DataAtom == atom.Html })
	if parent == nil {
		parent = d.root
	}
	parent.InsertBefore(h, parent.FirstChild)
	return h
}

// find returns the first element in document order satisfying match.
// Callers hold d.mu.
func (d *Document) find(match func(*html.Node) bool) *html.Node {
	var found *html.Node
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && match(n) {
			found = n
			return true
		}
		return false
	})
	return found
}

// walk visits n and its descendants depth-first until visit returns true.
func walk(n *html.Node, visit func(*html.Node) bool) bool {
	if visit(n) {
		return true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if walk(c, visit) {
			return true
		}
	}
	return false
}

// delegate returns the nearest node from target up to and including
// listening that carries name, or nil when target is outside listening.
func delegate(target, listening *html.Node, name string) *html.Node {
	var match *html.Node
	for n := target; n != nil; n = n.Parent {
		if match == nil && n.Type == html.ElementNode {
			if _, ok := attr(n, name); ok {
				match = n
			}
		}
		if n == listening {
			return match
		}
	}
	return nil
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, name, value string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

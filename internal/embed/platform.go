// Package embed renders Plinth widgets into a host document. The runtime
// owns instance state, fetching, tracking and event wiring; the document
// itself sits behind the Platform interface.
package embed

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"
)

// Marker and data attributes read from the host document.
const (
	AttrMarker       = "data-plinth-widget"
	AttrWidgetID     = "data-widget-id"
	AttrWebsiteID    = "data-website-id"
	AttrTheme        = "data-theme"
	AttrLayout       = "data-widget-layout"
	AttrItemsPerPage = "data-items-per-page"
	AttrOpenInNewTab = "data-open-in-new-tab"
	AttrAPIURL       = "data-api-url"

	// Set on elements inside rendered markup.
	AttrPage      = "data-page"
	AttrContentID = "data-content-id"
	AttrSearch    = "data-widget-search"
	AttrRetry     = "data-plinth-retry"
)

// Element is a node handle owned by the Platform.
type Element interface {
	// ID returns the element's id attribute, or "".
	ID() string
	// Attr returns the named attribute.
	Attr(name string) (string, bool)
}

// Event is a DOM event delivered through delegation. Target is the nearest
// element, from the original target up to the listening element, that
// carries the delegated attribute.
type Event struct {
	Type   string
	Target Element
	// Value is the current value of an input target.
	Value string
}

// Request is an outgoing HTTP request.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is a completed HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
}

// Platform is the host the runtime renders into.
type Platform interface {
	// FindElement returns the element with the given id, or nil.
	FindElement(id string) Element
	// QueryAll returns every element carrying attr, in document order.
	QueryAll(attr string) []Element
	SetInnerHTML(el Element, html string) error
	SetAttribute(el Element, name, value string)
	// InjectStyle adds or replaces the style element with the given id.
	InjectStyle(id, css string)
	RemoveStyle(id string)
	// Listen delegates events of eventType on el to descendants carrying
	// attr. The returned func removes the listener.
	Listen(el Element, eventType, attr string, fn func(*Event)) func()
	// Fetch performs req. Transport failures return an error; any HTTP
	// status is a successful fetch.
	Fetch(ctx context.Context, req *Request) (*Response, error)
	Logger() zerolog.Logger
}

package embed

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testWidgetID  = "9f0c5a4e-3a8b-4c55-9d0e-6f1d2b7a8c90"
	testWebsiteID = "s1"
)

func testConfig(containerID string) Config {
	return Config{
		WidgetID:       testWidgetID,
		WebsiteID:      testWebsiteID,
		ContainerID:    containerID,
		APIURL:         "https://api.plinth.test",
		SearchDebounce: 20 * time.Millisecond,
	}
}

func queryOf(t *testing.T, rawURL string) url.Values {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	return u.Query()
}

func TestInstance_LoadingThenRendered(t *testing.T) {
	p := newFakePlatform()
	c := p.addContainer("c1")
	gate := make(chan struct{})
	p.setRender(func(*Request) (*Response, error) {
		<-gate
		return renderResponse(`<div class="plinth-widget">posts</div>`, 1), nil
	})

	inst := NewRegistry(p, Config{}).Render(testConfig("c1"))
	require.NotNil(t, inst)
	assert.Equal(t, StateLoading, inst.State())
	assert.Equal(t, loadingMarkup, p.htmlOf(c))

	close(gate)
	inst.Wait()

	assert.Equal(t, StateRendered, inst.State())
	assert.Equal(t, `<div class="plinth-widget">posts</div>`, p.htmlOf(c))
	css, ok := p.style("plinth-widget-style-c1")
	require.True(t, ok)
	assert.Contains(t, css, "--plinth-color-primary")

	urls := p.renderURLs()
	require.Len(t, urls, 1)
	assert.True(t, strings.HasPrefix(urls[0], "https://api.plinth.test/widgets/"+testWidgetID+"/render?"))
	assert.Equal(t, "1", queryOf(t, urls[0]).Get("page"))

	inst.Destroy()
}

func TestInstance_ViewTrackedOnceOnInitialRender(t *testing.T) {
	p := newFakePlatform()
	p.addContainer("c1")
	inst := NewRegistry(p, Config{}).Render(testConfig("c1"))
	inst.Wait()

	inst.Refresh()
	inst.Wait()
	inst.GoToPage(2)
	inst.Wait()

	bodies := p.trackBodies()
	require.Len(t, bodies, 1)
	assert.Equal(t, "view", bodies[0].EventType)

	inst.Destroy()
}

func TestInstance_NetworkErrorThenRetry(t *testing.T) {
	p := newFakePlatform()
	c := p.addContainer("c1")
	p.setRender(func(*Request) (*Response, error) { return nil, errConnRefused })

	inst := NewRegistry(p, Config{}).Render(testConfig("c1"))
	inst.Wait()

	assert.Equal(t, StateError, inst.State())
	assert.Contains(t, p.htmlOf(c), "Failed to load content")
	assert.Contains(t, p.htmlOf(c), AttrRetry)
	var netErr *NetworkError
	require.True(t, errors.As(inst.Err(), &netErr))
	assert.Empty(t, p.trackBodies(), "no view tracked for a failed render")

	p.setRender(renderOK(`<div>recovered</div>`, 1))
	p.dispatch(c, "click", target(AttrRetry, ""), "")
	inst.Wait()

	urls := p.renderURLs()
	require.Len(t, urls, 2)
	assert.Equal(t, urls[0], urls[1], "retry re-issues the identical request")
	assert.Equal(t, StateRendered, inst.State())
	assert.Equal(t, `<div>recovered</div>`, p.htmlOf(c))
	assert.NoError(t, inst.Err())
	assert.Len(t, p.trackBodies(), 1)

	inst.Destroy()
}

func TestInstance_HTTPErrorKeepsEnvelopeCode(t *testing.T) {
	p := newFakePlatform()
	c := p.addContainer("c1")
	p.setRender(func(*Request) (*Response, error) {
		return &Response{
			StatusCode: http.StatusNotFound,
			Body:       []byte(`{"success":false,"error":{"code":"NOT_FOUND","message":"widget not found"}}`),
		}, nil
	})

	inst := NewRegistry(p, Config{}).Render(testConfig("c1"))
	inst.Wait()

	var httpErr *HTTPError
	require.True(t, errors.As(inst.Err(), &httpErr))
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	assert.Equal(t, "NOT_FOUND", httpErr.Code)
	assert.Contains(t, p.htmlOf(c), "Failed to load content")

	// Retry is ignored outside the error state.
	p.setRender(renderOK("<div></div>", 1))
	inst.Retry()
	inst.Wait()
	inst.Retry()
	inst.Wait()
	assert.Len(t, p.renderURLs(), 2)

	inst.Destroy()
}

func TestInstance_PageClickIssuesOneRequest(t *testing.T) {
	p := newFakePlatform()
	c := p.addContainer("c1")
	inst := NewRegistry(p, Config{}).Render(testConfig("c1"))
	inst.Wait()

	p.dispatch(c, "click", target(AttrPage, "3"), "")
	inst.Wait()

	urls := p.renderURLs()
	require.Len(t, urls, 2)
	assert.Equal(t, "3", queryOf(t, urls[1]).Get("page"))
	assert.Equal(t, 3, inst.Page())

	p.dispatch(c, "click", target(AttrPage, "next"), "")
	inst.Wait()
	assert.Len(t, p.renderURLs(), 2, "non-numeric page ignored")

	inst.Destroy()
}

func TestInstance_SearchDebounced(t *testing.T) {
	p := newFakePlatform()
	c := p.addContainer("c1")
	inst := NewRegistry(p, Config{}).Render(testConfig("c1"))
	inst.Wait()

	input := target(AttrSearch, "")
	for _, v := range []string{"o", "or", "org", "organ", "organic food"} {
		p.dispatch(c, "input", input, v)
	}
	inst.Wait()

	urls := p.renderURLs()
	require.Len(t, urls, 2, "one request after typing stops")
	q := queryOf(t, urls[1])
	assert.Equal(t, "organic food", q.Get("search"))
	assert.Equal(t, "1", q.Get("page"))
	assert.Contains(t, urls[1], "search=organic+food")

	inst.Destroy()
}

func TestInstance_SearchCancelsPendingDebounce(t *testing.T) {
	p := newFakePlatform()
	c := p.addContainer("c1")
	cfg := testConfig("c1")
	cfg.SearchDebounce = time.Hour
	inst := NewRegistry(p, Config{}).Render(cfg)
	inst.Wait()

	p.dispatch(c, "input", target(AttrSearch, ""), "typed")
	inst.Search("explicit")
	inst.Wait()

	urls := p.renderURLs()
	require.Len(t, urls, 2)
	assert.Equal(t, "explicit", queryOf(t, urls[1]).Get("search"))

	inst.Destroy()
}

func TestInstance_RefreshIsNotCoalesced(t *testing.T) {
	p := newFakePlatform()
	p.addContainer("c1")
	inst := NewRegistry(p, Config{}).Render(testConfig("c1"))
	inst.Wait()

	for range 5 {
		inst.Refresh()
	}
	inst.Wait()

	assert.Len(t, p.renderURLs(), 6)
	assert.Equal(t, StateRendered, inst.State())

	inst.Destroy()
}

// staleFixture answers the second render request only after the third one
// has been applied.
func staleFixture(t *testing.T, discard bool) (*fakePlatform, *fakeElement, *Instance, chan struct{}) {
	t.Helper()
	p := newFakePlatform()
	c := p.addContainer("c1")

	release := make(chan struct{})
	var n atomic.Int32
	p.setRender(func(*Request) (*Response, error) {
		switch n.Add(1) {
		case 2:
			<-release
			return renderResponse("<div>old</div>", 1), nil
		case 3:
			return renderResponse("<div>new</div>", 1), nil
		default:
			return renderResponse("<div>initial</div>", 1), nil
		}
	})

	cfg := testConfig("c1")
	cfg.DiscardStale = discard
	inst := NewRegistry(p, Config{}).Render(cfg)
	inst.Wait()

	inst.Refresh()
	require.Eventually(t, func() bool { return len(p.renderURLs()) == 2 }, time.Second, time.Millisecond)
	inst.Refresh()
	require.Eventually(t, func() bool { return p.htmlOf(c) == "<div>new</div>" }, time.Second, time.Millisecond)
	return p, c, inst, release
}

func TestInstance_LastToResolveWins(t *testing.T) {
	p, c, inst, release := staleFixture(t, false)

	close(release)
	inst.Wait()
	assert.Equal(t, "<div>old</div>", p.htmlOf(c))

	inst.Destroy()
}

func TestInstance_DiscardStale(t *testing.T) {
	p, c, inst, release := staleFixture(t, true)

	close(release)
	inst.Wait()
	assert.Equal(t, "<div>new</div>", p.htmlOf(c))

	inst.Destroy()
}

func TestInstance_ContentClick(t *testing.T) {
	p := newFakePlatform()
	c := p.addContainer("c1")
	cfg := testConfig("c1")
	cfg.OpenInNewTab = true
	inst := NewRegistry(p, Config{}).Render(cfg)
	inst.Wait()

	link := target(AttrContentID, "42", "href", "https://blog.test/post-42")
	p.dispatch(c, "click", link, "")
	inst.Wait()

	assert.Equal(t, "_blank", link.attrs["target"])
	assert.Equal(t, "noopener noreferrer", link.attrs["rel"])

	bodies := p.trackBodies()
	require.Len(t, bodies, 2)
	assert.Equal(t, trackBody{EventType: "click", ContentID: "42", URL: "https://blog.test/post-42"}, bodies[1])

	inst.Destroy()
}

func TestInstance_ContentClickSameTab(t *testing.T) {
	p := newFakePlatform()
	c := p.addContainer("c1")
	inst := NewRegistry(p, Config{}).Render(testConfig("c1"))
	inst.Wait()

	link := target(AttrContentID, "7", "href", "/post-7")
	p.dispatch(c, "click", link, "")
	inst.Wait()

	_, hasTarget := link.attrs["target"]
	assert.False(t, hasTarget)
	assert.Len(t, p.trackBodies(), 2)

	inst.Destroy()
}

func TestInstance_TrackingFailureSwallowed(t *testing.T) {
	p := newFakePlatform()
	c := p.addContainer("c1")
	p.setTrack(func(*Request) (*Response, error) { return nil, errConnRefused })

	inst := NewRegistry(p, Config{}).Render(testConfig("c1"))
	inst.Wait()
	p.dispatch(c, "click", target(AttrContentID, "1"), "")
	inst.Wait()

	assert.Equal(t, StateRendered, inst.State())
	assert.NoError(t, inst.Err())
	assert.Equal(t, `<div class="plinth-widget">ok</div>`, p.htmlOf(c))
	assert.Contains(t, p.logs.String(), "tracking failed")
	assert.Contains(t, p.logs.String(), `"level":"debug"`)

	inst.Destroy()
}

func TestInstance_Destroy(t *testing.T) {
	p := newFakePlatform()
	c := p.addContainer("c1")
	reg := NewRegistry(p, Config{})
	inst := reg.Render(testConfig("c1"))
	inst.Wait()
	_, ok := p.style("plinth-widget-style-c1")
	require.True(t, ok)

	inst.Destroy()

	_, ok = p.style("plinth-widget-style-c1")
	assert.False(t, ok, "style removed")
	assert.Empty(t, p.htmlOf(c))
	assert.Nil(t, reg.GetInstance("c1"))
	assert.Equal(t, StateDestroyed, inst.State())
	assert.Zero(t, p.activeListeners())

	inst.Refresh()
	inst.GoToPage(2)
	inst.Search("x")
	inst.Destroy()
	inst.Wait()
	assert.Len(t, p.renderURLs(), 1, "destroyed instance issues no requests")
}

func TestInstance_DestroyDuringFetch(t *testing.T) {
	p := newFakePlatform()
	c := p.addContainer("c1")
	gate := make(chan struct{})
	p.setRender(func(*Request) (*Response, error) {
		<-gate
		return renderResponse("<div>late</div>", 1), nil
	})

	inst := NewRegistry(p, Config{}).Render(testConfig("c1"))
	inst.Destroy()
	close(gate)
	inst.Wait()

	assert.Empty(t, p.htmlOf(c), "late response not applied")
	assert.Empty(t, p.trackBodies())
}

func TestInstance_DestroyCancelsDebounce(t *testing.T) {
	p := newFakePlatform()
	c := p.addContainer("c1")
	cfg := testConfig("c1")
	cfg.SearchDebounce = time.Hour
	inst := NewRegistry(p, Config{}).Render(cfg)
	inst.Wait()

	p.dispatch(c, "input", target(AttrSearch, ""), "pending")
	inst.Destroy()
	inst.Wait()

	assert.Len(t, p.renderURLs(), 1)
}

package widgets

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/plinth-cms/plinth/internal/models"
)

// PoweredByURL is linked from the platform branding footer.
const PoweredByURL = "https://plinth.dev/?ref=widget"

const widgetTemplate = `<div class="plinth-widget plinth-widget--{{.Layout}}" data-plinth-root="{{.WidgetID}}">
{{- if .ShowSearch}}
<input type="search" class="plinth-widget__search" data-widget-search placeholder="Search" aria-label="Search content" value="{{.Search}}">
{{- end}}
{{- if .Items}}
<ul class="plinth-widget__items">
{{- range .Items}}
{{template "item" (itemContext $ .)}}
{{- end}}
</ul>
{{- else}}
<p class="plinth-widget__empty">No content found.</p>
{{- end}}
{{- if .Pages}}
<nav class="plinth-widget__pagination" aria-label="Pagination">
{{- if .Meta.HasPrev}}
<button type="button" class="plinth-widget__page" data-page="{{.PrevPage}}" aria-label="Previous page">&lsaquo;</button>
{{- end}}
{{- range .Pages}}
<button type="button" class="plinth-widget__page" data-page="{{.}}"{{if eq . $.Meta.Page}} aria-current="page"{{end}}>{{.}}</button>
{{- end}}
{{- if .Meta.HasNext}}
<button type="button" class="plinth-widget__page" data-page="{{.NextPage}}" aria-label="Next page">&rsaquo;</button>
{{- end}}
</nav>
{{- end}}
{{- if .ShowBranding}}
<div class="plinth-widget__powered-by">Powered by <a href="{{.PoweredByURL}}" target="_blank" rel="noopener noreferrer">Plinth</a></div>
{{- end}}
</div>`

const itemTemplate = `{{define "item"}}<li class="plinth-widget__item"{{if .Item.RTL}} dir="rtl"{{end}}>
{{- if .Item.ImageURL}}
<img class="plinth-widget__image" src="{{.Item.ImageURL}}" alt="" loading="lazy">
{{- end}}
<div class="plinth-widget__body">
<h3 class="plinth-widget__title"><a href="{{.Item.URL}}" data-content-id="{{.Item.ID}}"{{if .NewTab}} target="_blank" rel="noopener noreferrer"{{end}}>{{.Item.Title}}</a></h3>
{{- if .Item.PublishedAt}}
<p class="plinth-widget__meta"><time datetime="{{.Item.PublishedAt.Format "2006-01-02"}}">{{.Item.PublishedAt.Format "Jan 2, 2006"}}</time>{{if and .Item.Category (ne .Layout "grid")}} &middot; {{.Item.Category}}{{end}}</p>
{{- end}}
{{- if ne .Layout "grid"}}
{{- if .Item.Excerpt}}
<p class="plinth-widget__excerpt">{{.Item.Excerpt}}</p>
{{- end}}
{{- end}}
{{- if and .Item.Tags (eq .Layout "cards")}}
<p class="plinth-widget__tags">{{range $i, $t := .Item.Tags}}{{if $i}}, {{end}}#{{$t}}{{end}}</p>
{{- end}}
</div>
</li>{{end}}`

// Templates are parsed once at package init; a parse failure is a programming error.
var templates = template.Must(template.Must(
	template.New("widget").Funcs(template.FuncMap{"itemContext": newItemContext}).Parse(widgetTemplate),
).Parse(itemTemplate))

type view struct {
	WidgetID     string
	Layout       models.WidgetLayout
	Search       string
	ShowSearch   bool
	ShowBranding bool
	NewTab       bool
	PoweredByURL string
	Items        []Item
	Meta         Meta
	Pages        []int
	PrevPage     int
	NextPage     int
}

type itemContext struct {
	Item   Item
	Layout models.WidgetLayout
	NewTab bool
}

func newItemContext(v *view, it Item) itemContext {
	return itemContext{Item: it, Layout: v.Layout, NewTab: v.NewTab}
}

func renderMarkup(v *view) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "widget", v); err != nil {
		return "", fmt.Errorf("execute widget template: %w", err)
	}
	return buf.String(), nil
}

// pageWindow returns up to size page numbers centered on current.
func pageWindow(current, total, size int) []int {
	if total <= 1 {
		return nil
	}
	start := current - size/2
	if start < 1 {
		start = 1
	}
	end := start + size - 1
	if end > total {
		end = total
		start = end - size + 1
		if start < 1 {
			start = 1
		}
	}
	pages := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		pages = append(pages, p)
	}
	return pages
}

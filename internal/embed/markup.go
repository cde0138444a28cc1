package embed

import "html"

const loadingMarkup = `<div class="plinth-widget plinth-widget--loading" role="status" aria-live="polite">` +
	`<div class="plinth-widget__spinner"></div><p>Loading…</p></div>`

// errorMarkup is the inline failure block with a retry control.
func errorMarkup(message string) string {
	return `<div class="plinth-widget plinth-widget--error" role="alert">` +
		`<p>` + html.EscapeString(message) + `</p>` +
		`<button type="button" class="plinth-widget__retry" ` + AttrRetry + `>Retry</button></div>`
}

// configErrorMarkup is shown in a container whose config is unusable.
func configErrorMarkup(message string) string {
	return `<div class="plinth-widget plinth-widget--error" role="alert"><p>` +
		html.EscapeString(message) + `</p></div>`
}

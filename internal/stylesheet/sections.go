package stylesheet

import "github.com/plinth-cms/plinth/internal/models"

const baseCSS = `.plinth-widget {
  box-sizing: border-box;
  font-family: var(--plinth-font-body);
  color: var(--plinth-color-text);
  background: var(--plinth-color-background);
  border-radius: var(--plinth-border-radius);
  box-shadow: var(--plinth-shadow);
  padding: 16px;
  line-height: 1.5;
}
.plinth-widget *,
.plinth-widget *::before,
.plinth-widget *::after {
  box-sizing: inherit;
}
.plinth-widget h1,
.plinth-widget h2,
.plinth-widget h3,
.plinth-widget__title {
  font-family: var(--plinth-font-heading);
  margin: 0 0 8px;
  line-height: 1.25;
}
.plinth-widget a {
  color: var(--plinth-color-primary);
  text-decoration: none;
}
.plinth-widget a:hover {
  text-decoration: underline;
}
.plinth-widget__items {
  display: grid;
  gap: 16px;
  margin: 0;
  padding: 0;
  list-style: none;
}
.plinth-widget--grid .plinth-widget__items {
  grid-template-columns: repeat(auto-fill, minmax(220px, 1fr));
}
.plinth-widget--list .plinth-widget__items {
  grid-template-columns: 1fr;
}
.plinth-widget--cards .plinth-widget__items {
  grid-template-columns: repeat(auto-fill, minmax(280px, 1fr));
}
.plinth-widget__item {
  border-radius: var(--plinth-border-radius);
  overflow: hidden;
}
.plinth-widget--cards .plinth-widget__item {
  box-shadow: var(--plinth-shadow);
  padding: 12px;
}
.plinth-widget--list .plinth-widget__item {
  display: flex;
  gap: 12px;
  border-bottom: 1px solid var(--plinth-color-secondary);
  padding-bottom: 12px;
}
.plinth-widget__image {
  display: block;
  width: 100%;
  height: auto;
  border-radius: var(--plinth-border-radius);
}
.plinth-widget--list .plinth-widget__image {
  width: 120px;
  flex-shrink: 0;
}
.plinth-widget__meta {
  color: var(--plinth-color-secondary);
  font-size: 0.875em;
}
.plinth-widget__excerpt {
  margin: 4px 0 0;
}
.plinth-widget__button,
.plinth-widget__page {
  font: inherit;
  cursor: pointer;
  border: 1px solid var(--plinth-color-primary);
  border-radius: var(--plinth-border-radius);
  background: transparent;
  color: var(--plinth-color-primary);
  padding: 6px 12px;
}
.plinth-widget__page[aria-current="page"],
.plinth-widget__button--primary {
  background: var(--plinth-color-primary);
  color: var(--plinth-color-background);
}
.plinth-widget__page:disabled {
  opacity: 0.5;
  cursor: default;
}
.plinth-widget__search {
  font: inherit;
  width: 100%;
  margin-bottom: 16px;
  padding: 8px 12px;
  border: 1px solid var(--plinth-color-secondary);
  border-radius: var(--plinth-border-radius);
  color: inherit;
  background: transparent;
}
.plinth-widget__search:focus {
  outline: 2px solid var(--plinth-color-accent);
  outline-offset: 1px;
}
.plinth-widget__pagination {
  display: flex;
  flex-wrap: wrap;
  gap: 6px;
  justify-content: center;
  margin-top: 16px;
}
.plinth-widget__empty,
.plinth-widget__loading,
.plinth-widget__error {
  text-align: center;
  padding: 24px 0;
}
.plinth-widget__error {
  color: var(--plinth-color-accent);
}
.plinth-widget__powered-by {
  margin-top: 16px;
  text-align: right;
  font-size: 0.75em;
  color: var(--plinth-color-secondary);
}
`

const darkCSS = `.plinth-widget {
  --plinth-color-background: #111827;
  --plinth-color-text: #F9FAFB;
  --plinth-color-secondary: #9CA3AF;
}
.plinth-widget--cards .plinth-widget__item {
  background: #1F2937;
}
`

const responsiveCSS = `@media (max-width: 640px) {
  .plinth-widget {
    padding: 12px;
  }
  .plinth-widget--grid .plinth-widget__items,
  .plinth-widget--cards .plinth-widget__items {
    grid-template-columns: 1fr;
  }
  .plinth-widget--list .plinth-widget__item {
    flex-direction: column;
  }
  .plinth-widget--list .plinth-widget__image {
    width: 100%;
  }
  .plinth-widget__page {
    padding: 8px 14px;
  }
}
`

const rtlCSS = `.plinth-widget [dir="rtl"],
.plinth-widget[dir="rtl"] {
  direction: rtl;
  text-align: right;
}
.plinth-widget[dir="rtl"] .plinth-widget__powered-by {
  text-align: left;
}
`

var keyframes = map[models.WidgetAnimation]string{
	models.AnimationFade: `@keyframes plinth-fade-in {
  from { opacity: 0; }
  to { opacity: 1; }
}
.plinth-widget__item {
  animation: plinth-fade-in var(--plinth-animation-duration) ease-out both;
}
`,
	models.AnimationSlide: `@keyframes plinth-slide-in {
  from { opacity: 0; transform: translateY(12px); }
  to { opacity: 1; transform: translateY(0); }
}
.plinth-widget__item {
  animation: plinth-slide-in var(--plinth-animation-duration) ease-out both;
}
`,
	models.AnimationScale: `@keyframes plinth-scale-in {
  from { opacity: 0; transform: scale(0.95); }
  to { opacity: 1; transform: scale(1); }
}
.plinth-widget__item {
  animation: plinth-scale-in var(--plinth-animation-duration) ease-out both;
}
`,
}

const hideBrandingCSS = `.plinth-widget__powered-by {
  display: none !important;
}
`

package render

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/socialismbuilder/ContextFlow/internal/sentence"
)

// PlaceholderText is shown on the card front while generation is in flight.
const PlaceholderText = "例句生成中..."

// Renderer produces the replacement card HTML. The zero value uses the
// default font stack.
type Renderer struct {
	fontFamily string
}

// New returns a Renderer using the given font option ("serif", "kaiti" or
// empty for the system default).
func New(fontFamily string) *Renderer {
	return &Renderer{fontFamily: fontFamily}
}

var (
	frontTmpl = template.Must(template.New("front").Parse(`<style>{{.CSS}}</style>
<div class="card-group">
  <div class="card-label">例句</div>
  <div class="card-text">{{.Sentence}}</div>
</div>`))

	placeholderTmpl = template.Must(template.New("placeholder").Parse(`<style>{{.CSS}}</style>
<div class="card-group">
  <div class="card-label">例句</div>
  <div class="card-text placeholder">{{.Text}}</div>
  <div class="translation-placeholder-line"></div>
</div>`))

	backTmpl = template.Must(template.New("back").Parse(`<style>{{.CSS}}</style>
<div class="card-group">
  <div class="card-label">例句</div>
  <div class="card-text">{{.Sentence}}</div>
</div>
<div class="card-group">
  <div class="card-label">翻译</div>
  <div class="card-text">{{.Translation}}</div>
</div>
<details class="original-card">
  <summary>原始卡片</summary>
  <div class="original-card-body">{{.Original}}</div>
</details>`))
)

// highlight escapes raw model text, then converts the <u> markers the
// prompt asks for into styled spans. Everything else stays escaped so a
// misbehaving model cannot inject markup into the review screen.
func highlight(raw string) template.HTML {
	s := template.HTMLEscapeString(raw)
	s = strings.ReplaceAll(s, "&lt;u&gt;", `<span class="highlight">`)
	s = strings.ReplaceAll(s, "&lt;/u&gt;", `</span>`)
	return template.HTML(s)
}

// Front renders the question side for a cached sentence.
func (r *Renderer) Front(s string) string {
	var b strings.Builder
	frontTmpl.Execute(&b, map[string]interface{}{
		"CSS":      template.CSS(r.css()),
		"Sentence": highlight(s),
	})
	return b.String()
}

// FrontPlaceholder renders the question side shown while the sentence is
// still being generated.
func (r *Renderer) FrontPlaceholder() string {
	var b strings.Builder
	placeholderTmpl.Execute(&b, map[string]interface{}{
		"CSS":  template.CSS(r.css()),
		"Text": PlaceholderText,
	})
	return b.String()
}

// Back renders the answer side: the sentence, its translation and the
// original card content in a collapsed block.
func (r *Renderer) Back(pair sentence.Pair, originalHTML string) string {
	var b strings.Builder
	backTmpl.Execute(&b, map[string]interface{}{
		"CSS":         template.CSS(r.css()),
		"Sentence":    highlight(pair.Sentence),
		"Translation": highlight(pair.Translation),
		"Original":    template.HTML(originalHTML),
	})
	return b.String()
}

func (r *Renderer) fontStack() string {
	switch r.fontFamily {
	case "serif":
		return `Georgia, "Times New Roman", "Songti SC", SimSun, serif`
	case "kaiti":
		return `"Kaiti SC", KaiTi, STKaiti, serif`
	default:
		return `-apple-system, "Segoe UI", "PingFang SC", "Microsoft YaHei", sans-serif`
	}
}

func (r *Renderer) css() string {
	return fmt.Sprintf(`.card {
  font-family: %s;
  font-size: 20px;
  text-align: left;
  color: #333;
  background-color: white;
}

.card-group {
  margin: 16px 12px;
  padding: 14px 16px;
  border-radius: 10px;
  background-color: #f7f7f8;
}

.card-label {
  font-size: 13px;
  color: #8e8e93;
  margin-bottom: 6px;
}

.card-text {
  font-size: 22px;
  line-height: 1.5;
}

.card-text.placeholder {
  color: #8e8e93;
  font-style: italic;
}

.highlight {
  color: #c0392b;
  font-weight: bold;
  text-decoration: underline;
}

.translation-placeholder-line {
  height: 1em;
  margin-top: 10px;
  border-radius: 6px;
  background-color: #ececee;
}

.original-card {
  margin: 16px 12px;
  font-size: 15px;
  color: #8e8e93;
}

.original-card-body {
  margin-top: 8px;
  padding: 10px;
  border-radius: 8px;
  background-color: #f7f7f8;
  color: #333;
}

.night_mode .card {
  color: #e6e6e6;
  background-color: #2f2f31;
}

.night_mode .card-group,
.night_mode .original-card-body {
  background-color: #3a3a3c;
}

.night_mode .translation-placeholder-line {
  background-color: #48484a;
}

.night_mode .highlight {
  color: #ff6b5e;
}`, r.fontStack())
}

package playback

import (
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/skip2/go-qrcode"

	"deckd/internal/layout"
)

// DefaultQRSize is the pixel size of the CTA QR code on bookend slides.
const DefaultQRSize = 192

// Renderer builds frames and writes them as standalone HTML pages.
type Renderer struct {
	policy *bluemonday.Policy
	page   *template.Template
	qrSize int
}

func NewRenderer() *Renderer {
	return &Renderer{
		policy: bluemonday.UGCPolicy(),
		page:   template.Must(template.New("frame").Funcs(templateFuncs).Parse(frameTemplate)),
		qrSize: DefaultQRSize,
	}
}

// sanitize keeps the formatting markup an annotation script may carry and
// drops everything else.
func (r *Renderer) sanitize(script string) template.HTML {
	if script == "" {
		return ""
	}
	return template.HTML(r.policy.Sanitize(script))
}

func (r *Renderer) qrCode(link string) (template.URL, error) {
	png, err := qrcode.Encode(link, qrcode.Medium, r.qrSize)
	if err != nil {
		return "", fmt.Errorf("playback: encode CTA QR code: %w", err)
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)), nil
}

// RenderHTML writes f as a page. The snapshot document goes into a sandboxed
// iframe without script permission; the host script only restores scroll.
func (r *Renderer) RenderHTML(w io.Writer, f Frame) error {
	if err := r.page.Execute(w, f); err != nil {
		return fmt.Errorf("playback: render frame %d: %w", f.Index, err)
	}
	return nil
}

var templateFuncs = template.FuncMap{
	"transform": func(t layout.Transform) template.CSS {
		return template.CSS(cssTransform(t))
	},
	"px": func(v float64) template.CSS {
		return template.CSS(fmt.Sprintf("%.2fpx", v))
	},
	"percent": func(i, n int) template.CSS {
		if n <= 1 {
			return "100%"
		}
		return template.CSS(fmt.Sprintf("%.2f%%", float64(i)*100/float64(n-1)))
	},
	"ms": func(d interface{ Milliseconds() int64 }) template.CSS {
		return template.CSS(fmt.Sprintf("%dms", d.Milliseconds()))
	},
	"inc": func(i int) int { return i + 1 },
	"lines": func(s string) []string {
		return strings.Split(s, "\n")
	},
}

func cssTransform(t layout.Transform) string {
	return fmt.Sprintf("scale(%.4f) translate(%.2fpx, %.2fpx)", t.Scale, t.TranslateX, t.TranslateY)
}

const frameTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Label}} ({{inc .Index}}/{{.Count}})</title>
<style>
body { margin: 0; background: #111; font-family: system-ui, sans-serif; }
.stage { position: relative; overflow: hidden; margin: 0 auto; }
.zoom { position: absolute; inset: 0; transform-origin: center; }
.surface { position: absolute; top: 0; left: 0; border: 0; transform-origin: 0 0; pointer-events: none; background: #fff; }
.cursor { position: absolute; width: 16px; height: 16px; margin: -8px 0 0 -8px; border-radius: 50%; background: rgba(255, 82, 82, .9); }
.cursor.ping::after { content: ""; position: absolute; inset: -8px; border-radius: 50%; border: 2px solid rgba(255, 82, 82, .8); animation: ping 500ms ease-out infinite; }
@keyframes ping { from { transform: scale(.5); opacity: 1; } to { transform: scale(2); opacity: 0; } }
.tooltip { position: absolute; width: 300px; min-height: 60px; box-sizing: border-box; padding: 12px; border-radius: 8px; background: #fff; box-shadow: 0 4px 16px rgba(0, 0, 0, .3); }
.tooltip h2 { margin: 0 0 6px; font-size: 15px; }
.tooltip textarea { width: 100%; }
.zoom-editor { position: absolute; border: 2px dashed #4f8cff; background: rgba(79, 140, 255, .12); box-sizing: border-box; }
.bookend { position: relative; margin: 0 auto; display: flex; flex-direction: column; align-items: center; justify-content: center; color: #fff; background: linear-gradient(135deg, #1f2a44, #3b5bdb); text-align: center; }
.bookend img.logo { max-height: 64px; margin-bottom: 16px; }
{{- with .Zoom}}
@keyframes zoom-in {
{{- $n := len .Keyframes}}
{{- range $i, $k := .Keyframes}}
  {{percent $i $n}} { transform: {{transform $k}}; }
{{- end}}
}
.zoom { animation: zoom-in {{ms .Duration}} linear {{ms .Delay}} forwards; }
{{- if .CursorPath}}
@keyframes cursor-zoom {
{{- $n := len .CursorPath}}
{{- range $i, $p := .CursorPath}}
  {{percent $i $n}} { left: {{px $p.X}}; top: {{px $p.Y}}; }
{{- end}}
}
.cursor { animation: cursor-zoom {{ms .Duration}} linear {{ms .Delay}} forwards; }
{{- end}}
{{- end}}
</style>
</head>
<body data-mode="{{.Mode}}" data-state="{{.State}}">
{{- if .Bookend}}
{{- with .Bookend}}
<section class="bookend" style="width: {{.Width}}px; height: {{.Height}}px">
  {{- if .Logo}}<img class="logo" src="{{.Logo}}" alt="">{{end}}
  <h1>{{.Title}}</h1>
  {{- range lines .Description}}<p>{{.}}</p>{{end}}
  {{- if .CTALink}}
  <a class="cta" href="{{.CTALink}}">{{.CTALink}}</a>
  {{- if .QRCode}}<img class="qr" src="{{.QRCode}}" alt="QR code for {{.CTALink}}">{{end}}
  {{- end}}
</section>
{{- end}}
{{- else}}
<div class="stage" style="width: {{.Layout.Display.Width}}px; height: {{.Layout.Display.Height}}px">
  <div class="zoom">
  {{- with .Surface}}
    <iframe class="surface" id="surface" sandbox="allow-same-origin" referrerpolicy="no-referrer"
      style="width: {{.Width}}px; height: {{.Height}}px; transform: scale({{.Scale}})"
      data-scroll-x="{{.ScrollX}}" data-scroll-y="{{.ScrollY}}"
      srcdoc="{{.HTML}}"></iframe>
  {{- end}}
  </div>
  {{- with .Cursor}}
  <div class="cursor{{if .Ping}} ping{{end}}" style="left: {{px .X}}; top: {{px .Y}}"></div>
  {{- end}}
  {{- with .Tooltip}}
  <div class="tooltip" data-flip-x="{{.FlipX}}" data-flip-y="{{.FlipY}}" style="left: {{px .X}}; top: {{px .Y}}">
    {{- if .Editable}}
    <form method="post" class="annotation-editor">
      <input name="label" value="{{.Label}}">
      <textarea name="script">{{.Script}}</textarea>
      <button name="action" value="save">Save</button>
      <button name="action" value="discard">Discard</button>
    </form>
    {{- else}}
    <h2>{{.Label}}</h2>
    <div class="script">{{.Script}}</div>
    {{- end}}
  </div>
  {{- end}}
  {{- with .ZoomEditor}}
  <div class="zoom-editor" data-preview="{{.Preview}}" style="left: {{px .Rect.X}}; top: {{px .Rect.Y}}; width: {{px .Rect.Width}}; height: {{px .Rect.Height}}"></div>
  {{- end}}
</div>
<script>
(function () {
  var f = document.getElementById("surface");
  if (!f) { return; }
  f.addEventListener("load", function () {
    setTimeout(function () {
      try { f.contentWindow.scrollTo(+f.dataset.scrollX, +f.dataset.scrollY); } catch (e) {}
    }, 0);
  });
})();
</script>
{{- end}}
</body>
</html>
`

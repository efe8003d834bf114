package listpage

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"html"
	"regexp"
	"strings"
	"sync"

	"github.com/ignite/customer-console/internal/domain"
	"github.com/osteele/liquid"
)

// Renderer parses and renders page templates, caching parsed templates by
// content hash.
type Renderer struct {
	engine *liquid.Engine
	cache  sync.Map // map[string]*liquid.Template
}

// NewRenderer creates a renderer with the page filters registered.
func NewRenderer() *Renderer {
	engine := liquid.NewEngine()

	// Default value filter: {{ list_description | default: "..." }}
	engine.RegisterFilter("default", func(value interface{}, defaultVal string) interface{} {
		if value == nil {
			return defaultVal
		}
		if s := fmt.Sprintf("%v", value); s == "" || s == "<nil>" {
			return defaultVal
		}
		return value
	})
	engine.RegisterFilter("escape", func(s string) string {
		return html.EscapeString(s)
	})

	return &Renderer{engine: engine}
}

// Parse compiles content and returns any syntax error.
func (r *Renderer) Parse(content string) error {
	_, err := r.template(content)
	return err
}

// Render renders content with vars.
func (r *Renderer) Render(content string, vars map[string]interface{}) (string, error) {
	tpl, err := r.template(content)
	if err != nil {
		return "", err
	}
	out, err := tpl.RenderString(vars)
	if err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	return out, nil
}

func (r *Renderer) template(content string) (*liquid.Template, error) {
	sum := md5.Sum([]byte(content))
	key := hex.EncodeToString(sum[:])
	if cached, ok := r.cache.Load(key); ok {
		return cached.(*liquid.Template), nil
	}
	tpl, err := r.engine.ParseString(content)
	if err != nil {
		return nil, err
	}
	r.cache.Store(key, tpl)
	return tpl, nil
}

// MissingTags returns the required variables content does not output.
func MissingTags(content string, required []string) []string {
	var missing []string
	for _, tag := range required {
		re := regexp.MustCompile(`\{\{-?\s*` + regexp.QuoteMeta(tag) + `\s*(\|[^}]*)?-?\}\}`)
		if !re.MatchString(content) {
			missing = append(missing, tag)
		}
	}
	return missing
}

// fieldsHTML renders one labelled input per list field.
func fieldsHTML(fields []domain.ListField) string {
	var b strings.Builder
	for _, f := range fields {
		tag := html.EscapeString(f.Tag)
		label := html.EscapeString(f.Label)
		typ := "text"
		if f.Tag == "EMAIL" {
			typ = "email"
		}
		req := ""
		if f.Required {
			req = " required"
			label += " *"
		}
		fmt.Fprintf(&b, `<div class="form-group"><label for="%s">%s</label><input type="%s" class="form-control" id="%s" name="%s"%s></div>`+"\n",
			tag, label, typ, tag, tag, req)
	}
	return b.String()
}

func emailFieldHTML() string {
	return `<div class="form-group"><label for="EMAIL">Email *</label><input type="email" class="form-control" id="EMAIL" name="EMAIL" required></div>`
}

func submitHTML(label string) string {
	return `<button type="submit" class="btn btn-primary">` + html.EscapeString(label) + `</button>`
}

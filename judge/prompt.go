package judge

import (
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/seo-optimizer/geo/content"
)

// Placeholder is rendered for any descriptor field that is missing.
const Placeholder = "not found"

// PromptData is what prompt templates are executed against.
type PromptData struct {
	Persona       Persona
	URL           string
	Title         string
	Description   string
	WordCount     int
	H1, H2, H3    int
	Images        int
	ImagesWithAlt int
	Lists         int
	Tables        int
	SchemaOrg     string
	Microdata     string
	OpenGraph     string
	Excerpt       string
	Focus         []string
}

var defaultTemplate = template.Must(template.New("judge").Funcs(templateFuncs).Parse(`{{.Persona.Role}}

Analyze this web page for Generative Engine Optimization (GEO).

PAGE
- URL: {{.URL}}
- Title: {{.Title}}
- Description: {{.Description}}

CONTENT STRUCTURE
- Word count: {{.WordCount}}
- Headings: H1: {{.H1}}, H2: {{.H2}}, H3: {{.H3}}
- Images: {{.Images}} total, {{.ImagesWithAlt}} with alt text
- Lists: {{.Lists}}
- Tables: {{.Tables}}

SEMANTIC MARKUP
- Schema.org: {{.SchemaOrg}}
- Microdata: {{.Microdata}}
- Open Graph: {{.OpenGraph}}

CONTENT EXCERPT
{{.Excerpt}}
{{if .Focus}}
Pay particular attention to: {{join .Focus ", "}}.
{{end}}
Organize your answer into exactly these sections, each ending with a score line "<int>/100":
## 1. CITATION POTENTIAL
## 2. SEMANTIC DENSITY
## 3. CLEAR ANSWER STRUCTURE
## 4. TECHNICAL OPTIMIZATION
## 5. RAG OPTIMIZATION
## 6. RECOMMENDATIONS
List concrete improvements as bullet points, one per line.

Scale: 0-30 critically low, 31-60 average, 61-80 good, 81-100 excellent.

The last line of your answer must be exactly:
FINAL SCORE: <int>/100
`))

var templateFuncs = template.FuncMap{"join": strings.Join}

// Compose renders the prompt for persona p about page d. It never fails: an
// unusable custom template falls back to the default one.
func Compose(d content.Descriptor, p Persona) string {
	data := newPromptData(d, p)

	if p.Template != "" {
		if t, err := template.New(p.ID).Funcs(templateFuncs).Parse(p.Template); err == nil {
			var sb strings.Builder
			if err := t.Execute(&sb, data); err == nil {
				return sb.String()
			}
		}
	}

	var sb strings.Builder
	if err := defaultTemplate.Execute(&sb, data); err != nil {
		// Only reachable if PromptData and the default template drift apart.
		return fmt.Sprintf("%s\n\nURL: %s\nFINAL SCORE: <int>/100", p.Role, data.URL)
	}
	return sb.String()
}

func newPromptData(d content.Descriptor, p Persona) PromptData {
	excerpt := strings.TrimSpace(content.Truncate(d.TextExcerpt, content.MaxExcerpt))
	return PromptData{
		Persona:       p,
		URL:           orPlaceholder(d.URL),
		Title:         orPlaceholder(d.Title),
		Description:   orPlaceholder(d.Description),
		WordCount:     d.WordCount,
		H1:            d.Heading(1),
		H2:            d.Heading(2),
		H3:            d.Heading(3),
		Images:        d.Images,
		ImagesWithAlt: d.ImagesWithAlt,
		Lists:         d.Lists,
		Tables:        d.Tables,
		SchemaOrg:     presence(d.HasSchemaOrg),
		Microdata:     presence(d.HasMicrodata),
		OpenGraph:     presence(d.HasOpenGraph),
		Excerpt:       orPlaceholder(excerpt),
		Focus:         focusList(p.Focus),
	}
}

func focusList(focus map[Category]float64) []string {
	var out []string
	for c, w := range focus {
		if w > 1 {
			out = append(out, string(c))
		}
	}
	sort.Strings(out)
	return out
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}

func presence(ok bool) string {
	if ok {
		return "present"
	}
	return "absent"
}

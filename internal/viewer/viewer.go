package viewer

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"mercadona/snapshot/internal/domain"

	log "github.com/sirupsen/logrus"
)

// Generate writes a static index.html next to the snapshot files: the
// category forest with links to the per-category and per-product JSON. It is
// a convenience for browsing the published dataset, nothing depends on it.
func Generate(outDir string, forest []domain.Category, productIDs []int) error {
	f, err := os.Create(filepath.Join(outDir, "index.html"))
	if err != nil {
		return fmt.Errorf("failed to create viewer index: %w", err)
	}
	defer f.Close()

	data := struct {
		Forest     []domain.Category
		ProductIDs []int
	}{
		Forest:     forest,
		ProductIDs: productIDs,
	}

	if err := indexTemplate.Execute(f, data); err != nil {
		return fmt.Errorf("failed to render viewer index: %w", err)
	}

	log.Infof("✅ Viewer written: %d categories, %d products", len(forest), len(productIDs))
	return nil
}

var indexTemplate = template.Must(template.New("index").Parse(`<!doctype html>
<html lang="es">
<head>
  <meta charset="utf-8">
  <title>Catálogo Mercadona</title>
</head>
<body>
  <h1>Catálogo Mercadona</h1>
  <section id="categories">
    <h2>Categorías</h2>
    <ul>
    {{- range .Forest}}
      <li><a href="categories/{{.ID}}.json">{{.Name}}</a>
      {{- if .Subcategories}}
        <ul>
        {{- range .Subcategories}}
          <li>{{.Name}}</li>
        {{- end}}
        </ul>
      {{- end}}
      </li>
    {{- end}}
    </ul>
  </section>
  <section id="products">
    <h2>Productos ({{len .ProductIDs}})</h2>
    <ul>
    {{- range .ProductIDs}}
      <li><a href="products/{{.}}.json">{{.}}</a></li>
    {{- end}}
    </ul>
  </section>
</body>
</html>
`))

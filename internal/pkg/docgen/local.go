package docgen

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"path"

	"github.com/yigit/admissions/internal/pkg/filestorage"
)

//go:embed templates/*.html
var templateFiles embed.FS

var templateNames = map[string]string{
	LetterOffer:     "offer.html",
	LetterAdmission: "admission.html",
}

// LocalGenerator renders letters in process and saves them to file storage
type LocalGenerator struct {
	storage   filestorage.FileStorage
	templates *template.Template
}

// NewLocalGenerator parses the bundled letter templates
func NewLocalGenerator(storage filestorage.FileStorage) (*LocalGenerator, error) {
	tmpl, err := template.ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse letter templates: %w", err)
	}
	return &LocalGenerator{storage: storage, templates: tmpl}, nil
}

// Render returns the letter document without storing it
func (g *LocalGenerator) Render(req Request) ([]byte, error) {
	name, ok := templateNames[req.LetterType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, req.LetterType)
	}

	var buf bytes.Buffer
	if err := g.templates.ExecuteTemplate(&buf, name, req.Fields); err != nil {
		return nil, fmt.Errorf("failed to render %s letter: %w", req.LetterType, err)
	}
	return buf.Bytes(), nil
}

// Generate implements Generator
func (g *LocalGenerator) Generate(ctx context.Context, req Request) (string, error) {
	content, err := g.Render(req)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	return g.storage.Save(ctx, path.Join("letters", req.ApplicationID), ".html", content)
}

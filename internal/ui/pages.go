package ui

import (
	"embed"
	"fmt"
)

//go:embed pages/*.txt
var pageFiles embed.FS

// LegalPage returns the static text for a legal view.
func LegalPage(v View) (string, error) {
	if !v.IsLegal() {
		return "", fmt.Errorf("%s is not a text page", v)
	}
	data, err := pageFiles.ReadFile("pages/" + v.String() + ".txt")
	if err != nil {
		return "", fmt.Errorf("failed to read %s page: %w", v, err)
	}
	return string(data), nil
}

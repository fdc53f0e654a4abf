package ui

import (
	"strings"
	"testing"
)

func TestLegalPage(t *testing.T) {
	for _, v := range []View{AboutView, PrivacyView, DisclaimerView, DMCAView} {
		t.Run(v.String(), func(t *testing.T) {
			text, err := LegalPage(v)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if strings.TrimSpace(text) == "" {
				t.Error("expected page text")
			}
		})
	}

	for _, v := range []View{MainView, FavoritesView} {
		if _, err := LegalPage(v); err == nil {
			t.Errorf("expected error for %v", v)
		}
	}
}

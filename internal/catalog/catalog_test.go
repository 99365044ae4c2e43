package catalog

import "testing"

func TestPage_HasNext(t *testing.T) {
	tests := []struct {
		name string
		page Page
		want bool
	}{
		{"first of three", Page{Page: 1, Pages: 3}, true},
		{"last page", Page{Page: 3, Pages: 3}, false},
		{"no pages", Page{Page: 1, Pages: 0}, false},
		{"past the end", Page{Page: 4, Pages: 3}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.page.HasNext(); got != tt.want {
				t.Errorf("HasNext() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestImage_PageURL(t *testing.T) {
	img := Image{ID: "123", Owner: "42@N01"}
	if got := img.PageURL(); got != "https://www.flickr.com/photos/42@N01/123" {
		t.Errorf("unexpected page url: %s", got)
	}

	img.Owner = ""
	if got := img.PageURL(); got != "" {
		t.Errorf("expected empty page url without owner, got %s", got)
	}
}

func TestNewSize(t *testing.T) {
	s := NewSize(1000, 800)
	if s.Width == nil || *s.Width != 1000 {
		t.Errorf("expected width 1000, got %v", s.Width)
	}
	if s.Height == nil || *s.Height != 800 {
		t.Errorf("expected height 800, got %v", s.Height)
	}
}

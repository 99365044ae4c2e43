package catalog

import (
	"fmt"
	"net/url"
)

// Source identifies which backend produced an image record.
type Source string

const (
	SourceFlickr Source = "flickr"
	SourceMock   Source = "mock"
)

// Size holds optional pixel dimensions of an image.
type Size struct {
	Width  *int `json:"width,omitempty"`
	Height *int `json:"height,omitempty"`
}

// NewSize returns a Size with both dimensions set.
func NewSize(width, height int) *Size {
	return &Size{Width: &width, Height: &height}
}

// Image is one search hit. Only ID is significant for caching; the other
// fields are carried through untouched.
type Image struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Owner     string `json:"owner,omitempty"`
	OwnerName string `json:"owner_name,omitempty"`
	Thumbnail string `json:"thumbnail"`
	Original  string `json:"original,omitempty"`
	Size      *Size  `json:"size,omitempty"`
	Source    Source `json:"source"`
}

// PhotoHost is the site serving public photo pages.
const PhotoHost = "https://www.flickr.com"

// PagePath returns the path of the public photo page, or "" if the owner
// is unknown.
func (i Image) PagePath() string {
	if i.Owner == "" || i.ID == "" {
		return ""
	}
	return fmt.Sprintf("/photos/%s/%s", url.PathEscape(i.Owner), url.PathEscape(i.ID))
}

// PageURL returns the public photo page for the image, or "".
func (i Image) PageURL() string {
	path := i.PagePath()
	if path == "" {
		return ""
	}
	return PhotoHost + path
}

// Page is the pagination metadata of one backend response. Page is 1-based.
type Page struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
	Pages   int `json:"pages"`
}

// HasNext reports whether pages beyond this one exist.
func (p Page) HasNext() bool {
	return p.Page < p.Pages
}

// Response is a single page of results.
type Response struct {
	Items []Image
	Page  Page
}

package flickr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/FranksOps/simpleflickr/internal/catalog"
)

const staticHost = "https://live.staticflickr.com"

type envelope struct {
	Stat    string  `json:"stat"`
	Code    flexInt `json:"code"`
	Message string  `json:"message"`
	Photos  *photos `json:"photos"`
}

type photos struct {
	Page    flexInt `json:"page"`
	Pages   flexInt `json:"pages"`
	PerPage flexInt `json:"perpage"`
	Total   flexInt `json:"total"`
	Photo   []photo `json:"photo"`
}

type photo struct {
	ID        string  `json:"id"`
	Owner     string  `json:"owner"`
	OwnerName string  `json:"ownername"`
	Secret    string  `json:"secret"`
	Server    string  `json:"server"`
	Title     string  `json:"title"`
	URLQ      string  `json:"url_q"`
	URLO      string  `json:"url_o"`
	OWidth    flexInt `json:"o_width"`
	OHeight   flexInt `json:"o_height"`
	WidthQ    flexInt `json:"width_q"`
	HeightQ   flexInt `json:"height_q"`
}

// flexInt decodes a number that may be sent as a JSON number, a numeric
// string, or be missing entirely.
type flexInt struct {
	Value int
	Valid bool
}

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = flexInt{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*f = flexInt{}
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("flexible int %q: %w", s, err)
		}
		*f = flexInt{Value: n, Valid: true}
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	i, err := n.Int64()
	if err != nil {
		return fmt.Errorf("flexible int %s: %w", n, err)
	}
	*f = flexInt{Value: int(i), Valid: true}
	return nil
}

func (f flexInt) ptr() *int {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

// staticURL builds a photo URL from its storage coordinates, or "" if any is missing.
func staticURL(server, id, secret, suffix string) string {
	if server == "" || id == "" || secret == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s_%s_%s.jpg", staticHost, server, id, secret, suffix)
}

// toImage maps a photo, preferring URLs from extras. ok is false when no
// thumbnail can be resolved.
func (p photo) toImage() (catalog.Image, bool) {
	thumb := p.URLQ
	if thumb == "" {
		thumb = staticURL(p.Server, p.ID, p.Secret, "q")
	}
	if thumb == "" {
		return catalog.Image{}, false
	}

	original := p.URLO
	if original == "" {
		original = staticURL(p.Server, p.ID, p.Secret, "b")
	}

	return catalog.Image{
		ID:        p.ID,
		Title:     p.Title,
		Owner:     p.Owner,
		OwnerName: p.OwnerName,
		Thumbnail: thumb,
		Original:  original,
		Size:      p.size(),
		Source:    catalog.SourceFlickr,
	}, true
}

// size prefers original dimensions and falls back to thumbnail ones per axis.
func (p photo) size() *catalog.Size {
	w := p.OWidth
	if !w.Valid {
		w = p.WidthQ
	}
	h := p.OHeight
	if !h.Valid {
		h = p.HeightQ
	}
	if !w.Valid && !h.Valid {
		return nil
	}
	return &catalog.Size{Width: w.ptr(), Height: h.ptr()}
}

func (p *photos) toResponse() *catalog.Response {
	items := make([]catalog.Image, 0, len(p.Photo))
	for _, ph := range p.Photo {
		if img, ok := ph.toImage(); ok {
			items = append(items, img)
		}
	}
	return &catalog.Response{
		Items: items,
		Page: catalog.Page{
			Page:    p.Page.Value,
			PerPage: p.PerPage.Value,
			Total:   p.Total.Value,
			Pages:   p.Pages.Value,
		},
	}
}

package extract

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PageData is the Inertia payload serialized into the root element of a
// server-rendered page.
type PageData struct {
	Component string          `json:"component"`
	Version   string          `json:"version"`
	URL       string          `json:"url"`
	Props     json.RawMessage `json:"props"`
}

// ParsePageData reads the data-page attribute of the #app element.
func ParsePageData(r io.Reader) (PageData, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return PageData{}, fmt.Errorf("parsing HTML: %w", err)
	}

	raw, ok := doc.Find("#app[data-page]").First().Attr("data-page")
	if !ok || strings.TrimSpace(raw) == "" {
		return PageData{}, ErrPageDataNotFound
	}

	var data PageData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return PageData{}, fmt.Errorf("%w: decoding data-page: %v", ErrPageDataNotFound, err)
	}

	return data, nil
}

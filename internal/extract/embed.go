package extract

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// EmbedURL returns the first player URL below embedBase (e.g.
// "https://vixcloud.co") referenced by an iframe wrapper page. Entities such
// as &amp; in the attribute are decoded.
func EmbedURL(page, embedBase string) (string, error) {
	base := strings.TrimRight(embedBase, "/")
	if base == "" {
		return "", fmt.Errorf("%w: no embed host configured", ErrEmbedURLNotFound)
	}

	re, err := regexp.Compile(regexp.QuoteMeta(base) + `/embed/[^\s"'<>]+`)
	if err != nil {
		return "", fmt.Errorf("compiling embed pattern: %w", err)
	}

	match := re.FindString(page)
	if match == "" {
		return "", fmt.Errorf("%w: no %s/embed/ link in page", ErrEmbedURLNotFound, base)
	}

	return html.UnescapeString(match), nil
}

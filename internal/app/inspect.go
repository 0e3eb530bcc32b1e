package app

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const fullMarkerSelector = ".session-tag-full"

var fullTextPattern = regexp.MustCompile(`(?i)full`)

// containerIsFull reports whether a session container shows the full marker
// or mentions "full" anywhere in its text.
func containerIsFull(containerHTML string) (bool, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(containerHTML))
	if err != nil {
		return false, fmt.Errorf("failed to parse container html: %w", err)
	}
	if doc.Find(fullMarkerSelector).Length() > 0 {
		return true, nil
	}
	return fullTextPattern.MatchString(doc.Text()), nil
}

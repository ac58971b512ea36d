package naukri

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/MrJJimenez/applycli/internal/models"
	"github.com/PuerkitoBio/goquery"
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Search fetches the keyword search page for one query/location pair and
// returns the job cards as postings keyed by canonical identifier.
// TODO: follow pagination past the first results page.
func (c *Client) Search(ctx context.Context, query string, location string) ([]models.Posting, error) {
	doc, err := c.fetchDocument(ctx, searchURL(query, location))
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return parseSearchResults(doc), nil
}

// searchURL builds the slug-style listing URL, e.g.
// /java-backend-developer-jobs-in-bangalore.
func searchURL(query string, location string) string {
	path := slugify(query) + "-jobs"
	if loc := slugify(location); loc != "" {
		path += "-in-" + loc
	}
	return baseURL + "/" + path
}

func slugify(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	value = slugPattern.ReplaceAllString(value, "-")
	return strings.Trim(value, "-")
}

// parseSearchResults extracts postings from the listing markup. Both the
// current card layout and the older jobTuple layout are handled; cards
// without a link are dropped.
func parseSearchResults(doc *goquery.Document) []models.Posting {
	var postings []models.Posting

	appendCard := func(s *goquery.Selection, titleSel, companySel string) {
		link := s.Find(titleSel).First()
		href, _ := link.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		id := models.CanonicalID(absoluteURL(href))
		if id == "" {
			return
		}
		postings = append(postings, models.Posting{
			ID:      id,
			Title:   cleanText(link.Text()),
			Company: cleanText(s.Find(companySel).First().Text()),
			URL:     absoluteURL(href),
		})
	}

	doc.Find("div.srp-jobtuple-wrapper").Each(func(_ int, s *goquery.Selection) {
		appendCard(s, "a.title", "a.comp-name")
	})
	if len(postings) == 0 {
		doc.Find("article.jobTuple").Each(func(_ int, s *goquery.Selection) {
			appendCard(s, "a.title", "a.subTitle, div.subTitle")
		})
	}

	return postings
}

func absoluteURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return baseURL + "/" + strings.TrimPrefix(href, "/")
}

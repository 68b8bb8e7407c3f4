// Package extract recognises job-board pages and scrapes posting details
// from them with per-site CSS selector tables.
package extract

import (
	"fmt"
	"io"
	"net/url"

	"github.com/PuerkitoBio/goquery"
)

// JobDetails mirrors the payload the relay forwards to the backend.
type JobDetails struct {
	Title    string `json:"title,omitempty"`
	Company  string `json:"company,omitempty"`
	Location string `json:"location,omitempty"`
	Salary   string `json:"salary,omitempty"`
	URL      string `json:"url"`
	Site     Site   `json:"site,omitempty"`
}

// Extract returns nil when the page is not on a known site or has no title.
func Extract(pageURL *url.URL, doc *goquery.Document) *JobDetails {
	site, ok := DetectSite(pageURL)
	if !ok || doc == nil {
		return nil
	}
	f := extractors[site](doc)
	if f.Title == "" {
		return nil
	}
	return &JobDetails{
		Title:    f.Title,
		Company:  f.Company,
		Location: f.Location,
		Salary:   f.Salary,
		URL:      pageURL.String(),
		Site:     site,
	}
}

// ExtractHTML parses r as HTML and runs Extract on it.
func ExtractHTML(rawURL string, r io.Reader) (*JobDetails, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse page html: %w", err)
	}
	return Extract(u, doc), nil
}

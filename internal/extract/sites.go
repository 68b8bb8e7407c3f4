package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type Site string

const (
	LinkedIn   Site = "linkedin"
	Indeed     Site = "indeed"
	Glassdoor  Site = "glassdoor"
	Greenhouse Site = "greenhouse"
	Lever      Site = "lever"
)

// Fields is what a site extractor pulls out of a page.
type Fields struct {
	Title    string
	Company  string
	Location string
	Salary   string
}

// Extractor reads one site's layout. Extractors are pure and share nothing.
type Extractor func(doc *goquery.Document) Fields

// siteOrder fixes detection priority when a hostname matches more than one key.
var siteOrder = []Site{LinkedIn, Indeed, Glassdoor, Greenhouse, Lever}

var extractors = map[Site]Extractor{
	LinkedIn: func(doc *goquery.Document) Fields {
		// Single job view, collections and premium layouts differ.
		return Fields{
			Title: firstText(doc,
				".job-details-jobs-unified-top-card__job-title",
				".jobs-unified-top-card__job-title",
				"h1.t-24",
			),
			Company: firstText(doc,
				".job-details-jobs-unified-top-card__company-name",
				".jobs-unified-top-card__company-name",
				".job-details-jobs-unified-top-card__company-name a",
			),
			Location: firstText(doc,
				".job-details-jobs-unified-top-card__bullet",
				".jobs-unified-top-card__bullet",
			),
			Salary: firstText(doc, ".job-details-jobs-unified-top-card__job-insight"),
		}
	},
	Indeed: func(doc *goquery.Document) Fields {
		return Fields{
			Title:    firstText(doc, ".jobsearch-JobInfoHeader-title", `h1[data-testid="jobsearch-JobInfoHeader-title"]`),
			Company:  firstText(doc, `[data-company-name="true"]`, `[data-testid="inlineHeader-companyName"]`),
			Location: firstText(doc, `[data-testid="job-location"]`, `[data-testid="inlineHeader-companyLocation"]`),
			Salary:   firstText(doc, ".js-match-insights-provider-tvvxwd", "#salaryInfoAndJobType"),
		}
	},
	Glassdoor: func(doc *goquery.Document) Fields {
		return Fields{
			Title:    firstText(doc, `[data-test="job-title"]`),
			Company:  firstText(doc, `[data-test="employer-name"]`),
			Location: firstText(doc, `[data-test="location"]`),
			Salary:   firstText(doc, `[data-test="detailSalary"]`),
		}
	},
	Greenhouse: func(doc *goquery.Document) Fields {
		return Fields{
			Title:    firstText(doc, ".app-title", "h1.section-header"),
			Company:  firstText(doc, ".company-name"),
			Location: firstText(doc, ".location", ".job__location"),
		}
	},
	Lever: func(doc *goquery.Document) Fields {
		return Fields{
			Title:    firstText(doc, ".posting-headline h2"),
			Company:  firstText(doc, ".main-header-text-logo", ".main-header-logo img[alt]"),
			Location: firstText(doc, ".posting-categories .location"),
		}
	},
}

var jobPaths = map[Site]*regexp.Regexp{
	LinkedIn:   regexp.MustCompile(`^/jobs(/|$)`),
	Indeed:     regexp.MustCompile(`^/(viewjob|jobs|cmp/[^/]+/jobs)`),
	Glassdoor:  regexp.MustCompile(`^/(job-listing|Job)/`),
	Greenhouse: regexp.MustCompile(`/jobs/\d+`),
	Lever:      regexp.MustCompile(`^/[^/]+/[0-9a-fA-F-]{8,}`),
}

// DetectSite maps a page hostname to a known job board.
func DetectSite(u *url.URL) (Site, bool) {
	if u == nil {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	for _, site := range siteOrder {
		if strings.Contains(host, string(site)) {
			return site, true
		}
	}
	return "", false
}

// IsJobPage requires both a known hostname and that site's posting path shape.
func IsJobPage(u *url.URL) bool {
	site, ok := DetectSite(u)
	if !ok {
		return false
	}
	return jobPaths[site].MatchString(u.EscapedPath())
}

func firstText(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		s := doc.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		text := strings.TrimSpace(s.Text())
		if text == "" {
			// logo images carry the company name in alt text
			if alt, ok := s.Attr("alt"); ok {
				text = strings.TrimSpace(alt)
			}
		}
		if text != "" {
			return collapseSpace(text)
		}
	}
	return ""
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

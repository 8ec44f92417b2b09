package sec

import (
	"bytes"
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/xmlquery"
	"github.com/mmcdole/gofeed"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/seenimoa/earningsinsights/internal/infra"
	"github.com/seenimoa/earningsinsights/pkg/models"
	"github.com/seenimoa/earningsinsights/pkg/utils"
)

// browseCount is how many filings the browse endpoint is asked for.
const browseCount = 5

var (
	// datedDocPattern matches a trailing "/<word>-<yyyymmdd>.htm" document name.
	datedDocPattern = regexp.MustCompile(`/\w+-\d{8}\.htm$`)

	// periodPattern extracts the reporting period from document names such
	// as "aapl-20230930.htm", "abc_20231231.htm" or "msft-10k_20230630.htm".
	periodPattern = regexp.MustCompile(`([a-z]+)(?:-\w+)?[_-](\d{4})(\d{2})(\d{2})\.htm`)
)

// maxFilings returns how many resolved filings are kept per form.
func maxFilings(form models.FormType) int {
	if form == models.Form10K {
		return 4
	}
	return 3
}

// ListFilings returns the most recent filings of the given form for a CIK,
// each resolved to its FilingSummary.xml URL and reporting period.
// Filings whose document link or period cannot be resolved are dropped.
func (p *Provider) ListFilings(ctx context.Context, cik string, form models.FormType) ([]models.Filing, error) {
	var (
		candidates []filingCandidate
		err        error
	)
	switch p.listFormat {
	case ListFormatAtom:
		candidates, err = p.listFilingsAtom(ctx, cik, form)
	default:
		candidates, err = p.listFilingsXML(ctx, cik, form)
	}
	if err != nil {
		return nil, err
	}

	results, errs := infra.Map(ctx, p.concurrency, candidates, func(ctx context.Context, c filingCandidate) (models.Filing, error) {
		return p.resolveFiling(ctx, c, form)
	})

	filings := make([]models.Filing, 0, len(results))
	for i, f := range results {
		if errs[i] != nil {
			p.logger.Warn("dropping filing",
				zap.String("cik", cik),
				zap.String("index_url", candidates[i].IndexURL),
				zap.Error(errs[i]))
			continue
		}
		filings = append(filings, f)
	}

	if n := maxFilings(form); len(filings) > n {
		filings = filings[:n]
	}
	return filings, nil
}

func (p *Provider) browseURL(cik string, form models.FormType, output string) string {
	q := url.Values{}
	q.Set("action", "getcompany")
	q.Set("CIK", cik)
	q.Set("type", string(form))
	q.Set("count", strconv.Itoa(browseCount))
	q.Set("output", output)
	return p.wwwURL + "/cgi-bin/browse-edgar?" + q.Encode()
}

// listFilingsXML reads the browse-edgar XML listing
// (companyFilings/results/filing) and keeps exact form matches.
func (p *Provider) listFilingsXML(ctx context.Context, cik string, form models.FormType) ([]filingCandidate, error) {
	data, err := p.fetchSECRaw(ctx, p.browseURL(cik, form, "xml"))
	if err != nil {
		return nil, eris.Wrapf(err, "fetch %s filing list for CIK %s", form, cik)
	}

	doc, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, eris.Wrapf(err, "parse %s filing list for CIK %s", form, cik)
	}

	var out []filingCandidate
	for _, n := range xmlquery.Find(doc, "//companyFilings/results/filing") {
		typ := childText(n, "type")
		if typ != string(form) {
			continue
		}
		href := childText(n, "filingHREF")
		if href == "" {
			continue
		}
		out = append(out, filingCandidate{
			IndexURL:  p.absoluteURL(href),
			DateFiled: parseSECDate(childText(n, "dateFiled")),
			FormType:  typ,
		})
	}
	return out, nil
}

// listFilingsAtom reads the browse-edgar Atom feed: the entry link is the
// index page, the category term the form type.
func (p *Provider) listFilingsAtom(ctx context.Context, cik string, form models.FormType) ([]filingCandidate, error) {
	data, err := p.fetchSECRaw(ctx, p.browseURL(cik, form, "atom"))
	if err != nil {
		return nil, eris.Wrapf(err, "fetch %s filing feed for CIK %s", form, cik)
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, eris.Wrapf(err, "parse %s filing feed for CIK %s", form, cik)
	}

	var out []filingCandidate
	for _, item := range feed.Items {
		if len(item.Categories) == 0 || item.Categories[0] != string(form) {
			continue
		}
		if item.Link == "" {
			continue
		}
		c := filingCandidate{
			IndexURL: p.absoluteURL(item.Link),
			FormType: item.Categories[0],
		}
		c.DateFiled = filingDateFromContent(item.Content)
		if c.DateFiled.IsZero() && item.UpdatedParsed != nil {
			u := *item.UpdatedParsed
			c.DateFiled = time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
		}
		out = append(out, c)
	}
	return out, nil
}

// filingDateFromContent reads <filing-date> from an Atom entry's XML content.
func filingDateFromContent(content string) time.Time {
	if !strings.Contains(content, "filing-date") {
		return time.Time{}
	}
	doc, err := xmlquery.Parse(strings.NewReader("<content>" + content + "</content>"))
	if err != nil {
		return time.Time{}
	}
	n := xmlquery.FindOne(doc, "//filing-date")
	if n == nil {
		return time.Time{}
	}
	return parseSECDate(n.InnerText())
}

// resolveFiling fetches a filing index page and locates its primary document.
func (p *Provider) resolveFiling(ctx context.Context, c filingCandidate, form models.FormType) (models.Filing, error) {
	data, err := p.fetchSECRaw(ctx, c.IndexURL)
	if err != nil {
		return models.Filing{}, eris.Wrap(err, "fetch index page")
	}

	href, err := documentLink(data, string(form))
	if err != nil {
		return models.Filing{}, err
	}

	period, err := PeriodFromFilename(href)
	if err != nil {
		return models.Filing{}, err
	}

	return models.Filing{
		DateFiled:      models.Date{Time: c.DateFiled},
		FormType:       models.FormType(c.FormType),
		URL:            FilingSummaryURL(p.absoluteURL(href)),
		PeriodOfReport: period,
	}, nil
}

// documentLink returns the first link of the first table row whose text
// names the form and is not the index row itself.
func documentLink(page []byte, form string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", eris.Wrap(err, "parse index page")
	}

	href, ok := doc.Find("tr").FilterFunction(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		return strings.Contains(text, form) && !strings.Contains(text, "index")
	}).Find("a").First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return "", eris.Errorf("no %s document found on index page", form)
	}
	return strings.TrimSpace(href), nil
}

// FilingSummaryURL turns a primary document URL (plain or inline XBRL
// viewer) into the URL of the filing's FilingSummary.xml.
func FilingSummaryURL(docURL string) string {
	u := strings.Replace(docURL, "/ix?doc=/", "/", 1)
	u = strings.Replace(u, "ix?doc=", "", 1)
	u = datedDocPattern.ReplaceAllString(u, "/FilingSummary.xml")
	if strings.Contains(u, ".htm") {
		if i := strings.LastIndex(u, "/"); i >= 0 {
			u = u[:i]
		}
		u += "/FilingSummary.xml"
	}
	return u
}

// PeriodFromFilename extracts the reporting period from a document name
// such as "abc-20231231.htm". The date must exist on the calendar.
func PeriodFromFilename(name string) (models.Date, error) {
	m := periodPattern.FindStringSubmatch(name)
	if m == nil {
		return models.Date{}, eris.Errorf("invalid filename format: %s", name)
	}
	year, _ := strconv.Atoi(m[2])
	month, _ := strconv.Atoi(m[3])
	day, _ := strconv.Atoi(m[4])
	if !utils.ValidCalendarDate(year, month, day) {
		return models.Date{}, eris.Errorf("invalid period date %s-%s-%s in %s", m[2], m[3], m[4], name)
	}
	return models.NewDate(year, time.Month(month), day), nil
}

func (p *Provider) absoluteURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return p.wwwURL + href
}

func childText(n *xmlquery.Node, name string) string {
	c := n.SelectElement(name)
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c.InnerText())
}

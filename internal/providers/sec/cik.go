package sec

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/seenimoa/earningsinsights/pkg/models"
)

// ErrTickerNotFound is returned when the ticker is absent from the EDGAR
// ticker directory.
var ErrTickerNotFound = eris.New("ticker not found in SEC company directory")

// ResolveCIK maps a ticker to its 10-digit zero-padded CIK. The ticker
// directory is fetched on every call.
func (p *Provider) ResolveCIK(ctx context.Context, ticker string) (string, error) {
	m, err := p.LookupCompany(ctx, ticker)
	if err != nil {
		return "", err
	}
	return m.CIK, nil
}

// LookupCompany returns the CIK mapping for a ticker, matched case-insensitively.
func (p *Provider) LookupCompany(ctx context.Context, ticker string) (*models.CIKMapping, error) {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return nil, eris.Wrap(ErrTickerNotFound, "empty ticker")
	}

	var tickers map[string]edgarTickerEntry
	if err := p.fetchSECJSON(ctx, p.wwwURL+"/files/company_tickers.json", &tickers); err != nil {
		return nil, eris.Wrap(err, "fetch company tickers")
	}

	// Scan in directory order so a ticker listed twice always resolves
	// to its first entry.
	keys := make([]string, 0, len(tickers))
	for k := range tickers {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return directoryIndex(keys[i]) < directoryIndex(keys[j]) })

	for _, k := range keys {
		entry := tickers[k]
		if strings.EqualFold(entry.Ticker, ticker) && entry.CIKStr != "" {
			return &models.CIKMapping{
				CIK:    padCIK(string(entry.CIKStr)),
				Symbol: strings.ToUpper(entry.Ticker),
				Name:   entry.Title,
			}, nil
		}
	}

	return nil, eris.Wrapf(ErrTickerNotFound, "symbol %s", ticker)
}

func directoryIndex(key string) int {
	n, err := strconv.Atoi(key)
	if err != nil {
		return int(^uint(0) >> 1)
	}
	return n
}

package sec

import (
	"context"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ParentCIK looks for a parent registrant of cik. The submissions document
// qualifies when its recent filings include an 8-K and its own CIK differs
// from the queried one. Returns "" when there is no parent.
//
// EDGAR submissions documents describe the registrant they are fetched for,
// so against live EDGAR this returns "" in practice.
func (p *Provider) ParentCIK(ctx context.Context, cik string) (string, error) {
	cik = padCIK(cik)
	u := p.dataURL + "/submissions/CIK" + cik + ".json"

	var sub edgarSubmissionsResponse
	if err := p.fetchSECJSON(ctx, u, &sub); err != nil {
		return "", eris.Wrapf(err, "fetch submissions for CIK %s", cik)
	}

	if !slices.Contains(sub.Filings.Recent.Form, "8-K") {
		return "", nil
	}
	other := strings.TrimSpace(string(sub.CIK))
	if other == "" {
		return "", nil
	}
	other = padCIK(other)
	if other == cik {
		return "", nil
	}

	p.logger.Info("parent company CIK found", zap.String("cik", cik), zap.String("parent_cik", other))
	return other, nil
}

package opportunities

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/publicsuffix"
	"mvdan.cc/xurls/v2"

	"github.com/azure/brand-visibility-engine/internal/brands"
	"github.com/azure/brand-visibility-engine/internal/models"
)

var strictURLs = xurls.Strict()

// SourceGaps flags citation domains that repeatedly back competitors and never the brand
func (d *Detector) SourceGaps(results []models.Result) []models.QuickWin {
	brand := d.resolver.Options().SearchedBrand

	type domainStats struct {
		responses      int
		withCompetitor int
		brandCited     bool
		competitors    *counter
	}
	stats := make(map[string]*domainStats)
	var order []string

	for _, res := range results {
		if res.Failed() {
			continue
		}
		domains := CitedDomains(res)
		if len(domains) == 0 {
			continue
		}

		mentionsBrand := false
		var competitors []string
		for _, b := range d.resolver.ResultBrands(res) {
			if d.resolver.IsSearchedBrand(b) {
				mentionsBrand = true
				continue
			}
			competitors = append(competitors, b)
		}

		for _, domain := range domains {
			st, ok := stats[domain]
			if !ok {
				st = &domainStats{competitors: newCounter()}
				stats[domain] = st
				order = append(order, domain)
			}
			st.responses++
			if mentionsBrand {
				st.brandCited = true
			}
			if len(competitors) > 0 {
				st.withCompetitor++
			}
			for _, c := range competitors {
				st.competitors.add(c)
			}
		}
	}

	var wins []models.QuickWin
	for _, domain := range order {
		st := stats[domain]
		competitors := st.competitors.ranked()
		if st.brandCited || st.responses < d.limits.SourceMinResponses || len(competitors) < d.limits.SourceMinCompetitors {
			continue
		}

		severity := models.SeverityMedium
		if len(competitors) >= d.limits.SourceHighCompetitors {
			severity = models.SeverityHigh
		}

		wins = append(wins, models.QuickWin{
			Type:     models.QuickWinSourceGap,
			Severity: severity,
			Title:    fmt.Sprintf("Get cited by %s", domain),
			Description: fmt.Sprintf("%s backs %d responses naming %s but never cites %s.",
				domain, st.responses, joinTop(competitors, 3), brand),
			Action:               fmt.Sprintf("Pitch %s for coverage, reviews or listings that include %s.", domain, brand),
			Target:               domain,
			CompetitorVisibility: brands.Percentage(st.withCompetitor, st.responses),
			Responses:            st.responses,
			Competitors:          competitors,
			Score: d.limits.SourceVisibilityGapFix +
				logTerm(st.responses, d.limits.SourceAuthoritySat) +
				clamp01(float64(len(competitors))/d.limits.SourceBreadthAt) +
				clamp01(float64(st.responses)/d.limits.SourceConfidenceAt),
		})
	}
	return wins
}

// CitedDomains returns the distinct registrable domains a result cites. URLs come
// from the sources list, or from the response text when no sources are attached.
// Unparseable URLs are skipped.
func CitedDomains(res models.Result) []string {
	var raw []string
	for _, s := range res.Sources {
		if strings.TrimSpace(s.URL) != "" {
			raw = append(raw, s.URL)
		}
	}
	if len(raw) == 0 {
		raw = strictURLs.FindAllString(res.Text(), -1)
	}

	var out []string
	seen := make(map[string]bool)
	for _, u := range raw {
		domain, err := Domain(u)
		if err != nil {
			logrus.Debugf("Skipping citation %q on result %s: %v", u, res.ID, err)
			continue
		}
		if !seen[domain] {
			seen[domain] = true
			out = append(out, domain)
		}
	}
	return out
}

// Domain reduces a URL to its eTLD+1, e.g. "https://blog.example.co.uk/x" to "example.co.uk"
func Domain(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("failed to parse url: %w", err)
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return "", fmt.Errorf("url has no host")
	}
	if net.ParseIP(host) != nil {
		return host, nil
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return "", fmt.Errorf("failed to derive domain for %s: %w", host, err)
	}
	return domain, nil
}

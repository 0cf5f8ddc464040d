// Package classifier scores page signals against weighted vocabularies to
// decide what kind of business runs a site and how big it is.
package classifier

import (
	"regexp"
	"sort"
	"strings"

	"github.com/seo-optimizer/traffic-engine/domains"
	"github.com/seo-optimizer/traffic-engine/signals"
)

var (
	typeVocabulary = NewVocabulary(TypeIndicators)
	sizeVocabulary = NewVocabulary(SizeIndicators)
	socialMatchers = hostMatchers(socialPlatforms)
)

// Classification is the business type and size inferred for one site.
type Classification struct {
	Type      Category         `json:"type"`
	Size      Category         `json:"size"`
	Scores    map[Category]int `json:"scores"`
	SizeScore int              `json:"sizeScore"`
}

// Classify runs the type and size passes over the same signal set. The passes
// are independent: type never feeds size and vice versa.
func Classify(sig signals.SiteSignals, html, domain string) Classification {
	text := sig.Text
	if text == "" {
		text = strings.ToLower(html)
	}

	scores := TypeScores(sig, text)
	sizeScore := SizeScore(sig, html, text, domain)

	return Classification{
		Type:      SelectType(scores),
		Size:      SizeBucket(sizeScore),
		Scores:    scores,
		SizeScore: sizeScore,
	}
}

// TypeScores runs the type vocabulary and the content-volume modifiers.
func TypeScores(sig signals.SiteSignals, text string) map[Category]int {
	scores := typeVocabulary.Score(text)
	for _, c := range typePriority {
		if _, ok := scores[c]; !ok {
			scores[c] = 0
		}
	}

	if sig.ParagraphCount > 30 {
		scores[TypeBlog]++
	}
	if sig.ArticleCount >= 3 {
		scores[TypeBlog] += 2
	}
	return scores
}

// SelectType picks the highest scoring type that clears its floor. Ties go to
// the higher priority type; when nothing qualifies the site is personal.
func SelectType(scores map[Category]int) Category {
	ranked := make([]Category, len(typePriority))
	copy(ranked, typePriority)
	sort.SliceStable(ranked, func(i, j int) bool {
		return scores[ranked[i]] > scores[ranked[j]]
	})

	for _, c := range ranked {
		score := scores[c]
		if score <= 0 {
			break
		}
		if score >= typeFloors[c] {
			return c
		}
	}
	return TypePersonal
}

// SizeScore is monotone non-decreasing in HTML length, internal link count and
// enterprise vocabulary hits.
func SizeScore(sig signals.SiteSignals, html, text, domain string) int {
	score := 0
	for _, points := range sizeVocabulary.Score(text) {
		score += points
	}
	score += enterpriseSizeWeight * typeVocabulary.CountHits(text, TypeEnterprise)

	brand := domains.Brand(domain)
	switch n := len(brand); {
	case n > 0 && n <= 4:
		score += 5
	case n > 0 && n <= 6:
		score += 2
	}

	score += tierPoints(sig.HTMLLength, htmlLengthTiers)
	score += tierPoints(sig.InternalLinkCount, internalLinkTiers)

	switch mentions := socialMentions(strings.ToLower(html)); {
	case mentions >= 5:
		score += 5
	case mentions >= 3:
		score += 2
	}

	if score < 0 {
		return 0
	}
	return score
}

// SizeBucket maps a size score onto the size categories.
func SizeBucket(score int) Category {
	switch {
	case score >= MassiveThreshold:
		return SizeMassive
	case score >= LargeThreshold:
		return SizeLarge
	case score >= MediumThreshold:
		return SizeMedium
	default:
		return SizeSmall
	}
}

func socialMentions(lowerHTML string) int {
	n := 0
	for _, m := range socialMatchers {
		if m.MatchString(lowerHTML) {
			n++
		}
	}
	return n
}

// hostMatchers matches each host only as a whole host name, so x.com does not
// fire inside netflix.com.
func hostMatchers(hosts []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(hosts))
	for i, h := range hosts {
		out[i] = regexp.MustCompile(`(?:^|[^a-z0-9-])` + regexp.QuoteMeta(h) + `(?:[^a-z0-9.-]|$)`)
	}
	return out
}

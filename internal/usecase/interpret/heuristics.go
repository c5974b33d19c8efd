package interpret

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/huythanhnguyen/ddv/internal/domain/intent"
)

// brandAlias maps lexical cues to a canonical brand. Order matters: the
// first alias that matches a query token wins, and at most one brand is
// detected per query.
type brandAlias struct {
	brand   string
	aliases []string
}

var brandAliases = []brandAlias{
	{"apple", []string{"apple", "iphone", "ip", "ios", "ipad", "mac"}},
	{"samsung", []string{"samsung", "galaxy", "ss"}},
	{"xiaomi", []string{"xiaomi", "mi", "redmi", "poco"}},
	{"oppo", []string{"oppo", "oneplus", "realme"}},
	{"vivo", []string{"vivo", "iqoo"}},
	{"nokia", []string{"nokia"}},
	{"asus", []string{"asus", "rog"}},
	{"lenovo", []string{"lenovo", "motorola"}},
}

// featureCategories maps a feature tag to the keywords that trigger it.
// Multi-word keywords are matched as substrings of the lowercased query.
var featureCategories = map[string][]string{
	"camera":     {"camera", "chụp ảnh", "quay video", "zoom", "night mode", "portrait"},
	"gaming":     {"gaming", "chơi game", "hiệu năng", "fps", "graphics"},
	"livestream": {"livestream", "stream", "tiktok", "youtube", "facebook"},
	"battery":    {"pin", "battery", "sạc", "thời lượng", "fast charging"},
	"design":     {"thiết kế", "design", "màu sắc", "kích thước", "trọng lượng"},
	"security":   {"bảo mật", "security", "fingerprint", "face id", "mật khẩu"},
}

var promotionKeywords = []string{
	"khuyến mãi", "khuyen mai", "giảm giá", "giam gia", "ưu đãi", "uu dai",
	"sale", "deal", "discount", "quà tặng", "qua tang", "trả góp 0%",
}

// Budget amounts are written in "triệu" (millions of VND); "tr" and "m"
// are common shorthands.
const budgetUnit = 1_000_000

var (
	numPat = `(\d+(?:[.,]\d+)?)`
	unit   = `(?:triệu|trieu|tr|m)\b`

	underBudgetRe = regexp.MustCompile(`(?:dưới|duoi|under|below)\s*` + numPat + `\s*` + unit)
	maxBudgetRe   = regexp.MustCompile(numPat + `\s*` + unit + `\s*trở\s*xuống`)
	overBudgetRe  = regexp.MustCompile(`(?:trên|tren|over|above)\s*` + numPat + `\s*` + unit)
	rangeBudgetRe = regexp.MustCompile(`(?:từ|tu)?\s*` + numPat + `\s*(?:đến|den|-|tới|toi)\s*` + numPat + `\s*` + unit)
)

// modelSuffixes are tokens that extend a model phrase past its version
// number ("iphone 16 pro max").
var modelSuffixes = map[string]bool{
	"pro": true, "max": true, "plus": true, "ultra": true, "mini": true,
}

var tokenSplitRe = regexp.MustCompile(`[^\p{L}\p{N}%]+`)

func tokenize(text string) []string {
	return tokenSplitRe.Split(strings.ToLower(text), -1)
}

// detectBrand returns the canonical brand for the first alias appearing as
// a whole token in text, or "" when no brand cue is present.
func detectBrand(tokens []string) string {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	for _, ba := range brandAliases {
		for _, alias := range ba.aliases {
			if set[alias] {
				return ba.brand
			}
		}
	}
	return ""
}

// extractBudget recognizes "dưới N triệu", "từ X đến Y triệu" and
// "X-Y triệu" style phrases and converts them to minor currency units.
func extractBudget(lower string) (min, max *int64) {
	if m := rangeBudgetRe.FindStringSubmatch(lower); m != nil {
		lo, hi := parseAmount(m[1]), parseAmount(m[2])
		if lo > hi {
			lo, hi = hi, lo
		}
		return &lo, &hi
	}
	if m := underBudgetRe.FindStringSubmatch(lower); m != nil {
		hi := parseAmount(m[1])
		return nil, &hi
	}
	if m := maxBudgetRe.FindStringSubmatch(lower); m != nil {
		hi := parseAmount(m[1])
		return nil, &hi
	}
	if m := overBudgetRe.FindStringSubmatch(lower); m != nil {
		lo := parseAmount(m[1])
		return &lo, nil
	}
	return nil, nil
}

func parseAmount(s string) int64 {
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0
	}
	return int64(f * budgetUnit)
}

// extractFeatures returns the feature tags whose keywords appear in the
// lowercased query, in stable (sorted) order.
func extractFeatures(lower string) []string {
	var found []string
	for _, tag := range []string{"battery", "camera", "design", "gaming", "livestream", "security"} {
		for _, kw := range featureCategories[tag] {
			if strings.Contains(lower, kw) {
				found = append(found, tag)
				break
			}
		}
	}
	return found
}

func detectPromotionIntent(lower string) bool {
	for _, kw := range promotionKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// extractModelPhrase looks for "<brand-alias> <number> [pro|max|plus|...]"
// in the token stream and returns the canonical lowercase phrase, e.g.
// "iphone 16 pro max". Only the first occurrence is considered.
func extractModelPhrase(tokens []string) string {
	aliasSet := make(map[string]bool)
	for _, ba := range brandAliases {
		for _, alias := range ba.aliases {
			aliasSet[alias] = true
		}
	}

	for i := 0; i+1 < len(tokens); i++ {
		if !aliasSet[tokens[i]] || !isVersionNumber(tokens[i+1]) {
			continue
		}
		phrase := []string{tokens[i], tokens[i+1]}
		for j := i + 2; j < len(tokens) && modelSuffixes[tokens[j]]; j++ {
			phrase = append(phrase, tokens[j])
		}
		return strings.Join(phrase, " ")
	}
	return ""
}

func isVersionNumber(token string) bool {
	if token == "" || len(token) > 3 {
		return false
	}
	for _, r := range token {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// applyHeuristics runs every deterministic extraction over the raw text.
func applyHeuristics(text string) intent.Intent {
	it := intent.Empty(text)
	lower := strings.ToLower(text)
	tokens := tokenize(text)

	if brand := detectBrand(tokens); brand != "" {
		it.Brand = &brand
	}
	it.BudgetMin, it.BudgetMax = extractBudget(lower)
	it.Features = extractFeatures(lower)
	it.PromotionIntent = detectPromotionIntent(lower)
	if phrase := extractModelPhrase(tokens); phrase != "" {
		it.ModelPhrase = &phrase
	}
	return it
}

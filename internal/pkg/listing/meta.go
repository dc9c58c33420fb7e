package listing

import (
	"regexp"
	"strconv"
	"strings"
)

// Meta is the structured metadata parsed out of a listing body. Sellers
// describe their snippet in a semi-structured header block, e.g.:
//
//	price: R$ 12,50
//	license: MIT
//	tags: go, fiber, sql
//
// ParseMeta is the single authoritative parser for that block; the cart
// service and the display layers must both go through it so price snapshots
// and rendered listings never disagree about parsing rules.
type Meta struct {
	PriceCents int64    `json:"price_cents"`
	PriceLabel string   `json:"price_label"`
	License    string   `json:"license"`
	Tags       []string `json:"tags"`
}

var (
	priceLineRe   = regexp.MustCompile(`(?im)^\s*(?:price|preco|preço)\s*:\s*(.+?)\s*$`)
	licenseLineRe = regexp.MustCompile(`(?im)^\s*(?:license|licenca|licença)\s*:\s*(.+?)\s*$`)
	tagsLineRe    = regexp.MustCompile(`(?im)^\s*tags?\s*:\s*(.+?)\s*$`)
	amountRe      = regexp.MustCompile(`(\d+(?:[.,]\d+)*)`)
)

// Free labels accepted in the price line (case-insensitive).
var freeLabels = map[string]bool{
	"free":   true,
	"gratis": true,
	"0":      true,
	"-":      true,
}

// ParseMeta extracts price, license and tags from a raw listing body.
// A listing without a price line (or with a free label) is a free snippet.
func ParseMeta(rawText string) Meta {
	meta := Meta{PriceLabel: "free"}

	if m := licenseLineRe.FindStringSubmatch(rawText); m != nil {
		meta.License = strings.TrimSpace(m[1])
	}
	if m := tagsLineRe.FindStringSubmatch(rawText); m != nil {
		for _, tag := range strings.Split(m[1], ",") {
			tag = strings.TrimSpace(tag)
			if tag != "" {
				meta.Tags = append(meta.Tags, tag)
			}
		}
	}

	m := priceLineRe.FindStringSubmatch(rawText)
	if m == nil {
		return meta
	}
	raw := strings.TrimSpace(m[1])
	if freeLabels[strings.ToLower(raw)] {
		return meta
	}

	cents := parseAmountCents(raw)
	if cents <= 0 {
		return meta
	}
	meta.PriceCents = cents
	meta.PriceLabel = raw
	return meta
}

// parseAmountCents turns a human price string ("R$ 12,50", "12.50",
// "1.234,56", "12") into integer cents. The last separator is the decimal
// point when it carries one or two digits; separators before it, or a lone
// separator with three digits after it, are thousands grouping. A bare
// integer means whole currency units.
func parseAmountCents(raw string) int64 {
	m := amountRe.FindStringSubmatch(raw)
	if m == nil {
		return 0
	}
	number := m[1]

	sep := -1
	for i, r := range number {
		if r == ',' || r == '.' {
			sep = i
		}
	}
	if sep < 0 {
		units, err := strconv.ParseInt(number, 10, 64)
		if err != nil {
			return 0
		}
		return units * 100
	}

	stripSeps := func(s string) string {
		s = strings.ReplaceAll(s, ".", "")
		return strings.ReplaceAll(s, ",", "")
	}

	fraction := number[sep+1:]
	if len(fraction) == 3 {
		units, err := strconv.ParseInt(stripSeps(number), 10, 64)
		if err != nil {
			return 0
		}
		return units * 100
	}
	if len(fraction) > 2 {
		return 0
	}

	units, err := strconv.ParseInt(stripSeps(number[:sep]), 10, 64)
	if err != nil {
		return 0
	}
	if len(fraction) == 1 {
		fraction += "0"
	}
	centsPart, err := strconv.ParseInt(fraction, 10, 64)
	if err != nil {
		return 0
	}
	return units*100 + centsPart
}

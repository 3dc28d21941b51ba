/**
 * @description
 * This package implements the canonical plan key encoder: the deterministic
 * mapping from a vendor plan descriptor to the single string key that joins
 * vendor catalog entries to admin-controlled pricing rules. Every component
 * that prices or sells a plan goes through this encoding; two call sites that
 * disagree on a key would silently unprice a plan, so all key construction
 * lives here.
 *
 * Two shapes are encoded:
 *   - structured descriptors (data plans): provider:network:category:size:validity
 *   - named descriptors (cable packages): provider:network:<name transformed>
 *     where a trailing "[CATEGORY]" in the vendor name is extracted, the rest
 *     of the name is colon-joined on whitespace, and the category is appended
 *     as a final segment.
 */

package plankey

import (
	"regexp"
	"strconv"
	"strings"
)

// Descriptor is the structured input shape for data-plan keys. Empty fields
// serialize as empty segments between colons; this is intentional so that
// differently-shaped vendor records collapse predictably.
type Descriptor struct {
	Provider string
	Network  string
	Category string
	Size     string
	Validity string
}

// Encode returns the canonical key for a structured descriptor.
// Encoding is pure: the same descriptor always yields the same string.
func Encode(d Descriptor) string {
	return d.Provider + ":" + d.Network + ":" + d.Category + ":" + d.Size + ":" + d.Validity
}

var bracketCategory = regexp.MustCompile(`\[(.*?)\]`)
var leadingSpaceBracket = regexp.MustCompile(`\s*\[.*?\]`)

// EncodeNamed returns the canonical key for a free-text vendor plan name,
// optionally carrying a bracketed category suffix. A name with no bracketed
// category produces a key with no trailing category segment; that is the
// expected shape, not an error.
func EncodeNamed(provider, network, name string) string {
	return provider + ":" + network + ":" + transformName(name)
}

func transformName(name string) string {
	var category string
	if m := bracketCategory.FindStringSubmatch(name); m != nil {
		category = m[1]
		name = leadingSpaceBracket.ReplaceAllString(name, "")
	}

	parts := strings.Fields(strings.TrimSpace(name))
	joined := strings.Join(parts, ":")
	if category != "" {
		joined += ":" + category
	}
	return joined
}

var networkNames = map[int]string{
	1: "MTN",
	2: "Airtel",
	3: "Glo",
	4: "9Mobile",
}

// NetworkName resolves a vendor numeric network id to its display name.
func NetworkName(id int) string {
	if name, ok := networkNames[id]; ok {
		return name
	}
	return "Unknown"
}

// ParseNetwork resolves a network id given as a string, tolerating the mixed
// string/number encodings the vendor catalogs use.
func ParseNetwork(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}

var cableNames = map[int]string{
	1: "GOTV",
	2: "DSTV",
	3: "STARTIMES",
}

// CableName resolves a vendor numeric cable id to its display name.
func CableName(id int) string {
	if name, ok := cableNames[id]; ok {
		return name
	}
	return "Unknown"
}

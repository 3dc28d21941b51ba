/**
 * @description
 * This package normalizes raw vendor plan catalogs. Vendor APIs return plans
 * as arbitrarily nested trees (grouped by network name, then plan type, with
 * arrays and keyed groups mixed at any depth). The normalizer flattens a tree
 * into a single list of plan records, deduplicates them, computes each
 * record's canonical key, and joins against the stored pricing rules so that
 * the price shown (and charged) is always the admin-configured selling price,
 * never the vendor-reported one.
 *
 * @dependencies
 * - internal/domain: PricingRule model.
 * - internal/plankey: canonical key derivation.
 */

package catalog

import (
	"strconv"

	"github.com/kobocharge/vtu-backend/internal/domain"
	"github.com/kobocharge/vtu-backend/internal/plankey"
)

// Record is one flattened vendor plan entry. Vendor field names are preserved
// as-is; the normalizer only reads the handful it needs for identity and key
// derivation.
type Record map[string]interface{}

// Flatten walks an arbitrarily nested vendor tree depth-first and returns the
// leaf plan records in encounter order. Arrays contribute their elements;
// keyed groups contribute the flattening of each value. Scalars at non-leaf
// positions (group labels such as "cablename") are discarded.
func Flatten(tree interface{}) []Record {
	switch v := tree.(type) {
	case []interface{}:
		var out []Record
		for _, item := range v {
			out = append(out, Flatten(item)...)
		}
		return out
	case map[string]interface{}:
		if isLeaf(v) {
			return []Record{Record(v)}
		}
		var out []Record
		for _, item := range v {
			out = append(out, Flatten(item)...)
		}
		return out
	default:
		return nil
	}
}

// isLeaf reports whether a map is a plan record rather than a grouping node.
// Plan records carry at least one identity field; grouping nodes only carry
// further containers.
func isLeaf(m map[string]interface{}) bool {
	for _, key := range []string{"dataplan_id", "cableplan_id", "id"} {
		if _, ok := m[key]; ok {
			return true
		}
	}
	return false
}

// identity returns the dedup key for a record: the first present field among
// the vendor plan id, the cable plan id, and the generic id.
func identity(r Record) string {
	for _, key := range []string{"dataplan_id", "cableplan_id", "id"} {
		if v, ok := r[key]; ok {
			if s := stringOf(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// Key derives the canonical plan key for a record. Cable records (marked by
// the vendor's "cable" field) use the named encoding over the package name;
// everything else uses the structured encoding.
func Key(provider string, r Record) string {
	if cable := stringOf(r["cable"]); cable != "" {
		return plankey.EncodeNamed(provider, cable, stringOf(r["package"]))
	}
	size := stringOf(r["plan"])
	if size == "" {
		size = stringOf(r["name"])
	}
	return plankey.Encode(plankey.Descriptor{
		Provider: provider,
		Network:  stringOf(r["plan_network"]),
		Category: stringOf(r["plan_type"]),
		Size:     size,
		Validity: stringOf(r["month_validate"]),
	})
}

// Normalize flattens a vendor tree, deduplicates it, and joins each surviving
// record against the given pricing rules.
//
// Non-admin callers only receive records with a matching rule, annotated with
// the rule's selling price and stripped of internal fields (canonical key,
// active flag, raw vendor price). Admin callers receive every record, with
// unpriced ones carrying a nil selling price and is_active=false so they can
// be priced.
func Normalize(provider string, tree interface{}, rules map[string]*domain.PricingRule, isAdmin bool) []Record {
	flat := Flatten(tree)

	// First occurrence wins; later duplicates under differently-named groups
	// are dropped so the same plan is never shown or billed twice.
	seen := make(map[string]bool, len(flat))
	out := make([]Record, 0, len(flat))
	for _, rec := range flat {
		id := identity(rec)
		if id != "" {
			if seen[id] {
				continue
			}
			seen[id] = true
		}

		key := Key(provider, rec)
		rule := rules[key]
		if rule == nil && !isAdmin {
			continue
		}

		view := make(Record, len(rec)+3)
		for k, v := range rec {
			view[k] = v
		}
		if rule != nil {
			view["selling_price"] = rule.SellingPrice
			view["is_active"] = rule.IsActive
		} else {
			view["selling_price"] = nil
			view["is_active"] = false
		}
		view["plan_key"] = key

		if !isAdmin {
			delete(view, "plan_amount")
			delete(view, "is_active")
			delete(view, "plan_key")
		}
		out = append(out, view)
	}
	return out
}

// stringOf renders a vendor field that may arrive as a string or a JSON
// number. Whole-valued numbers render without a fractional part so keys stay
// stable across the vendors' mixed encodings.
func stringOf(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}

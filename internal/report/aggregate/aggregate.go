// Package aggregate builds dense 12-month series per reporting dimension.
//
// Every series has exactly one bucket per month of the window, oldest first,
// and every bucket carries every key observed anywhere in the series, so a
// month with no rows reads as zeros rather than missing.
package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"complaintdesk/internal/complaint/models"
	"complaintdesk/internal/report/store"
	"complaintdesk/internal/report/window"
)

// Dimension names a monthly breakdown.
type Dimension string

const (
	DimensionStatus   Dimension = "status"
	DimensionActs     Dimension = "acts"
	DimensionDistrict Dimension = "district"
	DimensionChannel  Dimension = "channel"
	DimensionSafety   Dimension = "safety"
)

// CountDimensions are the dimensions that produce count buckets, in dashboard order.
var CountDimensions = []Dimension{
	DimensionStatus,
	DimensionActs,
	DimensionDistrict,
	DimensionChannel,
	DimensionSafety,
}

// ParseDimension validates a dimension name.
func ParseDimension(s string) (Dimension, bool) {
	for _, d := range CountDimensions {
		if string(d) == s {
			return d, true
		}
	}
	return "", false
}

// Keys of the fixed-shape dimensions.
const (
	KeyPending       = "pending"
	KeyInspected     = "inspected"
	KeyCompleted     = "completed"
	KeySafetyRelated = "safety_related"
	KeyOthers        = "others"
)

// Bucket is one month of counts.
type Bucket struct {
	Month  string         `json:"month"`
	Counts map[string]int `json:"counts"`
}

// Series is a dense monthly breakdown for one dimension.
type Series struct {
	Dimension Dimension `json:"dimension"`
	Keys      []string  `json:"keys"`
	Buckets   []Bucket  `json:"buckets"`
}

// FineBucket is one month of fine totals.
type FineBucket struct {
	Month string          `json:"month"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// FineSeries is the dense monthly fine breakdown.
type FineSeries struct {
	Act     string       `json:"act,omitempty"`
	Section string       `json:"section,omitempty"`
	Buckets []FineBucket `json:"buckets"`
}

// keyFunc returns the keys a fact counts toward; nil or empty skips it.
type keyFunc func(store.ComplaintFact) []string

// Count dispatches to the builder for d.
func Count(d Dimension, w window.Window, facts []store.ComplaintFact) Series {
	switch d {
	case DimensionStatus:
		return Status(w, facts)
	case DimensionActs:
		return Acts(w, facts)
	case DimensionDistrict:
		return District(w, facts)
	case DimensionChannel:
		return Channel(w, facts)
	default:
		return Safety(w, facts)
	}
}

// Status counts pending (the backlog, accepted but uninvestigated included),
// inspected and completed complaints. Rejected
// complaints are not counted anywhere.
func Status(w window.Window, facts []store.ComplaintFact) Series {
	return build(DimensionStatus, w, facts, []string{KeyPending, KeyInspected, KeyCompleted},
		func(f store.ComplaintFact) []string {
			switch {
			case models.IsBacklog(f.Status, f.InvestigationDate):
				return []string{KeyPending}
			case f.Status == models.StatusInProgress:
				return []string{KeyInspected}
			case f.Status == models.StatusResolved:
				return []string{KeyCompleted}
			}
			return nil
		})
}

// Acts counts each complaint once per related act.
func Acts(w window.Window, facts []store.ComplaintFact) Series {
	return build(DimensionActs, w, facts, nil, notRejected(func(f store.ComplaintFact) []string {
		seen := make(map[string]bool, len(f.RelatedActs))
		keys := make([]string, 0, len(f.RelatedActs))
		for _, a := range f.RelatedActs {
			if a == "" || seen[a] {
				continue
			}
			seen[a] = true
			keys = append(keys, a)
		}
		return keys
	}))
}

// District counts by district; complaints without one are skipped.
func District(w window.Window, facts []store.ComplaintFact) Series {
	return build(DimensionDistrict, w, facts, nil, notRejected(func(f store.ComplaintFact) []string {
		if f.District == nil {
			return nil
		}
		return []string{*f.District}
	}))
}

// Channel counts by intake channel; complaints without one are skipped.
func Channel(w window.Window, facts []store.ComplaintFact) Series {
	return build(DimensionChannel, w, facts, nil, notRejected(func(f store.ComplaintFact) []string {
		if f.Channel == nil {
			return nil
		}
		return []string{string(*f.Channel)}
	}))
}

// Safety splits complaints by the safety flag. Unlike the other dimensions
// it includes rejected complaints.
func Safety(w window.Window, facts []store.ComplaintFact) Series {
	return build(DimensionSafety, w, facts, []string{KeySafetyRelated, KeyOthers},
		func(f store.ComplaintFact) []string {
			if f.IsSafetyHealth {
				return []string{KeySafetyRelated}
			}
			return []string{KeyOthers}
		})
}

// Fines totals fine rows by the month they were created. Callers pass rows
// already narrowed by act and section.
func Fines(w window.Window, fines []store.FineFact, filter store.FineFilter) FineSeries {
	buckets := make([]FineBucket, len(w.Months))
	for i, m := range w.Months {
		buckets[i] = FineBucket{Month: m.Key(), Total: decimal.Zero}
	}
	for _, f := range fines {
		if !filter.Matches(f) {
			continue
		}
		i, ok := w.Index(f.CreatedAt)
		if !ok {
			continue
		}
		buckets[i].Total = buckets[i].Total.Add(f.Amount)
		buckets[i].Count++
	}
	return FineSeries{Act: filter.Act, Section: filter.Section, Buckets: buckets}
}

func notRejected(fn keyFunc) keyFunc {
	return func(f store.ComplaintFact) []string {
		if f.Status == models.StatusRejected {
			return nil
		}
		return fn(f)
	}
}

// build places each fact in the bucket of its effective month. fixed keys
// are always present in that order; observed keys follow sorted.
func build(d Dimension, w window.Window, facts []store.ComplaintFact, fixed []string, keysOf keyFunc) Series {
	counts := make([]map[string]int, len(w.Months))
	for i := range counts {
		counts[i] = map[string]int{}
	}

	observed := map[string]bool{}
	for _, f := range facts {
		i, ok := w.Index(f.EffectiveDate(w.Location()))
		if !ok {
			continue
		}
		for _, k := range keysOf(f) {
			counts[i][k]++
			observed[k] = true
		}
	}

	keys := append([]string{}, fixed...)
	isFixed := make(map[string]bool, len(fixed))
	for _, k := range fixed {
		isFixed[k] = true
	}
	extra := make([]string, 0, len(observed))
	for k := range observed {
		if !isFixed[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	keys = append(keys, extra...)

	buckets := make([]Bucket, len(w.Months))
	for i, m := range w.Months {
		for _, k := range keys {
			if _, ok := counts[i][k]; !ok {
				counts[i][k] = 0
			}
		}
		buckets[i] = Bucket{Month: m.Key(), Counts: counts[i]}
	}
	return Series{Dimension: d, Keys: keys, Buckets: buckets}
}

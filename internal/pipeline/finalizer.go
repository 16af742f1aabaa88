package pipeline

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"sjsage522/catalogworker/internal/catalog"
	"sjsage522/catalogworker/internal/extract"
	"sjsage522/catalogworker/logger"
)

// Finalizer drop reasons
const (
	DropNoCapacity = "no_capacity"
	DropNotMemory  = "not_memory"
)

// notMemoryRegex matches products that show up in memory searches but are storage media
var notMemoryRegex = regexp.MustCompile(`(?i)\b(?:SSD|NVMe|M\.2|micro\s?SD(?:HC|XC)?|SD\s?cards?|USB\s?flash|flash\s?drives?|hard\s?drives?|HDD|CFexpress|thumb\s?drives?|solid[\s-]state)\b`)

// FinalizeStats counts the records kept and dropped by reason
type FinalizeStats struct {
	Kept    int
	Dropped map[string]int
}

// Finalizer validates the store and produces the ordered catalog document
type Finalizer struct {
	now   func() time.Time
	newID func() string
	log   *logger.Logger
}

// NewFinalizer creates a new finalizer stamping documents with the current time and a random run id
func NewFinalizer(log *logger.Logger) *Finalizer {
	if log == nil {
		log = logger.Nop()
	}
	return &Finalizer{
		now:   time.Now,
		newID: uuid.NewString,
		log:   log,
	}
}

// Finalize sets display titles, drops invalid records and sorts the rest by
// price per GB, ties broken by id
func (f *Finalizer) Finalize(records []*catalog.Record) (*catalog.Document, FinalizeStats) {
	stats := FinalizeStats{Dropped: make(map[string]int)}
	kept := make([]*catalog.Record, 0, len(records))

	for _, r := range records {
		reason := dropReason(r)
		if reason != "" {
			stats.Dropped[reason]++
			f.log.Debug().
				Str("id", r.ID).
				Str("title", r.Title).
				Str("reason", reason).
				Msg("Dropping record")
			continue
		}
		r.DisplayTitle = DisplayTitle(r)
		kept = append(kept, r)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].PricePerUnitCapacity != kept[j].PricePerUnitCapacity {
			return kept[i].PricePerUnitCapacity < kept[j].PricePerUnitCapacity
		}
		return kept[i].ID < kept[j].ID
	})
	stats.Kept = len(kept)

	return catalog.NewDocument(f.newID(), f.now(), kept), stats
}

func dropReason(r *catalog.Record) string {
	switch {
	case r.CapacityGB <= 0:
		return DropNoCapacity
	case notMemoryRegex.MatchString(r.Title):
		return DropNotMemory
	default:
		return ""
	}
}

// DisplayTitle returns the record's title when it is clean and agrees with
// the extracted capacity and memory technology, otherwise a title composed
// from the record's attributes
func DisplayTitle(r *catalog.Record) string {
	if r.Title != "" && !extract.IsContaminated(r.Title) && titleAgrees(r) {
		return extract.CleanText(r.Title)
	}
	return ComposeTitle(r)
}

func titleAgrees(r *catalog.Record) bool {
	x := extract.Item{Title: r.Title}
	if c := extract.Capacity(x); c != 0 && c != r.CapacityGB {
		return false
	}
	tech := extract.MemoryTechnology(x)
	if tech != catalog.NotAvailable && r.MemoryTechnology != catalog.NotAvailable && tech != r.MemoryTechnology {
		return false
	}
	return true
}

// ComposeTitle builds "<brand> <N>GB <form factor> Memory <technology> <speed>MHz <latency>",
// leaving out the parts that are unknown
func ComposeTitle(r *catalog.Record) string {
	parts := make([]string, 0, 7)
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" && s != catalog.NotAvailable {
			parts = append(parts, s)
		}
	}

	add(r.Brand)
	if r.CapacityGB > 0 {
		add(strconv.Itoa(r.CapacityGB) + "GB")
	}
	add(r.FormFactor)
	add("Memory")
	add(r.MemoryTechnology)
	if r.SpeedMHz != nil && *r.SpeedMHz > 0 {
		add(strconv.Itoa(*r.SpeedMHz) + "MHz")
	}
	add(r.Latency)

	return strings.Join(parts, " ")
}

package calendar

import (
	"sort"
	"time"
)

// BucketSize is the granularity of conflict detection; buckets are aligned to :00 and :30 UTC.
const BucketSize = 30 * time.Minute

type EntryKind string

const (
	KindInterview EntryKind = "interview"
	KindCall      EntryKind = "call"
)

type Entry struct {
	ID       string    `json:"id"`
	Kind     EntryKind `json:"kind"`
	Title    string    `json:"title"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Status   string    `json:"status"`
	Conflict bool      `json:"conflict"`
}

type Conflict struct {
	BucketStart time.Time `json:"bucket_start"`
	EntryIDs    []string  `json:"entry_ids"`
}

func bucketOf(t time.Time) time.Time {
	return t.UTC().Truncate(BucketSize)
}

// buckets lists the start of every bucket intersecting [e.Start, e.End).
// A zero-length (or inverted) entry occupies its start bucket only.
func (e Entry) buckets() []time.Time {
	first := bucketOf(e.Start)
	if !e.End.After(e.Start) {
		return []time.Time{first}
	}
	var res []time.Time
	for b := first; b.Before(e.End); b = b.Add(BucketSize) {
		res = append(res, b)
	}
	return res
}

// DetectConflicts flags entries sharing a 30-minute bucket. It marks entries in place and returns one
// Conflict per crowded bucket, ordered by bucket start; IDs keep the order of entries.
func DetectConflicts(entries []Entry) []Conflict {
	occupants := make(map[time.Time][]int)
	for i, e := range entries {
		for _, b := range e.buckets() {
			occupants[b] = append(occupants[b], i)
		}
	}

	conflicts := make([]Conflict, 0)
	for b, idxs := range occupants {
		if len(idxs) < 2 {
			continue
		}
		ids := make([]string, len(idxs))
		for n, i := range idxs {
			entries[i].Conflict = true
			ids[n] = entries[i].ID
		}
		conflicts = append(conflicts, Conflict{BucketStart: b, EntryIDs: ids})
	}
	sort.Slice(conflicts, func(i, j int) bool {
		return conflicts[i].BucketStart.Before(conflicts[j].BucketStart)
	})
	return conflicts
}

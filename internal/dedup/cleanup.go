package dedup

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"localbiz_backend/internal/domain"
)

// groupPrefixLen truncates the normalized text used in the offline grouping
// key. The prefix tolerates trailing-text drift between duplicate
// deliveries, at the cost of conflating two genuinely different long
// reviews that share an opening sentence. Known precision/recall tradeoff.
const groupPrefixLen = 50

// CleanupGroup is one duplicate group: the keeper plus the records marked
// for deletion.
type CleanupGroup struct {
	Keep   domain.ReviewRecord
	Delete []domain.ReviewRecord
}

// CleanupPlan is the mutation plan of the offline cleanup path. Building a
// plan never touches storage; only ExecuteCleanup does.
type CleanupPlan struct {
	Scanned int
	Groups  []CleanupGroup
}

func (p CleanupPlan) KeepCount() int { return len(p.Groups) }

func (p CleanupPlan) DeleteCount() int {
	n := 0
	for _, g := range p.Groups {
		n += len(g.Delete)
	}
	return n
}

// PlanCleanup groups a full snapshot by truncated content key and, within
// each group of size > 1, keeps the record with the latest resolvable
// timestamp. Ties keep the first-seen record. No ordering is assumed from
// the store.
func PlanCleanup(records []domain.ReviewRecord) CleanupPlan {
	plan := CleanupPlan{Scanned: len(records)}

	groups := make(map[string][]domain.ReviewRecord)
	var order []string
	for _, rec := range records {
		key := groupKey(rec)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], rec)
	}

	for _, key := range order {
		group := groups[key]
		if len(group) < 2 {
			continue
		}
		sortByTimestampDesc(group)
		plan.Groups = append(plan.Groups, CleanupGroup{Keep: group[0], Delete: group[1:]})
	}
	return plan
}

func groupKey(rec domain.ReviewRecord) string {
	text := NormalizeText(rec.Text)
	if r := []rune(text); len(r) > groupPrefixLen {
		text = string(r[:groupPrefixLen])
	}
	return fmt.Sprintf("%s_%d_%s", NormalizeAuthor(rec.AuthorName), rec.Rating, text)
}

// resolveEpoch prefers the integer epoch field, falls back to parsing the
// string timestamp, and finally to 0 so unparseable records sort last as
// the least authoritative.
func resolveEpoch(rec domain.ReviewRecord) int64 {
	if rec.ReviewTimestamp != 0 {
		return rec.ReviewTimestamp
	}
	if t, ok := parseISO(rec.ReviewTime); ok {
		return t.Unix()
	}
	return 0
}

func sortByTimestampDesc(group []domain.ReviewRecord) {
	// insertion sort keeps first-seen order on equal timestamps
	for i := 1; i < len(group); i++ {
		for j := i; j > 0 && resolveEpoch(group[j]) > resolveEpoch(group[j-1]); j-- {
			group[j], group[j-1] = group[j-1], group[j]
		}
	}
}

// CleanupResult counts the destructive pass.
type CleanupResult struct {
	Deleted int
	Errors  int
}

// ExecuteCleanup applies a plan's deletions one at a time. Each failure is
// logged and counted and does not block the remaining deletions.
func ExecuteCleanup(ctx context.Context, store domain.ReviewStore, plan CleanupPlan) CleanupResult {
	var res CleanupResult
	for _, g := range plan.Groups {
		for _, rec := range g.Delete {
			if err := store.Delete(ctx, rec.ID); err != nil {
				res.Errors++
				log.Error().Err(err).Int64("id", rec.ID).Str("review_id", rec.ReviewID).Msg("delete failed")
				continue
			}
			res.Deleted++
			log.Info().Int64("id", rec.ID).Str("review_id", rec.ReviewID).Msg("duplicate deleted")
		}
	}
	return res
}

// ---- audit report ----

// RecordRef carries just enough of a record for an operator to audit a
// keep/delete decision.
type RecordRef struct {
	ID              int64  `json:"id"`
	ReviewID        string `json:"review_id,omitempty"`
	ReviewTime      string `json:"review_time,omitempty"`
	ReviewTimestamp int64  `json:"review_timestamp,omitempty"`
}

type GroupReport struct {
	Author      string      `json:"author"`
	Rating      int         `json:"rating"`
	TextPreview string      `json:"text_preview"`
	Keep        RecordRef   `json:"keep"`
	Delete      []RecordRef `json:"delete"`
}

type CleanupReport struct {
	TotalScanned    int           `json:"total_scanned"`
	DuplicateGroups int           `json:"duplicate_groups"`
	ToKeep          int           `json:"to_keep"`
	ToDelete        int           `json:"to_delete"`
	Groups          []GroupReport `json:"groups"`
}

// Report renders a plan for audit (dry-run output, check-duplicates API).
func (p CleanupPlan) Report() CleanupReport {
	rep := CleanupReport{
		TotalScanned:    p.Scanned,
		DuplicateGroups: len(p.Groups),
		ToKeep:          p.KeepCount(),
		ToDelete:        p.DeleteCount(),
	}
	for _, g := range p.Groups {
		gr := GroupReport{
			Author:      g.Keep.AuthorName,
			Rating:      g.Keep.Rating,
			TextPreview: preview(g.Keep.Text, 80),
			Keep:        ref(g.Keep),
		}
		for _, d := range g.Delete {
			gr.Delete = append(gr.Delete, ref(d))
		}
		rep.Groups = append(rep.Groups, gr)
	}
	return rep
}

func ref(rec domain.ReviewRecord) RecordRef {
	return RecordRef{ID: rec.ID, ReviewID: rec.ReviewID, ReviewTime: rec.ReviewTime, ReviewTimestamp: rec.ReviewTimestamp}
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

package dedup

import "localbiz_backend/internal/domain"

// FilterNewestFirst drops duplicates from an already-ordered (newest-first)
// active-record slice and caps the result at max. Because input order is
// newest-first, the kept record in any duplicate group is the most recent
// one. The store is never mutated here; this only shapes the read response.
func FilterNewestFirst(records []domain.ReviewRecord, max int) []domain.ReviewRecord {
	seenIDs := make(map[string]struct{}, len(records))
	seenContent := make(map[string]struct{}, len(records))
	out := make([]domain.ReviewRecord, 0, len(records))

	for _, rec := range records {
		if rec.ReviewID != "" {
			if _, dup := seenIDs[rec.ReviewID]; dup {
				continue
			}
		}
		h := ContentHash(Normalized{
			Author: NormalizeAuthor(rec.AuthorName),
			Rating: rec.Rating,
			Text:   NormalizeText(rec.Text),
		})
		if _, dup := seenContent[h]; dup {
			continue
		}
		if rec.ReviewID != "" {
			seenIDs[rec.ReviewID] = struct{}{}
		}
		seenContent[h] = struct{}{}
		out = append(out, rec)
		if max > 0 && len(out) >= max {
			break
		}
	}
	return out
}

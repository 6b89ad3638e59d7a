package http

import (
	"context"
	"net/http"
	"strconv"

	syncx "github.com/mind-engage/quizbank/internal/sync"
)

type EventFeed interface {
	Since(ctx context.Context, after int64, limit int) ([]syncx.Event, error)
}

// GET /events?after=<offset>&limit=<n>
// Pull side of the event log; callers page by passing the last offset seen.
func ListEventsHandler(feed EventFeed) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var after int64
		if v := r.URL.Query().Get("after"); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n < 0 {
				http.Error(w, "bad after", http.StatusBadRequest)
				return
			}
			after = n
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		evs, err := feed.Since(r.Context(), after, limit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		next := after
		if len(evs) > 0 {
			next = evs[len(evs)-1].Offset
		}
		respondJSON(w, http.StatusOK, map[string]any{"data": evs, "next": next})
	}
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/mentortable/internal/history"
	"github.com/kalambet/mentortable/internal/mentor"
	"github.com/kalambet/mentortable/internal/storage"
	"github.com/kalambet/mentortable/internal/table"
)

// consultRequest is the mentor table request body. Problem stays raw so a
// non-string value is reported as such instead of as malformed JSON.
type consultRequest struct {
	Problem             json.RawMessage   `json:"problem"`
	Language            string            `json:"language"`
	Mentors             []mentor.Profile  `json:"mentors"`
	ConversationHistory []json.RawMessage `json:"conversationHistory"`
}

func (c consultRequest) problem() (string, error) {
	if len(c.Problem) == 0 || string(c.Problem) == "null" {
		return "", errors.New("problem is required")
	}
	var s string
	if err := json.Unmarshal(c.Problem, &s); err != nil {
		return "", errors.New("problem must be a string")
	}
	return s, nil
}

func handleMentorTable(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

		var body consultRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		problem, err := body.problem()
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}

		ctx := r.Context()
		if deps.RequestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, deps.RequestTimeout)
			defer cancel()
		}

		resp, err := deps.Table.Consult(ctx, table.Request{
			Problem:  problem,
			Language: body.Language,
			Mentors:  body.Mentors,
			History:  history.Normalize(body.ConversationHistory),
		})
		if err != nil {
			var verr *table.ValidationError
			if !errors.As(err, &verr) {
				slog.Error("mentor table consultation failed", "error", err)
			}
			consultError(w, err)
			return
		}

		if id, err := recordConsultation(deps.Store, problem, resp); err != nil {
			slog.Warn("failed to store consultation", "error", err)
		} else if id != "" {
			w.Header().Set("X-Consultation-ID", id)
		}

		writeJSON(w, resp)
	}
}

// recordConsultation stores resp in store and returns the new record ID.
// A nil store records nothing.
func recordConsultation(store *storage.Store, problem string, resp mentor.Response) (string, error) {
	if store == nil {
		return "", nil
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("marshaling response: %w", err)
	}
	ids := make([]string, len(resp.MentorReplies))
	for i, reply := range resp.MentorReplies {
		ids[i] = reply.MentorID
	}
	c := storage.Consultation{
		ID:           uuid.New().String(),
		CreatedAt:    time.Now().UTC(),
		Language:     string(resp.Language),
		Problem:      problem,
		MentorIDs:    ids,
		Provider:     resp.Meta.Provider,
		Model:        resp.Meta.Model,
		ResponseJSON: string(data),
	}
	if err := store.SaveConsultation(c); err != nil {
		return "", err
	}
	return c.ID, nil
}

package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/verdant-lab/pythia/pkg/domain/model"
	"github.com/verdant-lab/pythia/pkg/domain/types"
	"github.com/verdant-lab/pythia/pkg/service/llm"
	"github.com/verdant-lab/pythia/pkg/usecase"
	"github.com/verdant-lab/pythia/pkg/utils/errutil"
)

const maxMessageRunes = 1000

const (
	apologyNL = "Oeps, er ging even iets mis aan mijn kant! Probeer het nog eens?"
	apologyEN = "Oops, something went wrong on my end! Please try again."

	humanAckNL = "Natuurlijk! Ik breng je graag in contact met een collega. Er kijkt zo snel mogelijk iemand met je mee."
	humanAckEN = "Of course! I'd be happy to connect you with a colleague. Someone will be with you as soon as possible."
)

type chatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Message   string     `json:"message"`
	History   []chatTurn `json:"history"`
	SessionID string     `json:"session_id"`
}

type chatResponse struct {
	Answer         string   `json:"answer"`
	Unknown        bool     `json:"unknown"`
	HumanRequested bool     `json:"human_requested"`
	Sources        []string `json:"sources"`
	RequestID      string   `json:"request_id"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// chatHandler answers one chat message. Unknown and handoff outcomes are
// 200s; only infrastructure failures produce error statuses, rendered as a
// localized apology the widget can show as-is.
func chatHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "invalid JSON body", RequestID: requestID})
			return
		}

		if strings.TrimSpace(req.Message) == "" {
			writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "message is required", RequestID: requestID})
			return
		}
		if utf8.RuneCountInString(req.Message) > maxMessageRunes {
			writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "message too long", RequestID: requestID})
			return
		}

		history, err := parseHistory(req.History)
		if err != nil {
			writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error(), RequestID: requestID})
			return
		}

		ans, err := uc.Query(r.Context(), &usecase.QueryInput{
			SessionID: req.SessionID,
			Message:   req.Message,
			History:   history,
		})
		if err != nil {
			if errors.Is(err, llm.ErrGeneration) || errors.Is(err, llm.ErrEmbedding) {
				errutil.Handle(r.Context(), err, "chat answering failed")
				writeJSON(w, r, http.StatusBadGateway, chatResponse{
					Answer:    apologyFor(err),
					Sources:   []string{},
					RequestID: requestID,
				})
				return
			}
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}

		text := ans.Text
		if ans.HumanRequested {
			text = humanAck(ans.Language)
		}

		writeJSON(w, r, http.StatusOK, chatResponse{
			Answer:         text,
			Unknown:        ans.Unknown,
			HumanRequested: ans.HumanRequested,
			Sources:        sourceNames(ans.Sources),
			RequestID:      requestID,
		})
	}
}

func parseHistory(turns []chatTurn) (model.History, error) {
	history := make(model.History, 0, len(turns))
	for _, turn := range turns {
		if strings.TrimSpace(turn.Content) == "" {
			continue
		}
		role, err := types.ParseRole(turn.Role)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid history turn")
		}
		history = append(history, model.Turn{Role: role, Content: turn.Content})
	}
	return history, nil
}

// apologyFor picks the apology language from the error's language value,
// falling back to Dutch
func apologyFor(err error) string {
	lang := types.LanguageDutch
	if ge := goerr.Unwrap(err); ge != nil {
		if v, ok := ge.Values()["language"].(string); ok {
			if parsed, perr := types.ParseLanguage(v); perr == nil {
				lang = parsed
			}
		}
	}

	if lang == types.LanguageEnglish {
		return apologyEN
	}
	return apologyNL
}

func humanAck(lang types.Language) string {
	if lang.Normalize() == types.LanguageEnglish {
		return humanAckEN
	}
	return humanAckNL
}

// sourceNames lists the distinct source documents behind an answer, in
// ranking order
func sourceNames(chunks []*model.Chunk) []string {
	seen := make(map[string]bool, len(chunks))
	names := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if seen[chunk.Source] {
			continue
		}
		seen[chunk.Source] = true
		names = append(names, chunk.Source)
	}
	return names
}

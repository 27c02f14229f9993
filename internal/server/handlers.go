package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"marketcompanion/internal/conversation"
	"marketcompanion/internal/evidence"
	"marketcompanion/internal/llm"
	"marketcompanion/internal/session"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		s.log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// decode reads a JSON body strictly.
func decode(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// parseTickers normalizes raw tickers and enforces the request limits.
func parseTickers(raw []string, allowEmpty bool) ([]evidence.Instrument, error) {
	parsed := evidence.ParseInstruments(raw)
	if len(parsed) == 0 && !allowEmpty {
		return nil, errors.New("tickers cannot be empty")
	}
	if len(parsed) > MaxTickers {
		return nil, fmt.Errorf("too many tickers (max %d)", MaxTickers)
	}
	return parsed, nil
}

// orderedBundles lists bundles in instrument order, skipping missing ones.
func orderedBundles(instruments []evidence.Instrument, bundles map[evidence.Instrument]*evidence.Bundle) []*evidence.Bundle {
	out := make([]*evidence.Bundle, 0, len(instruments))
	for _, sym := range instruments {
		if b, ok := bundles[sym]; ok && b != nil {
			out = append(out, b)
		}
	}
	return out
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type sourceHealthResponse struct {
	Healthy bool            `json:"healthy"`
	Sources map[string]bool `json:"sources"`
}

func (s *Server) handleSourceHealth(w http.ResponseWriter, r *http.Request) {
	res := s.evidence.ProbeAll(r.Context(), s.probers...)
	healthy := true
	for _, ok := range res {
		healthy = healthy && ok
	}
	s.writeJSON(w, http.StatusOK, sourceHealthResponse{Healthy: healthy, Sources: res})
}

type tickersRequest struct {
	Tickers []string `json:"tickers"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req tickersRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	instruments, err := parseTickers(req.Tickers, true)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess := s.store.Create(evidence.Strings(instruments))
	w.Header().Set("Location", "/api/sessions/"+sess.ID)
	s.writeJSON(w, http.StatusCreated, sess.View())
}

// session resolves the {id} URL parameter, writing 404 when unknown.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return sess, true
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, sess.View())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// instrumentsRequest replaces the list when Tickers is set, then applies
// Add and Remove. The cap applies to the final list and a rejected request
// changes nothing.
type instrumentsRequest struct {
	Tickers *[]string `json:"tickers,omitempty"`
	Add     []string  `json:"add,omitempty"`
	Remove  []string  `json:"remove,omitempty"`
}

func (s *Server) handleUpdateInstruments(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req instrumentsRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Tickers == nil && len(req.Add) == 0 && len(req.Remove) == 0 {
		s.writeError(w, http.StatusBadRequest, "one of tickers, add or remove is required")
		return
	}
	_, err := sess.EditInstruments(session.InstrumentEdit{
		Replace: req.Tickers,
		Add:     req.Add,
		Remove:  req.Remove,
	}, MaxTickers)
	if errors.Is(err, session.ErrTooMany) {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("too many tickers (max %d)", MaxTickers))
		return
	}
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, sess.View())
}

type refreshResponse struct {
	Summary  session.Summary    `json:"summary"`
	Evidence []*evidence.Bundle `json:"evidence"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sum, err := sess.Refresh(r.Context())
	if errors.Is(err, session.ErrNoInstruments) {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	instruments, bundles := sess.Snapshot()
	s.writeJSON(w, http.StatusOK, refreshResponse{Summary: sum, Evidence: orderedBundles(instruments, bundles)})
}

type evidenceResponse struct {
	Tickers   []string           `json:"tickers"`
	UpdatedAt *time.Time         `json:"updated_at,omitempty"`
	Bundles   []*evidence.Bundle `json:"bundles"`
	Partial   []string           `json:"partial,omitempty"`
}

func (s *Server) handleEvidence(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	instruments, bundles := sess.Snapshot()
	resp := evidenceResponse{
		Tickers:   evidence.Strings(instruments),
		UpdatedAt: sess.View().UpdatedAt,
		Bundles:   orderedBundles(instruments, bundles),
	}
	for _, b := range resp.Bundles {
		if err := b.Partial(); err != nil {
			resp.Partial = append(resp.Partial, err.Error())
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sum, ok := sess.Summary()
	if !ok {
		s.writeError(w, http.StatusNotFound, "no summary yet; refresh the session first")
		return
	}
	s.writeJSON(w, http.StatusOK, sum)
}

type chatRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req chatRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ans, err := sess.Ask(r.Context(), req.Question)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, ans)
}

type historyResponse struct {
	Turns []conversation.Turn `json:"turns"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, historyResponse{Turns: sess.History()})
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Result   llm.SentimentClassification `json:"result"`
	Degraded bool                        `json:"degraded"`
	Error    string                      `json:"error,omitempty"`
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Text == "" {
		s.writeError(w, http.StatusBadRequest, "text cannot be empty")
		return
	}
	res, err := s.model.Classify(r.Context(), req.Text)
	resp := classifyResponse{Result: res, Degraded: err != nil}
	if err != nil {
		resp.Error = err.Error()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type renderResponse struct {
	Tickers              []string           `json:"tickers"`
	SynthesisEvidence    string             `json:"synthesis_evidence"`
	ConversationPreamble string             `json:"conversation_preamble"`
	Evidence             []*evidence.Bundle `json:"evidence"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req tickersRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	instruments, err := parseTickers(req.Tickers, false)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	bundles := s.evidence.FetchAll(r.Context(), instruments)
	s.writeJSON(w, http.StatusOK, renderResponse{
		Tickers:              evidence.Strings(instruments),
		SynthesisEvidence:    s.prompts.RenderSynthesisEvidence(instruments, bundles),
		ConversationPreamble: s.prompts.RenderConversationPreamble(instruments, bundles),
		Evidence:             orderedBundles(instruments, bundles),
	})
}

package handler

import (
	"net/http"

	"lotto-engine/internal/draw"
	"lotto-engine/internal/model"
)

func (s *Server) handlePublishResult(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date      string   `json:"date"`
		DrawLabel string   `json:"drawLabel"`
		Prizes    []string `json:"prizes"`
		Others    []string `json:"others"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Date == "" || req.DrawLabel == "" {
		writeMessage(w, http.StatusBadRequest, "date and drawLabel are required")
		return
	}

	if err := s.results.Publish(r.Context(), req.Date, req.DrawLabel, req.Prizes, req.Others); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "published"})
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		writeMessage(w, http.StatusBadRequest, "date is required")
		return
	}

	results, err := s.results.ListByDate(r.Context(), date)
	if err != nil {
		writeError(w, err)
		return
	}

	// Terminals render results under their "result time" spelling.
	type resultView struct {
		model.DrawResult
		ResultTime string `json:"resultTime"`
	}
	views := make([]resultView, len(results))
	for i, res := range results {
		views[i] = resultView{DrawResult: res, ResultTime: draw.ResultTime(res.DrawLabel)}
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FromDate string `json:"fromDate"`
		ToDate   string `json:"toDate"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	replayed, err := s.reconcile.Run(r.Context(), req.FromDate, req.ToDate)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"replayed": replayed})
}

func (s *Server) handleSalesReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	agentID := q.Get("agentId")
	from := q.Get("fromDate")
	to := q.Get("toDate")
	if agentID == "" || from == "" || to == "" {
		writeMessage(w, http.StatusBadRequest, "agentId, fromDate and toDate are required")
		return
	}

	summaries, err := s.reports.Sales(r.Context(), agentID, from, to, q.Get("drawLabel"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleWinningsReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AgentID   string `json:"agentId"`
		FromDate  string `json:"fromDate"`
		ToDate    string `json:"toDate"`
		DrawLabel string `json:"drawLabel"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.AgentID == "" || req.FromDate == "" || req.ToDate == "" {
		writeMessage(w, http.StatusBadRequest, "agentId, fromDate and toDate are required")
		return
	}

	report, err := s.reports.Winnings(r.Context(), req.AgentID, req.FromDate, req.ToDate, req.DrawLabel)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleCountReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	agentID := q.Get("agentId")
	date := q.Get("date")
	if agentID == "" || date == "" {
		writeMessage(w, http.StatusBadRequest, "agentId and date are required")
		return
	}

	counts, err := s.reports.CountByNumber(r.Context(), agentID, date, q.Get("drawLabel"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

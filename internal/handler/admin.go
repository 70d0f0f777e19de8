package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"lotto-engine/internal/draw"
	"lotto-engine/internal/model"
)

func (s *Server) handleUpsertWindow(w http.ResponseWriter, r *http.Request) {
	var win model.DrawWindow
	if !decodeJSON(w, r, &win) {
		return
	}
	if win.DrawLabel == "" || win.Role == "" || win.BlockTime == "" || win.UnblockTime == "" {
		writeMessage(w, http.StatusBadRequest, "drawLabel, role, blockTime and unblockTime are required")
		return
	}

	if err := s.windows.Upsert(r.Context(), &win); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, win)
}

func (s *Server) handleListWindows(w http.ResponseWriter, r *http.Request) {
	windows, err := s.windows.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, windows)
}

func (s *Server) handleAddBlockedDate(w http.ResponseWriter, r *http.Request) {
	var req model.BlockedDate
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Ticket == "" || req.Date == "" {
		writeMessage(w, http.StatusBadRequest, "ticket and date are required")
		return
	}

	if err := s.blockedDates.Add(r.Context(), req.Ticket, req.Date); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleListBlockedDates(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("fromDate")
	blocked, err := s.blockedDates.List(r.Context(), from)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, blocked)
}

func (s *Server) handleRemoveBlockedDate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ticket := q.Get("ticket")
	date := q.Get("date")
	if ticket == "" || date == "" {
		writeMessage(w, http.StatusBadRequest, "ticket and date are required")
		return
	}

	if err := s.blockedDates.Remove(r.Context(), ticket, date); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (s *Server) handleUpsertBlockNumber(w http.ResponseWriter, r *http.Request) {
	var b model.BlockNumber
	if !decodeJSON(w, r, &b) {
		return
	}
	if b.CreatedBy == "" || b.Number == "" || b.Field == "" {
		writeMessage(w, http.StatusBadRequest, "createdBy, field and number are required")
		return
	}
	if _, err := model.ParseBetType(string(b.Field)); err != nil {
		writeError(w, err)
		return
	}

	if err := s.blockNumbers.Upsert(r.Context(), &b); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleListBlockNumbers(w http.ResponseWriter, r *http.Request) {
	agent := mux.Vars(r)["agent"]
	blocks, err := s.blockNumbers.List(r.Context(), agent)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, blocks)
}

func (s *Server) handleDeleteBlockNumber(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := s.blockNumbers.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleUpsertCreditLimit(w http.ResponseWriter, r *http.Request) {
	var c model.CreditLimit
	if !decodeJSON(w, r, &c) {
		return
	}
	if c.ToUser == "" || c.Amount < 0 {
		writeMessage(w, http.StatusBadRequest, "toUser and a non-negative amount are required")
		return
	}
	if c.DrawTime == "" {
		c.DrawTime = model.CreditLimitAll
	}

	if err := s.credits.Upsert(r.Context(), &c); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleListCreditLimits(w http.ResponseWriter, r *http.Request) {
	agent := mux.Vars(r)["agent"]
	limits, err := s.credits.ListGranted(r.Context(), agent)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, limits)
}

func (s *Server) handleSaveRateTable(w http.ResponseWriter, r *http.Request) {
	var table model.RateTable
	if !decodeJSON(w, r, &table) {
		return
	}
	if table.AgentID == "" || table.Draw == "" || len(table.Rows) == 0 {
		writeMessage(w, http.StatusBadRequest, "agentId, draw and rows are required")
		return
	}

	if err := s.rateTables.Save(r.Context(), &table); err != nil {
		writeError(w, err)
		return
	}
	s.rateResolver.Invalidate(table.AgentID)
	writeJSON(w, http.StatusOK, table)
}

func (s *Server) handleGetRateTable(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	table, err := s.rateTables.Get(r.Context(), vars["agent"], vars["draw"])
	if err != nil {
		writeError(w, err)
		return
	}
	if table == nil {
		writeMessage(w, http.StatusNotFound, "rate table not found")
		return
	}
	writeJSON(w, http.StatusOK, table)
}

func (s *Server) handleSaveScheme(w http.ResponseWriter, r *http.Request) {
	var table model.SchemeTable
	if !decodeJSON(w, r, &table) {
		return
	}
	if table.DrawLabel == "" || len(table.Rows) == 0 {
		writeMessage(w, http.StatusBadRequest, "drawLabel and rows are required")
		return
	}
	if table.Tier <= 0 {
		table.Tier = 1
	}
	table.DrawLabel = draw.Canonical(table.DrawLabel)

	if err := s.schemes.Save(r.Context(), &table); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

func (s *Server) handleGetScheme(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	tier, err := strconv.Atoi(vars["tier"])
	if err != nil || tier <= 0 {
		writeMessage(w, http.StatusBadRequest, "invalid tier")
		return
	}

	table, err := s.schemes.Get(r.Context(), tier, draw.Canonical(vars["draw"]))
	if err != nil {
		writeError(w, err)
		return
	}
	if table == nil {
		writeMessage(w, http.StatusNotFound, "scheme table not found")
		return
	}
	writeJSON(w, http.StatusOK, table)
}

func (s *Server) handleGetTicketLimits(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.limits.Get(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleSaveTicketLimits(w http.ResponseWriter, r *http.Request) {
	var cfg model.TicketLimitConfig
	if !decodeJSON(w, r, &cfg) {
		return
	}

	if err := s.limits.Save(r.Context(), &cfg); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleCreateAgent(w http.ResponseWriter, r *http.Request) {
	var a model.Agent
	if !decodeJSON(w, r, &a) {
		return
	}
	if a.Username == "" {
		writeMessage(w, http.StatusBadRequest, "username is required")
		return
	}

	created, err := s.agents.Create(r.Context(), &a)
	if err != nil {
		writeError(w, err)
		return
	}
	// Refresh right away so the new agent's sales roll up without waiting
	// for the next ticker interval.
	if err := s.tree.Refresh(r.Context()); err != nil {
		log.Error().Err(err).Msg("failed to refresh hierarchy after agent creation")
	}
	writeJSON(w, http.StatusCreated, created)
}

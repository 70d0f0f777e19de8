package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"lotto-engine/internal/model"
	"lotto-engine/internal/repository"
	"lotto-engine/internal/service"
)

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req service.SubmitRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Entries) == 0 || req.DrawLabel == "" || req.SellingAgentID == "" {
		writeMessage(w, http.StatusBadRequest, "entries, drawLabel and sellingAgentId are required")
		return
	}
	if req.Role == "" {
		req.Role = model.RoleSub
	}

	result, err := s.admission.Submit(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetBill(w http.ResponseWriter, r *http.Request) {
	billNo := mux.Vars(r)["billNo"]

	entries, err := s.entryAdmin.ListBill(r.Context(), billNo)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(entries) == 0 {
		writeMessage(w, http.StatusNotFound, "bill not found")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleInvalidateBill(w http.ResponseWriter, r *http.Request) {
	billNo := mux.Vars(r)["billNo"]

	n, err := s.entryAdmin.Invalidate(r.Context(), billNo)
	if err != nil {
		writeError(w, err)
		return
	}
	if n == 0 {
		writeMessage(w, http.StatusNotFound, "bill not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"billNo": billNo, "invalidated": n})
}

func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	billNo := mux.Vars(r)["billNo"]

	n, err := s.entryAdmin.Delete(r.Context(), billNo)
	if err != nil {
		writeError(w, err)
		return
	}
	if n == 0 {
		writeMessage(w, http.StatusNotFound, "bill not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"billNo": billNo, "deleted": n})
}

func (s *Server) handleUpdateCount(w http.ResponseWriter, r *http.Request) {
	billNo := mux.Vars(r)["billNo"]

	var req struct {
		EntryID int64  `json:"entryId"`
		Count   int    `json:"count"`
		Role    string `json:"role"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Count <= 0 {
		writeMessage(w, http.StatusBadRequest, "count must be positive")
		return
	}
	if req.Role == "" {
		req.Role = model.RoleSub
	}

	entries, err := s.entryAdmin.ListBill(r.Context(), billNo)
	if err != nil {
		writeError(w, err)
		return
	}
	var target *model.BetEntry
	for i := range entries {
		if entries[i].ID == req.EntryID {
			target = &entries[i]
			break
		}
	}
	if target == nil {
		writeError(w, repository.ErrEntryNotFound)
		return
	}

	updated, err := s.entryAdmin.UpdateCount(r.Context(), target, req.Role, req.Count)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

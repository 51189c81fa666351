package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"skladik/internal/export"
	"skladik/internal/models"
	"skladik/internal/store"

	"github.com/xuri/excelize/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type createItemRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
}

type createClockInRequest struct {
	Email    string `json:"email"`
	Location string `json:"location"`
}

type deleteResponse struct {
	Deleted bool  `json:"deleted"`
	ID      int64 `json:"id"`
}

func (s *HTTPServer) handleItems(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateItem(w, r)
	case http.MethodGet:
		s.handleListItems(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// Literal segments dispatch before the id parse so /items/filter is
// never read as an id.
func (s *HTTPServer) handleItemsSubtree(w http.ResponseWriter, r *http.Request) {
	switch strings.TrimPrefix(r.URL.Path, "/items/") {
	case "filter":
		s.handleItemsFilter(w, r)
	case "aggregate":
		s.handleItemsAggregate(w, r)
	case "export":
		s.handleItemsExport(w, r)
	default:
		s.handleItemByID(w, r)
	}
}

func (s *HTTPServer) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var req createItemRequest
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Price == nil {
		writeStoreError(w, &store.ValidationError{Field: "price", Reason: "is required"})
		return
	}

	item := models.Item{Name: req.Name, Description: req.Description, Price: *req.Price}
	if err := s.items.Create(r.Context(), &item); err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, item)
}

func (s *HTTPServer) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.items.List(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *HTTPServer) handleItemByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(strings.TrimPrefix(r.URL.Path, "/items/"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		item, err := s.items.Get(r.Context(), id)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	case http.MethodPut:
		s.handleUpdateItem(w, r, id)
	case http.MethodDelete:
		if err := s.items.Delete(r.Context(), id); err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, deleteResponse{Deleted: true, ID: id})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleUpdateItem(w http.ResponseWriter, r *http.Request, id int64) {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var patch models.ItemPatch
	if err := decoder.Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	item, err := s.items.Update(r.Context(), id, patch)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *HTTPServer) handleItemsFilter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	filter, err := parseItemFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := s.items.Filter(r.Context(), filter)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *HTTPServer) handleItemsAggregate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	agg, err := s.items.Aggregate(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agg)
}

func (s *HTTPServer) handleItemsExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	items, err := s.items.List(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}

	workbook, err := export.ItemsWorkbook(items)
	if err != nil {
		s.log.Error().Err(err).Msg("build items workbook")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	defer workbook.Close()

	s.writeWorkbook(w, workbook, export.Filename("items"))
}

func (s *HTTPServer) handleClockIns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var req createClockInRequest
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	record := models.ClockInRecord{Email: req.Email, Location: req.Location}
	if err := s.clockIns.Create(r.Context(), &record); err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

func (s *HTTPServer) handleClockInsSubtree(w http.ResponseWriter, r *http.Request) {
	switch strings.TrimPrefix(r.URL.Path, "/clock-in/") {
	case "filter":
		s.handleClockInsFilter(w, r)
	case "export":
		s.handleClockInsExport(w, r)
	default:
		s.handleClockInByID(w, r)
	}
}

func (s *HTTPServer) handleClockInByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id, ok := parseID(strings.TrimPrefix(r.URL.Path, "/clock-in/"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid clock-in id")
		return
	}

	record, err := s.clockIns.Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *HTTPServer) handleClockInsFilter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	filter, err := parseClockInFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := s.clockIns.Filter(r.Context(), filter)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *HTTPServer) handleClockInsExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	records, err := s.clockIns.List(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}

	workbook, err := export.ClockInsWorkbook(records)
	if err != nil {
		s.log.Error().Err(err).Msg("build clock-in workbook")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	defer workbook.Close()

	s.writeWorkbook(w, workbook, export.Filename("clockins"))
}

func (s *HTTPServer) writeWorkbook(w http.ResponseWriter, f *excelize.File, filename string) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if err := f.Write(w); err != nil {
		s.log.Error().Err(err).Msg("stream workbook")
	}
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case store.IsValidation(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, store.ErrItemNotFound), errors.Is(err, store.ErrClockInNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func parseID(raw string) (int64, bool) {
	if raw == "" || strings.Contains(raw, "/") {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func parseItemFilter(r *http.Request) (models.ItemFilter, error) {
	q := r.URL.Query()
	filter := models.ItemFilter{Name: strings.TrimSpace(q.Get("name"))}

	if raw := strings.TrimSpace(q.Get("min_price")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return filter, fmt.Errorf("invalid min_price: %s", raw)
		}
		filter.MinPrice = &v
	}
	if raw := strings.TrimSpace(q.Get("max_price")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return filter, fmt.Errorf("invalid max_price: %s", raw)
		}
		filter.MaxPrice = &v
	}
	if raw := strings.TrimSpace(q.Get("created_after")); raw != "" {
		ts, err := parseTimeParam(raw)
		if err != nil {
			return filter, fmt.Errorf("invalid created_after: %s", raw)
		}
		filter.CreatedAfter = ts
	}

	return filter, nil
}

func parseClockInFilter(r *http.Request) (models.ClockInFilter, error) {
	q := r.URL.Query()
	filter := models.ClockInFilter{
		Email:    strings.TrimSpace(q.Get("email")),
		Location: strings.TrimSpace(q.Get("location")),
	}

	if raw := strings.TrimSpace(q.Get("since")); raw != "" {
		ts, err := parseTimeParam(raw)
		if err != nil {
			return filter, fmt.Errorf("invalid since: %s", raw)
		}
		filter.Since = ts
	}

	return filter, nil
}

// parseTimeParam accepts RFC3339 timestamps and bare dates.
func parseTimeParam(raw string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02", raw)
}

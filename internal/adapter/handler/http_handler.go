package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rl1809/ims/internal/core/domain"
	"github.com/rl1809/ims/internal/core/service"
)

// HTTPHandler is the thin request/response mapping in front of the engine
// services. No business rules live here.
type HTTPHandler struct {
	inventory *service.InventoryService
	purchases *service.PurchaseService
	orders    *service.SupplierOrderService
	sellers   *service.SellerService
}

func NewHTTPHandler(inventory *service.InventoryService, purchases *service.PurchaseService, orders *service.SupplierOrderService, sellers *service.SellerService) *HTTPHandler {
	return &HTTPHandler{
		inventory: inventory,
		purchases: purchases,
		orders:    orders,
		sellers:   sellers,
	}
}

func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)

	mux.HandleFunc("POST /api/suppliers", h.AddSupplier)
	mux.HandleFunc("GET /api/suppliers", h.ListSuppliers)

	mux.HandleFunc("POST /api/stocks", h.AddStock)
	mux.HandleFunc("GET /api/stocks", h.ListStocks)
	mux.HandleFunc("PUT /api/stocks/{id}", h.EditStock)
	mux.HandleFunc("DELETE /api/stocks/{id}", h.RemoveStock)
	mux.HandleFunc("POST /api/stocks/{id}/inventory", h.AddInventory)

	mux.HandleFunc("POST /api/purchases", h.CreatePurchase)
	mux.HandleFunc("GET /api/purchases", h.ListPurchases)
	mux.HandleFunc("GET /api/purchases/{id}/invoice", h.GetInvoice)

	mux.HandleFunc("POST /api/supplier-orders", h.CreateOrder)
	mux.HandleFunc("GET /api/supplier-orders", h.ListOrders)
	mux.HandleFunc("POST /api/supplier-orders/{id}/receive", h.MarkOrderReceived)
	mux.HandleFunc("POST /api/supplier-orders/{id}/cancel", h.CancelOrder)

	mux.HandleFunc("POST /api/sellers", h.AddSeller)
	mux.HandleFunc("GET /api/sellers", h.ListSellers)
	mux.HandleFunc("PUT /api/sellers/{id}/status", h.SetSellerStatus)

	mux.HandleFunc("GET /api/logs", h.ListAuditLog)
}

type NameRequest struct {
	Name string `json:"name"`
}

type IDResponse struct {
	ID string `json:"id"`
}

type StockRequest struct {
	Name         string  `json:"name"`
	SerialNumber string  `json:"serial_number"`
	BuyPrice     float64 `json:"buy_price"`
	SellPrice    float64 `json:"sell_price"`
	SupplierID   string  `json:"supplier_id"`
	Amount       int     `json:"amount"`
}

type StockResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	SerialNumber string  `json:"serial_number"`
	BuyPrice     float64 `json:"buy_price"`
	SellPrice    float64 `json:"sell_price"`
	SupplierID   string  `json:"supplier_id"`
	Amount       int     `json:"amount"`
}

type AmountRequest struct {
	Amount int `json:"amount"`
}

type AmountResponse struct {
	Amount int `json:"amount"`
}

type PurchaseRequest struct {
	RequestID string            `json:"request_id"`
	SellerID  string            `json:"seller_id"`
	BuyerName string            `json:"buyer_name"`
	Items     []PurchaseItemDTO `json:"items"`
}

type PurchaseItemDTO struct {
	StockID string `json:"stock_id"`
	Amount  int    `json:"amount"`
}

type PurchaseResponse struct {
	ID           string            `json:"id"`
	SellerID     string            `json:"seller_id"`
	BuyerName    string            `json:"buyer_name"`
	Status       string            `json:"status"`
	PurchaseDate time.Time         `json:"purchase_date"`
	Items        []PurchaseItemDTO `json:"items"`
}

type InvoiceResponse struct {
	PurchaseID   string           `json:"purchase_id"`
	SellerName   string           `json:"seller_name"`
	BuyerName    string           `json:"buyer_name"`
	Status       string           `json:"status"`
	PurchaseDate time.Time        `json:"purchase_date"`
	Lines        []InvoiceLineDTO `json:"lines"`
}

type InvoiceLineDTO struct {
	StockName string  `json:"stock_name"`
	Amount    int     `json:"amount"`
	SellPrice float64 `json:"sell_price"`
}

type OrderRequest struct {
	SupplierID string            `json:"supplier_id"`
	Items      []PurchaseItemDTO `json:"items"`
}

type OrderResponse struct {
	ID              string            `json:"id"`
	SupplierID      string            `json:"supplier_id"`
	Status          string            `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
	StatusChangedAt *time.Time        `json:"status_changed_at,omitempty"`
	Items           []PurchaseItemDTO `json:"items"`
}

type SupplierResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type SellerResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type SellerStatusRequest struct {
	Status string `json:"status"`
}

type LogResponse struct {
	ID          string    `json:"id"`
	Date        time.Time `json:"date"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) AddSupplier(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	id, err := h.inventory.AddSupplier(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, IDResponse{ID: id})
}

func (h *HTTPHandler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.inventory.ListSuppliers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]SupplierResponse, 0, len(suppliers))
	for _, s := range suppliers {
		resp = append(resp, SupplierResponse{ID: s.ID, Name: s.Name})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) AddStock(w http.ResponseWriter, r *http.Request) {
	var req StockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	id, err := h.inventory.AddStock(r.Context(), service.StockInput{
		Name:         req.Name,
		SerialNumber: req.SerialNumber,
		BuyPrice:     req.BuyPrice,
		SellPrice:    req.SellPrice,
		SupplierID:   req.SupplierID,
		Amount:       req.Amount,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, IDResponse{ID: id})
}

func (h *HTTPHandler) ListStocks(w http.ResponseWriter, r *http.Request) {
	stocks, err := h.inventory.ListStocks(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]StockResponse, 0, len(stocks))
	for _, s := range stocks {
		resp = append(resp, StockResponse{
			ID:           s.ID,
			Name:         s.Name,
			SerialNumber: s.SerialNumber,
			BuyPrice:     s.BuyPrice,
			SellPrice:    s.SellPrice,
			SupplierID:   s.SupplierID,
			Amount:       s.Amount,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) EditStock(w http.ResponseWriter, r *http.Request) {
	var req StockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	err := h.inventory.EditStock(r.Context(), r.PathValue("id"), service.StockInput{
		Name:         req.Name,
		SerialNumber: req.SerialNumber,
		BuyPrice:     req.BuyPrice,
		SellPrice:    req.SellPrice,
		SupplierID:   req.SupplierID,
		Amount:       req.Amount,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *HTTPHandler) RemoveStock(w http.ResponseWriter, r *http.Request) {
	if err := h.inventory.RemoveStock(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *HTTPHandler) AddInventory(w http.ResponseWriter, r *http.Request) {
	var req AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	newAmount, err := h.inventory.AddInventory(r.Context(), r.PathValue("id"), req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AmountResponse{Amount: newAmount})
}

func (h *HTTPHandler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	var req PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	lines := make([]service.PurchaseLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, service.PurchaseLine{StockID: item.StockID, Amount: item.Amount})
	}
	id, err := h.purchases.CreatePurchase(r.Context(), req.RequestID, req.SellerID, req.BuyerName, lines)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, IDResponse{ID: id})
}

func (h *HTTPHandler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.purchases.ListPurchases(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]PurchaseResponse, 0, len(purchases))
	for _, p := range purchases {
		items := make([]PurchaseItemDTO, 0, len(p.Items))
		for _, item := range p.Items {
			items = append(items, PurchaseItemDTO{StockID: item.StockID, Amount: item.Amount})
		}
		resp = append(resp, PurchaseResponse{
			ID:           p.ID,
			SellerID:     p.SellerID,
			BuyerName:    p.BuyerName,
			Status:       string(p.Status),
			PurchaseDate: p.PurchaseDate,
			Items:        items,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	invoice, err := h.purchases.GetInvoice(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	lines := make([]InvoiceLineDTO, 0, len(invoice.Lines))
	for _, line := range invoice.Lines {
		lines = append(lines, InvoiceLineDTO{
			StockName: line.StockName,
			Amount:    line.Amount,
			SellPrice: line.SellPrice,
		})
	}
	writeJSON(w, http.StatusOK, InvoiceResponse{
		PurchaseID:   invoice.PurchaseID,
		SellerName:   invoice.SellerName,
		BuyerName:    invoice.BuyerName,
		Status:       string(invoice.Status),
		PurchaseDate: invoice.PurchaseDate,
		Lines:        lines,
	})
}

func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	lines := make([]service.OrderLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, service.OrderLine{StockID: item.StockID, Amount: item.Amount})
	}
	id, err := h.orders.CreateOrder(r.Context(), req.SupplierID, lines)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, IDResponse{ID: id})
}

func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListOrders(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		items := make([]PurchaseItemDTO, 0, len(o.Items))
		for _, item := range o.Items {
			items = append(items, PurchaseItemDTO{StockID: item.StockID, Amount: item.Amount})
		}
		resp = append(resp, OrderResponse{
			ID:              o.ID,
			SupplierID:      o.SupplierID,
			Status:          string(o.Status),
			CreatedAt:       o.CreatedAt,
			StatusChangedAt: o.StatusChangedAt,
			Items:           items,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) MarkOrderReceived(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.MarkReceived(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *HTTPHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.CancelOrder(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *HTTPHandler) AddSeller(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	id, err := h.sellers.AddSeller(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, IDResponse{ID: id})
}

func (h *HTTPHandler) ListSellers(w http.ResponseWriter, r *http.Request) {
	sellers, err := h.sellers.ListSellers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]SellerResponse, 0, len(sellers))
	for _, s := range sellers {
		resp = append(resp, SellerResponse{ID: s.ID, Name: s.Name, Status: string(s.Status)})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) SetSellerStatus(w http.ResponseWriter, r *http.Request) {
	var req SellerStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	err := h.sellers.SetStatus(r.Context(), r.PathValue("id"), domain.SellerStatus(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *HTTPHandler) ListAuditLog(w http.ResponseWriter, r *http.Request) {
	entries, err := h.inventory.ListAuditLog(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]LogResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, LogResponse{
			ID:          e.ID,
			Date:        e.Date,
			Type:        string(e.Type),
			Description: e.Description,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, service.ErrInactiveSeller):
		status = http.StatusForbidden
		message = err.Error()
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, service.ErrDuplicateRequest),
		errors.Is(err, service.ErrNoOp):
		status = http.StatusConflict
		message = err.Error()
	}

	writeJSON(w, status, ErrorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

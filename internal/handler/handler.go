// Package handler serves the discount HTTP API.
package handler

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/volume-discount/internal/domain/cart"
	"github.com/xenking/volume-discount/internal/domain/discount"
	"github.com/xenking/volume-discount/internal/domain/product"
	"github.com/xenking/volume-discount/internal/telemetry"
	"github.com/xenking/volume-discount/internal/wire"
)

// Handler serves discount resolution endpoints. The product-backed endpoints
// answer 503 when no product store is configured.
type Handler struct {
	engine   *discount.Engine
	carts    *cart.Service
	products product.Repository
	recorder *telemetry.Recorder
}

// NewHandler constructs a Handler. products and recorder may be nil.
func NewHandler(
	engine *discount.Engine,
	products product.Repository,
	recorder *telemetry.Recorder,
) *Handler {
	h := &Handler{
		engine:   engine,
		products: products,
		recorder: recorder,
	}
	if products != nil {
		h.carts = cart.NewService(products, engine)
	}
	return h
}

// Routes mounts the API under r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/run", h.Run)
	r.Post("/carts/discounts", h.QuoteCart)
	r.Get("/products/{productID}/tiers", h.GetTiers)
}

// Run resolves discounts for a full cart input document.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	lines, err := wire.DecodeInput(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.respond(w, r, len(lines), h.engine.Run(r.Context(), lines))
}

// QuoteCart resolves discounts for lines referencing products by id.
func (h *Handler) QuoteCart(w http.ResponseWriter, r *http.Request) {
	if h.carts == nil {
		writeError(w, http.StatusServiceUnavailable, "product store is not configured")
		return
	}

	body, ok := readBody(w, r)
	if !ok {
		return
	}

	req, err := wire.DecodeQuoteRequest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.carts.Quote(r.Context(), req)
	if err != nil {
		h.mapQuoteError(w, r, err)
		return
	}

	h.respond(w, r, len(req.Lines), res)
}

// GetTiers returns the stored tier document of a product and its usable
// rules.
func (h *Handler) GetTiers(w http.ResponseWriter, r *http.Request) {
	if h.products == nil {
		writeError(w, http.StatusServiceUnavailable, "product store is not configured")
		return
	}

	id := chi.URLParam(r, "productID")
	raw, err := h.products.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product tiers not found")
			return
		}
		zctx.From(r.Context()).Error("Get tiers", zap.String("product_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	rules, err := h.products.Rules(r.Context(), id)
	if err != nil {
		zctx.From(r.Context()).Error("Get tier rules", zap.String("product_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, wire.EncodeTiers(id, raw, rules))
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, lines int, res discount.Result) {
	ctx := r.Context()
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int("discount.cart_lines", lines),
		attribute.Int("discount.instructions", len(res.Discounts)),
		attribute.String("discount.strategy", string(res.Strategy)),
	)
	if h.recorder != nil {
		h.recorder.RecordResult(ctx, res)
	}

	writeJSON(w, http.StatusOK, wire.EncodeResult(res))
}

// mapQuoteError converts quote errors to HTTP responses.
func (h *Handler) mapQuoteError(w http.ResponseWriter, r *http.Request, err error) {
	var iqErr *cart.InvalidQuantityError
	if errors.As(err, &iqErr) {
		writeError(w, http.StatusUnprocessableEntity, iqErr.Error())
		return
	}

	var dupErr *cart.DuplicateLineError
	if errors.As(err, &dupErr) {
		writeError(w, http.StatusUnprocessableEntity, dupErr.Error())
		return
	}

	zctx.From(r.Context()).Error("Quote cart", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "read request body")
		return nil, false
	}
	return body, true
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, wire.EncodeError(code, message))
}

func writeJSON(w http.ResponseWriter, code int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

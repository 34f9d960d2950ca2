// Package handler exposes read-only attestation views on the ops listener.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"prism/internal/attestation/models"
	"prism/internal/audit"
	"prism/internal/platform/privacy"
	"prism/pkg/platform/httputil"
	"prism/pkg/requestcontext"
)

// StatusReader reads a wallet's ledger status.
type StatusReader interface {
	Status(ctx context.Context, wallet string) (*models.Status, error)
}

// AuditReader lists audit events for a wallet.
type AuditReader interface {
	List(ctx context.Context, wallet string) ([]audit.Event, error)
}

// Handler serves attestation lookups.
type Handler struct {
	status StatusReader
	audit  AuditReader
	logger *slog.Logger
}

// New creates a Handler. audit may be nil, in which case the audit route is not mounted.
func New(status StatusReader, auditReader AuditReader, logger *slog.Logger) *Handler {
	return &Handler{status: status, audit: auditReader, logger: logger}
}

// Register mounts the attestation routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/v1/attestations/{wallet}", h.handleStatus)
	if h.audit != nil {
		r.Get("/v1/attestations/{wallet}/audit", h.handleAudit)
	}
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	wallet := chi.URLParam(r, "wallet")

	status, err := h.status.Status(ctx, wallet)
	if err != nil {
		h.logger.WarnContext(ctx, "status lookup failed",
			"wallet", privacy.MaskWallet(wallet),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

// AuditEventResponse is the JSON view of an audit event.
type AuditEventResponse struct {
	Timestamp     time.Time `json:"timestamp"`
	Action        string    `json:"action"`
	Decision      string    `json:"decision"`
	Reason        string    `json:"reason,omitempty"`
	Step          string    `json:"step,omitempty"`
	SessionID     string    `json:"sessionId,omitempty"`
	TxHash        string    `json:"txHash,omitempty"`
	ProofHash     string    `json:"proofHash,omitempty"`
	ConfidenceBps uint16    `json:"confidenceBps,omitempty"`
	RequestID     string    `json:"requestId,omitempty"`
}

func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	wallet := chi.URLParam(r, "wallet")

	events, err := h.audit.List(ctx, wallet)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]AuditEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, AuditEventResponse{
			Timestamp:     e.Timestamp,
			Action:        e.Action,
			Decision:      e.Decision,
			Reason:        e.Reason,
			Step:          e.Step,
			SessionID:     e.SessionID,
			TxHash:        e.TxHash,
			ProofHash:     e.ProofHash,
			ConfidenceBps: e.ConfidenceBps,
			RequestID:     e.RequestID,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"wallet": wallet, "events": out})
}

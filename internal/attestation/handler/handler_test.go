package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prism/internal/attestation/models"
	"prism/internal/audit"
	"prism/internal/ledger"
	dErrors "prism/pkg/domain-errors"
)

const wallet = "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

type stubStatus struct {
	status *models.Status
	err    error
}

func (s stubStatus) Status(context.Context, string) (*models.Status, error) {
	return s.status, s.err
}

func serve(h *Handler, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.Register(r)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandleStatus(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		h := New(stubStatus{status: &models.Status{Wallet: wallet, IsHuman: true, TokenID: big.NewInt(3)}}, nil, quietLogger())

		w := serve(h, "/v1/attestations/"+wallet)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"wallet":"`+wallet+`","isHuman":true,"tokenId":3}`, w.Body.String())
	})

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid wallet", dErrors.New(dErrors.CodeValidation, "wallet must be an address"), http.StatusBadRequest, "validation_failed"},
		{"ledger down", &ledger.ChainError{Kind: ledger.KindTransientNetwork, Reason: ledger.ReasonUnreachable}, http.StatusBadGateway, "transient_network"},
		{"not configured", dErrors.New(dErrors.CodeConfiguration, "missing contract"), http.StatusServiceUnavailable, "configuration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(stubStatus{err: tt.err}, nil, quietLogger())
			w := serve(h, "/v1/attestations/nope")
			assert.Equal(t, tt.status, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body["error"])
		})
	}
}

func TestHandleAudit(t *testing.T) {
	store := audit.NewInMemoryStore()
	pub := audit.NewPublisher(store)
	require.NoError(t, pub.Emit(context.Background(), audit.Event{
		Wallet:    wallet,
		Action:    models.AuditActionMinted,
		Decision:  models.AuditDecisionRecorded,
		TxHash:    "0x02",
		RequestID: "req-1",
	}))

	h := New(stubStatus{}, pub, quietLogger())
	w := serve(h, "/v1/attestations/"+wallet+"/audit")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Wallet string               `json:"wallet"`
		Events []AuditEventResponse `json:"events"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Events, 1)
	assert.Equal(t, models.AuditActionMinted, body.Events[0].Action)
	assert.Equal(t, "req-1", body.Events[0].RequestID)

	t.Run("not mounted without reader", func(t *testing.T) {
		w := serve(New(stubStatus{}, nil, quietLogger()), "/v1/attestations/"+wallet+"/audit")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

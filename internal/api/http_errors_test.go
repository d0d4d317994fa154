package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/hugo-lorenzo-mato/pinlog/internal/core"
)

func TestHttpStatusForDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantOK     bool
	}{
		{"validation", core.ErrValidation(core.CodeInvalidDistance, "bad"), http.StatusUnprocessableEntity, true},
		{"type mismatch", core.ErrTypeMismatch("cadence", core.VariantCycling), http.StatusUnprocessableEntity, true},
		{"not found", core.ErrNotFound("workout", "x"), http.StatusNotFound, true},
		{"duplicate", core.ErrDuplicateID("x"), http.StatusConflict, true},
		{"no pending", core.ErrState(core.CodeNoPending, "idle"), http.StatusConflict, true},
		{"storage", core.ErrStorage("kv set", errors.New("down")), http.StatusInternalServerError, true},
		{"corrupt", core.ErrCorruptData("bad checksum"), http.StatusInternalServerError, true},
		{"wrapped", fmt.Errorf("saving: %w", core.ErrNotFound("workout", "y")), http.StatusNotFound, true},
		{"non-domain error", errors.New("plain"), 0, false},
		{"nil error", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, ok := httpStatusForDomainError(tt.err)
			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
		})
	}
}

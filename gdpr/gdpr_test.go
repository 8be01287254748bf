package gdpr_test

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/agent-console/gdpr"
	"github.com/jrsteele09/agent-console/internal/apitest"
	"github.com/jrsteele09/agent-console/internal/errors"
)

func TestGDPRAPI(t *testing.T) {
	ctx := context.Background()
	server := apitest.New(t)

	var lock sync.Mutex
	pending := false
	server.Handle("GET /gdpr/export", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", "attachment; filename=user_data.json")
		_, _ = w.Write([]byte(`{"user": {"id": 1}, "agents": [], "conversations": []}`))
	})
	server.Handle("POST /gdpr/delete-account", func(w http.ResponseWriter, r *http.Request) {
		lock.Lock()
		defer lock.Unlock()
		if pending {
			apitest.WriteDetail(w, http.StatusBadRequest, "Deletion request already pending")
			return
		}
		pending = true
		apitest.WriteJSON(w, http.StatusOK, gdpr.DeletionRequest{Message: "Account deletion requested.", RequestID: 5})
	})
	server.Handle("DELETE /gdpr/delete-account/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "5" {
			apitest.WriteDetail(w, http.StatusNotFound, "Deletion request not found")
			return
		}
		apitest.WriteJSON(w, http.StatusOK, map[string]string{"message": "Account and all data successfully deleted"})
	})
	server.HandlePublic("GET /gdpr/privacy-policy", func(w http.ResponseWriter, r *http.Request) {
		apitest.WriteJSON(w, http.StatusOK, gdpr.LegalText{Title: "Privacy Policy", Content: "# Privacy Policy"})
	})
	server.HandlePublic("GET /gdpr/terms-of-service", func(w http.ResponseWriter, r *http.Request) {
		apitest.WriteJSON(w, http.StatusOK, gdpr.LegalText{Title: "Terms of Service", Content: "# Terms"})
	})

	client, _ := server.SignedInClient(t)
	api := gdpr.New(client)

	t.Run("export is returned verbatim", func(t *testing.T) {
		data, err := api.Export(ctx)
		require.NoError(t, err)
		require.JSONEq(t, `{"user":{"id":1},"agents":[],"conversations":[]}`, string(data))
	})

	t.Run("deletion request then confirm", func(t *testing.T) {
		req, err := api.RequestDeletion(ctx)
		require.NoError(t, err)
		require.Equal(t, int64(5), req.RequestID)

		_, err = api.RequestDeletion(ctx)
		require.ErrorIs(t, err, errors.ErrValidation)

		_, err = api.ConfirmDeletion(ctx, 6)
		require.ErrorIs(t, err, errors.ErrNotFound)

		msg, err := api.ConfirmDeletion(ctx, req.RequestID)
		require.NoError(t, err)
		require.Contains(t, msg, "deleted")
	})

	t.Run("legal texts", func(t *testing.T) {
		policy, err := api.PrivacyPolicy(ctx)
		require.NoError(t, err)
		require.Equal(t, "Privacy Policy", policy.Title)

		terms, err := api.TermsOfService(ctx)
		require.NoError(t, err)
		require.Equal(t, "Terms of Service", terms.Title)
	})
}

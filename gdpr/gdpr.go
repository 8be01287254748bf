// Package gdpr covers the data protection endpoints: export, account deletion
// and the legal texts.
package gdpr

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jrsteele09/agent-console/apiclient"
	"github.com/jrsteele09/agent-console/internal/errors"
)

const (
	RouteExport         = "/gdpr/export"
	RouteDeleteAccount  = "/gdpr/delete-account"
	RoutePrivacyPolicy  = "/gdpr/privacy-policy"
	RouteTermsOfService = "/gdpr/terms-of-service"
)

// DeletionRequest acknowledges a pending account deletion.
type DeletionRequest struct {
	Message   string `json:"message"`
	RequestID int64  `json:"request_id"`
}

// LegalText is a markdown document.
type LegalText struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type API struct {
	r apiclient.Requester
}

func New(r apiclient.Requester) *API {
	return &API{r: r}
}

// Export returns the account's data export exactly as served.
func (a *API) Export(ctx context.Context) (json.RawMessage, error) {
	data, err := apiclient.GetRaw(ctx, a.r, RouteExport)
	if err != nil {
		return nil, errors.Wrapf(err, "[gdpr Export]")
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("[gdpr Export] %w: export is not valid JSON", errors.ErrRemote)
	}
	return json.RawMessage(data), nil
}

// RequestDeletion starts account deletion. A second request while one is pending
// is rejected by the server with ErrValidation.
func (a *API) RequestDeletion(ctx context.Context) (*DeletionRequest, error) {
	var out DeletionRequest
	if err := apiclient.DoJSON(ctx, a.r, http.MethodPost, RouteDeleteAccount, nil, &out); err != nil {
		return nil, errors.Wrapf(err, "[gdpr RequestDeletion]")
	}
	return &out, nil
}

// ConfirmDeletion deletes the account and all its data. The session's
// credentials are useless afterwards.
func (a *API) ConfirmDeletion(ctx context.Context, requestID int64) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	path := fmt.Sprintf("%s/%d", RouteDeleteAccount, requestID)
	if err := apiclient.DoJSON(ctx, a.r, http.MethodDelete, path, nil, &out); err != nil {
		return "", errors.Wrapf(err, "[gdpr ConfirmDeletion] request %d", requestID)
	}
	return out.Message, nil
}

func (a *API) PrivacyPolicy(ctx context.Context) (*LegalText, error) {
	return a.legal(ctx, RoutePrivacyPolicy)
}

func (a *API) TermsOfService(ctx context.Context) (*LegalText, error) {
	return a.legal(ctx, RouteTermsOfService)
}

func (a *API) legal(ctx context.Context, path string) (*LegalText, error) {
	var out LegalText
	if err := apiclient.DoJSON(ctx, a.r, http.MethodGet, path, nil, &out); err != nil {
		return nil, errors.Wrapf(err, "[gdpr legal] %s", path)
	}
	return &out, nil
}

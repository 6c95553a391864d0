package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/matheuscscp/lark-oidc-proxy/internal/constants"
	"github.com/matheuscscp/lark-oidc-proxy/internal/logging"
	"github.com/matheuscscp/lark-oidc-proxy/internal/provider"
)

const maxFormMemory = 1 << 20

type upstream interface {
	GetApplicationAccessToken(ctx context.Context, clientID, clientSecret string) (*provider.Response, error)
	GetUserAccessToken(ctx context.Context, appAccessToken, grantType, code string) (*provider.Response, error)
	GetUserInfo(ctx context.Context, header http.Header) (*provider.Response, error)
}

// basicCredentials splits the Basic token on every ':' and keeps the first two
// pieces, so a secret containing ':' is cut short.
func basicCredentials(r *http.Request) (clientID, clientSecret string, ok bool) {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, constants.AuthSchemeBasic) {
		return "", "", false
	}
	token := strings.Split(auth, " ")[1]
	b, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(token, "="))
	if err != nil {
		return "", "", false
	}
	credentials := strings.Split(string(b), ":")
	clientID = credentials[0]
	if len(credentials) > 1 {
		clientSecret = credentials[1]
	}
	return clientID, clientSecret, true
}

var errNotForm = errors.New("body is not form data")

// exchangeParams flattens the form body, keeping the last value of each key.
// Only urlencoded and multipart bodies are accepted.
func exchangeParams(r *http.Request) (map[string]string, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errNotForm, err)
	}
	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %s", errNotForm, mediaType)
	}
	params := make(map[string]string, len(r.PostForm))
	for k, vs := range r.PostForm {
		if len(vs) > 0 {
			params[k] = vs[len(vs)-1]
		}
	}
	return params, nil
}

func copyUpstreamHeaders(w http.ResponseWriter, h http.Header) {
	dst := w.Header()
	for k, vs := range provider.CloneEndToEnd(h, "Content-Length", "Content-Encoding", constants.HeaderRequestID) {
		dst[k] = vs
	}
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromRequest(r).WithError(err).Error("failed to write response")
	}
}

func respondStatus(w http.ResponseWriter, status int) {
	http.Error(w, http.StatusText(status), status)
}

package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/matheuscscp/lark-oidc-proxy/internal/constants"
	"github.com/matheuscscp/lark-oidc-proxy/internal/logging"
)

func newAPI(p upstream) http.Handler {
	r := chi.NewRouter()
	mountAPI(r, p)
	return r
}

// mountAPI registers the two proxied endpoints. Every other path or method
// is answered with 401.
func mountAPI(r chi.Router, p upstream) {
	r.Post(constants.PathToken, handleToken(p))
	r.Get(constants.PathUserInfo, handleUserInfo(p))

	unauthorized := func(w http.ResponseWriter, r *http.Request) {
		respondStatus(w, http.StatusUnauthorized)
	}
	r.NotFound(unauthorized)
	r.MethodNotAllowed(unauthorized)
}

func handleToken(p upstream) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondStatus(w, http.StatusMethodNotAllowed)
			return
		}

		clientID, clientSecret, ok := basicCredentials(r)
		if !ok {
			respondStatus(w, http.StatusUnauthorized)
			return
		}

		params, err := exchangeParams(r)
		if err != nil {
			logging.FromRequest(r).WithError(err).Error("failed to parse form")
			http.Error(w, "Failed to parse form", http.StatusBadRequest)
			return
		}
		grantType := params[constants.FormParamGrantType]
		code := params[constants.FormParamAuthorizationCode]

		l := logging.FromRequest(r).WithFields(logrus.Fields{
			"clientID":    clientID,
			"grantType":   grantType,
			"redirectURI": params[constants.FormParamRedirectURI],
		})

		// Exchange application credentials.
		appResp, err := p.GetApplicationAccessToken(r.Context(), clientID, clientSecret)
		if err != nil {
			l.WithError(err).Error("failed to get app access token")
			respondStatus(w, http.StatusBadGateway)
			return
		}
		appAccessToken, ok := appResp.AppAccessToken()
		if !ok {
			l.WithField("upstreamStatus", appResp.StatusCode).Info("provider rejected application credentials")
			respondJSON(w, r, http.StatusBadRequest, appResp.Body)
			return
		}

		// Exchange authorization code. Provider errors are passed through as-is.
		userResp, err := p.GetUserAccessToken(r.Context(), appAccessToken, grantType, code)
		if err != nil {
			l.WithError(err).Error("failed to get user access token")
			respondStatus(w, http.StatusBadGateway)
			return
		}

		body := userResp.Body
		if data, ok := userResp.Data(); ok {
			body = data
		}
		respondJSON(w, r, http.StatusOK, body)

		l.WithField("upstreamStatus", userResp.StatusCode).Debug("authorization code exchanged")
	}
}

func handleUserInfo(p upstream) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respondStatus(w, http.StatusMethodNotAllowed)
			return
		}

		resp, err := p.GetUserInfo(r.Context(), r.Header)
		if err != nil {
			logging.FromRequest(r).WithError(err).Error("failed to fetch user info")
			http.Error(w, "Error fetching user info", http.StatusInternalServerError)
			return
		}

		body := resp.Body
		if data, ok := resp.Data(); ok {
			switch user := data.(type) {
			case map[string]any:
				if unionID, ok := user[constants.FieldUnionID]; ok {
					user[constants.FieldSubject] = unionID
				} else {
					delete(user, constants.FieldSubject)
				}
			case []any:
				// Arrays pass through untouched.
			default:
				// A scalar user record cannot carry a subject.
				logging.FromRequest(r).WithField("upstreamStatus", resp.StatusCode).
					Errorf("unexpected user info data of type %T", data)
				http.Error(w, "Error fetching user info", http.StatusInternalServerError)
				return
			}
			body = data
		}

		copyUpstreamHeaders(w, resp.Header)
		respondJSON(w, r, resp.StatusCode, body)
	}
}

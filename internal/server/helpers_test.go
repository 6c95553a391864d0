package server

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/onsi/gomega"
)

func TestBasicCredentials(t *testing.T) {
	encode := func(s string) string {
		return base64.StdEncoding.EncodeToString([]byte(s))
	}

	tests := []struct {
		name           string
		authorization  string
		expectedID     string
		expectedSecret string
		expectedOK     bool
	}{
		{
			name:           "id and secret",
			authorization:  "Basic " + encode("cli_a1:secret"),
			expectedID:     "cli_a1",
			expectedSecret: "secret",
			expectedOK:     true,
		},
		{
			name:           "secret with colon truncated",
			authorization:  "Basic " + encode("cli_a1:sec:ret"),
			expectedID:     "cli_a1",
			expectedSecret: "sec",
			expectedOK:     true,
		},
		{
			name:          "no colon",
			authorization: "Basic " + encode("cli_a1"),
			expectedID:    "cli_a1",
			expectedOK:    true,
		},
		{
			name:          "empty token",
			authorization: "Basic ",
			expectedOK:    true,
		},
		{
			name:           "extra words after token ignored",
			authorization:  "Basic " + encode("a:b") + " trailing",
			expectedID:     "a",
			expectedSecret: "b",
			expectedOK:     true,
		},
		{
			name: "missing header",
		},
		{
			name:          "wrong scheme",
			authorization: "Bearer " + encode("a:b"),
		},
		{
			name:          "scheme without space",
			authorization: "Basic",
		},
		{
			name:          "not base64",
			authorization: "Basic ???",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)

			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.authorization != "" {
				req.Header.Set("Authorization", tt.authorization)
			}

			id, secret, ok := basicCredentials(req)
			g.Expect(ok).To(Equal(tt.expectedOK))
			g.Expect(id).To(Equal(tt.expectedID))
			g.Expect(secret).To(Equal(tt.expectedSecret))
		})
	}
}

func TestExchangeParams(t *testing.T) {
	t.Run("url encoded", func(t *testing.T) {
		g := NewWithT(t)

		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("a=1&b=2&a=3&empty="))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		params, err := exchangeParams(req)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(params).To(Equal(map[string]string{"a": "3", "b": "2", "empty": ""}))
	})

	t.Run("multipart", func(t *testing.T) {
		g := NewWithT(t)

		body := "--b\r\n" +
			"Content-Disposition: form-data; name=\"a\"\r\n\r\n1\r\n" +
			"--b\r\n" +
			"Content-Disposition: form-data; name=\"a\"\r\n\r\n2\r\n" +
			"--b--\r\n"
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "multipart/form-data; boundary=b")

		params, err := exchangeParams(req)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(params).To(Equal(map[string]string{"a": "2"}))
	})

	for _, tt := range []struct {
		name        string
		contentType string
		body        string
		notForm     bool
	}{
		{name: "invalid url encoding", contentType: "application/x-www-form-urlencoded", body: "code=%zz"},
		{name: "multipart without boundary", contentType: "multipart/form-data", body: "code=x"},
		{name: "truncated multipart", contentType: "multipart/form-data; boundary=b", body: "--b\r\nContent-Disposition: form-data; name=\"a\"\r\n\r\n1"},
		{name: "json body", contentType: "application/json", body: `{"code":"x"}`, notForm: true},
		{name: "plain text body", contentType: "text/plain", body: "code=x", notForm: true},
		{name: "missing content type", body: "code=x", notForm: true},
		{name: "malformed content type", contentType: "application/x-www-form-urlencoded; =", body: "code=x", notForm: true},
	} {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)

			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}

			params, err := exchangeParams(req)
			g.Expect(err).To(HaveOccurred())
			g.Expect(params).To(BeNil())
			if tt.notForm {
				g.Expect(err).To(MatchError(errNotForm))
			}
		})
	}
}

func TestRespondJSON(t *testing.T) {
	g := NewWithT(t)

	rec := httptest.NewRecorder()
	respondJSON(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusCreated, map[string]any{"a": 1})

	g.Expect(rec.Code).To(Equal(http.StatusCreated))
	g.Expect(rec.Header().Get("Content-Type")).To(Equal("application/json"))
	g.Expect(rec.Body.String()).To(MatchJSON(`{"a":1}`))
}

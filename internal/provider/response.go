package provider

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/matheuscscp/lark-oidc-proxy/internal/constants"
)

// Response is a decoded provider reply. Body holds any JSON value, with
// numbers kept as json.Number so they are echoed back unchanged.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       any
}

// Field returns the named member of an object body, or nil.
func (r *Response) Field(name string) any {
	obj, ok := r.Body.(map[string]any)
	if !ok {
		return nil
	}
	return obj[name]
}

func (r *Response) AppAccessToken() (string, bool) {
	v := r.Field(constants.FieldAppAccessToken)
	if !Truthy(v) {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return fmt.Sprint(v), true
}

func (r *Response) Data() (any, bool) {
	v := r.Field(constants.FieldData)
	return v, Truthy(v)
}

// Truthy reports whether a decoded JSON value counts as present. Null, false,
// zero and the empty string do not; objects and arrays always do.
func Truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case json.Number:
		f, err := v.Float64()
		return err != nil || f != 0
	case float64:
		return v != 0
	default:
		return true
	}
}

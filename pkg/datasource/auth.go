package datasource

import (
	"fmt"
	"net/http"

	"github.com/goliatone/go-formflow/pkg/descriptor"
)

const defaultAPIKeyHeader = "X-Api-Key"

// ApplyAuth attaches the configured authentication headers to an outbound
// request. A nil config leaves the request untouched.
func ApplyAuth(req *http.Request, auth *descriptor.AuthConfig) {
	if req == nil || auth == nil {
		return
	}
	switch auth.Type {
	case descriptor.AuthBearer:
		req.Header.Set("Authorization", "Bearer "+auth.Token)
	case descriptor.AuthAPIKey:
		header := auth.HeaderName
		if header == "" {
			header = defaultAPIKeyHeader
		}
		req.Header.Set(header, auth.Token)
	case descriptor.AuthBasic:
		req.SetBasicAuth(auth.Username, auth.Password)
	}
}

// authCacheKey canonically serialises an auth descriptor for cache keying.
// Each strategy normalises distinctly and absent auth is its own key, so two
// configs share a cache entry only when they would send identical credentials.
func authCacheKey(auth *descriptor.AuthConfig) string {
	if auth == nil {
		return "auth:none"
	}
	switch auth.Type {
	case descriptor.AuthBearer:
		return "auth:bearer:" + auth.Token
	case descriptor.AuthAPIKey:
		header := auth.HeaderName
		if header == "" {
			header = defaultAPIKeyHeader
		}
		return fmt.Sprintf("auth:apikey:%s:%s", header, auth.Token)
	case descriptor.AuthBasic:
		return fmt.Sprintf("auth:basic:%s:%s", auth.Username, auth.Password)
	default:
		return "auth:" + string(auth.Type)
	}
}

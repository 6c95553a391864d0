package constants

const (
	LarkOIDCProxy = "lark-oidc-proxy"

	// Inbound endpoints.
	PathToken    = "/open-apis/authen/v1/token"
	PathUserInfo = "/open-apis/authen/v1/user_info"

	// Upstream endpoints, relative to the provider base URL.
	UpstreamPathAppAccessToken  = "/open-apis/auth/v3/app_access_token/internal"
	UpstreamPathUserAccessToken = "/open-apis/authen/v1/oidc/access_token"
	UpstreamPathUserInfo        = PathUserInfo

	FormParamAuthorizationCode = "code"
	FormParamGrantType         = "grant_type"
	FormParamRedirectURI       = "redirect_uri"

	FieldAppAccessToken = "app_access_token"
	FieldData           = "data"
	FieldSubject        = "sub"
	FieldUnionID        = "union_id"

	HeaderRequestID = "X-Request-ID"

	AuthSchemeBasic = "Basic "

	DefaultProviderBaseURL = "https://open.larksuite.com"
)

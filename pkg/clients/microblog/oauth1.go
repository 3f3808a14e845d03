package microblog

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/webpilot-io/webpilot/pkg/protocol"
)

// percentEncode implements RFC 3986 encoding as OAuth 1.0a requires it:
// only ALPHA / DIGIT / "-" / "." / "_" / "~" pass through. In particular
// ! ' ( ) * are encoded, unlike in most generic URL encoders; the provider
// verifies signatures byte for byte, so this must not drift.
func percentEncode(input string) string {
	var b strings.Builder

	for i := 0; i < len(input); i++ {
		c := input[i]
		switch {
		case c >= 'A' && c <= 'Z',
			c >= 'a' && c <= 'z',
			c >= '0' && c <= '9',
			c == '-', c == '.', c == '_', c == '~':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}

	return b.String()
}

// parameterString builds the canonical sorted parameter string over the
// oauth parameters plus every query and form parameter of the request.
func parameterString(params map[string]string) string {
	encoded := make([]string, 0, len(params))
	for k, v := range params {
		encoded = append(encoded, percentEncode(k)+"="+percentEncode(v))
	}

	sort.Strings(encoded)

	return strings.Join(encoded, "&")
}

// signatureBase is METHOD&enc(baseURL)&enc(parameterString).
func signatureBase(method, baseURL string, params map[string]string) string {
	return strings.ToUpper(method) + "&" + percentEncode(baseURL) + "&" + percentEncode(parameterString(params))
}

// sign computes the HMAC-SHA1 signature over the base string with the key
// enc(consumerSecret)&enc(accessSecret), base64-encoded.
func sign(base string, creds protocol.MicroblogCredentials) string {
	key := percentEncode(creds.ConsumerSecret) + "&" + percentEncode(creds.AccessSecret)

	mac := hmac.New(sha1.New, []byte(key))
	mac.Write([]byte(base))

	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func newNonce() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 36)
	}

	return hex.EncodeToString(buf)
}

// authorizationHeader builds the signed OAuth header for one request.
// requestParams must contain every query and form-encoded body parameter.
// Parameters carried in a JSON body are never signed.
func authorizationHeader(creds protocol.MicroblogCredentials, method, baseURL string, requestParams map[string]string, nonce string, timestamp time.Time) string {
	oauthParams := map[string]string{
		"oauth_consumer_key":     creds.ConsumerKey,
		"oauth_nonce":            nonce,
		"oauth_signature_method": "HMAC-SHA1",
		"oauth_timestamp":        strconv.FormatInt(timestamp.Unix(), 10),
		"oauth_token":            creds.AccessToken,
		"oauth_version":          "1.0",
	}

	all := make(map[string]string, len(oauthParams)+len(requestParams))
	for k, v := range requestParams {
		all[k] = v
	}

	for k, v := range oauthParams {
		all[k] = v
	}

	oauthParams["oauth_signature"] = sign(signatureBase(method, baseURL, all), creds)

	keys := make([]string, 0, len(oauthParams))
	for k := range oauthParams {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", percentEncode(k), percentEncode(oauthParams[k])))
	}

	return "OAuth " + strings.Join(parts, ", ")
}

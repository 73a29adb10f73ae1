package transport

import (
	"net/http"
	"sort"
	"strings"

	"github.com/tidwall/sjson"
)

const DefaultAuthHeader = "Authorization"

// HeaderModifier is a function type that modifies an http.Header.
type HeaderModifier func(header http.Header)

// Credentials is the opaque token presented on both channels. It is never inspected.
type Credentials struct {
	Header string
	Token  string
}

func (c Credentials) headerName() string {
	if c.Header == "" {
		return DefaultAuthHeader
	}
	return c.Header
}

func (c Credentials) Value() string {
	return "Bearer " + c.Token
}

// Modifier sets the credential header. Empty credentials leave the header untouched.
func (c Credentials) Modifier() HeaderModifier {
	return func(header http.Header) {
		if c.Token == "" {
			return
		}
		header.Set(c.headerName(), c.Value())
	}
}

// InjectHeader returns a modifier that sets every header of inject, replacing existing values.
func InjectHeader(inject http.Header) HeaderModifier {
	return func(header http.Header) {
		for key, values := range inject {
			header[http.CanonicalHeaderKey(key)] = append([]string(nil), values...)
		}
	}
}

// ChainHeaderModifiers applies modifiers in order.
func ChainHeaderModifiers(modifiers ...HeaderModifier) HeaderModifier {
	return func(header http.Header) {
		for _, modifier := range modifiers {
			if modifier != nil {
				modifier(header)
			}
		}
	}
}

// InitPayload renders the headers produced by modifier into a connection_init payload,
// one string field per header. It returns nil when modifier sets nothing.
func InitPayload(modifier HeaderModifier) ([]byte, error) {
	header := http.Header{}
	if modifier != nil {
		modifier(header)
	}
	if len(header) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(header))
	for key := range header {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	payload := []byte(`{}`)
	for _, key := range keys {
		var err error
		payload, err = sjson.SetBytes(payload, payloadPathEscaper.Replace(key), header.Get(key))
		if err != nil {
			return nil, err
		}
	}

	return payload, nil
}

var payloadPathEscaper = strings.NewReplacer(`.`, `\.`, `*`, `\*`, `?`, `\?`)

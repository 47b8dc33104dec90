package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	"click-merchant/internal/click"
)

const maxBodyBytes = 1 << 20

var errInvalidJSON = click.NewError(click.ErrInvalidJSONRPCObject, "Incorrect JSON-RPC object")

// decodeParams reads form values first and falls back to a JSON object
// body. An empty body yields empty params.
func decodeParams(r *http.Request) (click.Params, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}

	if isForm(r.Header.Get("Content-Type")) {
		values, err := url.ParseQuery(string(body))
		if err == nil && len(values) > 0 {
			return fromValues(values), nil
		}
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return click.Params{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var params click.Params
	if err := dec.Decode(&params); err != nil || params == nil {
		return nil, errInvalidJSON
	}
	return params, nil
}

func isForm(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/x-www-form-urlencoded"
}

func fromValues(values url.Values) click.Params {
	params := make(click.Params, len(values))
	for key := range values {
		params[key] = values.Get(key)
	}
	return params
}

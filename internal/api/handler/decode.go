package handler

import (
	"encoding/json"
	"io"
	"net/http"
)

// decodeOptionalBody decodes a JSON body into v, treating an empty body as
// the zero value rather than an error
func decodeOptionalBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == io.EOF {
		return nil
	}
	return err
}

package server

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/wadakatu/gitlyte/internal/logfields"
)

// writeJSON encodes v and writes it under the given status code. Encoding
// happens into an intermediate buffer so a serialization failure never
// produces a partial response.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(true)
	if err := enc.Encode(v); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("write JSON body", logfields.Error(err))
		return err
	}
	return nil
}

// writeJSONPretty indents the response when the request carries pretty=1 or
// pretty=true, and otherwise defers to writeJSON. Indent failures fall back to
// the compact form.
func writeJSONPretty(w http.ResponseWriter, r *http.Request, status int, v any) error {
	if r != nil {
		if p := r.URL.Query().Get("pretty"); p == "1" || p == "true" {
			b, err := json.MarshalIndent(v, "", "  ")
			if err == nil {
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(status)
				if _, werr := w.Write(append(b, '\n')); werr != nil {
					slog.Error("write indented JSON body", logfields.Error(werr))
					return werr
				}
				return nil
			}
			slog.Warn("indent JSON failed, writing compact", logfields.Error(err))
		}
	}
	return writeJSON(w, status, v)
}

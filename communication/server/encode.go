package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"riskserver/communication"

	"github.com/fxamacker/cbor/v2"
	"github.com/rs/zerolog/log"
)

// cborMode encodes with Core Deterministic Encoding so identical views give
// identical bytes. Phases go out as their names.
var cborMode cbor.EncMode

func init() {
	opts := cbor.CoreDetEncOptions()
	opts.TextMarshaler = cbor.TextMarshalerTextString
	opts.Time = cbor.TimeRFC3339Nano
	var err error
	cborMode, err = opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("server: CBOR encoder initialization failed: %v", err))
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func wantsCBOR(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), communication.ContentTypeCBOR)
}

// writeResponse encodes payload as CBOR when the caller asks for it and as
// JSON otherwise.
func writeResponse(w http.ResponseWriter, r *http.Request, status int, payload any) {
	if wantsCBOR(r) {
		data, err := cborMode.Marshal(payload)
		if err != nil {
			log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to encode CBOR response")
			http.Error(w, "failed to encode response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", communication.ContentTypeCBOR)
		w.WriteHeader(status)
		w.Write(data)
		return
	}
	w.Header().Set("Content-Type", communication.ContentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeResponse(w, r, status, errorResponse{Error: msg})
}

// decodeBody reads a JSON request body into v, bounded in size.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, communication.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("bad request body: %w", err)
	}
	return nil
}

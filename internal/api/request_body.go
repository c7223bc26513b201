package api

import (
	"encoding/json"
	"net/http"
)

// maxJSONBodyBytes caps request bodies before decoding. Workload and exec
// payloads are small; anything near the cap is a misbehaving client.
const maxJSONBodyBytes int64 = 2 << 20

// decodeJSONBody decodes the request body into dst. The size cap is
// enforced through MaxBytesReader so an oversized body fails the read
// instead of buffering unbounded input.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

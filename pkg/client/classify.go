package client

import (
	"encoding/json"
	"io"
	"net/http"
)

// missingErrorText substitutes the diagnostic text when a 400 body cannot be
// parsed. The value is part of the client's contract and must not change.
const missingErrorText = "error text is missing"

// classifyStatus maps a response status to the error taxonomy, evaluated in
// fixed order. A nil return means success and hands the body to the decoder.
// The 429 branch deliberately never reads the body.
func classifyStatus(resp *http.Response) *APIError {
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return newRateLimited()
	case resp.StatusCode == http.StatusBadRequest:
		text, code := badRequestDetails(resp.Body)
		return newBadRequest(text, code)
	case resp.StatusCode >= 300:
		return newUnexpectedStatus(resp.StatusCode)
	}
	return nil
}

// badRequestDetails extracts the {"text","error"} diagnostic from a 400
// body. Any failure, from wrong content to missing fields, substitutes the
// documented fallback values.
func badRequestDetails(body io.Reader) (string, int) {
	var payload struct {
		Text *string `json:"text"`
		Code *int    `json:"error"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return missingErrorText, -1
	}
	if payload.Text == nil || payload.Code == nil {
		return missingErrorText, -1
	}
	return *payload.Text, *payload.Code
}

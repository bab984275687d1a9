package models

import "errors"

// ErrServiceUnavailable marks an AI backend that could not be reached or
// kept erroring after retries.
var ErrServiceUnavailable = errors.New("ai service unavailable")

// StreamResponse is one chunk of a chat completion. Done marks the end of a
// successful stream; Err terminates it.
type StreamResponse struct {
	Content string
	Done    bool
	Err     error
}

// AIError is the error envelope returned by chat APIs on non-200 responses.
type AIError struct {
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
		Status  string `json:"status"`
	} `json:"error"`
}

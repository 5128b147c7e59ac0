package ipc

// Request is one newline-delimited JSON command sent to the session owner.
// Commands: status, toggle, stop, clear-error.
type Request struct {
	Command string `json:"command"`
}

// Response carries the owner's state snapshot and outcome for one request.
type Response struct {
	OK      bool   `json:"ok"`
	State   string `json:"state,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// internal/protocol/msgid.go
package protocol

import "fmt"

// =======================
// Canonical response bodies
// =======================
const (
	NotFoundBody = "404 Not Found!!!"

	failureBodyPrefix = "500 Exception, Detail: "
)

// FailureBody renders the generic failure response for a dispatch error.
func FailureBody(err error) string {
	return fmt.Sprintf("%s%v", failureBodyPrefix, err)
}

// =======================
// WebSocket frame fields
// =======================
const (
	FrameID     = "id"
	FramePath   = "path"
	FrameParams = "params"
	FrameStatus = "status"
	FrameBody   = "body"
)

package retell

// ErrorContent is the caller-facing apology spoken when a turn fails.
const ErrorContent = "I apologize, I'm having a little trouble right now. Could you please repeat that?"

// Response is the outbound reply frame. TransferNumber, when present, tells
// the provider to speak Content and then transfer the call; its absence means
// speak only.
type Response struct {
	ResponseType    string `json:"response_type"`
	ResponseID      int    `json:"response_id"`
	Content         string `json:"content"`
	ContentComplete bool   `json:"content_complete"`
	EndCall         bool   `json:"end_call"`
	TransferNumber  string `json:"transfer_number,omitempty"`
}

// ConfigAck is the static capability acknowledgment for the handshake event.
type ConfigAck struct {
	ResponseType string `json:"response_type"`
	Config       struct {
		AutoReconnect bool `json:"auto_reconnect"`
		CallDetails   bool `json:"call_details"`
	} `json:"config"`
}

// NewReply builds a speak-only response correlated with responseID.
func NewReply(responseID int, content string, endCall bool) Response {
	return Response{
		ResponseType:    "response",
		ResponseID:      responseID,
		Content:         content,
		ContentComplete: true,
		EndCall:         endCall,
	}
}

// NewTransfer builds a speak-then-transfer response.
func NewTransfer(responseID int, content, transferNumber string) Response {
	resp := NewReply(responseID, content, false)
	resp.TransferNumber = transferNumber
	return resp
}

// NewErrorReply builds the fixed apology response for a failed turn.
func NewErrorReply(responseID int) Response {
	return NewReply(responseID, ErrorContent, false)
}

// NewConfigAck builds the capability acknowledgment.
func NewConfigAck() ConfigAck {
	var ack ConfigAck
	ack.ResponseType = "config"
	ack.Config.AutoReconnect = true
	ack.Config.CallDetails = true
	return ack
}

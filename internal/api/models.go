// internal/api/models.go
package api

// SubmitRequest is the body of the submit and follow-up endpoints. Text
// and AudioBase64 are alternatives; audio wins when both are present.
type SubmitRequest struct {
	SessionID   string `json:"sessionId,omitempty"`
	Text        string `json:"text,omitempty"`
	AudioBase64 string `json:"audio,omitempty"`
}

// TurnReply mirrors one assistant turn back to the client. Reply holds
// either the next follow-up prompt or the confirmation summary.
type TurnReply struct {
	SessionID      string `json:"sessionId"`
	RecognizedText string `json:"recognizedText"`
	Reply          string `json:"reply"`
	IsComplete     bool   `json:"isComplete"`
	MissingSlot    string `json:"missingSlot,omitempty"`
}

// ConfirmRequest finalizes a session. Text optionally overrides the
// session's accumulated utterance as the final extraction input.
type ConfirmRequest struct {
	SessionID string `json:"sessionId"`
	Text      string `json:"text,omitempty"`
}

// ConfirmReply returns the persisted record's identity.
type ConfirmReply struct {
	RequestID string  `json:"requestId"`
	ProjectID string  `json:"projectId"`
	Amount    float64 `json:"amount"`
	Reason    string  `json:"reason"`
	Status    string  `json:"status"`
}

package dto

import "github.com/23f2003700/padosi-politics/internal/models"

type EscalateRequest struct {
	EscalateTo models.EscalationTarget `json:"escalate_to"`
	Reason     string                  `json:"reason"`
}

type AcknowledgeRequest struct {
	ResponseNote string `json:"response_note"`
}

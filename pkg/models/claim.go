package models

import "time"

// Claim is a request by a user to recover an item they say is theirs.
type Claim struct {
	ID             string      `json:"id"`
	ItemID         string      `json:"itemId"`
	ClaimantID     string      `json:"claimantId"`
	Status         ClaimStatus `json:"status"`
	SubmittedAt    time.Time   `json:"submittedAt"`
	ReviewedAt     *time.Time  `json:"reviewedAt,omitempty"`
	ReviewerID     string      `json:"reviewerId,omitempty"`
	SecretDetail   string      `json:"-"`
	Justification  string      `json:"justification,omitempty"`
	AttachmentURLs []string    `json:"attachmentUrls,omitempty"`
}

// SubmitClaimRequest is the body of a claim submission. SecretDetail is a
// detail only the owner would know and is never echoed back.
type SubmitClaimRequest struct {
	SecretDetail   string   `json:"secretDetail" validate:"required,notblank"`
	Justification  string   `json:"justification" validate:"required,notblank"`
	AttachmentURLs []string `json:"attachmentUrls" validate:"max=4,dive,notblank"`
}

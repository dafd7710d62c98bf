package claims

import (
	"strings"
	"time"

	"github.com/jredh-dev/lostfound/internal/database"
	"github.com/jredh-dev/lostfound/pkg/models"
)

// Collection is the store collection holding claim documents.
const Collection = "claims"

const (
	fieldItemID         = "itemId"
	fieldClaimantID     = "claimantId"
	fieldStatus         = "status"
	fieldSubmittedAt    = "submittedAt"
	fieldReviewedAt     = "reviewedAt"
	fieldReviewerID     = "reviewerId"
	fieldSecretDetail   = "secretDetail"
	fieldJustification  = "justification"
	fieldAttachmentURLs = "attachmentUrls"
)

// Decode maps a stored claim document to a Claim. A claim without a
// submission time is dated now.
func Decode(doc database.Document, now time.Time) (models.Claim, error) {
	d := database.NewDecoder(doc)

	raw := d.Str(fieldStatus)
	if d.Err == nil && strings.TrimSpace(raw) == "" {
		d.Fail(fieldStatus, "missing")
	}
	status, err := models.ParseClaimStatus(raw)
	if err != nil {
		d.Fail(fieldStatus, err.Error())
	}

	c := models.Claim{
		ID:             doc.ID,
		ItemID:         d.Str(fieldItemID),
		ClaimantID:     d.Str(fieldClaimantID),
		Status:         status,
		ReviewedAt:     d.Timestamp(fieldReviewedAt),
		ReviewerID:     d.Str(fieldReviewerID),
		SecretDetail:   d.Str(fieldSecretDetail),
		Justification:  d.Str(fieldJustification),
		AttachmentURLs: d.List(fieldAttachmentURLs),
	}
	submitted := d.Timestamp(fieldSubmittedAt)
	if d.Err != nil {
		return models.Claim{}, d.Err
	}
	if submitted == nil {
		c.SubmittedAt = now.UTC()
	} else {
		c.SubmittedAt = *submitted
	}
	return c, nil
}

func encodeSubmission(itemID, claimantID string, req models.SubmitClaimRequest, at time.Time) map[string]any {
	urls := []string{}
	for _, u := range req.AttachmentURLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	return map[string]any{
		fieldItemID:         itemID,
		fieldClaimantID:     claimantID,
		fieldStatus:         models.ClaimStatusPending.StorageValue(),
		fieldSubmittedAt:    at.UTC(),
		fieldSecretDetail:   strings.TrimSpace(req.SecretDetail),
		fieldJustification:  strings.TrimSpace(req.Justification),
		fieldAttachmentURLs: urls,
	}
}

func encodeDecision(status models.ClaimStatus, reviewerID string, at time.Time) map[string]any {
	return map[string]any{
		fieldStatus:     status.StorageValue(),
		fieldReviewedAt: at.UTC(),
		fieldReviewerID: reviewerID,
	}
}

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "civicfix/pkg/domain-errors"
)

// Location pins a complaint (or a verification) to a physical place.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

// Verification is the owner's single post-resolution review. Each record
// carries its own id so the admin evidence view can address it directly.
type Verification struct {
	ID          uuid.UUID `json:"id"`
	VerifierID  uuid.UUID `json:"verifier_id"`
	Confirmed   bool      `json:"confirmed"`
	EvidenceURL string    `json:"evidence_url"`
	Location    Location  `json:"location"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Complaint is the aggregate root for one reported civic issue.
//
// Invariants:
//   - OwnerID is immutable after creation and is the sole verification authority
//   - At most one verification record ever exists; it is never replaced or removed
//   - Status is Verified Complete iff the sole verification has Confirmed=true
//   - Verified Complete is terminal for admin-initiated transitions
//   - ResolutionDetails is non-empty for every status except Registered
type Complaint struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	EvidenceURL string    `json:"evidence_url"`
	Location    Location  `json:"location"`

	Status            Status     `json:"status"`
	ResolutionDetails string     `json:"resolution_details,omitempty"`
	ResolvedAt        *time.Time `json:"resolved_at,omitempty"`

	VerificationStatus VerificationStatus `json:"verification_status"`
	VerificationCount  int                `json:"verification_count"`
	RejectionCount     int                `json:"rejection_count"`
	Verifications      []Verification     `json:"verifications"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewComplaint(id, ownerID uuid.UUID, title, description, category, evidenceURL string, loc Location, now time.Time) (*Complaint, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	category = strings.TrimSpace(category)
	if ownerID == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "owner is required")
	}
	if title == "" || description == "" || category == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "title, description, and category are required")
	}
	if evidenceURL == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "evidence url is required")
	}
	if loc.Address == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "address is required")
	}
	return &Complaint{
		ID:                 id,
		OwnerID:            ownerID,
		Title:              title,
		Description:        description,
		Category:           category,
		EvidenceURL:        evidenceURL,
		Location:           loc,
		Status:             StatusRegistered,
		VerificationStatus: VerificationNotApplicable,
		Verifications:      []Verification{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// CanAdminTransition checks the status-change preconditions that depend on
// the complaint itself. Role checks belong to the caller. Check order is
// part of the contract: terminal state, then target legality, then details.
func (c *Complaint) CanAdminTransition(newStatus Status, resolutionDetails string) error {
	if c.Status == StatusVerifiedComplete {
		return dErrors.New(dErrors.CodeForbidden, "complaint has been verified by the owner and is final")
	}
	if newStatus == StatusVerifiedComplete {
		return dErrors.New(dErrors.CodeForbidden, "Verified Complete can only be reached through owner verification")
	}
	if !newStatus.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown status")
	}
	if newStatus != StatusRegistered && strings.TrimSpace(resolutionDetails) == "" {
		return dErrors.New(dErrors.CodeValidation, "resolution details are required for this status")
	}
	return nil
}

// ApplyStatusChange performs an admin transition. Entering Resolved opens a
// fresh verification cycle; every other target clears the verification
// bookkeeping entirely.
func (c *Complaint) ApplyStatusChange(newStatus Status, resolutionDetails string, now time.Time) {
	c.Status = newStatus
	c.ResolutionDetails = strings.TrimSpace(resolutionDetails)

	if newStatus == StatusResolved {
		resolvedAt := now
		c.ResolvedAt = &resolvedAt
		c.VerificationStatus = VerificationPending
	} else {
		c.ResolvedAt = nil
		c.VerificationStatus = VerificationNotApplicable
	}
	c.Verifications = []Verification{}
	c.VerificationCount = 0
	c.RejectionCount = 0
	c.UpdatedAt = now
}

// CanVerify checks the owner-verification preconditions that depend on the
// complaint. Check order is part of the contract: ownership, then lifecycle
// state, then the one-shot rule.
func (c *Complaint) CanVerify(actorID uuid.UUID) error {
	if actorID != c.OwnerID {
		return dErrors.New(dErrors.CodeForbidden, "only the original submitter can verify this complaint")
	}
	if c.Status != StatusResolved {
		return dErrors.New(dErrors.CodeInvalidState, "complaint must be Resolved before it can be verified")
	}
	if len(c.Verifications) > 0 {
		return dErrors.New(dErrors.CodeInvalidState, "verification has already been submitted for this resolution")
	}
	return nil
}

// ApplyVerification appends the owner's single verification record and
// settles the lifecycle: confirmed freezes the complaint at Verified
// Complete, rejection leaves it Resolved but flagged failed.
func (c *Complaint) ApplyVerification(v Verification, now time.Time) {
	c.Verifications = append(c.Verifications, v)
	if v.Confirmed {
		c.Status = StatusVerifiedComplete
		c.VerificationStatus = VerificationComplete
		c.VerificationCount = 1
		c.RejectionCount = 0
	} else {
		c.VerificationStatus = VerificationFailed
		c.VerificationCount = 0
		c.RejectionCount = 1
	}
	c.UpdatedAt = now
}

// FindVerification returns the verification with the given id.
func (c *Complaint) FindVerification(verificationID uuid.UUID) (*Verification, bool) {
	for i := range c.Verifications {
		if c.Verifications[i].ID == verificationID {
			return &c.Verifications[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy so stores can hand out snapshots without
// aliasing internal state.
func (c *Complaint) Clone() *Complaint {
	out := *c
	if c.ResolvedAt != nil {
		resolvedAt := *c.ResolvedAt
		out.ResolvedAt = &resolvedAt
	}
	out.Verifications = make([]Verification, len(c.Verifications))
	copy(out.Verifications, c.Verifications)
	return &out
}

package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"civicfix/internal/complaint/models"
	"civicfix/internal/notify"
	"civicfix/pkg/domain"
	dErrors "civicfix/pkg/domain-errors"
	"civicfix/pkg/platform/sentinel"
)

// UpdateStatus performs an admin transition. Preconditions are checked in
// a fixed order inside the store's atomic update, so a transition racing an
// owner verification re-validates against committed state and fails
// cleanly instead of overwriting it.
func (s *Service) UpdateStatus(ctx context.Context, actor domain.Actor, complaintID uuid.UUID, req *models.UpdateStatusRequest) (*models.Complaint, error) {
	ctx, span := s.tracer.Start(ctx, "complaint.UpdateStatus")
	defer span.End()

	if actor.Role != domain.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeForbidden, "admin access required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.store.Update(ctx, complaintID, func(c *models.Complaint) error {
		if err := c.CanAdminTransition(req.Status, req.ResolutionDetails); err != nil {
			return err
		}
		c.ApplyStatusChange(req.Status, req.ResolutionDetails, s.now())
		return nil
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "complaint not found")
		}
		var de *dErrors.Error
		if errors.As(err, &de) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update complaint")
	}

	s.logger.InfoContext(ctx, "complaint status updated",
		"complaint_id", updated.ID,
		"status", updated.Status,
		"admin_id", actor.ID)
	if s.metrics != nil {
		s.metrics.StatusTransitions.WithLabelValues(string(updated.Status)).Inc()
	}

	s.notifyOwner(ctx, updated)
	s.publishStatus(ctx, updated, actor.ID)
	return updated, nil
}

// SubmitVerification records the owner's one-shot review of a resolved
// complaint. Evidence uploads before the atomic update; preconditions are
// checked once up front to avoid orphan uploads, then re-checked inside
// the update to close the race window.
func (s *Service) SubmitVerification(ctx context.Context, actor domain.Actor, complaintID uuid.UUID, req *models.VerifyRequest) (*models.Complaint, error) {
	ctx, span := s.tracer.Start(ctx, "complaint.SubmitVerification")
	defer span.End()

	if actor.Role != domain.RoleCitizen {
		return nil, dErrors.New(dErrors.CodeForbidden, "only citizens can verify complaints")
	}

	current, err := s.load(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if err := current.CanVerify(actor.ID); err != nil {
		return nil, err
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	evidenceURL, err := s.evidence.Store(ctx, req.EvidenceFilename, req.EvidenceMIME, req.EvidenceData)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to store verification evidence")
	}

	verification := models.Verification{
		ID:          uuid.New(),
		VerifierID:  actor.ID,
		Confirmed:   req.Confirmed,
		EvidenceURL: evidenceURL,
		Location:    models.Location{Latitude: req.Latitude, Longitude: req.Longitude},
		SubmittedAt: s.now(),
	}

	updated, err := s.store.Update(ctx, complaintID, func(c *models.Complaint) error {
		if err := c.CanVerify(actor.ID); err != nil {
			return err
		}
		c.ApplyVerification(verification, s.now())
		return nil
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "complaint not found")
		}
		var de *dErrors.Error
		if errors.As(err, &de) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record verification")
	}

	outcome := "rejected"
	if req.Confirmed {
		outcome = "confirmed"
	}
	s.logger.InfoContext(ctx, "verification submitted",
		"complaint_id", updated.ID,
		"outcome", outcome,
		"status", updated.Status)
	if s.metrics != nil {
		s.metrics.VerificationsSubmitted.WithLabelValues(outcome).Inc()
	}

	s.notifyOwner(ctx, updated)
	s.publishStatus(ctx, updated, actor.ID)
	return updated, nil
}

// VerificationView is the admin read model for one verification record.
type VerificationView struct {
	Verification   models.Verification `json:"verification"`
	ComplaintTitle string              `json:"complaint_title"`
	Status         models.Status       `json:"complaint_status"`
}

// GetVerification returns a verification record for admin display. There
// is deliberately no admin mutation path for verifications: the owner's
// decision is structural, not just permission-gated.
func (s *Service) GetVerification(ctx context.Context, actor domain.Actor, complaintID, verificationID uuid.UUID) (*VerificationView, error) {
	ctx, span := s.tracer.Start(ctx, "complaint.GetVerification")
	defer span.End()

	if actor.Role != domain.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeForbidden, "admin access required")
	}

	c, err := s.load(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	v, ok := c.FindVerification(verificationID)
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "verification not found")
	}
	return &VerificationView{
		Verification:   *v,
		ComplaintTitle: c.Title,
		Status:         c.Status,
	}, nil
}

// Forward emails the full complaint to a department. This is the one
// notification whose failure the caller must see: sending IS the requested
// action. State is never mutated.
func (s *Service) Forward(ctx context.Context, actor domain.Actor, complaintID uuid.UUID, req *models.ForwardRequest) error {
	ctx, span := s.tracer.Start(ctx, "complaint.Forward")
	defer span.End()

	if actor.Role != domain.RoleAdmin {
		return dErrors.New(dErrors.CodeForbidden, "admin access required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return err
	}
	if s.forwarder == nil {
		return dErrors.New(dErrors.CodeUnavailable, "mail delivery is not configured")
	}

	c, err := s.load(ctx, complaintID)
	if err != nil {
		return err
	}
	if c.Status == models.StatusVerifiedComplete {
		return dErrors.New(dErrors.CodeInvalidState, "complaint is owner-verified and closed; nothing to forward")
	}

	summary := notify.ComplaintSummary{
		ID:          c.ID,
		Title:       c.Title,
		Category:    c.Category,
		Status:      string(c.Status),
		Description: c.Description,
		Address:     c.Location.Address,
		Latitude:    c.Location.Latitude,
		Longitude:   c.Location.Longitude,
		EvidenceURL: c.EvidenceURL,
	}
	if owner, err := s.users.FindByID(ctx, c.OwnerID); err == nil {
		summary.CitizenName = owner.Name
		summary.CitizenEmail = owner.Email
		summary.CitizenPhone = owner.Phone
	}

	if err := s.forwarder.SendDepartmentForward(ctx, req.TargetAddress, summary); err != nil {
		s.logger.ErrorContext(ctx, "department forwarding failed",
			"complaint_id", c.ID,
			"target", req.TargetAddress,
			"error", err)
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to send complaint to department")
	}

	s.logger.InfoContext(ctx, "complaint forwarded to department",
		"complaint_id", c.ID,
		"target", req.TargetAddress,
		"admin_id", actor.ID)
	if s.metrics != nil {
		s.metrics.ComplaintsForwarded.Inc()
	}
	return nil
}

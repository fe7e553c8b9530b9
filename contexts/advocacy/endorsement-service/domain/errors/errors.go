package errors

import "errors"

var (
	ErrInvalidSubmission   = errors.New("invalid endorsement submission")
	ErrCampaignNotFound    = errors.New("campaign not found")
	ErrCampaignClosed      = errors.New("campaign is not accepting endorsements")
	ErrStakeholderMismatch = errors.New("an endorsement with this email exists with differing information")
	ErrStakeholderExists   = errors.New("stakeholder already exists")
	ErrStakeholderNotFound = errors.New("stakeholder not found")
	ErrEndorsementNotFound = errors.New("endorsement not found")
	ErrEndorsementExists   = errors.New("endorsement already exists for this campaign")
	ErrEndorsementLocked   = errors.New("endorsement can no longer be edited")
	ErrTokenNotFound       = errors.New("verification token not found")
	ErrTokenExpired        = errors.New("verification token has expired")
	ErrRateLimited         = errors.New("too many attempts, try again later")
	ErrSubmissionBlocked   = errors.New("submission could not be processed")
)

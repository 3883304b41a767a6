package audit

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

// AuditEventSuite tests the AuditEvent type and category mapping.
//
// Justification: The Category() method has a fallback to CategoryOperations
// for unknown events. This is a compliance invariant that ensures
// miscategorization cannot cause record-affecting events to be lost.
type AuditEventSuite struct {
	suite.Suite
}

func TestAuditEventSuite(t *testing.T) {
	suite.Run(t, new(AuditEventSuite))
}

func (s *AuditEventSuite) TestCategory_ComplianceEvents() {
	complianceEvents := []AuditEvent{
		EventStudentRegistered,
		EventRecordUpdated,
		EventGraduationEvaluated,
	}

	for _, event := range complianceEvents {
		s.Run(string(event), func() {
			s.Equal(CategoryCompliance, event.Category())
		})
	}
}

func (s *AuditEventSuite) TestCategory_SecurityEvents() {
	securityEvents := []AuditEvent{
		EventAuthFailed,
		EventSessionRevoked,
		EventSessionsRevoked,
		EventTokenReuseDetected,
		EventRateLimitExceeded,
	}

	for _, event := range securityEvents {
		s.Run(string(event), func() {
			s.Equal(CategorySecurity, event.Category())
		})
	}
}

func (s *AuditEventSuite) TestCategory_OperationsEvents() {
	operationsEvents := []AuditEvent{
		EventSessionCreated,
		EventTokenRefreshed,
		EventCourseUpserted,
		EventCourseRemoved,
		EventTimetableCreated,
		EventTimetableUpdated,
		EventTimetableDeleted,
	}

	for _, event := range operationsEvents {
		s.Run(string(event), func() {
			s.Equal(CategoryOperations, event.Category())
		})
	}
}

func (s *AuditEventSuite) TestCategory_UnknownEventDefaultsToOperations() {
	// Unknown events should default to CategoryOperations
	// This is a safety fallback - unknown events are treated as low-priority
	// rather than being miscategorized as compliance/security
	unknownEvent := AuditEvent("unknown_event_type")
	s.Equal(CategoryOperations, unknownEvent.Category())
}

func (s *AuditEventSuite) TestCategory_EmptyEventDefaultsToOperations() {
	emptyEvent := AuditEvent("")
	s.Equal(CategoryOperations, emptyEvent.Category())
}

// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
	SecurityAdmin                       // Access token with the admin role
)

// EndpointSecurityConfig maps route names to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Public
	"Healthz": SecurityPublic,

	// MeetupService - Access Protected
	"CreateMeetup":       SecurityAccess,
	"GetMeetup":          SecurityAccess,
	"JoinMeetup":         SecurityAccess,
	"ApproveParticipant": SecurityAccess,
	"RejectParticipant":  SecurityAccess,
	"LeaveMeetup":        SecurityAccess,
	"ChangeStatus":       SecurityAccess,

	// AttendanceService - Access Protected
	"CheckInGPS":     SecurityAccess,
	"IssueQRToken":   SecurityAccess,
	"CheckInQR":      SecurityAccess,
	"HostConfirm":    SecurityAccess,
	"MutualConfirm":  SecurityAccess,
	"GetMutualState": SecurityAccess,
	"ListAttendance": SecurityAccess,

	// ReviewService - Access Protected
	"SubmitReview":      SecurityAccess,
	"ListMeetupReviews": SecurityAccess,
	"ReviewEligibility": SecurityAccess,
	"ListUserReviews":   SecurityAccess,

	// ReputationService - Access Protected
	"GetRiceIndex": SecurityAccess,

	// NotificationService / PointsService - Access Protected
	"GetNotifications":     SecurityAccess,
	"MarkNotificationRead": SecurityAccess,
	"GetPoints":            SecurityAccess,

	// AdminService - Admin role
	"RecordPenalty": SecurityAdmin,
	"ListPenalties": SecurityAdmin,
}

// GetSecurityLevel returns the security level for a given route name
func GetSecurityLevel(route string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[route]; exists {
		return level
	}
	// Default to access for unknown routes
	return SecurityAccess
}

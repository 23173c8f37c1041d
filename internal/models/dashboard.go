package models

// StudentDashboard aggregates the counts behind the student landing page.
type StudentDashboard struct {
	ActiveNotices        int `json:"activeNotices"`
	TotalApplications    int `json:"totalApplications"`
	ApprovedApplications int `json:"approvedApplications"`
}

// AdminDashboard aggregates board-wide counts for admins.
type AdminDashboard struct {
	TotalNotices         int `json:"totalNotices"`
	TotalApplications    int `json:"totalApplications"`
	PendingApplications  int `json:"pendingApplications"`
	ApprovedApplications int `json:"approvedApplications"`
}

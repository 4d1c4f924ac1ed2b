package models

// DashboardStats is the admin overview.
type DashboardStats struct {
	TotalCampaigns     int        `db:"total_campaigns" json:"totalCampaigns"`
	TotalUsers         int        `db:"total_users" json:"totalUsers"`
	TotalDonations     int        `db:"total_donations" json:"totalDonations"`
	TotalAmount        float64    `db:"total_amount" json:"totalAmount"`
	PendingCampaigns   int        `db:"pending_campaigns" json:"pendingCampaigns"`
	PendingWithdrawals int        `db:"pending_withdrawals" json:"pendingWithdrawals"`
	PendingProfiles    int        `db:"pending_profiles" json:"pendingProfiles"`
	RecentCampaigns    []Campaign `db:"-" json:"recentCampaigns"`
}

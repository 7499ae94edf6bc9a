package models

// HealthCheckResponse returns the health check response duh
type HealthCheckResponse struct {
	Alive bool `json:"alive"`
}

// MessageResponse is the generic success envelope
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// UserDebt is one row of the members-with-debt breakdown in finance stats
type UserDebt struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Debt   int64  `json:"debt"`
}

// FinanceStats is the treasurer dashboard payload
type FinanceStats struct {
	CurrentFundBalance   int64         `json:"currentFundBalance"`
	MonthlyFeeAmount     int64         `json:"monthlyFeeAmount"`
	TotalOutstandingDebt int64         `json:"totalOutstandingDebt"`
	UsersWithDebt        []UserDebt    `json:"usersWithDebt"`
	RecentTransactions   []Transaction `json:"recentTransactions"`
}

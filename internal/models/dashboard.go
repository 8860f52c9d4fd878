package models

import "github.com/shopspring/decimal"

type DashboardMetrics struct {
	TotalActiveCustomers int             `json:"totalActiveCustomers"`
	TodayCustomerCount   int             `json:"todayCustomerCount"`
	TodayCoolersCount    int             `json:"todayCoolersCount"`
	TotalPendingDue      decimal.Decimal `json:"totalPendingDue"`
}

type DashboardData struct {
	Metrics DashboardMetrics `json:"metrics"`
}

package cache

import (
	"fmt"
	"time"
)

const (
	dashboardKey = "dash:%s:%s" // <userID>:<yyyy-mm-dd>

	// DashboardPattern matches every cached dashboard payload.
	DashboardPattern = "dash:*"
)

// DashboardKey scopes a cached dashboard to a user and calendar day in loc.
func DashboardKey(userID string, now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return fmt.Sprintf(dashboardKey, userID, now.In(loc).Format("2006-01-02"))
}

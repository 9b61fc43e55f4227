package model

// UserStats tracks one user's study time for the live day.
type UserStats struct {
	UserID         UserID
	TotalStudyTime int64 // seconds
	LastReset      string
}

// StatsMap keys stats by identity.
type StatsMap map[UserID]UserStats

// FreshStats returns zeroed stats for both identities stamped with date.
func FreshStats(date string) StatsMap {
	stats := make(StatsMap, 2)
	for _, user := range Users() {
		stats[user] = UserStats{UserID: user, LastReset: date}
	}
	return stats
}

// Clone copies the map.
func (m StatsMap) Clone() StatsMap {
	if m == nil {
		return nil
	}
	out := make(StatsMap, len(m))
	for user, stats := range m {
		out[user] = stats
	}
	return out
}

// Ensure fills in a zero row for every identity without stats.
func (m StatsMap) Ensure(date string) StatsMap {
	out := m.Clone()
	if out == nil {
		out = make(StatsMap, 2)
	}
	for _, user := range Users() {
		if _, ok := out[user]; !ok {
			out[user] = UserStats{UserID: user, LastReset: date}
		}
	}
	return out
}

// TotalStudyTime sums study time across all users.
func (m StatsMap) TotalStudyTime() int64 {
	var total int64
	for _, stats := range m {
		total += stats.TotalStudyTime
	}
	return total
}

// AddStudyTime returns a copy with seconds added to user's total.
func (m StatsMap) AddStudyTime(user UserID, seconds int64, date string) StatsMap {
	out := m.Ensure(date)
	stats := out[user]
	stats.TotalStudyTime += seconds
	out[user] = stats
	return out
}

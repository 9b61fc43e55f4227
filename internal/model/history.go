package model

// HistoryLimit caps how many archived days are kept locally.
const HistoryLimit = 30

// HistoryEntry is an immutable snapshot of one archived day.
type HistoryEntry struct {
	Date  string
	Tasks []Task
	Stats StatsMap
}

// Clone deep-copies the entry.
func (h HistoryEntry) Clone() HistoryEntry {
	return HistoryEntry{
		Date:  h.Date,
		Tasks: CloneTasks(h.Tasks),
		Stats: h.Stats.Clone(),
	}
}

// PrependHistory puts entry first and drops anything beyond HistoryLimit.
func PrependHistory(history []HistoryEntry, entry HistoryEntry) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(history)+1)
	out = append(out, entry)
	out = append(out, history...)
	if len(out) > HistoryLimit {
		out = out[:HistoryLimit]
	}
	return out
}

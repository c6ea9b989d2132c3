package domain

import "fmt"

// Kind names a class of cached reference data.
type Kind string

// Cached kinds.
const (
	KindCompany       Kind = "company_info"
	KindAssistant     Kind = "assistant_info"
	KindServices      Kind = "service_data"
	KindSchedules     Kind = "schedules"
	KindScheduleSlots Kind = "schedule_slots"
)

// Kinds lists every cached kind.
func Kinds() []Kind {
	return []Kind{KindCompany, KindAssistant, KindServices, KindSchedules, KindScheduleSlots}
}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown kind %q", s)
}

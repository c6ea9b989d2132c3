// Package reducer trims a working context down to the data the resolved
// intent actually needs before it leaves the process.
package reducer

import "github.com/ashureev/chatengine/internal/domain"

// Essential fields kept per sub-object.
var (
	CompanyKeys   = []string{"name", "is_open", "chatbot_status", "address", "open_work", "work_days", "social_media"}
	AssistantKeys = []string{"name", "status", "type"}
	ServiceKeys   = []string{"id", "name", "description", "price", "duration"}
	ScheduleKeys  = []string{"public_id", "title", "start", "end", "all_day", "color", "status", "description", "customer_name", "customer_contact"}
	SlotKeys      = []string{"public_id", "start", "end", "all_day", "is_active", "is_recurring"}
)

type bucket int

const (
	unmatched bucket = iota
	basicOnly
	needsCatalog
	needsSchedule
	needsSlots
)

var buckets = map[domain.Intent]bucket{
	domain.IntentWelcome:       basicOnly,
	domain.IntentPraise:        basicOnly,
	domain.IntentCloseChat:     basicOnly,
	domain.IntentFeedback:      basicOnly,
	domain.IntentStart:         basicOnly,
	domain.IntentGeneral:       basicOnly,
	domain.IntentOrderStatus:   basicOnly,
	domain.IntentDelivery:      basicOnly,
	domain.IntentCancel:        basicOnly,
	domain.IntentTransferHuman: basicOnly,
	domain.IntentRestart:       basicOnly,
	domain.IntentAbusive:       basicOnly,
	domain.IntentComplaint:     basicOnly,

	domain.IntentDoubt:       needsCatalog,
	domain.IntentCompanyInfo: needsCatalog,
	domain.IntentServiceInfo: needsCatalog,
	domain.IntentProductInfo: needsCatalog,
	domain.IntentPromotion:   needsCatalog,
	domain.IntentPayment:     needsCatalog,
	domain.IntentLocation:    needsCatalog,

	domain.IntentScheduleInfo: needsSchedule,

	domain.IntentScheduleSlotInfo: needsSlots,
}

// ReduceByIntent returns a copy of ctx whose data holds only what its main
// intent is allowed to see. Internal diagnostics are always dropped.
func ReduceByIntent(ctx *domain.WorkingContext) *domain.WorkingContext {
	if ctx == nil {
		return nil
	}
	out := ctx.Clone()
	out.Profanity = nil

	d := out.Data
	switch buckets[out.MainIntent] {
	case basicOnly:
		d = essentials(d)
		d.Services, d.Schedule, d.ScheduleSlots = nil, nil, nil
	case needsCatalog:
		d = essentials(d)
		d.Services = trimCatalog(d.Services)
		d.Schedule, d.ScheduleSlots = nil, nil
	case needsSchedule:
		d = essentials(d)
		d.Schedule = pickAll(d.Schedule, ScheduleKeys)
		d.Services, d.ScheduleSlots = nil, nil
	case needsSlots:
		d = essentials(d)
		d.ScheduleSlots = pickAll(d.ScheduleSlots, SlotKeys)
		if d.ScheduleSlots == nil {
			d.ScheduleSlots = []domain.Record{}
		}
		d.Services, d.Schedule = nil, nil
	}
	out.Data = d
	return out
}

func essentials(d domain.Data) domain.Data {
	d.Company = d.Company.Pick(CompanyKeys...)
	d.Assistant = d.Assistant.Pick(AssistantKeys...)
	return d
}

// trimCatalog drops empty categories and whitelists service fields.
func trimCatalog(groups []domain.CategoryGroup) []domain.CategoryGroup {
	if groups == nil {
		return nil
	}
	out := make([]domain.CategoryGroup, 0, len(groups))
	for _, g := range groups {
		if len(g.Services) == 0 {
			continue
		}
		out = append(out, domain.CategoryGroup{
			CategoryName: g.CategoryName,
			Services:     pickAll(g.Services, ServiceKeys),
		})
	}
	return out
}

func pickAll(records []domain.Record, keys []string) []domain.Record {
	if records == nil {
		return nil
	}
	out := make([]domain.Record, len(records))
	for i, r := range records {
		out[i] = r.Pick(keys...)
	}
	return out
}

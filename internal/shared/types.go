package shared

// Task types and queue names shared between the API (enqueue side) and
// the worker (handler side).
const (
	TypeReorderForecast = "inventory:reorder_forecast"

	QueueInventory = "inventory"
)

// ReorderForecastPayload carries one pharmacy through the forecast fan-out.
// An empty PharmacyID means "all pharmacies"; the scheduler enqueues that
// form and the handler expands it.
type ReorderForecastPayload struct {
	PharmacyID    string `json:"pharmacy_id,omitempty"`
	HorizonDays   int    `json:"horizon_days,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

package internal

import "expvar"

var (
	eventsTotal     = expvar.NewMap("gitcord_events_total")
	droppedTotal    = expvar.NewMap("gitcord_dropped_total")
	deliveriesTotal = expvar.NewMap("gitcord_deliveries_total")
)

func IncEvent(kind string) {
	eventsTotal.Add(kind, 1)
}

func IncDropped(reason string) {
	droppedTotal.Add(reason, 1)
}

func IncDelivery(outcome string) {
	deliveriesTotal.Add(outcome, 1)
}

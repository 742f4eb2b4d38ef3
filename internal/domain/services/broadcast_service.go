package services

import (
	"sync"

	Logger "github.com/SnailyCAD/snaily-cadv4-sub004/pkg/logger"
)

// Socket events
const (
	EventCreate911Call          = "Create911Call"
	EventUpdate911Call          = "Update911Call"
	EventEnd911Call             = "End911Call"
	EventCreateTowCall          = "CreateTowCall"
	EventUpdateTowCall          = "UpdateTowCall"
	EventEndTowCall             = "EndTowCall"
	EventCreateTaxiCall         = "CreateTaxiCall"
	EventUpdateTaxiCall         = "UpdateTaxiCall"
	EventEndTaxiCall            = "EndTaxiCall"
	EventUpdateOfficerStatus    = "UpdateOfficerStatus"
	EventUpdateEmsFdStatus      = "UpdateEmsFdStatus"
	EventPanicButton            = "PanicButton"
	EventUpdateActiveIncident   = "UpdateActiveIncident"
	EventUpdateActiveWarrant    = "UpdateActiveWarrant"
	EventUpdateDispatchersState = "UpdateDispatchersState"
)

// Emitter is a channel events can be pushed to (websocket hub, MQTT)
type Emitter interface {
	Broadcast(event string, payload interface{}) error
}

// Publisher is the MQTT side
type Publisher interface {
	Publish(event string, payload interface{}) error
}

// InterfaceBroadcastService notifies connected clients. Delivery is best
// effort; clients re-fetch when they need the persisted truth.
type InterfaceBroadcastService interface {
	Emit(event string, payload interface{})
}

// mqttQueueSize bounds the events waiting for the broker
const mqttQueueSize = 256

type mqttEvent struct {
	event   string
	payload interface{}
}

// BroadcastService fans an event out to the hub and, if set, MQTT.
// MQTT events go through a bounded queue drained by a single worker, so a
// slow or absent broker never blocks a request.
type BroadcastService struct {
	Hub  Emitter
	MQTT Publisher

	queue     chan mqttEvent
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func NewBroadcastService(hub Emitter, mqtt Publisher) *BroadcastService {
	s := &BroadcastService{Hub: hub, MQTT: mqtt, done: make(chan struct{})}
	if mqtt != nil {
		s.queue = make(chan mqttEvent, mqttQueueSize)
		s.wg.Add(1)
		go s.publishLoop()
	}
	return s
}

func (s *BroadcastService) Emit(event string, payload interface{}) {
	if s.Hub != nil {
		if err := s.Hub.Broadcast(event, payload); err != nil {
			Logger.WithError(err).Warnf("socket emit %s failed", event)
		}
	}
	if s.queue == nil {
		return
	}

	select {
	case <-s.done:
	case s.queue <- mqttEvent{event: event, payload: payload}:
	default:
		Logger.Warning("mqtt queue full, dropping %s", event)
	}
}

func (s *BroadcastService) publishLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case e := <-s.queue:
			if err := s.MQTT.Publish(e.event, e.payload); err != nil {
				Logger.WithError(err).Warnf("mqtt publish %s failed", e.event)
			}
		}
	}
}

// Close stops the MQTT worker; queued events are dropped
func (s *BroadcastService) Close() {
	s.closeOnce.Do(func() { close(s.done) })
	s.wg.Wait()
}

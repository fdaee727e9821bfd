package core

import "sync"

type EventContext struct {
	Type SystemEventCode
	Data struct {
		U32 [4]uint32
		F32 [4]float32
	}
	// Payload carries values that do not fit the fixed slots, such as a
	// freshly parsed configuration.
	Payload interface{}
}

// System internal event codes. Application should use codes beyond 255.
type SystemEventCode int

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT SystemEventCode = 0x01

	// Resized/resolution changed.
	/* Context usage:
	 * u32 width = data.Data.U32[0];
	 * u32 height = data.Data.U32[1];
	 */
	EVENT_CODE_RESIZED SystemEventCode = 0x08

	// Pipeline configuration reloaded from disk.
	/* Context usage:
	 * metadata.PipelineConfig cfg = data.Payload;
	 */
	EVENT_CODE_CONFIG_RELOADED SystemEventCode = 0x09

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

// This should be more than enough codes...
const MAX_MESSAGE_CODES = 16384

// Should return true if handled.
type FnOnEvent func(code SystemEventCode, sender interface{}, listenerInst interface{}, data EventContext) bool

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

type postedEvent struct {
	code    SystemEventCode
	sender  interface{}
	context EventContext
}

// EventSystem dispatches events to registered listeners. Fire delivers
// synchronously on the calling goroutine; Post queues an event from any
// goroutine until ProcessPending runs on the frame thread.
type EventSystem struct {
	mutex      sync.Mutex
	registered map[SystemEventCode][]*registeredEvent
	pending    []postedEvent
}

func NewEventSystem() *EventSystem {
	return &EventSystem{
		registered: make(map[SystemEventCode][]*registeredEvent),
	}
}

/**
 * Register to listen for when events are sent with the provided code. Events with duplicate
 * listeners will not be registered again and will cause this to return false.
 */
func (es *EventSystem) Register(code SystemEventCode, listener interface{}, onEvent FnOnEvent) bool {
	if code < 0 || code >= MAX_MESSAGE_CODES || onEvent == nil {
		return false
	}
	es.mutex.Lock()
	defer es.mutex.Unlock()

	for _, e := range es.registered[code] {
		if e.listener == listener {
			LogWarn("listener already registered", "code", code)
			return false
		}
	}
	es.registered[code] = append(es.registered[code], &registeredEvent{
		listener: listener,
		callback: onEvent,
	})
	return true
}

/**
 * Unregister from listening for when events are sent with the provided code. If no matching
 * registration is found, this function returns false.
 */
func (es *EventSystem) Unregister(code SystemEventCode, listener interface{}) bool {
	es.mutex.Lock()
	defer es.mutex.Unlock()

	events := es.registered[code]
	for i, e := range events {
		if e.listener == listener {
			es.registered[code] = append(events[:i], events[i+1:]...)
			return true
		}
	}
	return false
}

/**
 * Fires an event to listeners of the given code. If an event handler returns
 * true, the event is considered handled and is not passed on to any more listeners.
 */
func (es *EventSystem) Fire(code SystemEventCode, sender interface{}, context EventContext) bool {
	es.mutex.Lock()
	events := make([]*registeredEvent, len(es.registered[code]))
	copy(events, es.registered[code])
	es.mutex.Unlock()

	context.Type = code
	for _, e := range events {
		if e.callback(code, sender, e.listener, context) {
			return true
		}
	}
	return false
}

// Post queues an event for delivery on the next ProcessPending call.
func (es *EventSystem) Post(code SystemEventCode, sender interface{}, context EventContext) {
	es.mutex.Lock()
	defer es.mutex.Unlock()
	es.pending = append(es.pending, postedEvent{code: code, sender: sender, context: context})
}

// ProcessPending delivers every queued event in posting order and returns
// how many were delivered.
func (es *EventSystem) ProcessPending() int {
	es.mutex.Lock()
	pending := es.pending
	es.pending = nil
	es.mutex.Unlock()

	for _, p := range pending {
		es.Fire(p.code, p.sender, p.context)
	}
	return len(pending)
}

/**
 * Event system internal state.
 */
var onceEvent sync.Once
var eventState *EventSystem = nil

func EventSystemInitialize() bool {
	onceEvent.Do(func() {
		eventState = NewEventSystem()
	})
	return eventState != nil
}

func EventRegister(code SystemEventCode, listener interface{}, onEvent FnOnEvent) bool {
	if !EventSystemInitialize() {
		return false
	}
	return eventState.Register(code, listener, onEvent)
}

func EventUnregister(code SystemEventCode, listener interface{}) bool {
	if !EventSystemInitialize() {
		return false
	}
	return eventState.Unregister(code, listener)
}

func EventFire(code SystemEventCode, sender interface{}, context EventContext) bool {
	if !EventSystemInitialize() {
		return false
	}
	return eventState.Fire(code, sender, context)
}

func EventPost(code SystemEventCode, sender interface{}, context EventContext) {
	if EventSystemInitialize() {
		eventState.Post(code, sender, context)
	}
}

func EventProcessPending() int {
	if !EventSystemInitialize() {
		return 0
	}
	return eventState.ProcessPending()
}

package logging

// Event names written to JSONL traces.
const (
	EventSessionStart   = "session.start"
	EventSessionEnd     = "session.end"
	EventMetricsSummary = "metrics.summary"

	// Conversation
	EventSubmit        = "conversation.submit"
	EventSubmitReject  = "conversation.submit.reject"
	EventRootActivated = "conversation.root"
	EventRetry         = "conversation.retry"
	EventClear         = "conversation.clear"
	EventAutoPlay      = "conversation.autoplay"

	// Gateway
	EventGatewayRequest  = "gateway.request"
	EventGatewayResponse = "gateway.response"
	EventGatewayError    = "gateway.error"
	EventGatewayThrottle = "gateway.throttle"

	// Storage
	EventStorageLoad    = "storage.load"
	EventStorageSave    = "storage.save"
	EventStorageDelete  = "storage.delete"
	EventStorageCorrupt = "storage.corrupt"
	EventStorageChange  = "storage.change"

	// Terminal
	EventTerminalCommand = "terminal.command"
	EventTerminalForward = "terminal.forward"

	// Offline cache
	EventOfflineInstall  = "offline.install"
	EventOfflineActivate = "offline.activate"
	EventOfflineFetch    = "offline.fetch"

	EventError = "error"
)

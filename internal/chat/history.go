package chat

// History is the ordered message list. Order is insertion order.
type History []Message

// Seed returns a history holding only the welcome message.
func Seed(welcome Message) History {
	return History{welcome}
}

// IndexOf returns the position of the message with id, or -1.
func (h History) IndexOf(id string) int {
	for i, m := range h {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// Append returns h with m added at the end.
func (h History) Append(m Message) History {
	return append(h, m)
}

// Without returns a copy of h minus the messages with the given ids.
func (h History) Without(ids ...string) History {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	out := make(History, 0, len(h))
	for _, m := range h {
		if _, ok := drop[m.ID]; !ok {
			out = append(out, m)
		}
	}
	return out
}

// KeepFirst returns a history containing only the first message of h.
func (h History) KeepFirst() History {
	if len(h) == 0 {
		return History{}
	}
	return History{h[0]}
}

// LastError returns the id of the most recent error message, or "".
func (h History) LastError() string {
	for i := len(h) - 1; i >= 0; i-- {
		if h[i].IsError() {
			return h[i].ID
		}
	}
	return ""
}

// LastReply returns the most recent successful assistant message.
func (h History) LastReply() (Message, bool) {
	for i := len(h) - 1; i >= 0; i-- {
		if h[i].Role == RoleAssistant && !h[i].IsError() {
			return h[i], true
		}
	}
	return Message{}, false
}

// Clone returns an independent copy of h.
func (h History) Clone() History {
	out := make(History, len(h))
	copy(out, h)
	return out
}

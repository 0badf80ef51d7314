package session

import "sync"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in a conversation history. Messages are immutable
// once appended; ordering within a session is chronological.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type conversation struct {
	mu       sync.Mutex
	messages []Message
}

// Store is an in-memory, process-lifetime conversation store. The outer
// lock only guards the session map; each conversation carries its own
// mutex so appends on unrelated session ids never contend.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*conversation
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*conversation)}
}

// get returns the conversation for id, creating it if absent.
func (s *Store) get(id string) *conversation {
	s.mu.RLock()
	conv, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return conv
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if conv, ok = s.sessions[id]; ok {
		return conv
	}
	conv = &conversation{}
	s.sessions[id] = conv
	return conv
}

// Ensure creates an empty history for id if absent. Creating an existing
// session is a no-op and never clears it.
func (s *Store) Ensure(id string) {
	s.get(id)
}

// Append adds one message to the session's history, creating the session
// if needed.
func (s *Store) Append(id string, role Role, content string) {
	conv := s.get(id)
	conv.mu.Lock()
	conv.messages = append(conv.messages, Message{Role: role, Content: content})
	conv.mu.Unlock()
}

// AppendPair appends the user message immediately followed by the
// assistant message as one visible unit. Concurrent turns on the same
// session serialize here, so a pair is never split by another turn.
func (s *Store) AppendPair(id, userText, assistantText string) {
	conv := s.get(id)
	conv.mu.Lock()
	conv.messages = append(conv.messages,
		Message{Role: RoleUser, Content: userText},
		Message{Role: RoleAssistant, Content: assistantText},
	)
	conv.mu.Unlock()
}

// History returns an independent snapshot of the session's messages,
// oldest first. Unknown session ids yield an empty slice.
func (s *Store) History(id string) []Message {
	s.mu.RLock()
	conv, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	conv.mu.Lock()
	defer conv.mu.Unlock()
	snapshot := make([]Message, len(conv.messages))
	copy(snapshot, conv.messages)
	return snapshot
}

// Clear removes the session and its history. Clearing an unknown session
// is a no-op.
func (s *Store) Clear(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Delete removes the session and its history. The session may be
// recreated implicitly by a later append.
func (s *Store) Delete(id string) {
	s.Clear(id)
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

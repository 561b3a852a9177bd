// Package conversation holds the conversational memory: the running prompt
// transcript, the structured meta log, and the processor that talks to the
// language model on its behalf.
package conversation

import (
	"bytes"
	"encoding/json"
	"maps"
	"sync"
)

const (
	keyChat    = "chat"
	keySession = "session"
)

// TurnRecord is one completed query/response exchange. Created is kept as
// written so logs with any timestamp layout load unchanged.
type TurnRecord struct {
	ID       string         `json:"id"`
	Created  string         `json:"created"`
	Query    string         `json:"query"`
	Intent   map[string]any `json:"intent"`
	Response string         `json:"response"`

	// Extra holds fields not modelled above, written back untouched.
	Extra map[string]json.RawMessage `json:"-"`
}

func (r TurnRecord) MarshalJSON() ([]byte, error) {
	known := map[string]any{}
	if r.ID != "" {
		known["id"] = r.ID
	}
	if r.Created != "" {
		known["created"] = r.Created
	}
	if r.Query != "" {
		known["query"] = r.Query
	}
	if r.Intent != nil {
		known["intent"] = r.Intent
	}
	if r.Response != "" {
		known["response"] = r.Response
	}
	return mergeRecord(known, r.Extra)
}

func (r *TurnRecord) UnmarshalJSON(b []byte) error {
	*r = TurnRecord{}
	extra, err := splitRecord(b, map[string]any{
		"id":       &r.ID,
		"created":  &r.Created,
		"query":    &r.Query,
		"intent":   &r.Intent,
		"response": &r.Response,
	})
	r.Extra = extra
	return err
}

// SessionRecord summarizes the turns [Start, End) of meta_log["chat"].
type SessionRecord struct {
	Summary string `json:"summary"`
	Start   int    `json:"session-start"`
	End     int    `json:"session-end"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (r SessionRecord) MarshalJSON() ([]byte, error) {
	return mergeRecord(map[string]any{
		"summary":       r.Summary,
		"session-start": r.Start,
		"session-end":   r.End,
	}, r.Extra)
}

func (r *SessionRecord) UnmarshalJSON(b []byte) error {
	*r = SessionRecord{}
	extra, err := splitRecord(b, map[string]any{
		"summary":       &r.Summary,
		"session-start": &r.Start,
		"session-end":   &r.End,
	})
	r.Extra = extra
	return err
}

// splitRecord decodes the known keys of a JSON object into their targets and
// returns the rest. A known key whose value does not fit its target stays in
// the returned map as written.
func splitRecord(b []byte, targets map[string]any) (map[string]json.RawMessage, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	for key, target := range targets {
		raw, ok := doc[key]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			continue
		}
		if err := json.Unmarshal(raw, target); err == nil {
			delete(doc, key)
		}
	}
	if len(doc) == 0 {
		return nil, nil
	}
	return doc, nil
}

// mergeRecord writes extra back with the known fields on top. Keys present in
// extra win, since they could not be decoded into their typed field.
func mergeRecord(known map[string]any, extra map[string]json.RawMessage) ([]byte, error) {
	doc := make(map[string]any, len(known)+len(extra))
	for k, v := range known {
		doc[k] = v
	}
	for k, v := range extra {
		doc[k] = v
	}
	return json.Marshal(doc)
}

// MetaLog is the durable document: "chat" turns, "session" summaries, and any
// other top-level keys found on disk, which are carried through untouched.
type MetaLog struct {
	Chat    []TurnRecord
	Session []SessionRecord
	Extra   map[string]json.RawMessage
}

func (m MetaLog) IsEmpty() bool {
	return len(m.Chat) == 0 && len(m.Session) == 0 && len(m.Extra) == 0
}

// LastSessionEnd is where the next session starts: the End of the most recent
// session record, or 0 when there is none.
func (m MetaLog) LastSessionEnd() int {
	if len(m.Session) == 0 {
		return 0
	}
	return m.Session[len(m.Session)-1].End
}

func (m MetaLog) clone() MetaLog {
	out := MetaLog{
		Chat:    append([]TurnRecord(nil), m.Chat...),
		Session: append([]SessionRecord(nil), m.Session...),
	}
	if m.Extra != nil {
		out.Extra = maps.Clone(m.Extra)
	}
	return out
}

func (m MetaLog) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(m.Extra)+2)
	for k, v := range m.Extra {
		doc[k] = v
	}
	if m.Chat != nil {
		doc[keyChat] = m.Chat
	}
	if m.Session != nil {
		doc[keySession] = m.Session
	}
	return json.Marshal(doc)
}

func (m *MetaLog) UnmarshalJSON(b []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}

	*m = MetaLog{}
	if raw, ok := doc[keyChat]; ok {
		if err := json.Unmarshal(raw, &m.Chat); err != nil {
			return err
		}
		if m.Chat == nil {
			m.Chat = []TurnRecord{}
		}
		delete(doc, keyChat)
	}
	if raw, ok := doc[keySession]; ok {
		if err := json.Unmarshal(raw, &m.Session); err != nil {
			return err
		}
		if m.Session == nil {
			m.Session = []SessionRecord{}
		}
		delete(doc, keySession)
	}
	if len(doc) > 0 {
		m.Extra = doc
	}
	return nil
}

// State is the conversation owned by the running process. The transcript is
// append-only and is the exact context of the next completion.
type State struct {
	mu          sync.Mutex
	chatSession string
	metaLog     MetaLog
}

func NewState(log MetaLog) *State {
	return &State{metaLog: log}
}

func (s *State) ChatSession() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chatSession
}

// MetaLog returns a copy of the current log.
func (s *State) MetaLog() MetaLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metaLog.clone()
}

// Update gives fn exclusive access to a copy of the state. The copy is
// installed only when fn returns nil, so a failing fn leaves no trace.
func (s *State) Update(fn func(chatSession *string, log *MetaLog) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chatSession := s.chatSession
	log := s.metaLog.clone()
	if err := fn(&chatSession, &log); err != nil {
		return err
	}
	s.chatSession = chatSession
	s.metaLog = log
	return nil
}

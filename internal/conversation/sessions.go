package conversation

import "sync"

const sessionShards = 32

// CaptureState tracks an in-progress lead capture for one session.
type CaptureState struct {
	Step  int // 1 = name, 2 = phone, 3 = email
	Name  string
	Phone string
	Email string
}

// Session holds the per-session routing state: the message counter, the
// lead-capture sub-machine, the permanent completed flag, and the
// awaiting-appointment-title sub-state.
type Session struct {
	Count            int
	Capture          *CaptureState
	CaptureCompleted bool
	AwaitingTitle    bool
}

// Sessions is a sharded in-process session store. All reads and writes of a
// session happen under its shard lock, so counter increments and state
// transitions are atomic per key even under concurrent requests. State is
// process-lifetime only; loss on restart is accepted.
type Sessions struct {
	shards [sessionShards]sessionShard
}

type sessionShard struct {
	mu sync.Mutex
	m  map[string]*Session
}

// NewSessions creates an empty session store.
func NewSessions() *Sessions {
	s := &Sessions{}
	for i := range s.shards {
		s.shards[i].m = make(map[string]*Session)
	}
	return s
}

// SessionKey builds the composite key scoping per-session state.
func SessionKey(tenant, sessionID string) string {
	return tenant + "_" + sessionID
}

// With runs fn with exclusive access to the session for key, creating the
// session on first use. Mutations made by fn are retained.
func (s *Sessions) With(key string, fn func(*Session)) {
	shard := &s.shards[shardIndex(key)]
	shard.mu.Lock()
	defer shard.mu.Unlock()

	sess, ok := shard.m[key]
	if !ok {
		sess = &Session{}
		shard.m[key] = sess
	}
	fn(sess)
}

// Snapshot returns a copy of the session state for key. The Capture pointer
// is deep-copied so callers cannot mutate live state.
func (s *Sessions) Snapshot(key string) Session {
	var out Session
	s.With(key, func(sess *Session) {
		out = *sess
		if sess.Capture != nil {
			cp := *sess.Capture
			out.Capture = &cp
		}
	})
	return out
}

// fnv-1a over the key selects the shard.
func shardIndex(key string) int {
	h := uint32(2166136261)
	for i := 0; i < len(key); i++ {
		h ^= uint32(key[i])
		h *= 16777619
	}
	return int(h % sessionShards)
}

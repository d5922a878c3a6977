package controller

import (
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/kbukum/assetgraph/operation"
	"github.com/kbukum/assetgraph/util"
)

// Session holds state shared by consecutive Perform calls.
type Session struct {
	// ID is the session identifier.
	ID string

	mu     sync.Mutex
	setups map[string]time.Time
	inputs map[string]uint64
}

// NewSession creates a new empty session.
func NewSession(id string) *Session {
	return &Session{
		ID:     id,
		setups: make(map[string]time.Time),
		inputs: make(map[string]uint64),
	}
}

// SetupValid reports whether Setup passed for key.
func (s *Session) SetupValid(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.setups[key]
	return ok
}

// SetupAt returns when Setup last passed for key.
func (s *Session) SetupAt(key string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.setups[key]
	return at, ok
}

func (s *Session) markSetup(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setups[key] = time.Now()
}

func (s *Session) dropSetup(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.setups, key)
}

// unchanged reports whether node received digest on its last successful Run
// under key.
func (s *Session) unchanged(key, nodeID string, digest uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.inputs[key+"/"+nodeID]
	return ok && prev == digest
}

func (s *Session) rememberInputs(key, nodeID string, digest uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs[key+"/"+nodeID] = digest
}

func (s *Session) forgetInputs(key, nodeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inputs, key+"/"+nodeID)
}

// Invalidate forgets every Setup and every recorded input.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setups = make(map[string]time.Time)
	s.inputs = make(map[string]uint64)
}

// sessionKey identifies a build: the graph digest, the target and the seeds.
func sessionKey(digest, target string, seeds map[string][]string) string {
	if len(seeds) == 0 {
		return digest + "/" + target
	}
	h := xxhash.New()
	for _, id := range util.SortedKeys(seeds) {
		fmt.Fprintf(h, "%s|", id)
		for _, f := range seeds[id] {
			fmt.Fprintf(h, "%s|", f)
		}
		h.WriteString("\n")
	}
	return fmt.Sprintf("%s/%s/%016x", digest, target, h.Sum64())
}

// inputsDigest hashes everything a node received.
func inputsDigest(inputs []operation.Input) uint64 {
	h := xxhash.New()
	for _, in := range inputs {
		id := ""
		if in.Connection != nil {
			id = in.Connection.ID
		}
		fmt.Fprintf(h, "c|%s|%t\n", id, in.Delivered)
		for _, k := range in.Group.Keys() {
			fmt.Fprintf(h, "k|%s\n", k)
			for _, a := range in.Group[k] {
				fmt.Fprintf(h, "a|%s|%s|%s", a.AbsPath(), a.Type(), a.Fingerprint())
				attrs := a.Attrs()
				for _, n := range util.SortedKeys(attrs) {
					fmt.Fprintf(h, "|%s=%s", n, attrs[n])
				}
				h.WriteString("\n")
			}
		}
		for _, k := range in.Cached {
			fmt.Fprintf(h, "x|%s\n", k)
		}
	}
	return h.Sum64()
}

package substrate

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
)

// substrateCommandMailbox serializes CEPCommand delivery to one substrate
// weight: a CEP actor posts commands and sync markers through inbox, and
// a single goroutine fans them out to outbox/syncbox so concurrent
// producers never race on delivery order.
type substrateCommandMailbox struct {
	id string

	inbox   chan substrateMailboxMessage
	outbox  chan CEPCommand
	syncbox chan uint64

	nextSyncID  uint64
	pendingSync map[uint64]struct{}
	pendingMu   sync.Mutex

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

type substrateMailboxMessage interface {
	isSubstrateMailboxMessage()
}

type substrateMailboxCommand struct{ command CEPCommand }

func (substrateMailboxCommand) isSubstrateMailboxMessage() {}

type substrateMailboxSync struct{ syncID uint64 }

func (substrateMailboxSync) isSubstrateMailboxMessage() {}

func newSubstrateCommandMailbox(id string) *substrateCommandMailbox {
	mailbox := &substrateCommandMailbox{
		id:          strings.TrimSpace(id),
		inbox:       make(chan substrateMailboxMessage),
		outbox:      make(chan CEPCommand, 32),
		syncbox:     make(chan uint64, 32),
		pendingSync: map[uint64]struct{}{},
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	go mailbox.run()
	return mailbox
}

func (m *substrateCommandMailbox) run() {
	defer close(m.done)
	for {
		select {
		case <-m.stop:
			return
		case message := <-m.inbox:
			switch msg := message.(type) {
			case substrateMailboxCommand:
				m.outbox <- msg.command
			case substrateMailboxSync:
				m.syncbox <- msg.syncID
			}
		}
	}
}

func (m *substrateCommandMailbox) ID() string {
	if m == nil {
		return ""
	}
	return m.id
}

func (m *substrateCommandMailbox) Post(command CEPCommand) error {
	if m == nil {
		return ErrMissingSubstrateMailbox
	}
	select {
	case <-m.stop:
		return ErrSubstrateMailboxTerminated
	case <-m.done:
		return ErrSubstrateMailboxTerminated
	case m.inbox <- substrateMailboxCommand{command: command}:
		return nil
	}
}

func (m *substrateCommandMailbox) Drain() []CEPCommand {
	if m == nil {
		return nil
	}
	out := make([]CEPCommand, 0, 8)
	for {
		select {
		case command := <-m.outbox:
			out = append(out, command)
		default:
			return out
		}
	}
}

func (m *substrateCommandMailbox) PostSync() (uint64, error) {
	if m == nil {
		return 0, ErrMissingSubstrateMailbox
	}
	syncID := atomic.AddUint64(&m.nextSyncID, 1)
	select {
	case <-m.stop:
		return 0, ErrSubstrateMailboxTerminated
	case <-m.done:
		return 0, ErrSubstrateMailboxTerminated
	case m.inbox <- substrateMailboxSync{syncID: syncID}:
		return syncID, nil
	}
}

func (m *substrateCommandMailbox) AwaitSync(syncID uint64) error {
	if m == nil {
		return ErrMissingSubstrateMailbox
	}
	if m.consumePendingSync(syncID) {
		return nil
	}
	for {
		select {
		case doneID := <-m.syncbox:
			if doneID == syncID {
				return nil
			}
			m.storePendingSync(doneID)
		case <-m.stop:
			return ErrSubstrateMailboxTerminated
		case <-m.done:
			return ErrSubstrateMailboxTerminated
		}
	}
}

func (m *substrateCommandMailbox) consumePendingSync(syncID uint64) bool {
	m.pendingMu.Lock()
	defer m.pendingMu.Unlock()
	if _, ok := m.pendingSync[syncID]; !ok {
		return false
	}
	delete(m.pendingSync, syncID)
	return true
}

func (m *substrateCommandMailbox) storePendingSync(syncID uint64) {
	if syncID == 0 {
		return
	}
	m.pendingMu.Lock()
	m.pendingSync[syncID] = struct{}{}
	m.pendingMu.Unlock()
}

func (m *substrateCommandMailbox) Terminate() {
	if m == nil {
		return
	}
	m.once.Do(func() {
		close(m.stop)
		<-m.done
	})
}

func (m *substrateCommandMailbox) IsTerminated() bool {
	if m == nil {
		return true
	}
	select {
	case <-m.done:
		return true
	default:
		return false
	}
}

func buildSubstrateCommandMailboxPool(inits []cepActorInit, weightCount int) []*substrateCommandMailbox {
	if weightCount <= 0 {
		return nil
	}
	pool := make([]*substrateCommandMailbox, 0, weightCount)
	for weightIdx := 0; weightIdx < weightCount; weightIdx++ {
		scoped := scopeCEPActorInitsForWeight(inits, weightIdx)
		substratePID := fmt.Sprintf("%s_w%d", runtimeSubstrateProcessID, weightIdx+1)
		if len(scoped) > 0 && strings.TrimSpace(scoped[0].substratePID) != "" {
			substratePID = strings.TrimSpace(scoped[0].substratePID)
		}
		pool = append(pool, newSubstrateCommandMailbox(substratePID))
	}
	return pool
}

package substrate

import (
	"strings"
	"sync"
)

// CEPFaninRelay pins one fan-in source (from PID) to one CEP actor and
// serializes posts from that source through its own goroutine, so two
// concurrent fan-in producers can't interleave messages to the same actor.
type CEPFaninRelay struct {
	id      string
	fromPID string
	actor   *CEPActor

	inbox chan cepFaninRelayRequest
	stop  chan struct{}
	done  chan struct{}
	once  sync.Once
}

type cepFaninRelayRequest struct {
	input []float64
	reply chan error
}

func NewCEPFaninRelay(id, fromPID string, actor *CEPActor) *CEPFaninRelay {
	relay := &CEPFaninRelay{
		id:      strings.TrimSpace(id),
		fromPID: strings.TrimSpace(fromPID),
		actor:   actor,
		inbox:   make(chan cepFaninRelayRequest),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go relay.run()
	return relay
}

func (r *CEPFaninRelay) run() {
	defer close(r.done)
	for {
		select {
		case <-r.stop:
			return
		case request := <-r.inbox:
			err := r.forward(request.input)
			if request.reply != nil {
				request.reply <- err
				close(request.reply)
			}
		}
	}
}

func (r *CEPFaninRelay) ID() string {
	if r == nil {
		return ""
	}
	return r.id
}

func (r *CEPFaninRelay) FromPID() string {
	if r == nil {
		return ""
	}
	return r.fromPID
}

func (r *CEPFaninRelay) Post(input []float64) error {
	if r == nil {
		return ErrMissingCEPFaninRelay
	}
	reply := make(chan error, 1)
	req := cepFaninRelayRequest{input: append([]float64(nil), input...), reply: reply}
	select {
	case <-r.stop:
		return ErrCEPFaninRelayTerminated
	case <-r.done:
		return ErrCEPFaninRelayTerminated
	case r.inbox <- req:
	}
	select {
	case <-r.done:
		return ErrCEPFaninRelayTerminated
	case err := <-reply:
		return err
	}
}

func (r *CEPFaninRelay) Terminate() {
	if r == nil {
		return
	}
	r.once.Do(func() {
		close(r.stop)
		<-r.done
	})
}

func (r *CEPFaninRelay) forward(input []float64) error {
	if r.actor == nil {
		return ErrMissingCEPActor
	}
	return r.actor.Post(CEPForwardMessage{
		FromPID: r.fromPID,
		Input:   append([]float64(nil), input...),
	})
}

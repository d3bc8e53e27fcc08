package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Mohsinsiddi/w3dapp/internal/erc20"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"go.uber.org/zap"
)

// ErrSubscribe wraps failures to attach the Transfer listener.
var ErrSubscribe = errors.New("subscribing to transfer events")

// ErrClosed is returned by Rebind once the subscriber has been closed.
var ErrClosed = errors.New("subscriber closed")

// SubState is the subscriber's state.
type SubState int

const (
	Unsubscribed SubState = iota
	Subscribed
)

func (s SubState) String() string {
	if s == Subscribed {
		return "subscribed"
	}
	return "unsubscribed"
}

// tagged is an event stamped with the generation of the subscription that
// delivered it.
type tagged struct {
	gen uint64
	ev  erc20.TransferEvent
}

// Subscriber holds at most one Transfer subscription. Every Rebind starts a
// new generation; events carrying an older generation are dropped by the
// consumer, so a released listener can never append to the log.
type Subscriber struct {
	log *zap.Logger

	mu     sync.Mutex
	gen    uint64
	cur    event.Subscription
	addr   common.Address
	state  SubState
	closed bool

	events  chan tagged
	deliver func(erc20.TransferEvent)
	failed  func(error)
	feed    event.Feed

	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewSubscriber starts the consumer. deliver is called for every live event
// in arrival order, from a single goroutine. failed is called when the active
// subscription dies. Either may be nil.
func NewSubscriber(log *zap.Logger, deliver func(erc20.TransferEvent), failed func(error)) *Subscriber {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Subscriber{
		log:     log,
		events:  make(chan tagged, 128),
		deliver: deliver,
		failed:  failed,
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.consume()
	return s
}

// Rebind releases the current subscription, if any, and attaches to tok. A
// nil tok just unsubscribes.
func (s *Subscriber) Rebind(ctx context.Context, tok *erc20.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.gen++
	s.release()
	if tok == nil {
		return nil
	}

	in := make(chan erc20.TransferEvent, 64)
	sub, err := tok.WatchTransfers(ctx, in)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSubscribe, tok.Address().Hex(), err)
	}
	s.cur = sub
	s.addr = tok.Address()
	s.state = Subscribed
	go s.forward(s.gen, sub, in)

	s.log.Debug("transfer listener attached", zap.String("token", s.addr.Hex()), zap.Uint64("generation", s.gen))
	return nil
}

// State reports whether a subscription is held and on which contract.
func (s *Subscriber) State() (SubState, common.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.addr
}

// SubscribeEvents registers ch to receive every delivered event. Delivery
// blocks on ch, so it must be drained, or unsubscribed before Close.
func (s *Subscriber) SubscribeEvents(ch chan<- erc20.TransferEvent) event.Subscription {
	return s.feed.Subscribe(ch)
}

// Close releases the subscription and stops the consumer.
func (s *Subscriber) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.gen++
		s.release()
		s.mu.Unlock()

		close(s.quit)
		<-s.done
	})
}

// release drops the current subscription. Caller holds s.mu.
func (s *Subscriber) release() {
	if s.cur != nil {
		s.cur.Unsubscribe()
		s.log.Debug("transfer listener released", zap.String("token", s.addr.Hex()))
	}
	s.cur = nil
	s.addr = common.Address{}
	s.state = Unsubscribed
}

// forward tags events from one subscription until it ends.
func (s *Subscriber) forward(gen uint64, sub event.Subscription, in <-chan erc20.TransferEvent) {
	for {
		select {
		case ev := <-in:
			select {
			case s.events <- tagged{gen: gen, ev: ev}:
			case <-s.quit:
				return
			}
		case err, ok := <-sub.Err():
			if ok && err != nil {
				s.subscriptionFailed(gen, err)
			}
			return
		case <-s.quit:
			return
		}
	}
}

func (s *Subscriber) subscriptionFailed(gen uint64, err error) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	addr := s.addr
	s.cur = nil
	s.addr = common.Address{}
	s.state = Unsubscribed
	s.mu.Unlock()

	s.log.Warn("transfer subscription dropped", zap.String("token", addr.Hex()), zap.Error(err))
	if s.failed != nil {
		s.failed(fmt.Errorf("%w: %s: %v", ErrSubscribe, addr.Hex(), err))
	}
}

func (s *Subscriber) consume() {
	defer close(s.done)
	for {
		select {
		case t := <-s.events:
			// The generation check and the delivery happen under the same lock
			// Rebind takes, so nothing from a released subscription gets
			// through once Rebind has started.
			s.mu.Lock()
			live := t.gen == s.gen && s.state == Subscribed
			if live && s.deliver != nil {
				s.deliver(t.ev)
			}
			s.mu.Unlock()

			if !live {
				s.log.Debug("dropped stale transfer event", zap.String("tx", t.ev.TxHash), zap.Uint64("generation", t.gen))
				continue
			}
			s.feed.Send(t.ev)
		case <-s.quit:
			return
		}
	}
}

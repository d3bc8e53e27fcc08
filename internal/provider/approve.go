package provider

import (
	"context"
	"fmt"
)

// Request describes one account access request.
type Request struct {
	Wallet  string
	Address string
	Purpose string
}

func (r Request) String() string {
	return fmt.Sprintf("%s wants account %s (%s)", r.Purpose, r.Wallet, r.Address)
}

// Approver decides on account access requests.
type Approver interface {
	Approve(ctx context.Context, req Request) (bool, error)
}

// ApproveFunc adapts a function to Approver.
type ApproveFunc func(ctx context.Context, req Request) (bool, error)

func (f ApproveFunc) Approve(ctx context.Context, req Request) (bool, error) { return f(ctx, req) }

// AutoApprove grants every request (--yes).
var AutoApprove Approver = ApproveFunc(func(context.Context, Request) (bool, error) { return true, nil })

// DenyAll refuses every request.
var DenyAll Approver = ApproveFunc(func(context.Context, Request) (bool, error) { return false, nil })

// Pending is a request waiting on an answer from the queue's reader.
type Pending struct {
	Request
	reply chan bool
}

// Answer resolves the request. Only the first answer counts.
func (p *Pending) Answer(ok bool) {
	select {
	case p.reply <- ok:
	default:
	}
}

// Queue hands requests to an interactive front end, such as the dapp page,
// and blocks until it answers.
type Queue struct {
	reqs chan *Pending
}

// NewQueue creates an empty Queue.
func NewQueue() *Queue {
	return &Queue{reqs: make(chan *Pending)}
}

// Requests is read by the front end.
func (q *Queue) Requests() <-chan *Pending {
	return q.reqs
}

// Approve implements Approver.
func (q *Queue) Approve(ctx context.Context, req Request) (bool, error) {
	p := &Pending{Request: req, reply: make(chan bool, 1)}
	select {
	case q.reqs <- p:
	case <-ctx.Done():
		return false, ctx.Err()
	}
	select {
	case ok := <-p.reply:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

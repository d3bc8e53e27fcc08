package erc20

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/Mohsinsiddi/w3dapp/internal/config"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

// WatchTransfers streams decoded Transfer events of this token into sink
// until the returned subscription is unsubscribed or fails.
//
// Endpoints with push support (WebSocket, IPC) are subscribed natively.
// Plain HTTP endpoints are polled with eth_getLogs from the current head on,
// so neither mode replays history.
func (t *Token) WatchTransfers(ctx context.Context, sink chan<- TransferEvent) (event.Subscription, error) {
	query := ethereum.FilterQuery{
		Addresses: []common.Address{t.address},
		Topics:    [][]common.Hash{{TransferTopic}},
	}

	logs := make(chan types.Log, 64)
	sub, err := t.backend.SubscribeFilterLogs(ctx, query, logs)
	if errors.Is(err, rpc.ErrNotificationsUnsupported) {
		t.log.Debug("endpoint cannot push logs, polling instead", zap.Duration("every", t.pollEvery))
		return t.pollTransfers(ctx, query, sink)
	}
	if err != nil {
		return nil, fmt.Errorf("subscribing to transfers: %w", err)
	}

	t.log.Debug("subscribed to transfer logs")
	return event.NewSubscription(func(quit <-chan struct{}) error {
		defer sub.Unsubscribe()
		for {
			select {
			case l := <-logs:
				ev, ok := DecodeTransfer(l)
				if !ok {
					continue
				}
				select {
				case sink <- ev:
				case <-quit:
					return nil
				}
			case err := <-sub.Err():
				return err
			case <-quit:
				return nil
			}
		}
	}), nil
}

func (t *Token) pollTransfers(ctx context.Context, query ethereum.FilterQuery, sink chan<- TransferEvent) (event.Subscription, error) {
	head, err := t.backend.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading head block: %w", err)
	}

	return event.NewSubscription(func(quit <-chan struct{}) error {
		ticker := time.NewTicker(t.pollEvery)
		defer ticker.Stop()

		next := head + 1
		for {
			select {
			case <-quit:
				return nil
			case <-ticker.C:
			}

			logs, latest, err := t.fetchRange(query, next)
			if err != nil {
				// The same range is retried on the next tick.
				t.log.Warn("polling transfer logs", zap.Uint64("from", next), zap.Error(err))
				continue
			}
			if latest < next {
				continue
			}
			next = latest + 1

			for _, l := range logs {
				ev, ok := DecodeTransfer(l)
				if !ok {
					continue
				}
				select {
				case sink <- ev:
				case <-quit:
					return nil
				}
			}
		}
	}), nil
}

// fetchRange returns the logs in [from, head] and the head it read.
func (t *Token) fetchRange(query ethereum.FilterQuery, from uint64) ([]types.Log, uint64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), config.CallTimeout)
	defer cancel()

	latest, err := t.backend.BlockNumber(ctx)
	if err != nil {
		return nil, 0, err
	}
	if latest < from {
		return nil, latest, nil
	}

	query.FromBlock = new(big.Int).SetUint64(from)
	query.ToBlock = new(big.Int).SetUint64(latest)
	logs, err := t.backend.FilterLogs(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	return logs, latest, nil
}

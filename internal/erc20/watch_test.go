package erc20_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Mohsinsiddi/w3dapp/internal/erc20"
	"github.com/Mohsinsiddi/w3dapp/internal/erc20/erc20test"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tokenB = "0x00000000000000000000000000000000000000bb"

func receive(t *testing.T, ch <-chan erc20.TransferEvent) erc20.TransferEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for transfer event")
		return erc20.TransferEvent{}
	}
}

func TestWatchTransfersPush(t *testing.T) {
	b := erc20test.NewBackend()
	b.PushLogs = true
	deployFoo(b)
	tok, err := erc20.NewToken(tokenA, b)
	require.NoError(t, err)

	sink := make(chan erc20.TransferEvent, 8)
	sub, err := tok.WatchTransfers(context.Background(), sink)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	b.Emit(erc20test.TransferLog(tokenA, testAddr, recipient, 1, 101, "0x01"))
	b.Emit(erc20test.TransferLog(tokenB, testAddr, recipient, 9, 101, "0x09"))
	b.Emit(erc20test.TransferLog(tokenA, recipient, testAddr, 2, 102, "0x02"))

	assert.Equal(t, "1", receive(t, sink).Amount)
	assert.Equal(t, "2", receive(t, sink).Amount)
}

func TestWatchTransfersUnsubscribeReleasesBackend(t *testing.T) {
	b := erc20test.NewBackend()
	b.PushLogs = true
	deployFoo(b)
	tok, err := erc20.NewToken(tokenA, b)
	require.NoError(t, err)

	sub, err := tok.WatchTransfers(context.Background(), make(chan erc20.TransferEvent))
	require.NoError(t, err)
	assert.Equal(t, 1, b.ActiveSubscriptions()[common.HexToAddress(tokenA)])

	sub.Unsubscribe()
	assert.Equal(t, 0, b.ActiveSubscriptions()[common.HexToAddress(tokenA)])
}

func TestWatchTransfersSurfacesSubscriptionError(t *testing.T) {
	b := erc20test.NewBackend()
	b.PushLogs = true
	deployFoo(b)
	tok, err := erc20.NewToken(tokenA, b)
	require.NoError(t, err)

	sub, err := tok.WatchTransfers(context.Background(), make(chan erc20.TransferEvent))
	require.NoError(t, err)
	defer sub.Unsubscribe()

	dropped := errors.New("connection reset")
	b.FailSubscriptions(dropped)

	select {
	case err := <-sub.Err():
		assert.ErrorIs(t, err, dropped)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription error not delivered")
	}
}

func TestWatchTransfersSubscribeError(t *testing.T) {
	b := erc20test.NewBackend()
	b.PushLogs = true
	b.SubscribeErr = errors.New("too many subscriptions")
	deployFoo(b)
	tok, err := erc20.NewToken(tokenA, b)
	require.NoError(t, err)

	_, err = tok.WatchTransfers(context.Background(), make(chan erc20.TransferEvent))
	assert.ErrorIs(t, err, b.SubscribeErr)
}

func TestWatchTransfersPollsWithoutPushSupport(t *testing.T) {
	b := erc20test.NewBackend()
	deployFoo(b)
	// Already mined before the watch starts: must not be replayed.
	b.Emit(erc20test.TransferLog(tokenA, testAddr, recipient, 99, 90, "0x99"))

	tok, err := erc20.NewToken(tokenA, b, erc20.WithPollInterval(10*time.Millisecond))
	require.NoError(t, err)

	sink := make(chan erc20.TransferEvent, 8)
	sub, err := tok.WatchTransfers(context.Background(), sink)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	b.Emit(
		erc20test.TransferLog(tokenA, testAddr, recipient, 1, 101, "0x01"),
		erc20test.TransferLog(tokenA, testAddr, recipient, 2, 101, "0x02"),
		erc20test.TransferLog(tokenB, testAddr, recipient, 7, 102, "0x07"),
		erc20test.TransferLog(tokenA, testAddr, recipient, 3, 103, "0x03"),
	)

	assert.Equal(t, "1", receive(t, sink).Amount)
	assert.Equal(t, "2", receive(t, sink).Amount)
	assert.Equal(t, "3", receive(t, sink).Amount)

	select {
	case ev := <-sink:
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

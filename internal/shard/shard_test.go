package shard

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shardkv/shardkv/internal/aof"
	"github.com/shardkv/shardkv/internal/protocol"
	"github.com/shardkv/shardkv/internal/store"
)

func sendCommand(t *testing.T, sh *Shard, name string, args ...string) *protocol.Value {
	t.Helper()
	rawArgs := make([][]byte, len(args))
	for i, a := range args {
		rawArgs[i] = []byte(a)
	}
	replyCh := make(chan *protocol.Value, 1)
	require.True(t, sh.Submit(CommandRequest{Name: name, Args: rawArgs, ReplyCh: replyCh}))
	select {
	case reply := <-replyCh:
		return reply
	case <-time.After(2 * time.Second):
		t.Fatal("shard did not reply in time")
		return nil
	}
}

func TestShardServesCommandsWithoutAOF(t *testing.T) {
	sh, err := New(Config{ID: 0})
	require.NoError(t, err)
	defer sh.Drain()

	reply := sendCommand(t, sh, "SET", "a", "1")
	assert.Equal(t, protocol.KindSimpleString, reply.Kind)

	reply = sendCommand(t, sh, "GET", "a")
	assert.Equal(t, "1", string(reply.Bulk))
}

func TestShardLifecycleStates(t *testing.T) {
	sh, err := New(Config{ID: 0})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return sh.State() == Running
	}, time.Second, 10*time.Millisecond)

	sh.Drain()
	assert.Eventually(t, func() bool {
		return sh.State() == Stopped
	}, time.Second, 10*time.Millisecond)

	assert.False(t, sh.Submit(CommandRequest{Name: "PING", ReplyCh: make(chan *protocol.Value, 1)}))
}

func TestShardReplaysAOFOnRestart(t *testing.T) {
	dir := t.TempDir()

	sh, err := New(Config{ID: 3, AOFEnabled: true, DataDir: dir, SyncPolicy: aof.SyncAlways})
	require.NoError(t, err)

	sendCommand(t, sh, "SET", "persisted", "value")
	sendCommand(t, sh, "INCR", "counter")
	sendCommand(t, sh, "INCR", "counter")
	sh.Drain()
	assert.Eventually(t, func() bool { return sh.State() == Stopped }, time.Second, 10*time.Millisecond)

	assert.FileExists(t, AOFPath(dir, 3))

	restarted, err := New(Config{ID: 3, AOFEnabled: true, DataDir: dir, SyncPolicy: aof.SyncAlways})
	require.NoError(t, err)
	defer restarted.Drain()

	reply := sendCommand(t, restarted, "GET", "persisted")
	assert.Equal(t, "value", string(reply.Bulk))

	reply = sendCommand(t, restarted, "GET", "counter")
	assert.Equal(t, "2", string(reply.Bulk))
}

func TestShardStatsReflectsStoredKeys(t *testing.T) {
	sh, err := New(Config{ID: 0})
	require.NoError(t, err)
	defer sh.Drain()

	sendCommand(t, sh, "SET", "a", "1")
	sendCommand(t, sh, "SET", "b", "2")

	replyCh := make(chan store.Stats, 1)
	require.True(t, sh.RequestStats(StatsRequest{ReplyCh: replyCh}))
	stats := <-replyCh
	assert.Equal(t, int64(2), stats.ActiveKeys)
}

func TestAOFPathIsDeterministic(t *testing.T) {
	assert.Equal(t, filepath.Join("/data", "shard_5.aof"), AOFPath("/data", 5))
}

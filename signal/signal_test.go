package signal

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"
)

func TestSignalCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifyCh := make(chan os.Signal, 2)
	exited := make(chan struct{})
	watch(ctx, cancel, notifyCh, func() { close(exited) })

	notifyCh <- syscall.SIGINT
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context not cancelled by signal")
	}

	notifyCh <- syscall.SIGTERM
	select {
	case <-exited:
	case <-time.After(5 * time.Second):
		t.Fatal("second signal did not exit")
	}
}

func TestParentCancelStopsWatch(t *testing.T) {
	ctx, cancel := NotifyContext(context.Background())
	cancel()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context not done")
	}
}

//go:build !windows

package executor

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/doeshing/nixsay/internal/domain"
)

func TestTimeoutKeepsPartialOutputAndKillsGroup(t *testing.T) {
	defer goleak.VerifyNone(t)

	cmd := domain.Command{
		Text:       "nix search nixpkgs firefox",
		Argv:       []string{"sh", "-c", "echo partial; exec sleep 30"},
		Operation:  "search",
		Class:      domain.ClassNetwork,
		Idempotent: true,
	}
	opts := fastOptions()
	opts.Timeout = 300 * time.Millisecond

	start := time.Now()
	result, err := NewLocalExecutor(nil).Execute(context.Background(), cmd, opts)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrExecutionTimeout))
	assert.Less(t, time.Since(start), 10*time.Second)

	assert.True(t, result.TimedOut)
	assert.Equal(t, "partial\n", result.Stdout)
	require.Len(t, result.Attempts, 1, "timeouts are not retried")

	pgid := result.Attempts[0].PID
	require.NotZero(t, pgid)
	assert.Eventually(t, func() bool {
		return errors.Is(syscall.Kill(-pgid, 0), syscall.ESRCH)
	}, 2*time.Second, 20*time.Millisecond, "process group %d still alive", pgid)
}

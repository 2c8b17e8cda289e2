package gracexit

import (
	"errors"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrigger_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		trigger Trigger
		want    string
	}{
		{trigger: TriggerInterrupt, want: "SIGINT"},
		{trigger: TriggerTerminate, want: "SIGTERM"},
		{trigger: TriggerUnhandledRejection, want: "unhandledRejection"},
		{trigger: TriggerUncaughtException, want: "uncaughtException"},
		{trigger: Trigger(0), want: "Trigger(0)"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tt.want, tt.trigger.String())
		})
	}
}

func Test_normalizers(t *testing.T) {
	t.Parallel()

	for _, trigger := range triggers {
		_, ok := normalizers[trigger]
		require.True(t, ok, "no normalizer for %v", trigger)
	}
}

func Test_normalize(t *testing.T) {
	t.Parallel()

	structured := errors.New("structured")
	panicErr := &PanicError{Value: "boom"}

	tests := []struct {
		name      string
		trigger   Trigger
		payload   []interface{}
		wantNil   bool
		wantIs    error
		wantAs    interface{}
		wantError string
	}{
		{
			name:    "interrupt_without_payload",
			trigger: TriggerInterrupt,
			wantNil: true,
		},
		{
			name:    "interrupt_with_error_payload",
			trigger: TriggerInterrupt,
			payload: []interface{}{structured, structured},
			wantNil: true,
		},
		{
			name:      "terminate_signal",
			trigger:   TriggerTerminate,
			payload:   []interface{}{syscall.SIGTERM},
			wantAs:    new(*SignalError),
			wantError: "received signal: terminated",
		},
		{
			name:    "second_payload_is_preferred",
			trigger: TriggerUncaughtException,
			payload: []interface{}{"boom", panicErr},
			wantIs:  panicErr,
		},
		{
			name:    "second_payload_is_not_an_error",
			trigger: TriggerUnhandledRejection,
			payload: []interface{}{structured, 42},
			wantIs:  structured,
		},
		{
			name:    "nil_second_payload",
			trigger: TriggerUnhandledRejection,
			payload: []interface{}{structured, nil},
			wantIs:  structured,
		},
		{
			name:      "non_error_first_payload",
			trigger:   TriggerUnhandledRejection,
			payload:   []interface{}{"timeout"},
			wantAs:    new(*ReasonError),
			wantError: "rejected with non-error reason: timeout",
		},
		{
			name:    "nil_first_payload",
			trigger: TriggerUnhandledRejection,
			payload: []interface{}{nil},
			wantIs:  ErrNoReason,
		},
		{
			name:    "no_payload",
			trigger: TriggerUncaughtException,
			wantIs:  ErrNoReason,
		},
		{
			name:    "unknown_trigger",
			trigger: Trigger(100),
			payload: []interface{}{structured},
			wantIs:  structured,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := normalize(tt.trigger, tt.payload...)
			if tt.wantNil {
				require.NoError(t, got)
				return
			}
			require.Error(t, got)
			if tt.wantIs != nil {
				require.ErrorIs(t, got, tt.wantIs)
			}
			if tt.wantAs != nil {
				require.ErrorAs(t, got, tt.wantAs)
			}
			if tt.wantError != "" {
				require.EqualError(t, got, tt.wantError)
			}
		})
	}
}

func TestPanicError(t *testing.T) {
	t.Parallel()

	t.Run("error_value", func(t *testing.T) {
		t.Parallel()

		err := &PanicError{Value: os.ErrClosed}
		require.ErrorIs(t, err, os.ErrClosed)
		require.EqualError(t, err, "panic: file already closed")
	})

	t.Run("non_error_value", func(t *testing.T) {
		t.Parallel()

		err := &PanicError{Value: 42}
		require.NoError(t, errors.Unwrap(err))
		require.EqualError(t, err, "panic: 42")
	})

	t.Run("toPanicError_keeps_existing", func(t *testing.T) {
		t.Parallel()

		pe := &PanicError{Value: "x"}
		require.Same(t, pe, toPanicError(pe))

		got := toPanicError("y")
		require.Equal(t, "y", got.Value)
		require.NotEmpty(t, got.Stack)
	})
}

package errors

import (
	stderrors "errors"
	"testing"
)

func TestAppErrorFormatting(t *testing.T) {
	cause := stderrors.New("dial tcp: connection refused")

	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "with cause",
			err:  NewExternalError("vidal fetch failed", cause),
			want: "EXTERNAL: vidal fetch failed: dial tcp: connection refused",
		},
		{
			name: "without cause",
			err:  NewNotFoundError("policy not found"),
			want: "NOT_FOUND: policy not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := stderrors.New("constraint violation")
	err := NewInternalError("snapshot insert failed", cause)

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should reach the wrapped cause")
	}

	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		t.Fatal("errors.As should match *AppError")
	}
	if appErr.Type != ErrorTypeInternal {
		t.Errorf("Type = %s, want %s", appErr.Type, ErrorTypeInternal)
	}
}

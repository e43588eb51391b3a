package app

import (
	"context"
	"testing"
)

func TestRunRequiresProgressAPIURL(t *testing.T) {
	t.Parallel()

	if err := Run(context.Background(), RuntimeConfig{}); err == nil {
		t.Fatal("expected error for missing progress api url")
	}
}

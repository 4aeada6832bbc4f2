package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestAndTenderIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithTenderID(ctx, "1797214539612372992")

	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Equal(t, "1797214539612372992", TenderIDFromContext(ctx))
	assert.Empty(t, RequestIDFromContext(context.Background()))
}

package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAnswerer struct {
	question string
	answer   string
	err      error
}

func (s *stubAnswerer) Answer(_ context.Context, question string) (string, error) {
	s.question = question
	return s.answer, s.err
}

func marshal(t *testing.T, v any) string {
	t.Helper()
	out, err := json.Marshal(v)
	require.NoError(t, err)
	return string(out)
}

func TestHandlePrimeExample(t *testing.T) {
	d := New(nil)
	got, err := d.Handle(context.Background(), []byte(`{"prime":[2,3,4,5,1]}`))
	require.NoError(t, err)
	assert.Equal(t, `[2,3,5]`, marshal(t, got))
}

func TestHandlePrimeWithNoPrimesIsEmptyArray(t *testing.T) {
	got, err := New(nil).Handle(context.Background(), []byte(`{"prime":[1,4,6]}`))
	require.NoError(t, err)
	assert.Equal(t, `[]`, marshal(t, got))
}

func TestHandleFibonacci(t *testing.T) {
	d := New(nil)

	got, err := d.Handle(context.Background(), []byte(`{"fibonacci":7}`))
	require.NoError(t, err)
	assert.Equal(t, `[0,1,1,2,3,5,8]`, marshal(t, got))

	got, err = d.Handle(context.Background(), []byte(`{"fibonacci":1000}`))
	require.NoError(t, err)
	terms, ok := got.([]*big.Int)
	require.True(t, ok)
	assert.Len(t, terms, 1000)
}

func TestHandleHCFAndLCM(t *testing.T) {
	d := New(nil)

	got, err := d.Handle(context.Background(), []byte(`{"hcf":[24,36,60]}`))
	require.NoError(t, err)
	assert.Equal(t, `12`, marshal(t, got))

	got, err = d.Handle(context.Background(), []byte(`{"lcm":[4,6,10]}`))
	require.NoError(t, err)
	assert.Equal(t, `60`, marshal(t, got))

	got, err = d.Handle(context.Background(), []byte(`{"lcm":[0,7]}`))
	require.NoError(t, err)
	assert.Equal(t, `0`, marshal(t, got))
}

func TestHandleAI(t *testing.T) {
	ai := &stubAnswerer{answer: "Paris"}
	got, err := New(ai).Handle(context.Background(), []byte(`{"AI":" capital of France? "}`))
	require.NoError(t, err)
	assert.Equal(t, "Paris", got)
	assert.Equal(t, "capital of France?", ai.question)
}

func TestHandleAIPropagatesError(t *testing.T) {
	upstream := errors.New("upstream down")
	_, err := New(&stubAnswerer{err: upstream}).Handle(context.Background(), []byte(`{"AI":"q"}`))
	assert.ErrorIs(t, err, upstream)
}

func TestExecuteWithoutAnswerer(t *testing.T) {
	_, err := New(nil).Execute(context.Background(), AIRequest{Question: "q"})
	assert.Error(t, err)
}

func TestHandleValidationErrorSkipsExecution(t *testing.T) {
	ai := &stubAnswerer{answer: "unused"}
	_, err := New(ai).Handle(context.Background(), []byte(`{"AI":""}`))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, ai.question)
}

func TestExecutePrimeHonoursDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, err := New(nil).Execute(ctx, PrimeRequest{Values: []int64{9007199254740881, 9007199254740881}})

	var terr *TimeoutError
	require.ErrorAs(t, err, &terr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, MsgTimedOut, err.Error())
}

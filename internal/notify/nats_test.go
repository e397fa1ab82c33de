package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/twm/internal/pipeline"
)

type fakeConn struct {
	subjects []string
	payloads [][]byte
	err      error
	closed   bool
}

func (f *fakeConn) Publish(subj string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subj)
	f.payloads = append(f.payloads, data)
	return nil
}
func (f *fakeConn) FlushTimeout(time.Duration) error { return nil }
func (f *fakeConn) Close()                           { f.closed = true }

func TestRecordPublishesJSON(t *testing.T) {
	fc := &fakeConn{}
	p := newPublisher(fc, "")
	assert.Equal(t, DefaultSubject, p.Subject())

	require.NoError(t, p.Record(context.Background(), pipeline.Summary{ID: "c1", Kind: pipeline.CycleScoped, Changed: 2, Outcome: pipeline.OutcomeSuccess}))
	require.Len(t, fc.subjects, 1)
	assert.Equal(t, "twm.cycles.scoped", fc.subjects[0])

	var got pipeline.Summary
	require.NoError(t, json.Unmarshal(fc.payloads[0], &got))
	assert.Equal(t, "c1", got.ID)
	assert.Equal(t, 2, got.Changed)

	p.Close()
	assert.True(t, fc.closed)
}

func TestRecordPropagatesPublishError(t *testing.T) {
	p := newPublisher(&fakeConn{err: errors.New("no responders")}, "custom")
	assert.Error(t, p.Record(context.Background(), pipeline.Summary{ID: "c1", Kind: pipeline.CycleFull}))
}

func TestNewNATSPublisherRequiresURL(t *testing.T) {
	_, err := NewNATSPublisher("", "x")
	assert.Error(t, err)
}

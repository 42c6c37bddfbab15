package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"papertrust/internal/domain"
)

func TestPipelineRun_ForwardOnly(t *testing.T) {
	run := &pipelineRun{requestID: "req-1", state: domain.StateParsing}

	run.advance(domain.StatePersisting)
	assert.Equal(t, domain.StatePersisting, run.state)

	run.advance(domain.StateParsing)
	assert.Equal(t, domain.StatePersisting, run.state)

	run.advance(domain.StatePersisting)
	assert.Equal(t, domain.StatePersisting, run.state)

	run.advance(domain.StateCleaningUp)
	assert.Equal(t, domain.StateCleaningUp, run.state)
}

func TestPipelineState_Order(t *testing.T) {
	ordered := []domain.PipelineState{
		domain.StateIdle,
		domain.StateParsing,
		domain.StatePersisting,
		domain.StateNormalizing,
		domain.StateStaging,
		domain.StateRecognizing,
		domain.StateCleaningUp,
		domain.StateDone,
	}
	names := []string{"idle", "parsing", "persisting", "normalizing", "staging", "recognizing", "cleaning_up", "done"}
	for i, s := range ordered {
		assert.Equal(t, names[i], s.String())
		if i > 0 {
			assert.Less(t, ordered[i-1], s)
		}
	}
}

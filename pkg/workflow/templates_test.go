package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTemplateFor_KnownAndUnknownTypes(t *testing.T) {
	tmpl := templateFor("site_recreation")
	assert.True(t, tmpl.Strict)
	assert.True(t, tmpl.Sequential)
	assert.Len(t, tmpl.Tasks, 4)

	fallback := templateFor("something_nobody_registered")
	assert.Len(t, fallback.Tasks, 1)
	assert.Equal(t, defaultTaskType, fallback.Tasks[0].Type)
}

func TestCapabilitiesFor_FallsBackToGeneral(t *testing.T) {
	assert.NotEmpty(t, capabilitiesFor("business_analysis"))
	assert.Equal(t, []string{"General capabilities"}, capabilitiesFor("unknown"))
}

func TestComplexity_ClampedToRange(t *testing.T) {
	w := Workflow{WorkflowType: "critical", Priority: "CRITICAL"}
	assert.Equal(t, 10, complexity(w))

	w2 := Workflow{WorkflowType: "nonexistent_type"}
	c := complexity(w2)
	assert.GreaterOrEqual(t, c, 1)
	assert.LessOrEqual(t, c, 10)
}

func TestComplexity_LargePayloadIncreasesScore(t *testing.T) {
	small := Workflow{WorkflowType: "simple", Payload: map[string]any{}}
	big := Workflow{WorkflowType: "simple", Payload: map[string]any{}}
	for i := 0; i < 2000; i++ {
		big.Payload["k"+string(rune(i))] = "some reasonably long value to pad out the payload size"
	}

	assert.Greater(t, complexity(big), complexity(small))
}

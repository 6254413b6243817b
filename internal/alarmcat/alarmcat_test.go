package alarmcat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Driver Fatigue", Describe(56000))
	assert.Equal(t, "Speeding Alarm", Describe(8))
	assert.Equal(t, "Unknown Alarm", Describe(99999))
}

func TestClassify(t *testing.T) {
	c, ok := Classify(56002)
	assert.True(t, ok)
	assert.Equal(t, "Distraction", c.Category)
	assert.Equal(t, "PhoneUse", c.Subtype)

	c, ok = Classify(18007)
	assert.True(t, ok)
	assert.Equal(t, "Driving", c.Category)
	assert.Equal(t, "HardBraking", c.Subtype)

	// Codes with a description but no Gauss mapping stay unclassified.
	_, ok = Classify(18015)
	assert.False(t, ok)

	_, ok = Classify(99999)
	assert.False(t, ok)
}

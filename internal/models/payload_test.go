package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHalf_TypeCodeZeroPresent(t *testing.T) {
	var d AlarmData
	err := json.Unmarshal([]byte(`{"alarmId":"A1","vehicleId":"V1","alarmType":0,"kind":"START","time":"2025-01-10T09:00:00Z"}`), &d)
	require.NoError(t, err)

	half, err := d.ToHalf()
	require.NoError(t, err)
	assert.Equal(t, 0, half.AlarmType)
	assert.True(t, half.HasType)
}

func TestToHalf_TypeCodeAbsent(t *testing.T) {
	var d AlarmData
	err := json.Unmarshal([]byte(`{"alarmId":"A1","vehicleId":"V1","kind":"END","time":"2025-01-10T09:05:00Z"}`), &d)
	require.NoError(t, err)

	half, err := d.ToHalf()
	require.NoError(t, err)
	assert.Equal(t, 0, half.AlarmType)
	assert.False(t, half.HasType)
}

func TestToHalf_BadKind(t *testing.T) {
	d := AlarmData{AlarmID: "A1", Kind: "MIDDLE", Time: "2025-01-10T09:00:00Z"}
	_, err := d.ToHalf()
	assert.Error(t, err)
}

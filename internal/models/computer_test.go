package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestStandardPartsAcceptStringsAndObjects(t *testing.T) {
	var specs StandardParts
	raw := `{"monitor":"Dell P2419H","mouse":{"name":"Logitech","serial":"M-7"}}`
	require.NoError(t, json.Unmarshal([]byte(raw), &specs))

	assert.Equal(t, PartInfo{Name: "Dell P2419H"}, specs["monitor"])
	assert.Equal(t, PartInfo{Name: "Logitech", Serial: "M-7"}, specs["mouse"])
	assert.NoError(t, specs.Validate())

	full := specs.Complete()
	assert.Len(t, full, len(StandardPartNames))
	assert.Equal(t, "Dell P2419H", full["monitor"].Name)
	assert.Empty(t, full["wifi"].Name)
}

func TestStandardPartsRejectUnknownSlot(t *testing.T) {
	specs := StandardParts{"printer": {Name: "HP"}}
	assert.Error(t, specs.Validate())
}

func TestValidateCustomParts(t *testing.T) {
	assert.NoError(t, ValidateCustomParts([]CustomPart{{Name: "Webcam"}, {Name: "Speaker"}}))
	assert.Error(t, ValidateCustomParts([]CustomPart{{Name: "Webcam"}, {Name: "webcam"}}))
	assert.Error(t, ValidateCustomParts([]CustomPart{{Name: "  "}}))

	tooMany := make([]CustomPart, MaxCustomParts+1)
	for i := range tooMany {
		tooMany[i] = CustomPart{Name: string(rune('a' + i))}
	}
	assert.Error(t, ValidateCustomParts(tooMany))
}

func TestComputerHasPart(t *testing.T) {
	c := Computer{OtherParts: datatypes.NewJSONType([]CustomPart{{Name: "Webcam"}})}

	assert.True(t, c.HasPart("monitor", PartStandard))
	assert.False(t, c.HasPart("printer", PartStandard))
	assert.True(t, c.HasPart("Webcam", PartCustom))
	assert.False(t, c.HasPart("monitor", PartCustom))
}

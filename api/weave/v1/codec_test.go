package weavev1

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weavectl/internal/model"
)

func TestStructCarriesModelTypes(t *testing.T) {
	req := model.LaunchRequest{
		Name: "pvp",
		ClientInfo: model.ClientInfo{
			Client:  model.LunarClient,
			Version: "1.8.9",
			Cmd:     []string{"java", "--version", "1.8.9"},
			Cwd:     "/games",
		},
	}
	s, err := EncodeStruct(req)
	require.NoError(t, err)
	assert.Equal(t, "LunarClient", s.GetFields()["mc_info"].GetStructValue().GetFields()["client"].GetStringValue())

	var got model.LaunchRequest
	require.NoError(t, DecodeStruct(s, &got))
	assert.Equal(t, req, got)
}

func TestListOfRecords(t *testing.T) {
	records := []model.ProcessRecord{
		{PID: 42, StartTime: 1700000000, Info: model.ClientInfo{Client: model.Forge, Cmd: []string{"java"}}, AgentAttached: true},
	}
	l, err := EncodeList(records)
	require.NoError(t, err)
	require.Len(t, l.GetValues(), 1)

	var got []model.ProcessRecord
	require.NoError(t, DecodeList(l, &got))
	assert.Equal(t, records, got)
}

func TestEncodeNilList(t *testing.T) {
	var records []model.ProcessRecord
	l, err := EncodeList(records)
	require.NoError(t, err)
	assert.Empty(t, l.GetValues())
}

func TestDecodeStructRejectsNil(t *testing.T) {
	var cfg model.ModConfig
	assert.Error(t, DecodeStruct(nil, &cfg))
}

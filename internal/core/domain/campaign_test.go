package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCampaignType_Valid(t *testing.T) {
	assert.True(t, CampaignDay1Soft.Valid())
	assert.True(t, CampaignDay3Urgent.Valid())

	assert.False(t, CampaignType("day7_final").Valid())
	assert.False(t, CampaignType("").Valid())
}

func TestCampaignType_WindowDays(t *testing.T) {
	assert.Equal(t, 1, CampaignDay1Soft.WindowDays())
	assert.Equal(t, 3, CampaignDay3Urgent.WindowDays())
	assert.Equal(t, 0, CampaignType("unknown").WindowDays())
}

func TestAllCampaigns_DispatchOrder(t *testing.T) {
	campaigns := AllCampaigns()

	require.Len(t, campaigns, 2)
	assert.Equal(t, CampaignDay1Soft, campaigns[0])
	assert.Equal(t, CampaignDay3Urgent, campaigns[1])
}

package routing

import (
	"testing"

	"brigade/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grillItem() *models.OrderItem {
	return &models.OrderItem{
		Name:              "ribeye",
		Difficulty:        2,
		RequiredEquipment: models.StringSlice{"grill"},
	}
}

func twoStations() []models.Station {
	a := models.Station{Name: "Grill 1", Type: string(models.StationTypeGrill), Capacity: 5, EfficiencyScore: 100, IsActive: true}
	a.ID = 1
	a.MergeImpliedCapability()
	b := models.Station{Name: "Grill 2", Type: string(models.StationTypeGrill), Capacity: 5, EfficiencyScore: 100, IsActive: true}
	b.ID = 2
	b.MergeImpliedCapability()
	return []models.Station{a, b}
}

func TestRuleStageEmptyIsPassthrough(t *testing.T) {
	stations := twoStations()

	filtered, weights := NewRuleStage(nil).Apply(grillItem(), stations)
	assert.Len(t, filtered, 2)
	assert.Empty(t, weights)

	var nilStage *RuleStage
	filtered, _ = nilStage.Apply(grillItem(), stations)
	assert.Len(t, filtered, 2)
}

func TestRuleStageRestrictsToPreferredStations(t *testing.T) {
	rule := models.RoutingRule{
		Name:              "steaks to grill 2",
		PreferredStations: models.StringSlice{"Grill 2"},
		Weight:            10,
		Priority:          1,
		IsActive:          true,
	}
	require.NoError(t, rule.SetConditions([]models.RuleCondition{{RequiredTag: "grill"}}))

	filtered, weights := NewRuleStage([]models.RoutingRule{rule}).Apply(grillItem(), twoStations())
	require.Len(t, filtered, 1)
	assert.Equal(t, "Grill 2", filtered[0].Name)
	assert.Equal(t, 10.0, weights[filtered[0].ID])
}

func TestRuleStageWeightsAllStationsWithoutPreference(t *testing.T) {
	rule := models.RoutingRule{
		Name:     "nudge everything",
		Weight:   10,
		IsActive: true,
	}
	require.NoError(t, rule.SetConditions([]models.RuleCondition{{RequiredTag: "grill"}}))

	filtered, weights := NewRuleStage([]models.RoutingRule{rule}).Apply(grillItem(), twoStations())
	require.Len(t, filtered, 2)
	assert.Equal(t, 10.0, weights[1])
	assert.Equal(t, 10.0, weights[2])
}

func TestRuleStageIgnoresNonMatchingRules(t *testing.T) {
	rule := models.RoutingRule{
		Name:              "desserts to pastry",
		PreferredStations: models.StringSlice{"Pastry"},
		IsActive:          true,
	}
	require.NoError(t, rule.SetConditions([]models.RuleCondition{{RequiredTag: "convection-oven"}}))

	filtered, weights := NewRuleStage([]models.RoutingRule{rule}).Apply(grillItem(), twoStations())
	assert.Len(t, filtered, 2)
	assert.Empty(t, weights)
}

func TestRuleStageKeepsAllStationsWhenPreferenceIsStale(t *testing.T) {
	rule := models.RoutingRule{
		Name:              "points at a removed station",
		PreferredStations: models.StringSlice{"Demolished Wok"},
		IsActive:          true,
	}
	require.NoError(t, rule.SetConditions([]models.RuleCondition{{RequiredTag: "grill"}}))

	filtered, weights := NewRuleStage([]models.RoutingRule{rule}).Apply(grillItem(), twoStations())
	assert.Len(t, filtered, 2)
	assert.Empty(t, weights)
}

func TestRuleStageClampsWeight(t *testing.T) {
	rule := models.RoutingRule{
		Name:              "heavy thumb on the scale",
		PreferredStations: models.StringSlice{"Grill 1"},
		Weight:            500,
		IsActive:          true,
	}
	require.NoError(t, rule.SetConditions([]models.RuleCondition{{RequiredTag: "grill"}}))

	_, weights := NewRuleStage([]models.RoutingRule{rule}).Apply(grillItem(), twoStations())
	assert.Equal(t, ruleWeightLimit, weights[1])
}

func TestRuleStageHighestPriorityWins(t *testing.T) {
	low := models.RoutingRule{
		Name:              "low",
		PreferredStations: models.StringSlice{"Grill 1"},
		Priority:          1,
		IsActive:          true,
	}
	require.NoError(t, low.SetConditions([]models.RuleCondition{{RequiredTag: "grill"}}))

	high := models.RoutingRule{
		Name:              "high",
		PreferredStations: models.StringSlice{"Grill 2"},
		Priority:          5,
		IsActive:          true,
	}
	require.NoError(t, high.SetConditions([]models.RuleCondition{{RequiredTag: "grill"}}))

	filtered, _ := NewRuleStage([]models.RoutingRule{low, high}).Apply(grillItem(), twoStations())
	require.Len(t, filtered, 1)
	assert.Equal(t, "Grill 2", filtered[0].Name)
}

func TestRuleWithNoConditionsMatchesNothing(t *testing.T) {
	rule := models.RoutingRule{
		Name:              "empty",
		PreferredStations: models.StringSlice{"Grill 1"},
		IsActive:          true,
	}

	filtered, _ := NewRuleStage([]models.RoutingRule{rule}).Apply(grillItem(), twoStations())
	assert.Len(t, filtered, 2)
}

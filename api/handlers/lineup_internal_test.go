package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/siuno/teamfund-api/models"
)

func player(name string, pos models.Position) models.LineupPlayer {
	return models.LineupPlayer{UserID: primitive.NewObjectID(), Name: name, Position: pos}
}

func names(players []models.LineupPlayer) []string {
	out := make([]string, 0, len(players))
	for _, p := range players {
		out = append(out, p.Name)
	}
	return out
}

func TestSplitByPosition_AlternatesWithinEachGroup(t *testing.T) {
	players := []models.LineupPlayer{
		player("gk1", models.PositionGoalkeeper),
		player("gk2", models.PositionGoalkeeper),
		player("df1", models.PositionDefender),
		player("df2", models.PositionDefender),
		player("mf1", models.PositionMidfielder),
		player("mf2", models.PositionMidfielder),
	}

	teamA, teamB := splitByPosition(players)

	assert.Equal(t, []string{"gk1", "df1", "mf1"}, names(teamA))
	assert.Equal(t, []string{"gk2", "df2", "mf2"}, names(teamB))
	assert.True(t, squadSizesBalanced(teamA, teamB))
}

func TestSplitByPosition_GroupOrderIsFixed(t *testing.T) {
	// input order within a position does not matter, group order does:
	// goalkeepers are dealt first regardless of where they appear
	players := []models.LineupPlayer{
		player("st1", models.PositionStriker),
		player("st2", models.PositionStriker),
		player("gk1", models.PositionGoalkeeper),
		player("mf1", models.PositionMidfielder),
		player("mf2", models.PositionMidfielder),
	}

	teamA, teamB := splitByPosition(players)

	assert.Equal(t, []string{"gk1", "mf1", "st1"}, names(teamA))
	assert.Equal(t, []string{"mf2", "st2"}, names(teamB))
}

func TestSplitByPosition_UnpositionedDealtLast(t *testing.T) {
	players := []models.LineupPlayer{
		player("nopos1", ""),
		player("gk1", models.PositionGoalkeeper),
		player("gk2", models.PositionGoalkeeper),
		player("nopos2", ""),
	}

	teamA, teamB := splitByPosition(players)

	assert.Equal(t, []string{"gk1", "nopos1"}, names(teamA))
	assert.Equal(t, []string{"gk2", "nopos2"}, names(teamB))
}

func TestSplitByPosition_SingletonGroupsAllLandOnA(t *testing.T) {
	// every group restarts the deal at squad A, so a set of singleton
	// groups piles up on one side and must fail the balance check
	players := []models.LineupPlayer{
		player("gk1", models.PositionGoalkeeper),
		player("df1", models.PositionDefender),
		player("mf1", models.PositionMidfielder),
	}

	teamA, teamB := splitByPosition(players)

	assert.Equal(t, []string{"gk1", "df1", "mf1"}, names(teamA))
	assert.Empty(t, teamB)
	assert.False(t, squadSizesBalanced(teamA, teamB))
}

func TestSquadSizesBalanced(t *testing.T) {
	two := []models.LineupPlayer{player("a", ""), player("b", "")}
	three := []models.LineupPlayer{player("c", ""), player("d", ""), player("e", "")}

	assert.True(t, squadSizesBalanced(two, two))
	assert.True(t, squadSizesBalanced(two, three))
	assert.True(t, squadSizesBalanced(three, two))
	assert.False(t, squadSizesBalanced(nil, two))
	assert.True(t, squadSizesBalanced(nil, nil))
}

package gymstats_test

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"

	"github.com/2beens/gymsession/internal/gymstats"
)

func TestEvaluate(t *testing.T) {
	testCases := []struct {
		name       string
		newWeight  float64
		newReps    int
		bests      gymstats.KnownBests
		expectedPR gymstats.PRResult
	}{
		{
			name:       "barbell scenario",
			newWeight:  gymstats.TotalWeight(135, true),
			newReps:    5,
			bests:      gymstats.KnownBests{Weight: 170, Reps: 5},
			expectedPR: gymstats.PRResult{IsWeightPR: true, IsRepsPR: false},
		},
		{
			name:       "tie is not a record",
			newWeight:  100,
			newReps:    8,
			bests:      gymstats.KnownBests{Weight: 100, Reps: 8},
			expectedPR: gymstats.PRResult{},
		},
		{
			name:       "reps record only",
			newWeight:  90,
			newReps:    12,
			bests:      gymstats.KnownBests{Weight: 100, Reps: 10},
			expectedPR: gymstats.PRResult{IsRepsPR: true},
		},
		{
			name:       "below both",
			newWeight:  50,
			newReps:    3,
			bests:      gymstats.KnownBests{Weight: 100, Reps: 10},
			expectedPR: gymstats.PRResult{},
		},
		{
			// first ever set counts as both records, single rep included
			name:       "no prior record",
			newWeight:  20,
			newReps:    1,
			bests:      gymstats.KnownBests{},
			expectedPR: gymstats.PRResult{IsWeightPR: true, IsRepsPR: true},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expectedPR, gymstats.Evaluate(tc.newWeight, tc.newReps, tc.bests))
		})
	}
}

func TestEvaluate_TieAndAbove(t *testing.T) {
	for i := 0; i < 100; i++ {
		bestWeight := float64(gofakeit.IntRange(0, 400))
		bests := gymstats.KnownBests{
			Weight: bestWeight,
			Reps:   gofakeit.IntRange(1, 30),
		}
		reps := gofakeit.IntRange(1, 30)

		assert.False(t, gymstats.Evaluate(bestWeight, reps, bests).IsWeightPR)
		assert.True(t, gymstats.Evaluate(bestWeight+1, reps, bests).IsWeightPR)
		assert.False(t, gymstats.Evaluate(bestWeight, bests.Reps, bests).IsRepsPR)
		assert.True(t, gymstats.Evaluate(bestWeight, bests.Reps+1, bests).IsRepsPR)
	}
}

func TestPRResult_Kinds(t *testing.T) {
	assert.Nil(t, gymstats.PRResult{}.Kinds())
	assert.False(t, gymstats.PRResult{}.Any())
	assert.Equal(t,
		[]gymstats.PRKind{gymstats.PRKindWeight, gymstats.PRKindReps},
		gymstats.PRResult{IsWeightPR: true, IsRepsPR: true}.Kinds(),
	)
	assert.Equal(t, []gymstats.PRKind{gymstats.PRKindReps}, gymstats.PRResult{IsRepsPR: true}.Kinds())
	assert.True(t, gymstats.PRResult{IsRepsPR: true}.Any())
}

func TestKnownBestsFromRecords(t *testing.T) {
	assert.Equal(t, gymstats.KnownBests{}, gymstats.KnownBestsFromRecords(nil))

	bests := gymstats.KnownBestsFromRecords([]gymstats.PersonalRecord{
		{Kind: gymstats.PRKindWeight, Value: 170, DateAchieved: "2024-03-01"},
		{Kind: gymstats.PRKindReps, Value: 5, DateAchieved: "2024-02-11"},
		{Kind: gymstats.PRKindVolume, Value: 2500, DateAchieved: "2024-02-11"},
		// duplicated rows should not happen, but the max wins if they do
		{Kind: gymstats.PRKindWeight, Value: 160, DateAchieved: "2024-01-01"},
	})
	assert.Equal(t, gymstats.KnownBests{Weight: 170, Reps: 5}, bests)
}

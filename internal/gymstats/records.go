package gymstats

// KnownBests are the best values observed so far for one exercise.
// Zero values mean no prior record.
type KnownBests struct {
	Weight float64 `json:"weight"`
	Reps   int     `json:"reps"`
}

// KnownBestsFromRecords folds the backend PR rows of one exercise into
// KnownBests. Kinds other than weight and reps are ignored.
func KnownBestsFromRecords(records []PersonalRecord) KnownBests {
	var bests KnownBests
	for _, r := range records {
		switch r.Kind {
		case PRKindWeight:
			if r.Value > bests.Weight {
				bests.Weight = r.Value
			}
		case PRKindReps:
			if reps := int(r.Value); reps > bests.Reps {
				bests.Reps = reps
			}
		}
	}
	return bests
}

type PRResult struct {
	IsWeightPR bool `json:"is_weight_pr"`
	IsRepsPR   bool `json:"is_reps_pr"`
}

func (r PRResult) Any() bool {
	return r.IsWeightPR || r.IsRepsPR
}

func (r PRResult) Kinds() []PRKind {
	var kinds []PRKind
	if r.IsWeightPR {
		kinds = append(kinds, PRKindWeight)
	}
	if r.IsRepsPR {
		kinds = append(kinds, PRKindReps)
	}
	return kinds
}

// Evaluate decides which records a new set beats. A tie is not a record.
// With no prior record (zero bests) any positive set is both a weight and
// a reps record, including a first ever single rep.
func Evaluate(newTotalWeight float64, newReps int, bests KnownBests) PRResult {
	return PRResult{
		IsWeightPR: newTotalWeight > bests.Weight,
		IsRepsPR:   newReps > bests.Reps,
	}
}

package analytics

// TrialConversion summarises what happened to one period's trial cohort.
type TrialConversion struct {
	TotalTrials     int
	ConvertedTrials int
	CancelledTrials int
	Rate            float64
}

// TrialDevices returns the distinct device ids with at least one trial
// purchase, in first-seen order. These ids key the dependent lifetime
// conversion lookup.
func TrialDevices(purchases []PurchaseRecord) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, purchase := range purchases {
		if !purchase.IsTrial || purchase.DeviceID == "" {
			continue
		}
		if _, dup := seen[purchase.DeviceID]; dup {
			continue
		}
		seen[purchase.DeviceID] = struct{}{}
		ids = append(ids, purchase.DeviceID)
	}
	return ids
}

// ResolveTrialConversion combines a period's trial device set with the ids
// the store reported as having any paid purchase on record. Converted ids are
// deduplicated and intersected with the trial set before counting, so a
// lookup returning extra or repeated rows cannot produce a negative
// cancellation count. The rate is 0 when the cohort is empty.
func ResolveTrialConversion(trialIDs, convertedIDs []string) TrialConversion {
	conv := TrialConversion{TotalTrials: len(trialIDs)}
	if conv.TotalTrials == 0 {
		return conv
	}

	trialSet := make(map[string]struct{}, len(trialIDs))
	for _, id := range trialIDs {
		trialSet[id] = struct{}{}
	}

	converted := make(map[string]struct{}, len(convertedIDs))
	for _, id := range convertedIDs {
		if id == "" {
			continue
		}
		if _, ok := trialSet[id]; ok {
			converted[id] = struct{}{}
		}
	}

	conv.ConvertedTrials = len(converted)
	conv.CancelledTrials = conv.TotalTrials - conv.ConvertedTrials
	conv.Rate = Round2(float64(conv.CancelledTrials) / float64(conv.TotalTrials) * 100)
	return conv
}

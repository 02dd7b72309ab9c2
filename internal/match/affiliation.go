package match

import "github.com/pdiddy/cris-reconcile/pkg/types"

// HasHomeAffiliation reports whether any authorship of target lists the home
// institution. An empty homeID never matches.
func HasHomeAffiliation(target types.TargetRecord, homeID string) bool {
	if homeID == "" {
		return false
	}
	for _, a := range target.Authorships {
		for _, id := range a.InstitutionIDs {
			if id == homeID {
				return true
			}
		}
	}
	return false
}

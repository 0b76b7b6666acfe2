// internal/stats/aggregate.go
package stats

import (
	"hub-backoffice/internal/common/config"
	"hub-backoffice/internal/evidence"
	"hub-backoffice/internal/models"
	"hub-backoffice/internal/onboarding"
)

// evaluate derives the result of every tenant in the snapshot, sorted newest
// activity first.
func evaluate(snap *evidence.Snapshot) []onboarding.Result {
	idx := snap.Index()
	results := make([]onboarding.Result, 0, len(snap.Tenants))
	for _, t := range snap.Tenants {
		results = append(results, onboarding.Evaluate(t, idx.Evidence(t.ID)))
	}
	onboarding.SortByActivity(results)
	return results
}

// summarize fills the counters of s from the snapshot and its derived results.
func summarize(s *Stats, snap *evidence.Snapshot, results []onboarding.Result) {
	idx := snap.Index()

	s.TotalTenants = len(snap.Tenants)
	for _, t := range snap.Tenants {
		if idx.HasMembership(t.ID) {
			s.ActiveTenants++
		}
	}

	activeUsers := make(map[string]struct{}, len(snap.Memberships))
	for _, m := range snap.Memberships {
		activeUsers[m.UserID] = struct{}{}
	}
	s.ActiveUsers = len(activeUsers)
	s.TotalUsers = len(snap.Users)

	s.TotalVerifications = len(snap.Verifications)
	for _, v := range snap.Verifications {
		if v.Status == models.VerificationStatusPending {
			s.PendingVerifications++
		}
	}

	for _, l := range snap.Leads {
		s.TotalLeads += l.Total
		s.PendingLeads += l.Pending
	}

	s.StageCounts = make(map[onboarding.Stage]int, len(onboarding.OrderedStages()))
	for _, st := range onboarding.OrderedStages() {
		s.StageCounts[st] = 0
	}
	total := 0.0
	for _, r := range results {
		s.StageCounts[r.Stage]++
		total += r.Progress
	}
	if len(results) > 0 {
		s.AverageProgress = total / float64(len(results))
	}

	s.DegradedSources = snap.FailedNames()
	if len(s.DegradedSources) == 0 {
		s.DegradedSources = nil
	}
}

// breakdown buckets the raw global evidence by hub in a single pass. Rows
// come out in directory order, one per known hub; evidence for hubs the
// directory does not know is left out of the table.
func breakdown(snap *evidence.Snapshot, hubs []config.Hub) []HubBreakdown {
	rows := make([]HubBreakdown, len(hubs))
	pos := make(map[int]int, len(hubs))
	for i, h := range hubs {
		rows[i] = HubBreakdown{HubID: h.ID, HubName: h.Name}
		pos[h.ID] = i
	}

	for _, t := range snap.Tenants {
		if i, ok := pos[t.HubID]; ok {
			rows[i].Tenants++
		}
	}
	for _, u := range snap.Users {
		if i, ok := pos[u.HubID]; ok {
			rows[i].Users++
		}
	}
	for _, l := range snap.Leads {
		if i, ok := pos[l.HubID]; ok {
			rows[i].Leads += l.Total
		}
	}
	for _, v := range snap.Verifications {
		if i, ok := pos[v.HubID]; ok {
			rows[i].Verifications++
			if v.Status == models.VerificationStatusPending {
				rows[i].PendingVerifications++
			}
		}
	}
	return rows
}

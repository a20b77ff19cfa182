package dedup

import (
	"sort"

	"github.com/Ramsey-B/sage/pkg/models"
)

// FindDuplicateGroups scans a user's persisted records and groups the ones
// sharing a full equality key. Only groups with two or more members are
// returned. Each group is ordered oldest created_at first so the keep record
// is always index 0; records with a zero created_at sort last, and ties keep
// their input order. Groups are sorted by the keep record's name.
func FindDuplicateGroups(recordType models.RecordType, records []models.Record) []models.DuplicateGroup {
	byKey := make(map[string][]models.Record)
	order := []string{}

	for _, r := range records {
		key := KeyForRecord(recordType, r)
		if _, ok := byKey[key]; !ok {
			order = append(order, key)
		}
		byKey[key] = append(byKey[key], r)
	}

	groups := []models.DuplicateGroup{}
	for _, key := range order {
		members := byKey[key]
		if len(members) < 2 {
			continue
		}

		sort.SliceStable(members, func(i, j int) bool {
			a, b := members[i].CreatedAt, members[j].CreatedAt
			if a.IsZero() != b.IsZero() {
				return !a.IsZero()
			}
			return a.Before(b)
		})

		groups = append(groups, models.DuplicateGroup{
			Key:     key,
			Name:    members[0].Name,
			Records: members,
		})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Name != groups[j].Name {
			return groups[i].Name < groups[j].Name
		}
		return groups[i].Key < groups[j].Key
	})

	return groups
}

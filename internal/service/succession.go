package service

import (
	"bytes"
	"sort"

	"github.com/dangerclosesec/studygroups/internal/model"
)

// successionOrder sorts memberships by join time, earliest first, breaking ties by
// user id so the choice never depends on storage iteration order.
func successionOrder(members []*model.Membership) []*model.Membership {
	ordered := make([]*model.Membership, len(members))
	copy(ordered, members)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if !a.JoinedAt.Equal(b.JoinedAt) {
			return a.JoinedAt.Before(b.JoinedAt)
		}
		return bytes.Compare(a.UserID[:], b.UserID[:]) < 0
	})
	return ordered
}

// chooseSuccessor picks who inherits a group after an admin leaves: the longest
// standing plain member, or the longest standing admin when no plain member remains.
// It returns nil for an empty group.
func chooseSuccessor(remaining []*model.Membership) *model.Membership {
	ordered := successionOrder(remaining)
	for _, m := range ordered {
		if m.Role == model.RoleMember {
			return m
		}
	}
	if len(ordered) == 0 {
		return nil
	}
	return ordered[0]
}

func hasAdmin(members []*model.Membership) bool {
	for _, m := range members {
		if m.IsAdmin() {
			return true
		}
	}
	return false
}

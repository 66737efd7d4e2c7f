package prisonwarden

import (
	"errors"
	"fmt"
	"sort"
)

// ErrRosterOutOfRange is returned when a 1-based appeal position falls
// outside the roster.
var ErrRosterOutOfRange = errors.New("appeal position out of range")

// AppealMember is one entry in a guild's appeal roster.
type AppealMember struct {
	Identity Identity
}

// Roster is the ordered set of members currently undergoing the ban-appeal
// process, sorted ascending by join time. Rosters are recomputed on every
// command invocation and never cached; they're bounded by a guild's member
// count, so correctness wins over performance here.
type Roster []AppealMember

// BuildRoster unions the member lists of the given appeal roles,
// deduplicates by user ID (first occurrence wins), and sorts ascending by
// join time. Role IDs missing from roleMembers (ex: deleted roles) are
// skipped. An empty role set or no members yields an empty roster.
func BuildRoster(
	roleIDs []string,
	roleMembers map[string][]Identity,
) Roster {
	var roster Roster
	seen := map[string]bool{}
	for _, roleID := range roleIDs {
		for _, member := range roleMembers[roleID] {
			if seen[member.ID] {
				continue
			}
			seen[member.ID] = true
			roster = append(roster, AppealMember{Identity: member})
		}
	}
	sort.SliceStable(
		roster, func(i, j int) bool {
			return roster[i].Identity.JoinedAt.Before(roster[j].Identity.JoinedAt)
		},
	)
	return roster
}

// Get returns the roster entry at the given 1-based position. Positions
// outside [1, len(roster)] return ErrRosterOutOfRange; callers report the
// valid range back to the user.
func (r Roster) Get(position int) (AppealMember, error) {
	if position < 1 || position > len(r) {
		return AppealMember{}, fmt.Errorf(
			"%w: try a number between `1` and `%d` instead",
			ErrRosterOutOfRange,
			len(r),
		)
	}
	return r[position-1], nil
}

// rosterRoleMembers builds the role ID -> member list mapping for
// BuildRoster from a full guild member list.
func rosterRoleMembers(
	roleIDs []string,
	members []Identity,
	memberRoles map[string][]string,
) map[string][]Identity {
	wanted := map[string]bool{}
	for _, roleID := range roleIDs {
		wanted[roleID] = true
	}
	roleMembers := map[string][]Identity{}
	for _, member := range members {
		for _, roleID := range memberRoles[member.ID] {
			if wanted[roleID] {
				roleMembers[roleID] = append(roleMembers[roleID], member)
			}
		}
	}
	return roleMembers
}

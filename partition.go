package coursegate

import (
	"context"
	"hash/fnv"
	"log/slog"
	"slices"
	"strconv"

	"github.com/samber/lo"
)

// PartitionID identifies a content partition on a block.
type PartitionID int

// GroupID identifies a group within a partition.
type GroupID int

// Group is one arm of a partition, e.g. a cohort or an experiment variant.
type Group struct {
	ID   GroupID `json:"id"`
	Name string  `json:"name"`
}

// SplitTestSchemeName is the scheme used by partitions that split-test
// experiments create for themselves. Those partitions route their own
// children and are not enforced here.
const SplitTestSchemeName = "random"

// GroupScheme assigns actors to groups within a partition. Implementations
// may assign deterministically (see [HashGroupScheme]) or from explicit
// enrollment records.
type GroupScheme interface {
	// Name identifies the scheme; used to recognize split-test partitions.
	Name() string
	// AssignedGroup returns the actor's group in the partition. ok is false
	// when the scheme assigns no group, which never satisfies a restricted
	// partition.
	AssignedGroup(ctx context.Context, scope CourseKey, actor *Actor, p Partition) (GroupID, bool)
}

// Partition is a named cohort dimension declared on a block.
type Partition struct {
	ID     PartitionID
	Name   string
	Scheme GroupScheme
	Groups []Group
}

// Group resolves a member group by id.
func (p Partition) Group(id GroupID) (Group, bool) {
	for _, g := range p.Groups {
		if g.ID == id {
			return g, true
		}
	}
	return Group{}, false
}

// IsSplitTest reports whether the partition is owned by the split-test
// experiment mechanism.
func (p Partition) IsSplitTest() bool {
	return p.Scheme != nil && p.Scheme.Name() == SplitTestSchemeName
}

// GroupAccess maps a partition to the groups allowed to see a block. A nil
// group list places no restriction on that partition; an empty non-nil list
// excludes everyone.
type GroupAccess map[PartitionID][]GroupID

// HashGroupScheme deterministically buckets actors over a partition's
// groups by hashing actor id and partition id. The string value is the
// scheme name.
type HashGroupScheme string

func (s HashGroupScheme) Name() string {
	return string(s)
}

func (s HashGroupScheme) AssignedGroup(_ context.Context, _ CourseKey, actor *Actor, p Partition) (GroupID, bool) {
	if len(p.Groups) == 0 {
		return 0, false
	}
	h := fnv.New64a()
	h.Write([]byte(actor.ID))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(int(p.ID))))
	return p.Groups[h.Sum64()%uint64(len(p.Groups))].ID, true
}

// hasGroupAccess reports whether the actor's group memberships are
// sufficient to load the block. Unresolvable partitions or groups and
// directives that exclude everyone all deny; "can't resolve" is never
// treated as "no restriction".
func (c *Checker) hasGroupAccess(ctx context.Context, actor *Actor, b *Block, scope CourseKey) bool {
	// When every declared partition belongs to a split-test experiment the
	// experiment routes access through its own children and there is
	// nothing to enforce here.
	splitOwned := lo.CountBy(b.Partitions, Partition.IsSplitTest)
	if splitOwned == len(b.Partitions) {
		return true
	}

	// Deterministic order, mostly for reproducible warnings.
	ids := lo.Keys(b.MergedGroupAccess)
	slices.Sort(ids)

	for _, id := range ids {
		groupIDs := b.MergedGroupAccess[id]
		if groupIDs != nil && len(groupIDs) == 0 {
			c.log.Warn("group access directive excludes all students, access will be denied",
				slog.Int("partition", int(id)),
				slog.String("block", b.Location.String()))
			return false
		}
	}

	type partitionGroups struct {
		partition Partition
		groups    []Group
	}
	restricted := make([]partitionGroups, 0, len(ids))
	for _, id := range ids {
		groupIDs := b.MergedGroupAccess[id]
		if groupIDs == nil {
			// Unrestricted partitions impose no constraint.
			continue
		}
		partition, ok := b.Partition(id)
		if !ok {
			c.log.Warn("error looking up user partition, access will be denied",
				slog.Int("partition", int(id)),
				slog.String("block", b.Location.String()))
			return false
		}
		groups := make([]Group, 0, len(groupIDs))
		for _, gid := range groupIDs {
			group, ok := partition.Group(gid)
			if !ok {
				c.log.Warn("error looking up referenced user partition group, access will be denied",
					slog.Int("partition", int(id)),
					slog.Int("group", int(gid)),
					slog.String("block", b.Location.String()))
				return false
			}
			groups = append(groups, group)
		}
		if len(groups) > 0 {
			restricted = append(restricted, partitionGroups{partition, groups})
		}
	}

	// The actor must hold a satisfactory group assignment in every
	// restricted partition.
	return lo.EveryBy(restricted, func(pg partitionGroups) bool {
		if pg.partition.Scheme == nil {
			return false
		}
		assigned, ok := pg.partition.Scheme.AssignedGroup(ctx, scope, actor, pg.partition)
		if !ok {
			return false
		}
		return lo.SomeBy(pg.groups, func(g Group) bool { return g.ID == assigned })
	})
}

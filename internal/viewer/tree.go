package viewer

import "github.com/five82/ts3view/internal/query"

// Filters select which channels are rendered.
type Filters struct {
	HideEmptyChannels  bool
	HideParentChannels bool
	LimitToChannels    []int // empty means no restriction
}

// Forest indexes a channel list by id and by parent id and records which
// channels are visible under a set of filters.
type Forest struct {
	channels    map[int]query.Channel
	children    map[int][]int
	visible     map[int]bool
	hideParents bool
}

// BuildForest indexes channels and applies the visibility filters. users is
// the aggregated user map; a channel counts as occupied when it has at least
// one rendered user.
func BuildForest(channels []query.Channel, users map[int][]RenderedUser, filters Filters) *Forest {
	f := &Forest{
		channels:    make(map[int]query.Channel, len(channels)),
		children:    make(map[int][]int),
		visible:     make(map[int]bool, len(channels)),
		hideParents: filters.HideParentChannels,
	}

	limited := len(filters.LimitToChannels) > 0
	initial := !(limited || filters.HideEmptyChannels)

	for _, ch := range channels {
		if _, seen := f.channels[ch.ID]; !seen {
			f.children[ch.ParentID] = append(f.children[ch.ParentID], ch.ID)
		}
		f.channels[ch.ID] = ch
		f.visible[ch.ID] = initial
	}

	switch {
	case filters.HideEmptyChannels && limited:
		var ids []int
		for _, id := range filters.LimitToChannels {
			if len(users[id]) > 0 {
				ids = append(ids, id)
			}
		}
		f.markVisible(ids)
	case filters.HideEmptyChannels:
		var ids []int
		for _, ch := range channels {
			if len(users[ch.ID]) > 0 {
				ids = append(ids, ch.ID)
			}
		}
		f.markVisible(ids)
	case limited:
		f.markVisible(filters.LimitToChannels)
	}
	return f
}

// markVisible shows each listed channel and, unless parents are hidden, every
// ancestor up to the root level. Unknown ids are ignored.
func (f *Forest) markVisible(ids []int) {
	for _, id := range ids {
		seen := make(map[int]bool)
		for cur := id; !seen[cur]; {
			ch, ok := f.channels[cur]
			if !ok {
				break
			}
			seen[cur] = true
			f.visible[cur] = true
			if f.hideParents || ch.ParentID == 0 {
				break
			}
			cur = ch.ParentID
		}
	}
}

// Visible reports whether the channel survives the filters.
func (f *Forest) Visible(id int) bool {
	return f.visible[id]
}

// Channel returns the channel with the given id.
func (f *Forest) Channel(id int) (query.Channel, bool) {
	ch, ok := f.channels[id]
	return ch, ok
}

// Children returns the ids of parent's direct children in response order.
// Use 0 for root-level channels.
func (f *Forest) Children(parent int) []int {
	return f.children[parent]
}

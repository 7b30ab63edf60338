package query

import "strconv"

// FlagIndex maps group ids to icon tokens. Only groups with an icon are present.
type FlagIndex struct {
	ServerGroups  map[int]string
	ChannelGroups map[int]string
}

// NewFlagIndex returns an empty index.
func NewFlagIndex() FlagIndex {
	return FlagIndex{
		ServerGroups:  make(map[int]string),
		ChannelGroups: make(map[int]string),
	}
}

// ServerGroupFlag returns the icon token of a server group.
func (f FlagIndex) ServerGroupFlag(id int) (string, bool) {
	token, ok := f.ServerGroups[id]
	return token, ok
}

// ChannelGroupFlag returns the icon token of a channel group.
func (f FlagIndex) ChannelGroupFlag(id int) (string, bool) {
	token, ok := f.ChannelGroups[id]
	return token, ok
}

func addGroupFlags(dest map[int]string, records []Record, idField string) {
	for _, r := range records {
		icon := r.Int64("iconid")
		if icon <= 0 {
			continue
		}
		dest[r.Int(idField)] = groupIconToken(icon)
	}
}

func groupIconToken(icon int64) string {
	return "group_" + strconv.FormatInt(icon, 10)
}

package events

import (
	"fmt"
	"strings"
)

const userChannelPrefix = "channel:user:"

// UserChannelPattern matches every per-user channel.
const UserChannelPattern = userChannelPrefix + "*"

func UserChannel(uid string) string {
	return fmt.Sprintf("%s%s", userChannelPrefix, uid)
}

// UserFromChannel extracts the uid of a per-user channel.
func UserFromChannel(channel string) (string, bool) {
	uid, ok := strings.CutPrefix(channel, userChannelPrefix)
	if !ok || uid == "" {
		return "", false
	}
	return uid, true
}

package webcast

import (
	"regexp"
	"strconv"
	"strings"
)

var topGifterRankPattern = regexp.MustCompile(`ranklist_top_gifter_(\d+)\.png`)

// Badge scene types with special meaning for derived roles.
const (
	sceneModerator = 1
	sceneSubTier1  = 4
	sceneSubTier2  = 7
	sceneUserGrade = 8
	sceneFans      = 10
)

// UserAttributes converts a raw nested user structure into a flat attribute
// bag: identifiers as decimal strings, display fields, a single preferred
// profile picture, the flattened badge list, and the derived role fields.
// A nil or partial user never fails; absent source fields are simply omitted.
func UserAttributes(rawUser map[string]any) map[string]any {
	attrs := make(map[string]any)

	if id, ok := asString(rawUser["userId"]); ok {
		attrs["userId"] = id
	}
	if id, ok := asString(rawUser["secUid"]); ok {
		attrs["secUid"] = id
	}
	// Empty identity strings are not meaningful; drop them rather than
	// handing downstream consumers a blank name.
	if v, ok := rawUser["uniqueId"].(string); ok && v != "" {
		attrs["uniqueId"] = v
	}
	if v, ok := rawUser["nickname"].(string); ok && v != "" {
		attrs["nickname"] = v
	}

	picture := asMap(rawUser["profilePicture"])
	pictureURLs := stringList(picture["url"])
	if u, ok := PreferredPictureFormat(pictureURLs); ok {
		attrs["profilePictureUrl"] = u
	} else {
		attrs["profilePictureUrl"] = nil
	}

	followInfo := asMap(rawUser["followInfo"])
	if followInfo != nil {
		if fs, ok := followInfo["followStatus"]; ok {
			attrs["followRole"] = fs
		}
	}

	badges := MapBadges(asList(rawUser["badges"]))
	attrs["userBadges"] = badges

	if groups := asList(rawUser["badges"]); groups != nil {
		scenes := make([]int, 0, len(groups))
		for _, g := range groups {
			scene, _ := asInt(asMap(g)["badgeSceneType"])
			scenes = append(scenes, scene)
		}
		attrs["userSceneTypes"] = scenes
	}

	details := make(map[string]any)
	if ct, ok := asString(rawUser["createTime"]); ok {
		details["createTime"] = ct
	}
	if bio, ok := rawUser["bioDescription"]; ok {
		details["bioDescription"] = bio
	}
	if picture != nil {
		if urls, ok := picture["url"]; ok {
			details["profilePictureUrls"] = urls
		}
	}
	attrs["userDetails"] = details

	if followInfo != nil {
		info := make(map[string]any, 4)
		for _, k := range []string{"followingCount", "followerCount", "followStatus", "pushStatus"} {
			if v, ok := followInfo[k]; ok {
				info[k] = v
			}
		}
		attrs["followInfo"] = info
	}

	attrs["isModerator"] = anyBadge(badges, isModeratorBadge)
	attrs["isNewGifter"] = anyBadge(badges, isNewGifterBadge)
	attrs["isSubscriber"] = anyBadge(badges, isSubscriberBadge)
	attrs["topGifterRank"] = topGifterRank(badges)
	attrs["gifterLevel"] = levelForScene(badges, sceneUserGrade)
	attrs["teamMemberLevel"] = levelForScene(badges, sceneFans)

	return attrs
}

func anyBadge(badges []map[string]any, pred func(map[string]any) bool) bool {
	for _, b := range badges {
		if pred(b) {
			return true
		}
	}
	return false
}

// The role predicates below are business rules inherited from the upstream
// platform; the substring patterns and scene type numbers must match exactly.

func isModeratorBadge(b map[string]any) bool {
	if t, ok := asString(b["type"]); ok && strings.Contains(strings.ToLower(t), "moderator") {
		return true
	}
	scene, _ := asInt(b["badgeSceneType"])
	return scene == sceneModerator
}

func isNewGifterBadge(b map[string]any) bool {
	t, ok := asString(b["type"])
	return ok && strings.Contains(strings.ToLower(t), "live_ng_")
}

func isSubscriberBadge(b map[string]any) bool {
	if u, ok := asString(b["url"]); ok && strings.Contains(strings.ToLower(u), "/sub_") {
		return true
	}
	scene, _ := asInt(b["badgeSceneType"])
	return scene == sceneSubTier1 || scene == sceneSubTier2
}

// topGifterRank returns the rank parsed from the first ranklist badge URL, or
// nil when the user carries no such badge. Nil (not zero) is the contract for
// "unranked".
func topGifterRank(badges []map[string]any) any {
	for _, b := range badges {
		url, _ := asString(b["url"])
		if !strings.Contains(url, "/ranklist_top_gifter_") {
			continue
		}
		if m := topGifterRankPattern.FindStringSubmatch(url); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return n
			}
		}
		// only the first matching badge is consulted
		return nil
	}
	return nil
}

func levelForScene(badges []map[string]any, scene int) int {
	for _, b := range badges {
		if s, _ := asInt(b["badgeSceneType"]); s != scene {
			continue
		}
		lvl, _ := asInt(b["level"])
		return lvl
	}
	return 0
}

package webcast

// MapBadges flattens the multiply-nested badge group structure into a single
// ordered list of uniform badge records. Each flat badge carries the scene
// type of the group it came from (0 when the group has none). Within a group
// the plain badges come first, then the image badges, then at most one
// privilege badge. Absent or malformed input yields an empty list.
func MapBadges(groups []any) []map[string]any {
	simplified := make([]map[string]any, 0, len(groups))

	for _, g := range groups {
		group := asMap(g)
		if group == nil {
			continue
		}
		scene, _ := asInt(group["badgeSceneType"])

		for _, b := range asList(group["badges"]) {
			badge := asMap(b)
			if badge == nil {
				continue
			}
			flat := map[string]any{"badgeSceneType": scene}
			for k, v := range badge {
				flat[k] = v
			}
			simplified = append(simplified, flat)
		}

		for _, b := range asList(group["imageBadges"]) {
			badge := asMap(b)
			if badge == nil {
				continue
			}
			url, _ := asString(asMap(badge["image"])["url"])
			if url == "" {
				// image badges without an image are meaningless downstream
				continue
			}
			flat := map[string]any{
				"type":           "image",
				"badgeSceneType": scene,
				"url":            url,
			}
			if dt, ok := badge["displayType"]; ok {
				flat["displayType"] = dt
			}
			simplified = append(simplified, flat)
		}

		if extra := asMap(group["privilegeLogExtra"]); extra != nil {
			if lvl, ok := asString(extra["level"]); ok && lvl != "" && lvl != "0" {
				level, _ := asInt(extra["level"])
				flat := map[string]any{
					"type":           "privilege",
					"badgeSceneType": scene,
					"level":          level,
				}
				if id, ok := extra["privilegeId"]; ok {
					flat["privilegeId"] = id
				}
				simplified = append(simplified, flat)
			}
		}
	}

	return simplified
}
